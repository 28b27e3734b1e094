package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/hmoralesp/casaflow/config"
	"github.com/hmoralesp/casaflow/logging"
)

// ErrDurabilityRequired is returned by Open when a production deployment has
// no reachable durable backend. The process must refuse to start rather than
// run with silent data-loss risk.
var ErrDurabilityRequired = errors.New("production deployment requires a reachable durable checkpoint backend")

// Open selects a backend in priority order:
//
//  1. Pooled Postgres, when a durable connection string is configured.
//  2. Embedded SQLite, when no durable backend is configured and the
//     deployment is not flagged production.
//  3. In-memory, last resort and explicitly non-durable.
//
// In production the first tier is mandatory: a missing or unreachable
// durable backend is fatal. In development each failing tier logs a warning
// and degrades to the next.
func Open(ctx context.Context, cfg *config.Config, logger logging.Logger) (Store, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	if cfg.DatabaseURL != "" {
		store, err := NewPostgresStore(ctx, cfg.DatabaseURL, cfg.Pool, logger)
		if err == nil {
			logger.Info("checkpoint store ready", "backend", "postgres")
			return store, nil
		}
		if cfg.IsProduction() {
			return nil, fmt.Errorf("%w: %v", ErrDurabilityRequired, err)
		}
		logger.Warn("durable checkpoint backend unreachable, degrading",
			"backend", "postgres", "error", err.Error())
	} else if cfg.IsProduction() {
		return nil, fmt.Errorf("%w: no connection string configured", ErrDurabilityRequired)
	}

	if store, err := NewSQLiteStore(cfg.SQLitePath); err == nil {
		logger.Info("checkpoint store ready", "backend", "sqlite", "path", cfg.SQLitePath)
		return store, nil
	} else {
		logger.Warn("embedded checkpoint backend unavailable, degrading",
			"backend", "sqlite", "path", cfg.SQLitePath, "error", err.Error())
	}

	logger.Warn("falling back to volatile in-memory checkpoint store")
	return NewMemoryStore(), nil
}
