package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/hmoralesp/casaflow/config"
	"github.com/hmoralesp/casaflow/core"
	"github.com/hmoralesp/casaflow/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATE codes seen when schema setup runs behind a transaction-pooling
// proxy that disallows DDL inside a transaction, or when the table already
// exists. These mean the schema is effectively provisioned.
const (
	sqlstateActiveTx = "25001"
	sqlstateFailedTx = "25P02"
	sqlstateDupTable = "42P07"
)

// PostgresStore implements Store on a pgx connection pool. It is the
// first-priority backend: the pool enforces min/max size, connect timeout,
// idle and lifetime eviction, periodic health checks and TCP keepalive, and
// is the only component in the subsystem that needs explicit concurrency
// control.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewPostgresStore connects the pool using the supplied tuning and
// provisions the checkpoint schema.
func NewPostgresStore(ctx context.Context, connString string, poolCfg config.PoolConfig, logger logging.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	cfg.MinConns = poolCfg.MinConns
	cfg.MaxConns = poolCfg.MaxConns
	cfg.MaxConnIdleTime = poolCfg.MaxConnIdleTime
	cfg.MaxConnLifetime = poolCfg.MaxConnLifetime
	cfg.HealthCheckPeriod = poolCfg.HealthCheckPeriod
	cfg.ConnConfig.ConnectTimeout = poolCfg.ConnectTimeout
	cfg.ConnConfig.DialFunc = (&net.Dialer{
		Timeout:   poolCfg.ConnectTimeout,
		KeepAlive: poolCfg.KeepAlive,
	}).DialContext

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &PostgresStore{pool: pool, logger: logger}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS checkpoints (
			session_id TEXT PRIMARY KEY,
			version BIGINT NOT NULL,
			state JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err == nil {
		return nil
	}

	// Transaction-pooling proxies (pgbouncer et al.) reject DDL inside a
	// transaction; treat that, and an already-present table, as provisioned.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlstateActiveTx, sqlstateFailedTx, sqlstateDupTable:
			s.logger.Warn("checkpoint schema setup skipped, assuming provisioned",
				"sqlstate", pgErr.Code, "error", pgErr.Message)
			return nil
		}
	}
	return fmt.Errorf("create schema: %w", err)
}

// Load returns the latest state for the session.
func (s *PostgresStore) Load(ctx context.Context, sessionID string) (*core.ConversationState, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM checkpoints WHERE session_id = $1`, sessionID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query checkpoint: %w", err)
	}

	var state core.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode checkpoint state: %w", err)
	}
	return &state, nil
}

// Save upserts the latest state for the session, bumping its version.
func (s *PostgresStore) Save(ctx context.Context, sessionID string, state *core.ConversationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode checkpoint state: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO checkpoints (session_id, version, state, updated_at)
		VALUES ($1, 1, $2, now())
		ON CONFLICT (session_id) DO UPDATE SET
			version = checkpoints.version + 1,
			state = EXCLUDED.state,
			updated_at = now()`,
		sessionID, raw)
	if err != nil {
		return fmt.Errorf("upsert checkpoint: %w", err)
	}
	return nil
}

// Ping verifies pool connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close drains and closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var _ Store = (*PostgresStore)(nil)
