// Package checkpoint persists conversation state snapshots per session. It
// provides three interchangeable backends (pooled Postgres, embedded SQLite,
// in-memory) behind one Store interface, a startup fallback chain that
// selects the best available backend, and a bounded retry decorator for
// transient failures.
package checkpoint

import (
	"context"
	"errors"
	"time"

	"github.com/hmoralesp/casaflow/core"
)

// ErrNotFound is returned by Load when no checkpoint exists for a session.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint is an immutable snapshot of conversation state tagged with its
// session and a monotonically increasing version.
type Checkpoint struct {
	SessionID string                  `json:"session_id"`
	Version   int64                   `json:"version"`
	State     *core.ConversationState `json:"state"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// Store is the durable key-value contract for conversation state. Only
// get-latest and upsert-latest are supported; history rewrite is out of
// scope. Implementations must be safe for concurrent use across sessions.
type Store interface {
	// Load returns the latest state for a session, or ErrNotFound.
	Load(ctx context.Context, sessionID string) (*core.ConversationState, error)
	// Save upserts the latest state for a session, bumping its version.
	Save(ctx context.Context, sessionID string, state *core.ConversationState) error
	// Close releases backend resources.
	Close() error
}
