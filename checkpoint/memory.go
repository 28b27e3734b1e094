package checkpoint

import (
	"context"
	"sync"
	"time"

	"github.com/hmoralesp/casaflow/core"
)

// MemoryStore is a volatile Store implementation keeping checkpoints in a
// process local map. It is the last-resort backend tier and is explicitly
// non-durable: state is lost on restart. Each returned state is cloned to
// prevent external mutation of internal snapshots.
type MemoryStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*Checkpoint
}

// NewMemoryStore constructs an empty in-memory checkpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{checkpoints: make(map[string]*Checkpoint)}
}

// Load returns a clone of the latest state for the session.
func (s *MemoryStore) Load(_ context.Context, sessionID string) (*core.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.checkpoints[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return cp.State.Clone(), nil
}

// Save stores a clone of the state, bumping the session's version.
func (s *MemoryStore) Save(_ context.Context, sessionID string, state *core.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var version int64 = 1
	if prev, ok := s.checkpoints[sessionID]; ok {
		version = prev.Version + 1
	}
	s.checkpoints[sessionID] = &Checkpoint{
		SessionID: sessionID,
		Version:   version,
		State:     state.Clone(),
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

// Close is a no-op for the in-memory backend.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
