package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hmoralesp/casaflow/core"
	"github.com/hmoralesp/casaflow/logging"
)

// RetryStore decorates a Store with a small fixed number of retries and a
// short fixed backoff for transient failures. Not-found results and context
// cancellation are surfaced immediately; anything else is assumed transient
// until the attempt budget is spent, at which point the failure is hard.
type RetryStore struct {
	inner    Store
	attempts int
	backoff  time.Duration
	logger   logging.Logger
}

// WithRetry wraps a store. attempts < 1 is clamped to 1.
func WithRetry(inner Store, attempts int, backoff time.Duration, logger logging.Logger) *RetryStore {
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &RetryStore{inner: inner, attempts: attempts, backoff: backoff, logger: logger}
}

// Load retries the inner Load on transient failure.
func (s *RetryStore) Load(ctx context.Context, sessionID string) (*core.ConversationState, error) {
	var state *core.ConversationState
	err := s.do(ctx, "load", sessionID, func() error {
		var err error
		state, err = s.inner.Load(ctx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Save retries the inner Save on transient failure.
func (s *RetryStore) Save(ctx context.Context, sessionID string, state *core.ConversationState) error {
	return s.do(ctx, "save", sessionID, func() error {
		return s.inner.Save(ctx, sessionID, state)
	})
}

// Close closes the wrapped store.
func (s *RetryStore) Close() error { return s.inner.Close() }

func (s *RetryStore) do(ctx context.Context, op, sessionID string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		lastErr = err
		if attempt == s.attempts {
			break
		}
		s.logger.Warn("checkpoint operation retry",
			"op", op, "session_id", sessionID, "attempt", attempt, "error", err.Error())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.backoff):
		}
	}
	return fmt.Errorf("checkpoint %s failed after %d attempts: %w", op, s.attempts, lastErr)
}

func isTransient(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

var _ Store = (*RetryStore)(nil)
