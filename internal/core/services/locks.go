package services

import (
	"context"
	"sync"
	"time"

	"github.com/paperbase/paperbase/internal/core/domain"
)

// lockTable serialises ingestion per document ID. Acquisition waits up to
// the configured timeout and then fails with domain.ErrConflict; waiters
// are never queued beyond that.
type lockTable struct {
	mu      sync.Mutex
	held    map[string]struct{}
	timeout time.Duration
}

func newLockTable(timeout time.Duration) *lockTable {
	return &lockTable{
		held:    make(map[string]struct{}),
		timeout: timeout,
	}
}

// Acquire takes the lock for id, waiting up to the table timeout.
// Returns domain.ErrConflict when the lock stays held past the deadline,
// or the context error when ctx ends first.
func (t *lockTable) Acquire(ctx context.Context, id string) error {
	deadline := time.Now().Add(t.timeout)
	for {
		t.mu.Lock()
		if _, taken := t.held[id]; !taken {
			t.held[id] = struct{}{}
			t.mu.Unlock()
			return nil
		}
		t.mu.Unlock()

		if time.Now().After(deadline) {
			return domain.ErrConflict
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Release frees the lock for id. Releasing an unheld lock is a no-op.
func (t *lockTable) Release(id string) {
	t.mu.Lock()
	delete(t.held, id)
	t.mu.Unlock()
}

// Held reports whether id is currently locked.
func (t *lockTable) Held(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, taken := t.held[id]
	return taken
}
