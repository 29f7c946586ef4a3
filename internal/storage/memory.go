package storage

import (
	"context"
	"sync"

	"moneymate/internal/core"
)

// MemoryRepository keeps ledgers in process memory. Stored ledgers are
// copied on the way in and out so callers never share state with the store.
type MemoryRepository struct {
	mu      sync.RWMutex
	ledgers map[string]*core.Ledger
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{ledgers: make(map[string]*core.Ledger)}
}

func (r *MemoryRepository) Load(_ context.Context, userID string) (*core.Ledger, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.ledgers[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return l.Clone(), nil
}

func (r *MemoryRepository) Save(_ context.Context, userID string, ledger *core.Ledger) error {
	if err := core.ValidateUserID(userID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ledgers[userID] = ledger.Clone()
	return nil
}

// Users returns the ids with a saved ledger.
func (r *MemoryRepository) Users() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.ledgers))
	for id := range r.ledgers {
		ids = append(ids, id)
	}
	return ids
}

func (r *MemoryRepository) Close() error { return nil }
