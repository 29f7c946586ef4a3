// Package storage persists one ledger per user.
//
// Three stores satisfy Repository: a JSON file per user written atomically,
// a SQLite database with embedded migrations, and an in-memory map for
// tests and ephemeral runs.
package storage

import (
	"context"
	"errors"
	"fmt"

	"moneymate/internal/core"
)

var (
	// ErrPersistence wraps every failure of the underlying store. It is
	// recoverable: the caller may retry and no previously saved state is lost.
	ErrPersistence = errors.New("persistence failure")
	// ErrUserNotFound is returned by Load for a user that was never saved.
	ErrUserNotFound = errors.New("user not found")
)

// Repository loads and saves complete ledgers keyed by user id.
type Repository interface {
	Load(ctx context.Context, userID string) (*core.Ledger, error)
	Save(ctx context.Context, userID string, ledger *core.Ledger) error
	Close() error
}

// Pinger is implemented by stores that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}
