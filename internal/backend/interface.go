// Package backend builds the ledger store and sync collaborators selected
// by configuration.
package backend

import (
	"context"

	"moneymate/internal/services"
	"moneymate/internal/sheets"
	"moneymate/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the ledger store, the optional sync publisher and
// a cleanup function releasing both.
type BackendResult struct {
	Repository storage.Repository
	// Publisher is nil when spreadsheet sync is disabled or the broker
	// was unreachable at startup.
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	CreateAppender(ctx context.Context, config Config) (sheets.RowAppender, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// json
	DataDirectory string
	// sqlite
	SQLiteDBPath string

	// Sync publishing; empty URL disables it.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Spreadsheet target used by the sync worker.
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// BackendType represents the type of ledger store
type BackendType string

const (
	JSONBackend   BackendType = "json"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case JSONBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
