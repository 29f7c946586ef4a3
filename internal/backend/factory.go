package backend

import (
	"context"
	"errors"
	"fmt"

	"moneymate/internal/amqp"
	"moneymate/internal/log"
	"moneymate/internal/sheets"
	gsheet "moneymate/internal/sheets/google"
	"moneymate/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend. A broker that cannot be
// reached only disables sync; the store is still returned.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	repo, err := f.createRepository(config)
	if err != nil {
		return nil, err
	}

	result := &BackendResult{Repository: repo}
	var client *amqp.Client
	if config.AMQPURL != "" {
		client, err = amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without sync", log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.Publisher = client
		}
	}

	result.Cleanup = func() error {
		var errs []error
		if err := repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
		if client != nil {
			if err := client.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
		}
		return errors.Join(errs...)
	}

	f.logger.InfoContext(ctx, "Initialized ledger store",
		"backend", config.Type,
		"sync_enabled", result.Publisher != nil)
	return result, nil
}

func (f *DefaultFactory) createRepository(config Config) (storage.Repository, error) {
	switch config.Type {
	case JSONBackend:
		repo, err := storage.NewJSONFileRepository(config.DataDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize JSON repository: %w", err)
		}
		return repo, nil
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		return repo, nil
	case MemoryBackend:
		return storage.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// CreateAppender builds the Google Sheets appender used by the sync worker.
func (f *DefaultFactory) CreateAppender(ctx context.Context, config Config) (sheets.RowAppender, error) {
	cli, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized Google Sheets appender", "sheet", config.GoogleSheetName)
	return cli, nil
}
