// Package worker mirrors recorded transactions into the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"moneymate/internal/amqp"
	"moneymate/internal/cache"
	"moneymate/internal/log"
	"moneymate/internal/metrics"
	"moneymate/internal/sheets"
)

const (
	// Transactions appended recently; redelivered messages for these are skipped.
	seenSize = 4096
	seenTTL  = 24 * time.Hour
)

// Consumer delivers TransactionRecorded messages to a handler.
type Consumer interface {
	ConsumeTransactions(ctx context.Context, handler amqp.Handler) error
}

// SyncWorker appends every recorded transaction as a spreadsheet row.
type SyncWorker struct {
	sheets     sheets.RowAppender
	seen       cache.Cache[string]
	metrics    *metrics.Metrics
	logger     *log.Logger
	newBackOff func() backoff.BackOff
}

func NewSyncWorker(appender sheets.RowAppender, m *metrics.Metrics, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		sheets:     appender,
		seen:       cache.NewLRUCache[string](seenSize, seenTTL),
		metrics:    m,
		logger:     logger.WithComponent(log.ComponentWorker),
		newBackOff: defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = time.Minute
	return b
}

// WithBackOff replaces the retry policy used for spreadsheet appends.
func (w *SyncWorker) WithBackOff(fn func() backoff.BackOff) *SyncWorker {
	w.newBackOff = fn
	return w
}

// Run consumes messages until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context, consumer Consumer) error {
	err := consumer.ConsumeTransactions(ctx, w.HandleTransaction)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleTransaction appends one message, retrying transient failures. A
// returned error asks the broker to redeliver; malformed rows and rows the
// spreadsheet rejects are dropped.
func (w *SyncWorker) HandleTransaction(ctx context.Context, msg *amqp.TransactionRecorded) error {
	logger := w.logger.With(log.FieldUserID, msg.UserID, log.FieldRecordID, msg.TransactionID)

	if ref, ok := w.seen.Get(msg.TransactionID); ok {
		logger.InfoContext(ctx, "Transaction already synced, skipping", log.FieldSheetsRef, ref)
		return nil
	}

	row := sheets.RowFromTransaction(msg.UserID, msg.Transaction())
	if err := row.Validate(); err != nil {
		logger.ErrorContext(ctx, "Dropping invalid transaction message", log.FieldError, err)
		w.metrics.ObserveAppend(err)
		return nil
	}

	attempt := 0
	var ref string
	op := func() error {
		attempt++
		var err error
		ref, err = w.sheets.Append(ctx, row)
		if errors.Is(err, sheets.ErrInvalidRow) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		logger.WarnContext(ctx, "Spreadsheet append failed, retrying",
			log.FieldAttempt, attempt, log.FieldError, err, "retry_in", next)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(w.newBackOff(), ctx), notify)
	w.metrics.ObserveAppend(err)
	if errors.Is(err, sheets.ErrInvalidRow) {
		logger.ErrorContext(ctx, "Spreadsheet rejected transaction row, dropping",
			log.FieldAttempt, attempt, log.FieldError, err)
		return nil
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to sync transaction",
			log.FieldAttempt, attempt, log.FieldError, err)
		return fmt.Errorf("append to sheets: %w", err)
	}

	w.seen.Set(msg.TransactionID, ref)
	logger.InfoContext(ctx, "Successfully synced transaction",
		log.FieldSheetsRef, ref,
		log.FieldCategory, row.Category,
		log.FieldAmount, row.Amount.StringFixed(2))
	return nil
}
