// Package services orchestrates ledger mutations and dashboard reads across
// the ledger store, the report cache and the sync publisher.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"moneymate/internal/amqp"
	"moneymate/internal/analytics"
	"moneymate/internal/cache"
	"moneymate/internal/core"
	"moneymate/internal/export"
	"moneymate/internal/log"
	"moneymate/internal/metrics"
	"moneymate/internal/storage"
)

// Publisher announces durably recorded transactions for spreadsheet sync.
type Publisher interface {
	PublishTransaction(ctx context.Context, msg *amqp.TransactionRecorded) error
}

// Options configures a LedgerService. Every field is optional.
type Options struct {
	Publisher        Publisher
	Reports          cache.Cache[analytics.Report]
	Metrics          *metrics.Metrics
	Logger           *log.Logger
	DefaultAllowance *decimal.Decimal
	// BackOff builds the retry policy for a single save.
	BackOff func() backoff.BackOff
}

// LedgerService serialises writes per user: every mutation loads the full
// ledger, applies the change to a copy and persists the copy. A failed
// save leaves the stored ledger untouched.
type LedgerService struct {
	repo             storage.Repository
	publisher        Publisher
	reports          cache.Cache[analytics.Report]
	metrics          *metrics.Metrics
	logger           *log.Logger
	defaultAllowance decimal.Decimal
	newBackOff       func() backoff.BackOff

	locks sync.Map // user id -> *sync.Mutex
	group singleflight.Group
}

func NewLedgerService(repo storage.Repository, opts Options) *LedgerService {
	s := &LedgerService{
		repo:             repo,
		publisher:        opts.Publisher,
		reports:          opts.Reports,
		metrics:          opts.Metrics,
		logger:           opts.Logger,
		defaultAllowance: core.DefaultAllowance,
		newBackOff:       opts.BackOff,
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	if opts.DefaultAllowance != nil {
		s.defaultAllowance = *opts.DefaultAllowance
	}
	if s.newBackOff == nil {
		s.newBackOff = defaultBackOff
	}
	return s
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = 3 * time.Second
	return backoff.WithMaxRetries(b, 3)
}

func (s *LedgerService) lock(userID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// load returns the stored ledger, or a fresh one for a user never saved.
// Callers must hold the user's lock.
func (s *LedgerService) load(ctx context.Context, userID string) (*core.Ledger, error) {
	l, err := s.repo.Load(ctx, userID)
	if errors.Is(err, storage.ErrUserNotFound) {
		return core.NewLedger(s.defaultAllowance), nil
	}
	if err != nil {
		s.persistenceFailed(ctx, userID, log.OpLoad, err)
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	l.Normalize()
	return l, nil
}

func (s *LedgerService) save(ctx context.Context, userID string, l *core.Ledger) error {
	start := time.Now()
	attempt := 0
	op := func() error {
		attempt++
		if attempt > 1 && s.metrics != nil {
			s.metrics.PersistenceRetries.Inc()
		}
		return s.repo.Save(ctx, userID, l)
	}
	notify := func(err error, next time.Duration) {
		s.logger.WarnContext(ctx, "Ledger save failed, retrying",
			log.FieldUserID, userID, log.FieldAttempt, attempt, log.FieldError, err, "retry_in", next)
	}
	err := backoff.RetryNotify(op, backoff.WithContext(s.newBackOff(), ctx), notify)
	if s.metrics != nil {
		s.metrics.SaveDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.persistenceFailed(ctx, userID, log.OpSave, err)
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

func (s *LedgerService) persistenceFailed(ctx context.Context, userID, op string, err error) {
	if s.metrics != nil {
		s.metrics.PersistenceErrors.WithLabelValues(op).Inc()
	}
	s.logger.ErrorContext(ctx, "Ledger store failure",
		log.NewFields().WithUser(userID).WithOperation(op).WithErrorType(log.ErrorTypePersistence).WithError(err).ToSlice()...)
}

// mutate runs fn against a copy of the user's ledger and persists it.
func (s *LedgerService) mutate(ctx context.Context, userID, op string, fn func(*core.Ledger) error) (*core.Ledger, error) {
	l, err := s.mutateLocked(ctx, userID, op, fn)
	s.metrics.ObserveOperation(op, err)
	if err != nil {
		if core.IsValidation(err) {
			var ve *core.ValidationError
			errors.As(err, &ve)
			if s.metrics != nil {
				s.metrics.ValidationFailures.WithLabelValues(ve.Field).Inc()
			}
			s.logger.WarnContext(ctx, "Rejected ledger update",
				log.NewFields().WithUser(userID).WithOperation(op).WithErrorType(log.ErrorTypeValidation).WithError(err).ToSlice()...)
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, "Ledger updated", log.FieldUserID, userID, log.FieldOperation, op)
	return l, nil
}

func (s *LedgerService) mutateLocked(ctx context.Context, userID, op string, fn func(*core.Ledger) error) (*core.Ledger, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return nil, err
	}
	mu := s.lock(userID)
	mu.Lock()
	defer mu.Unlock()

	current, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := s.save(ctx, userID, next); err != nil {
		return nil, err
	}
	s.invalidate(userID)
	return next, nil
}

func (s *LedgerService) invalidate(userID string) {
	if s.reports != nil {
		s.reports.DeletePrefix(userID + "|")
	}
}

// Ledger returns a copy of the user's full ledger.
func (s *LedgerService) Ledger(ctx context.Context, userID string) (*core.Ledger, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return nil, err
	}
	mu := s.lock(userID)
	mu.Lock()
	defer mu.Unlock()
	return s.load(ctx, userID)
}

// AddTransaction appends an expense and publishes it for spreadsheet sync.
// A missing ID is assigned. Publishing failures are logged, never returned.
func (s *LedgerService) AddTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := s.mutate(ctx, userID, log.OpAddExpense, func(l *core.Ledger) error {
		return l.AddTransaction(t)
	})
	if err != nil {
		return core.Transaction{}, err
	}
	if s.metrics != nil {
		s.metrics.TransactionAmount.Observe(t.Amount.InexactFloat64())
	}
	s.publish(ctx, userID, t)
	return t, nil
}

func (s *LedgerService) publish(ctx context.Context, userID string, t core.Transaction) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishTransaction(ctx, amqp.NewTransactionRecorded(userID, t))
	s.metrics.ObservePublish(err)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish transaction for sync",
			log.NewFields().WithUser(userID).WithTransaction(t.ID, t.Category, t.Amount.StringFixed(2)).WithError(err).ToSlice()...)
	}
}

func (s *LedgerService) AddGoal(ctx context.Context, userID string, g core.SavingGoal) (core.SavingGoal, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	_, err := s.mutate(ctx, userID, log.OpAddGoal, func(l *core.Ledger) error {
		return l.AddGoal(g)
	})
	if err != nil {
		return core.SavingGoal{}, err
	}
	return g, nil
}

// SetGoalDone marks a saving goal as done or not done.
func (s *LedgerService) SetGoalDone(ctx context.Context, userID, goalID string, done bool) (core.SavingGoal, error) {
	var updated core.SavingGoal
	_, err := s.mutate(ctx, userID, log.OpSetGoalDone, func(l *core.Ledger) error {
		g, err := l.SetGoalDone(goalID, done)
		updated = g
		return err
	})
	if err != nil {
		return core.SavingGoal{}, err
	}
	return updated, nil
}

func (s *LedgerService) SetAllowance(ctx context.Context, userID string, amount decimal.Decimal) (core.BudgetConfig, error) {
	l, err := s.mutate(ctx, userID, log.OpSetAllowance, func(l *core.Ledger) error {
		return l.SetAllowance(amount)
	})
	if err != nil {
		return core.BudgetConfig{}, err
	}
	return l.Budget(), nil
}

func (s *LedgerService) AddRecurring(ctx context.Context, userID string, r core.RecurringExpense) (core.RecurringExpense, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := s.mutate(ctx, userID, log.OpAddRecurring, func(l *core.Ledger) error {
		return l.AddRecurring(r)
	})
	if err != nil {
		return core.RecurringExpense{}, err
	}
	return r, nil
}

func (s *LedgerService) AddOwing(ctx context.Context, userID string, o core.OwingRecord) (core.OwingRecord, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	_, err := s.mutate(ctx, userID, log.OpAddOwing, func(l *core.Ledger) error {
		return l.AddOwing(o)
	})
	if err != nil {
		return core.OwingRecord{}, err
	}
	return o, nil
}

// Import appends parsed transactions in one save; either all are recorded
// or none. Imported rows are not published for sync. A row keeps its ID
// unless the ledger or an earlier row already uses it.
func (s *LedgerService) Import(ctx context.Context, userID string, txs []core.Transaction) (int, error) {
	_, err := s.mutate(ctx, userID, log.OpImport, func(l *core.Ledger) error {
		seen := make(map[string]struct{}, len(l.Expenses)+len(txs))
		for _, t := range l.Expenses {
			seen[t.ID] = struct{}{}
		}
		for i := range txs {
			if _, dup := seen[txs[i].ID]; dup || txs[i].ID == "" {
				txs[i].ID = uuid.NewString()
			}
			seen[txs[i].ID] = struct{}{}
			if err := l.AddTransaction(txs[i]); err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(txs), nil
}

func reportKey(userID string, today core.Date, selected analytics.Scope) string {
	return fmt.Sprintf("%s|%s|%s|%s", userID, today, selected.Kind, selected.Label())
}

// Dashboard returns the full report for userID as of today. Reports are
// cached until the user's next successful mutation, and concurrent requests
// for the same key share one computation.
func (s *LedgerService) Dashboard(ctx context.Context, userID string, today core.Date, selected analytics.Scope) (analytics.Report, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return analytics.Report{}, err
	}
	key := reportKey(userID, today, selected)
	if s.reports != nil {
		if r, ok := s.reports.Get(key); ok {
			s.cacheResult("hit")
			return r, nil
		}
		s.cacheResult("miss")
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// Holding the lock keeps a concurrent mutation from invalidating
		// the cache before this report is stored.
		mu := s.lock(userID)
		mu.Lock()
		defer mu.Unlock()

		l, err := s.load(ctx, userID)
		if err != nil {
			return analytics.Report{}, err
		}
		r, err := analytics.BuildReport(l, today, selected)
		if err != nil {
			return analytics.Report{}, fmt.Errorf("build report: %w", err)
		}
		if s.reports != nil {
			s.reports.Set(key, r)
		}
		if s.metrics != nil {
			s.metrics.HealthScore.Observe(float64(r.Health.Display()))
		}
		return r, nil
	})
	if err != nil {
		return analytics.Report{}, err
	}
	return v.(analytics.Report), nil
}

func (s *LedgerService) cacheResult(result string) {
	if s.metrics != nil {
		s.metrics.DashboardCache.WithLabelValues(result).Inc()
	}
}

// MonthInsights analyses one month of the user's expenses.
func (s *LedgerService) MonthInsights(ctx context.Context, userID string, scope analytics.Scope) (analytics.MonthInsights, error) {
	l, err := s.Ledger(ctx, userID)
	if err != nil {
		return analytics.MonthInsights{}, err
	}
	return analytics.Insights(l.Expenses, scope), nil
}

// ExportMonth renders one month of expenses as a CSV download.
func (s *LedgerService) ExportMonth(ctx context.Context, userID string, year, month int) (export.File, error) {
	l, err := s.Ledger(ctx, userID)
	if err != nil {
		return export.File{}, err
	}
	f, err := export.ExportMonth(l.Expenses, year, month)
	if err != nil {
		return export.File{}, err
	}
	s.logger.InfoContext(ctx, "Exported month",
		log.FieldUserID, userID, log.FieldYear, year, log.FieldMonth, month, "bytes", len(f.Data))
	return f, nil
}

// Ping reports whether the ledger store is reachable.
func (s *LedgerService) Ping(ctx context.Context) error {
	if p, ok := s.repo.(storage.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close closes the store and, when it owns one, the publisher connection.
func (s *LedgerService) Close() error {
	var errs []error
	if err := s.repo.Close(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}
