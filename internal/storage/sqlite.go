package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"moneymate/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores ledgers in normalised tables. Record order is kept
// in a position column and every Save replaces a user's rows inside one
// transaction.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return persistenceErr("ping", err)
	}
	return nil
}

func (r *SQLiteRepository) Load(ctx context.Context, userID string) (*core.Ledger, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return nil, err
	}

	var allowance string
	err := r.db.QueryRowContext(ctx,
		`SELECT monthly_allowance FROM users WHERE id = ?`, userID).Scan(&allowance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, persistenceErr("select user", err)
	}

	amount, err := decimal.NewFromString(allowance)
	if err != nil {
		return nil, persistenceErr("decode allowance", err)
	}
	l := core.NewLedger(amount)

	if l.Expenses, err = r.loadExpenses(ctx, userID); err != nil {
		return nil, err
	}
	if l.SavingGoals, err = r.loadGoals(ctx, userID); err != nil {
		return nil, err
	}
	if l.RecurringExpenses, err = r.loadRecurring(ctx, userID); err != nil {
		return nil, err
	}
	if l.Owings, err = r.loadOwings(ctx, userID); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *SQLiteRepository) loadExpenses(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, category, amount, note FROM expenses WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, persistenceErr("select expenses", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var t core.Transaction
		var date, amount string
		if err := rows.Scan(&t.ID, &date, &t.Category, &amount, &t.Note); err != nil {
			return nil, persistenceErr("scan expense", err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, persistenceErr("decode expense date", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, persistenceErr("decode expense amount", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("iterate expenses", err)
	}
	return out, nil
}

func (r *SQLiteRepository) loadGoals(ctx context.Context, userID string) ([]core.SavingGoal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, target_amount, deadline, done FROM saving_goals WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, persistenceErr("select saving goals", err)
	}
	defer rows.Close()

	out := []core.SavingGoal{}
	for rows.Next() {
		var g core.SavingGoal
		var target, deadline string
		if err := rows.Scan(&g.ID, &g.Name, &target, &deadline, &g.Done); err != nil {
			return nil, persistenceErr("scan saving goal", err)
		}
		if g.TargetAmount, err = decimal.NewFromString(target); err != nil {
			return nil, persistenceErr("decode goal target", err)
		}
		if g.Deadline, err = core.ParseDate(deadline); err != nil {
			return nil, persistenceErr("decode goal deadline", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("iterate saving goals", err)
	}
	return out, nil
}

func (r *SQLiteRepository) loadRecurring(ctx context.Context, userID string) ([]core.RecurringExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category, amount, frequency, note FROM recurring_expenses WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, persistenceErr("select recurring expenses", err)
	}
	defer rows.Close()

	out := []core.RecurringExpense{}
	for rows.Next() {
		var rec core.RecurringExpense
		var amount, freq string
		if err := rows.Scan(&rec.ID, &rec.Category, &amount, &freq, &rec.Note); err != nil {
			return nil, persistenceErr("scan recurring expense", err)
		}
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, persistenceErr("decode recurring amount", err)
		}
		rec.Frequency = core.Frequency(freq)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("iterate recurring expenses", err)
	}
	return out, nil
}

func (r *SQLiteRepository) loadOwings(ctx context.Context, userID string) ([]core.OwingRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, person, amount, note FROM owings WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, persistenceErr("select owings", err)
	}
	defer rows.Close()

	out := []core.OwingRecord{}
	for rows.Next() {
		var o core.OwingRecord
		var kind, amount string
		if err := rows.Scan(&o.ID, &kind, &o.Person, &amount, &o.Note); err != nil {
			return nil, persistenceErr("scan owing", err)
		}
		if o.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, persistenceErr("decode owing amount", err)
		}
		o.Type = core.OwingType(kind)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("iterate owings", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, userID string, ledger *core.Ledger) (err error) {
	if err := core.ValidateUserID(userID); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistenceErr("begin transaction", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, monthly_allowance, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET monthly_allowance = excluded.monthly_allowance, updated_at = excluded.updated_at`,
		userID, ledger.MonthlyAllowance.String(), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return persistenceErr("upsert user", err)
	}

	for _, table := range []string{"expenses", "saving_goals", "recurring_expenses", "owings"} {
		if _, err = tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = ?`, userID); err != nil {
			return persistenceErr("clear "+table, err)
		}
	}

	for i, t := range ledger.Expenses {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO expenses (user_id, position, id, date, category, amount, note) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			userID, i, t.ID, t.Date.String(), t.Category, t.Amount.String(), t.Note); err != nil {
			return persistenceErr("insert expense", err)
		}
	}
	for i, g := range ledger.SavingGoals {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO saving_goals (user_id, position, id, name, target_amount, deadline, done) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			userID, i, g.ID, g.Name, g.TargetAmount.String(), g.Deadline.String(), g.Done); err != nil {
			return persistenceErr("insert saving goal", err)
		}
	}
	for i, rec := range ledger.RecurringExpenses {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO recurring_expenses (user_id, position, id, category, amount, frequency, note) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			userID, i, rec.ID, rec.Category, rec.Amount.String(), string(rec.Frequency), rec.Note); err != nil {
			return persistenceErr("insert recurring expense", err)
		}
	}
	for i, o := range ledger.Owings {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO owings (user_id, position, id, type, person, amount, note) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			userID, i, o.ID, string(o.Type), o.Person, o.Amount.String(), o.Note); err != nil {
			return persistenceErr("insert owing", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return persistenceErr("commit", err)
	}

	slog.DebugContext(ctx, "Ledger saved to SQLite",
		"user_id", userID,
		"expenses", len(ledger.Expenses),
		"goals", len(ledger.SavingGoals))
	return nil
}
