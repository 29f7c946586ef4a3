package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"moneymate/internal/core"
)

func sampleLedger(t *testing.T) *core.Ledger {
	t.Helper()
	l := core.NewLedger(decimal.NewFromInt(5000))

	tx1, _ := core.NewTransaction(core.NewDate(2024, 5, 2), "Food", decimal.RequireFromString("300.25"), "dinner")
	tx2, _ := core.NewTransaction(core.NewDate(2024, 5, 1), "Rent", decimal.NewFromInt(1200), "")
	goal, _ := core.NewSavingGoal("Laptop", decimal.NewFromInt(40000), core.NewDate(2024, 12, 31))
	rec, _ := core.NewRecurringExpense("Netflix", decimal.NewFromInt(199), core.Monthly, "")
	owe, _ := core.NewOwingRecord(core.OwedToMe, "Ravi", decimal.NewFromInt(250), "movie")

	for _, err := range []error{l.AddTransaction(tx1), l.AddTransaction(tx2), l.AddGoal(goal), l.AddRecurring(rec), l.AddOwing(owe)} {
		if err != nil {
			t.Fatalf("build ledger: %v", err)
		}
	}
	if _, err := l.SetGoalDone(goal.ID, true); err != nil {
		t.Fatalf("set goal done: %v", err)
	}
	return l
}

func assertSameLedger(t *testing.T, want, got *core.Ledger) {
	t.Helper()
	if !want.MonthlyAllowance.Equal(got.MonthlyAllowance) {
		t.Fatalf("allowance: want %s got %s", want.MonthlyAllowance, got.MonthlyAllowance)
	}
	if len(want.Expenses) != len(got.Expenses) {
		t.Fatalf("expenses: want %d got %d", len(want.Expenses), len(got.Expenses))
	}
	for i := range want.Expenses {
		w, g := want.Expenses[i], got.Expenses[i]
		if w.ID != g.ID || w.Date.String() != g.Date.String() || w.Category != g.Category || !w.Amount.Equal(g.Amount) || w.Note != g.Note {
			t.Fatalf("expense %d: want %+v got %+v", i, w, g)
		}
	}
	if len(got.SavingGoals) != 1 || !got.SavingGoals[0].Done || got.SavingGoals[0].Name != "Laptop" {
		t.Fatalf("unexpected goals: %+v", got.SavingGoals)
	}
	if len(got.RecurringExpenses) != 1 || got.RecurringExpenses[0].Frequency != core.Monthly {
		t.Fatalf("unexpected recurring: %+v", got.RecurringExpenses)
	}
	if len(got.Owings) != 1 || got.Owings[0].Type != core.OwedToMe || !got.Owings[0].Amount.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unexpected owings: %+v", got.Owings)
	}
}

func repositories(t *testing.T) map[string]Repository {
	t.Helper()
	dir := t.TempDir()

	jsonRepo, err := NewJSONFileRepository(filepath.Join(dir, "json"))
	if err != nil {
		t.Fatalf("json repo: %v", err)
	}
	sqliteRepo, err := NewSQLiteRepository(filepath.Join(dir, "db", "test.db"))
	if err != nil {
		t.Fatalf("sqlite repo: %v", err)
	}
	t.Cleanup(func() { sqliteRepo.Close() })

	return map[string]Repository{
		"json":   jsonRepo,
		"sqlite": sqliteRepo,
		"memory": NewMemoryRepository(),
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := repo.Load(ctx, "alice"); !errors.Is(err, ErrUserNotFound) {
				t.Fatalf("expected ErrUserNotFound, got %v", err)
			}

			want := sampleLedger(t)
			if err := repo.Save(ctx, "alice", want); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := repo.Load(ctx, "alice")
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			assertSameLedger(t, want, got)

			// Second save replaces, it does not duplicate.
			extra, _ := core.NewTransaction(core.NewDate(2024, 5, 3), "Books", decimal.NewFromInt(10), "")
			_ = want.AddTransaction(extra)
			if err := repo.Save(ctx, "alice", want); err != nil {
				t.Fatalf("second save: %v", err)
			}
			got, err = repo.Load(ctx, "alice")
			if err != nil {
				t.Fatalf("second load: %v", err)
			}
			if len(got.Expenses) != 3 || got.Expenses[2].Category != "Books" {
				t.Fatalf("expected appended expense last, got %+v", got.Expenses)
			}

			if _, err := repo.Load(ctx, "bob"); !errors.Is(err, ErrUserNotFound) {
				t.Fatalf("users must be isolated, got %v", err)
			}
		})
	}
}

func TestRepositoryRejectsUnsafeUserID(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			if err := repo.Save(ctx, "../escape", core.NewLedger(decimal.Zero)); !errors.Is(err, core.ErrInvalidUserID) {
				t.Fatalf("expected ErrInvalidUserID, got %v", err)
			}
		})
	}
}

func TestJSONFileLayout(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewJSONFileRepository(dir)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	if err := repo.Save(context.Background(), "alice", core.NewLedger(decimal.NewFromInt(5000))); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != "moneymate_data_alice.json" {
		t.Fatalf("expected only the ledger file, got %v", entries)
	}

	b, _ := os.ReadFile(repo.Path("alice"))
	for _, key := range []string{`"monthlyAllowance": 5000`, `"expenses": []`, `"savingGoals": []`, `"recurringExpenses": []`, `"owings": []`} {
		if !strings.Contains(string(b), key) {
			t.Fatalf("expected %s in %s", key, b)
		}
	}
}

func TestJSONFileCorruptionIsPersistenceError(t *testing.T) {
	dir := t.TempDir()
	repo, _ := NewJSONFileRepository(dir)
	if err := os.WriteFile(repo.Path("alice"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := repo.Load(context.Background(), "alice"); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestJSONFileFailedSaveKeepsPreviousState(t *testing.T) {
	dir := t.TempDir()
	repo, _ := NewJSONFileRepository(dir)
	ctx := context.Background()

	l := sampleLedger(t)
	if err := repo.Save(ctx, "alice", l); err != nil {
		t.Fatalf("save: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := repo.Save(cancelled, "alice", core.NewLedger(decimal.Zero)); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}

	got, err := repo.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSameLedger(t, l, got)
}

func TestMemoryRepositoryCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	l := sampleLedger(t)
	_ = repo.Save(ctx, "alice", l)

	l.Expenses = nil
	got, _ := repo.Load(ctx, "alice")
	if len(got.Expenses) != 2 {
		t.Fatalf("store must not alias caller state")
	}
	if ids := repo.Users(); len(ids) != 1 || ids[0] != "alice" {
		t.Fatalf("unexpected users: %v", ids)
	}
}
