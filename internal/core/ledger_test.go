package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLedgerMutations(t *testing.T) {
	l := NewLedger(DefaultAllowance)

	for i, cat := range []string{"Food", "Rent", "Books", "Transport"} {
		tx, err := NewTransaction(NewDate(2024, 5, i+1), cat, decimal.NewFromInt(int64(100*(i+1))), "")
		if err != nil {
			t.Fatalf("new transaction: %v", err)
		}
		if err := l.AddTransaction(tx); err != nil {
			t.Fatalf("add transaction: %v", err)
		}
	}
	if err := l.AddTransaction(Transaction{Date: NewDate(2024, 5, 1), Category: "Food", Amount: decimal.NewFromInt(-1)}); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if len(l.Expenses) != 4 {
		t.Fatalf("rejected transaction must not be appended, have %d", len(l.Expenses))
	}

	latest := l.Latest(3)
	if len(latest) != 3 || latest[0].Category != "Rent" || latest[2].Category != "Transport" {
		t.Fatalf("unexpected latest: %+v", latest)
	}
	if len(l.Latest(0)) != 4 {
		t.Fatalf("Latest(0) should return full history")
	}

	g, _ := NewSavingGoal("Trip", decimal.NewFromInt(1000), NewDate(2024, 12, 1))
	if err := l.AddGoal(g); err != nil {
		t.Fatalf("add goal: %v", err)
	}
	updated, err := l.SetGoalDone(g.ID, true)
	if err != nil || !updated.Done || !l.SavingGoals[0].Done {
		t.Fatalf("set goal done: %+v err=%v", updated, err)
	}
	if _, err := l.SetGoalDone("missing", true); !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("expected ErrGoalNotFound, got %v", err)
	}

	if err := l.SetAllowance(decimal.NewFromInt(-10)); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if err := l.SetAllowance(decimal.Zero); err != nil || !l.Budget().MonthlyAllowance.IsZero() {
		t.Fatalf("zero allowance should be accepted: %v", err)
	}
}

func TestLedgerCloneIsIndependent(t *testing.T) {
	l := NewLedger(decimal.NewFromInt(100))
	g, _ := NewSavingGoal("Trip", decimal.NewFromInt(1000), NewDate(2024, 12, 1))
	_ = l.AddGoal(g)

	c := l.Clone()
	_, _ = c.SetGoalDone(g.ID, true)
	if l.SavingGoals[0].Done {
		t.Fatalf("clone mutation leaked into original")
	}
}

func TestLedgerJSONLayout(t *testing.T) {
	l := NewLedger(decimal.NewFromInt(5000))
	tx, _ := NewTransaction(NewDate(2024, 5, 1), "Food", decimal.RequireFromString("200.50"), "lunch")
	_ = l.AddTransaction(tx)

	b, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{`"monthlyAllowance":5000`, `"expenses":[`, `"savingGoals":[]`, `"recurringExpenses":[]`, `"owings":[]`, `"amount":200.5`, `"date":"2024-05-01"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected %s in %s", want, s)
		}
	}

	var back Ledger
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Expenses[0].Amount.Equal(tx.Amount) || back.Expenses[0].ID != tx.ID {
		t.Fatalf("round trip mismatch: %+v", back.Expenses[0])
	}
}
