package core

import (
	"github.com/shopspring/decimal"
)

// DefaultAllowance is the monthly allowance a new ledger starts with.
var DefaultAllowance = decimal.NewFromInt(5000)

// Ledger is the complete persisted state of one user: the allowance
// singleton plus the append-only record lists. Slice order is insertion
// order; nothing here implies chronological order.
type Ledger struct {
	MonthlyAllowance  decimal.Decimal    `json:"monthlyAllowance"`
	Expenses          []Transaction      `json:"expenses"`
	SavingGoals       []SavingGoal       `json:"savingGoals"`
	RecurringExpenses []RecurringExpense `json:"recurringExpenses"`
	Owings            []OwingRecord      `json:"owings"`
}

// NewLedger returns an empty ledger with the given allowance.
func NewLedger(allowance decimal.Decimal) *Ledger {
	return &Ledger{
		MonthlyAllowance:  allowance,
		Expenses:          []Transaction{},
		SavingGoals:       []SavingGoal{},
		RecurringExpenses: []RecurringExpense{},
		Owings:            []OwingRecord{},
	}
}

// Budget returns the budget configuration singleton.
func (l *Ledger) Budget() BudgetConfig {
	return BudgetConfig{MonthlyAllowance: l.MonthlyAllowance}
}

func (l *Ledger) AddTransaction(t Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	l.Expenses = append(l.Expenses, t)
	return nil
}

func (l *Ledger) AddGoal(g SavingGoal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	l.SavingGoals = append(l.SavingGoals, g)
	return nil
}

// SetGoalDone flips the only mutable field of a saving goal.
func (l *Ledger) SetGoalDone(id string, done bool) (SavingGoal, error) {
	for i := range l.SavingGoals {
		if l.SavingGoals[i].ID == id {
			l.SavingGoals[i].Done = done
			return l.SavingGoals[i], nil
		}
	}
	return SavingGoal{}, ErrGoalNotFound
}

func (l *Ledger) SetAllowance(amount decimal.Decimal) error {
	cfg := BudgetConfig{MonthlyAllowance: amount}
	if err := cfg.Validate(); err != nil {
		return err
	}
	l.MonthlyAllowance = amount
	return nil
}

func (l *Ledger) AddRecurring(r RecurringExpense) error {
	if err := r.Validate(); err != nil {
		return err
	}
	l.RecurringExpenses = append(l.RecurringExpenses, r)
	return nil
}

func (l *Ledger) AddOwing(o OwingRecord) error {
	if err := o.Validate(); err != nil {
		return err
	}
	l.Owings = append(l.Owings, o)
	return nil
}

// Latest returns up to n most recently appended transactions, oldest first.
// n <= 0 returns the full history.
func (l *Ledger) Latest(n int) []Transaction {
	if n <= 0 || n >= len(l.Expenses) {
		return append([]Transaction(nil), l.Expenses...)
	}
	return append([]Transaction(nil), l.Expenses[len(l.Expenses)-n:]...)
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (l *Ledger) Clone() *Ledger {
	return &Ledger{
		MonthlyAllowance:  l.MonthlyAllowance,
		Expenses:          append([]Transaction{}, l.Expenses...),
		SavingGoals:       append([]SavingGoal{}, l.SavingGoals...),
		RecurringExpenses: append([]RecurringExpense{}, l.RecurringExpenses...),
		Owings:            append([]OwingRecord{}, l.Owings...),
	}
}

// Normalize replaces nil slices so that persisted and API output always
// carries empty lists instead of null.
func (l *Ledger) Normalize() {
	if l.Expenses == nil {
		l.Expenses = []Transaction{}
	}
	if l.SavingGoals == nil {
		l.SavingGoals = []SavingGoal{}
	}
	if l.RecurringExpenses == nil {
		l.RecurringExpenses = []RecurringExpense{}
	}
	if l.Owings == nil {
		l.Owings = []OwingRecord{}
	}
}
