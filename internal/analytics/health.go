package analytics

import (
	"fmt"

	"github.com/shopspring/decimal"

	"moneymate/internal/core"
)

// Weights of the composite health score.
var (
	weightSaving    = decimal.RequireFromString("0.4")
	weightGoal      = decimal.RequireFromString("0.2")
	weightRecurring = decimal.RequireFromString("0.2")
	weightStability = decimal.RequireFromString("0.2")

	hundred = decimal.NewFromInt(100)
)

const (
	ratioPrecision = 20
	scorePrecision = 10
)

// percentOf returns num/den*100, multiplying first so exact ratios stay exact.
func percentOf(num, den decimal.Decimal) decimal.Decimal {
	return num.Mul(hundred).DivRound(den, ratioPrecision)
}

// HealthInput carries everything the score depends on.
type HealthInput struct {
	Remaining   decimal.Decimal
	Allowance   decimal.Decimal
	Goals       []core.SavingGoal
	Recurring   []core.RecurringExpense
	Variability Variability
}

// Health is the financial health score with its four factors.
//
// Score is the weighted sum truncated toward zero and is deliberately left
// unclamped: a deep overspend produces a negative score and a large surplus a
// score above 100. Use Display for the bounded value shown to users.
type Health struct {
	SavingPercent  float64 `json:"savingPercent"`
	GoalProgress   float64 `json:"goalProgress"`
	RecurringLoad  float64 `json:"recurringLoad"`
	StabilityScore float64 `json:"stabilityScore"`
	Score          int     `json:"score"`
}

// ComputeHealth evaluates the four factors and the composite score. Every
// ratio with a zero denominator falls back to 0.
func ComputeHealth(in HealthInput) Health {
	saving := decimal.Zero
	load := decimal.Zero
	if in.Allowance.IsPositive() {
		saving = percentOf(in.Remaining, in.Allowance)

		recurring := decimal.Zero
		for _, r := range in.Recurring {
			recurring = recurring.Add(r.Amount)
		}
		load = decimal.Min(percentOf(recurring, in.Allowance), hundred)
	}

	// No floor: a negative remaining budget yields negative progress.
	goal := decimal.Zero
	target := decimal.Zero
	for _, g := range in.Goals {
		target = target.Add(g.TargetAmount)
	}
	if target.IsPositive() {
		goal = decimal.Min(percentOf(in.Remaining, target), hundred)
	}

	stability := decimal.NewFromFloat(in.Variability.StabilityScore())

	composite := saving.Mul(weightSaving).
		Add(goal.Mul(weightGoal)).
		Add(hundred.Sub(load).Mul(weightRecurring)).
		Add(stability.Mul(weightStability)).
		Round(scorePrecision)

	return Health{
		SavingPercent:  saving.InexactFloat64(),
		GoalProgress:   goal.InexactFloat64(),
		RecurringLoad:  load.InexactFloat64(),
		StabilityScore: stability.InexactFloat64(),
		Score:          int(composite.Truncate(0).IntPart()),
	}
}

// Display returns the score clamped to [0, 100].
func (h Health) Display() int {
	switch {
	case h.Score < 0:
		return 0
	case h.Score > 100:
		return 100
	default:
		return h.Score
	}
}

// Label renders the display score as "72/100".
func (h Health) Label() string {
	return fmt.Sprintf("%d/100", h.Display())
}
