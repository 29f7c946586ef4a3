package analytics

// This file converts recurring expenses to a common monthly figure. Each
// frequency has its own strategy so new frequencies can be added without
// touching the summary code.

import (
	"fmt"

	"github.com/shopspring/decimal"

	"moneymate/internal/core"
)

// Normalizer converts an amount charged at some frequency into its
// per-month equivalent.
type Normalizer interface {
	PerMonth(amount decimal.Decimal) decimal.Decimal
}

var twelve = decimal.NewFromInt(12)

// DailyNormalizer assumes 365 charges a year.
type DailyNormalizer struct{}

func (DailyNormalizer) PerMonth(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(365)).Div(twelve)
}

// WeeklyNormalizer assumes 52 charges a year.
type WeeklyNormalizer struct{}

func (WeeklyNormalizer) PerMonth(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(52)).Div(twelve)
}

type MonthlyNormalizer struct{}

func (MonthlyNormalizer) PerMonth(amount decimal.Decimal) decimal.Decimal {
	return amount
}

type YearlyNormalizer struct{}

func (YearlyNormalizer) PerMonth(amount decimal.Decimal) decimal.Decimal {
	return amount.Div(twelve)
}

var normalizers = map[core.Frequency]Normalizer{
	core.Daily:   DailyNormalizer{},
	core.Weekly:  WeeklyNormalizer{},
	core.Monthly: MonthlyNormalizer{},
	core.Yearly:  YearlyNormalizer{},
}

// GetNormalizer returns the strategy for a frequency.
func GetNormalizer(f core.Frequency) (Normalizer, error) {
	n, ok := normalizers[f]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", f)
	}
	return n, nil
}

// RegisterNormalizer installs or replaces the strategy for a frequency.
// It is not safe to call concurrently with GetNormalizer.
func RegisterNormalizer(f core.Frequency, n Normalizer) {
	normalizers[f] = n
}

// RecurringItem pairs a recurring expense with its monthly equivalent.
type RecurringItem struct {
	core.RecurringExpense
	MonthlyEquivalent decimal.Decimal `json:"monthlyEquivalent"`
}

// RecurringSummary lists recurring expenses with both the raw sum used by
// the health score and the normalised monthly total.
type RecurringSummary struct {
	Items        []RecurringItem `json:"items"`
	Total        decimal.Decimal `json:"total"`
	MonthlyTotal decimal.Decimal `json:"monthlyTotal"`
}

// SummarizeRecurring normalises every recurring expense. It fails only on a
// frequency without a registered strategy.
func SummarizeRecurring(recs []core.RecurringExpense) (RecurringSummary, error) {
	out := RecurringSummary{
		Items:        make([]RecurringItem, 0, len(recs)),
		Total:        decimal.Zero,
		MonthlyTotal: decimal.Zero,
	}
	for _, r := range recs {
		n, err := GetNormalizer(r.Frequency)
		if err != nil {
			return RecurringSummary{}, fmt.Errorf("recurring %s: %w", r.ID, err)
		}
		monthly := n.PerMonth(r.Amount).Round(2)
		out.Items = append(out.Items, RecurringItem{RecurringExpense: r, MonthlyEquivalent: monthly})
		out.Total = out.Total.Add(r.Amount)
		out.MonthlyTotal = out.MonthlyTotal.Add(monthly)
	}
	return out, nil
}
