package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"moneymate/internal/core"
)

// Summary is the month-scoped aggregate of a transaction list.
//
// An empty scope is not an error: Empty is set, TotalSpent and DailyAvg are
// zero and Transactions is an empty slice.
type Summary struct {
	Scope        Scope              `json:"scope"`
	TotalSpent   decimal.Decimal    `json:"totalSpent"`
	DaysElapsed  int                `json:"daysElapsed"`
	DailyAvg     decimal.Decimal    `json:"dailyAvg"`
	Count        int                `json:"count"`
	Empty        bool               `json:"empty"`
	Transactions []core.Transaction `json:"transactions"`
}

// Summarize filters txs to scope and aggregates them. The returned
// transactions are ordered by date; same-day entries keep ledger order.
func Summarize(txs []core.Transaction, scope Scope) Summary {
	filtered := scope.Filter(txs)
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Date.Before(filtered[j].Date)
	})

	total := core.SumAmounts(filtered)
	days := scope.DaysElapsed()

	return Summary{
		Scope:        scope,
		TotalSpent:   total,
		DaysElapsed:  days,
		DailyAvg:     DailyAverage(total, days),
		Count:        len(filtered),
		Empty:        len(filtered) == 0,
		Transactions: filtered,
	}
}

// DailyAverage divides total by days, returning zero when days is not positive.
func DailyAverage(total decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(days)))
}
