package analytics

import (
	"math"

	"github.com/shopspring/decimal"

	"moneymate/internal/core"
)

// Variability describes how much daily spending fluctuates.
type Variability struct {
	// StdDev is the sample standard deviation of per-day totals.
	StdDev float64 `json:"stdDev"`
	// Days is the number of distinct dates with at least one transaction.
	Days int `json:"days"`
	// Defined is false when fewer than two spending days exist.
	Defined bool `json:"defined"`
}

// DailyVariability groups txs by date and computes the sample standard
// deviation of the daily sums. Days without transactions are not counted as
// zero-spend days.
func DailyVariability(txs []core.Transaction) Variability {
	perDay := make(map[string]decimal.Decimal)
	for _, t := range txs {
		key := t.Date.String()
		perDay[key] = perDay[key].Add(t.Amount)
	}

	n := len(perDay)
	if n < 2 {
		return Variability{Days: n}
	}

	sums := make([]float64, 0, n)
	var mean float64
	for _, v := range perDay {
		f := v.InexactFloat64()
		sums = append(sums, f)
		mean += f
	}
	mean /= float64(n)

	var sq float64
	for _, f := range sums {
		sq += (f - mean) * (f - mean)
	}

	return Variability{
		StdDev:  math.Sqrt(sq / float64(n-1)),
		Days:    n,
		Defined: true,
	}
}

// StabilityScore is max(0, 100 - stddev), or 100 when the deviation is
// undefined.
func (v Variability) StabilityScore() float64 {
	if !v.Defined {
		return 100
	}
	return math.Max(0, 100-v.StdDev)
}
