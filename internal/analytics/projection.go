package analytics

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Runway is the estimated number of days the allowance lasts at the current
// burn rate. Unbounded is set when nothing has been spent yet; Days is then
// meaningless and the presentation layer picks the wording.
type Runway struct {
	Days      int64 `json:"days"`
	Unbounded bool  `json:"unbounded"`
}

func (r Runway) String() string {
	if r.Unbounded {
		return "unlimited"
	}
	return fmt.Sprintf("%d days", r.Days)
}

// Projection is the budget outlook derived from the month-to-date summary.
type Projection struct {
	Allowance decimal.Decimal `json:"allowance"`
	Remaining decimal.Decimal `json:"remaining"`
	DaysLeft  Runway          `json:"daysLeft"`
}

// Overspent reports whether spending has exceeded the allowance.
func (p Projection) Overspent() bool {
	return p.Remaining.IsNegative()
}

// Project computes remaining budget and runway. Remaining may be negative.
// Runway is floor(allowance / daily average), evaluated as
// allowance*days/spent so a repeating daily average cannot cost a day.
func Project(allowance, totalSpent decimal.Decimal, daysElapsed int) Projection {
	p := Projection{
		Allowance: allowance,
		Remaining: allowance.Sub(totalSpent),
	}
	if !totalSpent.IsPositive() || daysElapsed <= 0 {
		p.DaysLeft = Runway{Unbounded: true}
		return p
	}
	q, r := allowance.Mul(decimal.NewFromInt(int64(daysElapsed))).QuoRem(totalSpent, 0)
	if r.IsNegative() {
		q = q.Sub(decimal.NewFromInt(1))
	}
	p.DaysLeft = Runway{Days: q.IntPart()}
	return p
}
