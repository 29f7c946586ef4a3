package analytics

import (
	"github.com/shopspring/decimal"

	"moneymate/internal/core"
)

// Owing totals outstanding IOUs in both directions.
type Owing struct {
	IOwe     decimal.Decimal `json:"iOwe"`
	OwedToMe decimal.Decimal `json:"owedToMe"`
	// Net is OwedToMe - IOwe; negative means the user owes more than is owed.
	Net     decimal.Decimal    `json:"net"`
	Records []core.OwingRecord `json:"records"`
}

// OwingBalance sums owing records by direction.
func OwingBalance(owings []core.OwingRecord) Owing {
	out := Owing{
		IOwe:     decimal.Zero,
		OwedToMe: decimal.Zero,
		Records:  append([]core.OwingRecord{}, owings...),
	}
	for _, o := range owings {
		switch o.Type {
		case core.IOwe:
			out.IOwe = out.IOwe.Add(o.Amount)
		case core.OwedToMe:
			out.OwedToMe = out.OwedToMe.Add(o.Amount)
		}
	}
	out.Net = out.OwedToMe.Sub(out.IOwe)
	return out
}
