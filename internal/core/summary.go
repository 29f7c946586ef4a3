package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"category"`
	Amount decimal.Decimal `json:"total"`
	Count  int             `json:"count"`
}

// SumAmounts returns the exact sum of the transactions' amounts.
func SumAmounts(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}
