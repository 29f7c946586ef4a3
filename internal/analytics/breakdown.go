package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"moneymate/internal/core"
)

// CategoryBreakdown is a per-category aggregate ordered by descending total.
// Categories with equal totals are ordered by name.
type CategoryBreakdown struct {
	Categories []core.CategoryAmount `json:"categories"`
	Total      decimal.Decimal       `json:"total"`
}

// Breakdown groups txs by category.
func Breakdown(txs []core.Transaction) CategoryBreakdown {
	index := make(map[string]int)
	cats := make([]core.CategoryAmount, 0)
	total := decimal.Zero

	for _, t := range txs {
		i, ok := index[t.Category]
		if !ok {
			i = len(cats)
			index[t.Category] = i
			cats = append(cats, core.CategoryAmount{Name: t.Category, Amount: decimal.Zero})
		}
		cats[i].Amount = cats[i].Amount.Add(t.Amount)
		cats[i].Count++
		total = total.Add(t.Amount)
	}

	sort.Slice(cats, func(i, j int) bool {
		if c := cats[i].Amount.Cmp(cats[j].Amount); c != 0 {
			return c > 0
		}
		return cats[i].Name < cats[j].Name
	})

	return CategoryBreakdown{Categories: cats, Total: total}
}

// AllTimeBreakdown groups the whole ledger by category.
func AllTimeBreakdown(l *core.Ledger) CategoryBreakdown {
	return Breakdown(l.Expenses)
}

// Empty reports whether no category has been recorded.
func (b CategoryBreakdown) Empty() bool {
	return len(b.Categories) == 0
}

// TopN returns at most n categories with the largest totals.
func (b CategoryBreakdown) TopN(n int) []core.CategoryAmount {
	if n <= 0 {
		return []core.CategoryAmount{}
	}
	if n > len(b.Categories) {
		n = len(b.Categories)
	}
	return append([]core.CategoryAmount{}, b.Categories[:n]...)
}

// Top returns the category with the largest total.
func (b CategoryBreakdown) Top() (core.CategoryAmount, bool) {
	if b.Empty() {
		return core.CategoryAmount{}, false
	}
	return b.Categories[0], true
}

// MostFrequent returns the category with the most transactions. Ties go to
// the lexicographically smallest name.
func (b CategoryBreakdown) MostFrequent() (string, bool) {
	if b.Empty() {
		return "", false
	}
	best := b.Categories[0]
	for _, c := range b.Categories[1:] {
		if c.Count > best.Count || (c.Count == best.Count && c.Name < best.Name) {
			best = c
		}
	}
	return best.Name, true
}

// Share returns each category's percentage of the breakdown total, in
// breakdown order. A zero total yields zero shares.
func (b CategoryBreakdown) Share() []float64 {
	shares := make([]float64, len(b.Categories))
	if b.Total.IsZero() {
		return shares
	}
	hundred := decimal.NewFromInt(100)
	for i, c := range b.Categories {
		shares[i] = c.Amount.Mul(hundred).Div(b.Total).InexactFloat64()
	}
	return shares
}
