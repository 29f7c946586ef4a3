package analytics

import (
	"moneymate/internal/core"
)

// TopCategoryCount is the length of the "top categories" list.
const TopCategoryCount = 3

// MonthInsights is the analysis of one selected month.
type MonthInsights struct {
	Summary       Summary               `json:"summary"`
	Breakdown     CategoryBreakdown     `json:"breakdown"`
	TopCategories []core.CategoryAmount `json:"topCategories"`
	TopCategory   *core.CategoryAmount  `json:"topCategory,omitempty"`
	MostFrequent  string                `json:"mostFrequent,omitempty"`
}

// Insights summarises txs inside scope together with its category breakdown.
func Insights(txs []core.Transaction, scope Scope) MonthInsights {
	sum := Summarize(txs, scope)
	bd := Breakdown(sum.Transactions)

	mi := MonthInsights{
		Summary:       sum,
		Breakdown:     bd,
		TopCategories: bd.TopN(TopCategoryCount),
	}
	if top, ok := bd.Top(); ok {
		mi.TopCategory = &top
	}
	if name, ok := bd.MostFrequent(); ok {
		mi.MostFrequent = name
	}
	return mi
}

// Report bundles every derived value the dashboard shows.
type Report struct {
	Today       core.Date          `json:"today"`
	HasData     bool               `json:"hasData"`
	MonthToDate Summary            `json:"monthToDate"`
	Projection  Projection         `json:"projection"`
	Variability Variability        `json:"variability"`
	Health      Health             `json:"health"`
	Nudges      []Nudge            `json:"nudges"`
	Badge       *Badge             `json:"badge,omitempty"`
	Selected    MonthInsights      `json:"selected"`
	AllTime     CategoryBreakdown  `json:"allTime"`
	Owing       Owing              `json:"owing"`
	Recurring   RecurringSummary   `json:"recurring"`
	Latest      []core.Transaction `json:"latest"`
}

// LatestCount is how many recent transactions the dashboard lists.
const LatestCount = 3

// BuildReport computes the dashboard for l as of today, with selected as the
// month shown in the insights panel. Spending stability is measured over
// the whole ledger, not only the current month.
func BuildReport(l *core.Ledger, today core.Date, selected Scope) (Report, error) {
	mtd := Summarize(l.Expenses, MonthToDate(today))
	proj := Project(l.MonthlyAllowance, mtd.TotalSpent, mtd.DaysElapsed)
	vari := DailyVariability(l.Expenses)

	health := ComputeHealth(HealthInput{
		Remaining:   proj.Remaining,
		Allowance:   l.MonthlyAllowance,
		Goals:       l.SavingGoals,
		Recurring:   l.RecurringExpenses,
		Variability: vari,
	})

	recurring, err := SummarizeRecurring(l.RecurringExpenses)
	if err != nil {
		return Report{}, err
	}

	r := Report{
		Today:       today,
		HasData:     len(l.Expenses) > 0,
		MonthToDate: mtd,
		Projection:  proj,
		Variability: vari,
		Health:      health,
		Nudges:      Nudges(health),
		Selected:    Insights(l.Expenses, selected),
		AllTime:     AllTimeBreakdown(l),
		Owing:       OwingBalance(l.Owings),
		Recurring:   recurring,
		Latest:      l.Latest(LatestCount),
	}
	if b, ok := EarnedBadge(health); ok {
		r.Badge = &b
	}
	return r, nil
}
