package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneymate/internal/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tx(t *testing.T, date, category, amount string) core.Transaction {
	t.Helper()
	day, err := core.ParseDate(date)
	require.NoError(t, err)
	out, err := core.NewTransaction(day, category, d(amount), "")
	require.NoError(t, err)
	return out
}

func TestScopes(t *testing.T) {
	today := core.NewDate(2024, 3, 15)

	mtd := MonthToDate(today)
	assert.Equal(t, KindMonthToDate, mtd.Kind)
	assert.Equal(t, 15, mtd.DaysElapsed())

	this := ThisMonth(today)
	assert.Equal(t, 31, this.DaysElapsed())

	last := LastMonth(today)
	assert.Equal(t, 2024, last.Year)
	assert.Equal(t, 2, last.Month)
	assert.Equal(t, 29, last.DaysElapsed(), "2024 is a leap year")

	jan := LastMonth(core.NewDate(2025, 1, 31))
	assert.Equal(t, 2024, jan.Year)
	assert.Equal(t, 12, jan.Month)

	_, err := CustomMonth(2024, 13)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
	assert.True(t, core.IsValidation(err))

	s, err := ParseMonth("2023-02")
	require.NoError(t, err)
	assert.Equal(t, 28, s.DaysElapsed())
	assert.Equal(t, "2023-02", s.Label())

	_, err = ParseMonth("2023/02")
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestMonthToDateCountsPostDatedEntries(t *testing.T) {
	txs := []core.Transaction{
		tx(t, "2024-04-30", "Food", "10"),
		tx(t, "2024-05-01", "Food", "20"),
		tx(t, "2024-06-10", "Rent", "30"),
	}
	sum := Summarize(txs, MonthToDate(core.NewDate(2024, 5, 2)))
	assert.True(t, sum.TotalSpent.Equal(d("50")))
	assert.Equal(t, 2, sum.Count)

	explicit := Summarize(txs, ThisMonth(core.NewDate(2024, 5, 2)))
	assert.True(t, explicit.TotalSpent.Equal(d("20")))
}

// allowance=5000, two Food entries, today=2024-05-02.
func TestScenarioMonthToDate(t *testing.T) {
	txs := []core.Transaction{
		tx(t, "2024-05-02", "Food", "300"),
		tx(t, "2024-05-01", "Food", "200"),
	}
	sum := Summarize(txs, MonthToDate(core.NewDate(2024, 5, 2)))

	assert.False(t, sum.Empty)
	assert.True(t, sum.TotalSpent.Equal(d("500")))
	assert.Equal(t, 2, sum.DaysElapsed)
	assert.True(t, sum.DailyAvg.Equal(d("250")))
	assert.Equal(t, "2024-05-01", sum.Transactions[0].Date.String(), "sorted by date")

	proj := Project(d("5000"), sum.TotalSpent, sum.DaysElapsed)
	assert.True(t, proj.Remaining.Equal(d("4500")))
	assert.False(t, proj.DaysLeft.Unbounded)
	assert.EqualValues(t, 20, proj.DaysLeft.Days)
}

func TestSummaryTotalIsOrderIndependent(t *testing.T) {
	a := tx(t, "2024-05-01", "Food", "0.10")
	b := tx(t, "2024-05-03", "Rent", "0.20")
	c := tx(t, "2024-05-02", "Books", "1234.57")
	scope := ThisMonth(core.NewDate(2024, 5, 1))

	first := Summarize([]core.Transaction{a, b, c}, scope)
	second := Summarize([]core.Transaction{c, a, b}, scope)
	assert.True(t, first.TotalSpent.Equal(d("1234.87")))
	assert.True(t, first.TotalSpent.Equal(second.TotalSpent))
}

func TestEmptyScope(t *testing.T) {
	sum := Summarize([]core.Transaction{tx(t, "2024-04-01", "Food", "5")}, ThisMonth(core.NewDate(2024, 5, 1)))
	assert.True(t, sum.Empty)
	assert.True(t, sum.TotalSpent.IsZero())
	assert.True(t, sum.DailyAvg.IsZero())
	assert.NotNil(t, sum.Transactions)

	mi := Insights(nil, ThisMonth(core.NewDate(2024, 5, 1)))
	assert.Nil(t, mi.TopCategory)
	assert.Empty(t, mi.TopCategories)
	assert.Equal(t, "", mi.MostFrequent)
}

func TestBreakdown(t *testing.T) {
	txs := []core.Transaction{
		tx(t, "2024-05-01", "Food", "100"),
		tx(t, "2024-05-01", "Transport", "20"),
		tx(t, "2024-05-02", "Transport", "30"),
		tx(t, "2024-05-02", "Rent", "400"),
		tx(t, "2024-05-03", "Books", "50"),
		tx(t, "2024-05-03", "Food", "50"),
		tx(t, "2024-05-04", "Entertainment", "150"),
	}
	bd := Breakdown(txs)

	names := make([]string, 0, len(bd.Categories))
	for _, c := range bd.Categories {
		names = append(names, c.Name)
	}
	// Food and Entertainment tie at 150 and are ordered by name.
	assert.Equal(t, []string{"Rent", "Entertainment", "Food", "Books", "Transport"}, names)
	assert.True(t, bd.Total.Equal(d("800")))

	top3 := bd.TopN(3)
	require.Len(t, top3, 3)
	assert.Equal(t, "Food", top3[2].Name)
	assert.Len(t, bd.TopN(10), 5)

	top, ok := bd.Top()
	require.True(t, ok)
	assert.Equal(t, "Rent", top.Name)

	// Food and Transport both appear twice.
	freq, ok := bd.MostFrequent()
	require.True(t, ok)
	assert.Equal(t, "Food", freq)

	shares := bd.Share()
	assert.InDelta(t, 50.0, shares[0], 1e-9)
}

func TestDailyVariability(t *testing.T) {
	single := DailyVariability([]core.Transaction{
		tx(t, "2024-05-01", "Food", "10"),
		tx(t, "2024-05-01", "Rent", "900"),
	})
	assert.False(t, single.Defined)
	assert.Equal(t, 1, single.Days)
	assert.Equal(t, 100.0, single.StabilityScore())

	two := DailyVariability([]core.Transaction{
		tx(t, "2024-05-01", "Food", "10"),
		tx(t, "2024-05-01", "Food", "10"),
		tx(t, "2024-05-03", "Food", "40"),
	})
	// Daily sums 20 and 40; the empty 2nd is not a zero day.
	assert.True(t, two.Defined)
	assert.InDelta(t, 14.142135623730951, two.StdDev, 1e-9)
	assert.InDelta(t, 85.857864376269, two.StabilityScore(), 1e-9)

	wild := DailyVariability([]core.Transaction{
		tx(t, "2024-05-01", "Food", "0"),
		tx(t, "2024-05-02", "Food", "1000"),
	})
	assert.Equal(t, 0.0, wild.StabilityScore())
}

func TestProjectionUnboundedRunway(t *testing.T) {
	p := Project(d("5000"), decimal.Zero, 15)
	assert.True(t, p.DaysLeft.Unbounded)
	assert.Equal(t, "unlimited", p.DaysLeft.String())

	over := Project(d("100"), d("250"), 2)
	assert.True(t, over.Remaining.Equal(d("-150")))
	assert.True(t, over.Overspent())
	assert.EqualValues(t, 0, over.DaysLeft.Days)
	assert.Equal(t, "0 days", over.DaysLeft.String())
}

func TestProjectionRepeatingDailyAverage(t *testing.T) {
	txs := []core.Transaction{tx(t, "2024-05-01", "Food", "2.00")}
	sum := Summarize(txs, MonthToDate(core.NewDate(2024, 5, 3)))
	require.Equal(t, 3, sum.DaysElapsed)

	// Daily average 2/3; 20000 / (2/3) is exactly 30000.
	p := Project(d("20000"), sum.TotalSpent, sum.DaysElapsed)
	assert.EqualValues(t, 30000, p.DaysLeft.Days)

	partial := Project(d("100"), d("30"), 1)
	assert.EqualValues(t, 3, partial.DaysLeft.Days)
}

func TestHealthZeroAllowance(t *testing.T) {
	h := ComputeHealth(HealthInput{
		Remaining: d("-300"),
		Allowance: decimal.Zero,
		Recurring: []core.RecurringExpense{{Amount: d("500"), Frequency: core.Monthly, Category: "Rent"}},
	})
	assert.Equal(t, 0.0, h.SavingPercent)
	assert.Equal(t, 0.0, h.RecurringLoad)
	// 0 + 0 + 100*0.2 + 100*0.2
	assert.Equal(t, 40, h.Score)
}

func TestHealthRecurringLoad(t *testing.T) {
	h := ComputeHealth(HealthInput{
		Remaining: d("2000"),
		Allowance: d("2000"),
		Recurring: []core.RecurringExpense{
			{Amount: d("600"), Frequency: core.Monthly, Category: "Rent"},
			{Amount: d("400"), Frequency: core.Yearly, Category: "Insurance"},
		},
	})
	assert.Equal(t, 50.0, h.RecurringLoad)
	// 100*0.4 + 0 + (100-50)*0.2 + 100*0.2
	assert.Equal(t, 70, h.Score)

	capped := ComputeHealth(HealthInput{
		Remaining: d("100"),
		Allowance: d("100"),
		Recurring: []core.RecurringExpense{{Amount: d("1000"), Frequency: core.Monthly, Category: "Rent"}},
	})
	assert.Equal(t, 100.0, capped.RecurringLoad)
}

func TestHealthScenarioScore(t *testing.T) {
	txs := []core.Transaction{
		tx(t, "2024-05-01", "Food", "200"),
		tx(t, "2024-05-02", "Food", "300"),
	}
	h := ComputeHealth(HealthInput{
		Remaining:   d("4500"),
		Allowance:   d("5000"),
		Variability: DailyVariability(txs),
	})
	assert.Equal(t, 90.0, h.SavingPercent)
	// 36 + 0 + 20 + (100-70.71)*0.2 = 61.86, truncated.
	assert.Equal(t, 61, h.Score)
	assert.Equal(t, "61/100", h.Label())
}

func TestHealthGoalProgress(t *testing.T) {
	goals := []core.SavingGoal{
		{Name: "Trip", TargetAmount: d("1000")},
		{Name: "Laptop", TargetAmount: d("3000")},
	}

	h := ComputeHealth(HealthInput{Remaining: d("3000"), Allowance: d("5000"), Goals: goals})
	assert.Equal(t, 75.0, h.GoalProgress)

	capped := ComputeHealth(HealthInput{Remaining: d("8000"), Allowance: d("5000"), Goals: goals})
	assert.Equal(t, 100.0, capped.GoalProgress)

	negative := ComputeHealth(HealthInput{Remaining: d("-400"), Allowance: d("5000"), Goals: goals})
	assert.Equal(t, -10.0, negative.GoalProgress)

	// 13.33.. + 6.66.. + 20 + 20 is exactly 60.
	thirds := ComputeHealth(HealthInput{
		Remaining: d("1000"),
		Allowance: d("3000"),
		Goals:     []core.SavingGoal{{Name: "Car", TargetAmount: d("3000")}},
	})
	assert.Equal(t, 60, thirds.Score)

	zeroTarget := ComputeHealth(HealthInput{Remaining: d("100"), Allowance: d("5000"), Goals: []core.SavingGoal{{Name: "x"}}})
	assert.Equal(t, 0.0, zeroTarget.GoalProgress)
}

func TestHealthDisplayClamp(t *testing.T) {
	deep := ComputeHealth(HealthInput{Remaining: d("-900"), Allowance: d("100")})
	// -900*0.4 + 0 + 20 + 20
	assert.Equal(t, -320, deep.Score)
	assert.Equal(t, 0, deep.Display())

	// -131.5*0.4 + 40 = -12.6 truncates toward zero.
	fractional := ComputeHealth(HealthInput{Remaining: d("-131.5"), Allowance: d("100")})
	assert.Equal(t, -12, fractional.Score)
	assert.Equal(t, 0, fractional.Display())

	rich := ComputeHealth(HealthInput{Remaining: d("1000"), Allowance: d("100")})
	assert.Equal(t, 440, rich.Score)
	assert.Equal(t, 100, rich.Display())
	assert.Equal(t, "100/100", rich.Label())
}

func TestNudgesAndBadge(t *testing.T) {
	tests := []struct {
		name   string
		health Health
		kind   NudgeKind
		badge  bool
	}{
		{"low saving", Health{SavingPercent: 19.99}, NudgeWarning, false},
		{"middle", Health{SavingPercent: 50}, "", false},
		{"encouraged", Health{SavingPercent: 80}, NudgeEncouragement, false},
		{"badge", Health{SavingPercent: 90, GoalProgress: 75}, NudgeEncouragement, true},
		{"no badge without goals", Health{SavingPercent: 95, GoalProgress: 0}, NudgeEncouragement, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nudges := Nudges(tt.health)
			if tt.kind == "" {
				assert.Empty(t, nudges)
			} else {
				require.Len(t, nudges, 1)
				assert.Equal(t, tt.kind, nudges[0].Kind)
			}
			_, ok := EarnedBadge(tt.health)
			assert.Equal(t, tt.badge, ok)
		})
	}
}

func TestSummarizeRecurring(t *testing.T) {
	recs := []core.RecurringExpense{
		{ID: "a", Category: "Coffee", Amount: d("12"), Frequency: core.Daily},
		{ID: "b", Category: "Gym", Amount: d("120"), Frequency: core.Weekly},
		{ID: "c", Category: "Rent", Amount: d("1000"), Frequency: core.Monthly},
		{ID: "d", Category: "Insurance", Amount: d("1200"), Frequency: core.Yearly},
	}
	s, err := SummarizeRecurring(recs)
	require.NoError(t, err)
	assert.True(t, s.Total.Equal(d("2332")))
	assert.True(t, s.Items[0].MonthlyEquivalent.Equal(d("365")))
	assert.True(t, s.Items[1].MonthlyEquivalent.Equal(d("520")))
	assert.True(t, s.Items[2].MonthlyEquivalent.Equal(d("1000")))
	assert.True(t, s.Items[3].MonthlyEquivalent.Equal(d("100")))
	assert.True(t, s.MonthlyTotal.Equal(d("1985")))

	_, err = SummarizeRecurring([]core.RecurringExpense{{ID: "x", Frequency: "hourly"}})
	assert.Error(t, err)
}

func TestOwingBalance(t *testing.T) {
	o := OwingBalance([]core.OwingRecord{
		{Type: core.IOwe, Person: "Asha", Amount: d("250")},
		{Type: core.OwedToMe, Person: "Ravi", Amount: d("100")},
		{Type: core.IOwe, Person: "Meera", Amount: d("50.50")},
	})
	assert.True(t, o.IOwe.Equal(d("300.50")))
	assert.True(t, o.OwedToMe.Equal(d("100")))
	assert.True(t, o.Net.Equal(d("-200.50")))
	assert.Len(t, o.Records, 3)
}

func TestBuildReport(t *testing.T) {
	l := core.NewLedger(d("5000"))
	require.NoError(t, l.AddTransaction(tx(t, "2024-04-20", "Rent", "1000")))
	require.NoError(t, l.AddTransaction(tx(t, "2024-05-01", "Food", "200")))
	require.NoError(t, l.AddTransaction(tx(t, "2024-05-02", "Food", "300")))

	today := core.NewDate(2024, 5, 2)
	r, err := BuildReport(l, today, LastMonth(today))
	require.NoError(t, err)

	assert.True(t, r.HasData)
	assert.True(t, r.MonthToDate.TotalSpent.Equal(d("500")))
	assert.True(t, r.Projection.Remaining.Equal(d("4500")))
	assert.Equal(t, 3, r.Variability.Days, "stability spans the whole ledger")
	require.NotNil(t, r.Selected.TopCategory)
	assert.Equal(t, "Rent", r.Selected.TopCategory.Name)
	assert.True(t, r.Selected.Summary.DailyAvg.Equal(d("1000").Div(d("30"))))
	assert.Len(t, r.AllTime.Categories, 2)
	assert.Len(t, r.Latest, 3)
	assert.Nil(t, r.Badge)
}
