package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"moneymate/internal/analytics"
	"moneymate/internal/core"
)

var (
	ColorBorder = lipgloss.Color("#575653")
	ColorText   = lipgloss.Color("#FFFCF0")
	ColorMuted  = lipgloss.Color("#6F6E69")
	ColorAccent = lipgloss.Color("#3AA99F")
	ColorGreen  = lipgloss.Color("#879A39")
	ColorOrange = lipgloss.Color("#DA702C")
	ColorRed    = lipgloss.Color("#D14D41")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorText)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	goodStyle   = lipgloss.NewStyle().Foreground(ColorGreen)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorOrange)
	badStyle    = lipgloss.NewStyle().Foreground(ColorRed)
	borderStyle = lipgloss.NewStyle().Foreground(ColorBorder)
)

// Table is a titled block of aligned columns.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders title in a rounded box.
func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 2).
		Render(titleStyle.Render(title))
}

// RenderTable renders t with columns padded to their widest cell.
func RenderTable(t Table) string {
	cols := len(t.Headers)
	for _, row := range t.Rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return ""
	}

	widths := make([]int, cols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, style *lipgloss.Style) string {
		parts := make([]string, cols)
		for i := range parts {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if style != nil {
				cell = style.Render(cell)
			}
			parts[i] = cell + pad
		}
		return "  " + strings.Join(parts, borderStyle.Render(" │ ")) + "\n"
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}
	if len(t.Headers) > 0 {
		b.WriteString(line(t.Headers, &mutedStyle))
		total := 0
		for _, w := range widths {
			total += w + 3
		}
		b.WriteString("  " + borderStyle.Render(strings.Repeat("─", total-3)) + "\n")
	}
	for _, row := range t.Rows {
		b.WriteString(line(row, nil))
	}
	if len(t.Rows) == 0 {
		b.WriteString("  " + mutedStyle.Render("(none)") + "\n")
	}
	return b.String()
}

// Renderer prints reports with a fixed currency symbol.
type Renderer struct {
	w      io.Writer
	symbol string
}

func NewRenderer(w io.Writer, currencySymbol string) *Renderer {
	return &Renderer{w: w, symbol: currencySymbol}
}

func (r *Renderer) money(d decimal.Decimal) string {
	return core.FormatMoney(r.symbol, d)
}

// Dashboard prints the overview, health, insights and recent activity.
func (r *Renderer) Dashboard(rep analytics.Report) {
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, RenderTitle("MONEYMATE  "+rep.Today.String()))
	fmt.Fprintln(r.w)

	if !rep.HasData {
		fmt.Fprintln(r.w, "  "+mutedStyle.Render("No expenses recorded yet. Add one with `moneymatectl add`."))
		fmt.Fprintln(r.w)
	}

	remaining := r.money(rep.Projection.Remaining)
	if rep.Projection.Overspent() {
		remaining = badStyle.Render(remaining)
	}
	fmt.Fprint(r.w, RenderTable(Table{
		Title:   "This month",
		Headers: []string{"Allowance", "Spent", "Remaining", "Daily avg", "Runway"},
		Rows: [][]string{{
			r.money(rep.Projection.Allowance),
			r.money(rep.MonthToDate.TotalSpent),
			remaining,
			r.money(rep.MonthToDate.DailyAvg),
			rep.Projection.DaysLeft.String(),
		}},
	}))
	fmt.Fprintln(r.w)

	fmt.Fprintf(r.w, "  %s %s\n", headerStyle.Render("Health score"), scoreStyle(rep.Health.Display()).Render(rep.Health.Label()))
	fmt.Fprintf(r.w, "  %s\n", mutedStyle.Render(fmt.Sprintf(
		"saving %.0f%%  goals %.0f%%  recurring load %.0f%%  stability %.0f",
		rep.Health.SavingPercent, rep.Health.GoalProgress, rep.Health.RecurringLoad, rep.Health.StabilityScore)))
	for _, n := range rep.Nudges {
		style := goodStyle
		if n.Kind == analytics.NudgeWarning {
			style = warnStyle
		}
		fmt.Fprintf(r.w, "  %s\n", style.Render(n.Message))
	}
	if rep.Badge != nil {
		fmt.Fprintf(r.w, "  %s\n", goodStyle.Render(rep.Badge.Message))
	}
	fmt.Fprintln(r.w)

	r.Insights(rep.Selected)

	fmt.Fprint(r.w, RenderTable(Table{
		Title:   "Owings",
		Headers: []string{"I owe", "Owed to me", "Net"},
		Rows:    [][]string{{r.money(rep.Owing.IOwe), r.money(rep.Owing.OwedToMe), r.money(rep.Owing.Net)}},
	}))
	fmt.Fprintln(r.w)

	rec := Table{Title: "Recurring", Headers: []string{"Category", "Amount", "Frequency", "Per month"}}
	for _, it := range rep.Recurring.Items {
		rec.Rows = append(rec.Rows, []string{it.Category, r.money(it.Amount), string(it.Frequency), r.money(it.MonthlyEquivalent)})
	}
	fmt.Fprint(r.w, RenderTable(rec))
	fmt.Fprintln(r.w)

	r.Transactions("Latest", rep.Latest)
}

// Insights prints one month's totals and category breakdown.
func (r *Renderer) Insights(mi analytics.MonthInsights) {
	title := "Insights " + mi.Summary.Scope.Label()
	if mi.Summary.Empty {
		fmt.Fprintf(r.w, "  %s\n  %s\n\n", headerStyle.Render(title), mutedStyle.Render("No expenses in this month."))
		return
	}

	t := Table{Title: title, Headers: []string{"Category", "Total", "Count", "Share"}}
	for _, c := range mi.Breakdown.Categories {
		share := "-"
		if mi.Breakdown.Total.IsPositive() {
			share = c.Amount.Div(mi.Breakdown.Total).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
		}
		t.Rows = append(t.Rows, []string{c.Name, r.money(c.Amount), fmt.Sprint(c.Count), share})
	}
	fmt.Fprint(r.w, RenderTable(t))
	fmt.Fprintf(r.w, "  total %s over %d days, %s/day\n",
		r.money(mi.Summary.TotalSpent), mi.Summary.DaysElapsed, r.money(mi.Summary.DailyAvg))
	if mi.TopCategory != nil {
		fmt.Fprintf(r.w, "  top category %s, most frequent %s\n", mi.TopCategory.Name, mi.MostFrequent)
	}
	fmt.Fprintln(r.w)
}

// Transactions prints txs as a table.
func (r *Renderer) Transactions(title string, txs []core.Transaction) {
	t := Table{Title: title, Headers: []string{"Date", "Category", "Amount", "Note"}}
	for _, tx := range txs {
		t.Rows = append(t.Rows, []string{tx.Date.String(), tx.Category, r.money(tx.Amount), tx.Note})
	}
	fmt.Fprint(r.w, RenderTable(t))
	fmt.Fprintln(r.w)
}

func scoreStyle(score int) lipgloss.Style {
	switch {
	case score >= 70:
		return goodStyle
	case score >= 40:
		return warnStyle
	default:
		return badStyle
	}
}
