// Package analytics computes budget metrics from a user's ledger.
//
// Everything in this package is a pure function of its inputs: a ledger (or a
// slice of its transactions) and the calendar date the caller considers
// "today". Nothing here logs, performs I/O or mutates the ledger.
package analytics

import (
	"fmt"
	"strings"
	"time"

	"moneymate/internal/core"
)

// ScopeKind selects how a Scope filters transactions and counts days.
type ScopeKind string

const (
	// KindMonthToDate keeps every transaction dated on or after the first of
	// the current month and counts days from the first up to today inclusive.
	KindMonthToDate ScopeKind = "month_to_date"
	// KindMonth keeps transactions of one calendar month and counts every day
	// of that month.
	KindMonth ScopeKind = "month"
)

// Scope is the time window an aggregation runs over.
type Scope struct {
	Kind  ScopeKind `json:"kind"`
	Year  int       `json:"year"`
	Month int       `json:"month"`
	// Today is only meaningful for KindMonthToDate.
	Today core.Date `json:"today,omitempty"`
}

// MonthToDate returns the dashboard scope for today.
func MonthToDate(today core.Date) Scope {
	return Scope{
		Kind:  KindMonthToDate,
		Year:  today.Year(),
		Month: today.Month(),
		Today: today,
	}
}

// ThisMonth returns the full calendar month containing today.
func ThisMonth(today core.Date) Scope {
	return Scope{Kind: KindMonth, Year: today.Year(), Month: today.Month()}
}

// LastMonth returns the calendar month that contains the day before the
// first of today's month.
func LastMonth(today core.Date) Scope {
	prev := StartOfMonth(today).AddDate(0, 0, -1)
	return Scope{Kind: KindMonth, Year: prev.Year(), Month: int(prev.Month())}
}

// CustomMonth returns the scope for an explicitly selected month.
func CustomMonth(year, month int) (Scope, error) {
	if month < 1 || month > 12 {
		return Scope{}, &core.ValidationError{Field: "month", Err: core.ErrInvalidMonth}
	}
	if year < 1 || year > 9999 {
		return Scope{}, &core.ValidationError{Field: "year", Err: core.ErrInvalidMonth}
	}
	return Scope{Kind: KindMonth, Year: year, Month: month}, nil
}

// ParseMonth parses "YYYY-MM" into an explicit month scope.
func ParseMonth(s string) (Scope, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Scope{}, &core.ValidationError{Field: "month", Err: fmt.Errorf("%w: %q", core.ErrInvalidMonth, s)}
	}
	return CustomMonth(t.Year(), int(t.Month()))
}

// StartOfMonth returns the first day of d's month.
func StartOfMonth(d core.Date) core.Date {
	return core.NewDate(d.Year(), d.Month(), 1)
}

// DaysInMonth returns the number of days of the given month, leap-year aware.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Start returns the first day of the scope's month.
func (s Scope) Start() core.Date {
	return core.NewDate(s.Year, s.Month, 1)
}

// Contains reports whether a transaction dated d falls inside the scope.
// The month-to-date window has no upper bound: entries dated after today
// still count toward the current month.
func (s Scope) Contains(d core.Date) bool {
	switch s.Kind {
	case KindMonthToDate:
		return !d.Before(s.Start())
	default:
		return d.Year() == s.Year && d.Month() == s.Month
	}
}

// Filter returns the transactions inside the scope, preserving input order.
func (s Scope) Filter(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if s.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// DaysElapsed is the divisor used for the daily average.
func (s Scope) DaysElapsed() int {
	if s.Kind == KindMonthToDate {
		days := int(s.Today.Sub(s.Start().Time).Hours()/24) + 1
		if days < 0 {
			return 0
		}
		return days
	}
	return DaysInMonth(s.Year, s.Month)
}

// Label renders the scope as "2024-05".
func (s Scope) Label() string {
	return fmt.Sprintf("%04d-%02d", s.Year, s.Month)
}
