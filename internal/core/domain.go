package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	IOwe     OwingType = "i_owe"
	OwedToMe OwingType = "owed_to_me"
)

const dateLayout = "2006-01-02"

// DefaultCategories are offered by clients as the fixed label set; any
// non-empty free-text category is accepted as well.
var DefaultCategories = []string{"Food", "Books", "Rent", "Transport", "Entertainment", "Other"}

type (
	Frequency string

	OwingType string

	Date struct {
		time.Time
	}

	// Transaction is a single dated expense. Immutable once appended.
	Transaction struct {
		ID       string          `json:"id"`
		Date     Date            `json:"date"`
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
		Note     string          `json:"note,omitempty"`
	}

	SavingGoal struct {
		ID           string          `json:"id"`
		Name         string          `json:"name"`
		TargetAmount decimal.Decimal `json:"targetAmount"`
		Deadline     Date            `json:"deadline"`
		Done         bool            `json:"done"`
	}

	RecurringExpense struct {
		ID        string          `json:"id"`
		Category  string          `json:"category"`
		Amount    decimal.Decimal `json:"amount"`
		Frequency Frequency       `json:"frequency"`
		Note      string          `json:"note,omitempty"`
	}

	OwingRecord struct {
		ID     string          `json:"id"`
		Type   OwingType       `json:"type"`
		Person string          `json:"person"`
		Amount decimal.Decimal `json:"amount"`
		Note   string          `json:"note,omitempty"`
	}

	BudgetConfig struct {
		MonthlyAllowance decimal.Decimal `json:"monthlyAllowance"`
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrAmountPrecision  = errors.New("amount has more than two decimal places")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyGoalName    = errors.New("empty goal name")
	ErrEmptyPerson      = errors.New("empty person")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidOwingType = errors.New("invalid owing type")
	ErrGoalNotFound     = errors.New("saving goal not found")
	ErrNoteTooLong      = errors.New("note too long (max 200 characters)")
)

// ValidationError reports which field of a submitted record was rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err was produced by record validation.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses an ISO-8601 calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	// Older snapshots stored full timestamps.
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseFrequency accepts the canonical lowercase names and their display
// forms ("Daily", "Weekly", ...).
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if err := f.Validate(); err != nil {
		return "", err
	}
	return f, nil
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

// ParseOwingType accepts "i_owe"/"owed_to_me" as well as "I Owe"/"Owed To Me".
func ParseOwingType(s string) (OwingType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, " ", "_")
	t := OwingType(norm)
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

func (t OwingType) Validate() error {
	switch t {
	case IOwe, OwedToMe:
		return nil
	default:
		return ErrInvalidOwingType
	}
}

// Label returns the human readable name of the owing direction.
func (t OwingType) Label() string {
	switch t {
	case IOwe:
		return "I Owe"
	case OwedToMe:
		return "Owed To Me"
	default:
		return string(t)
	}
}

func validateAmount(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return invalid(field, ErrNegativeAmount)
	}
	if !amount.Equal(amount.Round(2)) {
		return invalid(field, ErrAmountPrecision)
	}
	return nil
}

func validateNote(note string) error {
	if len(note) > 200 {
		return invalid("note", ErrNoteTooLong)
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	if strings.TrimSpace(t.Category) == "" {
		return invalid("category", ErrEmptyCategory)
	}
	if err := validateAmount("amount", t.Amount); err != nil {
		return err
	}
	return validateNote(t.Note)
}

func (g SavingGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return invalid("name", ErrEmptyGoalName)
	}
	if err := validateAmount("targetAmount", g.TargetAmount); err != nil {
		return err
	}
	if err := g.Deadline.Validate(); err != nil {
		return invalid("deadline", err)
	}
	return nil
}

func (r RecurringExpense) Validate() error {
	if strings.TrimSpace(r.Category) == "" {
		return invalid("category", ErrEmptyCategory)
	}
	if err := validateAmount("amount", r.Amount); err != nil {
		return err
	}
	if err := r.Frequency.Validate(); err != nil {
		return invalid("frequency", err)
	}
	return validateNote(r.Note)
}

func (o OwingRecord) Validate() error {
	if err := o.Type.Validate(); err != nil {
		return invalid("type", err)
	}
	if strings.TrimSpace(o.Person) == "" {
		return invalid("person", ErrEmptyPerson)
	}
	if err := validateAmount("amount", o.Amount); err != nil {
		return err
	}
	return validateNote(o.Note)
}

func (b BudgetConfig) Validate() error {
	return validateAmount("monthlyAllowance", b.MonthlyAllowance)
}

// NewTransaction validates the input and assigns a fresh identifier.
func NewTransaction(date Date, category string, amount decimal.Decimal, note string) (Transaction, error) {
	t := Transaction{
		ID:       uuid.NewString(),
		Date:     date,
		Category: strings.TrimSpace(category),
		Amount:   amount,
		Note:     strings.TrimSpace(note),
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func NewSavingGoal(name string, target decimal.Decimal, deadline Date) (SavingGoal, error) {
	g := SavingGoal{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		TargetAmount: target,
		Deadline:     deadline,
	}
	if err := g.Validate(); err != nil {
		return SavingGoal{}, err
	}
	return g, nil
}

func NewRecurringExpense(category string, amount decimal.Decimal, freq Frequency, note string) (RecurringExpense, error) {
	r := RecurringExpense{
		ID:        uuid.NewString(),
		Category:  strings.TrimSpace(category),
		Amount:    amount,
		Frequency: freq,
		Note:      strings.TrimSpace(note),
	}
	if err := r.Validate(); err != nil {
		return RecurringExpense{}, err
	}
	return r, nil
}

func NewOwingRecord(kind OwingType, person string, amount decimal.Decimal, note string) (OwingRecord, error) {
	o := OwingRecord{
		ID:     uuid.NewString(),
		Type:   kind,
		Person: strings.TrimSpace(person),
		Amount: amount,
		Note:   strings.TrimSpace(note),
	}
	if err := o.Validate(); err != nil {
		return OwingRecord{}, err
	}
	return o, nil
}
