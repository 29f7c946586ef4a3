package http

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"moneymate/internal/analytics"
	"moneymate/internal/core"
)

// amountInput accepts a JSON number or a string such as "12,50".
type amountInput string

func (a *amountInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a number or a string: %w", err)
	}
	*a = amountInput(n.String())
	return nil
}

func (a amountInput) parse(field string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(string(a))
	if err != nil {
		return decimal.Zero, &core.ValidationError{Field: field, Err: err}
	}
	return d, nil
}

func parseDateField(field, s string) (core.Date, error) {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, &core.ValidationError{Field: field, Err: err}
	}
	return d, nil
}

// CreateTransactionRequest is the body of POST /transactions. An empty date
// means today.
type CreateTransactionRequest struct {
	Date     string      `json:"date"`
	Category string      `json:"category"`
	Amount   amountInput `json:"amount"`
	Note     string      `json:"note"`
}

type CreateGoalRequest struct {
	Name         string      `json:"name"`
	TargetAmount amountInput `json:"targetAmount"`
	Deadline     string      `json:"deadline"`
}

type UpdateGoalRequest struct {
	Done *bool `json:"done"`
}

type SetAllowanceRequest struct {
	MonthlyAllowance amountInput `json:"monthlyAllowance"`
}

type CreateRecurringRequest struct {
	Category  string      `json:"category"`
	Amount    amountInput `json:"amount"`
	Frequency string      `json:"frequency"`
	Note      string      `json:"note"`
}

type CreateOwingRequest struct {
	Type   string      `json:"type"`
	Person string      `json:"person"`
	Amount amountInput `json:"amount"`
	Note   string      `json:"note"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

// DashboardResponse adds display-ready values to the report.
type DashboardResponse struct {
	analytics.Report
	ScoreDisplay int    `json:"scoreDisplay"`
	ScoreLabel   string `json:"scoreLabel"`
	Runway       string `json:"runway"`
}

func newDashboardResponse(r analytics.Report) DashboardResponse {
	return DashboardResponse{
		Report:       r,
		ScoreDisplay: r.Health.Display(),
		ScoreLabel:   r.Health.Label(),
		Runway:       r.Projection.DaysLeft.String(),
	}
}

type TransactionsResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
}
