// Package sheets mirrors recorded transactions into an external spreadsheet.
package sheets

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"moneymate/internal/core"
)

var ErrInvalidRow = errors.New("invalid sheet row")

// Row is one appended line: [user_id, date, category, amount, note].
type Row struct {
	UserID   string
	Date     core.Date
	Category string
	Amount   decimal.Decimal
	Note     string
}

// RowFromTransaction builds the sheet row for a transaction of userID.
func RowFromTransaction(userID string, t core.Transaction) Row {
	return Row{UserID: userID, Date: t.Date, Category: t.Category, Amount: t.Amount, Note: t.Note}
}

func (r Row) Validate() error {
	if strings.TrimSpace(r.UserID) == "" || r.Date.IsZero() || strings.TrimSpace(r.Category) == "" {
		return ErrInvalidRow
	}
	return nil
}

// Values renders the row in column order for the Sheets API.
func (r Row) Values() []any {
	return []any{r.UserID, r.Date.String(), r.Category, r.Amount.StringFixed(2), r.Note}
}

// Ports for outbound adapters.
type (
	RowAppender interface {
		Append(ctx context.Context, row Row) (rowRef string, err error)
	}
)
