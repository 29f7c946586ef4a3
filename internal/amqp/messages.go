package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"moneymate/internal/core"
)

// TransactionRecorded is published after an expense has been durably saved.
// It carries the full row so the worker never needs to read the ledger store.
type TransactionRecorded struct {
	UserID        string          `json:"user_id"`
	TransactionID string          `json:"transaction_id"`
	Date          core.Date       `json:"date"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	Note          string          `json:"note,omitempty"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

var ErrInvalidMessage = errors.New("invalid transaction message")

// NewTransactionRecorded builds the event for a transaction of userID.
func NewTransactionRecorded(userID string, t core.Transaction) *TransactionRecorded {
	return &TransactionRecorded{
		UserID:        userID,
		TransactionID: t.ID,
		Date:          t.Date,
		Category:      t.Category,
		Amount:        t.Amount,
		Note:          t.Note,
		RecordedAt:    time.Now().UTC(),
	}
}

// Transaction rebuilds the recorded transaction.
func (m *TransactionRecorded) Transaction() core.Transaction {
	return core.Transaction{ID: m.TransactionID, Date: m.Date, Category: m.Category, Amount: m.Amount, Note: m.Note}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionRecorded) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedFromJSON decodes a message and rejects events that lack
// the identifiers the worker needs.
func TransactionRecordedFromJSON(data []byte) (*TransactionRecorded, error) {
	var msg TransactionRecorded
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" || msg.TransactionID == "" {
		return nil, ErrInvalidMessage
	}
	return &msg, nil
}
