package memory

import (
	"context"
	"fmt"
	"sync"

	"moneymate/internal/sheets"
)

var _ sheets.RowAppender = (*Store)(nil)

// Store keeps appended rows in memory. It stands in for the spreadsheet in
// tests and when no Google credentials are configured.
type Store struct {
	mu        sync.Mutex
	rows      []sheets.Row
	failTimes int
	failErr   error
}

func New() *Store {
	return &Store{}
}

// FailNext makes the next n Append calls return err.
func (s *Store) FailNext(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failTimes = n
	s.failErr = err
}

// Append stores the row and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, row sheets.Row) (string, error) {
	if err := row.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTimes > 0 {
		s.failTimes--
		return "", s.failErr
	}
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of every appended row in order.
func (s *Store) Rows() []sheets.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.Row(nil), s.rows...)
}
