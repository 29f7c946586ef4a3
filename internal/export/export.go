// Package export renders month-filtered transactions as downloadable CSV and
// reads such files back.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"moneymate/internal/analytics"
	"moneymate/internal/core"
)

const MIMEType = "text/csv"

// Header is the column layout of an exported file.
var Header = []string{"Date", "Category", "Amount", "Note", "ID"}

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrMalformedRow  = errors.New("malformed row")
)

// File is a ready-to-download export.
type File struct {
	Data     []byte
	Filename string
	MIMEType string
}

// Filename returns the suggested name, e.g. expenses_2024_5.csv.
func Filename(year, month int) string {
	return fmt.Sprintf("expenses_%d_%d.csv", year, month)
}

// ExportMonth writes the transactions of year/month as UTF-8 CSV. txs may
// be the whole ledger; rows outside the month are skipped and the remaining
// rows keep their input order.
func ExportMonth(txs []core.Transaction, year, month int) (File, error) {
	scope, err := analytics.CustomMonth(year, month)
	if err != nil {
		return File{}, err
	}

	var buf bytes.Buffer
	if err := Write(&buf, scope.Filter(txs)); err != nil {
		return File{}, err
	}

	return File{
		Data:     buf.Bytes(),
		Filename: Filename(year, month),
		MIMEType: MIMEType,
	}, nil
}

// Write encodes txs with a header row.
func Write(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range txs {
		row := []string{t.Date.String(), t.Category, t.Amount.StringFixed(2), t.Note, t.ID}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseCSV reads a file produced by Write. Column order is taken from the
// header; Date, Category and Amount are required, Note and ID are optional.
func ParseCSV(r io.Reader) ([]core.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err == io.EOF {
		return []core.Transaction{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(head))
	for i, name := range head {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range []string{"date", "category", "amount"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	out := []core.Transaction{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		date, err := core.ParseDate(field(rec, "date"))
		if err != nil {
			return nil, fmt.Errorf("%w at line %d: %v", ErrMalformedRow, line, err)
		}
		amount, err := core.ParseAmount(field(rec, "amount"))
		if err != nil {
			return nil, fmt.Errorf("%w at line %d: %v", ErrMalformedRow, line, err)
		}
		t := core.Transaction{
			ID:       field(rec, "id"),
			Date:     date,
			Category: field(rec, "category"),
			Amount:   amount,
			Note:     field(rec, "note"),
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("%w at line %d: %v", ErrMalformedRow, line, err)
		}
		out = append(out, t)
	}
	return out, nil
}
