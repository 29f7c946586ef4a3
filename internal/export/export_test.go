package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneymate/internal/analytics"
	"moneymate/internal/core"
)

func mustTx(t *testing.T, y, m, day int, cat, amount, note string) core.Transaction {
	t.Helper()
	tx, err := core.NewTransaction(core.NewDate(y, m, day), cat, decimal.RequireFromString(amount), note)
	require.NoError(t, err)
	return tx
}

func TestExportMonth(t *testing.T) {
	txs := []core.Transaction{
		mustTx(t, 2024, 5, 2, "Food", "300", "dinner, with friends"),
		mustTx(t, 2024, 4, 30, "Rent", "9000", ""),
		mustTx(t, 2024, 5, 1, "Books", "199.5", `"quoted"`),
	}

	f, err := ExportMonth(txs, 2024, 5)
	require.NoError(t, err)
	assert.Equal(t, "expenses_2024_5.csv", f.Filename)
	assert.Equal(t, "text/csv", f.MIMEType)

	lines := strings.Split(strings.TrimSpace(string(f.Data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Category,Amount,Note,ID", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `2024-05-02,Food,300.00,"dinner, with friends",`))
	assert.True(t, strings.HasPrefix(lines[2], `2024-05-01,Books,199.50,"""quoted""",`))
}

func TestExportMonthRejectsInvalidMonth(t *testing.T) {
	_, err := ExportMonth(nil, 2024, 0)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestExportEmptyMonth(t *testing.T) {
	f, err := ExportMonth(nil, 2024, 2)
	require.NoError(t, err)
	assert.Equal(t, "Date,Category,Amount,Note,ID\n", string(f.Data))

	back, err := ParseCSV(bytes.NewReader(f.Data))
	require.NoError(t, err)
	assert.Empty(t, back)
}

func TestRoundTripReproducesAggregates(t *testing.T) {
	txs := []core.Transaction{
		mustTx(t, 2024, 5, 1, "Food", "200", ""),
		mustTx(t, 2024, 5, 2, "Food", "300.25", "lunch"),
		mustTx(t, 2024, 5, 2, "Transport", "45.10", ""),
		mustTx(t, 2024, 5, 20, "Entertainment", "0.01", "tip"),
		mustTx(t, 2024, 6, 1, "Rent", "10000", ""),
	}
	// An amount the CSV cannot carry exactly never reaches the ledger.
	_, err := core.NewTransaction(core.NewDate(2024, 5, 3), "Food", decimal.RequireFromString("10.005"), "")
	require.ErrorIs(t, err, core.ErrAmountPrecision)

	scope, err := analytics.CustomMonth(2024, 5)
	require.NoError(t, err)

	f, err := ExportMonth(txs, 2024, 5)
	require.NoError(t, err)

	back, err := ParseCSV(bytes.NewReader(f.Data))
	require.NoError(t, err)
	require.Len(t, back, 4)
	assert.Equal(t, txs[1].ID, back[1].ID)

	want := analytics.Summarize(txs, scope)
	got := analytics.Summarize(back, scope)
	assert.True(t, want.TotalSpent.Equal(got.TotalSpent), "want %s got %s", want.TotalSpent, got.TotalSpent)

	wantBD := analytics.Breakdown(want.Transactions)
	gotBD := analytics.Breakdown(got.Transactions)
	require.Len(t, gotBD.Categories, len(wantBD.Categories))
	for i := range wantBD.Categories {
		assert.Equal(t, wantBD.Categories[i].Name, gotBD.Categories[i].Name)
		assert.True(t, wantBD.Categories[i].Amount.Equal(gotBD.Categories[i].Amount))
		assert.Equal(t, wantBD.Categories[i].Count, gotBD.Categories[i].Count)
	}
}

func TestParseCSV(t *testing.T) {
	t.Run("columns in any order", func(t *testing.T) {
		in := "amount,date,category\n12.5,2024-01-03,Food\n"
		txs, err := ParseCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, "Food", txs[0].Category)
		assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("12.5")))
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader("Date,Amount\n2024-01-01,3\n"))
		assert.ErrorIs(t, err, ErrMissingColumn)
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader("Date,Category,Amount\n2024-01-01,Food,-3\n"))
		assert.ErrorIs(t, err, ErrMalformedRow)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader("Date,Category,Amount\n01/02/2024,Food,3\n"))
		assert.ErrorIs(t, err, ErrMalformedRow)
	})
}
