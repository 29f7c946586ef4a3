package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	dir string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	return harness{dir: t.TempDir()}
}

func (h harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	base := []string{
		"--config", filepath.Join(h.dir, "profile.toml"),
		"--backend", "json",
		"--data-dir", filepath.Join(h.dir, "data"),
		"--today", "2024-05-15",
		"--currency", "$",
	}
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestAddAndSummary(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "add", "12,50", "Food", "--date", "2024-05-02", "--note", "lunch")
	assert.Contains(t, out, "Added $12.50 Food on 2024-05-02")

	h.mustRun(t, "add", "30", "Books")
	h.mustRun(t, "allowance", "1000")

	out = h.mustRun(t, "history", "--latest", "1")
	assert.Contains(t, out, "Books")
	assert.NotContains(t, out, "lunch")

	out = h.mustRun(t, "summary")
	assert.Contains(t, out, "$1,000.00")
	assert.Contains(t, out, "$957.50")
	assert.Contains(t, out, "/100")

	out = h.mustRun(t, "allowance")
	assert.Contains(t, out, "Monthly allowance: $1,000.00")
}

func TestAddRejectsInvalidInput(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "add", "-5", "Food")
	require.Error(t, err)

	_, err = h.run(t, "add", "5", " ")
	require.Error(t, err)

	_, err = h.run(t, "--user", "../etc", "add", "5", "Food")
	require.Error(t, err)

	out := h.mustRun(t, "history")
	assert.Contains(t, out, "(none)")
}

func TestGoalLifecycle(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "goal", "add", "Laptop", "900", "2024-12-01")
	m := regexp.MustCompile(`\(([0-9a-f-]{36})\)`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)

	out = h.mustRun(t, "goal", "done", m[1])
	assert.Contains(t, out, `Goal "Laptop" is done`)

	out = h.mustRun(t, "goal", "list")
	assert.Contains(t, out, "[x] "+m[1])

	_, err := h.run(t, "goal", "done", "missing")
	require.Error(t, err)
}

func TestRecurringOwingsAndInsights(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "recurring", "add", "Gym", "600", "Yearly")
	assert.Contains(t, out, "yearly")

	out = h.mustRun(t, "owe", "add", "owed_to_me", "Sam", "40")
	assert.Contains(t, out, "Owed To Me: Sam $40.00")

	_, err := h.run(t, "owe", "add", "sideways", "Sam", "40")
	require.Error(t, err)

	h.mustRun(t, "add", "20", "Transport", "--date", "2024-04-20")
	out = h.mustRun(t, "insights", "--last")
	assert.Contains(t, out, "Insights 2024-04")
	assert.Contains(t, out, "Transport")

	out = h.mustRun(t, "insights", "--month", "2023-01")
	assert.Contains(t, out, "No expenses in this month.")

	_, err = h.run(t, "insights", "--month", "2023-13")
	require.Error(t, err)
}

func TestExportImport(t *testing.T) {
	h := newHarness(t)

	h.mustRun(t, "add", "12.5", "Food", "--date", "2024-05-02")
	h.mustRun(t, "add", "800", "Rent", "--date", "2024-04-01")

	file := filepath.Join(h.dir, "may.csv")
	out := h.mustRun(t, "export", "--month", "2024-05", "-o", file)
	assert.Contains(t, out, "Wrote "+file)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024-05-02,Food,12.50")
	assert.NotContains(t, string(data), "Rent")

	out = h.mustRun(t, "--user", "bob", "import", file)
	assert.Contains(t, out, "Imported 1 expenses")

	out = h.mustRun(t, "--user", "bob", "history")
	assert.Contains(t, out, "Food")
}

func TestConfigInitAndShow(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "--user", "carol", "config", "init")
	assert.Contains(t, out, "profile.toml")

	_, err := h.run(t, "config", "init")
	require.Error(t, err)

	var buf, errOut bytes.Buffer
	cmd := newRootCmd(&buf, &errOut)
	cmd.SetArgs([]string{"--config", filepath.Join(h.dir, "profile.toml"), "config", "show"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "user:     carol")
	assert.Contains(t, buf.String(), "currency: $")
}
