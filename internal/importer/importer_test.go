package importer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashsync-dev/cashsync/internal/csvfile"
	"github.com/cashsync-dev/cashsync/internal/model"
)

func readTestdata(t *testing.T, a *Adapter, name string) *csvfile.File {
	t.Helper()
	f, err := a.Read(filepath.Join("testdata", name))
	require.NoError(t, err)
	return f
}

func parseTestdata(t *testing.T, a *Adapter, name string) ([]model.BankTransaction, int) {
	t.Helper()
	return a.Parse(readTestdata(t, a, name), zerolog.Nop())
}

func TestChase_Parse(t *testing.T) {
	txns, skipped := parseTestdata(t, Chase(), "chase_checking.csv")
	assert.Zero(t, skipped)
	require.Len(t, txns, 6)

	// First: GITHUB subscription
	assert.Equal(t, "GITHUB *PRO SUBSCRIPTION", txns[0].Description)
	assert.Equal(t, "-4.00", txns[0].Amount.StringFixed(2))
	assert.Equal(t, "ACH_DEBIT", txns[0].Type)
	assert.Equal(t, 2025, txns[0].Date.Year())
	assert.Equal(t, 1, int(txns[0].Date.Month()))
	assert.Equal(t, 3, txns[0].Date.Day())
	assert.Equal(t, 2, txns[0].Row)

	// Fourth: ACME income (positive)
	assert.Equal(t, "ACME CONSULTING INVOICE 1042", txns[3].Description)
	assert.True(t, txns[3].Amount.IsPositive())
	assert.Equal(t, "3500.00", txns[3].Amount.StringFixed(2))

	// Fifth: paper check
	assert.Equal(t, "1187", txns[4].CheckNumber)
}

func TestChase_DateParsing(t *testing.T) {
	txns, _ := parseTestdata(t, Chase(), "chase_checking.csv")

	// Jan 22
	last := txns[5]
	assert.Equal(t, 2025, last.Date.Year())
	assert.Equal(t, 1, int(last.Date.Month()))
	assert.Equal(t, 22, last.Date.Day())
}

func TestChase_NegativePositiveAmounts(t *testing.T) {
	txns, _ := parseTestdata(t, Chase(), "chase_checking.csv")

	for _, txn := range txns {
		if txn.Description == "ACME CONSULTING INVOICE 1042" {
			assert.True(t, txn.Amount.IsPositive())
		} else {
			assert.True(t, txn.Amount.IsNegative(), "expected negative for %s", txn.Description)
		}
	}
}

func TestChase_EmptyFile(t *testing.T) {
	f, err := csvfile.Read(strings.NewReader("Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n"), csvfile.Options{})
	require.NoError(t, err)
	txns, skipped := Chase().Parse(f, zerolog.Nop())
	assert.Nil(t, txns)
	assert.Zero(t, skipped)
}

func TestChase_BadRowsSkipped(t *testing.T) {
	in := "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n" +
		"DEBIT,NOTADATE,desc,-4.00,ACH_DEBIT,100.00,\n" +
		"DEBIT,01/03/2025,desc,NOTANUMBER,ACH_DEBIT,100.00,\n" +
		"DEBIT,01/04/2025,good,-1.00,ACH_DEBIT,99.00,\n"
	f, err := csvfile.Read(strings.NewReader(in), csvfile.Options{})
	require.NoError(t, err)

	var logs strings.Builder
	txns, skipped := Chase().Parse(f, zerolog.New(&logs))
	require.Len(t, txns, 1)
	assert.Equal(t, "good", txns[0].Description)
	assert.Equal(t, 2, skipped)
	assert.Contains(t, logs.String(), `parsing date \"NOTADATE\"`)
	assert.Contains(t, logs.String(), `parsing amount \"NOTANUMBER\"`)
	assert.Contains(t, logs.String(), `"line":3`)
}

func TestAlly_Parse(t *testing.T) {
	a := Ally()
	txns, skipped := parseTestdata(t, a, "ally.csv")
	assert.Equal(t, 2, skipped)
	require.Len(t, txns, 2)

	assert.Equal(t, "-42.10", txns[0].Amount.StringFixed(2))
	assert.Equal(t, "1200.00", txns[1].Amount.StringFixed(2))
	assert.Equal(t, "Ally Bank", txns[0].AccountNumber)
	assert.Equal(t, "Ally", a.AccountName(readTestdata(t, a, "ally.csv")))
}

func TestCapitalOne_Parse(t *testing.T) {
	txns, skipped := parseTestdata(t, CapitalOne(), "capitalone.csv")
	assert.Zero(t, skipped)
	require.Len(t, txns, 2)

	assert.Equal(t, "-19.99", txns[0].Amount.StringFixed(2))
	assert.Equal(t, "500.00", txns[1].Amount.StringFixed(2))
	assert.Equal(t, "9876", txns[0].AccountNumber)
	assert.Equal(t, "Digital Card Purchase - AMZN Mktp US", txns[0].Description)
}

func TestVenmo_Parse(t *testing.T) {
	a := Venmo()
	f := readTestdata(t, a, "venmo.csv")
	assert.Equal(t, "@jane_doe", a.AccountName(f))

	txns, skipped := a.Parse(f, zerolog.Nop())
	assert.Zero(t, skipped)
	require.Len(t, txns, 2)
	assert.Equal(t, "Pizza night", txns[0].Description)
	assert.Equal(t, "-10.00", txns[0].Amount.StringFixed(2))
	assert.Equal(t, "1250.00", txns[1].Amount.StringFixed(2))
	assert.Equal(t, 1, txns[0].Date.Day())
	assert.Zero(t, txns[0].Date.Hour())
}

func TestVenmo_AccountWithoutUsername(t *testing.T) {
	in := "Account Statement,,\nAccount Activity,,\nDatetime,Type,Note,From,To,Amount (total)\n"
	f, err := csvfile.Read(strings.NewReader(in), csvfile.Options{SkipLines: 2})
	require.NoError(t, err)
	assert.Equal(t, "Venmo", Venmo().AccountName(f))
}

func TestAdapter_MissingColumns(t *testing.T) {
	_, err := Chase().Read(filepath.Join("testdata", "ally.csv"))
	var missing *csvfile.MissingColumnsError
	require.True(t, errors.As(err, &missing))
	assert.Contains(t, missing.Missing, "Posting Date")
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"-4.00", "-4", false},
		{"$1,250.00", "1250", false},
		{"- $10.00", "-10", false},
		{"+ $1,250.00", "1250", false},
		{"(12.50)", "-12.5", false},
		{" 3 ", "3", false},
		{"", "", true},
		{"$", "", true},
		{"abc", "", true},
	}
	for _, tt := range tests {
		got, err := parseMoney(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.String(), tt.in)
	}
}

func TestAmountByType(t *testing.T) {
	d, err := amountByType("19.99", "debit")
	require.NoError(t, err)
	assert.Equal(t, "-19.99", d.String())

	d, err = amountByType("-500", "credit")
	require.NoError(t, err)
	assert.Equal(t, "500", d.String())

	d, err = amountByType("-7", "fee")
	require.NoError(t, err)
	assert.Equal(t, "-7", d.String())
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"ally", "capitalone", "chase", "venmo"}, r.Names())
	assert.NotNil(t, r.Get("CHASE"))
	assert.Nil(t, r.Get("bofa"))

	_, err := r.Lookup("bofa")
	assert.ErrorIs(t, err, ErrUnknownBank)
	assert.Contains(t, err.Error(), "ally, capitalone, chase, venmo")

	assert.Panics(t, func() { r.Register(Chase()) })
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	importDir := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(filepath.Join(importDir, ProcessedDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "b.csv"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "A.CSV"), []byte("xy"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "notes.txt"), []byte("x"), 0o644))

	files, err := Scan(importDir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "A.CSV", files[0].Name)
	assert.Equal(t, int64(2), files[0].Size)
	assert.Equal(t, "b.csv", files[1].Name)
}

func TestScan_MissingDir(t *testing.T) {
	files, err := Scan(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.csv"), []byte("data"), 0o644))

	require.NoError(t, MarkProcessed(dir, "x.csv"))

	_, err := os.Stat(filepath.Join(dir, "x.csv"))
	assert.True(t, os.IsNotExist(err))
	data, err := os.ReadFile(filepath.Join(dir, ProcessedDir, "x.csv"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}
