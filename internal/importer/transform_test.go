package importer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashsync-dev/cashsync/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Debit Card Purchase - STARBUCKS COFFEE #1234", "Starbucks Coffee"},
		{"Digital Card Purchase - TST* COFFEE SHOP #123", "Coffee Shop"},
		{"SQ* BURGER JOINT", "Burger Joint"},
		{"sq *not a prefix", "*not A Prefix"},
		{"paypal *SPOTIFY", "*spotify"},
		{"AMZN Mktp US", "Mktp Us"},
		{"AWS SERVICES 123456 SEATTLE", "Aws Services Seattle"},
		{"ACME CONSULTING INVOICE 1042", "Acme Consulting Invoice 1042"},
		{"Purchase - SHELL   OIL  12345  AUSTIN", "Shell Oil Austin"},
		{"card purchase - lowercase prefix stays", "Card Purchase - Lowercase Prefix Stays"},
		{"   ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanDescription(tt.in), tt.in)
	}
}

func TestWeekStart(t *testing.T) {
	assert.Equal(t, date(2023, 1, 15), WeekStart(date(2023, 1, 15)))
	assert.Equal(t, date(2023, 1, 15), WeekStart(date(2023, 1, 18)))
	assert.Equal(t, date(2023, 1, 15), WeekStart(date(2023, 1, 21)))
	assert.Equal(t, date(2022, 12, 25), WeekStart(date(2022, 12, 31)))
}

func TestTransform(t *testing.T) {
	txns := []model.BankTransaction{{
		Date:          time.Date(2024, 3, 6, 14, 30, 0, 0, time.UTC),
		Description:   "Debit Card Purchase - TRADER JOES #552",
		Amount:        decimal.RequireFromString("-42.10"),
		AccountNumber: "1111",
		CheckNumber:   "",
	}}
	src := Source{Institution: "Ally Bank", Account: "Ally"}
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.Local)

	recs := Transform(txns, src, model.DefaultColumns, now)
	require.Len(t, recs, 1)
	rec := recs[0]

	assert.Len(t, rec, len(model.DefaultColumns))
	assert.Equal(t, date(2024, 3, 6), rec[model.ColDate])
	assert.Equal(t, "Trader Joes", rec[model.ColDescription])
	assert.Equal(t, "", rec[model.ColCategory])
	assert.True(t, decimal.RequireFromString("-42.10").Equal(rec[model.ColAmount].(decimal.Decimal)))
	assert.Equal(t, "Ally", rec[model.ColAccount])
	assert.Equal(t, "1111", rec[model.ColAccountNumber])
	assert.Equal(t, "Ally Bank", rec[model.ColInstitution])
	assert.Equal(t, date(2024, 1, 1), rec[model.ColYear])
	assert.Equal(t, date(2024, 3, 1), rec[model.ColMonth])
	assert.Equal(t, date(2024, 3, 3), rec[model.ColWeek])
	assert.Equal(t, "", rec[model.ColCheckNumber])
	assert.Equal(t, "Debit Card Purchase - TRADER JOES #552", rec[model.ColFullDescription])
	assert.Equal(t, date(2024, 3, 10), rec[model.ColDateAdded])
	assert.True(t, rec.IsUncategorized())
}

func TestTransform_OnlyLedgerColumns(t *testing.T) {
	txns := []model.BankTransaction{{Date: date(2024, 1, 2), Description: "X", Amount: decimal.NewFromInt(1)}}
	src := Source{Institution: "Chase", Account: "Chase", AccountNumber: "override"}

	recs := Transform(txns, src, []string{"Date", "Amount", "Account #", "Notes"}, date(2024, 1, 3))
	require.Len(t, recs, 1)
	assert.Equal(t, model.Record{
		"Date":      date(2024, 1, 2),
		"Amount":    decimal.NewFromInt(1),
		"Account #": "override",
		"Notes":     "",
	}, recs[0])
}
