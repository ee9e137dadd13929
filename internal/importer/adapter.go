package importer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cashsync-dev/cashsync/internal/csvfile"
	"github.com/cashsync-dev/cashsync/internal/model"
)

// Columns names the source CSV column for each normalized field. Empty
// names are not read.
type Columns struct {
	Date          string
	Description   string
	Amount        string
	Type          string
	AccountNumber string
	CheckNumber   string
}

// Adapter describes one bank's CSV export.
type Adapter struct {
	Name                 string // registry key, e.g. "chase"
	Institution          string // written to the Institution column
	Account              string // written to the Account column
	DefaultAccountNumber string // Account # when the export has none
	Expected             []string
	Columns              Columns
	SkipLines            int // preamble lines before the header

	// AccountFromPreamble derives the account name from the preamble
	// lines. An empty result keeps Account.
	AccountFromPreamble func(preamble []string) string

	// ParseAmount converts a raw amount to a signed value, negative for
	// money leaving the account. txnType is the lowercased type column.
	ParseAmount func(raw, txnType string) (decimal.Decimal, error)
}

// Read reads a CSV export and checks it has the expected columns.
func (a *Adapter) Read(path string) (*csvfile.File, error) {
	f, err := csvfile.ReadFile(path, csvfile.Options{SkipLines: a.SkipLines})
	if err != nil {
		return nil, err
	}
	if err := f.Require(a.Expected); err != nil {
		return nil, err
	}
	return f, nil
}

// AccountName returns the Account label for transactions in f.
func (a *Adapter) AccountName(f *csvfile.File) string {
	if a.AccountFromPreamble != nil {
		if name := a.AccountFromPreamble(f.Preamble); name != "" {
			return name
		}
	}
	return a.Account
}

// Parse converts the rows of f into transactions. Rows whose date or amount
// cannot be parsed are logged and counted as skipped.
func (a *Adapter) Parse(f *csvfile.File, log zerolog.Logger) ([]model.BankTransaction, int) {
	var (
		txns    []model.BankTransaction
		skipped int
	)
	for _, row := range f.Rows {
		txn, err := a.parseRow(row)
		if errors.Is(err, errSummaryRow) {
			log.Debug().Int("line", row.Line).Msg("ignoring row without a date")
			continue
		}
		if err != nil {
			log.Warn().Err(err).Int("line", row.Line).Msg("skipping CSV row")
			skipped++
			continue
		}
		txns = append(txns, txn)
	}
	return txns, skipped
}

// errSummaryRow marks rows without a date, such as statement footers and
// balance summaries. They are dropped without a warning.
var errSummaryRow = errors.New("summary row")

func (a *Adapter) parseRow(row csvfile.Row) (model.BankTransaction, error) {
	rawDate := row.Get(a.Columns.Date)
	rawAmount := row.Get(a.Columns.Amount)
	if rawDate == "" {
		return model.BankTransaction{}, errSummaryRow
	}

	date, ok := model.ParseDate(rawDate)
	if !ok {
		return model.BankTransaction{}, fmt.Errorf("parsing date %q", rawDate)
	}

	txnType := row.Get(a.Columns.Type)
	parse := a.ParseAmount
	if parse == nil {
		parse = signedAmount
	}
	amount, err := parse(rawAmount, strings.ToLower(txnType))
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing amount %q: %w", rawAmount, err)
	}

	acct := a.DefaultAccountNumber
	if v := row.Get(a.Columns.AccountNumber); v != "" {
		acct = v
	}

	return model.BankTransaction{
		Date:          model.DateOf(date),
		Description:   row.Get(a.Columns.Description),
		Amount:        amount,
		Type:          txnType,
		AccountNumber: acct,
		CheckNumber:   row.Get(a.Columns.CheckNumber),
		Row:           row.Line,
	}, nil
}

// parseMoney parses amounts such as "-$1,250.00", "+ $3.50" or "(12.00)".
func parseMoney(raw string) (decimal.Decimal, error) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ', '\u00a0':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		d = d.Abs().Neg()
	}
	return d, nil
}

// signedAmount reads amounts that already carry their sign.
func signedAmount(raw, _ string) (decimal.Decimal, error) {
	return parseMoney(raw)
}

// amountByType signs the amount from the transaction type: debits are
// negative and credits positive. Other types keep the exported sign.
func amountByType(raw, txnType string) (decimal.Decimal, error) {
	d, err := parseMoney(raw)
	if err != nil {
		return decimal.Zero, err
	}
	switch {
	case strings.Contains(txnType, "debit"):
		return d.Abs().Neg(), nil
	case strings.Contains(txnType, "credit"):
		return d.Abs(), nil
	}
	return d, nil
}
