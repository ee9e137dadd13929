package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction represents one parsed bank CSV row, normalized by an
// institution adapter.
type BankTransaction struct {
	Date          time.Time
	Description   string          // raw description as exported by the bank
	Amount        decimal.Decimal // negative = outflow, positive = inflow
	Type          string          // bank transaction type (DEBIT, ACH_DEBIT, etc.)
	AccountNumber string
	CheckNumber   string
	Row           int // 1-based line number in the source CSV
}
