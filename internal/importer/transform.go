package importer

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/cashsync-dev/cashsync/internal/model"
)

// Source identifies where a batch of transactions came from.
type Source struct {
	Institution   string
	Account       string
	AccountNumber string // overrides each transaction's account number when set
}

// Transform builds ledger records for txns holding exactly columns. Values
// for columns the importer does not fill are "".
func Transform(txns []model.BankTransaction, src Source, columns []string, now time.Time) []model.Record {
	added := model.DateOf(now)
	out := make([]model.Record, 0, len(txns))
	for _, txn := range txns {
		full := record(txn, src, added)
		rec := make(model.Record, len(columns))
		for _, col := range columns {
			if v, ok := full[col]; ok {
				rec[col] = v
			} else {
				rec[col] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

func record(txn model.BankTransaction, src Source, added time.Time) model.Record {
	date := model.DateOf(txn.Date)
	acct := txn.AccountNumber
	if src.AccountNumber != "" {
		acct = src.AccountNumber
	}
	return model.Record{
		model.ColDate:            date,
		model.ColDescription:     CleanDescription(txn.Description),
		model.ColCategory:        "",
		model.ColAmount:          txn.Amount,
		model.ColAccount:         src.Account,
		model.ColAccountNumber:   acct,
		model.ColInstitution:     src.Institution,
		model.ColYear:            time.Date(date.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
		model.ColMonth:           time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC),
		model.ColWeek:            WeekStart(date),
		model.ColCheckNumber:     txn.CheckNumber,
		model.ColFullDescription: txn.Description,
		model.ColDateAdded:       added,
	}
}

// WeekStart returns the Sunday starting the week of t.
func WeekStart(t time.Time) time.Time {
	d := model.DateOf(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

var (
	bankPrefixes = []string{
		"Digital Card Purchase - ",
		"Debit Card Purchase - ",
		"Credit Card Purchase - ",
		"Card Purchase - ",
		"Purchase - ",
	}
	processorPrefixes = []string{
		"TST* ", "TST ",
		"SQ* ", "SQ ",
		"SP* ", "SP ",
		"PP* ", "PP ",
		"PAYPAL* ", "PAYPAL ",
		"AMZN* ", "AMZN ",
		"UBER* ", "UBER ",
		"LYFT* ", "LYFT ",
	}

	storeNumber = regexp.MustCompile(`\s*#\d+\s*`)
	storeID     = regexp.MustCompile(`\s+\d{4,6}\s+`)
)

// CleanDescription turns a raw bank description into a readable payee:
// card-purchase and payment-processor prefixes are removed, store numbers
// dropped and each word title-cased.
//
//	"Debit Card Purchase - STARBUCKS COFFEE #1234" -> "Starbucks Coffee"
func CleanDescription(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	for _, p := range bankPrefixes {
		if strings.HasPrefix(s, p) {
			s = s[len(p):]
			break
		}
	}
	for _, p := range processorPrefixes {
		if len(s) >= len(p) && strings.EqualFold(s[:len(p)], p) {
			s = s[len(p):]
			break
		}
	}

	s = storeNumber.ReplaceAllString(s, " ")
	s = storeID.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	runes := []rune(strings.ToLower(w))
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}
