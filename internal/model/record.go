package model

// Ledger column names used by the import and categorization pipelines.
const (
	ColDate            = "Date"
	ColDescription     = "Description"
	ColCategory        = "Category"
	ColAmount          = "Amount"
	ColAccount         = "Account"
	ColAccountNumber   = "Account #"
	ColInstitution     = "Institution"
	ColYear            = "Year"
	ColMonth           = "Month"
	ColWeek            = "Week"
	ColCheckNumber     = "Check Number"
	ColFullDescription = "Full Description"
	ColDateAdded       = "Date Added"
)

// DefaultColumns is the column set of the stock ledger template.
var DefaultColumns = []string{
	ColDate, ColDescription, ColCategory, ColAmount, ColAccount, ColAccountNumber,
	ColInstitution, ColYear, ColMonth, ColWeek, ColCheckNumber, ColFullDescription,
	ColDateAdded,
}

// Record is one ledger row keyed by column name.
//
// Values are one of nil, string, float64, int, bool, decimal.Decimal or
// time.Time. A nil value is an empty cell.
type Record map[string]any

// Value returns the value stored under column and whether it is present and
// not NA.
func (r Record) Value(column string) (any, bool) {
	v, ok := r[column]
	if !ok || IsNA(v) {
		return nil, false
	}
	return v, true
}

// IsUncategorized reports whether the Category cell is missing or empty.
func (r Record) IsUncategorized() bool {
	v, ok := r.Value(ColCategory)
	if !ok {
		return true
	}
	s, isStr := v.(string)
	return isStr && s == ""
}
