package importer

import "regexp"

var venmoUsername = regexp.MustCompile(`@\w+`)

// Venmo parses Venmo statements. The export starts with two preamble lines,
// the first naming the account holder as "@username".
func Venmo() *Adapter {
	return &Adapter{
		Name:        "venmo",
		Institution: "Venmo",
		Account:     "Venmo",
		SkipLines:   2,
		Expected:    []string{"Datetime", "Type", "Note", "From", "To", "Amount (total)"},
		Columns: Columns{
			Date:        "Datetime",
			Description: "Note",
			Amount:      "Amount (total)",
			Type:        "Type",
		},
		AccountFromPreamble: func(preamble []string) string {
			if len(preamble) == 0 {
				return ""
			}
			return venmoUsername.FindString(preamble[0])
		},
		ParseAmount: signedAmount,
	}
}
