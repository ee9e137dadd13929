package importer

// Ally parses Ally Bank exports. Amounts are signed.
func Ally() *Adapter {
	return &Adapter{
		Name:                 "ally",
		Institution:          "Ally Bank",
		Account:              "Ally",
		DefaultAccountNumber: "Ally Bank",
		Expected:             []string{"Date", "Time", "Amount", "Type", "Description"},
		Columns: Columns{
			Date:        "Date",
			Description: "Description",
			Amount:      "Amount",
			Type:        "Type",
		},
		ParseAmount: signedAmount,
	}
}
