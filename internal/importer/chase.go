package importer

// Chase checking export columns.
const (
	chaseColDetails = "Details"
	chaseColDate    = "Posting Date"
	chaseColDesc    = "Description"
	chaseColAmount  = "Amount"
	chaseColType    = "Type"
	chaseColBalance = "Balance"
	chaseColCheck   = "Check or Slip #"
)

// Chase parses Chase bank checking CSV exports. Amounts are signed.
func Chase() *Adapter {
	return &Adapter{
		Name:        "chase",
		Institution: "Chase",
		Account:     "Chase",
		Expected: []string{
			chaseColDetails, chaseColDate, chaseColDesc, chaseColAmount,
			chaseColType, chaseColBalance, chaseColCheck,
		},
		Columns: Columns{
			Date:        chaseColDate,
			Description: chaseColDesc,
			Amount:      chaseColAmount,
			Type:        chaseColType,
			CheckNumber: chaseColCheck,
		},
		ParseAmount: signedAmount,
	}
}
