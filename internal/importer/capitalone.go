package importer

// CapitalOne parses Capital One exports, which report unsigned amounts and
// carry the direction in the transaction type.
func CapitalOne() *Adapter {
	return &Adapter{
		Name:        "capitalone",
		Institution: "Capital One",
		Account:     "Capital One",
		Expected: []string{
			"Account Number", "Transaction Description", "Transaction Date",
			"Transaction Type", "Transaction Amount", "Balance",
		},
		Columns: Columns{
			Date:          "Transaction Date",
			Description:   "Transaction Description",
			Amount:        "Transaction Amount",
			Type:          "Transaction Type",
			AccountNumber: "Account Number",
		},
		ParseAmount: amountByType,
	}
}
