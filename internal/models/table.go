package models

// Cell is one populated position of a detected table. The detection
// service returns cells sparsely; unpopulated positions are implied empty.
type Cell struct {
	RowIndex    int
	ColumnIndex int
	Content     string
}

// Table is one table detected in a document by the layout service.
type Table struct {
	RowCount    int
	ColumnCount int
	Cells       []Cell
}

// StatementRow is one retained transaction row of a normalized
// statement table, still in its raw textual form. Amounts and dates are
// parsed later, when the row becomes a Transaction.
type StatementRow struct {
	Date       string
	Narration  string
	Withdrawal string
	Deposit    string
	Balance    string
}

// ReceiptFields is the field map the receipt-analysis service extracts
// from a point-of-sale receipt. Any field may be empty when the service
// could not read it.
type ReceiptFields struct {
	MerchantName    string
	TransactionDate string
	Total           string
}
