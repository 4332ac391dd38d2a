package tables

import "strings"

// Schema maps semantic transaction fields to source-table column
// indices. It is resolved once per table, not guessed per row. A field
// index of -1 means the source table does not carry that field.
type Schema struct {
	Date       int
	Narration  int
	Withdrawal int
	Deposit    int
	Balance    int
	MinColumns int // minimum column count for a row to be a transaction
}

// DefaultSchema is the canonical bank-statement layout: date and
// narration up front, the running balance in the fifth column, the
// withdrawal and deposit amounts in the sixth and seventh.
var DefaultSchema = Schema{
	Date:       0,
	Narration:  1,
	Withdrawal: 5,
	Deposit:    6,
	Balance:    4,
	MinColumns: 7,
}

var headerTokens = []struct {
	token string
	field string
}{
	{"narration", "narration"},
	{"description", "narration"},
	{"particulars", "narration"},
	{"withdrawal", "withdrawal"},
	{"debit", "withdrawal"},
	{"deposit", "deposit"},
	{"credit", "deposit"},
	{"balance", "balance"},
	{"date", "date"},
}

// DetectSchema inspects a table's first row for header labels and
// builds a schema from them. It returns the schema and whether the row
// was a usable header. Tables without a recognizable header keep the
// default layout.
func DetectSchema(firstRow []string) (Schema, bool) {
	schema := Schema{Date: -1, Narration: -1, Withdrawal: -1, Deposit: -1, Balance: -1}

	for i, cell := range firstRow {
		switch fieldForLabel(cell) {
		case "date":
			if schema.Date < 0 {
				schema.Date = i
			}
		case "narration":
			if schema.Narration < 0 {
				schema.Narration = i
			}
		case "withdrawal":
			if schema.Withdrawal < 0 {
				schema.Withdrawal = i
			}
		case "deposit":
			if schema.Deposit < 0 {
				schema.Deposit = i
			}
		case "balance":
			if schema.Balance < 0 {
				schema.Balance = i
			}
		}
	}

	// A usable header must at least locate the date, narration and both
	// amount columns.
	if schema.Date < 0 || schema.Narration < 0 || schema.Withdrawal < 0 || schema.Deposit < 0 {
		return DefaultSchema, false
	}

	schema.MinColumns = maxFieldIndex(schema) + 1
	return schema, true
}

// fieldForLabel maps a header cell to a semantic field name, or "" when
// the cell is not a recognized label. "date" is matched last so labels
// like "Value Date" don't shadow more specific ones.
func fieldForLabel(cell string) string {
	label := strings.ToLower(strings.TrimSpace(cell))
	if label == "" {
		return ""
	}
	for _, ht := range headerTokens {
		if strings.Contains(label, ht.token) {
			return ht.field
		}
	}
	return ""
}

func maxFieldIndex(s Schema) int {
	max := s.Date
	for _, i := range []int{s.Narration, s.Withdrawal, s.Deposit, s.Balance} {
		if i > max {
			max = i
		}
	}
	return max
}
