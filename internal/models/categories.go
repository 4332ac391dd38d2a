package models

// The fixed spending taxonomy. The classifier may only ever answer with
// one of these; anything else degrades to CategoryUncategorized.
const (
	CategoryGroceries         = "Groceries"
	CategoryShopping          = "Shopping"
	CategoryPersonalTransfers = "Personal Transfers"
	CategoryEMIAndLoans       = "EMI & Loans"
	CategoryTravelTransport   = "Travel & Transport"
	CategoryBillPayments      = "Bill Payments"
	CategoryCashTransactions  = "Cash Transactions"
	CategoryRewardsCashback   = "Rewards & Cashback"
	CategoryBusiness          = "Business"
	CategoryUncategorized     = "Uncategorized"
)

// StatementCategories are the categories offered for bank-statement
// narrations.
var StatementCategories = []string{
	CategoryGroceries,
	CategoryShopping,
	CategoryPersonalTransfers,
	CategoryEMIAndLoans,
	CategoryTravelTransport,
	CategoryBillPayments,
	CategoryCashTransactions,
	CategoryRewardsCashback,
}

// ReceiptCategories additionally offer Business, which only makes sense
// for point-of-sale receipts.
var ReceiptCategories = append(append([]string{}, StatementCategories...), CategoryBusiness)

// IsKnownCategory reports whether s is a taxonomy member, including the
// Uncategorized fallback.
func IsKnownCategory(s string) bool {
	if s == CategoryUncategorized {
		return true
	}
	for _, category := range ReceiptCategories {
		if s == category {
			return true
		}
	}
	return false
}

// Flow directions for receipt-derived transactions.
const (
	FlowPaid     = "paid"
	FlowReceived = "received"
)
