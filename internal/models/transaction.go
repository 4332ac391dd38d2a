// Package models provides the data structures used throughout the application.
package models

import (
	"github.com/shopspring/decimal"

	"finsight/backend/internal/apperrors"
	"finsight/backend/internal/currencyutils"
	"finsight/backend/internal/logging"
)

// Transaction is one row of a period ledger. A transaction is immutable
// once classified; ledgers grow only by appending new transactions.
type Transaction struct {
	Date           string          `csv:"Date"`            // DD/MM/YY
	Narration      string          `csv:"Narration"`       // Free-text description, the classification signal
	Withdrawal     decimal.Decimal `csv:"Withdrawal Amt."` // Non-negative, zero if not a withdrawal
	Deposit        decimal.Decimal `csv:"Deposit Amt."`    // Non-negative, zero if not a deposit
	ClosingBalance decimal.Decimal `csv:"Closing Balance"` // Running balance after this transaction, signed
	Category       string          `csv:"Category"`        // One of the taxonomy, or Uncategorized
}

// ParseAmount converts a ledger amount cell to a decimal. Blank or
// unparseable cells become zero; OCR output is too noisy to treat a
// garbled amount as fatal.
func ParseAmount(s string) decimal.Decimal {
	d, err := currencyutils.ParseAmount(s)
	if err != nil {
		logging.GetLogger().WithError(&apperrors.ParseError{
			Field: "amount",
			Value: s,
			Err:   err,
		}).Debug("Coerced unparseable amount cell to zero")
		return decimal.Zero
	}
	return d
}

// IsWithdrawal reports whether the transaction moves money out.
func (t *Transaction) IsWithdrawal() bool {
	return t.Withdrawal.GreaterThan(decimal.Zero)
}

// IsDeposit reports whether the transaction moves money in.
func (t *Transaction) IsDeposit() bool {
	return t.Deposit.GreaterThan(decimal.Zero)
}

// NextClosingBalance computes the running balance after applying this
// transaction on top of the previous closing balance.
func (t *Transaction) NextClosingBalance(previous decimal.Decimal) decimal.Decimal {
	return previous.Sub(t.Withdrawal).Add(t.Deposit)
}
