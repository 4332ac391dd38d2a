// Package currencyutils provides common amount parsing and formatting
// operations used throughout the application.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var symbolPattern = regexp.MustCompile(`[₹€$£¥\s]|Rs\.?|INR`)

// ParseAmount parses a string representation of an amount into a decimal
// value. It handles statement and receipt formats like "1,250.00",
// "₹1,250.00", "Rs. 48,800.00" and plain "1200". Empty strings parse to
// zero; anything else unparseable is an error.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	if strings.TrimSpace(amountStr) == "" {
		return decimal.Zero, nil
	}

	standardized := StandardizeAmount(amountStr)

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}

	return amount, nil
}

// StandardizeAmount strips currency glyphs, codes and thousands
// separators so the result can be handed to decimal.NewFromString.
// Handles "₹1,250.00", "1,23,456.78" (Indian digit grouping), "1'234.56".
func StandardizeAmount(amountStr string) string {
	amountStr = symbolPattern.ReplaceAllString(amountStr, "")

	// Commas only ever appear as digit-group separators in statement data;
	// the decimal separator is always a dot.
	amountStr = strings.ReplaceAll(amountStr, ",", "")

	// Apostrophes as thousands separators (1'234.56).
	amountStr = strings.ReplaceAll(amountStr, "'", "")

	return strings.TrimSpace(amountStr)
}

// ParseAmountOrZero parses an amount and coerces blanks and garbage to
// zero. Ledger columns extracted from OCR output go through this so a
// garbled cell never aborts a whole statement.
func ParseAmountOrZero(amountStr string) decimal.Decimal {
	amount, err := ParseAmount(amountStr)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// FormatAmount formats a decimal with two decimal places and no
// thousands separators, the way ledger files store numeric columns.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// IsNegative checks if an amount is negative.
func IsNegative(amount decimal.Decimal) bool {
	return amount.LessThan(decimal.Zero)
}
