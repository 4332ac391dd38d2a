package classifier

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finsight/backend/internal/models"
)

const systemInstruction = "You are a financial transaction classifier."

// buildNarrationPrompt builds the deterministic classification prompt
// for a cleaned bank-statement narration. The remote service must answer
// with the bare category name only.
func buildNarrationPrompt(keywords string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze and classify this financial transaction: '%s'.\n", keywords)
	sb.WriteString("Forcefully categorize it into one of the following categories:\n")
	for _, category := range models.StatementCategories {
		fmt.Fprintf(&sb, "- %s\n", category)
	}
	sb.WriteString("If you are unsure, pick the closest category instead of 'Uncategorized'.\n")
	sb.WriteString("Return only the category name, nothing else. No markup.")
	return sb.String()
}

// buildReceiptPrompt builds the classification prompt for a receipt
// merchant and total. The receipt taxonomy additionally offers Business.
func buildReceiptPrompt(merchant string, amount decimal.Decimal) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Classify this point-of-sale transaction: merchant '%s', amount %s.\n",
		merchant, amount.StringFixed(2))
	sb.WriteString("Forcefully categorize it into one of the following categories:\n")
	for _, category := range models.ReceiptCategories {
		fmt.Fprintf(&sb, "- %s\n", category)
	}
	sb.WriteString("If you are unsure, pick the closest category instead of 'Uncategorized'.\n")
	sb.WriteString("Return only the category name, nothing else. No markup.")
	return sb.String()
}
