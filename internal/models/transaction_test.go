package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseAmountCoercesGarbage(t *testing.T) {
	assert.True(t, decimal.NewFromFloat(1250).Equal(ParseAmount("₹1,250.00")))
	assert.True(t, decimal.Zero.Equal(ParseAmount("")))
	assert.True(t, decimal.Zero.Equal(ParseAmount("garbled ocr")))
}

func TestFlowPredicates(t *testing.T) {
	withdrawal := Transaction{Withdrawal: decimal.NewFromInt(100)}
	deposit := Transaction{Deposit: decimal.NewFromInt(100)}

	assert.True(t, withdrawal.IsWithdrawal())
	assert.False(t, withdrawal.IsDeposit())
	assert.True(t, deposit.IsDeposit())
	assert.False(t, deposit.IsWithdrawal())
}

func TestNextClosingBalance(t *testing.T) {
	tests := []struct {
		name     string
		previous string
		txn      Transaction
		expected string
	}{
		{
			name:     "Withdrawal from zero",
			previous: "0",
			txn:      Transaction{Withdrawal: decimal.RequireFromString("1250.00")},
			expected: "-1250.00",
		},
		{
			name:     "Deposit on top of balance",
			previous: "48800.00",
			txn:      Transaction{Deposit: decimal.RequireFromString("500.00")},
			expected: "49300.00",
		},
		{
			name:     "Withdrawal and deposit together",
			previous: "100.00",
			txn: Transaction{
				Withdrawal: decimal.RequireFromString("30.00"),
				Deposit:    decimal.RequireFromString("10.00"),
			},
			expected: "80.00",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			previous := decimal.RequireFromString(tc.previous)
			result := tc.txn.NextClosingBalance(previous)
			assert.True(t, decimal.RequireFromString(tc.expected).Equal(result),
				"expected %s got %s", tc.expected, result)
		})
	}
}

func TestIsKnownCategory(t *testing.T) {
	assert.True(t, IsKnownCategory(CategoryGroceries))
	assert.True(t, IsKnownCategory(CategoryBusiness))
	assert.True(t, IsKnownCategory(CategoryUncategorized))
	assert.False(t, IsKnownCategory("Entertainment"))
	assert.False(t, IsKnownCategory(""))
}

func TestReceiptCategoriesExtendStatementCategories(t *testing.T) {
	assert.Len(t, ReceiptCategories, len(StatementCategories)+1)
	assert.Contains(t, ReceiptCategories, CategoryBusiness)
	assert.NotContains(t, StatementCategories, CategoryBusiness)
}
