package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/backend/internal/apperrors"
	"finsight/backend/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), nil)
}

func TestLoadMissingPeriod(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("february-2025")

	var notFound *apperrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "february-2025", notFound.PeriodKey)
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	transactions := []models.Transaction{
		{
			Date:           "01/01/25",
			Narration:      "Grocery Mart",
			Withdrawal:     decimal.RequireFromString("1200.00"),
			ClosingBalance: decimal.RequireFromString("48800.00"),
			Category:       models.CategoryGroceries,
		},
		{
			Date:           "02/01/25",
			Narration:      "Salary credit",
			Deposit:        decimal.RequireFromString("50000.00"),
			ClosingBalance: decimal.RequireFromString("98800.00"),
			Category:       models.CategoryPersonalTransfers,
		},
	}

	require.NoError(t, store.Write("january-2025", transactions))

	loaded, err := store.Load("january-2025")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "Grocery Mart", loaded[0].Narration)
	assert.True(t, decimal.RequireFromString("1200.00").Equal(loaded[0].Withdrawal))
	// The full-period write stores balances verbatim.
	assert.True(t, decimal.RequireFromString("48800.00").Equal(loaded[0].ClosingBalance))
	assert.Equal(t, models.CategoryGroceries, loaded[0].Category)
	assert.Equal(t, "Salary credit", loaded[1].Narration)
}

func TestWriteColumnOrder(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	require.NoError(t, store.Write("january-2025", []models.Transaction{
		{Date: "01/01/25", Narration: "Grocery Mart", Category: models.CategoryGroceries},
	}))

	data, err := os.ReadFile(filepath.Join(store.dir, "january-2025.csv"))
	require.NoError(t, err)

	header := strings.SplitN(string(data), "\n", 2)[0]
	assert.Equal(t, "Date,Narration,Withdrawal Amt.,Deposit Amt.,Closing Balance,Category", strings.TrimRight(header, "\r"))
}

func TestLoadToleratesLegacyFormatting(t *testing.T) {
	store := newTestStore(t)

	// Files written by earlier versions carry statement cells verbatim,
	// thousands separators and currency glyphs included.
	raw := "Date,Narration,Withdrawal Amt.,Deposit Amt.,Closing Balance,Category\n" +
		"01/01/25,Grocery Mart,\"1,200.00\",,\"₹48,800.00\",Groceries\n" +
		"02/01/25,Salary credit,,\"Rs. 50,000.00\",,Personal Transfers\n" +
		"03/01/25,Garbled row,not-a-number,,--,Uncategorized\n"
	require.NoError(t, os.MkdirAll(store.dir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, "january-2025.csv"), []byte(raw), 0644))

	loaded, err := store.Load("january-2025")
	require.NoError(t, err)
	require.Len(t, loaded, 3)

	assert.True(t, decimal.RequireFromString("1200.00").Equal(loaded[0].Withdrawal))
	assert.True(t, loaded[0].Deposit.IsZero())
	assert.True(t, decimal.RequireFromString("48800.00").Equal(loaded[0].ClosingBalance))
	assert.True(t, decimal.RequireFromString("50000.00").Equal(loaded[1].Deposit))
	assert.True(t, loaded[1].ClosingBalance.IsZero())
	assert.True(t, loaded[2].Withdrawal.IsZero())
	assert.True(t, loaded[2].ClosingBalance.IsZero())
}

func TestAppendContinuesFromLegacyFormattedBalance(t *testing.T) {
	store := newTestStore(t)

	raw := "Date,Narration,Withdrawal Amt.,Deposit Amt.,Closing Balance,Category\n" +
		"01/01/25,Grocery Mart,\"1,200.00\",,\"₹48,800.00\",Groceries\n"
	require.NoError(t, os.MkdirAll(store.dir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, "january-2025.csv"), []byte(raw), 0644))

	require.NoError(t, store.Append("january-2025", []models.Transaction{{
		Date: "10/01/25", Narration: "Cafe X",
		Withdrawal: decimal.RequireFromString("800.00"),
	}}))

	loaded, err := store.Load("january-2025")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.True(t, decimal.RequireFromString("48000.00").Equal(loaded[1].ClosingBalance),
		"got %s", loaded[1].ClosingBalance)
}

func TestWriteEmitsPlainTwoDecimalCells(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Write("january-2025", []models.Transaction{{
		Date: "01/01/25", Narration: "Grocery Mart",
		Withdrawal:     decimal.RequireFromString("1200.5"),
		ClosingBalance: decimal.RequireFromString("48800"),
		Category:       models.CategoryGroceries,
	}}))

	data, err := os.ReadFile(filepath.Join(store.dir, "january-2025.csv"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "01/01/25,Grocery Mart,1200.50,0.00,48800.00,Groceries", strings.TrimRight(lines[1], "\r"))
}

func TestAppendToEmptyPeriod(t *testing.T) {
	store := newTestStore(t)

	err := store.Append("february-2025", []models.Transaction{{
		Date:       "05/02/25",
		Narration:  "Cafe X",
		Withdrawal: decimal.RequireFromString("1250.00"),
		Category:   models.CategoryGroceries,
	}})
	require.NoError(t, err)

	loaded, err := store.Load("february-2025")
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	// First transaction of a fresh ledger starts from a zero balance.
	assert.True(t, decimal.RequireFromString("-1250.00").Equal(loaded[0].ClosingBalance),
		"got %s", loaded[0].ClosingBalance)
	assert.True(t, loaded[0].Deposit.IsZero())
}

func TestAppendReconstructsBalanceTransitively(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Append("february-2025", []models.Transaction{{
		Date: "05/02/25", Narration: "Cafe X",
		Withdrawal: decimal.RequireFromString("1250.00"),
	}}))
	require.NoError(t, store.Append("february-2025", []models.Transaction{{
		Date: "06/02/25", Narration: "Refund",
		Deposit: decimal.RequireFromString("2000.00"),
	}}))
	require.NoError(t, store.Append("february-2025", []models.Transaction{{
		Date: "07/02/25", Narration: "Metro Card",
		Withdrawal: decimal.RequireFromString("300.00"),
	}}))

	loaded, err := store.Load("february-2025")
	require.NoError(t, err)
	require.Len(t, loaded, 3)

	previous := decimal.Zero
	for i, transaction := range loaded {
		expected := previous.Sub(transaction.Withdrawal).Add(transaction.Deposit)
		assert.True(t, expected.Equal(transaction.ClosingBalance), "row %d: expected %s got %s",
			i, expected, transaction.ClosingBalance)
		previous = transaction.ClosingBalance
	}
	assert.True(t, decimal.RequireFromString("450.00").Equal(loaded[2].ClosingBalance))
}

func TestAppendContinuesFromStatementBalance(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Write("january-2025", []models.Transaction{{
		Date: "01/01/25", Narration: "Grocery Mart",
		Withdrawal:     decimal.RequireFromString("1200.00"),
		ClosingBalance: decimal.RequireFromString("48800.00"),
	}}))

	require.NoError(t, store.Append("january-2025", []models.Transaction{{
		Date: "10/01/25", Narration: "Cafe X",
		Withdrawal: decimal.RequireFromString("800.00"),
	}}))

	loaded, err := store.Load("january-2025")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.True(t, decimal.RequireFromString("48000.00").Equal(loaded[1].ClosingBalance),
		"got %s", loaded[1].ClosingBalance)
}

func TestAppendNothing(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Append("january-2025", nil))
	assert.False(t, store.Exists("january-2025"))
}

func TestPeriods(t *testing.T) {
	store := newTestStore(t)

	periods, err := store.Periods()
	require.NoError(t, err)
	assert.Empty(t, periods)

	require.NoError(t, store.Write("january-2025", []models.Transaction{{Narration: "a"}}))
	require.NoError(t, store.Write("february-2025", []models.Transaction{{Narration: "b"}}))

	periods, err = store.Periods()
	require.NoError(t, err)
	assert.Equal(t, []string{"february-2025", "january-2025"}, periods)
}

func TestPeriodsMissingDirectory(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing"), nil)
	periods, err := store.Periods()
	require.NoError(t, err)
	assert.Empty(t, periods)
}
