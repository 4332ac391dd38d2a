package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"finsight/backend/internal/apperrors"
	"finsight/backend/internal/dateutils"
	"finsight/backend/internal/logging"
)

// Series names for the weekly split chart.
const (
	SeriesWithdrawal = "Withdrawal"
	SeriesSavings    = "Savings"
)

// WeeklyEntry is one bar of the weekly split chart.
type WeeklyEntry struct {
	Week   int     `json:"Week"`
	Type   string  `json:"Type"`
	Amount float64 `json:"Amount"`
}

// WeeklySplit is the per-week savings/expenses view of one period.
type WeeklySplit struct {
	MonthName      string        `json:"month_name"`
	WeeklySpending []WeeklyEntry `json:"weekly_spending"`
}

// WeeklySplit buckets one period's withdrawals into weeks of the month
// and estimates per-week savings against an even share of the assumed
// monthly income. Rows whose date does not parse are dropped.
func (e *Engine) WeeklySplit(periodKey string) (*WeeklySplit, error) {
	transactions, err := e.reader.Load(periodKey)
	if err != nil {
		return nil, err
	}

	withdrawals := make(map[int]decimal.Decimal)
	monthName := ""
	dropped := 0

	for _, t := range transactions {
		date, err := dateutils.ParseDate(t.Date)
		if err != nil {
			e.logger.WithError(&apperrors.ParseError{
				Field: "date",
				Value: t.Date,
				Err:   err,
			}).Debug("Skipping row with unparseable date")
			dropped++
			continue
		}
		if monthName == "" {
			monthName = date.Month().String()
		}
		week := dateutils.WeekOfMonth(date)
		withdrawals[week] = withdrawals[week].Add(t.Withdrawal)
	}

	if dropped > 0 {
		e.logger.WithFields(
			logging.Field{Key: "period", Value: periodKey},
			logging.Field{Key: "dropped", Value: dropped},
		).Warn("Dropped rows with unparseable dates from weekly split")
	}

	weeks := make([]int, 0, len(withdrawals))
	for week := range withdrawals {
		weeks = append(weeks, week)
	}
	sort.Ints(weeks)

	// The income share is split evenly across the weeks that actually
	// have transactions, not a fixed count of calendar weeks.
	incomeShare := decimal.Zero
	if len(weeks) > 0 {
		incomeShare = e.monthlyIncome.Div(decimal.NewFromInt(int64(len(weeks))))
	}

	entries := make([]WeeklyEntry, 0, 2*len(weeks))
	for _, week := range weeks {
		spent := withdrawals[week]
		savings := incomeShare.Sub(spent)
		if savings.IsNegative() {
			savings = decimal.Zero
		}
		entries = append(entries,
			WeeklyEntry{Week: week, Type: SeriesWithdrawal, Amount: spent.Round(2).InexactFloat64()},
			WeeklyEntry{Week: week, Type: SeriesSavings, Amount: savings.Round(2).InexactFloat64()},
		)
	}

	return &WeeklySplit{MonthName: monthName, WeeklySpending: entries}, nil
}
