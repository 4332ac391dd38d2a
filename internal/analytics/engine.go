// Package analytics computes derived views over period ledgers:
// per-category spending totals, the weekly savings/expenses split, and
// expected-vs-actual deviation insights. All views are computed fresh
// per request; nothing here is persisted.
package analytics

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"finsight/backend/internal/logging"
	"finsight/backend/internal/models"
)

// LedgerReader is the slice of the ledger store the engine needs.
type LedgerReader interface {
	Load(periodKey string) ([]models.Transaction, error)
	Periods() ([]string, error)
}

// Engine computes analytic views over stored ledgers.
type Engine struct {
	reader        LedgerReader
	advisor       Advisor
	monthlyIncome decimal.Decimal
	logger        logging.Logger
}

// Advisor produces one free-text recommendation from computed figures.
// It mirrors the classifier's generator interface so both can share a
// remote client.
type Advisor interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// NewEngine creates an Engine. The advisor is optional; without one,
// insight responses carry the static fallback recommendation.
func NewEngine(reader LedgerReader, advisor Advisor, monthlyIncome float64, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Engine{
		reader:        reader,
		advisor:       advisor,
		monthlyIncome: decimal.NewFromFloat(monthlyIncome),
		logger:        logger,
	}
}

// CategorySpend is one category's withdrawal total within a period.
type CategorySpend struct {
	Category string  `json:"Category"`
	Amount   float64 `json:"Amount"`
}

// CategoryTotals sums withdrawals per category for one period, sorted
// by category name. Deposits do not count as spending.
func (e *Engine) CategoryTotals(periodKey string) ([]CategorySpend, error) {
	transactions, err := e.reader.Load(periodKey)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]decimal.Decimal)
	for _, t := range transactions {
		totals[t.Category] = totals[t.Category].Add(t.Withdrawal)
	}

	spend := make([]CategorySpend, 0, len(totals))
	for category, amount := range totals {
		spend = append(spend, CategorySpend{
			Category: category,
			Amount:   amount.Round(2).InexactFloat64(),
		})
	}
	sort.Slice(spend, func(i, j int) bool { return spend[i].Category < spend[j].Category })
	return spend, nil
}
