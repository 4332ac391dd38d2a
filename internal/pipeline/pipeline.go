// Package pipeline orchestrates the ledger flows end to end: statement
// ingestion (normalize, classify, persist), receipt merging, analytic
// queries and the ledger chat. The HTTP layer and the CLI both drive
// these operations; neither owns any ledger logic of its own.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finsight/backend/internal/analytics"
	"finsight/backend/internal/apperrors"
	"finsight/backend/internal/catstore"
	"finsight/backend/internal/classifier"
	"finsight/backend/internal/currencyutils"
	"finsight/backend/internal/dateutils"
	"finsight/backend/internal/ledger"
	"finsight/backend/internal/logging"
	"finsight/backend/internal/models"
	"finsight/backend/internal/tables"
)

// Pipeline wires the ledger components together.
type Pipeline struct {
	normalizer *tables.Normalizer
	classifier *classifier.Classifier
	store      *ledger.Store
	engine     *analytics.Engine
	chatGen    classifier.TextGenerator
	mappings   *catstore.MappingStore
	logger     logging.Logger
}

// New creates a Pipeline. The chat generator and mapping store are
// optional.
func New(
	normalizer *tables.Normalizer,
	cls *classifier.Classifier,
	store *ledger.Store,
	engine *analytics.Engine,
	chatGen classifier.TextGenerator,
	mappings *catstore.MappingStore,
	logger logging.Logger,
) *Pipeline {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Pipeline{
		normalizer: normalizer,
		classifier: cls,
		store:      store,
		engine:     engine,
		chatGen:    chatGen,
		mappings:   mappings,
		logger:     logger,
	}
}

// ProcessStatement turns extracted statement tables into a classified
// period ledger and persists it, replacing any previous ledger for the
// period. It returns the canonical period key and the number of
// transactions written.
func (p *Pipeline) ProcessStatement(ctx context.Context, extracted []models.Table, month, year string) (string, int, error) {
	periodKey, err := dateutils.PeriodKeyFromTokens(month, year)
	if err != nil {
		return "", 0, &apperrors.ValidationError{Field: "period", Reason: err.Error()}
	}

	rows, err := p.normalizer.Rows(extracted)
	if err != nil {
		return "", 0, err
	}
	if len(rows) == 0 {
		return "", 0, &apperrors.ValidationError{Field: "document", Reason: "no transaction tables found"}
	}

	transactions := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		transactions = append(transactions, models.Transaction{
			Date:           row.Date,
			Narration:      row.Narration,
			Withdrawal:     models.ParseAmount(row.Withdrawal),
			Deposit:        models.ParseAmount(row.Deposit),
			ClosingBalance: models.ParseAmount(row.Balance),
			Category:       p.classifier.ClassifyNarration(ctx, row.Narration),
		})
	}

	if err := p.store.Write(periodKey, transactions); err != nil {
		return "", 0, err
	}
	p.saveMappings()

	p.logger.WithFields(
		logging.Field{Key: "period", Value: periodKey},
		logging.Field{Key: "transactions", Value: len(transactions)},
	).Info("Processed statement into period ledger")
	return periodKey, len(transactions), nil
}

// MergeReceipt classifies a receipt-derived transaction and appends it
// to the ledger of the period its own date falls in, reconstructing the
// running balance. It returns the stored transaction and its period key.
func (p *Pipeline) MergeReceipt(ctx context.Context, fields models.ReceiptFields, flow string) (models.Transaction, string, error) {
	if flow != models.FlowPaid && flow != models.FlowReceived {
		return models.Transaction{}, "", &apperrors.ValidationError{
			Field:  "transactionType",
			Reason: fmt.Sprintf("must be %q or %q", models.FlowPaid, models.FlowReceived),
		}
	}

	merchant := strings.TrimSpace(fields.MerchantName)
	if merchant == "" {
		return models.Transaction{}, "", &apperrors.ValidationError{Field: "merchant", Reason: "missing from receipt"}
	}
	if strings.TrimSpace(fields.Total) == "" {
		return models.Transaction{}, "", &apperrors.ValidationError{Field: "total", Reason: "missing from receipt"}
	}

	total, err := currencyutils.ParseAmount(fields.Total)
	if err != nil {
		return models.Transaction{}, "", &apperrors.ValidationError{
			Field:  "total",
			Reason: fmt.Sprintf("unparseable amount %q", fields.Total),
		}
	}

	date, err := dateutils.ParseDate(fields.TransactionDate)
	if err != nil {
		return models.Transaction{}, "", &apperrors.ValidationError{
			Field:  "date",
			Reason: fmt.Sprintf("unparseable date %q", fields.TransactionDate),
		}
	}
	periodKey := dateutils.PeriodKey(date)

	transaction := models.Transaction{
		Date:      dateutils.ToStatementFormat(date),
		Narration: merchant,
		Category:  p.classifier.ClassifyReceipt(ctx, merchant, total),
	}
	if flow == models.FlowPaid {
		transaction.Withdrawal = total
	} else {
		transaction.Deposit = total
	}

	if err := p.store.Append(periodKey, []models.Transaction{transaction}); err != nil {
		return models.Transaction{}, "", err
	}
	p.saveMappings()

	// Append reconstructed the closing balance; reload the tail so the
	// caller sees the stored row.
	stored, err := p.store.Load(periodKey)
	if err != nil {
		return models.Transaction{}, "", err
	}

	p.logger.WithFields(
		logging.Field{Key: "period", Value: periodKey},
		logging.Field{Key: "merchant", Value: merchant},
		logging.Field{Key: "flow", Value: flow},
	).Info("Merged receipt into period ledger")
	return stored[len(stored)-1], periodKey, nil
}

// CategoryTotals returns the per-category spending totals for a period
// identified by month and year tokens.
func (p *Pipeline) CategoryTotals(month, year string) ([]analytics.CategorySpend, error) {
	periodKey, err := dateutils.PeriodKeyFromTokens(month, year)
	if err != nil {
		return nil, &apperrors.ValidationError{Field: "period", Reason: err.Error()}
	}
	return p.engine.CategoryTotals(periodKey)
}

// WeeklySplit returns the weekly savings/expenses view for a period
// identified by month and year tokens.
func (p *Pipeline) WeeklySplit(month, year string) (*analytics.WeeklySplit, error) {
	periodKey, err := dateutils.PeriodKeyFromTokens(month, year)
	if err != nil {
		return nil, &apperrors.ValidationError{Field: "period", Reason: err.Error()}
	}
	return p.engine.WeeklySplit(periodKey)
}

// Insights returns the deviation analysis over all stored periods.
func (p *Pipeline) Insights(ctx context.Context, spendPct, savePct float64) (*analytics.Insight, error) {
	return p.engine.Insights(ctx, spendPct, savePct)
}

// Answer responds to a free-text question about one period's ledger by
// handing the stored transactions and the question to the remote text
// service.
func (p *Pipeline) Answer(ctx context.Context, query, month, year string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", &apperrors.ValidationError{Field: "query", Reason: "must not be empty"}
	}

	periodKey, err := dateutils.PeriodKeyFromTokens(month, year)
	if err != nil {
		return "", &apperrors.ValidationError{Field: "period", Reason: err.Error()}
	}
	if p.chatGen == nil {
		return "", &apperrors.UpstreamError{Service: "chat", Err: fmt.Errorf("no text service configured")}
	}

	transactions, err := p.store.Load(periodKey)
	if err != nil {
		return "", err
	}

	answer, err := p.chatGen.Generate(ctx, chatSystemInstruction, buildChatPrompt(periodKey, transactions, query))
	if err != nil {
		return "", &apperrors.UpstreamError{Service: "chat", Err: err}
	}
	return strings.TrimSpace(answer), nil
}

const chatSystemInstruction = "You are a helpful assistant answering questions about a personal bank ledger. Answer concisely using only the ledger provided."

func buildChatPrompt(periodKey string, transactions []models.Transaction, query string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Ledger for %s (date | narration | withdrawal | deposit | balance | category):\n", periodKey)
	for _, t := range transactions {
		fmt.Fprintf(&sb, "%s | %s | %s | %s | %s | %s\n",
			t.Date, t.Narration,
			formatAmount(t.Withdrawal), formatAmount(t.Deposit),
			formatAmount(t.ClosingBalance), t.Category)
	}
	fmt.Fprintf(&sb, "\nQuestion: %s", query)
	return sb.String()
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func (p *Pipeline) saveMappings() {
	if p.mappings == nil {
		return
	}
	if err := p.mappings.Save(); err != nil {
		p.logger.WithError(err).Warn("Failed to save learned category mappings")
	}
}
