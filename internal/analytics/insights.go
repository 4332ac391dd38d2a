package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finsight/backend/internal/apperrors"
	"finsight/backend/internal/models"
)

const advisorSystemInstruction = "You are a personal finance advisor."

// AdvisorUnavailable is the recommendation substituted when the remote
// advisory service cannot be reached. The rule-based figures are still
// returned in that case.
const AdvisorUnavailable = "AI recommendations are currently unavailable. Please try again later."

// Insight is the deviation analysis over all stored periods.
type Insight struct {
	TotalSpent        float64  `json:"total_spent"`
	TotalSaved        float64  `json:"total_saved"`
	ExpectedSpent     float64  `json:"expected_spent"`
	ExpectedSaved     float64  `json:"expected_saved"`
	DeviationSpent    float64  `json:"deviation_spent"`
	DeviationSaved    float64  `json:"deviation_saved"`
	MaxSpentCategory  string   `json:"max_spent_category"`
	Suggestions       []string `json:"suggestions"`
	AIRecommendations string   `json:"ai_recommendations"`
}

// Insights folds every stored period ledger into aggregate totals and
// compares them against the caller's target spend/save percentages.
// Ledgers are consumed one period at a time; histories never need to fit
// in memory as one combined sequence.
func (e *Engine) Insights(ctx context.Context, spendPct, savePct float64) (*Insight, error) {
	if spendPct+savePct != 100 {
		return nil, &apperrors.ValidationError{
			Field:  "percentages",
			Reason: "spending and saving percentages must sum to 100",
		}
	}

	periods, err := e.reader.Periods()
	if err != nil {
		return nil, err
	}

	totalSpent := decimal.Zero
	totalDeposits := decimal.Zero
	categorySpent := make(map[string]decimal.Decimal)

	for _, period := range periods {
		transactions, err := e.reader.Load(period)
		if err != nil {
			return nil, err
		}
		for _, t := range transactions {
			totalSpent = totalSpent.Add(t.Withdrawal)
			totalDeposits = totalDeposits.Add(t.Deposit)
			categorySpent[t.Category] = categorySpent[t.Category].Add(t.Withdrawal)
		}
	}

	// Net-flow definition of savings: deposits left after spending.
	totalSaved := totalDeposits.Sub(totalSpent)

	base := totalSpent.Add(totalSaved)
	expectedSpent := base.Mul(decimal.NewFromFloat(spendPct)).Div(decimal.NewFromInt(100))
	expectedSaved := base.Mul(decimal.NewFromFloat(savePct)).Div(decimal.NewFromInt(100))

	insight := &Insight{
		TotalSpent:       totalSpent.Round(2).InexactFloat64(),
		TotalSaved:       totalSaved.Round(2).InexactFloat64(),
		ExpectedSpent:    expectedSpent.Round(2).InexactFloat64(),
		ExpectedSaved:    expectedSaved.Round(2).InexactFloat64(),
		DeviationSpent:   totalSpent.Sub(expectedSpent).Round(2).InexactFloat64(),
		DeviationSaved:   totalSaved.Sub(expectedSaved).Round(2).InexactFloat64(),
		MaxSpentCategory: maxCategory(categorySpent),
		Suggestions:      []string{},
	}

	if totalSpent.GreaterThan(expectedSpent) {
		insight.Suggestions = append(insight.Suggestions, fmt.Sprintf(
			"Your spending exceeds the target. Consider reducing spending on %s, your highest spending category.",
			insight.MaxSpentCategory))
	}
	if totalSaved.LessThan(expectedSaved) {
		insight.Suggestions = append(insight.Suggestions,
			"Your savings are below target. Consider cutting unnecessary expenses.")
	}

	insight.AIRecommendations = e.recommend(ctx, insight)
	return insight, nil
}

// recommend asks the advisory service for a free-text recommendation.
// Any failure degrades to the static substitute.
func (e *Engine) recommend(ctx context.Context, insight *Insight) string {
	if e.advisor == nil {
		return AdvisorUnavailable
	}

	text, err := e.advisor.Generate(ctx, advisorSystemInstruction, buildAdvisorPrompt(insight))
	if err != nil {
		e.logger.WithError(err).Warn("Advisory service call failed, using fallback recommendation")
		return AdvisorUnavailable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return AdvisorUnavailable
	}
	return text
}

func buildAdvisorPrompt(insight *Insight) string {
	var sb strings.Builder
	sb.WriteString("Given this monthly financial summary:\n")
	fmt.Fprintf(&sb, "- Total spent: %.2f\n", insight.TotalSpent)
	fmt.Fprintf(&sb, "- Total saved: %.2f\n", insight.TotalSaved)
	fmt.Fprintf(&sb, "- Expected spending: %.2f\n", insight.ExpectedSpent)
	fmt.Fprintf(&sb, "- Expected saving: %.2f\n", insight.ExpectedSaved)
	fmt.Fprintf(&sb, "- Spending deviation: %.2f\n", insight.DeviationSpent)
	fmt.Fprintf(&sb, "- Saving deviation: %.2f\n", insight.DeviationSaved)
	fmt.Fprintf(&sb, "- Highest spending category: %s\n", insight.MaxSpentCategory)
	sb.WriteString("Give exactly three short, actionable recommendations to improve this budget. Plain text, no markup.")
	return sb.String()
}

func maxCategory(spent map[string]decimal.Decimal) string {
	max := models.CategoryUncategorized
	maxAmount := decimal.Zero
	first := true
	for category, amount := range spent {
		// Ties resolve to the lexically first category so repeated runs
		// over the same ledgers report the same winner.
		switch {
		case first, amount.GreaterThan(maxAmount):
			max = category
			maxAmount = amount
			first = false
		case amount.Equal(maxAmount) && category < max:
			max = category
		}
	}
	return max
}
