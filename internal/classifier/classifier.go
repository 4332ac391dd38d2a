// Package classifier assigns spending categories to transactions by
// asking a remote generative service, with a learned-mapping fast path
// and retry/backoff under throttling. It never surfaces an error to its
// caller: every failure mode degrades to the Uncategorized fallback.
package classifier

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"finsight/backend/internal/catstore"
	"finsight/backend/internal/logging"
	"finsight/backend/internal/models"
	"finsight/backend/internal/retry"
	"finsight/backend/internal/textutils"
)

// Classifier maps narrations and receipts to categories from the fixed
// taxonomy.
type Classifier struct {
	gen    TextGenerator
	store  *catstore.MappingStore
	policy retry.Policy
	logger logging.Logger

	// The remote service enforces one shared quota; calls are serialized
	// rather than fanned out so backoff actually relieves the throttle.
	remoteMu sync.Mutex
}

// New creates a Classifier. The mapping store is optional; pass nil to
// always consult the remote service.
func New(gen TextGenerator, store *catstore.MappingStore, policy retry.Policy, logger logging.Logger) *Classifier {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Classifier{
		gen:    gen,
		store:  store,
		policy: policy,
		logger: logger,
	}
}

// ClassifyNarration assigns a category to a bank-statement narration.
// The narration is normalized before being shown to the remote service.
func (c *Classifier) ClassifyNarration(ctx context.Context, narration string) string {
	keywords := textutils.NormalizeNarration(narration)
	if keywords == "" {
		return models.CategoryUncategorized
	}

	if c.store != nil {
		if category, found := c.store.Lookup(keywords); found {
			c.logger.WithFields(
				logging.Field{Key: "narration", Value: keywords},
				logging.Field{Key: "category", Value: category},
			).Debug("Classified from learned mapping")
			return category
		}
	}

	category := c.classifyRemote(ctx, buildNarrationPrompt(keywords), models.StatementCategories)

	if c.store != nil && category != models.CategoryUncategorized {
		c.store.Learn(keywords, category)
	}

	return category
}

// ClassifyReceipt assigns a category to a receipt-derived transaction
// from its merchant name and total amount.
func (c *Classifier) ClassifyReceipt(ctx context.Context, merchant string, amount decimal.Decimal) string {
	merchant = strings.TrimSpace(merchant)
	if merchant == "" {
		return models.CategoryUncategorized
	}

	key := textutils.NormalizeNarration(merchant)
	if c.store != nil {
		if category, found := c.store.Lookup(key); found {
			return category
		}
	}

	category := c.classifyRemote(ctx, buildReceiptPrompt(merchant, amount), models.ReceiptCategories)

	if c.store != nil && category != models.CategoryUncategorized {
		c.store.Learn(key, category)
	}

	return category
}

// classifyRemote runs the retry loop around the remote call. Throttling
// backs off with a doubling delay; transport failures retry after the
// base delay; any other service answer ends the loop. Whatever happens,
// the result is a taxonomy member.
func (c *Classifier) classifyRemote(ctx context.Context, prompt string, allowed []string) string {
	if c.gen == nil {
		return models.CategoryUncategorized
	}

	c.remoteMu.Lock()
	defer c.remoteMu.Unlock()

	var answer string
	err := c.policy.Do(ctx, func() (retry.Outcome, error) {
		text, err := c.gen.Generate(ctx, systemInstruction, prompt)
		if err == nil {
			answer = text
			return retry.Done, nil
		}

		if IsRateLimited(err) {
			c.logger.WithError(err).Warn("Classification service throttled, backing off")
			return retry.Throttled, err
		}
		if IsServiceError(err) {
			// Definitive non-success answer; retrying will not help.
			c.logger.WithError(err).Warn("Classification service returned an error")
			return retry.Done, err
		}

		c.logger.WithError(err).Warn("Classification request failed, retrying")
		return retry.Transient, err
	})
	if err != nil {
		return models.CategoryUncategorized
	}

	return sanitizeCategory(answer, allowed)
}

// sanitizeCategory trims the service's answer down to a bare taxonomy
// member. Empty or unrecognized answers fall back to Uncategorized.
func sanitizeCategory(answer string, allowed []string) string {
	answer = strings.Trim(strings.TrimSpace(answer), "*`\"'.")
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return models.CategoryUncategorized
	}

	for _, category := range allowed {
		if strings.EqualFold(answer, category) {
			return category
		}
	}

	return models.CategoryUncategorized
}
