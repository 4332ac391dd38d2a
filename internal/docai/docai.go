// Package docai extracts structured content from uploaded documents
// through a remote document-intelligence service: table layout from
// bank statements and field values from receipts. The service is
// asynchronous; an analysis is submitted, then polled until it settles.
package docai

import (
	"context"

	"finsight/backend/internal/models"
)

// LayoutAnalyzer extracts the tables detected in a statement document,
// in detection order.
type LayoutAnalyzer interface {
	AnalyzeLayout(ctx context.Context, document []byte, contentType string) ([]models.Table, error)
}

// ReceiptAnalyzer extracts the merchant, date and total fields from a
// receipt image.
type ReceiptAnalyzer interface {
	AnalyzeReceipt(ctx context.Context, document []byte, contentType string) (models.ReceiptFields, error)
}
