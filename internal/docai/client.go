package docai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finsight/backend/internal/apperrors"
	"finsight/backend/internal/logging"
	"finsight/backend/internal/models"
)

const (
	apiVersion    = "2024-11-30"
	modelLayout   = "prebuilt-layout"
	modelReceipt  = "prebuilt-receipt"
	statusRunning = "running"
	statusQueued  = "notStarted"
)

// Client talks to an Azure Document Intelligence-compatible endpoint.
// Submissions return 202 with an Operation-Location header that is
// polled until the analysis succeeds or fails.
type Client struct {
	endpoint     string
	apiKey       string
	pollInterval time.Duration
	pollAttempts int
	httpClient   *http.Client
	logger       logging.Logger
}

// NewClient creates a document-analysis client.
func NewClient(endpoint, apiKey string, pollInterval time.Duration, pollAttempts int, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Client{
		endpoint:     strings.TrimRight(endpoint, "/"),
		apiKey:       apiKey,
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		logger:       logger,
	}
}

// AnalyzeLayout runs the layout model over a statement document and
// returns its detected tables in detection order.
func (c *Client) AnalyzeLayout(ctx context.Context, document []byte, contentType string) ([]models.Table, error) {
	result, err := c.analyze(ctx, modelLayout, document, contentType)
	if err != nil {
		return nil, err
	}

	tables := make([]models.Table, 0, len(result.AnalyzeResult.Tables))
	for _, t := range result.AnalyzeResult.Tables {
		table := models.Table{
			RowCount:    t.RowCount,
			ColumnCount: t.ColumnCount,
			Cells:       make([]models.Cell, 0, len(t.Cells)),
		}
		for _, cell := range t.Cells {
			table.Cells = append(table.Cells, models.Cell{
				RowIndex:    cell.RowIndex,
				ColumnIndex: cell.ColumnIndex,
				Content:     cell.Content,
			})
		}
		tables = append(tables, table)
	}
	return tables, nil
}

// AnalyzeReceipt runs the receipt model over a receipt image and
// returns the extracted merchant, date and total. Fields the service
// could not read come back empty.
func (c *Client) AnalyzeReceipt(ctx context.Context, document []byte, contentType string) (models.ReceiptFields, error) {
	result, err := c.analyze(ctx, modelReceipt, document, contentType)
	if err != nil {
		return models.ReceiptFields{}, err
	}

	fields := models.ReceiptFields{}
	if len(result.AnalyzeResult.Documents) == 0 {
		return fields, nil
	}

	doc := result.AnalyzeResult.Documents[0].Fields
	fields.MerchantName = doc.fieldContent("MerchantName")
	fields.TransactionDate = doc.fieldContent("TransactionDate")
	fields.Total = doc.fieldContent("Total")
	return fields, nil
}

// analyze submits a document and polls the returned operation until the
// analysis settles.
func (c *Client) analyze(ctx context.Context, model string, document []byte, contentType string) (*operationResult, error) {
	operationURL, err := c.submit(ctx, model, document, contentType)
	if err != nil {
		return nil, err
	}
	return c.poll(ctx, model, operationURL)
}

func (c *Client) submit(ctx context.Context, model string, document []byte, contentType string) (string, error) {
	url := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s",
		c.endpoint, model, apiVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(document))
	if err != nil {
		return "", fmt.Errorf("error building analysis request: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &apperrors.UpstreamError{Service: "document analysis", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &apperrors.UpstreamError{
			Service: "document analysis",
			Err:     fmt.Errorf("analysis submission returned %d: %s", resp.StatusCode, string(body)),
		}
	}

	operationURL := resp.Header.Get("Operation-Location")
	if operationURL == "" {
		return "", &apperrors.UpstreamError{
			Service: "document analysis",
			Err:     fmt.Errorf("analysis submission returned no operation location"),
		}
	}
	return operationURL, nil
}

func (c *Client) poll(ctx context.Context, model, operationURL string) (*operationResult, error) {
	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		result, err := c.fetchOperation(ctx, operationURL)
		if err != nil {
			return nil, err
		}

		switch result.Status {
		case "succeeded":
			c.logger.WithFields(
				logging.Field{Key: "model", Value: model},
				logging.Field{Key: "polls", Value: attempt + 1},
			).Debug("Document analysis completed")
			return result, nil
		case "failed":
			return nil, &apperrors.UpstreamError{
				Service: "document analysis",
				Err:     fmt.Errorf("analysis failed: %s", result.Error.Message),
			}
		case statusRunning, statusQueued:
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pollInterval):
			}
		default:
			return nil, &apperrors.UpstreamError{
				Service: "document analysis",
				Err:     fmt.Errorf("analysis reported unknown status %q", result.Status),
			}
		}
	}

	return nil, &apperrors.UpstreamError{
		Service: "document analysis",
		Err:     fmt.Errorf("analysis did not complete after %d polls", c.pollAttempts),
	}
}

func (c *Client) fetchOperation(ctx context.Context, operationURL string) (*operationResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error building poll request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.UpstreamError{Service: "document analysis", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &apperrors.UpstreamError{
			Service: "document analysis",
			Err:     fmt.Errorf("operation poll returned %d", resp.StatusCode),
		}
	}

	var result operationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &apperrors.UpstreamError{
			Service: "document analysis",
			Err:     fmt.Errorf("error decoding operation result: %w", err),
		}
	}
	return &result, nil
}

// Wire types for the analysis operation resource.

type operationResult struct {
	Status        string        `json:"status"`
	Error         wireError     `json:"error"`
	AnalyzeResult analyzeResult `json:"analyzeResult"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type analyzeResult struct {
	Tables    []wireTable    `json:"tables"`
	Documents []wireDocument `json:"documents"`
}

type wireTable struct {
	RowCount    int        `json:"rowCount"`
	ColumnCount int        `json:"columnCount"`
	Cells       []wireCell `json:"cells"`
}

type wireCell struct {
	RowIndex    int    `json:"rowIndex"`
	ColumnIndex int    `json:"columnIndex"`
	Content     string `json:"content"`
}

type wireDocument struct {
	Fields wireFields `json:"fields"`
}

type wireFields map[string]wireField

type wireField struct {
	Content     string  `json:"content"`
	ValueString string  `json:"valueString"`
	ValueNumber float64 `json:"valueNumber"`
}

// fieldContent prefers the typed string value, falling back to the raw
// recognized content.
func (f wireFields) fieldContent(name string) string {
	field, ok := f[name]
	if !ok {
		return ""
	}
	if field.ValueString != "" {
		return field.ValueString
	}
	return strings.TrimSpace(field.Content)
}
