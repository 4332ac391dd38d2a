package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/backend/internal/analytics"
	"finsight/backend/internal/classifier"
	"finsight/backend/internal/ledger"
	"finsight/backend/internal/models"
	"finsight/backend/internal/pipeline"
	"finsight/backend/internal/retry"
	"finsight/backend/internal/tables"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixedGenerator struct {
	answer string
}

func (f *fixedGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	return f.answer, nil
}

type fakeLayout struct {
	tables []models.Table
	err    error
}

func (f *fakeLayout) AnalyzeLayout(ctx context.Context, document []byte, contentType string) ([]models.Table, error) {
	return f.tables, f.err
}

type fakeReceipts struct {
	fields models.ReceiptFields
	err    error
}

func (f *fakeReceipts) AnalyzeReceipt(ctx context.Context, document []byte, contentType string) (models.ReceiptFields, error) {
	return f.fields, f.err
}

func newTestRouter(t *testing.T, layout *fakeLayout, receipts *fakeReceipts, answer string) (*gin.Engine, *ledger.Store) {
	t.Helper()

	store := ledger.NewStore(t.TempDir(), nil)
	gen := &fixedGenerator{answer: answer}
	policy := retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2}
	cls := classifier.New(gen, nil, policy, nil)
	engine := analytics.NewEngine(store, gen, 50000, nil)
	p := pipeline.New(tables.NewNormalizer(nil), cls, store, engine, gen, nil, nil)

	server := NewServer(p, layout, receipts, nil)
	return server.Router([]string{"*"}), store
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func statementTable() models.Table {
	row := []string{"01/01/25", "Grocery Mart", "", "", "48800.00", "1200.00", ""}
	table := models.Table{RowCount: 1, ColumnCount: 7}
	for c, content := range row {
		table.Cells = append(table.Cells, models.Cell{RowIndex: 0, ColumnIndex: c, Content: content})
	}
	return table
}

func TestHandleRoot(t *testing.T) {
	router, _ := newTestRouter(t, &fakeLayout{}, &fakeReceipts{}, "Groceries")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestUploadStatement(t *testing.T) {
	layout := &fakeLayout{tables: []models.Table{statementTable()}}
	router, store := newTestRouter(t, layout, &fakeReceipts{}, "Groceries")

	body, contentType := multipartBody(t,
		map[string]string{"month": "January", "year": "2025"},
		"file", "statement.pdf", []byte("%PDF"))

	req := httptest.NewRequest(http.MethodPost, "/upload/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "january-2025", resp["period"])
	assert.Equal(t, float64(1), resp["transactions"])

	stored, err := store.Load("january-2025")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.CategoryGroceries, stored[0].Category)
}

func TestUploadStatementMissingPeriodFields(t *testing.T) {
	router, _ := newTestRouter(t, &fakeLayout{}, &fakeReceipts{}, "Groceries")

	body, contentType := multipartBody(t, nil, "file", "statement.pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/upload/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadStatementEmptyFile(t *testing.T) {
	router, _ := newTestRouter(t, &fakeLayout{}, &fakeReceipts{}, "Groceries")

	body, contentType := multipartBody(t,
		map[string]string{"month": "January", "year": "2025"},
		"file", "statement.pdf", nil)
	req := httptest.NewRequest(http.MethodPost, "/upload/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadReceipt(t *testing.T) {
	receipts := &fakeReceipts{fields: models.ReceiptFields{
		MerchantName:    "Cafe X",
		TransactionDate: "05-Feb-25",
		Total:           "₹1,250.00",
	}}
	router, store := newTestRouter(t, &fakeLayout{}, receipts, "Groceries")

	body, contentType := multipartBody(t,
		map[string]string{"transactionType": "paid"},
		"file", "receipt.png", []byte("PNG"))
	req := httptest.NewRequest(http.MethodPost, "/upload_receipt/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "february-2025", resp["period"])

	transaction := resp["transaction"].(map[string]any)
	assert.Equal(t, "-1250.00", transaction["Closing Balance"])

	stored, err := store.Load("february-2025")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestUploadReceiptInvalidFlow(t *testing.T) {
	receipts := &fakeReceipts{fields: models.ReceiptFields{
		MerchantName: "Cafe X", TransactionDate: "05-Feb-25", Total: "10",
	}}
	router, _ := newTestRouter(t, &fakeLayout{}, receipts, "Groceries")

	body, contentType := multipartBody(t,
		map[string]string{"transactionType": "transferred"},
		"file", "receipt.png", []byte("PNG"))
	req := httptest.NewRequest(http.MethodPost, "/upload_receipt/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetGraphDataMissingPeriod(t *testing.T) {
	router, _ := newTestRouter(t, &fakeLayout{}, &fakeReceipts{}, "Groceries")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get_graph_data/?month=March&year=2025", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetGraphData(t *testing.T) {
	router, store := newTestRouter(t, &fakeLayout{}, &fakeReceipts{}, "Groceries")
	require.NoError(t, store.Write("january-2025", []models.Transaction{
		{Date: "02/01/25", Narration: "Grocery Mart", Withdrawal: amount("1200.00"), Category: models.CategoryGroceries},
	}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get_graph_data/?month=January&year=2025", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, models.CategoryGroceries, resp[0]["Category"])
	assert.Equal(t, float64(1200), resp[0]["Amount"])
}

func TestGetBarGraphData(t *testing.T) {
	router, store := newTestRouter(t, &fakeLayout{}, &fakeReceipts{}, "Groceries")
	require.NoError(t, store.Write("january-2025", []models.Transaction{
		{Date: "02/01/25", Narration: "Grocery Mart", Withdrawal: amount("1200.00"), Category: models.CategoryGroceries},
	}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get_bar_graph_data/?month=January&year=2025", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		MonthName      string `json:"month_name"`
		WeeklySpending []struct {
			Week   int     `json:"Week"`
			Type   string  `json:"Type"`
			Amount float64 `json:"Amount"`
		} `json:"weekly_spending"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "January", resp.MonthName)
	require.Len(t, resp.WeeklySpending, 2)
	assert.Equal(t, analytics.SeriesWithdrawal, resp.WeeklySpending[0].Type)
}

func TestAnalyzeRejectsBadPercentages(t *testing.T) {
	router, _ := newTestRouter(t, &fakeLayout{}, &fakeReceipts{}, "Groceries")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/analyze?spending_pct=70&saving_pct=31", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyze(t *testing.T) {
	router, store := newTestRouter(t, &fakeLayout{}, &fakeReceipts{}, "Three short points.")
	require.NoError(t, store.Write("january-2025", []models.Transaction{
		{Date: "02/01/25", Narration: "Grocery Mart", Withdrawal: amount("1200.00"), Category: models.CategoryGroceries},
		{Date: "03/01/25", Narration: "Salary", Deposit: amount("50000.00"), Category: models.CategoryPersonalTransfers},
	}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/analyze?spending_pct=60&saving_pct=40", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(1200), resp["total_spent"])
	assert.Equal(t, models.CategoryGroceries, resp["max_spent_category"])
	assert.Equal(t, "Three short points.", resp["ai_recommendations"])
}

func TestQuery(t *testing.T) {
	router, store := newTestRouter(t, &fakeLayout{}, &fakeReceipts{}, "You spent 1200.00.")
	require.NoError(t, store.Write("january-2025", []models.Transaction{
		{Date: "02/01/25", Narration: "Grocery Mart", Withdrawal: amount("1200.00"), Category: models.CategoryGroceries},
	}))

	payload := `{"query":"How much did I spend?","month":"January","year":"2025"}`
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "You spent 1200.00.", resp["response"])
}

func TestQueryMissingBody(t *testing.T) {
	router, _ := newTestRouter(t, &fakeLayout{}, &fakeReceipts{}, "Groceries")

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
