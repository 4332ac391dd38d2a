package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"finsight/backend/internal/apperrors"
)

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Ledger API is running"})
}

// handleUploadStatement accepts a statement document plus its month and
// year, runs layout extraction and the full statement pipeline, and
// reports the period ledger that was written.
func (s *Server) handleUploadStatement(c *gin.Context) {
	month := c.PostForm("month")
	year := c.PostForm("year")
	if month == "" || year == "" {
		s.writeError(c, &apperrors.ValidationError{Field: "month/year", Reason: "both are required"})
		return
	}

	document, contentType, filename, err := readUpload(c, "file")
	if err != nil {
		s.writeError(c, err)
		return
	}

	tables, err := s.layout.AnalyzeLayout(c.Request.Context(), document, contentType)
	if err != nil {
		s.writeError(c, err)
		return
	}

	periodKey, count, err := s.pipeline.ProcessStatement(c.Request.Context(), tables, month, year)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filename":     filename,
		"period":       periodKey,
		"transactions": count,
		"message":      "File processed successfully.",
	})
}

// handleUploadReceipt accepts a receipt image and a flow direction,
// extracts its fields and merges the resulting transaction into the
// matching period ledger.
func (s *Server) handleUploadReceipt(c *gin.Context) {
	flow := c.PostForm("transactionType")

	document, contentType, _, err := readUpload(c, "file")
	if err != nil {
		s.writeError(c, err)
		return
	}

	fields, err := s.receipts.AnalyzeReceipt(c.Request.Context(), document, contentType)
	if err != nil {
		s.writeError(c, err)
		return
	}

	transaction, periodKey, err := s.pipeline.MergeReceipt(c.Request.Context(), fields, flow)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period":  periodKey,
		"message": "Receipt processed successfully.",
		"transaction": gin.H{
			"Date":            transaction.Date,
			"Narration":       transaction.Narration,
			"Withdrawal Amt.": transaction.Withdrawal.StringFixed(2),
			"Deposit Amt.":    transaction.Deposit.StringFixed(2),
			"Closing Balance": transaction.ClosingBalance.StringFixed(2),
			"Category":        transaction.Category,
		},
	})
}

func (s *Server) handleCategoryTotals(c *gin.Context) {
	totals, err := s.pipeline.CategoryTotals(c.Query("month"), c.Query("year"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (s *Server) handleWeeklySplit(c *gin.Context) {
	split, err := s.pipeline.WeeklySplit(c.Query("month"), c.Query("year"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, split)
}

func (s *Server) handleInsights(c *gin.Context) {
	spendPct, err := strconv.ParseFloat(c.Query("spending_pct"), 64)
	if err != nil {
		s.writeError(c, &apperrors.ValidationError{Field: "spending_pct", Reason: "must be a number"})
		return
	}
	savePct, err := strconv.ParseFloat(c.Query("saving_pct"), 64)
	if err != nil {
		s.writeError(c, &apperrors.ValidationError{Field: "saving_pct", Reason: "must be a number"})
		return
	}

	insight, err := s.pipeline.Insights(c.Request.Context(), spendPct, savePct)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, insight)
}

type queryRequest struct {
	Query string `json:"query" binding:"required"`
	Month string `json:"month" binding:"required"`
	Year  string `json:"year" binding:"required"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, &apperrors.ValidationError{Field: "body", Reason: "query, month and year are required"})
		return
	}

	answer, err := s.pipeline.Answer(c.Request.Context(), req.Query, req.Month, req.Year)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": answer})
}

// readUpload reads one multipart file field fully into memory.
func readUpload(c *gin.Context, field string) ([]byte, string, string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, "", "", &apperrors.ValidationError{Field: field, Reason: "file is required"}
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", "", &apperrors.ValidationError{Field: field, Reason: "file could not be read"}
	}
	defer file.Close()

	document, err := readAll(file)
	if err != nil {
		return nil, "", "", &apperrors.ValidationError{Field: field, Reason: "file could not be read"}
	}
	if len(document) == 0 {
		return nil, "", "", &apperrors.ValidationError{Field: field, Reason: "uploaded file is empty"}
	}

	return document, header.Header.Get("Content-Type"), header.Filename, nil
}

func readAll(file multipart.File) ([]byte, error) {
	return io.ReadAll(file)
}

// writeError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeError(c *gin.Context, err error) {
	var notFound *apperrors.NotFoundError
	var validation *apperrors.ValidationError
	var upstream *apperrors.UpstreamError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	case errors.As(err, &upstream):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("Request failed")
	} else {
		s.logger.WithError(err).WithField("request_id", c.GetString("request_id")).Warn("Request rejected")
	}

	c.AbortWithStatusJSON(status, gin.H{"detail": err.Error()})
}
