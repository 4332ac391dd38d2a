// Package api exposes the ledger pipeline over HTTP. Route and payload
// shapes follow the frontend's contract: multipart uploads for
// statements and receipts, query-parameter reads for the derived views.
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"finsight/backend/internal/docai"
	"finsight/backend/internal/logging"
	"finsight/backend/internal/pipeline"
)

// Server holds the HTTP dependencies.
type Server struct {
	pipeline *pipeline.Pipeline
	layout   docai.LayoutAnalyzer
	receipts docai.ReceiptAnalyzer
	logger   logging.Logger
}

// NewServer creates a Server.
func NewServer(p *pipeline.Pipeline, layout docai.LayoutAnalyzer, receipts docai.ReceiptAnalyzer, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Server{
		pipeline: p,
		layout:   layout,
		receipts: receipts,
		logger:   logger,
	}
}

// Router builds the gin engine with middleware and routes registered.
func (s *Server) Router(allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestID())
	router.Use(s.requestLogger())
	router.Use(corsMiddleware(allowedOrigins))

	router.GET("/", s.handleRoot)
	router.POST("/upload/", s.handleUploadStatement)
	router.POST("/upload_receipt/", s.handleUploadReceipt)
	router.GET("/get_graph_data/", s.handleCategoryTotals)
	router.GET("/get_bar_graph_data/", s.handleWeeklySplit)
	router.GET("/analyze", s.handleInsights)
	router.POST("/query", s.handleQuery)

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		config.AllowAllOrigins = true
		config.AllowCredentials = false
	} else {
		config.AllowOrigins = allowedOrigins
	}
	return cors.New(config)
}

// requestID tags every request with a correlation id so one upload's
// log lines can be followed through the pipeline.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.WithFields(
			logging.Field{Key: "request_id", Value: c.GetString("request_id")},
			logging.Field{Key: "method", Value: c.Request.Method},
			logging.Field{Key: "path", Value: c.Request.URL.Path},
			logging.Field{Key: "status", Value: c.Writer.Status()},
			logging.Field{Key: "duration", Value: time.Since(start).String()},
		).Info("Handled request")
	}
}
