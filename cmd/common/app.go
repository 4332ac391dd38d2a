// Package common wires the application container shared by all command
// handlers.
package common

import (
	"context"
	"path/filepath"

	"finsight/backend/internal/analytics"
	"finsight/backend/internal/catstore"
	"finsight/backend/internal/classifier"
	"finsight/backend/internal/config"
	"finsight/backend/internal/docai"
	"finsight/backend/internal/ledger"
	"finsight/backend/internal/logging"
	"finsight/backend/internal/pipeline"
	"finsight/backend/internal/retry"
	"finsight/backend/internal/tables"
)

// App is the assembled application: every command handler works through
// it instead of constructing components itself.
type App struct {
	Config   *config.Config
	Pipeline *pipeline.Pipeline
	DocAI    *docai.Client
	Logger   logging.Logger

	gemini *classifier.GeminiGenerator
}

// Build assembles the application from configuration. Without a
// classification API key the pipeline still runs; every transaction
// then lands in the Uncategorized bucket.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}

	var gemini *classifier.GeminiGenerator
	var gen classifier.TextGenerator
	if cfg.AI.APIKey != "" {
		g, err := classifier.NewGeminiGenerator(ctx, cfg)
		if err != nil {
			return nil, err
		}
		gemini = g
		gen = g
	} else {
		logger.Warn("No classification API key configured, transactions will be Uncategorized")
	}

	mappings := catstore.NewMappingStore(
		filepath.Join(cfg.Data.Directory, cfg.Data.MappingsFile), logger)

	policy := retry.Policy{
		MaxAttempts: cfg.AI.MaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay(),
		Multiplier:  2,
	}

	store := ledger.NewStore(cfg.Data.Directory, logger)
	cls := classifier.New(gen, mappings, policy, logger)
	normalizer := tables.NewNormalizer(logger)

	var advisor analytics.Advisor
	if gen != nil {
		advisor = gen
	}
	engine := analytics.NewEngine(store, advisor, cfg.Analytics.MonthlyIncome, logger)

	docClient := docai.NewClient(
		cfg.DocAI.Endpoint, cfg.DocAI.APIKey,
		cfg.PollInterval(), cfg.DocAI.PollAttempts, logger)

	return &App{
		Config:   cfg,
		Pipeline: pipeline.New(normalizer, cls, store, engine, gen, mappings, logger),
		DocAI:    docClient,
		Logger:   logger,
		gemini:   gemini,
	}, nil
}

// Close releases remote clients.
func (a *App) Close() {
	if a.gemini != nil {
		if err := a.gemini.Close(); err != nil {
			a.Logger.WithError(err).Warn("Error closing classification client")
		}
	}
}
