package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"finsight/backend/internal/config"
)

// GeminiGenerator implements TextGenerator against the Google Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	cfg    *config.Config
}

// NewGeminiGenerator creates a Gemini-backed text generator using the
// API key and sampling parameters from the configuration.
func NewGeminiGenerator(ctx context.Context, cfg *config.Config) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.AI.APIKey))
	if err != nil {
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		cfg:    cfg,
	}, nil
}

// Generate sends the system instruction and user prompt as ordered parts
// of a single request and returns the first candidate's text.
func (g *GeminiGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	model := g.client.GenerativeModel(g.cfg.AI.Model)
	model.SetTemperature(g.cfg.AI.Temperature)
	model.SetMaxOutputTokens(g.cfg.AI.MaxOutputTokens)

	resp, err := model.GenerateContent(ctx, genai.Text(system), genai.Text(user))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// Close releases the underlying API client.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

// IsRateLimited reports whether err is the remote service's throttling
// signal.
func IsRateLimited(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429
	}
	// The transport occasionally surfaces quota errors without the
	// googleapi wrapper.
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "ResourceExhausted")
}

// IsServiceError reports whether err is a definitive non-success answer
// from the remote service, as opposed to a transport-level failure.
func IsServiceError(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr)
}
