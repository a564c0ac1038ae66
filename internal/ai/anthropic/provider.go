// Package anthropic implements ai.AIProvider on Claude's Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/artuino0/personal-finance-app-sub000/internal/ai"
	"github.com/artuino0/personal-finance-app-sub000/internal/metrics"
)

const (
	DefaultModel = "claude-3-5-sonnet-20241022"

	// MaxCategories caps the category lines sent in a single prompt.
	MaxCategories = 200

	// analysisMaxTokens bounds the size of the generated insights.
	analysisMaxTokens = 2048

	// Pricing in cents per 1M tokens for claude-3-5-sonnet.
	PricingInputCents  = 300
	PricingOutputCents = 1500
)

// Config configures the provider. Zero values in ProviderConfig take
// defaults of 3 attempts, a 1s base delay and a 60s request timeout.
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string // Defaults to APIBaseURL
	ProviderConfig ai.ProviderConfig
}

// Provider analyzes finances with Claude.
type Provider struct {
	model  string
	client *messagesClient
	logger *slog.Logger
}

// New creates an Anthropic provider.
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	pc := config.ProviderConfig
	if pc.MaxRetries <= 0 {
		pc.MaxRetries = 3
	}
	if pc.RetryBaseDelay <= 0 {
		pc.RetryBaseDelay = time.Second
	}
	if pc.RequestTimeout <= 0 {
		pc.RequestTimeout = 60 * time.Second
	}

	url := config.BaseURL
	if url == "" {
		url = APIBaseURL
	}
	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	return &Provider{
		model: model,
		client: &messagesClient{
			url:        url,
			apiKey:     config.APIKey,
			httpClient: &http.Client{Timeout: pc.RequestTimeout},
			maxRetries: pc.MaxRetries,
			baseDelay:  pc.RetryBaseDelay,
			logger:     logger,
		},
		logger: logger,
	}, nil
}

// AnalyzeFinances asks Claude to review one period of category totals.
func (p *Provider) AnalyzeFinances(ctx context.Context, params ai.FinancesParams) (*ai.Insights, error) {
	start := time.Now()

	if err := validateParams(params); err != nil {
		return nil, ai.WrapError("analyze finances", err)
	}

	resp, err := p.client.send(ctx, messagesRequest{
		Model:     p.model,
		MaxTokens: analysisMaxTokens,
		Messages: []apiMessage{{
			Role:    "user",
			Content: []contentBlock{{Type: "text", Text: buildFinancesPrompt(params)}},
		}},
	})
	if err != nil {
		metrics.AIAPICalls.WithLabelValues("error").Inc()
		return nil, ai.WrapError("execute request", err)
	}
	metrics.AIAPICalls.WithLabelValues("success").Inc()
	metrics.AITokensTotal.WithLabelValues("input").Add(float64(resp.Usage.InputTokens))
	metrics.AITokensTotal.WithLabelValues("output").Add(float64(resp.Usage.OutputTokens))

	insights, err := parseInsights(resp.text())
	if err != nil {
		return nil, ai.WrapError("parse response", err)
	}

	insights.Usage = ai.UsageInfo{
		Model:        p.model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		CostCents:    costCents(resp.Usage),
		Duration:     time.Since(start),
	}

	p.logger.Info("AI finance analysis completed",
		"user_id", params.UserID,
		"model", p.model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"duration", insights.Usage.Duration,
	)

	return insights, nil
}

func validateParams(params ai.FinancesParams) error {
	switch {
	case params.PeriodStart.IsZero() || params.PeriodEnd.IsZero():
		return fmt.Errorf("%w: period is required", ai.EAIInvalidInput)
	case !params.PeriodEnd.After(params.PeriodStart):
		return fmt.Errorf("%w: period end must be after start", ai.EAIInvalidInput)
	case len(params.Categories) > MaxCategories:
		return fmt.Errorf("%w: %d categories exceeds maximum %d", ai.EAIInvalidInput, len(params.Categories), MaxCategories)
	}
	return nil
}

// parseInsights decodes the model's JSON answer, tolerating prose or code
// fences around it. Missing lists become empty and unknown priorities
// become medium.
func parseInsights(text string) (*ai.Insights, error) {
	if text == "" {
		return nil, fmt.Errorf("no text content in response")
	}

	var out ai.Insights
	if err := json.Unmarshal([]byte(extractJSON(text)), &out); err != nil {
		return nil, fmt.Errorf("parse insights output: %w", err)
	}

	if out.Recommendations == nil {
		out.Recommendations = []ai.Recommendation{}
	}
	if out.Alerts == nil {
		out.Alerts = []string{}
	}
	for i := range out.Recommendations {
		if !out.Recommendations[i].Priority.Valid() {
			out.Recommendations[i].Priority = ai.PriorityMedium
		}
	}
	return &out, nil
}

// extractJSON returns the outermost {...} span of s.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func costCents(u usage) int {
	return (u.InputTokens*PricingInputCents + u.OutputTokens*PricingOutputCents) / 1_000_000
}
