package mock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/artuino0/personal-finance-app-sub000/internal/ai"
)

// Provider is a mock AI provider for testing and development
type Provider struct {
	logger *slog.Logger

	mu sync.Mutex

	// Configurable responses for testing
	AnalyzeFinancesResponse *ai.Insights
	AnalyzeFinancesError    error

	// Call tracking for testing
	AnalyzeFinancesCalls int
	LastParams           ai.FinancesParams
}

// New creates a new mock AI provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger: logger,
	}
}

// AnalyzeFinances returns a canned response derived from the period totals
func (p *Provider) AnalyzeFinances(ctx context.Context, params ai.FinancesParams) (*ai.Insights, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.AnalyzeFinancesCalls++
	p.LastParams = params

	// If a custom response or error is set, use it
	if p.AnalyzeFinancesError != nil {
		return nil, p.AnalyzeFinancesError
	}
	if p.AnalyzeFinancesResponse != nil {
		return p.AnalyzeFinancesResponse, nil
	}

	if p.logger != nil {
		p.logger.Debug("mock AI analysis", "user_id", params.UserID, "categories", len(params.Categories))
	}

	income, expense := params.Totals()
	insights := &ai.Insights{
		Summary: "Resumen de prueba: tus gastos del periodo se mantienen dentro de tus ingresos.",
		Recommendations: []ai.Recommendation{
			{
				Title:       "Crea un fondo de emergencia",
				Description: "Aparta al menos el 10% de tus ingresos cada mes hasta cubrir tres meses de gastos.",
				Priority:    ai.PriorityHigh,
			},
			{
				Title:       "Revisa tus suscripciones",
				Description: "Cancela los servicios recurrentes que no hayas usado en el último mes.",
				Priority:    ai.PriorityMedium,
			},
		},
		Alerts: []string{},
		Usage: ai.UsageInfo{
			Model:        "mock-ai-v1",
			InputTokens:  600,
			OutputTokens: 300,
			CostCents:    1,
			Duration:     100 * time.Millisecond,
		},
	}
	if expense > income {
		insights.Summary = "Resumen de prueba: tus gastos superaron tus ingresos en el periodo."
		insights.Alerts = append(insights.Alerts, "Balance negativo en el periodo")
	}

	return insights, nil
}

// Calls returns the number of AnalyzeFinances calls
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.AnalyzeFinancesCalls
}

// Reset clears call counters and custom responses for testing
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.AnalyzeFinancesCalls = 0
	p.LastParams = ai.FinancesParams{}
	p.AnalyzeFinancesResponse = nil
	p.AnalyzeFinancesError = nil
}
