package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AIProvider defines the interface for AI-powered personal finance analysis
type AIProvider interface {
	// AnalyzeFinances reviews a period of categorized income and expenses
	// and returns a summary with recommendations
	AnalyzeFinances(ctx context.Context, params FinancesParams) (*Insights, error)
}

// FinancesParams contains the aggregated data sent to the model. Only
// category totals leave the service, never individual transactions.
type FinancesParams struct {
	UserID      uuid.UUID       // User ID for usage tracking
	PeriodStart time.Time       // Inclusive start of the analyzed period
	PeriodEnd   time.Time       // Exclusive end of the analyzed period
	Currency    string          // ISO 4217 code used for formatting amounts
	Categories  []CategoryTotal // Totals per transaction type and category
}

// CategoryTotal is the sum of one category's transactions in the period
type CategoryTotal struct {
	Type       TransactionType // income or expense
	Category   string          // Category label as entered by the user
	TotalCents int64           // Sum of amounts in minor units
	Count      int64           // Number of transactions
}

// TransactionType separates money in from money out
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Totals returns income and expense sums across all categories
func (p FinancesParams) Totals() (incomeCents, expenseCents int64) {
	for _, c := range p.Categories {
		switch c.Type {
		case TransactionIncome:
			incomeCents += c.TotalCents
		case TransactionExpense:
			expenseCents += c.TotalCents
		}
	}
	return incomeCents, expenseCents
}

// Insights contains the model's review of a period
type Insights struct {
	Summary         string           `json:"summary"`         // Short narrative of the period
	Recommendations []Recommendation `json:"recommendations"` // Suggested actions
	Alerts          []string         `json:"alerts"`          // Spending patterns that need attention
	Usage           UsageInfo        `json:"-"`               // Token usage and cost information
}

// Recommendation is a single suggested action
type Recommendation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// UsageInfo tracks API usage for billing and monitoring
type UsageInfo struct {
	Model        string        // AI model used
	InputTokens  int           // Tokens in the request
	OutputTokens int           // Tokens in the response
	CostCents    int           // Estimated cost in cents
	Duration     time.Duration // Request duration
}

// Priority of a recommendation
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid checks if the priority is valid
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// ProviderConfig contains common configuration for AI providers
type ProviderConfig struct {
	MaxRetries     int           // Maximum retry attempts for transient errors
	RetryBaseDelay time.Duration // Base delay for exponential backoff
	RequestTimeout time.Duration // Timeout for individual requests
}

// Error codes for AI provider operations
var (
	// EAIRateLimit indicates the API rate limit has been exceeded
	EAIRateLimit = errors.New("ai provider rate limit exceeded")

	// EAIInvalidInput indicates the request could not be built from the input
	EAIInvalidInput = errors.New("invalid analysis input")

	// EAIContentPolicy indicates the request was refused by the provider
	EAIContentPolicy = errors.New("request violates content policy")

	// EAITimeout indicates the request timed out
	EAITimeout = errors.New("ai request timed out")

	// EAIUnavailable indicates the AI service is temporarily unavailable
	EAIUnavailable = errors.New("ai service temporarily unavailable")

	// EAIUnauthorized indicates invalid API credentials
	EAIUnauthorized = errors.New("ai provider authentication failed")
)

// IsRetryable returns true if the error is a transient error that can be retried
func IsRetryable(err error) bool {
	return errors.Is(err, EAIRateLimit) ||
		errors.Is(err, EAITimeout) ||
		errors.Is(err, EAIUnavailable)
}

// WrapError wraps an error with context about the AI operation
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}
