// This file defines the AI financial analysis history and the tier-dependent
// window that gates how often an analysis may run.

package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	// FreeAnalysisWindow is the free tier's "one analysis per month". It is
	// a fixed 30 days rather than a calendar month, so the cooldown does not
	// shrink to 28 days across February or grow to 31 in long months.
	FreeAnalysisWindow = 30 * 24 * time.Hour

	// ProAnalysisWindow allows one analysis per 7 days on the pro tier.
	ProAnalysisWindow = 7 * 24 * time.Hour

	// DefaultAnalysisPeriod is the transaction period analyzed when the
	// caller does not pick one.
	DefaultAnalysisPeriod = 30 * 24 * time.Hour
)

// AnalysisWindow returns the cooldown window for a tier from its limits.
// The second result is false when the tier's analyses are unlimited.
func AnalysisWindow(tier SubscriptionTier) (time.Duration, bool) {
	limits := LimitsFor(tier)
	if limits.AIAnalysesPerMonth.IsUnlimited() {
		return 0, false
	}
	return limits.AnalysisWindow, true
}

// AnalysisGate is the outcome of the analysis rate limit check.
type AnalysisGate struct {
	Allowed         bool             `json:"allowed"`
	Tier            SubscriptionTier `json:"tier"`
	NextAvailableAt *time.Time       `json:"next_available_at"`
}

// AnalysisHistoryEntry records one completed analysis. Entries are never
// mutated.
type AnalysisHistoryEntry struct {
	ID          uuid.UUID        `json:"id"`
	UserID      uuid.UUID        `json:"user_id"`
	Tier        SubscriptionTier `json:"tier"`
	PeriodStart time.Time        `json:"period_start"`
	PeriodEnd   time.Time        `json:"period_end"`
	Response    json.RawMessage  `json:"response"`
	CreatedAt   time.Time        `json:"created_at"`
}

// RunAnalysisParams contains parameters for running an analysis. Zero
// period bounds default to the last DefaultAnalysisPeriod.
type RunAnalysisParams struct {
	UserID      uuid.UUID
	PeriodStart time.Time
	PeriodEnd   time.Time
}
