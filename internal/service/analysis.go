// Package service contains the business logic layer.
//
// This file implements the AI analysis service: the rolling-window gate,
// the analysis run and the history it appends to.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/artuino0/personal-finance-app-sub000/internal/ai"
	"github.com/artuino0/personal-finance-app-sub000/internal/domain"
	"github.com/artuino0/personal-finance-app-sub000/internal/metrics"
	"github.com/artuino0/personal-finance-app-sub000/internal/repository"
	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const (
	// DefaultHistoryLimit is the number of entries History returns by default.
	DefaultHistoryLimit = 10

	// MaxHistoryLimit caps the entries History returns.
	MaxHistoryLimit = 50
)

// =============================================================================
// Interface Definition
// =============================================================================

// AnalysisService defines operations for AI financial analysis.
type AnalysisService interface {
	// CanRunAnalysis reports whether the user may run an analysis now. At
	// most one analysis runs per tier window; premium has no window. When
	// history cannot be read the gate is closed and the error is non-nil.
	CanRunAnalysis(ctx context.Context, userID uuid.UUID, tier domain.SubscriptionTier) (*domain.AnalysisGate, error)

	// Run gates, analyzes the period and appends the result to history.
	Run(ctx context.Context, params domain.RunAnalysisParams) (*domain.AnalysisHistoryEntry, error)

	// History returns the user's most recent analyses, newest first.
	History(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AnalysisHistoryEntry, error)
}

// =============================================================================
// Implementation
// =============================================================================

type analysisService struct {
	store    repository.Store
	provider ai.AIProvider
	logger   *slog.Logger
	now      Clock
}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService(store repository.Store, provider ai.AIProvider, logger *slog.Logger) AnalysisService {
	return &analysisService{
		store:    store,
		provider: provider,
		logger:   logger,
		now:      SystemClock,
	}
}

// CanRunAnalysis reports whether the user may run an analysis now.
func (s *analysisService) CanRunAnalysis(ctx context.Context, userID uuid.UUID, tier domain.SubscriptionTier) (*domain.AnalysisGate, error) {
	gate, err := s.gate(ctx, s.store, userID, tier, s.now())
	metrics.AnalysisGated(string(tier), gate.Allowed, err)
	return gate, err
}

// Run gates, analyzes the period and appends the result to history.
func (s *analysisService) Run(ctx context.Context, params domain.RunAnalysisParams) (*domain.AnalysisHistoryEntry, error) {
	const op = "analysis.run"

	now := s.now()
	if params.PeriodEnd.IsZero() {
		params.PeriodEnd = now
	}
	if params.PeriodStart.IsZero() {
		params.PeriodStart = params.PeriodEnd.Add(-domain.DefaultAnalysisPeriod)
	}
	if !params.PeriodEnd.After(params.PeriodStart) {
		return nil, domain.Invalid(op, "period end must be after period start")
	}

	tier := tierFor(ctx, s.store, s.logger, params.UserID)

	// The gate runs before the provider call so a denied or failed check
	// never reaches the paid API.
	gate, err := s.CanRunAnalysis(ctx, params.UserID, tier)
	if err != nil {
		return nil, err
	}
	if !gate.Allowed {
		s.logger.Info("analysis denied by cooldown",
			"user_id", params.UserID,
			"tier", tier,
		)
		return nil, cooldownError(op, gate)
	}

	rows, err := s.store.SummarizeTransactionsByCategory(ctx, repository.SummarizeTransactionsByCategoryParams{
		UserID:       params.UserID,
		OccurredAt:   params.PeriodStart,
		OccurredAt_2: params.PeriodEnd,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to summarize transactions")
	}

	categories := make([]ai.CategoryTotal, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, ai.CategoryTotal{
			Type:       ai.TransactionType(row.Type),
			Category:   row.Category,
			TotalCents: row.TotalCents,
			Count:      row.TxCount,
		})
	}

	insights, err := s.provider.AnalyzeFinances(ctx, ai.FinancesParams{
		UserID:      params.UserID,
		PeriodStart: params.PeriodStart,
		PeriodEnd:   params.PeriodEnd,
		Currency:    domain.DefaultCurrency,
		Categories:  categories,
	})
	if err != nil {
		s.logger.Error("AI analysis failed", "user_id", params.UserID, "error", err)
		if ai.IsRetryable(err) {
			return nil, domain.Internal(err, op, "The analysis service is busy. Please try again in a few minutes.")
		}
		return nil, domain.Internal(err, op, "The analysis could not be completed.")
	}

	response, err := json.Marshal(insights)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode analysis")
	}

	var entry *domain.AnalysisHistoryEntry
	err = execSerializable(ctx, s.store, func(q repository.Querier) error {
		// Concurrent runs that both passed the gate serialize here; only
		// the first is recorded. A retried attempt sees the winner's row.
		if _, err := q.GetProfileForUpdate(ctx, params.UserID); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return domain.Internal(err, op, "failed to lock profile")
		}
		createdAt := s.now()
		recheck, err := s.gate(ctx, q, params.UserID, tier, createdAt)
		if err != nil {
			return err
		}
		if !recheck.Allowed {
			return cooldownError(op, recheck)
		}

		row, err := q.CreateAnalysis(ctx, repository.CreateAnalysisParams{
			UserID:      params.UserID,
			Tier:        string(tier),
			PeriodStart: params.PeriodStart,
			PeriodEnd:   params.PeriodEnd,
			Response:    pqtype.NullRawMessage{RawMessage: response, Valid: true},
			CreatedAt:   createdAt,
		})
		if err != nil {
			return domain.Internal(err, op, "failed to record analysis")
		}
		entry = historyFromRow(row)
		return nil
	})
	if err != nil {
		return nil, wrapTxError(err, op)
	}

	s.logger.Info("analysis completed",
		"analysis_id", entry.ID,
		"user_id", params.UserID,
		"tier", tier,
		"categories", len(categories),
	)
	return entry, nil
}

// History returns the user's most recent analyses.
func (s *analysisService) History(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AnalysisHistoryEntry, error) {
	const op = "analysis.history"

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	rows, err := s.store.ListAnalysesByUser(ctx, repository.ListAnalysesByUserParams{
		UserID: userID,
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list analyses")
	}

	entries := make([]domain.AnalysisHistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, *historyFromRow(row))
	}
	return entries, nil
}

// =============================================================================
// Helpers
// =============================================================================

// gate evaluates the window at now. The returned gate is never nil.
func (s *analysisService) gate(ctx context.Context, q repository.Querier, userID uuid.UUID, tier domain.SubscriptionTier, now time.Time) (*domain.AnalysisGate, error) {
	const op = "analysis.can_run"

	gate := &domain.AnalysisGate{Tier: tier}

	window, limited := domain.AnalysisWindow(tier)
	if !limited {
		gate.Allowed = true
		return gate, nil
	}

	count, err := q.CountAnalysesSince(ctx, repository.CountAnalysesSinceParams{
		UserID:    userID,
		CreatedAt: now.Add(-window),
	})
	if err != nil {
		s.logger.Error("failed to count analyses", "user_id", userID, "error", err)
		return gate, domain.Internal(err, op, "Unable to check analysis availability. Please try again.")
	}
	if count == 0 {
		gate.Allowed = true
		return gate, nil
	}

	latest, err := q.GetLatestAnalysis(ctx, userID)
	if err != nil {
		// Still denied; only the retry time is unknown.
		s.logger.Error("failed to load latest analysis", "user_id", userID, "error", err)
		return gate, nil
	}
	next := latest.CreatedAt.Add(window)
	gate.NextAvailableAt = &next
	return gate, nil
}

func cooldownError(op string, gate *domain.AnalysisGate) error {
	if gate.NextAvailableAt == nil {
		return domain.RateLimit(op)
	}
	return domain.AnalysisCooldown(op, *gate.NextAvailableAt)
}

func historyFromRow(row repository.AiAnalysisHistory) *domain.AnalysisHistoryEntry {
	entry := &domain.AnalysisHistoryEntry{
		ID:          row.ID,
		UserID:      row.UserID,
		Tier:        domain.ParseTier(row.Tier),
		PeriodStart: row.PeriodStart,
		PeriodEnd:   row.PeriodEnd,
		CreatedAt:   row.CreatedAt,
	}
	if row.Response.Valid {
		entry.Response = json.RawMessage(row.Response.RawMessage)
	}
	return entry
}
