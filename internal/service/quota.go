// Package service contains the business logic layer.
//
// This file implements the quota service for checking and enforcing
// resource limits based on the owner's subscription tier.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/artuino0/personal-finance-app-sub000/internal/domain"
	"github.com/artuino0/personal-finance-app-sub000/internal/metrics"
	"github.com/artuino0/personal-finance-app-sub000/internal/repository"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// QuotaService defines operations for checking tier limits.
type QuotaService interface {
	// CheckLimit reports whether the owner may create one more resource of
	// the given kind. When the count cannot be read the returned check is
	// denied and the error is non-nil.
	CheckLimit(ctx context.Context, kind domain.ResourceKind, ownerID uuid.UUID) (*domain.LimitCheck, error)

	// EnforceLimit returns nil if a creation is allowed, a payment error if
	// the cap is reached, or the lookup error.
	EnforceLimit(ctx context.Context, kind domain.ResourceKind, ownerID uuid.UUID) error

	// Usage returns a limit check for every resource kind.
	Usage(ctx context.Context, ownerID uuid.UUID) (*domain.UsageSummary, error)

	// WithinLimit runs create inside a serializable transaction after
	// locking the owner's profile and re-checking the limit, so concurrent
	// creations cannot exceed the cap.
	WithinLimit(ctx context.Context, kind domain.ResourceKind, ownerID uuid.UUID, create func(repository.Querier) error) error
}

// =============================================================================
// Implementation
// =============================================================================

type quotaService struct {
	store  repository.Store
	logger *slog.Logger
	now    Clock
}

// NewQuotaService creates a new QuotaService.
func NewQuotaService(store repository.Store, logger *slog.Logger) QuotaService {
	return &quotaService{
		store:  store,
		logger: logger,
		now:    SystemClock,
	}
}

// CheckLimit reports whether the owner may create one more resource.
func (s *quotaService) CheckLimit(ctx context.Context, kind domain.ResourceKind, ownerID uuid.UUID) (*domain.LimitCheck, error) {
	const op = "quota.check_limit"

	tier := tierFor(ctx, s.store, s.logger, ownerID)
	check, err := s.evaluate(ctx, s.store, op, kind, ownerID, tier)
	metrics.QuotaChecked(string(kind), string(tier), check.Allowed, err)
	if err != nil {
		return check, err
	}

	if !check.Allowed {
		s.logger.Info("resource limit reached",
			"owner_id", ownerID,
			"resource", kind,
			"tier", tier,
			"count", check.Count,
		)
	}
	return check, nil
}

// EnforceLimit returns nil if a creation is allowed.
func (s *quotaService) EnforceLimit(ctx context.Context, kind domain.ResourceKind, ownerID uuid.UUID) error {
	const op = "quota.enforce_limit"

	check, err := s.CheckLimit(ctx, kind, ownerID)
	if err != nil {
		return err
	}
	return limitError(op, check)
}

// Usage returns a limit check for every resource kind.
func (s *quotaService) Usage(ctx context.Context, ownerID uuid.UUID) (*domain.UsageSummary, error) {
	const op = "quota.usage"

	tier := tierFor(ctx, s.store, s.logger, ownerID)
	summary := &domain.UsageSummary{
		Tier:      tier,
		Resources: make([]domain.LimitCheck, 0, len(domain.AllResourceKinds)),
	}

	for _, kind := range domain.AllResourceKinds {
		check, err := s.evaluate(ctx, s.store, op, kind, ownerID, tier)
		if err != nil {
			return nil, err
		}
		summary.Resources = append(summary.Resources, *check)
	}
	return summary, nil
}

// WithinLimit runs create after an atomic limit check.
func (s *quotaService) WithinLimit(ctx context.Context, kind domain.ResourceKind, ownerID uuid.UUID, create func(repository.Querier) error) error {
	const op = "quota.within_limit"

	var tier domain.SubscriptionTier
	var check *domain.LimitCheck

	err := execSerializable(ctx, s.store, func(q repository.Querier) error {
		// The row lock orders guarded creates for this owner. A create that
		// counted from a snapshot older than the lock is aborted by
		// Postgres and retried.
		check = nil
		profile, err := q.GetProfileForUpdate(ctx, ownerID)
		switch {
		case err == nil:
			tier = domain.ParseTier(profile.SubscriptionTier)
		case errors.Is(err, sql.ErrNoRows):
			tier = domain.SubscriptionTierFree
		default:
			return domain.Internal(err, op, "failed to lock owner profile")
		}

		check, err = s.evaluate(ctx, q, op, kind, ownerID, tier)
		if err != nil {
			return err
		}
		if err := limitError(op, check); err != nil {
			return err
		}
		return create(q)
	})

	switch {
	case err == nil:
		metrics.QuotaChecked(string(kind), string(tier), true, nil)
		return nil
	case domain.ErrorCode(err) == domain.EPAYMENT:
		metrics.QuotaChecked(string(kind), string(tier), false, nil)
		s.logger.Info("resource limit reached",
			"owner_id", ownerID,
			"resource", kind,
			"tier", tier,
			"count", check.Count,
		)
		return err
	}

	if check == nil || !check.Allowed {
		metrics.QuotaChecked(string(kind), string(tier), false, err)
	}
	var derr *domain.Error
	if !errors.As(err, &derr) {
		err = domain.Internal(err, op, "failed to create resource")
	}
	return err
}

// =============================================================================
// Helpers
// =============================================================================

// evaluate counts the owner's resources of one kind and applies the cap.
// The returned check is never nil; on error it is denied.
func (s *quotaService) evaluate(ctx context.Context, q repository.Querier, op string, kind domain.ResourceKind, ownerID uuid.UUID, tier domain.SubscriptionTier) (*domain.LimitCheck, error) {
	count, err := s.count(ctx, q, kind, ownerID)
	if err != nil {
		check := domain.Evaluate(kind, tier, 0)
		check.Allowed = false
		s.logger.Error("failed to count resources",
			"owner_id", ownerID,
			"resource", kind,
			"error", err,
		)
		if domain.ErrorCode(err) == domain.EINVALID {
			return &check, err
		}
		return &check, domain.Internal(err, op, "Unable to verify plan limits. Please try again.")
	}

	check := domain.Evaluate(kind, tier, count)
	return &check, nil
}

func (s *quotaService) count(ctx context.Context, q repository.Querier, kind domain.ResourceKind, ownerID uuid.UUID) (int64, error) {
	switch kind {
	case domain.ResourceKindAccount:
		return q.CountAccountsByUserID(ctx, ownerID)
	case domain.ResourceKindRecurringService:
		return q.CountActiveRecurringServicesByUserID(ctx, ownerID)
	case domain.ResourceKindActiveCredit:
		return q.CountActiveCreditsByUserID(ctx, ownerID)
	case domain.ResourceKindSharedUser:
		return q.CountSharedUsersByOwnerID(ctx, repository.CountSharedUsersByOwnerIDParams{
			OwnerID: ownerID,
			Now:     s.now(),
		})
	default:
		return 0, domain.Invalid("quota.count", fmt.Sprintf("unknown resource kind %q", kind))
	}
}

// limitError converts a denied check into a payment error.
func limitError(op string, check *domain.LimitCheck) error {
	if check.Allowed {
		return nil
	}
	var limit int64
	if check.Limit != nil {
		limit = *check.Limit
	}
	return domain.QuotaExceeded(op, check.Kind, check.Count, limit)
}
