// Package service contains the business logic layer.
//
// This file implements the profile service: tier lookup for every limit
// decision and the subscription fields written by billing webhooks.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/artuino0/personal-finance-app-sub000/internal/domain"
	"github.com/artuino0/personal-finance-app-sub000/internal/repository"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ProfileService defines operations on user profiles.
type ProfileService interface {
	// GetByID returns the profile for a user.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)

	// GetTier returns the subscription tier of a user. A missing profile or
	// a failed lookup yields the free tier, never a more permissive one.
	GetTier(ctx context.Context, id uuid.UUID) domain.SubscriptionTier

	// GetByStripeCustomerID returns the profile linked to a Stripe customer.
	GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.Profile, error)

	// LinkStripeCustomer stores the Stripe customer created at checkout.
	LinkStripeCustomer(ctx context.Context, id uuid.UUID, customerID string) error

	// UpdateSubscription writes tier and status after a billing event.
	UpdateSubscription(ctx context.Context, params domain.UpdateSubscriptionParams) error
}

// =============================================================================
// Implementation
// =============================================================================

type profileService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(store repository.Store, logger *slog.Logger) ProfileService {
	return &profileService{
		store:  store,
		logger: logger,
	}
}

// GetByID returns the profile for a user.
func (s *profileService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	const op = "profile.get"

	row, err := s.store.GetProfileByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "profile", id.String())
		}
		return nil, domain.Internal(err, op, "failed to get profile")
	}
	return profileFromRow(row), nil
}

// GetTier returns the subscription tier of a user, defaulting to free.
func (s *profileService) GetTier(ctx context.Context, id uuid.UUID) domain.SubscriptionTier {
	return tierFor(ctx, s.store, s.logger, id)
}

// GetByStripeCustomerID returns the profile linked to a Stripe customer.
func (s *profileService) GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.Profile, error) {
	const op = "profile.get_by_stripe_customer"

	if customerID == "" {
		return nil, domain.Invalid(op, "customer ID is required")
	}

	row, err := s.store.GetProfileByStripeCustomerID(ctx, domain.ToNullString(customerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "profile", customerID)
		}
		return nil, domain.Internal(err, op, "failed to get profile")
	}
	return profileFromRow(row), nil
}

// LinkStripeCustomer stores the Stripe customer created at checkout.
func (s *profileService) LinkStripeCustomer(ctx context.Context, id uuid.UUID, customerID string) error {
	const op = "profile.link_stripe_customer"

	if customerID == "" {
		return domain.Invalid(op, "customer ID is required")
	}
	n, err := s.store.SetProfileStripeCustomerID(ctx, repository.SetProfileStripeCustomerIDParams{
		ID:               id,
		StripeCustomerID: domain.ToNullString(customerID),
	})
	if err != nil {
		return domain.Internal(err, op, "failed to link customer")
	}
	if n == 0 {
		return domain.NotFound(op, "profile", id.String())
	}
	return nil
}

// UpdateSubscription writes tier and status after a billing event.
func (s *profileService) UpdateSubscription(ctx context.Context, params domain.UpdateSubscriptionParams) error {
	const op = "profile.update_subscription"

	err := s.store.UpdateProfileSubscription(ctx, repository.UpdateProfileSubscriptionParams{
		ID:                   params.ProfileID,
		SubscriptionTier:     string(params.Tier),
		SubscriptionStatus:   string(params.Status),
		StripeSubscriptionID: domain.ToNullString(params.SubscriptionID),
	})
	if err != nil {
		return domain.Internal(err, op, "failed to update subscription")
	}

	s.logger.Info("subscription updated",
		"profile_id", params.ProfileID,
		"tier", params.Tier,
		"status", params.Status,
	)
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// tierFor resolves the tier used for limit decisions. Shared by every
// service that needs it so the free fallback is applied in one place.
func tierFor(ctx context.Context, q repository.Querier, logger *slog.Logger, id uuid.UUID) domain.SubscriptionTier {
	row, err := q.GetProfileByID(ctx, id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Error("failed to load subscription tier, using free",
				"user_id", id,
				"error", err,
			)
		}
		return domain.SubscriptionTierFree
	}
	return domain.ParseTier(row.SubscriptionTier)
}

func profileFromRow(row repository.Profile) *domain.Profile {
	return &domain.Profile{
		ID:                   row.ID,
		Email:                row.Email,
		FullName:             domain.NullStringValue(row.FullName),
		SubscriptionTier:     domain.ParseTier(row.SubscriptionTier),
		SubscriptionStatus:   domain.SubscriptionStatus(row.SubscriptionStatus),
		StripeCustomerID:     domain.NullStringValue(row.StripeCustomerID),
		StripeSubscriptionID: domain.NullStringValue(row.StripeSubscriptionID),
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// SystemClock returns the current UTC time.
func SystemClock() time.Time {
	return time.Now().UTC()
}
