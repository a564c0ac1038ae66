// Package service contains the business logic layer.
//
// This file implements quota-guarded creation of accounts, recurring
// services and credits, on behalf of the owner or a shared user.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/artuino0/personal-finance-app-sub000/internal/domain"
	"github.com/artuino0/personal-finance-app-sub000/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ResourceService creates resources counted against tier limits.
type ResourceService interface {
	// Create checks the actor's share permissions when acting on someone
	// else's account, then creates the resource against the owner's quota.
	Create(ctx context.Context, params domain.CreateResourceParams) (*domain.Resource, error)
}

// =============================================================================
// Implementation
// =============================================================================

type resourceService struct {
	quota   QuotaService
	sharing SharingService
	logger  *slog.Logger
}

// NewResourceService creates a new ResourceService.
func NewResourceService(quota QuotaService, sharing SharingService, logger *slog.Logger) ResourceService {
	return &resourceService{
		quota:   quota,
		sharing: sharing,
		logger:  logger,
	}
}

// Create creates an account, recurring service or active credit.
func (s *resourceService) Create(ctx context.Context, params domain.CreateResourceParams) (*domain.Resource, error) {
	const op = "resource.create"

	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return nil, domain.Invalid(op, "name is required")
	}
	if params.AmountCents < 0 {
		return nil, domain.Invalid(op, "amount must not be negative")
	}

	resourceType, ok := params.Kind.ShareResource()
	if !ok {
		return nil, domain.Invalid(op, fmt.Sprintf("resource kind %q cannot be created here", params.Kind))
	}

	if params.ActorID != params.OwnerID {
		perms, err := s.sharing.ResolvePermissions(ctx, params.OwnerID, resourceType, params.ActorID)
		if err != nil {
			return nil, err
		}
		if !perms.Create {
			s.logger.Info("create denied by share permissions",
				"owner_id", params.OwnerID,
				"actor_id", params.ActorID,
				"resource", resourceType,
			)
			return nil, domain.Forbidden(op, "You do not have permission to create this resource")
		}
	}

	var created *domain.Resource
	err := s.quota.WithinLimit(ctx, params.Kind, params.OwnerID, func(q repository.Querier) error {
		var err error
		created, err = insertResource(ctx, q, params)
		if err != nil {
			return domain.Internal(err, op, "failed to create resource")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("resource created",
		"resource_id", created.ID,
		"kind", created.Kind,
		"owner_id", params.OwnerID,
		"actor_id", params.ActorID,
	)
	return created, nil
}

func insertResource(ctx context.Context, q repository.Querier, params domain.CreateResourceParams) (*domain.Resource, error) {
	switch params.Kind {
	case domain.ResourceKindAccount:
		currency := strings.ToUpper(strings.TrimSpace(params.Currency))
		if currency == "" {
			currency = domain.DefaultCurrency
		}
		row, err := q.CreateAccount(ctx, repository.CreateAccountParams{
			UserID:   params.OwnerID,
			Name:     params.Name,
			Currency: currency,
		})
		if err != nil {
			return nil, err
		}
		return &domain.Resource{
			ID:        row.ID,
			Kind:      params.Kind,
			OwnerID:   row.UserID,
			Name:      row.Name,
			Currency:  row.Currency,
			CreatedAt: row.CreatedAt,
		}, nil

	case domain.ResourceKindRecurringService:
		row, err := q.CreateRecurringService(ctx, repository.CreateRecurringServiceParams{
			UserID:      params.OwnerID,
			Name:        params.Name,
			AmountCents: params.AmountCents,
		})
		if err != nil {
			return nil, err
		}
		return &domain.Resource{
			ID:          row.ID,
			Kind:        params.Kind,
			OwnerID:     row.UserID,
			Name:        row.Name,
			AmountCents: row.AmountCents,
			CreatedAt:   row.CreatedAt,
		}, nil

	case domain.ResourceKindActiveCredit:
		row, err := q.CreateCredit(ctx, repository.CreateCreditParams{
			UserID:      params.OwnerID,
			Name:        params.Name,
			AmountCents: params.AmountCents,
		})
		if err != nil {
			return nil, err
		}
		return &domain.Resource{
			ID:          row.ID,
			Kind:        params.Kind,
			OwnerID:     row.UserID,
			Name:        row.Name,
			AmountCents: row.AmountCents,
			CreatedAt:   row.CreatedAt,
		}, nil
	}
	return nil, fmt.Errorf("unsupported resource kind %q", params.Kind)
}
