package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/artuino0/personal-finance-app-sub000/internal/auth"
	"github.com/artuino0/personal-finance-app-sub000/internal/billing"
	"github.com/artuino0/personal-finance-app-sub000/internal/domain"
	"github.com/artuino0/personal-finance-app-sub000/internal/repository"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
)

// =============================================================================
// Test helpers
// =============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withCaller attaches an authenticated identity and active account to r.
func withCaller(r *http.Request, id *domain.Identity, account uuid.UUID) *http.Request {
	ctx := auth.SetIdentity(r.Context(), id)
	ctx = auth.SetActiveAccount(ctx, account)
	return r.WithContext(ctx)
}

func newIdentity() *domain.Identity {
	return &domain.Identity{UserID: uuid.New(), Email: "ana@example.com"}
}

// =============================================================================
// Mock QuotaService
// =============================================================================

type mockQuotaService struct {
	CheckLimitFunc   func(ctx context.Context, kind domain.ResourceKind, ownerID uuid.UUID) (*domain.LimitCheck, error)
	EnforceLimitFunc func(ctx context.Context, kind domain.ResourceKind, ownerID uuid.UUID) error
	UsageFunc        func(ctx context.Context, ownerID uuid.UUID) (*domain.UsageSummary, error)
	WithinLimitFunc  func(ctx context.Context, kind domain.ResourceKind, ownerID uuid.UUID, create func(repository.Querier) error) error
}

func (m *mockQuotaService) CheckLimit(ctx context.Context, kind domain.ResourceKind, ownerID uuid.UUID) (*domain.LimitCheck, error) {
	if m.CheckLimitFunc != nil {
		return m.CheckLimitFunc(ctx, kind, ownerID)
	}
	return nil, errors.New("CheckLimitFunc not implemented")
}

func (m *mockQuotaService) EnforceLimit(ctx context.Context, kind domain.ResourceKind, ownerID uuid.UUID) error {
	if m.EnforceLimitFunc != nil {
		return m.EnforceLimitFunc(ctx, kind, ownerID)
	}
	return errors.New("EnforceLimitFunc not implemented")
}

func (m *mockQuotaService) Usage(ctx context.Context, ownerID uuid.UUID) (*domain.UsageSummary, error) {
	if m.UsageFunc != nil {
		return m.UsageFunc(ctx, ownerID)
	}
	return nil, errors.New("UsageFunc not implemented")
}

func (m *mockQuotaService) WithinLimit(ctx context.Context, kind domain.ResourceKind, ownerID uuid.UUID, create func(repository.Querier) error) error {
	if m.WithinLimitFunc != nil {
		return m.WithinLimitFunc(ctx, kind, ownerID, create)
	}
	return errors.New("WithinLimitFunc not implemented")
}

// =============================================================================
// Mock SharingService
// =============================================================================

type mockSharingService struct {
	ResolveActiveAccountFunc func(ctx context.Context, requesterID uuid.UUID, selected *uuid.UUID) uuid.UUID
	ResolvePermissionsFunc   func(ctx context.Context, targetAccountID uuid.UUID, resourceType domain.ResourceType, requesterID uuid.UUID) (domain.Permissions, error)
	ResolvePermissionSetFunc func(ctx context.Context, targetAccountID, requesterID uuid.UUID, resourceTypes []domain.ResourceType) (domain.PermissionMap, error)
	CreateInvitationFunc     func(ctx context.Context, params domain.CreateInvitationParams) (*domain.ShareInvitation, string, error)
	AcceptInvitationFunc     func(ctx context.Context, token string, userID uuid.UUID, userEmail string) (*domain.AccountShare, error)
	RejectInvitationFunc     func(ctx context.Context, token string, userID uuid.UUID, userEmail string) error
	ListInvitationsFunc      func(ctx context.Context, ownerID uuid.UUID) ([]domain.ShareInvitation, error)
	ListSharesFunc           func(ctx context.Context, ownerID uuid.UUID) ([]domain.AccountShare, error)
	ListSharedWithMeFunc     func(ctx context.Context, userID uuid.UUID) ([]domain.AccountShare, error)
	RevokeShareFunc          func(ctx context.Context, ownerID, shareID uuid.UUID) error
	UpdatePermissionsFunc    func(ctx context.Context, ownerID, shareID uuid.UUID, perms domain.PermissionMap) (*domain.AccountShare, error)
	PurgeExpiredFunc         func(ctx context.Context, retention time.Duration) (int64, error)
}

func (m *mockSharingService) ResolveActiveAccount(ctx context.Context, requesterID uuid.UUID, selected *uuid.UUID) uuid.UUID {
	if m.ResolveActiveAccountFunc != nil {
		return m.ResolveActiveAccountFunc(ctx, requesterID, selected)
	}
	return requesterID
}

func (m *mockSharingService) ResolvePermissions(ctx context.Context, targetAccountID uuid.UUID, resourceType domain.ResourceType, requesterID uuid.UUID) (domain.Permissions, error) {
	if m.ResolvePermissionsFunc != nil {
		return m.ResolvePermissionsFunc(ctx, targetAccountID, resourceType, requesterID)
	}
	return domain.Permissions{}, errors.New("ResolvePermissionsFunc not implemented")
}

func (m *mockSharingService) ResolvePermissionSet(ctx context.Context, targetAccountID, requesterID uuid.UUID, resourceTypes []domain.ResourceType) (domain.PermissionMap, error) {
	if m.ResolvePermissionSetFunc != nil {
		return m.ResolvePermissionSetFunc(ctx, targetAccountID, requesterID, resourceTypes)
	}
	return nil, errors.New("ResolvePermissionSetFunc not implemented")
}

func (m *mockSharingService) CreateInvitation(ctx context.Context, params domain.CreateInvitationParams) (*domain.ShareInvitation, string, error) {
	if m.CreateInvitationFunc != nil {
		return m.CreateInvitationFunc(ctx, params)
	}
	return nil, "", errors.New("CreateInvitationFunc not implemented")
}

func (m *mockSharingService) AcceptInvitation(ctx context.Context, token string, userID uuid.UUID, userEmail string) (*domain.AccountShare, error) {
	if m.AcceptInvitationFunc != nil {
		return m.AcceptInvitationFunc(ctx, token, userID, userEmail)
	}
	return nil, errors.New("AcceptInvitationFunc not implemented")
}

func (m *mockSharingService) RejectInvitation(ctx context.Context, token string, userID uuid.UUID, userEmail string) error {
	if m.RejectInvitationFunc != nil {
		return m.RejectInvitationFunc(ctx, token, userID, userEmail)
	}
	return errors.New("RejectInvitationFunc not implemented")
}

func (m *mockSharingService) ListInvitations(ctx context.Context, ownerID uuid.UUID) ([]domain.ShareInvitation, error) {
	if m.ListInvitationsFunc != nil {
		return m.ListInvitationsFunc(ctx, ownerID)
	}
	return nil, errors.New("ListInvitationsFunc not implemented")
}

func (m *mockSharingService) ListShares(ctx context.Context, ownerID uuid.UUID) ([]domain.AccountShare, error) {
	if m.ListSharesFunc != nil {
		return m.ListSharesFunc(ctx, ownerID)
	}
	return nil, errors.New("ListSharesFunc not implemented")
}

func (m *mockSharingService) ListSharedWithMe(ctx context.Context, userID uuid.UUID) ([]domain.AccountShare, error) {
	if m.ListSharedWithMeFunc != nil {
		return m.ListSharedWithMeFunc(ctx, userID)
	}
	return nil, errors.New("ListSharedWithMeFunc not implemented")
}

func (m *mockSharingService) RevokeShare(ctx context.Context, ownerID, shareID uuid.UUID) error {
	if m.RevokeShareFunc != nil {
		return m.RevokeShareFunc(ctx, ownerID, shareID)
	}
	return errors.New("RevokeShareFunc not implemented")
}

func (m *mockSharingService) UpdatePermissions(ctx context.Context, ownerID, shareID uuid.UUID, perms domain.PermissionMap) (*domain.AccountShare, error) {
	if m.UpdatePermissionsFunc != nil {
		return m.UpdatePermissionsFunc(ctx, ownerID, shareID, perms)
	}
	return nil, errors.New("UpdatePermissionsFunc not implemented")
}

func (m *mockSharingService) PurgeExpiredInvitations(ctx context.Context, retention time.Duration) (int64, error) {
	if m.PurgeExpiredFunc != nil {
		return m.PurgeExpiredFunc(ctx, retention)
	}
	return 0, errors.New("PurgeExpiredFunc not implemented")
}

// =============================================================================
// Mock ResourceService
// =============================================================================

type mockResourceService struct {
	CreateFunc func(ctx context.Context, params domain.CreateResourceParams) (*domain.Resource, error)
}

func (m *mockResourceService) Create(ctx context.Context, params domain.CreateResourceParams) (*domain.Resource, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, errors.New("CreateFunc not implemented")
}

// =============================================================================
// Mock AnalysisService
// =============================================================================

type mockAnalysisService struct {
	CanRunAnalysisFunc func(ctx context.Context, userID uuid.UUID, tier domain.SubscriptionTier) (*domain.AnalysisGate, error)
	RunFunc            func(ctx context.Context, params domain.RunAnalysisParams) (*domain.AnalysisHistoryEntry, error)
	HistoryFunc        func(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AnalysisHistoryEntry, error)
}

func (m *mockAnalysisService) CanRunAnalysis(ctx context.Context, userID uuid.UUID, tier domain.SubscriptionTier) (*domain.AnalysisGate, error) {
	if m.CanRunAnalysisFunc != nil {
		return m.CanRunAnalysisFunc(ctx, userID, tier)
	}
	return nil, errors.New("CanRunAnalysisFunc not implemented")
}

func (m *mockAnalysisService) Run(ctx context.Context, params domain.RunAnalysisParams) (*domain.AnalysisHistoryEntry, error) {
	if m.RunFunc != nil {
		return m.RunFunc(ctx, params)
	}
	return nil, errors.New("RunFunc not implemented")
}

func (m *mockAnalysisService) History(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AnalysisHistoryEntry, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, userID, limit)
	}
	return nil, errors.New("HistoryFunc not implemented")
}

// =============================================================================
// Mock ProfileService
// =============================================================================

type mockProfileService struct {
	GetByIDFunc               func(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	GetTierFunc               func(ctx context.Context, id uuid.UUID) domain.SubscriptionTier
	GetByStripeCustomerIDFunc func(ctx context.Context, customerID string) (*domain.Profile, error)
	LinkStripeCustomerFunc    func(ctx context.Context, id uuid.UUID, customerID string) error
	UpdateSubscriptionFunc    func(ctx context.Context, params domain.UpdateSubscriptionParams) error
}

func (m *mockProfileService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, errors.New("GetByIDFunc not implemented")
}

func (m *mockProfileService) GetTier(ctx context.Context, id uuid.UUID) domain.SubscriptionTier {
	if m.GetTierFunc != nil {
		return m.GetTierFunc(ctx, id)
	}
	return domain.SubscriptionTierFree
}

func (m *mockProfileService) GetByStripeCustomerID(ctx context.Context, customerID string) (*domain.Profile, error) {
	if m.GetByStripeCustomerIDFunc != nil {
		return m.GetByStripeCustomerIDFunc(ctx, customerID)
	}
	return nil, errors.New("GetByStripeCustomerIDFunc not implemented")
}

func (m *mockProfileService) LinkStripeCustomer(ctx context.Context, id uuid.UUID, customerID string) error {
	if m.LinkStripeCustomerFunc != nil {
		return m.LinkStripeCustomerFunc(ctx, id, customerID)
	}
	return errors.New("LinkStripeCustomerFunc not implemented")
}

func (m *mockProfileService) UpdateSubscription(ctx context.Context, params domain.UpdateSubscriptionParams) error {
	if m.UpdateSubscriptionFunc != nil {
		return m.UpdateSubscriptionFunc(ctx, params)
	}
	return errors.New("UpdateSubscriptionFunc not implemented")
}

// =============================================================================
// Mock billing.Service
// =============================================================================

type mockBilling struct {
	CreateCheckoutSessionFunc func(params billing.CheckoutParams) (string, error)
	CreatePortalSessionFunc   func(customerID, returnURL string) (string, error)
	VerifyFunc                func(payload []byte, signature string) (stripe.Event, error)
	prices                    map[string]domain.SubscriptionTier
}

func (m *mockBilling) CreateCheckoutSession(params billing.CheckoutParams) (string, error) {
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(params)
	}
	return "", errors.New("CreateCheckoutSessionFunc not implemented")
}

func (m *mockBilling) CreatePortalSession(customerID, returnURL string) (string, error) {
	if m.CreatePortalSessionFunc != nil {
		return m.CreatePortalSessionFunc(customerID, returnURL)
	}
	return "", errors.New("CreatePortalSessionFunc not implemented")
}

func (m *mockBilling) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(payload, signature)
	}
	return stripe.Event{}, errors.New("VerifyFunc not implemented")
}

func (m *mockBilling) TierForPriceID(priceID string) (domain.SubscriptionTier, bool) {
	tier, ok := m.prices[priceID]
	return tier, ok
}

func (m *mockBilling) PriceID(tier domain.SubscriptionTier, interval billing.Interval) (string, bool) {
	for id, t := range m.prices {
		if t == tier && interval == billing.IntervalMonthly {
			return id, true
		}
	}
	return "", false
}
