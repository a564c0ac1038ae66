package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/artuino0/personal-finance-app-sub000/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountHandler(q *mockQuotaService, s *mockSharingService, res *mockResourceService) (*AccountHandler, *http.ServeMux) {
	h := NewAccountHandler(q, s, res, discardLogger())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, func(next http.Handler) http.Handler { return next })
	return h, mux
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestAccountHandler_Context(t *testing.T) {
	caller := newIdentity()
	owner := uuid.New()
	shares := []domain.AccountShare{{ID: uuid.New(), OwnerID: owner, SharedWithID: caller.UserID, IsActive: true}}

	sharing := &mockSharingService{
		ListSharedWithMeFunc: func(ctx context.Context, userID uuid.UUID) ([]domain.AccountShare, error) {
			assert.Equal(t, caller.UserID, userID)
			return shares, nil
		},
	}
	_, mux := newAccountHandler(&mockQuotaService{}, sharing, &mockResourceService{})

	t.Run("shared account", func(t *testing.T) {
		req := withCaller(httptest.NewRequest("GET", "/api/context", nil), caller, owner)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			AccountID    uuid.UUID             `json:"account_id"`
			IsOwn        bool                  `json:"is_own"`
			SharedWithMe []domain.AccountShare `json:"shared_with_me"`
		}
		decodeBody(t, rec, &body)
		assert.Equal(t, owner, body.AccountID)
		assert.False(t, body.IsOwn)
		assert.Len(t, body.SharedWithMe, 1)
	})

	t.Run("own account", func(t *testing.T) {
		req := withCaller(httptest.NewRequest("GET", "/api/context", nil), caller, caller.UserID)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"is_own":true`)
	})
}

func TestAccountHandler_RequiresIdentity(t *testing.T) {
	_, mux := newAccountHandler(&mockQuotaService{}, &mockSharingService{}, &mockResourceService{})

	for _, path := range []string{"/api/context", "/api/limits", "/api/permissions"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestAccountHandler_Usage(t *testing.T) {
	caller := newIdentity()
	owner := uuid.New()
	three := int64(3)

	quota := &mockQuotaService{
		UsageFunc: func(ctx context.Context, ownerID uuid.UUID) (*domain.UsageSummary, error) {
			assert.Equal(t, owner, ownerID, "usage is reported for the active account")
			return &domain.UsageSummary{
				Tier: domain.SubscriptionTierFree,
				Resources: []domain.LimitCheck{
					{Kind: domain.ResourceKindAccount, Allowed: true, Count: 1, Limit: &three, Tier: domain.SubscriptionTierFree},
				},
			}, nil
		},
	}
	_, mux := newAccountHandler(quota, &mockSharingService{}, &mockResourceService{})

	req := withCaller(httptest.NewRequest("GET", "/api/limits", nil), caller, owner)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body domain.UsageSummary
	decodeBody(t, rec, &body)
	assert.Equal(t, domain.SubscriptionTierFree, body.Tier)
	require.Len(t, body.Resources, 1)
	assert.Equal(t, int64(3), *body.Resources[0].Limit)
}

func TestAccountHandler_CheckLimit(t *testing.T) {
	caller := newIdentity()

	t.Run("unlimited serializes as null", func(t *testing.T) {
		quota := &mockQuotaService{
			CheckLimitFunc: func(ctx context.Context, kind domain.ResourceKind, ownerID uuid.UUID) (*domain.LimitCheck, error) {
				assert.Equal(t, domain.ResourceKindRecurringService, kind)
				return &domain.LimitCheck{Kind: kind, Allowed: true, Count: 40, Tier: domain.SubscriptionTierPremium}, nil
			},
		}
		_, mux := newAccountHandler(quota, &mockSharingService{}, &mockResourceService{})

		req := withCaller(httptest.NewRequest("GET", "/api/limits/recurring-services", nil), caller, caller.UserID)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"limit":null`)
		assert.Contains(t, rec.Body.String(), `"allowed":true`)
	})

	t.Run("unknown resource", func(t *testing.T) {
		_, mux := newAccountHandler(&mockQuotaService{}, &mockSharingService{}, &mockResourceService{})

		req := withCaller(httptest.NewRequest("GET", "/api/limits/boats", nil), caller, caller.UserID)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("lookup failure", func(t *testing.T) {
		quota := &mockQuotaService{
			CheckLimitFunc: func(ctx context.Context, kind domain.ResourceKind, ownerID uuid.UUID) (*domain.LimitCheck, error) {
				return &domain.LimitCheck{Kind: kind}, domain.Internal(assert.AnError, "quota.check_limit", "failed to count resources")
			},
		}
		_, mux := newAccountHandler(quota, &mockSharingService{}, &mockResourceService{})

		req := withCaller(httptest.NewRequest("GET", "/api/limits/accounts", nil), caller, caller.UserID)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
	})
}

func TestAccountHandler_Permissions(t *testing.T) {
	caller := newIdentity()
	owner := uuid.New()

	sharing := &mockSharingService{
		ResolvePermissionsFunc: func(ctx context.Context, target uuid.UUID, resource domain.ResourceType, requester uuid.UUID) (domain.Permissions, error) {
			assert.Equal(t, owner, target)
			assert.Equal(t, caller.UserID, requester)
			assert.Equal(t, domain.ResourceTypeRecurringServices, resource)
			return domain.Permissions{View: true, Edit: true}, nil
		},
		ResolvePermissionSetFunc: func(ctx context.Context, target, requester uuid.UUID, types []domain.ResourceType) (domain.PermissionMap, error) {
			assert.Equal(t, domain.AllResourceTypes, types)
			return domain.PermissionMap{domain.ResourceTypeAccounts: {View: true}}, nil
		},
	}
	_, mux := newAccountHandler(&mockQuotaService{}, sharing, &mockResourceService{})

	t.Run("single resource", func(t *testing.T) {
		req := withCaller(httptest.NewRequest("GET", "/api/permissions/recurring-services", nil), caller, owner)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body PermissionResponse
		decodeBody(t, rec, &body)
		assert.Equal(t, domain.Permissions{View: true, Edit: true}, body.Permissions)
		assert.Equal(t, domain.ResourceTypeRecurringServices, body.Resource)
	})

	t.Run("set", func(t *testing.T) {
		req := withCaller(httptest.NewRequest("GET", "/api/permissions", nil), caller, owner)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body PermissionSetResponse
		decodeBody(t, rec, &body)
		assert.False(t, body.IsOwn)
		assert.True(t, body.Permissions[domain.ResourceTypeAccounts].View)
	})

	t.Run("unknown resource type", func(t *testing.T) {
		req := withCaller(httptest.NewRequest("GET", "/api/permissions/boats", nil), caller, owner)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAccountHandler_Create(t *testing.T) {
	caller := newIdentity()
	owner := uuid.New()

	t.Run("creates on the active account", func(t *testing.T) {
		var got domain.CreateResourceParams
		res := &mockResourceService{
			CreateFunc: func(ctx context.Context, params domain.CreateResourceParams) (*domain.Resource, error) {
				got = params
				return &domain.Resource{ID: uuid.New(), Kind: params.Kind, OwnerID: params.OwnerID, Name: params.Name, CreatedAt: time.Now()}, nil
			},
		}
		_, mux := newAccountHandler(&mockQuotaService{}, &mockSharingService{}, res)

		req := withCaller(httptest.NewRequest("POST", "/api/credits", strings.NewReader(`{"name":"Auto","amount_cents":150000}`)), caller, owner)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, domain.ResourceKindActiveCredit, got.Kind)
		assert.Equal(t, owner, got.OwnerID)
		assert.Equal(t, caller.UserID, got.ActorID)
		assert.Equal(t, int64(150000), got.AmountCents)
	})

	t.Run("quota exceeded is 402", func(t *testing.T) {
		res := &mockResourceService{
			CreateFunc: func(ctx context.Context, params domain.CreateResourceParams) (*domain.Resource, error) {
				return nil, domain.QuotaExceeded("resource.create", params.Kind, 3, 3)
			},
		}
		_, mux := newAccountHandler(&mockQuotaService{}, &mockSharingService{}, res)

		req := withCaller(httptest.NewRequest("POST", "/api/accounts", strings.NewReader(`{"name":"Ahorro"}`)), caller, caller.UserID)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
		assert.Contains(t, rec.Body.String(), "3 of 3")
	})

	t.Run("validation", func(t *testing.T) {
		res := &mockResourceService{
			CreateFunc: func(ctx context.Context, params domain.CreateResourceParams) (*domain.Resource, error) {
				t.Fatal("service should not be called")
				return nil, nil
			},
		}
		_, mux := newAccountHandler(&mockQuotaService{}, &mockSharingService{}, res)

		tests := []struct {
			name  string
			body  string
			field string
		}{
			{"missing name", `{}`, "name"},
			{"negative amount", `{"name":"x","amount_cents":-1}`, "amount_cents"},
			{"bad currency", `{"name":"x","currency":"PESOS"}`, "currency"},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				req := withCaller(httptest.NewRequest("POST", "/api/recurring-services", strings.NewReader(tc.body)), caller, caller.UserID)
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, req)

				require.Equal(t, http.StatusBadRequest, rec.Code)
				var body JSONError
				decodeBody(t, rec, &body)
				assert.Contains(t, body.Error.Fields, tc.field)
			})
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		_, mux := newAccountHandler(&mockQuotaService{}, &mockSharingService{}, &mockResourceService{})

		req := withCaller(httptest.NewRequest("POST", "/api/accounts", strings.NewReader(`{"name":`)), caller, caller.UserID)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
