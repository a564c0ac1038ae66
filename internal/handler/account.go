// Package handler contains HTTP handlers for the finance API.
//
// This file implements the handlers that act on the active account: the
// request context, tier limits, permissions and guarded creation.
//
// Routes handled:
//   - GET  /api/context                 -> Context
//   - GET  /api/limits                  -> Usage
//   - GET  /api/limits/{resource}       -> CheckLimit
//   - GET  /api/permissions             -> PermissionSet
//   - GET  /api/permissions/{resource}  -> Permissions
//   - POST /api/accounts                -> CreateAccount
//   - POST /api/recurring-services      -> CreateRecurringService
//   - POST /api/credits                 -> CreateCredit
package handler

import (
	"log/slog"
	"net/http"

	"github.com/artuino0/personal-finance-app-sub000/internal/auth"
	"github.com/artuino0/personal-finance-app-sub000/internal/domain"
	"github.com/artuino0/personal-finance-app-sub000/internal/service"
	"github.com/google/uuid"
)

// AccountHandler handles requests scoped to the active account.
type AccountHandler struct {
	quota     service.QuotaService
	sharing   service.SharingService
	resources service.ResourceService
	logger    *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(
	quota service.QuotaService,
	sharing service.SharingService,
	resources service.ResourceService,
	logger *slog.Logger,
) *AccountHandler {
	return &AccountHandler{
		quota:     quota,
		sharing:   sharing,
		resources: resources,
		logger:    logger,
	}
}

// RegisterRoutes registers account routes on the provided mux.
// protected must authenticate the caller and resolve the active account.
func (h *AccountHandler) RegisterRoutes(mux *http.ServeMux, protected func(http.Handler) http.Handler) {
	mux.Handle("GET /api/context", protected(http.HandlerFunc(h.Context)))
	mux.Handle("GET /api/limits", protected(http.HandlerFunc(h.Usage)))
	mux.Handle("GET /api/limits/{resource}", protected(http.HandlerFunc(h.CheckLimit)))
	mux.Handle("GET /api/permissions", protected(http.HandlerFunc(h.PermissionSet)))
	mux.Handle("GET /api/permissions/{resource}", protected(http.HandlerFunc(h.Permissions)))
	mux.Handle("POST /api/accounts", protected(h.create(domain.ResourceKindAccount)))
	mux.Handle("POST /api/recurring-services", protected(h.create(domain.ResourceKindRecurringService)))
	mux.Handle("POST /api/credits", protected(h.create(domain.ResourceKindActiveCredit)))
}

// =============================================================================
// GET /api/context
// =============================================================================

// ContextResponse describes the account a request operates on.
type ContextResponse struct {
	domain.ActiveAccount
	SharedWithMe []domain.AccountShare `json:"shared_with_me"`
}

// Context returns the resolved active account and the shares the caller
// can switch to.
func (h *AccountHandler) Context(w http.ResponseWriter, r *http.Request) {
	id, account, ok := h.caller(w, r)
	if !ok {
		return
	}

	shares, err := h.sharing.ListSharedWithMe(r.Context(), id.UserID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if shares == nil {
		shares = []domain.AccountShare{}
	}

	writeJSON(w, http.StatusOK, ContextResponse{
		ActiveAccount: domain.ActiveAccount{
			AccountID: account,
			IsOwn:     account == id.UserID,
		},
		SharedWithMe: shares,
	})
}

// =============================================================================
// Limits
// =============================================================================

// Usage returns usage against every tier limit of the active account.
func (h *AccountHandler) Usage(w http.ResponseWriter, r *http.Request) {
	_, account, ok := h.caller(w, r)
	if !ok {
		return
	}

	summary, err := h.quota.Usage(r.Context(), account)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// CheckLimit answers whether the active account may create one more of a
// resource kind.
func (h *AccountHandler) CheckLimit(w http.ResponseWriter, r *http.Request) {
	_, account, ok := h.caller(w, r)
	if !ok {
		return
	}

	kind, valid := domain.ParseResourceKind(r.PathValue("resource"))
	if !valid {
		ErrorResponse(w, r, h.logger, domain.Invalid("limits.check", "Unknown resource"))
		return
	}

	check, err := h.quota.CheckLimit(r.Context(), kind, account)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

// =============================================================================
// Permissions
// =============================================================================

// PermissionResponse is a single resolved permission record.
type PermissionResponse struct {
	AccountID uuid.UUID           `json:"account_id"`
	Resource  domain.ResourceType `json:"resource"`
	domain.Permissions
}

// PermissionSetResponse holds permissions for every resource type.
type PermissionSetResponse struct {
	AccountID   uuid.UUID            `json:"account_id"`
	IsOwn       bool                 `json:"is_own"`
	Permissions domain.PermissionMap `json:"permissions"`
}

// PermissionSet returns the caller's permissions on every resource type of
// the active account.
func (h *AccountHandler) PermissionSet(w http.ResponseWriter, r *http.Request) {
	id, account, ok := h.caller(w, r)
	if !ok {
		return
	}

	perms, err := h.sharing.ResolvePermissionSet(r.Context(), account, id.UserID, domain.AllResourceTypes)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, PermissionSetResponse{
		AccountID:   account,
		IsOwn:       account == id.UserID,
		Permissions: perms,
	})
}

// Permissions returns the caller's permissions on one resource type of the
// active account.
func (h *AccountHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	id, account, ok := h.caller(w, r)
	if !ok {
		return
	}

	resource, valid := domain.ParseResourceType(r.PathValue("resource"))
	if !valid {
		ErrorResponse(w, r, h.logger, domain.Invalid("permissions.resolve", "Unknown resource type"))
		return
	}

	perms, err := h.sharing.ResolvePermissions(r.Context(), account, resource, id.UserID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, PermissionResponse{
		AccountID:   account,
		Resource:    resource,
		Permissions: perms,
	})
}

// =============================================================================
// Guarded creation
// =============================================================================

// CreateResourceRequest is the body of the create endpoints.
type CreateResourceRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	AmountCents int64  `json:"amount_cents" validate:"gte=0"`
	Currency    string `json:"currency" validate:"omitempty,len=3"`
}

// create returns a handler that creates a resource of the given kind on the
// active account, charged against the account owner's quota.
func (h *AccountHandler) create(kind domain.ResourceKind) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, account, ok := h.caller(w, r)
		if !ok {
			return
		}

		var req CreateResourceRequest
		if err := decodeJSON(r, "resource.create", &req); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}

		res, err := h.resources.Create(r.Context(), domain.CreateResourceParams{
			Kind:        kind,
			OwnerID:     account,
			ActorID:     id.UserID,
			Name:        req.Name,
			AmountCents: req.AmountCents,
			Currency:    req.Currency,
		})
		if err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	})
}

// =============================================================================
// Helpers
// =============================================================================

// caller returns the authenticated identity and the resolved active account.
// It writes a 401 and returns false when either is missing.
func (h *AccountHandler) caller(w http.ResponseWriter, r *http.Request) (*domain.Identity, uuid.UUID, bool) {
	id := auth.GetIdentityFromRequest(r)
	if id == nil {
		UnauthorizedResponse(w, r, h.logger)
		return nil, uuid.Nil, false
	}
	account := auth.GetActiveAccount(r.Context())
	if account == uuid.Nil {
		account = id.UserID
	}
	return id, account, true
}
