// This file implements account sharing and invitation handlers.
//
// Routes handled:
//   - GET    /api/shares                     -> ListShares
//   - GET    /api/shares/received            -> ListSharedWithMe
//   - DELETE /api/shares/{id}                -> RevokeShare
//   - PUT    /api/shares/{id}/permissions    -> UpdatePermissions
//   - GET    /api/invitations                -> ListInvitations
//   - POST   /api/invitations                -> CreateInvitation
//   - POST   /api/invitations/{token}/accept -> AcceptInvitation
//   - POST   /api/invitations/{token}/reject -> RejectInvitation
package handler

import (
	"log/slog"
	"net/http"

	"github.com/artuino0/personal-finance-app-sub000/internal/auth"
	"github.com/artuino0/personal-finance-app-sub000/internal/domain"
	"github.com/artuino0/personal-finance-app-sub000/internal/invite"
	"github.com/artuino0/personal-finance-app-sub000/internal/service"
	"github.com/google/uuid"
)

// InvitationLinker builds the link sent to an invitee.
type InvitationLinker interface {
	InvitationURL(token string) string
}

// SharingHandler handles share and invitation requests. Shares are always
// managed on the caller's own account, never on a shared one.
type SharingHandler struct {
	sharing  service.SharingService
	profiles service.ProfileService
	links    InvitationLinker
	logger   *slog.Logger
}

// NewSharingHandler creates a new SharingHandler.
func NewSharingHandler(
	sharing service.SharingService,
	profiles service.ProfileService,
	links InvitationLinker,
	logger *slog.Logger,
) *SharingHandler {
	return &SharingHandler{
		sharing:  sharing,
		profiles: profiles,
		links:    links,
		logger:   logger,
	}
}

// SharingRoutes holds the middleware applied to sharing routes.
type SharingRoutes struct {
	// Protected authenticates the caller.
	Protected func(http.Handler) http.Handler
	// LimitTokens throttles attempts that carry a raw invitation token.
	LimitTokens func(http.Handler) http.Handler
	// LimitCreate throttles invitation emails.
	LimitCreate func(http.Handler) http.Handler
}

// RegisterRoutes registers sharing routes on the provided mux.
func (h *SharingHandler) RegisterRoutes(mux *http.ServeMux, mw SharingRoutes) {
	p := mw.Protected
	mux.Handle("GET /api/shares", p(http.HandlerFunc(h.ListShares)))
	mux.Handle("GET /api/shares/received", p(http.HandlerFunc(h.ListSharedWithMe)))
	mux.Handle("DELETE /api/shares/{id}", p(http.HandlerFunc(h.RevokeShare)))
	mux.Handle("PUT /api/shares/{id}/permissions", p(http.HandlerFunc(h.UpdatePermissions)))
	mux.Handle("GET /api/invitations", p(http.HandlerFunc(h.ListInvitations)))
	mux.Handle("POST /api/invitations", mw.LimitCreate(p(http.HandlerFunc(h.CreateInvitation))))
	mux.Handle("POST /api/invitations/{token}/accept", mw.LimitTokens(p(http.HandlerFunc(h.AcceptInvitation))))
	mux.Handle("POST /api/invitations/{token}/reject", mw.LimitTokens(p(http.HandlerFunc(h.RejectInvitation))))
}

// =============================================================================
// Shares
// =============================================================================

// ListShares returns the shares the caller has granted.
func (h *SharingHandler) ListShares(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentityFromRequest(r)
	if id == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	shares, err := h.sharing.ListShares(r.Context(), id.UserID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if shares == nil {
		shares = []domain.AccountShare{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"shares": shares})
}

// ListSharedWithMe returns the active shares granted to the caller.
func (h *SharingHandler) ListSharedWithMe(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentityFromRequest(r)
	if id == nil {
		UnauthorizedResponse(w, r, h.logger)
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
	writeJSON(w, http.StatusOK, map[string]interface{}{"shares": shares})
}

// RevokeShare deactivates a share owned by the caller.
func (h *SharingHandler) RevokeShare(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentityFromRequest(r)
	if id == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	shareID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	if err := h.sharing.RevokeShare(r.Context(), id.UserID, shareID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PermissionsRequest carries a permission map keyed by resource type.
type PermissionsRequest struct {
	Permissions domain.PermissionMap `json:"permissions" validate:"required,min=1"`
}

// UpdatePermissions replaces the permissions of a share owned by the caller.
func (h *SharingHandler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentityFromRequest(r)
	if id == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	shareID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	var req PermissionsRequest
	if err := decodeJSON(r, "sharing.update_permissions", &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	share, err := h.sharing.UpdatePermissions(r.Context(), id.UserID, shareID, req.Permissions)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, share)
}

// =============================================================================
// Invitations
// =============================================================================

// ListInvitations returns the invitations the caller has sent.
func (h *SharingHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentityFromRequest(r)
	if id == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	invitations, err := h.sharing.ListInvitations(r.Context(), id.UserID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if invitations == nil {
		invitations = []domain.ShareInvitation{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"invitations": invitations})
}

// CreateInvitationRequest is the body of POST /api/invitations.
type CreateInvitationRequest struct {
	Email       string               `json:"email" validate:"required,email,max=254"`
	Permissions domain.PermissionMap `json:"permissions" validate:"required,min=1"`
}

// CreateInvitationResponse returns the new invitation with its one-time
// link, so the owner can share it if the email does not arrive.
type CreateInvitationResponse struct {
	Invitation *domain.ShareInvitation `json:"invitation"`
	Token      string                  `json:"token"`
	URL        string                  `json:"url,omitempty"`
}

// CreateInvitation invites someone to the caller's account.
func (h *SharingHandler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentityFromRequest(r)
	if id == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req CreateInvitationRequest
	if err := decodeJSON(r, "sharing.create_invitation", &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	params := domain.CreateInvitationParams{
		OwnerID:     id.UserID,
		OwnerEmail:  id.Email,
		Email:       req.Email,
		Permissions: req.Permissions,
	}
	if profile, err := h.profiles.GetByID(r.Context(), id.UserID); err == nil {
		params.OwnerName = profile.DisplayName()
	} else {
		h.logger.Warn("failed to load owner profile for invitation", "user_id", id.UserID, "error", err)
	}

	inv, token, err := h.sharing.CreateInvitation(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := CreateInvitationResponse{Invitation: inv, Token: token}
	if h.links != nil {
		resp.URL = h.links.InvitationURL(token)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// AcceptInvitation accepts the invitation identified by the path token.
func (h *SharingHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentityFromRequest(r)
	if id == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	token := r.PathValue("token")
	if !invite.ValidFormat(token) {
		NotFoundResponse(w, r, h.logger)
		return
	}

	share, err := h.sharing.AcceptInvitation(r.Context(), token, id.UserID, id.Email)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, share)
}

// RejectInvitation rejects the invitation identified by the path token.
func (h *SharingHandler) RejectInvitation(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentityFromRequest(r)
	if id == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	token := r.PathValue("token")
	if !invite.ValidFormat(token) {
		NotFoundResponse(w, r, h.logger)
		return
	}

	if err := h.sharing.RejectInvitation(r.Context(), token, id.UserID, id.Email); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
