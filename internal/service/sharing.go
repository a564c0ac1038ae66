// Package service contains the business logic layer.
//
// This file implements account sharing: which account a request acts on,
// what a shared user may do with each resource type, and the invitation
// lifecycle that creates and revokes shares.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/artuino0/personal-finance-app-sub000/internal/domain"
	"github.com/artuino0/personal-finance-app-sub000/internal/invite"
	"github.com/artuino0/personal-finance-app-sub000/internal/metrics"
	"github.com/artuino0/personal-finance-app-sub000/internal/repository"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// SharingService defines operations for account sharing.
type SharingService interface {
	// ResolveActiveAccount returns the account a request operates on. The
	// selected account is honored only while an active share grants the
	// requester access to it; every other case yields the requester's own
	// account.
	ResolveActiveAccount(ctx context.Context, requesterID uuid.UUID, selected *uuid.UUID) uuid.UUID

	// ResolvePermissions returns the capability flags the requester holds
	// for one resource type on the target account. Owners get every flag.
	// Missing shares, missing permission rows and lookup failures deny.
	ResolvePermissions(ctx context.Context, targetAccountID uuid.UUID, resourceType domain.ResourceType, requesterID uuid.UUID) (domain.Permissions, error)

	// ResolvePermissionSet resolves several resource types at once.
	ResolvePermissionSet(ctx context.Context, targetAccountID, requesterID uuid.UUID, resourceTypes []domain.ResourceType) (domain.PermissionMap, error)

	// CreateInvitation stores a pending invitation and emails its link.
	// The raw token is returned alongside the invitation.
	CreateInvitation(ctx context.Context, params domain.CreateInvitationParams) (*domain.ShareInvitation, string, error)

	// AcceptInvitation turns a pending invitation into an active share.
	AcceptInvitation(ctx context.Context, token string, userID uuid.UUID, userEmail string) (*domain.AccountShare, error)

	// RejectInvitation marks a pending invitation rejected.
	RejectInvitation(ctx context.Context, token string, userID uuid.UUID, userEmail string) error

	// ListInvitations returns every invitation sent by the owner.
	ListInvitations(ctx context.Context, ownerID uuid.UUID) ([]domain.ShareInvitation, error)

	// ListShares returns the owner's shares with their permissions.
	ListShares(ctx context.Context, ownerID uuid.UUID) ([]domain.AccountShare, error)

	// ListSharedWithMe returns the active shares granted to the user.
	ListSharedWithMe(ctx context.Context, userID uuid.UUID) ([]domain.AccountShare, error)

	// RevokeShare deactivates a share owned by ownerID.
	RevokeShare(ctx context.Context, ownerID, shareID uuid.UUID) error

	// UpdatePermissions replaces the permissions of an active share.
	UpdatePermissions(ctx context.Context, ownerID, shareID uuid.UUID, perms domain.PermissionMap) (*domain.AccountShare, error)

	// PurgeExpiredInvitations deletes pending invitations that expired more
	// than retention ago and returns how many were removed.
	PurgeExpiredInvitations(ctx context.Context, retention time.Duration) (int64, error)
}

// InvitationMailer delivers invitation links.
type InvitationMailer interface {
	SendShareInvitationEmail(ctx context.Context, to, ownerName, token string) error
}

// =============================================================================
// Implementation
// =============================================================================

type sharingService struct {
	store         repository.Store
	quota         QuotaService
	mailer        InvitationMailer
	logger        *slog.Logger
	invitationTTL time.Duration
	now           Clock
}

// NewSharingService creates a new SharingService. A zero invitationTTL
// uses domain.DefaultInvitationTTL.
func NewSharingService(
	store repository.Store,
	quota QuotaService,
	mailer InvitationMailer,
	logger *slog.Logger,
	invitationTTL time.Duration,
) SharingService {
	if invitationTTL <= 0 {
		invitationTTL = domain.DefaultInvitationTTL
	}
	return &sharingService{
		store:         store,
		quota:         quota,
		mailer:        mailer,
		logger:        logger,
		invitationTTL: invitationTTL,
		now:           SystemClock,
	}
}

// =============================================================================
// Resolution
// =============================================================================

// ResolveActiveAccount returns the account a request operates on.
func (s *sharingService) ResolveActiveAccount(ctx context.Context, requesterID uuid.UUID, selected *uuid.UUID) uuid.UUID {
	if selected == nil || *selected == uuid.Nil || *selected == requesterID {
		return requesterID
	}

	_, err := s.store.GetActiveShare(ctx, repository.GetActiveShareParams{
		OwnerID:      *selected,
		SharedWithID: requesterID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info("ignoring selected account without active share",
				"user_id", requesterID,
				"selected_account_id", *selected,
			)
		} else {
			s.logger.Error("failed to validate selected account",
				"user_id", requesterID,
				"selected_account_id", *selected,
				"error", err,
			)
		}
		return requesterID
	}
	return *selected
}

// ResolvePermissions returns the requester's flags for one resource type.
func (s *sharingService) ResolvePermissions(ctx context.Context, targetAccountID uuid.UUID, resourceType domain.ResourceType, requesterID uuid.UUID) (domain.Permissions, error) {
	const op = "sharing.resolve_permissions"

	if !resourceType.Valid() {
		return domain.Permissions{}, domain.Invalid(op, fmt.Sprintf("unknown resource type %q", resourceType))
	}

	if requesterID == targetAccountID {
		metrics.PermissionChecked(string(resourceType), true, true, nil)
		return domain.FullPermissions, nil
	}

	share, err := s.store.GetActiveShare(ctx, repository.GetActiveShareParams{
		OwnerID:      targetAccountID,
		SharedWithID: requesterID,
	})
	if err != nil {
		return s.denyPermissions(op, resourceType, err)
	}

	row, err := s.store.GetSharePermission(ctx, repository.GetSharePermissionParams{
		ShareID:      share.ID,
		ResourceType: string(resourceType),
	})
	if err != nil {
		return s.denyPermissions(op, resourceType, err)
	}

	perms := permissionsFromRow(row)
	metrics.PermissionChecked(string(resourceType), false, perms.Any(), nil)
	return perms, nil
}

// ResolvePermissionSet resolves several resource types at once. Types
// without a permission row are present in the result with every flag off.
func (s *sharingService) ResolvePermissionSet(ctx context.Context, targetAccountID, requesterID uuid.UUID, resourceTypes []domain.ResourceType) (domain.PermissionMap, error) {
	const op = "sharing.resolve_permission_set"

	if len(resourceTypes) == 0 {
		resourceTypes = domain.AllResourceTypes
	}

	result := make(domain.PermissionMap, len(resourceTypes))
	names := make([]string, 0, len(resourceTypes))
	for _, rt := range resourceTypes {
		if !rt.Valid() {
			return nil, domain.Invalid(op, fmt.Sprintf("unknown resource type %q", rt))
		}
		result[rt] = domain.Permissions{}
		names = append(names, string(rt))
	}

	if requesterID == targetAccountID {
		for rt := range result {
			result[rt] = domain.FullPermissions
		}
		return result, nil
	}

	share, err := s.store.GetActiveShare(ctx, repository.GetActiveShareParams{
		OwnerID:      targetAccountID,
		SharedWithID: requesterID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, nil
		}
		s.logger.Error("failed to load share", "op", op, "error", err)
		return denyAll(result), domain.Internal(err, op, "Unable to verify permissions. Please try again.")
	}

	rows, err := s.store.ListSharePermissionsByTypes(ctx, repository.ListSharePermissionsByTypesParams{
		ShareID:       share.ID,
		ResourceTypes: names,
	})
	if err != nil {
		s.logger.Error("failed to load share permissions", "op", op, "share_id", share.ID, "error", err)
		return denyAll(result), domain.Internal(err, op, "Unable to verify permissions. Please try again.")
	}

	for _, row := range rows {
		rt := domain.ResourceType(row.ResourceType)
		if _, ok := result[rt]; ok {
			result[rt] = permissionsFromRow(row)
		}
	}
	return result, nil
}

func (s *sharingService) denyPermissions(op string, resourceType domain.ResourceType, err error) (domain.Permissions, error) {
	if errors.Is(err, sql.ErrNoRows) {
		metrics.PermissionChecked(string(resourceType), false, false, nil)
		return domain.Permissions{}, nil
	}
	metrics.PermissionChecked(string(resourceType), false, false, err)
	s.logger.Error("failed to resolve permissions",
		"op", op,
		"resource", resourceType,
		"error", err,
	)
	return domain.Permissions{}, domain.Internal(err, op, "Unable to verify permissions. Please try again.")
}

func denyAll(m domain.PermissionMap) domain.PermissionMap {
	for rt := range m {
		m[rt] = domain.Permissions{}
	}
	return m
}

// =============================================================================
// Invitations
// =============================================================================

// CreateInvitation stores a pending invitation and emails its link.
func (s *sharingService) CreateInvitation(ctx context.Context, params domain.CreateInvitationParams) (*domain.ShareInvitation, string, error) {
	const op = "sharing.create_invitation"

	email := domain.NormalizeEmail(params.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", domain.Invalid(op, "a valid email address is required")
	}
	if email == domain.NormalizeEmail(params.OwnerEmail) {
		return nil, "", domain.Invalid(op, "You cannot share your account with yourself")
	}
	if err := params.Permissions.Validate(op); err != nil {
		return nil, "", err
	}

	permsJSON, err := json.Marshal(params.Permissions)
	if err != nil {
		return nil, "", domain.Internal(err, op, "failed to encode permissions")
	}

	token, hash, err := invite.Generate()
	if err != nil {
		return nil, "", domain.Internal(err, op, "failed to generate invitation token")
	}

	now := s.now()
	var inv *domain.ShareInvitation
	err = s.quota.WithinLimit(ctx, domain.ResourceKindSharedUser, params.OwnerID, func(q repository.Querier) error {
		existing, err := q.ListInvitationsByOwner(ctx, params.OwnerID)
		if err != nil {
			return domain.Internal(err, op, "failed to list invitations")
		}
		for _, row := range existing {
			if row.InvitedEmail == email && row.Status == string(domain.InvitationStatusPending) && now.Before(row.ExpiresAt) {
				return domain.Conflict(op, "An invitation for this email is already pending")
			}
		}

		row, err := q.CreateInvitation(ctx, repository.CreateInvitationParams{
			OwnerID:      params.OwnerID,
			InvitedEmail: email,
			TokenHash:    hash,
			Permissions:  permsJSON,
			ExpiresAt:    now.Add(s.invitationTTL),
		})
		if err != nil {
			return domain.Internal(err, op, "failed to create invitation")
		}

		inv, err = invitationFromRow(row)
		if err != nil {
			return domain.Internal(err, op, "failed to decode invitation")
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	metrics.InvitationTransition("created")
	s.logger.Info("share invitation created",
		"invitation_id", inv.ID,
		"owner_id", params.OwnerID,
		"resources", len(params.Permissions),
	)

	if s.mailer != nil {
		ownerName := params.OwnerName
		if ownerName == "" {
			ownerName = params.OwnerEmail
		}
		if err := s.mailer.SendShareInvitationEmail(ctx, email, ownerName, token); err != nil {
			// The invitation stays valid; the owner can share the link directly.
			s.logger.Warn("failed to send invitation email",
				"invitation_id", inv.ID,
				"error", err,
			)
		}
	}

	return inv, token, nil
}

// AcceptInvitation turns a pending invitation into an active share.
func (s *sharingService) AcceptInvitation(ctx context.Context, token string, userID uuid.UUID, userEmail string) (*domain.AccountShare, error) {
	const op = "sharing.accept_invitation"

	var share *domain.AccountShare
	err := s.store.ExecTx(ctx, nil, func(q repository.Querier) error {
		inv, err := s.lockInvitation(ctx, q, op, token)
		if err != nil {
			return err
		}

		if err := s.checkRespondable(op, inv, userEmail, true); err != nil {
			return err
		}
		if inv.OwnerID == userID {
			return domain.Invalid(op, "You cannot accept your own invitation")
		}

		_, err = q.GetActiveShare(ctx, repository.GetActiveShareParams{
			OwnerID:      inv.OwnerID,
			SharedWithID: userID,
		})
		switch {
		case err == nil:
			return domain.Conflict(op, "You already have access to this account")
		case !errors.Is(err, sql.ErrNoRows):
			return domain.Internal(err, op, "failed to check existing share")
		}

		if err := s.markResponded(ctx, q, op, inv, domain.InvitationStatusAccepted, userID); err != nil {
			return err
		}

		row, err := q.CreateShare(ctx, repository.CreateShareParams{
			OwnerID:      inv.OwnerID,
			SharedWithID: userID,
		})
		if err != nil {
			return domain.Internal(err, op, "failed to create share")
		}
		share = shareFromRow(row)

		share.Permissions, err = upsertPermissions(ctx, q, share.ID, inv.Permissions)
		if err != nil {
			return domain.Internal(err, op, "failed to create share permissions")
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxError(err, op)
	}

	metrics.InvitationTransition("accepted")
	s.logger.Info("share invitation accepted",
		"share_id", share.ID,
		"owner_id", share.OwnerID,
		"shared_with_id", userID,
	)
	return share, nil
}

// RejectInvitation marks a pending invitation rejected.
func (s *sharingService) RejectInvitation(ctx context.Context, token string, userID uuid.UUID, userEmail string) error {
	const op = "sharing.reject_invitation"

	err := s.store.ExecTx(ctx, nil, func(q repository.Querier) error {
		inv, err := s.lockInvitation(ctx, q, op, token)
		if err != nil {
			return err
		}
		if err := s.checkRespondable(op, inv, userEmail, false); err != nil {
			return err
		}
		return s.markResponded(ctx, q, op, inv, domain.InvitationStatusRejected, userID)
	})
	if err != nil {
		return wrapTxError(err, op)
	}

	metrics.InvitationTransition("rejected")
	s.logger.Info("share invitation rejected", "user_id", userID)
	return nil
}

// ListInvitations returns every invitation sent by the owner.
func (s *sharingService) ListInvitations(ctx context.Context, ownerID uuid.UUID) ([]domain.ShareInvitation, error) {
	const op = "sharing.list_invitations"

	rows, err := s.store.ListInvitationsByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list invitations")
	}

	invitations := make([]domain.ShareInvitation, 0, len(rows))
	for _, row := range rows {
		inv, err := invitationFromRow(row)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to decode invitation")
		}
		invitations = append(invitations, *inv)
	}
	return invitations, nil
}

func (s *sharingService) lockInvitation(ctx context.Context, q repository.Querier, op, token string) (*domain.ShareInvitation, error) {
	if !invite.ValidFormat(token) {
		return nil, domain.Errorf(domain.ENOTFOUND, op, "Invitation not found")
	}

	row, err := q.GetInvitationByTokenHashForUpdate(ctx, invite.Hash(token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Errorf(domain.ENOTFOUND, op, "Invitation not found")
		}
		return nil, domain.Internal(err, op, "failed to load invitation")
	}

	inv, err := invitationFromRow(row)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode invitation")
	}
	return inv, nil
}

// checkRespondable validates that the caller may answer the invitation.
// Expiry only blocks acceptance; an expired invitation can still be declined.
func (s *sharingService) checkRespondable(op string, inv *domain.ShareInvitation, userEmail string, accepting bool) error {
	if inv.Status.IsTerminal() {
		return domain.Conflict(op, fmt.Sprintf("This invitation has already been %s", inv.Status))
	}
	if accepting && inv.IsExpiredAt(s.now()) {
		return domain.Gone(op, "This invitation has expired")
	}
	if domain.NormalizeEmail(userEmail) != inv.InvitedEmail {
		return domain.Forbidden(op, "This invitation was sent to a different email address")
	}
	return nil
}

func (s *sharingService) markResponded(ctx context.Context, q repository.Querier, op string, inv *domain.ShareInvitation, target domain.InvitationStatus, userID uuid.UUID) error {
	if err := inv.TransitionTo(target); err != nil {
		return domain.Conflict(op, err.Error())
	}

	n, err := q.UpdateInvitationStatus(ctx, repository.UpdateInvitationStatusParams{
		ID:          inv.ID,
		Status:      string(target),
		RespondedBy: domain.ToNullUUID(&userID),
	})
	if err != nil {
		return domain.Internal(err, op, "failed to update invitation")
	}
	if n == 0 {
		return domain.Conflict(op, "This invitation has already been answered")
	}
	return nil
}

// =============================================================================
// Shares
// =============================================================================

// ListShares returns the owner's shares with their permissions.
func (s *sharingService) ListShares(ctx context.Context, ownerID uuid.UUID) ([]domain.AccountShare, error) {
	const op = "sharing.list_shares"

	rows, err := s.store.ListSharesByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list shares")
	}
	return s.withPermissions(ctx, op, rows)
}

// ListSharedWithMe returns the active shares granted to the user.
func (s *sharingService) ListSharedWithMe(ctx context.Context, userID uuid.UUID) ([]domain.AccountShare, error) {
	const op = "sharing.list_shared_with_me"

	rows, err := s.store.ListActiveSharesBySharedWith(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list shares")
	}
	return s.withPermissions(ctx, op, rows)
}

// PurgeExpiredInvitations deletes stale pending invitations.
func (s *sharingService) PurgeExpiredInvitations(ctx context.Context, retention time.Duration) (int64, error) {
	const op = "sharing.purge_expired"

	if retention < 0 {
		retention = 0
	}
	n, err := s.store.DeleteExpiredInvitations(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, domain.Internal(err, op, "failed to purge expired invitations")
	}
	if n > 0 {
		metrics.InvitationsExpired(n)
		s.logger.Info("expired invitations purged", "count", n)
	}
	return n, nil
}

// RevokeShare deactivates a share owned by ownerID.
func (s *sharingService) RevokeShare(ctx context.Context, ownerID, shareID uuid.UUID) error {
	const op = "sharing.revoke_share"

	n, err := s.store.DeactivateShare(ctx, repository.DeactivateShareParams{
		ID:      shareID,
		OwnerID: ownerID,
	})
	if err != nil {
		return domain.Internal(err, op, "failed to revoke share")
	}
	if n == 0 {
		return domain.NotFound(op, "share", shareID.String())
	}

	metrics.InvitationTransition("revoked")
	s.logger.Info("share revoked", "share_id", shareID, "owner_id", ownerID)
	return nil
}

// UpdatePermissions replaces the permissions of an active share. Resource
// types missing from perms lose every flag.
func (s *sharingService) UpdatePermissions(ctx context.Context, ownerID, shareID uuid.UUID, perms domain.PermissionMap) (*domain.AccountShare, error) {
	const op = "sharing.update_permissions"

	if err := perms.Validate(op); err != nil {
		return nil, err
	}

	var share *domain.AccountShare
	err := s.store.ExecTx(ctx, nil, func(q repository.Querier) error {
		row, err := q.GetShareByID(ctx, shareID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NotFound(op, "share", shareID.String())
			}
			return domain.Internal(err, op, "failed to load share")
		}
		if row.OwnerID != ownerID || !row.IsActive {
			return domain.NotFound(op, "share", shareID.String())
		}
		share = shareFromRow(row)

		existing, err := q.ListSharePermissionsByShare(ctx, shareID)
		if err != nil {
			return domain.Internal(err, op, "failed to load share permissions")
		}

		replacement := make(domain.PermissionMap, len(perms)+len(existing))
		for _, p := range existing {
			replacement[domain.ResourceType(p.ResourceType)] = domain.Permissions{}
		}
		for rt, p := range perms {
			replacement[rt] = p
		}

		stored, err := upsertPermissions(ctx, q, shareID, replacement)
		if err != nil {
			return domain.Internal(err, op, "failed to update share permissions")
		}
		share.Permissions = make(domain.PermissionMap, len(stored))
		for rt, p := range stored {
			if p.Any() {
				share.Permissions[rt] = p
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxError(err, op)
	}

	s.logger.Info("share permissions updated",
		"share_id", shareID,
		"owner_id", ownerID,
		"resources", len(perms),
	)
	return share, nil
}

func (s *sharingService) withPermissions(ctx context.Context, op string, rows []repository.AccountShare) ([]domain.AccountShare, error) {
	shares := make([]domain.AccountShare, 0, len(rows))
	for _, row := range rows {
		share := shareFromRow(row)

		perms, err := s.store.ListSharePermissionsByShare(ctx, row.ID)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to load share permissions")
		}
		share.Permissions = make(domain.PermissionMap, len(perms))
		for _, p := range perms {
			share.Permissions[domain.ResourceType(p.ResourceType)] = permissionsFromRow(p)
		}
		shares = append(shares, *share)
	}
	return shares, nil
}

// =============================================================================
// Helpers
// =============================================================================

// upsertPermissions writes one row per resource type in a stable order.
func upsertPermissions(ctx context.Context, q repository.Querier, shareID uuid.UUID, perms domain.PermissionMap) (domain.PermissionMap, error) {
	stored := make(domain.PermissionMap, len(perms))
	for _, rt := range perms.Keys() {
		p := perms[rt]
		row, err := q.UpsertSharePermission(ctx, repository.UpsertSharePermissionParams{
			ShareID:      shareID,
			ResourceType: string(rt),
			CanView:      p.View,
			CanCreate:    p.Create,
			CanEdit:      p.Edit,
			CanDelete:    p.Delete,
		})
		if err != nil {
			return nil, fmt.Errorf("upsert %s permission: %w", rt, err)
		}
		stored[rt] = permissionsFromRow(row)
	}
	return stored, nil
}

// wrapTxError passes domain errors through and wraps anything else.
func wrapTxError(err error, op string) error {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return err
	}
	return domain.Internal(err, op, "transaction failed")
}

func permissionsFromRow(row repository.SharePermission) domain.Permissions {
	return domain.Permissions{
		View:   row.CanView,
		Create: row.CanCreate,
		Edit:   row.CanEdit,
		Delete: row.CanDelete,
	}
}

func shareFromRow(row repository.AccountShare) *domain.AccountShare {
	return &domain.AccountShare{
		ID:           row.ID,
		OwnerID:      row.OwnerID,
		SharedWithID: row.SharedWithID,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt,
		RevokedAt:    domain.NullTimeValue(row.RevokedAt),
	}
}

func invitationFromRow(row repository.ShareInvitation) (*domain.ShareInvitation, error) {
	perms := make(domain.PermissionMap)
	if len(row.Permissions) > 0 {
		if err := json.Unmarshal(row.Permissions, &perms); err != nil {
			return nil, fmt.Errorf("decode invitation permissions: %w", err)
		}
	}
	return &domain.ShareInvitation{
		ID:           row.ID,
		OwnerID:      row.OwnerID,
		InvitedEmail: row.InvitedEmail,
		Permissions:  perms,
		Status:       domain.InvitationStatus(row.Status),
		ExpiresAt:    row.ExpiresAt,
		RespondedAt:  domain.NullTimeValue(row.RespondedAt),
		CreatedAt:    row.CreatedAt,
	}, nil
}
