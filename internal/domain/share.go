// This file defines account sharing: shares between an owner and a second
// user, the per-resource capability flags attached to a share, and the
// invitation that materializes them.

package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Resource Types
// =============================================================================

// ResourceType names a section of an owner's financial data that can be
// shared with its own capability flags.
type ResourceType string

const (
	ResourceTypeAccounts          ResourceType = "accounts"
	ResourceTypeTransactions      ResourceType = "transactions"
	ResourceTypeRecurringServices ResourceType = "recurring_services"
	ResourceTypeCredits           ResourceType = "credits"
	ResourceTypeInvoices          ResourceType = "invoices"
)

// AllResourceTypes lists every shareable resource type.
var AllResourceTypes = []ResourceType{
	ResourceTypeAccounts,
	ResourceTypeTransactions,
	ResourceTypeRecurringServices,
	ResourceTypeCredits,
	ResourceTypeInvoices,
}

// Valid reports whether the resource type is known.
func (r ResourceType) Valid() bool {
	for _, t := range AllResourceTypes {
		if r == t {
			return true
		}
	}
	return false
}

// ParseResourceType accepts the canonical name or its hyphenated URL form.
func ParseResourceType(s string) (ResourceType, bool) {
	r := ResourceType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	return r, r.Valid()
}

// =============================================================================
// Permissions
// =============================================================================

// Permissions is the capability set a requester holds for one resource type
// on one account. The zero value denies everything.
type Permissions struct {
	View   bool `json:"can_view"`
	Create bool `json:"can_create"`
	Edit   bool `json:"can_edit"`
	Delete bool `json:"can_delete"`
}

// FullPermissions is what an owner holds on their own data.
var FullPermissions = Permissions{View: true, Create: true, Edit: true, Delete: true}

// Any reports whether at least one capability is granted.
func (p Permissions) Any() bool {
	return p.View || p.Create || p.Edit || p.Delete
}

// Validate rejects write capabilities granted without view.
func (p Permissions) Validate() error {
	if (p.Create || p.Edit || p.Delete) && !p.View {
		return errors.New("can_view is required when can_create, can_edit or can_delete is granted")
	}
	return nil
}

// PermissionMap holds one capability set per resource type. It is the
// serialized form stored on an invitation.
type PermissionMap map[ResourceType]Permissions

// Validate checks every key and capability set in the map.
func (m PermissionMap) Validate(op string) error {
	if len(m) == 0 {
		return Invalid(op, "at least one resource permission is required")
	}
	for resource, perms := range m {
		if !resource.Valid() {
			return Invalid(op, fmt.Sprintf("unknown resource type %q", resource))
		}
		if err := perms.Validate(); err != nil {
			return Invalid(op, fmt.Sprintf("%s: %s", resource, err.Error()))
		}
	}
	return nil
}

// Keys returns the resource types in the map in a stable order.
func (m PermissionMap) Keys() []ResourceType {
	keys := make([]ResourceType, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// =============================================================================
// Shares
// =============================================================================

// AccountShare grants a second user access to the owner's financial data.
// Shares are deactivated on revocation, never deleted.
type AccountShare struct {
	ID           uuid.UUID     `json:"id"`
	OwnerID      uuid.UUID     `json:"owner_id"`
	SharedWithID uuid.UUID     `json:"shared_with_id"`
	IsActive     bool          `json:"is_active"`
	CreatedAt    time.Time     `json:"created_at"`
	RevokedAt    *time.Time    `json:"revoked_at,omitempty"`
	Permissions  PermissionMap `json:"permissions,omitempty"`
}

// SharePermission is the stored capability row for one resource type on
// one share.
type SharePermission struct {
	ShareID      uuid.UUID
	ResourceType ResourceType
	Permissions
}

// =============================================================================
// Invitations
// =============================================================================

// InvitationStatus represents the lifecycle state of a share invitation.
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusRejected InvitationStatus = "rejected"
)

// IsTerminal reports whether the invitation has been consumed.
func (s InvitationStatus) IsTerminal() bool {
	return s == InvitationStatusAccepted || s == InvitationStatusRejected
}

// CanTransitionTo checks if the invitation can move to the target status.
// Only pending invitations move, and only once.
func (s InvitationStatus) CanTransitionTo(target InvitationStatus) bool {
	return s == InvitationStatusPending &&
		(target == InvitationStatusAccepted || target == InvitationStatusRejected)
}

// DefaultInvitationTTL is how long an invitation can be answered.
const DefaultInvitationTTL = 7 * 24 * time.Hour

// ShareInvitation is an owner's offer to share data with an email address.
// Its permission map becomes real share rows only on acceptance.
type ShareInvitation struct {
	ID           uuid.UUID        `json:"id"`
	OwnerID      uuid.UUID        `json:"owner_id"`
	InvitedEmail string           `json:"invited_email"`
	Permissions  PermissionMap    `json:"permissions"`
	Status       InvitationStatus `json:"status"`
	ExpiresAt    time.Time        `json:"expires_at"`
	RespondedAt  *time.Time       `json:"responded_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// IsExpiredAt reports whether the invitation can no longer be answered.
func (i *ShareInvitation) IsExpiredAt(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// TransitionTo moves the invitation to the target status.
// Returns an error and leaves the status unchanged if the move is invalid.
func (i *ShareInvitation) TransitionTo(target InvitationStatus) error {
	if !i.Status.CanTransitionTo(target) {
		return fmt.Errorf("cannot transition invitation from %s to %s", i.Status, target)
	}
	i.Status = target
	return nil
}

// NormalizeEmail lowercases and trims an address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateInvitationParams contains parameters for inviting a user.
type CreateInvitationParams struct {
	OwnerID     uuid.UUID
	OwnerEmail  string
	OwnerName   string
	Email       string
	Permissions PermissionMap
}

// ActiveAccount describes which account a request operates on.
type ActiveAccount struct {
	AccountID uuid.UUID `json:"account_id"`
	IsOwn     bool      `json:"is_own"`
}
