// Package domain holds the business types shared by the service and
// handler layers: profiles and tiers, shares and invitations, quota and
// analysis results, and the application error codes.
package domain

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus represents the possible states of a user's subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid   SubscriptionStatus = "unpaid"
)

// Profile is the per-user record kept alongside the managed auth backend.
// Its ID is the auth subject and doubles as the account ID that owns
// financial data.
type Profile struct {
	ID                   uuid.UUID
	Email                string
	FullName             string
	SubscriptionTier     SubscriptionTier
	SubscriptionStatus   SubscriptionStatus
	StripeCustomerID     string
	StripeSubscriptionID string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// DisplayName is how the profile is named to other people, such as in
// invitation emails.
func (p *Profile) DisplayName() string {
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	return p.Email
}

// Identity is the authenticated caller as asserted by the auth backend token.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// UpdateSubscriptionParams contains the billing fields written by webhooks.
type UpdateSubscriptionParams struct {
	ProfileID      uuid.UUID
	Tier           SubscriptionTier
	Status         SubscriptionStatus
	SubscriptionID string
}

// Nullable column helpers for mapping repository rows.

func NullStringValue(ns sql.NullString) string {
	return ns.String
}

func NullTimeValue(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// ToNullString maps "" to NULL.
func ToNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func ToNullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
