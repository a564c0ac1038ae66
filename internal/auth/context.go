// Package auth provides authentication context helpers.
//
// This package is designed to be imported by both middleware and handler
// packages without causing import cycles.
package auth

import (
	"context"
	"net/http"

	"github.com/artuino0/personal-finance-app-sub000/internal/domain"
	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// identityContextKey is the key used to store the authenticated caller.
	identityContextKey contextKey = "identity"

	// accountContextKey is the key used to store the resolved active account.
	accountContextKey contextKey = "active_account"
)

// GetIdentity retrieves the authenticated caller from the context.
//
// Returns nil if no caller is authenticated.
//
// Usage:
//
//	id := auth.GetIdentity(r.Context())
//	if id == nil {
//	    // Handle unauthenticated request
//	}
func GetIdentity(ctx context.Context) *domain.Identity {
	id, ok := ctx.Value(identityContextKey).(*domain.Identity)
	if !ok {
		return nil
	}
	return id
}

// GetIdentityFromRequest retrieves the authenticated caller from the request context.
func GetIdentityFromRequest(r *http.Request) *domain.Identity {
	return GetIdentity(r.Context())
}

// SetIdentity stores the authenticated caller in the context.
//
// This is called by the authentication middleware after validating the
// bearer token.
func SetIdentity(ctx context.Context, id *domain.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// GetActiveAccount returns the account the request operates on. Without a
// resolved account it falls back to the caller's own account, and to
// uuid.Nil when there is no caller.
func GetActiveAccount(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(accountContextKey).(uuid.UUID); ok {
		return id
	}
	if caller := GetIdentity(ctx); caller != nil {
		return caller.UserID
	}
	return uuid.Nil
}

// SetActiveAccount stores the resolved active account in the context.
func SetActiveAccount(ctx context.Context, accountID uuid.UUID) context.Context {
	return context.WithValue(ctx, accountContextKey, accountID)
}
