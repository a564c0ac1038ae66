// Package middleware contains HTTP middleware for the finance API.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/artuino0/personal-finance-app-sub000/internal/auth"
	"github.com/artuino0/personal-finance-app-sub000/internal/domain"
	"github.com/artuino0/personal-finance-app-sub000/internal/handler"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// ActiveAccountHeader carries the account the client wants to act on.
	ActiveAccountHeader = "X-Active-Account"

	// ActiveAccountCookieName is the cookie fallback for ActiveAccountHeader,
	// used by browser clients that switch accounts from a selector.
	ActiveAccountCookieName = "active_account"

	// tokenLeeway tolerates clock skew between this service and the auth backend.
	tokenLeeway = 30 * time.Second
)

// =============================================================================
// Token Verification
// =============================================================================

// Claims are the access token claims issued by the auth backend. The
// subject is the profile ID.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 access tokens signed with the auth
// backend's shared secret.
type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenVerifier creates a verifier. Issuer and audience are checked
// only when non-empty.
func NewTokenVerifier(secret, issuer, audience string) *TokenVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(tokenLeeway),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &TokenVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(opts...),
	}
}

// Verify parses a raw token and returns the caller it identifies.
func (v *TokenVerifier) Verify(raw string) (*domain.Identity, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("token subject is not a profile id: %w", err)
	}

	return &domain.Identity{
		UserID: userID,
		Email:  domain.NormalizeEmail(claims.Email),
	}, nil
}

// =============================================================================
// Auth Middleware Configuration
// =============================================================================

// AccountResolver decides which account a request operates on.
type AccountResolver interface {
	ResolveActiveAccount(ctx context.Context, requesterID uuid.UUID, selected *uuid.UUID) uuid.UUID
}

// AuthMiddleware provides authentication middleware functionality.
//
// This struct holds dependencies needed by auth middleware functions.
// Create one instance and use its methods as middleware.
type AuthMiddleware struct {
	verifier *TokenVerifier
	accounts AccountResolver
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
//
// Parameters:
// - verifier: Validates bearer tokens
// - accounts: Resolves the selected account against active shares
// - logger: Structured logger for auth events
func NewAuthMiddleware(verifier *TokenVerifier, accounts AccountResolver, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		accounts: accounts,
		logger:   logger,
	}
}

// =============================================================================
// RequireIdentity Middleware
// =============================================================================

// RequireIdentity is middleware that requires a valid bearer token.
//
// The caller can be retrieved in handlers using:
//
//	id := auth.GetIdentity(r.Context())
//
// Flow:
//
//	Request -> RequireIdentity -> Handler
//	           |
//	           +-> Read Authorization header
//	           +-> Verify token signature and expiry
//	           +-> If invalid: 401
//	           +-> Set identity in context, call next handler
func (m *AuthMiddleware) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		id, err := m.verifier.Verify(raw)
		if err != nil {
			m.logger.Info("rejected access token",
				"path", r.URL.Path,
				"error", err,
			)
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		ctx := auth.SetIdentity(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// =============================================================================
// ActiveAccount Middleware
// =============================================================================

// ActiveAccount resolves the account the request operates on.
//
// The selected account comes from the X-Active-Account header, falling back
// to the active_account cookie. It is honored only while an active share
// grants the caller access; otherwise the caller's own account is used.
//
// IMPORTANT: This middleware must be used AFTER RequireIdentity.
func (m *AuthMiddleware) ActiveAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := auth.GetIdentity(r.Context())
		if id == nil {
			m.logger.Error("ActiveAccount called without identity in context")
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		account := m.accounts.ResolveActiveAccount(r.Context(), id.UserID, selectedAccount(r))
		ctx := auth.SetActiveAccount(r.Context(), account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// =============================================================================
// Request Helpers
// =============================================================================

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// selectedAccount returns the account pointer sent by the client, or nil
// when none is present or it does not parse.
func selectedAccount(r *http.Request) *uuid.UUID {
	raw := strings.TrimSpace(r.Header.Get(ActiveAccountHeader))
	if raw == "" {
		if c, err := r.Cookie(ActiveAccountCookieName); err == nil {
			raw = strings.TrimSpace(c.Value)
		}
	}
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	protected := Stack(authMw.RequireIdentity, authMw.ActiveAccount)
//	mux.Handle("GET /api/limits", protected(limitsHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
