// This file implements subscription management handlers backed by Stripe.
//
// Routes handled:
//   - POST /api/billing/checkout -> CreateCheckout
//   - POST /api/billing/portal   -> OpenPortal
//
// Both return the Stripe URL as JSON; the frontend performs the redirect.
package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/artuino0/personal-finance-app-sub000/internal/auth"
	"github.com/artuino0/personal-finance-app-sub000/internal/billing"
	"github.com/artuino0/personal-finance-app-sub000/internal/domain"
	"github.com/artuino0/personal-finance-app-sub000/internal/service"
)

// BillingHandler handles billing and subscription management HTTP requests.
type BillingHandler struct {
	billing  billing.Service
	profiles service.ProfileService
	baseURL  string
	logger   *slog.Logger
}

// NewBillingHandler creates a new BillingHandler.
// billingService may be nil when Stripe is not configured (development mode).
func NewBillingHandler(billingService billing.Service, profiles service.ProfileService, baseURL string, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		billing:  billingService,
		profiles: profiles,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// RegisterRoutes registers billing routes on the provided mux.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, requireIdentity func(http.Handler) http.Handler) {
	mux.Handle("POST /api/billing/checkout", requireIdentity(http.HandlerFunc(h.CreateCheckout)))
	mux.Handle("POST /api/billing/portal", requireIdentity(http.HandlerFunc(h.OpenPortal)))
}

// CheckoutRequest selects the plan to subscribe to.
type CheckoutRequest struct {
	Tier     domain.SubscriptionTier `json:"tier" validate:"required,oneof=pro premium"`
	Interval billing.Interval        `json:"interval" validate:"omitempty,oneof=monthly yearly"`
}

// RedirectResponse carries a Stripe-hosted URL.
type RedirectResponse struct {
	URL string `json:"url"`
}

// CreateCheckout creates a Stripe Checkout session for the selected plan.
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	const op = "billing.checkout"

	id := auth.GetIdentityFromRequest(r)
	if id == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	if h.billing == nil {
		h.logger.Warn("checkout attempted but Stripe is not configured")
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.ENOTIMPL, op, "Billing is not available"))
		return
	}

	var req CheckoutRequest
	if err := decodeJSON(r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if req.Interval == "" {
		req.Interval = billing.IntervalMonthly
	}

	priceID, ok := h.billing.PriceID(req.Tier, req.Interval)
	if !ok {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "That plan is not available"))
		return
	}

	profile, err := h.profiles.GetByID(r.Context(), id.UserID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	checkoutURL, err := h.billing.CreateCheckoutSession(billing.CheckoutParams{
		ProfileID:  profile.ID.String(),
		Email:      profile.Email,
		CustomerID: profile.StripeCustomerID,
		PriceID:    priceID,
		SuccessURL: fmt.Sprintf("%s/suscripcion?status=success&session_id={CHECKOUT_SESSION_ID}", h.baseURL),
		CancelURL:  fmt.Sprintf("%s/suscripcion?status=canceled", h.baseURL),
	})
	if err != nil {
		h.logger.Error("failed to create checkout session", "error", err, "user_id", profile.ID)
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, RedirectResponse{URL: checkoutURL})
}

// OpenPortal creates a Stripe Customer Portal session.
func (h *BillingHandler) OpenPortal(w http.ResponseWriter, r *http.Request) {
	const op = "billing.portal"

	id := auth.GetIdentityFromRequest(r)
	if id == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	if h.billing == nil {
		h.logger.Warn("portal requested but Stripe is not configured")
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.ENOTIMPL, op, "Billing is not available"))
		return
	}

	profile, err := h.profiles.GetByID(r.Context(), id.UserID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if profile.StripeCustomerID == "" {
		h.logger.Warn("portal requested but user has no stripe customer", "user_id", profile.ID)
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.ENOTFOUND, op, "No subscription found"))
		return
	}

	portalURL, err := h.billing.CreatePortalSession(profile.StripeCustomerID, fmt.Sprintf("%s/suscripcion", h.baseURL))
	if err != nil {
		h.logger.Error("failed to create portal session", "error", err, "user_id", profile.ID)
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, RedirectResponse{URL: portalURL})
}
