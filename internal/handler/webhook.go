package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/artuino0/personal-finance-app-sub000/internal/billing"
	"github.com/artuino0/personal-finance-app-sub000/internal/domain"
	"github.com/artuino0/personal-finance-app-sub000/internal/service"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
)

// maxWebhookBody is the largest webhook payload accepted (64KB).
const maxWebhookBody = 65536

// errSkipEvent marks an event that can never be applied. It is logged and
// acknowledged so Stripe stops redelivering it.
type errSkipEvent struct{ reason string }

func (e errSkipEvent) Error() string { return e.reason }

func skip(format string, args ...any) error {
	return errSkipEvent{reason: fmt.Sprintf(format, args...)}
}

// WebhookHandler applies Stripe billing events to profiles. Its route is
// public; the Stripe-Signature header is the authentication.
type WebhookHandler struct {
	billing  billing.Service
	profiles service.ProfileService
	logger   *slog.Logger
	events   map[string]func(context.Context, stripe.Event) error
}

// NewWebhookHandler creates a WebhookHandler. billingService is nil when
// Stripe is not configured.
func NewWebhookHandler(billingService billing.Service, profiles service.ProfileService, logger *slog.Logger) *WebhookHandler {
	h := &WebhookHandler{
		billing:  billingService,
		profiles: profiles,
		logger:   logger,
	}
	h.events = map[string]func(context.Context, stripe.Event) error{
		"checkout.session.completed":    h.checkoutCompleted,
		"customer.subscription.created": h.subscriptionChanged,
		"customer.subscription.updated": h.subscriptionChanged,
		"customer.subscription.deleted": h.subscriptionDeleted,
		"invoice.payment_succeeded":     h.paymentSucceeded,
		"invoice.payment_failed":        h.paymentFailed,
	}
	return h
}

func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/stripe", h.HandleStripeWebhook)
}

// HandleStripeWebhook verifies and applies one event. Store failures answer
// 500 so Stripe retries; events that can never apply are acknowledged.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		h.logger.Warn("stripe webhook received but billing is not configured")
		w.WriteHeader(http.StatusOK)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	event, err := h.billing.VerifyWebhookSignature(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	log := h.logger.With("event_id", event.ID, "type", event.Type)

	apply, ok := h.events[string(event.Type)]
	if !ok {
		log.Debug("unhandled webhook event type")
		w.WriteHeader(http.StatusOK)
		return
	}

	err = apply(r.Context(), event)
	var skipped errSkipEvent
	switch {
	case err == nil:
		log.Info("stripe webhook applied")
	case errors.As(err, &skipped):
		log.Warn("stripe webhook skipped", "reason", skipped.reason)
	default:
		log.Error("stripe webhook failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// profileForCustomer finds the profile linked to a Stripe customer.
func (h *WebhookHandler) profileForCustomer(ctx context.Context, customer *stripe.Customer) (*domain.Profile, error) {
	if customer == nil {
		return nil, skip("event has no customer")
	}
	profile, err := h.profiles.GetByStripeCustomerID(ctx, customer.ID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, skip("no profile for customer %s", customer.ID)
		}
		return nil, err
	}
	return profile, nil
}

// checkoutCompleted links the Stripe customer to the profile named in the
// session's client reference, so later subscription events can find it.
func (h *WebhookHandler) checkoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return skip("unparseable checkout session: %v", err)
	}
	if session.Customer == nil {
		return skip("checkout session %s has no customer", session.ID)
	}
	profileID, err := uuid.Parse(session.ClientReferenceID)
	if err != nil {
		return skip("checkout session %s has no profile reference", session.ID)
	}

	if err := h.profiles.LinkStripeCustomer(ctx, profileID, session.Customer.ID); err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return skip("checkout references unknown profile %s", profileID)
		}
		return err
	}
	h.logger.Info("stripe customer linked", "user_id", profileID, "customer_id", session.Customer.ID)
	return nil
}

func (h *WebhookHandler) subscriptionChanged(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return skip("unparseable subscription: %v", err)
	}
	profile, err := h.profileForCustomer(ctx, sub.Customer)
	if err != nil {
		return err
	}

	// Unknown prices keep the current tier rather than granting one.
	tier := profile.SubscriptionTier
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID := sub.Items.Data[0].Price.ID
		if t, ok := h.billing.TierForPriceID(priceID); ok {
			tier = t
		} else {
			h.logger.Warn("subscription uses unknown price", "price_id", priceID)
		}
	}

	return h.profiles.UpdateSubscription(ctx, domain.UpdateSubscriptionParams{
		ProfileID:      profile.ID,
		Tier:           tier,
		Status:         domain.SubscriptionStatus(sub.Status),
		SubscriptionID: sub.ID,
	})
}

// subscriptionDeleted drops the profile back to the free tier.
func (h *WebhookHandler) subscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return skip("unparseable subscription: %v", err)
	}
	profile, err := h.profileForCustomer(ctx, sub.Customer)
	if err != nil {
		return err
	}

	return h.profiles.UpdateSubscription(ctx, domain.UpdateSubscriptionParams{
		ProfileID: profile.ID,
		Tier:      domain.SubscriptionTierFree,
		Status:    domain.SubscriptionStatusInactive,
	})
}

// paymentSucceeded recovers a past_due subscription.
func (h *WebhookHandler) paymentSucceeded(ctx context.Context, event stripe.Event) error {
	return h.setInvoiceStatus(ctx, event, domain.SubscriptionStatusActive)
}

// paymentFailed marks the subscription past_due without touching the tier.
func (h *WebhookHandler) paymentFailed(ctx context.Context, event stripe.Event) error {
	return h.setInvoiceStatus(ctx, event, domain.SubscriptionStatusPastDue)
}

func (h *WebhookHandler) setInvoiceStatus(ctx context.Context, event stripe.Event, status domain.SubscriptionStatus) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return skip("unparseable invoice: %v", err)
	}
	profile, err := h.profileForCustomer(ctx, invoice.Customer)
	if err != nil {
		return err
	}
	if profile.SubscriptionStatus == status {
		return nil
	}

	return h.profiles.UpdateSubscription(ctx, domain.UpdateSubscriptionParams{
		ProfileID:      profile.ID,
		Tier:           profile.SubscriptionTier,
		Status:         status,
		SubscriptionID: profile.StripeSubscriptionID,
	})
}
