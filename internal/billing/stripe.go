// Package billing provides Stripe billing integration for subscription management.
package billing

import (
	"fmt"

	"github.com/artuino0/personal-finance-app-sub000/internal/domain"
	"github.com/stripe/stripe-go/v79"
	billingportalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Interval is the billing period of a plan price.
type Interval string

const (
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

// Service defines the interface for billing operations.
type Service interface {
	// CreateCheckoutSession creates a Stripe Checkout session for subscribing.
	// When customerID is empty Stripe creates the customer and the profile
	// is linked back through the client reference ID.
	// Returns the checkout URL to redirect the user to.
	CreateCheckoutSession(params CheckoutParams) (string, error)

	// CreatePortalSession creates a Stripe Customer Portal session.
	// Returns the portal URL to redirect the user to.
	CreatePortalSession(customerID, returnURL string) (string, error)

	// VerifyWebhookSignature verifies the Stripe webhook signature and returns the event.
	VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error)

	// TierForPriceID returns the subscription tier for a given Stripe price
	// ID. Unknown prices yield false.
	TierForPriceID(priceID string) (domain.SubscriptionTier, bool)

	// PriceID returns the configured price for a paid tier and interval.
	PriceID(tier domain.SubscriptionTier, interval Interval) (string, bool)
}

// PriceConfig holds the Stripe price IDs for each plan.
type PriceConfig struct {
	ProMonthlyPriceID     string
	ProYearlyPriceID      string
	PremiumMonthlyPriceID string
	PremiumYearlyPriceID  string
}

// CheckoutParams contains parameters for a subscription checkout.
type CheckoutParams struct {
	ProfileID  string
	Email      string
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

type priceKey struct {
	tier     domain.SubscriptionTier
	interval Interval
}

// stripeService is the concrete implementation of Service.
type stripeService struct {
	webhookSecret string
	priceToTier   map[string]domain.SubscriptionTier
	tierToPrice   map[priceKey]string
}

// NewStripeService creates a new Stripe billing service.
//
// The secretKey is used to authenticate Stripe API calls.
// The webhookSecret is used to verify incoming webhook signatures.
// The prices configure which Stripe price IDs map to which tiers.
func NewStripeService(secretKey, webhookSecret string, prices PriceConfig) Service {
	stripe.Key = secretKey

	s := &stripeService{
		webhookSecret: webhookSecret,
		priceToTier:   make(map[string]domain.SubscriptionTier),
		tierToPrice:   make(map[priceKey]string),
	}
	s.addPrice(prices.ProMonthlyPriceID, domain.SubscriptionTierPro, IntervalMonthly)
	s.addPrice(prices.ProYearlyPriceID, domain.SubscriptionTierPro, IntervalYearly)
	s.addPrice(prices.PremiumMonthlyPriceID, domain.SubscriptionTierPremium, IntervalMonthly)
	s.addPrice(prices.PremiumYearlyPriceID, domain.SubscriptionTierPremium, IntervalYearly)
	return s
}

func (s *stripeService) addPrice(priceID string, tier domain.SubscriptionTier, interval Interval) {
	if priceID == "" {
		return
	}
	s.priceToTier[priceID] = tier
	s.tierToPrice[priceKey{tier, interval}] = priceID
}

func (s *stripeService) CreateCheckoutSession(p CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(p.ProfileID),
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
	}
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	} else if p.Email != "" {
		params.CustomerEmail = stripe.String(p.Email)
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) CreatePortalSession(customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	sess, err := billingportalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create portal session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}
	return event, nil
}

func (s *stripeService) TierForPriceID(priceID string) (domain.SubscriptionTier, bool) {
	tier, ok := s.priceToTier[priceID]
	return tier, ok
}

func (s *stripeService) PriceID(tier domain.SubscriptionTier, interval Interval) (string, bool) {
	id, ok := s.tierToPrice[priceKey{tier, interval}]
	return id, ok
}
