// This file defines subscription tiers and the static table of resource
// limits attached to each tier.

package domain

import (
	"strings"
	"time"
)

// SubscriptionTier represents the pricing tier of a subscription.
type SubscriptionTier string

const (
	SubscriptionTierFree    SubscriptionTier = "free"
	SubscriptionTierPro     SubscriptionTier = "pro"
	SubscriptionTierPremium SubscriptionTier = "premium"
)

// AllTiers lists every tier in ascending order.
var AllTiers = []SubscriptionTier{
	SubscriptionTierFree,
	SubscriptionTierPro,
	SubscriptionTierPremium,
}

// ParseTier normalizes a stored tier value. Unknown and empty values map to
// the free tier so a bad profile row can only ever restrict a user.
func ParseTier(s string) SubscriptionTier {
	switch SubscriptionTier(strings.ToLower(strings.TrimSpace(s))) {
	case SubscriptionTierPro:
		return SubscriptionTierPro
	case SubscriptionTierPremium:
		return SubscriptionTierPremium
	default:
		return SubscriptionTierFree
	}
}

// Limit is a resource cap. Unlimited (-1) disables the cap.
type Limit int64

// Unlimited indicates no cap for a resource.
const Unlimited Limit = -1

// IsUnlimited reports whether the limit disables the cap.
func (l Limit) IsUnlimited() bool {
	return l < 0
}

// Ptr returns the limit as a pointer, nil when unlimited. Used for JSON
// responses where unlimited is rendered as null.
func (l Limit) Ptr() *int64 {
	if l.IsUnlimited() {
		return nil
	}
	v := int64(l)
	return &v
}

// TierLimits holds the resource caps for one subscription tier.
type TierLimits struct {
	Accounts           Limit
	SharedUsers        Limit
	RecurringServices  Limit
	ActiveCredits      Limit
	AIAnalysesPerMonth Limit

	// AnalysisWindow is the minimum gap between two AI analyses. Unused
	// when AIAnalysesPerMonth is unlimited.
	AnalysisWindow time.Duration
}

// For returns the cap that applies to the given resource kind.
// Unknown kinds get a zero cap.
func (l TierLimits) For(kind ResourceKind) Limit {
	switch kind {
	case ResourceKindAccount:
		return l.Accounts
	case ResourceKindSharedUser:
		return l.SharedUsers
	case ResourceKindRecurringService:
		return l.RecurringServices
	case ResourceKindActiveCredit:
		return l.ActiveCredits
	default:
		return 0
	}
}

// tierLimits maps subscription tiers to their limits.
var tierLimits = map[SubscriptionTier]TierLimits{
	SubscriptionTierFree: {
		Accounts:           3,
		SharedUsers:        0,
		RecurringServices:  5,
		ActiveCredits:      2,
		AIAnalysesPerMonth: 1,
		AnalysisWindow:     FreeAnalysisWindow,
	},
	SubscriptionTierPro: {
		Accounts:           10,
		SharedUsers:        2,
		RecurringServices:  20,
		ActiveCredits:      10,
		AIAnalysesPerMonth: 4,
		AnalysisWindow:     ProAnalysisWindow,
	},
	SubscriptionTierPremium: {
		Accounts:           Unlimited,
		SharedUsers:        5,
		RecurringServices:  Unlimited,
		ActiveCredits:      Unlimited,
		AIAnalysesPerMonth: Unlimited,
	},
}

// LimitsFor returns the limits for a tier, defaulting to the free tier for
// unknown tiers.
func LimitsFor(tier SubscriptionTier) TierLimits {
	if limits, ok := tierLimits[tier]; ok {
		return limits
	}
	return tierLimits[SubscriptionTierFree]
}
