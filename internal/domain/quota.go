// This file defines the resource kinds counted against tier limits and the
// result types returned by limit checks.

package domain

// ResourceKind identifies a resource counted against a tier limit.
type ResourceKind string

const (
	ResourceKindAccount          ResourceKind = "account"
	ResourceKindRecurringService ResourceKind = "recurring_service"
	ResourceKindActiveCredit     ResourceKind = "active_credit"
	ResourceKindSharedUser       ResourceKind = "shared_user"
)

// AllResourceKinds lists the kinds reported in a usage summary.
var AllResourceKinds = []ResourceKind{
	ResourceKindAccount,
	ResourceKindRecurringService,
	ResourceKindActiveCredit,
	ResourceKindSharedUser,
}

// ParseResourceKind accepts both the canonical name and the URL form
// ("recurring-service").
func ParseResourceKind(s string) (ResourceKind, bool) {
	switch s {
	case "account", "accounts":
		return ResourceKindAccount, true
	case "recurring_service", "recurring-service", "recurring-services":
		return ResourceKindRecurringService, true
	case "active_credit", "active-credit", "credit", "credits":
		return ResourceKindActiveCredit, true
	case "shared_user", "shared-user", "shared-users":
		return ResourceKindSharedUser, true
	}
	return "", false
}

// Label returns a human-readable name for error messages.
func (k ResourceKind) Label() string {
	switch k {
	case ResourceKindAccount:
		return "Account"
	case ResourceKindRecurringService:
		return "Recurring service"
	case ResourceKindActiveCredit:
		return "Active credit"
	case ResourceKindSharedUser:
		return "Shared user"
	default:
		return string(k)
	}
}

// ShareResource returns the share permission resource type that guards
// writes of this kind. Shared users are managed only by the owner.
func (k ResourceKind) ShareResource() (ResourceType, bool) {
	switch k {
	case ResourceKindAccount:
		return ResourceTypeAccounts, true
	case ResourceKindRecurringService:
		return ResourceTypeRecurringServices, true
	case ResourceKindActiveCredit:
		return ResourceTypeCredits, true
	}
	return "", false
}

// LimitCheck is the outcome of evaluating one resource kind against the
// owner's tier.
type LimitCheck struct {
	Kind    ResourceKind     `json:"resource"`
	Allowed bool             `json:"allowed"`
	Count   int64            `json:"count"`
	Limit   *int64           `json:"limit"` // nil means unlimited
	Tier    SubscriptionTier `json:"tier"`
}

// Evaluate applies a cap to a count. Reaching the cap blocks the next
// creation; existing resources at the cap stay usable.
func Evaluate(kind ResourceKind, tier SubscriptionTier, count int64) LimitCheck {
	limit := LimitsFor(tier).For(kind)
	check := LimitCheck{
		Kind:  kind,
		Count: count,
		Limit: limit.Ptr(),
		Tier:  tier,
	}
	if limit.IsUnlimited() {
		check.Allowed = true
		return check
	}
	check.Allowed = count < int64(limit)
	return check
}

// Remaining returns how many more resources may be created, or -1 when
// unlimited.
func (c LimitCheck) Remaining() int64 {
	if c.Limit == nil {
		return -1
	}
	if r := *c.Limit - c.Count; r > 0 {
		return r
	}
	return 0
}

// UsageSummary reports every resource kind for one owner.
type UsageSummary struct {
	Tier      SubscriptionTier `json:"tier"`
	Resources []LimitCheck     `json:"resources"`
}
