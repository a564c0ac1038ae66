package metrics

import "time"

// QuotaChecked records the outcome of a tier limit check.
func QuotaChecked(resource, tier string, allowed bool, err error) {
	QuotaChecksTotal.WithLabelValues(resource, tier, outcome(allowed, err)).Inc()
}

// PermissionChecked records the outcome of a permission resolution.
// owner is true when the requester resolved permissions on their own data.
func PermissionChecked(resource string, owner, granted bool, err error) {
	result := outcome(granted, err)
	if owner && err == nil {
		result = "owner"
	}
	PermissionChecksTotal.WithLabelValues(resource, result).Inc()
}

// AnalysisGated records the outcome of the AI analysis rate limit check.
func AnalysisGated(tier string, allowed bool, err error) {
	AnalysisGateTotal.WithLabelValues(tier, outcome(allowed, err)).Inc()
}

// InvitationTransition records a share lifecycle event.
func InvitationTransition(transition string) {
	InvitationTransitionsTotal.WithLabelValues(transition).Inc()
}

// InvitationsExpired records pending invitations removed after expiry.
func InvitationsExpired(n int64) {
	InvitationTransitionsTotal.WithLabelValues("expired").Add(float64(n))
}

// RateLimited records a request rejected by the named limiter.
func RateLimited(limiter string) {
	RateLimitedTotal.WithLabelValues(limiter).Inc()
}

// TaskRun records one pass of a background maintenance task.
func TaskRun(task string, took time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	WorkerTaskRunsTotal.WithLabelValues(task, result).Inc()
	WorkerTaskDuration.WithLabelValues(task).Observe(took.Seconds())
}

func outcome(allowed bool, err error) string {
	switch {
	case err != nil:
		return "error"
	case allowed:
		return "allowed"
	default:
		return "denied"
	}
}
