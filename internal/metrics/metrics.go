// Package metrics owns the Prometheus collectors served on /metrics. No
// collector carries a user or account label.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "finance"

func counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
}

// HTTP
var (
	HTTPRequestsTotal = counterVec("http_requests_total",
		"HTTP requests by method, route pattern and status.",
		"method", "path", "status_code")

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "HTTP requests currently being served.",
	})

	RateLimitedTotal = counterVec("rate_limited_total",
		"Requests rejected by a per-IP rate limiter.",
		"limiter")
)

// Access decisions. result is allowed, denied or error; permission checks
// also report owner.
var (
	QuotaChecksTotal = counterVec("quota_checks_total",
		"Tier limit checks by resource, tier and result.",
		"resource", "tier", "result")

	PermissionChecksTotal = counterVec("permission_checks_total",
		"Share permission resolutions by resource and result.",
		"resource", "result")

	AnalysisGateTotal = counterVec("analysis_gate_total",
		"AI analysis window checks by tier and result.",
		"tier", "result")

	InvitationTransitionsTotal = counterVec("invitation_transitions_total",
		"Share invitation lifecycle events: created, accepted, rejected, revoked, expired.",
		"transition")
)

// AI provider usage, aggregated across users.
var (
	AIAPICalls = counterVec("ai_api_calls_total",
		"AI provider calls by status.",
		"status")

	AITokensTotal = counterVec("ai_tokens_total",
		"AI tokens consumed, by input or output.",
		"type")
)

// Background maintenance.
var (
	WorkerTaskRunsTotal = counterVec("worker_task_runs_total",
		"Maintenance task runs by task and result.",
		"task", "result")

	WorkerTaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "worker_task_duration_seconds",
		Help:      "Maintenance task run time.",
		Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 60},
	}, []string{"task"})
)
