// Package metrics defines and registers all custom Prometheus metrics for the
// Condaura portal. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default registry on package init through
// promauto; the /metrics endpoint serves them alongside echoprometheus output.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Session metrics ───────────────────────────────────────────────────────────

// AuthAttemptsTotal counts login and registration submissions.
// Labels:
//   - operation: "login" or "register"
//   - result: "success", "failure", "rejected" (already submitting) or "canceled"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login and registration submissions, by result.",
	},
	[]string{"operation", "result"},
)

// LogoutsTotal counts logouts that reached the session store.
var LogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Total number of logouts.",
	},
)

// ActiveControllers tracks how many browser session controllers are held in
// memory.
var ActiveControllers = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_controllers",
		Help:      "Current number of in-memory browser session controllers.",
	},
)

// ── Guard metrics ─────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts route guard outcomes.
// Labels:
//   - policy: "authenticated" or "admin"
//   - decision: "render", "placeholder" or "redirect"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by policy and outcome.",
	},
	[]string{"policy", "decision"},
)

// ── Backend metrics ───────────────────────────────────────────────────────────

// BackendRequestDuration measures calls to the Condaura REST backend.
// Labels:
//   - op: the service operation (e.g. "campaigns.list")
//   - status: the HTTP status code, or "error" on transport failure
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of requests to the REST backend.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op", "status"},
)
