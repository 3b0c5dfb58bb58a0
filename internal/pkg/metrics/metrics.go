// Package metrics defines and registers all custom Prometheus metrics for the
// auth gateway. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// init through promauto; HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "authgw"

// ── Backend metrics ───────────────────────────────────────────────────────────

// BackendRequestDuration measures round trips to the GraphQL backend.
// Labels:
//   - operation: GraphQL operation name (e.g. "endImpersonation")
//   - outcome: "ok", "graphql_error" or "transport_error"
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of GraphQL backend calls, by operation and outcome.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation", "outcome"},
)

// ── Impersonation metrics ─────────────────────────────────────────────────────

// ImpersonationTerminationsTotal counts end-impersonation attempts.
// Label:
//   - outcome: "ok", "missing_credential", "invalid_credential", "backend_error", "unexpected"
var ImpersonationTerminationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "impersonation_terminations_total",
		Help:      "Total number of end-impersonation attempts, by outcome.",
	},
	[]string{"outcome"},
)

// ImpersonationProbesTotal counts current-impersonation probes.
// Label:
//   - state: "normal", "impersonating" or "unknown"
var ImpersonationProbesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "impersonation_probes_total",
		Help:      "Total number of impersonation status probes, by derived session state.",
	},
	[]string{"state"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// CookieClearsTotal counts credential wipes.
// Label:
//   - kind: "logout", "clear" or "force_logout"
var CookieClearsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cookie_clears_total",
		Help:      "Total number of credential cookie wipes, by endpoint.",
	},
	[]string{"kind"},
)

// RateLimitedTotal counts requests refused by the rate limiter.
// Label:
//   - route: the matched route path
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
	[]string{"route"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events by what happened to them.
// Label:
//   - result: "stored", "failed" or "dropped"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events, by persistence result.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
