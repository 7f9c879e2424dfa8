// Package metrics defines and registers all custom Prometheus metrics for the
// next-connect service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto, and served by the /metrics handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "next_connect"

// Auth attempt results.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts signup and signin attempts.
// Labels:
//   - strategy: "local-signup" or "local-signin"
//   - result: "success", "rejected", "invalid" (validation failure) or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by strategy and result.",
	},
	[]string{"strategy", "result"},
)

// SignoutsTotal counts signout requests.
var SignoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_signouts_total",
		Help:      "Total number of signout requests.",
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionsPrunedTotal counts expired session records deleted by the pruner.
var SessionsPrunedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_pruned_total",
		Help:      "Total number of expired sessions deleted.",
	},
)

// SessionCacheLookupsTotal counts session cache lookups.
// Label:
//   - result: "hit" or "miss"
var SessionCacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_cache_lookups_total",
		Help:      "Total number of session cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)
