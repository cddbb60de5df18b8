// Package metrics defines and registers all custom Prometheus metrics for the
// sessions API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sessions"

// ── Strategy metrics ──────────────────────────────────────────────────────────

// StrategyOutcomesTotal counts terminal strategy outcomes.
// Labels:
//   - strategy: "register", "login", "resetPassword" or "github"
//   - outcome: "accepted", "rejected" or "failed"
var StrategyOutcomesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "strategy_outcomes_total",
		Help:      "Total number of authentication strategy outcomes.",
	},
	[]string{"strategy", "outcome"},
)

// StrategyDuration measures how long one strategy pass takes, hashing included.
var StrategyDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "strategy_duration_seconds",
		Help:      "Duration of an authentication strategy pass.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"strategy"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionResolutionsTotal counts identity deserializations.
// Label:
//   - result: "user", "anonymous" or "error"
var SessionResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_resolutions_total",
		Help:      "Total number of session identity resolutions, by result.",
	},
	[]string{"result"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditEventsTotal counts audit events by result.
// Label:
//   - result: "stored", "dropped" or "error"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events handled by the dispatcher.",
	},
	[]string{"result"},
)
