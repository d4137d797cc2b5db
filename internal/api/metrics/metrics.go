// Package metrics defines and registers the custom Prometheus metrics of the
// accounts API. It is the single source of truth for metric names, labels and
// help strings.
//
// All metrics are registered with the default Prometheus registry at package
// init through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// ── Authentication metrics ────────────────────────────────────────────────────

// SignInsTotal counts sign-in attempts.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signins_total",
		Help:      "Total number of sign-in attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "success", "conflict", "invalid" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// GateRejectionsTotal counts requests refused by the request gate.
// Label:
//   - reason: "missing_header", "malformed", "expired", "invalid" or "unexpected"
var GateRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_rejections_total",
		Help:      "Total number of requests rejected by the token gate, by reason.",
	},
	[]string{"reason"},
)

// ── Upload metrics ────────────────────────────────────────────────────────────

// UploadsTotal counts stored uploads.
// Label:
//   - kind: "picture" or "file"
var UploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Total number of files stored, by kind.",
	},
	[]string{"kind"},
)

// CleanupQueueDepth tracks pending blob deletions per cleanup worker.
// Label:
//   - worker_id: numeric worker index
var CleanupQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "blob_cleanup_queue_depth",
		Help:      "Current number of blob deletions pending in each cleanup worker channel.",
	},
	[]string{"worker_id"},
)

// CleanupTotal counts processed blob deletions.
// Label:
//   - result: "deleted", "failed" or "dropped"
var CleanupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blob_cleanup_total",
		Help:      "Total number of blob cleanup jobs, by result.",
	},
	[]string{"result"},
)
