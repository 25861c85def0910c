// Package metrics defines and registers all custom Prometheus metrics for the
// hour bank API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hourbank"

// ── Order metrics ─────────────────────────────────────────────────────────────

// OrdersSentTotal counts orders created by a send.
var OrdersSentTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_sent_total",
		Help:      "Total number of hour orders sent.",
	},
)

// OrderTransitionsTotal counts successful status changes.
// Label:
//   - status: the status the order moved to (e.g. "pending-transaction")
var OrderTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Total number of order status transitions, by target status.",
	},
	[]string{"status"},
)

// OrderRejectionsTotal counts order operations refused by a business rule.
// Labels:
//   - operation: "send", "approve", "reject" or "transact"
//   - kind: the error kind (e.g. "business_rule", "unauthorized")
var OrderRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_rejections_total",
		Help:      "Total number of order operations refused, by operation and error kind.",
	},
	[]string{"operation", "kind"},
)

// CreditTransfersTotal counts transact attempts that reached the ledger.
// Label:
//   - result: "committed", "insufficient_credit", "conflict" or "failed"
var CreditTransfersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credit_transfers_total",
		Help:      "Total number of credit transfers, labelled by result.",
	},
	[]string{"result"},
)

// OrderExpirationsTotal counts approvals that lapsed.
// Label:
//   - trigger: "transact" (lazy check) or "sweep" (background job)
var OrderExpirationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_expirations_total",
		Help:      "Total number of approved orders cancelled because the approval window lapsed.",
	},
	[]string{"trigger"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsTotal counts delivery outcomes.
// Labels:
//   - mode: "sync" (order creation) or "async" (dispatcher)
//   - result: "sent", "failed" or "dropped"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of notifications, by delivery mode and result.",
	},
	[]string{"mode", "result"},
)

// NotificationQueueDepth tracks the number of notifications waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// NotificationDuration measures how long a single delivery takes.
var NotificationDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_duration_seconds",
		Help:      "Duration of a single notification delivery.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Rate limit metrics ────────────────────────────────────────────────────────

// RateLimitedTotal counts requests refused with 429.
var RateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_requests_total",
		Help:      "Total number of requests refused by the rate limiter.",
	},
)
