// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Queue metrics track the durable job queue (C1): how deep each pool's
// backlog is and how its dispatched tasks resolve.
var (
	// QueueDepth tracks the number of runnable tasks waiting per pool.
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Number of runnable tasks queued, by task_type",
		},
		[]string{"task_type"},
	)

	// TaskOutcomesTotal counts finished tasks by type and result.
	TaskOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_outcomes_total",
			Help: "Total number of tasks dispatched, by task_type and outcome",
		},
		[]string{"task_type", "outcome"}, // outcome: success, failure
	)

	// TaskDuration measures how long a dispatched task took to run.
	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "task_duration_seconds",
			Help:    "Task execution duration in seconds, by task_type",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"task_type"},
	)
)

// Feed fetch metrics track C2's fetch/parse outcomes.
var (
	// FeedFetchDuration measures how long a single feed fetch took.
	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_fetch_duration_seconds",
			Help:    "Time taken to fetch and parse a feed",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"feed_id"},
	)

	// FeedFetchErrorsTotal counts feed fetch failures by error kind (the
	// §7 error kinds TransientHttp, NotAFeed, ParseFailed).
	FeedFetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetch_errors_total",
			Help: "Total number of feed fetch errors, by error kind",
		},
		[]string{"kind"},
	)

	// FeedItemsIngestedTotal counts new items inserted per feed.
	FeedItemsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_items_ingested_total",
			Help: "Total number of new feed items ingested, by feed_id",
		},
		[]string{"feed_id"},
	)

	// FeedsRetiredTotal counts feeds retired for exceeding STALE_HORIZON.
	FeedsRetiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feeds_retired_total",
			Help: "Total number of feeds retired for exceeding the stale horizon",
		},
	)
)

// Delivery metrics track C4's send outcomes.
var (
	// DeliveryDuration measures how long one chat's delivery pass took.
	DeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "delivery_duration_seconds",
			Help:    "Time taken to drain one chat's undelivered items",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	// DeliveredItemsTotal counts items successfully sent.
	DeliveredItemsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "delivered_items_total",
			Help: "Total number of feed items delivered to chats",
		},
	)

	// ChatsBlockedTotal counts chats removed after a BotBlocked transport
	// error.
	ChatsBlockedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chats_blocked_total",
			Help: "Total number of chats removed after the bot was blocked, kicked, or deleted",
		},
	)

	// TransportErrorsTotal counts non-BotBlocked transport failures.
	TransportErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transport_errors_total",
			Help: "Total number of transient transport errors during delivery",
		},
	)
)

// Cleanup metrics track C5's orphan and old-item housekeeping.
var (
	// OrphanFeedsRemovedTotal counts feeds deleted for holding zero
	// subscriptions.
	OrphanFeedsRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orphan_feeds_removed_total",
			Help: "Total number of feeds removed for having no subscriptions",
		},
	)

	// OldItemsRemovedTotal counts feed_items deleted for exceeding a
	// feed's retained-item cap.
	OldItemsRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "old_items_removed_total",
			Help: "Total number of feed items removed for exceeding the per-feed retention cap",
		},
	)
)

// Database metrics track database performance, kept from the teacher
// unchanged: every query still runs against the same connection pool.
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordOperationDuration records the duration of a named operation
func RecordOperationDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
