package metrics

import (
	"strconv"
	"time"
)

// QueueCollector records per-task-type outcome and duration metrics for
// one worker pool; internal/queue.Pool holds one per task_type so it
// never has to reach for a string label by hand on the hot path.
type QueueCollector struct{}

func NewQueueCollector() *QueueCollector { return &QueueCollector{} }

// RecordOutcome records one dispatched task's result.
func (c *QueueCollector) RecordOutcome(taskType string, success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	TaskOutcomesTotal.WithLabelValues(taskType, outcome).Inc()
	TaskDuration.WithLabelValues(taskType).Observe(duration.Seconds())
}

// UpdateQueueDepth records taskType's current runnable backlog size.
func UpdateQueueDepth(taskType string, depth int64) {
	QueueDepth.WithLabelValues(taskType).Set(float64(depth))
}

// RecordFeedFetch records a successful feed fetch's duration.
func RecordFeedFetch(feedID int64, duration time.Duration) {
	FeedFetchDuration.WithLabelValues(strconv.FormatInt(feedID, 10)).Observe(duration.Seconds())
}

// RecordFeedFetchError records a feed fetch failure by §7 error kind
// (TransientHttp, NotAFeed, ParseFailed).
func RecordFeedFetchError(kind string) {
	FeedFetchErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordFeedItemsIngested records how many new items one sync pass
// inserted for feedID.
func RecordFeedItemsIngested(feedID int64, count int) {
	if count <= 0 {
		return
	}
	FeedItemsIngestedTotal.WithLabelValues(strconv.FormatInt(feedID, 10)).Add(float64(count))
}

// RecordFeedRetired records one StaleFeed retirement.
func RecordFeedRetired() {
	FeedsRetiredTotal.Inc()
}

// RecordDelivery records one chat's delivery pass duration and how many
// items it sent.
func RecordDelivery(duration time.Duration, itemsSent int) {
	DeliveryDuration.Observe(duration.Seconds())
	if itemsSent > 0 {
		DeliveredItemsTotal.Add(float64(itemsSent))
	}
}

// RecordChatBlocked records a BotBlocked chat removal.
func RecordChatBlocked() {
	ChatsBlockedTotal.Inc()
}

// RecordTransportError records a TransportOther failure.
func RecordTransportError() {
	TransportErrorsTotal.Inc()
}

// RecordOrphanFeedsRemoved records how many subscription-less feeds one
// cleanup pass deleted.
func RecordOrphanFeedsRemoved(count int64) {
	if count <= 0 {
		return
	}
	OrphanFeedsRemovedTotal.Add(float64(count))
}

// RecordOldItemsRemoved records how many items one feed's retention
// trim deleted.
func RecordOldItemsRemoved(count int64) {
	if count <= 0 {
		return
	}
	OldItemsRemovedTotal.Add(float64(count))
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "select_feeds", "insert_feed_items").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
