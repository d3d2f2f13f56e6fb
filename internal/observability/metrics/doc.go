// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - Durable job queue metrics (backlog depth, task outcomes, durations)
//   - Feed fetch/sync metrics (fetch duration, error kinds, items ingested)
//   - Delivery metrics (send duration, items delivered, blocked chats)
//   - Database query metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "feedrelay/internal/observability/metrics"
//
//	func syncFeed(feedID int64) {
//	    start := time.Now()
//	    // ... fetch and ingest ...
//	    inserted := 10
//
//	    metrics.RecordFeedFetch(feedID, time.Since(start))
//	    metrics.RecordFeedItemsIngested(feedID, inserted)
//	}
package metrics
