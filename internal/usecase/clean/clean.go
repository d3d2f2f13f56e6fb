// Package clean implements the Cleaner (C5): periodically removing
// feeds that no chat subscribes to any longer, and trimming each
// remaining feed's stored items down to its retention cap.
package clean

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"feedrelay/internal/domain/entity"
	"feedrelay/internal/observability/metrics"
	"feedrelay/internal/queue"
	"feedrelay/internal/repository"
)

// FeedsPerPage bounds one CleanJob scan's page size.
const FeedsPerPage = 500

type kind string

const (
	kindScan kind = "scan"
	kindFeed kind = "feed"
)

type payload struct {
	Kind   kind  `json:"kind"`
	FeedID int64 `json:"feed_id,omitempty"`
}

// ScanPayload is the fixed body SchedulePeriodic registers for the
// recurring cleanup scan.
func ScanPayload() []byte {
	b, _ := json.Marshal(payload{Kind: kindScan})
	return b
}

func feedPayload(feedID int64) []byte {
	b, _ := json.Marshal(payload{Kind: kindFeed, FeedID: feedID})
	return b
}

// Jobs bundles the Cleaner's dependencies and exposes the queue.Runnable
// the "clean" worker pool dispatches every task_type=clean payload to.
type Jobs struct {
	Feeds  repository.FeedRepository
	Items  repository.FeedItemRepository
	Queue  *queue.Queue
	Logger *slog.Logger
}

// Execute is the Registry.Runnable bound to entity.TaskTypeClean.
func (j *Jobs) Execute(ctx context.Context, raw []byte) entity.Outcome {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return entity.Terminal(fmt.Errorf("clean: decode payload: %w", err))
	}

	switch p.Kind {
	case kindScan:
		return j.scan(ctx)
	case kindFeed:
		return j.removeOldItems(ctx, p.FeedID)
	default:
		return entity.Terminal(fmt.Errorf("clean: unknown payload kind %q", p.Kind))
	}
}

// scan deletes every orphaned feed (zero subscriptions), then enqueues
// one unique per-feed item-trim task for every feed that remains,
// paged by FeedsPerPage.
func (j *Jobs) scan(ctx context.Context) entity.Outcome {
	removed, err := j.Feeds.DeleteOrphans(ctx)
	if err != nil {
		return entity.Failure(fmt.Errorf("clean scan: delete orphans: %w", err))
	}
	metrics.RecordOrphanFeedsRemoved(removed)

	for page := 0; ; page++ {
		feedIDs, err := j.Feeds.LoadIDs(ctx, page, FeedsPerPage)
		if err != nil {
			return entity.Failure(fmt.Errorf("clean scan: load ids: %w", err))
		}
		if len(feedIDs) == 0 {
			break
		}
		for _, id := range feedIDs {
			if _, err := j.Queue.Enqueue(ctx, entity.TaskTypeClean, feedPayload(id), true); err != nil {
				j.Logger.Error("clean: failed to enqueue item trim",
					slog.Int64("feed_id", id), slog.Any("error", err))
			}
		}
		if len(feedIDs) < FeedsPerPage {
			break
		}
	}
	return entity.Success()
}

// removeOldItems implements RemoveOldItemsJob.execute(feed_id): trim
// feedID's stored items down to entity.MaxItemsPerFeed, newest first by
// publication date.
func (j *Jobs) removeOldItems(ctx context.Context, feedID int64) entity.Outcome {
	removed, err := j.Items.DeleteOld(ctx, feedID, entity.MaxItemsPerFeed)
	if err != nil {
		return entity.Failure(fmt.Errorf("clean feed %d: delete old: %w", feedID, err))
	}
	metrics.RecordOldItemsRemoved(removed)
	return entity.Success()
}
