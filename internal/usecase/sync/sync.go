// Package sync implements the Sync Pipeline (C3): periodically scanning
// for feeds due a refetch, and, per feed, fetching, diffing against
// stored items, persisting anything new, marking affected subscriptions
// dirty, and retiring feeds that have failed for too long.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feedrelay/internal/domain/entity"
	"feedrelay/internal/infra/feedfetch"
	"feedrelay/internal/infra/transport"
	"feedrelay/internal/observability/metrics"
	"feedrelay/internal/queue"
	"feedrelay/internal/repository"

	"golang.org/x/sync/errgroup"
)

// DefaultSyncInterval is the fallback staleness horizon when Jobs.Interval
// is left unset; operators size the real value via SYNC_INTERVAL_SECS (§6).
const DefaultSyncInterval = time.Minute

// FeedsPerPage bounds one SyncJob scan's page size (§4.3).
const FeedsPerPage = 100

// RetireNotifyConcurrency bounds how many chats a stale-feed retirement
// notifies in parallel.
const RetireNotifyConcurrency = 8

// kind discriminates the two payload shapes this package's single
// "sync" task_type dispatches between (see internal/queue.Registry).
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
// recurring feed scan.
func ScanPayload() []byte {
	b, _ := json.Marshal(payload{Kind: kindScan})
	return b
}

func feedPayload(feedID int64) []byte {
	b, _ := json.Marshal(payload{Kind: kindFeed, FeedID: feedID})
	return b
}

// Jobs bundles Sync's dependencies and exposes the queue.Runnable the
// "sync" worker pool dispatches every task_type=sync payload to.
type Jobs struct {
	Feeds     repository.FeedRepository
	Items     repository.FeedItemRepository
	Chats     repository.ChatRepository
	Subs      repository.SubscriptionRepository
	Fetcher   *feedfetch.Fetcher
	Transport *transport.ChatTransport
	Queue     *queue.Queue
	Logger    *slog.Logger

	// Interval is how long a feed may go unsynced before scan's
	// FindUnsynced call selects it again (SYNC_INTERVAL_SECS). Zero means
	// DefaultSyncInterval.
	Interval time.Duration
}

func (j *Jobs) syncInterval() time.Duration {
	if j.Interval <= 0 {
		return DefaultSyncInterval
	}
	return j.Interval
}

// Execute is the Registry.Runnable bound to entity.TaskTypeSync: it
// inspects payload.Kind and dispatches to Scan or syncFeed.
func (j *Jobs) Execute(ctx context.Context, raw []byte) entity.Outcome {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return entity.Terminal(fmt.Errorf("sync: decode payload: %w", err))
	}

	switch p.Kind {
	case kindScan:
		return j.scan(ctx)
	case kindFeed:
		return j.syncFeed(ctx, p.FeedID)
	default:
		return entity.Terminal(fmt.Errorf("sync: unknown payload kind %q", p.Kind))
	}
}

// scan selects feeds due a refetch and enqueues one unique per-feed sync
// task for each, paged by FeedsPerPage.
func (j *Jobs) scan(ctx context.Context) entity.Outcome {
	now := time.Now()
	for page := 0; ; page++ {
		feeds, err := j.Feeds.FindUnsynced(ctx, now.Add(-j.syncInterval()), page, FeedsPerPage)
		if err != nil {
			return entity.Failure(fmt.Errorf("sync scan: find unsynced: %w", err))
		}
		if len(feeds) == 0 {
			break
		}
		for _, feed := range feeds {
			if _, err := j.Queue.Enqueue(ctx, entity.TaskTypeSync, feedPayload(feed.ID), true); err != nil {
				j.Logger.Error("sync: failed to enqueue feed sync",
					slog.Int64("feed_id", feed.ID), slog.Any("error", err))
			}
		}
		if len(feeds) < FeedsPerPage {
			break
		}
	}
	return entity.Success()
}

// syncFeed implements SyncFeedJob.execute(feed_id) (§4.3).
func (j *Jobs) syncFeed(ctx context.Context, feedID int64) entity.Outcome {
	feed, err := j.Feeds.FindByID(ctx, feedID)
	if err != nil {
		return entity.Failure(fmt.Errorf("sync feed %d: find: %w", feedID, err))
	}
	if feed == nil {
		return entity.Success()
	}

	start := time.Now()
	fetched, fetchErr := j.Fetcher.FetchForFeed(ctx, feed)
	if fetchErr != nil {
		return j.handleFetchError(ctx, feed, fetchErr)
	}
	metrics.RecordFeedFetch(feed.ID, time.Since(start))

	if len(fetched.Items) == 0 {
		if err := j.Feeds.SetSyncedAt(ctx, feed.ID, time.Now(), fetched.Title, fetched.Description); err != nil {
			return entity.Failure(fmt.Errorf("sync feed %d: set_synced_at: %w", feedID, err))
		}
		return entity.Success()
	}

	latest, err := j.Items.GetLatest(ctx, feed.ID)
	if err != nil {
		return entity.Failure(fmt.Errorf("sync feed %d: get_latest: %w", feedID, err))
	}

	newest := &entity.FeedItem{
		Title:           fetched.Items[0].Title,
		Link:            fetched.Items[0].Link,
		PublicationDate: fetched.Items[0].PublicationDate,
	}
	if !newest.IsNewerThan(latest) {
		if err := j.Feeds.SetSyncedAt(ctx, feed.ID, time.Now(), fetched.Title, fetched.Description); err != nil {
			return entity.Failure(fmt.Errorf("sync feed %d: set_synced_at: %w", feedID, err))
		}
		return entity.Success()
	}

	items := make([]*entity.FeedItem, 0, len(fetched.Items))
	for _, it := range fetched.Items {
		items = append(items, &entity.FeedItem{
			FeedID:          feed.ID,
			Title:           it.Title,
			Link:            it.Link,
			Description:     it.Description,
			Author:          it.Author,
			GUID:            it.GUID,
			PublicationDate: it.PublicationDate,
		})
	}

	inserted, err := j.Items.CreateMany(ctx, feed.ID, items)
	if err != nil {
		return entity.Failure(fmt.Errorf("sync feed %d: create_many: %w", feedID, err))
	}
	metrics.RecordFeedItemsIngested(feed.ID, len(inserted))

	if len(inserted) > 0 {
		since := inserted[0].CreatedAt
		for _, it := range inserted[1:] {
			if it.CreatedAt.After(since) {
				since = it.CreatedAt
			}
		}
		if err := j.Subs.MarkHasUpdates(ctx, feed.ID, since); err != nil {
			return entity.Failure(fmt.Errorf("sync feed %d: mark_has_updates: %w", feedID, err))
		}
	}

	if err := j.Feeds.SetSyncedAt(ctx, feed.ID, time.Now(), fetched.Title, fetched.Description); err != nil {
		return entity.Failure(fmt.Errorf("sync feed %d: set_synced_at: %w", feedID, err))
	}
	return entity.Success()
}

// handleFetchError applies §4.3 step 4: record the error and retry next
// tick, unless the feed has now been failing longer than StaleHorizon,
// in which case it is retired.
func (j *Jobs) handleFetchError(ctx context.Context, feed *entity.Feed, fetchErr error) entity.Outcome {
	metrics.RecordFeedFetchError(classifyFetchError(fetchErr))

	if !feed.IsStale(time.Now()) {
		if err := j.Feeds.SetError(ctx, feed.ID, fetchErr.Error()); err != nil {
			return entity.Failure(fmt.Errorf("sync feed %d: set_error: %w", feed.ID, err))
		}
		return entity.Success()
	}

	return j.retire(ctx, feed)
}

// retire notifies every chat subscribed to feed that it could not be
// processed, then deletes it (cascading its items and subscriptions),
// per §4.3's StaleFeed policy and S5.
func (j *Jobs) retire(ctx context.Context, feed *entity.Feed) entity.Outcome {
	chats, err := j.Chats.FindChatsByFeed(ctx, feed.ID)
	if err != nil {
		return entity.Failure(fmt.Errorf("retire feed %d: find_chats_by_feed: %w", feed.ID, err))
	}

	message := fmt.Sprintf("%s can not be processed. It was removed.", feed.Link)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(RetireNotifyConcurrency)
	for _, chat := range chats {
		chat := chat
		g.Go(func() error {
			if err := j.Transport.Send(gctx, chat.ID, message, chat.PreviewEnabled, nil); err != nil {
				j.Logger.Warn("retire: failed to notify chat",
					slog.Int64("chat_id", chat.ID), slog.Int64("feed_id", feed.ID), slog.Any("error", err))
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := j.Feeds.Delete(ctx, feed.ID); err != nil {
		return entity.Failure(fmt.Errorf("retire feed %d: delete: %w", feed.ID, err))
	}
	metrics.RecordFeedRetired()
	return entity.Success()
}

// classifyFetchError maps a feedfetch error to the §7 error-kind label
// used on the feed_fetch_errors_total metric.
func classifyFetchError(err error) string {
	if errors.Is(err, feedfetch.ErrNotAFeed) {
		return "not_a_feed"
	}
	return "transient_http"
}
