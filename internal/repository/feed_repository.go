package repository

import (
	"context"
	"time"

	"feedrelay/internal/domain/entity"
)

// FeedRepository is the store contract C2/C3/C5 use to manage Feed rows.
// Implementations return (nil, nil) for a missing row on the Find* methods,
// mirroring database/sql's sql.ErrNoRows-swallowed idiom used throughout
// this codebase's persistence layer.
type FeedRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Feed, error)
	FindByLink(ctx context.Context, link string) (*entity.Feed, error)

	// FindUnsynced returns feeds due for a sync pass: synced_at is nil or
	// older than now, paged oldest-synced_at-first so the least recently
	// synced feed is scheduled soonest.
	FindUnsynced(ctx context.Context, now time.Time, page, size int) ([]*entity.Feed, error)

	// LoadIDs pages every feed ID, used by the Cleaner to enumerate feeds
	// for RemoveOldItemsJob scheduling.
	LoadIDs(ctx context.Context, page, size int) ([]int64, error)

	Create(ctx context.Context, link string, feedType entity.FeedType) (*entity.Feed, error)

	// SetSyncedAt records a successful fetch: bumps synced_at to now,
	// refreshes title/description, and clears any prior error.
	SetSyncedAt(ctx context.Context, id int64, now time.Time, title, description string) error

	// SetError records a failed fetch without touching synced_at, so
	// Feed.IsStale can keep measuring time since the last success.
	SetError(ctx context.Context, id int64, msg string) error

	SetContentFields(ctx context.Context, id int64, fields []entity.ContentField) error

	Delete(ctx context.Context, id int64) error

	// DeleteOrphans removes every feed with zero subscriptions and returns
	// how many rows were deleted, for the Cleaner's metrics.
	DeleteOrphans(ctx context.Context) (int64, error)

	CountWithSubscriptions(ctx context.Context) (int64, error)
}
