package repository

import (
	"context"

	"feedrelay/internal/domain/entity"
)

// FeedItemRepository is the store contract for FeedItem rows. Items are
// immutable: CreateMany is the only write path and relies on a
// (feed_id, title, link) unique constraint to make re-ingesting a feed
// idempotent.
type FeedItemRepository interface {
	// CreateMany inserts items, skipping any that collide on
	// (feed_id, title, link) (ON CONFLICT DO NOTHING). Returns the items
	// that were actually inserted, in the order they were given.
	CreateMany(ctx context.Context, feedID int64, items []*entity.FeedItem) ([]*entity.FeedItem, error)

	// GetLatest returns the newest item of a feed by the tuple order
	// entity.FeedItem.IsNewerThan encodes, or nil if the feed has none.
	GetLatest(ctx context.Context, feedID int64) (*entity.FeedItem, error)

	// FindUndelivered returns up to limit items of subscription.FeedID
	// created after subscription.LastDeliveredAt, oldest first, for
	// Delivery to drain in order.
	FindUndelivered(ctx context.Context, subscription *entity.Subscription, limit int) ([]*entity.FeedItem, error)

	CountUndelivered(ctx context.Context, subscription *entity.Subscription) (int64, error)

	// DeleteOld deletes every item of feedID beyond the keepN newest by
	// publication_date DESC.
	DeleteOld(ctx context.Context, feedID int64, keepN int) (int64, error)
}
