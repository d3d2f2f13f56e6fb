package repository

import (
	"context"
	"time"

	"feedrelay/internal/domain/entity"
)

// SubscriptionRepository is the store contract for Subscription rows.
type SubscriptionRepository interface {
	Create(ctx context.Context, chatID, feedID int64) (*entity.Subscription, error)

	Find(ctx context.Context, id int64) (*entity.Subscription, error)
	FindByExternalID(ctx context.Context, externalID string) (*entity.Subscription, error)
	FindByChat(ctx context.Context, chatID int64) ([]*entity.Subscription, error)

	// FindUnreadByChat returns chatID's subscriptions with has_updates
	// set, oldest last_delivered_at first, for Delivery's per-chat drain
	// order.
	FindUnreadByChat(ctx context.Context, chatID int64) ([]*entity.Subscription, error)

	// CountByChat reports how many subscriptions chatID already holds,
	// for entity.ValidateSubscriptionCount.
	CountByChat(ctx context.Context, chatID int64) (int, error)

	SetLastDeliveredAt(ctx context.Context, id int64, at time.Time) error

	// MarkDelivered clears has_updates once a subscription's undelivered
	// items have all been sent successfully.
	MarkDelivered(ctx context.Context, id int64) error

	// MarkHasUpdates flags dirty every subscription of feedID whose
	// cursor predates since (or has never delivered): Sync calls this
	// after inserting new items, with since = the newest inserted
	// item's created_at, per §4.3 step 3.
	MarkHasUpdates(ctx context.Context, feedID int64, since time.Time) error

	SetFilterWords(ctx context.Context, id int64, words []string) error
	SetTemplate(ctx context.Context, id int64, template string) error

	Remove(ctx context.Context, id int64) error
}
