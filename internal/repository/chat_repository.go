package repository

import (
	"context"

	"feedrelay/internal/domain/entity"
)

// ChatRepository is the store contract for Chat rows (el_monitorro's
// "telegram" table, renamed to its actual role here).
type ChatRepository interface {
	// UpsertChat creates the chat row on its first contact, or updates
	// kind/title/username/first_name/last_name if it already exists.
	UpsertChat(ctx context.Context, chat *entity.Chat) (*entity.Chat, error)

	FindChat(ctx context.Context, id int64) (*entity.Chat, error)
	RemoveChat(ctx context.Context, id int64) error

	// FindChatsByFeed returns every chat with a live subscription to
	// feedID, used by Sync's stale-feed retirement notification.
	FindChatsByFeed(ctx context.Context, feedID int64) ([]*entity.Chat, error)

	SetFilterWords(ctx context.Context, chatID int64, words []string) error
	SetTemplate(ctx context.Context, chatID int64, template string) error
	SetUTCOffsetMinutes(ctx context.Context, chatID int64, offset int) error
	SetPreviewEnabled(ctx context.Context, chatID int64, enabled bool) error

	// LoadIDs pages every chat ID, used by Delivery to enumerate chats
	// with pending work.
	LoadIDs(ctx context.Context, page, size int) ([]int64, error)

	// LoadDirtyIDs pages the IDs of chats with at least one subscription
	// flagged has_updates = true, the DeliverJob selection in §4.4.
	LoadDirtyIDs(ctx context.Context, page, size int) ([]int64, error)
}
