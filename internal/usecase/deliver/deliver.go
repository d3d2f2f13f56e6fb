// Package deliver implements the Delivery Pipeline (C4): periodically
// finding chats with undelivered updates and, per chat, rendering,
// filtering, rate-limiting, and transmitting each dirty subscription's
// new items, reacting to the chat transport's own error taxonomy.
package deliver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"feedrelay/internal/domain/entity"
	"feedrelay/internal/infra/transport"
	"feedrelay/internal/observability/metrics"
	"feedrelay/internal/queue"
	"feedrelay/internal/repository"
	"feedrelay/internal/usecase/filter"
	"feedrelay/internal/usecase/render"
)

// ChatsPerPage bounds one DeliverJob scan's page size (§4.4).
const ChatsPerPage = 100

// MessagesLimit is how many undelivered items one subscription drains
// per delivery pass.
const MessagesLimit = 10

type kind string

const (
	kindScan kind = "scan"
	kindChat kind = "chat"
)

type payload struct {
	Kind   kind  `json:"kind"`
	ChatID int64 `json:"chat_id,omitempty"`
}

// ScanPayload is the fixed body SchedulePeriodic registers for the
// recurring dirty-chat scan.
func ScanPayload() []byte {
	b, _ := json.Marshal(payload{Kind: kindScan})
	return b
}

func chatPayload(chatID int64) []byte {
	b, _ := json.Marshal(payload{Kind: kindChat, ChatID: chatID})
	return b
}

// Jobs bundles Delivery's dependencies and exposes the queue.Runnable
// the "deliver" worker pool dispatches every task_type=deliver payload
// to.
type Jobs struct {
	Feeds     repository.FeedRepository
	Items     repository.FeedItemRepository
	Chats     repository.ChatRepository
	Subs      repository.SubscriptionRepository
	Transport *transport.ChatTransport
	Queue     *queue.Queue
	Logger    *slog.Logger
}

// Execute is the Registry.Runnable bound to entity.TaskTypeDeliver.
func (j *Jobs) Execute(ctx context.Context, raw []byte) entity.Outcome {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return entity.Terminal(fmt.Errorf("deliver: decode payload: %w", err))
	}

	switch p.Kind {
	case kindScan:
		return j.scan(ctx)
	case kindChat:
		return j.deliverChat(ctx, p.ChatID)
	default:
		return entity.Terminal(fmt.Errorf("deliver: unknown payload kind %q", p.Kind))
	}
}

// scan selects chats with at least one dirty subscription and enqueues
// one unique per-chat delivery task for each, paged by ChatsPerPage.
//
// DeliverChatUpdatesJob is best-effort (§5): delivery is re-driven by
// the next cron tick rather than the queue's own retry, so every
// per-chat task this enqueues is dispatched through deliverChat, which
// always returns a Terminal outcome on failure (max_retries = 0 in
// effect, without needing a schema-level column for it).
func (j *Jobs) scan(ctx context.Context) entity.Outcome {
	for page := 0; ; page++ {
		chatIDs, err := j.Chats.LoadDirtyIDs(ctx, page, ChatsPerPage)
		if err != nil {
			return entity.Failure(fmt.Errorf("deliver scan: load dirty ids: %w", err))
		}
		if len(chatIDs) == 0 {
			break
		}
		for _, id := range chatIDs {
			if _, err := j.Queue.Enqueue(ctx, entity.TaskTypeDeliver, chatPayload(id), true); err != nil {
				j.Logger.Error("deliver: failed to enqueue chat delivery",
					slog.Int64("chat_id", id), slog.Any("error", err))
			}
		}
		if len(chatIDs) < ChatsPerPage {
			break
		}
	}
	return entity.Success()
}

// deliverChat implements DeliverChatUpdatesJob.execute(chat_id) (§4.4).
func (j *Jobs) deliverChat(ctx context.Context, chatID int64) entity.Outcome {
	start := time.Now()
	itemsSent := 0

	chat, err := j.Chats.FindChat(ctx, chatID)
	if err != nil {
		return entity.Terminal(fmt.Errorf("deliver chat %d: find: %w", chatID, err))
	}
	if chat == nil {
		return entity.Success()
	}

	subs, err := j.Subs.FindUnreadByChat(ctx, chatID)
	if err != nil {
		return entity.Terminal(fmt.Errorf("deliver chat %d: find_unread_by_chat: %w", chatID, err))
	}

	// One limiter per chat, shared across its subscriptions: sends within
	// a delivery pass for a chat are sequential (§4.4 step 4, §5), so a
	// single token-bucket paces every message this job sends to chatID.
	limiter := rate.NewLimiter(rate.Every(time.Duration(chat.Kind.SendDelayMillis())*time.Millisecond), 1)

	for _, sub := range subs {
		sent, err := j.deliverSubscription(ctx, chat, sub, limiter)
		itemsSent += sent
		if err != nil {
			if transport.IsBotBlocked(err) {
				if rmErr := j.Chats.RemoveChat(ctx, chatID); rmErr != nil {
					j.Logger.Error("deliver: failed to remove blocked chat",
						slog.Int64("chat_id", chatID), slog.Any("error", rmErr))
				}
				metrics.RecordChatBlocked()
				metrics.RecordDelivery(time.Since(start), itemsSent)
				return entity.Success()
			}
			// TransportOther: stop this subscription, leave has_updates
			// set, let the next cron tick re-drive it; keep draining the
			// chat's other subscriptions.
			metrics.RecordTransportError()
			j.Logger.Warn("deliver: subscription send failed",
				slog.Int64("chat_id", chatID), slog.Int64("subscription_id", sub.ID), slog.Any("error", err))
		}
	}

	metrics.RecordDelivery(time.Since(start), itemsSent)
	return entity.Success()
}

// deliverSubscription drains up to MessagesLimit undelivered items for
// one subscription, returning how many were actually sent and the first
// transport error encountered (if any); the cursor advances past every
// item it considers, sent or filtered.
func (j *Jobs) deliverSubscription(ctx context.Context, chat *entity.Chat, sub *entity.Subscription, limiter *rate.Limiter) (int, error) {
	items, err := j.Items.FindUndelivered(ctx, sub, MessagesLimit)
	if err != nil {
		return 0, fmt.Errorf("find_undelivered: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	feed, err := j.Feeds.FindByID(ctx, sub.FeedID)
	if err != nil {
		return 0, fmt.Errorf("find feed %d: %w", sub.FeedID, err)
	}
	if feed == nil {
		return 0, nil
	}

	effectiveWords := sub.EffectiveFilterWords(chat)
	matcher := filter.NewMatcher(effectiveWords)

	if len(effectiveWords) == 0 {
		if err := j.maybeSendPreamble(ctx, chat, sub, feed, len(items), limiter); err != nil {
			return 0, err
		}
	}

	template := sub.Template
	if template == "" {
		template = chat.Template
	}

	sent := 0
	for _, item := range items {
		body, renderErr := render.Render(template, render.ItemFromEntities(feed, item), chat.UTCOffsetMin)
		if renderErr != nil {
			j.Logger.Warn("deliver: render failed, sending placeholder",
				slog.Int64("feed_id", feed.ID), slog.Int64("item_id", item.ID), slog.Any("error", renderErr))
		}

		passes := matcher.Allows(body)
		if passes {
			if err := limiter.Wait(ctx); err != nil {
				return sent, fmt.Errorf("rate limiter wait: %w", err)
			}
			if err := j.Transport.Send(ctx, chat.ID, body, chat.PreviewEnabled, sub.ThreadID); err != nil {
				return sent, err
			}
			sent++
		}

		if err := j.Subs.SetLastDeliveredAt(ctx, sub.ID, item.PublicationDate); err != nil {
			return sent, fmt.Errorf("set_last_delivered_at: %w", err)
		}
	}

	if err := j.Subs.MarkDelivered(ctx, sub.ID); err != nil {
		return sent, fmt.Errorf("mark_delivered: %w", err)
	}
	return sent, nil
}

// maybeSendPreamble sends the unread-count summary when the page fetched
// was full and more remain, skipping channels (§4.4 step 2.3).
func (j *Jobs) maybeSendPreamble(ctx context.Context, chat *entity.Chat, sub *entity.Subscription, feed *entity.Feed, fetched int, limiter *rate.Limiter) error {
	if chat.Kind == entity.ChatKindChannel {
		return nil
	}
	if fetched != MessagesLimit {
		return nil
	}

	total, err := j.Items.CountUndelivered(ctx, sub)
	if err != nil {
		return fmt.Errorf("count_undelivered: %w", err)
	}
	if total <= MessagesLimit {
		return nil
	}

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	message := fmt.Sprintf("You have %d unread items, below %d last items for %s", total, fetched, feed.Link)
	if err := j.Transport.Send(ctx, chat.ID, message, chat.PreviewEnabled, sub.ThreadID); err != nil {
		return err
	}
	return nil
}
