package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"feedrelay/internal/domain/entity"
	"feedrelay/internal/repository"
)

// SubscriptionRepo is the Postgres-backed repository.SubscriptionRepository.
type SubscriptionRepo struct{ db *sql.DB }

func NewSubscriptionRepo(db *sql.DB) repository.SubscriptionRepository {
	return &SubscriptionRepo{db: db}
}

const subscriptionColumns = `id, external_id, chat_id, feed_id, template, filter_words, has_updates, last_delivered_at, thread_id`

func scanSubscription(row interface{ Scan(...any) error }) (*entity.Subscription, error) {
	var s entity.Subscription
	var lastDeliveredAt sql.NullTime
	var threadID sql.NullInt64
	if err := row.Scan(
		&s.ID, &s.ExternalID, &s.ChatID, &s.FeedID, &s.Template, &s.FilterWords,
		&s.HasUpdates, &lastDeliveredAt, &threadID,
	); err != nil {
		return nil, err
	}
	if lastDeliveredAt.Valid {
		s.LastDeliveredAt = &lastDeliveredAt.Time
	}
	if threadID.Valid {
		v := threadID.Int64
		s.ThreadID = &v
	}
	return &s, nil
}

func (r *SubscriptionRepo) Create(ctx context.Context, chatID, feedID int64) (*entity.Subscription, error) {
	query := `INSERT INTO subscriptions (external_id, chat_id, feed_id, filter_words, has_updates)
VALUES ($1, $2, $3, '{}', FALSE)
RETURNING ` + subscriptionColumns
	s, err := scanSubscription(r.db.QueryRowContext(ctx, query, uuid.NewString(), chatID, feedID))
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return s, nil
}

func (r *SubscriptionRepo) Find(ctx context.Context, id int64) (*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	s, err := scanSubscription(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Find: %w", err)
	}
	return s, nil
}

func (r *SubscriptionRepo) FindByExternalID(ctx context.Context, externalID string) (*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE external_id = $1`
	s, err := scanSubscription(r.db.QueryRowContext(ctx, query, externalID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByExternalID: %w", err)
	}
	return s, nil
}

func (r *SubscriptionRepo) FindByChat(ctx context.Context, chatID int64) ([]*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE chat_id = $1 ORDER BY id ASC`
	return r.queryMany(ctx, query, chatID)
}

func (r *SubscriptionRepo) FindUnreadByChat(ctx context.Context, chatID int64) ([]*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
WHERE chat_id = $1 AND has_updates = TRUE
ORDER BY last_delivered_at ASC NULLS FIRST`
	return r.queryMany(ctx, query, chatID)
}

func (r *SubscriptionRepo) queryMany(ctx context.Context, query string, args ...any) ([]*entity.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	subs := make([]*entity.Subscription, 0, 8)
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *SubscriptionRepo) CountByChat(ctx context.Context, chatID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM subscriptions WHERE chat_id = $1`
	var n int
	if err := r.db.QueryRowContext(ctx, query, chatID).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountByChat: %w", err)
	}
	return n, nil
}

func (r *SubscriptionRepo) SetLastDeliveredAt(ctx context.Context, id int64, at time.Time) error {
	const query = `UPDATE subscriptions SET last_delivered_at = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("SetLastDeliveredAt: %w", err)
	}
	return nil
}

func (r *SubscriptionRepo) MarkDelivered(ctx context.Context, id int64) error {
	const query = `UPDATE subscriptions SET has_updates = FALSE WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("MarkDelivered: %w", err)
	}
	return nil
}

func (r *SubscriptionRepo) MarkHasUpdates(ctx context.Context, feedID int64, since time.Time) error {
	const query = `UPDATE subscriptions SET has_updates = TRUE
WHERE feed_id = $1 AND (last_delivered_at IS NULL OR last_delivered_at < $2)`
	_, err := r.db.ExecContext(ctx, query, feedID, since)
	if err != nil {
		return fmt.Errorf("MarkHasUpdates: %w", err)
	}
	return nil
}

func (r *SubscriptionRepo) SetFilterWords(ctx context.Context, id int64, words []string) error {
	const query = `UPDATE subscriptions SET filter_words = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, words, id)
	if err != nil {
		return fmt.Errorf("SetFilterWords: %w", err)
	}
	return nil
}

func (r *SubscriptionRepo) SetTemplate(ctx context.Context, id int64, template string) error {
	const query = `UPDATE subscriptions SET template = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, template, id)
	if err != nil {
		return fmt.Errorf("SetTemplate: %w", err)
	}
	return nil
}

func (r *SubscriptionRepo) Remove(ctx context.Context, id int64) error {
	const query = `DELETE FROM subscriptions WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Remove: %w", err)
	}
	return nil
}
