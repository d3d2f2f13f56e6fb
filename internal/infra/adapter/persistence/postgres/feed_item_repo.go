package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	"feedrelay/internal/domain/entity"
	"feedrelay/internal/repository"
)

// FeedItemRepo is the Postgres-backed repository.FeedItemRepository.
type FeedItemRepo struct{ db *sql.DB }

func NewFeedItemRepo(db *sql.DB) repository.FeedItemRepository {
	return &FeedItemRepo{db: db}
}

const feedItemColumns = `id, feed_id, title, link, description, author, guid, publication_date, created_at, content_hash`

func scanFeedItem(row interface{ Scan(...any) error }) (*entity.FeedItem, error) {
	var it entity.FeedItem
	if err := row.Scan(
		&it.ID, &it.FeedID, &it.Title, &it.Link, &it.Description,
		&it.Author, &it.GUID, &it.PublicationDate, &it.CreatedAt, &it.ContentHash,
	); err != nil {
		return nil, err
	}
	return &it, nil
}

// contentHash is a digest of (feed_id, title, link) stored in the
// content_hash column. CreateMany's ON CONFLICT clause deduplicates on the
// (feed_id, title, link) columns themselves, not on this hash.
func contentHash(feedID int64, title, link string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%s", feedID, title, link)))
	return hex.EncodeToString(h[:])
}

func (r *FeedItemRepo) CreateMany(ctx context.Context, feedID int64, items []*entity.FeedItem) ([]*entity.FeedItem, error) {
	if len(items) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateMany: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `INSERT INTO feed_items (feed_id, title, link, description, author, guid, publication_date, content_hash, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
ON CONFLICT (feed_id, title, link) DO NOTHING
RETURNING ` + feedItemColumns

	inserted := make([]*entity.FeedItem, 0, len(items))
	for _, item := range items {
		hash := contentHash(feedID, item.Title, item.Link)
		row := tx.QueryRowContext(ctx, query,
			feedID, item.Title, item.Link, item.Description, item.Author,
			item.GUID, item.PublicationDate, hash,
		)
		got, err := scanFeedItem(row)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("CreateMany: %w", err)
		}
		inserted = append(inserted, got)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CreateMany: commit: %w", err)
	}
	return inserted, nil
}

func (r *FeedItemRepo) GetLatest(ctx context.Context, feedID int64) (*entity.FeedItem, error) {
	query := `SELECT ` + feedItemColumns + ` FROM feed_items
WHERE feed_id = $1
ORDER BY publication_date DESC, id DESC
LIMIT 1`
	it, err := scanFeedItem(r.db.QueryRowContext(ctx, query, feedID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetLatest: %w", err)
	}
	return it, nil
}

func (r *FeedItemRepo) FindUndelivered(ctx context.Context, subscription *entity.Subscription, limit int) ([]*entity.FeedItem, error) {
	query := `SELECT ` + feedItemColumns + ` FROM feed_items
WHERE feed_id = $1 AND ($2::timestamptz IS NULL OR publication_date > $2)
ORDER BY publication_date ASC, id ASC
LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, subscription.FeedID, subscription.LastDeliveredAt, limit)
	if err != nil {
		return nil, fmt.Errorf("FindUndelivered: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]*entity.FeedItem, 0, limit)
	for rows.Next() {
		it, err := scanFeedItem(rows)
		if err != nil {
			return nil, fmt.Errorf("FindUndelivered: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *FeedItemRepo) CountUndelivered(ctx context.Context, subscription *entity.Subscription) (int64, error) {
	const query = `SELECT COUNT(*) FROM feed_items
WHERE feed_id = $1 AND ($2::timestamptz IS NULL OR publication_date > $2)`
	var n int64
	err := r.db.QueryRowContext(ctx, query, subscription.FeedID, subscription.LastDeliveredAt).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountUndelivered: %w", err)
	}
	return n, nil
}

func (r *FeedItemRepo) DeleteOld(ctx context.Context, feedID int64, keepN int) (int64, error) {
	const query = `DELETE FROM feed_items
WHERE feed_id = $1 AND id NOT IN (
	SELECT id FROM feed_items
	WHERE feed_id = $1
	ORDER BY publication_date DESC, id DESC
	LIMIT $2
)`
	res, err := r.db.ExecContext(ctx, query, feedID, keepN)
	if err != nil {
		return 0, fmt.Errorf("DeleteOld: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
