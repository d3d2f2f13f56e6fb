package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"feedrelay/internal/domain/entity"
	"feedrelay/internal/repository"
)

// FeedRepo is the Postgres-backed repository.FeedRepository implementation.
// Query shape (const query + Scan, sql.ErrNoRows swallowed to (nil, nil))
// follows the teacher's source_repo.go.
type FeedRepo struct{ db *sql.DB }

func NewFeedRepo(db *sql.DB) repository.FeedRepository {
	return &FeedRepo{db: db}
}

func scanFeed(row interface{ Scan(...any) error }) (*entity.Feed, error) {
	var f entity.Feed
	var syncedAt sql.NullTime
	var fields []string
	if err := row.Scan(
		&f.ID, &f.Link, &f.FeedType, &f.Title, &f.Description,
		&syncedAt, &f.Error, &fields, &f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if syncedAt.Valid {
		f.SyncedAt = &syncedAt.Time
	}
	for _, raw := range fields {
		f.ContentFields = append(f.ContentFields, entity.ContentField(raw))
	}
	return &f, nil
}

const feedColumns = `id, link, feed_type, title, description, synced_at, error, content_fields, created_at, updated_at`

func (r *FeedRepo) FindByID(ctx context.Context, id int64) (*entity.Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds WHERE id = $1`
	f, err := scanFeed(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByID: %w", err)
	}
	return f, nil
}

func (r *FeedRepo) FindByLink(ctx context.Context, link string) (*entity.Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds WHERE link = $1`
	f, err := scanFeed(r.db.QueryRowContext(ctx, query, link))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByLink: %w", err)
	}
	return f, nil
}

func (r *FeedRepo) FindUnsynced(ctx context.Context, now time.Time, page, size int) ([]*entity.Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds
WHERE synced_at IS NULL OR synced_at <= $1
ORDER BY synced_at ASC NULLS FIRST
LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, now, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("FindUnsynced: %w", err)
	}
	defer func() { _ = rows.Close() }()

	feeds := make([]*entity.Feed, 0, size)
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("FindUnsynced: %w", err)
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

func (r *FeedRepo) LoadIDs(ctx context.Context, page, size int) ([]int64, error) {
	query := `SELECT id FROM feeds ORDER BY id ASC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("LoadIDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]int64, 0, size)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("LoadIDs: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *FeedRepo) Create(ctx context.Context, link string, feedType entity.FeedType) (*entity.Feed, error) {
	query := `INSERT INTO feeds (link, feed_type, content_fields, created_at, updated_at)
VALUES ($1, $2, '{}', now(), now())
ON CONFLICT (link) DO UPDATE SET link = EXCLUDED.link
RETURNING ` + feedColumns
	f, err := scanFeed(r.db.QueryRowContext(ctx, query, link, feedType))
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return f, nil
}

func (r *FeedRepo) SetSyncedAt(ctx context.Context, id int64, now time.Time, title, description string) error {
	const query = `UPDATE feeds SET synced_at = $1, title = $2, description = $3, error = '', updated_at = now() WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, now, title, description, id)
	if err != nil {
		return fmt.Errorf("SetSyncedAt: %w", err)
	}
	return nil
}

func (r *FeedRepo) SetError(ctx context.Context, id int64, msg string) error {
	const query = `UPDATE feeds SET error = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, msg, id)
	if err != nil {
		return fmt.Errorf("SetError: %w", err)
	}
	return nil
}

func (r *FeedRepo) SetContentFields(ctx context.Context, id int64, fields []entity.ContentField) error {
	raw := make([]string, len(fields))
	for i, f := range fields {
		raw[i] = string(f)
	}
	const query = `UPDATE feeds SET content_fields = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, raw, id)
	if err != nil {
		return fmt.Errorf("SetContentFields: %w", err)
	}
	return nil
}

func (r *FeedRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM feeds WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

func (r *FeedRepo) DeleteOrphans(ctx context.Context) (int64, error) {
	const query = `DELETE FROM feeds f WHERE NOT EXISTS (
SELECT 1 FROM subscriptions s WHERE s.feed_id = f.id
)`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("DeleteOrphans: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *FeedRepo) CountWithSubscriptions(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(DISTINCT feed_id) FROM subscriptions`
	var n int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountWithSubscriptions: %w", err)
	}
	return n, nil
}
