package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"feedrelay/internal/domain/entity"
	"feedrelay/internal/repository"
)

// ChatRepo is the Postgres-backed repository.ChatRepository.
type ChatRepo struct{ db *sql.DB }

func NewChatRepo(db *sql.DB) repository.ChatRepository {
	return &ChatRepo{db: db}
}

const chatColumns = `id, kind, title, username, first_name, last_name, template, filter_words, utc_offset_minutes, preview_enabled`

func scanChat(row interface{ Scan(...any) error }) (*entity.Chat, error) {
	var c entity.Chat
	var offset sql.NullInt64
	if err := row.Scan(
		&c.ID, &c.Kind, &c.Title, &c.Username, &c.FirstName, &c.LastName,
		&c.Template, &c.FilterWords, &offset, &c.PreviewEnabled,
	); err != nil {
		return nil, err
	}
	if offset.Valid {
		v := int(offset.Int64)
		c.UTCOffsetMin = &v
	}
	return &c, nil
}

func (r *ChatRepo) UpsertChat(ctx context.Context, chat *entity.Chat) (*entity.Chat, error) {
	query := `INSERT INTO chats (id, kind, title, username, first_name, last_name, filter_words, preview_enabled)
VALUES ($1, $2, $3, $4, $5, $6, '{}', TRUE)
ON CONFLICT (id) DO UPDATE SET
	kind = EXCLUDED.kind,
	title = EXCLUDED.title,
	username = EXCLUDED.username,
	first_name = EXCLUDED.first_name,
	last_name = EXCLUDED.last_name
RETURNING ` + chatColumns
	c, err := scanChat(r.db.QueryRowContext(ctx, query,
		chat.ID, chat.Kind, chat.Title, chat.Username, chat.FirstName, chat.LastName))
	if err != nil {
		return nil, fmt.Errorf("UpsertChat: %w", err)
	}
	return c, nil
}

func (r *ChatRepo) FindChat(ctx context.Context, id int64) (*entity.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1`
	c, err := scanChat(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindChat: %w", err)
	}
	return c, nil
}

func (r *ChatRepo) RemoveChat(ctx context.Context, id int64) error {
	const query = `DELETE FROM chats WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("RemoveChat: %w", err)
	}
	return nil
}

func (r *ChatRepo) FindChatsByFeed(ctx context.Context, feedID int64) ([]*entity.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats c
JOIN subscriptions s ON s.chat_id = c.id
WHERE s.feed_id = $1`
	rows, err := r.db.QueryContext(ctx, query, feedID)
	if err != nil {
		return nil, fmt.Errorf("FindChatsByFeed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	chats := make([]*entity.Chat, 0, 8)
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("FindChatsByFeed: %w", err)
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

func (r *ChatRepo) SetFilterWords(ctx context.Context, chatID int64, words []string) error {
	const query = `UPDATE chats SET filter_words = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, words, chatID)
	if err != nil {
		return fmt.Errorf("SetFilterWords: %w", err)
	}
	return nil
}

func (r *ChatRepo) SetTemplate(ctx context.Context, chatID int64, template string) error {
	const query = `UPDATE chats SET template = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, template, chatID)
	if err != nil {
		return fmt.Errorf("SetTemplate: %w", err)
	}
	return nil
}

func (r *ChatRepo) SetUTCOffsetMinutes(ctx context.Context, chatID int64, offset int) error {
	const query = `UPDATE chats SET utc_offset_minutes = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, offset, chatID)
	if err != nil {
		return fmt.Errorf("SetUTCOffsetMinutes: %w", err)
	}
	return nil
}

func (r *ChatRepo) SetPreviewEnabled(ctx context.Context, chatID int64, enabled bool) error {
	const query = `UPDATE chats SET preview_enabled = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, enabled, chatID)
	if err != nil {
		return fmt.Errorf("SetPreviewEnabled: %w", err)
	}
	return nil
}

func (r *ChatRepo) LoadIDs(ctx context.Context, page, size int) ([]int64, error) {
	query := `SELECT id FROM chats ORDER BY id ASC LIMIT $1 OFFSET $2`
	return r.loadIDs(ctx, "LoadIDs", query, size, page*size)
}

func (r *ChatRepo) LoadDirtyIDs(ctx context.Context, page, size int) ([]int64, error) {
	query := `SELECT DISTINCT c.id FROM chats c
JOIN subscriptions s ON s.chat_id = c.id
WHERE s.has_updates = TRUE
ORDER BY c.id ASC LIMIT $1 OFFSET $2`
	return r.loadIDs(ctx, "LoadDirtyIDs", query, size, page*size)
}

func (r *ChatRepo) loadIDs(ctx context.Context, op, query string, args ...any) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]int64, 0, 8)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
