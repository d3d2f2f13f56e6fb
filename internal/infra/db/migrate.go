package db

import (
	"database/sql"
)

// MigrateUp creates the schema for the five core entities (§3) plus the
// durable job queue tables (C1). Every statement is idempotent so MigrateUp
// can run unconditionally at process start.
func MigrateUp(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS feeds (
    id              BIGSERIAL PRIMARY KEY,
    link            TEXT NOT NULL UNIQUE,
    feed_type       VARCHAR(10) NOT NULL DEFAULT 'rss',
    title           TEXT NOT NULL DEFAULT '',
    description     TEXT NOT NULL DEFAULT '',
    synced_at       TIMESTAMPTZ,
    error           TEXT NOT NULL DEFAULT '',
    content_fields  TEXT[] NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE TABLE IF NOT EXISTS feed_items (
    id               BIGSERIAL PRIMARY KEY,
    feed_id          BIGINT NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
    title            TEXT NOT NULL DEFAULT '',
    link             TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    author           TEXT NOT NULL DEFAULT '',
    guid             TEXT NOT NULL DEFAULT '',
    publication_date TIMESTAMPTZ NOT NULL,
    content_hash     TEXT NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (feed_id, title, link)
)`,
		`CREATE INDEX IF NOT EXISTS idx_feed_items_feed_id_created_at ON feed_items(feed_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_feed_items_feed_id_pubdate ON feed_items(feed_id, publication_date DESC)`,
		`CREATE TABLE IF NOT EXISTS chats (
    id                  BIGINT PRIMARY KEY,
    kind                VARCHAR(15) NOT NULL DEFAULT 'private',
    title               TEXT NOT NULL DEFAULT '',
    username            TEXT NOT NULL DEFAULT '',
    first_name          TEXT NOT NULL DEFAULT '',
    last_name           TEXT NOT NULL DEFAULT '',
    template            TEXT NOT NULL DEFAULT '',
    filter_words        TEXT[] NOT NULL DEFAULT '{}',
    utc_offset_minutes  INTEGER,
    preview_enabled     BOOLEAN NOT NULL DEFAULT TRUE
)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
    id                BIGSERIAL PRIMARY KEY,
    external_id       UUID NOT NULL UNIQUE,
    chat_id           BIGINT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
    feed_id           BIGINT NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
    template          TEXT NOT NULL DEFAULT '',
    filter_words      TEXT[] NOT NULL DEFAULT '{}',
    has_updates       BOOLEAN NOT NULL DEFAULT FALSE,
    last_delivered_at TIMESTAMPTZ,
    thread_id         BIGINT,
    UNIQUE (chat_id, feed_id)
)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_chat_id ON subscriptions(chat_id)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_feed_id ON subscriptions(feed_id)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_has_updates ON subscriptions(chat_id) WHERE has_updates = TRUE`,
		`CREATE TABLE IF NOT EXISTS tasks (
    id          BIGSERIAL PRIMARY KEY,
    uniq_hash   TEXT NOT NULL DEFAULT '',
    task_type   VARCHAR(10) NOT NULL,
    state       VARCHAR(15) NOT NULL DEFAULT 'new',
    payload     BYTEA NOT NULL DEFAULT '',
    run_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    retries     INTEGER NOT NULL DEFAULT 0,
    max_retries INTEGER NOT NULL DEFAULT 5,
    cron_expr   TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_type_state_runat ON tasks(task_type, state, run_at)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_uniq_pending
    ON tasks(task_type, uniq_hash) WHERE state NOT IN ('finished', 'failed') AND uniq_hash <> ''`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops every table MigrateUp creates, in dependency order.
// Use with caution: this deletes all data.
func MigrateDown(db *sql.DB) error {
	statements := []string{
		`DROP TABLE IF EXISTS tasks`,
		`DROP TABLE IF EXISTS subscriptions`,
		`DROP TABLE IF EXISTS feed_items`,
		`DROP TABLE IF EXISTS chats`,
		`DROP TABLE IF EXISTS feeds`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
