package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS comments (
		id         TEXT PRIMARY KEY,
		post_id    TEXT NOT NULL,
		parent_id  TEXT REFERENCES comments(id) ON DELETE CASCADE,
		root_id    TEXT,
		depth      INT NOT NULL DEFAULT 0,
		user_id    TEXT NOT NULL,
		user_name  TEXT NOT NULL DEFAULT '',
		user_image TEXT NOT NULL DEFAULT '',
		content    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS comments_post_top_idx ON comments (post_id, created_at) WHERE parent_id IS NULL`,
	`CREATE INDEX IF NOT EXISTS comments_parent_idx ON comments (parent_id)`,
	`CREATE TABLE IF NOT EXISTS comment_reactions (
		id         TEXT PRIMARY KEY,
		comment_id TEXT NOT NULL REFERENCES comments(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL,
		user_name  TEXT NOT NULL DEFAULT '',
		type       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (comment_id, user_id)
	)`,
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
