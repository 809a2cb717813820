package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreatePhotos, downCreatePhotos)
}

func upCreatePhotos(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx,
		`CREATE TABLE photos (
			status_id           TEXT PRIMARY KEY,
			created_at          TIMESTAMP NOT NULL,
			author_id           TEXT NOT NULL DEFAULT '',
			author_handle       TEXT NOT NULL DEFAULT '',
			author_username     TEXT NOT NULL DEFAULT '',
			author_display_name TEXT NOT NULL DEFAULT '',
			author_avatar_url   TEXT NOT NULL DEFAULT '',
			caption_html        TEXT NOT NULL DEFAULT '',
			post_url            TEXT NOT NULL DEFAULT '',
			tags                TEXT NOT NULL DEFAULT '[]',
			url                 TEXT NOT NULL DEFAULT '',
			preview_url         TEXT NOT NULL DEFAULT '',
			fetched_at          TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE album_items (
			album_id  TEXT NOT NULL REFERENCES albums (id) ON DELETE CASCADE,
			status_id TEXT NOT NULL REFERENCES photos (status_id) ON DELETE CASCADE,
			added_at  TIMESTAMP NOT NULL,
			PRIMARY KEY (album_id, status_id)
		)`,
		`CREATE INDEX idx_album_items_added ON album_items (album_id, added_at)`,
		`CREATE INDEX idx_album_items_status ON album_items (status_id)`,
	)
}

func downCreatePhotos(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx, `DROP TABLE album_items`, `DROP TABLE photos`)
}
