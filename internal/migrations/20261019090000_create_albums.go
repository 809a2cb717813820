package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateAlbums, downCreateAlbums)
}

func upCreateAlbums(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx,
		`CREATE TABLE albums (
			id              TEXT PRIMARY KEY,
			title           TEXT NOT NULL DEFAULT '',
			query_type      TEXT NOT NULL,
			tags            TEXT NOT NULL DEFAULT '[]',
			users           TEXT NOT NULL DEFAULT '[]',
			tag_mode        TEXT NOT NULL DEFAULT 'any',
			photo_limit     INTEGER NOT NULL DEFAULT 20,
			enabled         BOOLEAN NOT NULL DEFAULT TRUE,
			interval_ms     BIGINT NOT NULL,
			last_checked_at TIMESTAMP NULL,
			backoff_until   TIMESTAMP NULL,
			since_id        TEXT NULL,
			max_id          TEXT NULL,
			retry_count     INTEGER NOT NULL DEFAULT 0,
			last_error      TEXT NULL,
			created_at      TIMESTAMP NOT NULL,
			updated_at      TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX idx_albums_enabled ON albums (enabled)`,
	)
}

func downCreateAlbums(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx, `DROP TABLE albums`)
}

func execAll(ctx context.Context, tx *sql.Tx, statements ...string) error {
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
