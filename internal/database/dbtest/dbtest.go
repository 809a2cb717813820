// Package dbtest opens a migrated SQLite database for package tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/orgball2608/fedi-albums/internal/database"
	"github.com/orgball2608/fedi-albums/pkg/config"
	"github.com/orgball2608/fedi-albums/pkg/logger"
)

func New(tb testing.TB) *sqlx.DB {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "test.db")
	db, err := database.Open(database.DriverSQLite, config.SQLiteDSN(path))
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(context.Background(), db, logger.Nop()); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	return db
}
