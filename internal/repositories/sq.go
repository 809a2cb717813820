package repositories

import (
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SqBuilder renders '?' placeholders; queries go through sqlx Rebind so the
// same statement runs on SQLite and PostgreSQL.
var SqBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

var ErrBadQuery = errors.New("bad query")

// IsUniqueViolation recognizes duplicate key errors from both drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}

// IsBusy recognizes SQLite lock contention, which is worth retrying.
// Extended codes such as SQLITE_BUSY_SNAPSHOT share the primary code.
func IsBusy(err error) bool {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	switch liteErr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}
