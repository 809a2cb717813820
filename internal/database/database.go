package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/orgball2608/fedi-albums/internal/migrations"
	"github.com/orgball2608/fedi-albums/pkg/config"
	"github.com/orgball2608/fedi-albums/pkg/logger"
	"github.com/pressly/goose/v3"
	"go.uber.org/fx"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

type Opts struct {
	fx.In
	LC fx.Lifecycle

	Logger logger.Logger
	Config *config.Config
}

func New(opts Opts) (*sqlx.DB, error) {
	driver, dsn := DriverSQLite, opts.Config.SQLiteDSN()
	if opts.Config.Database.Driver == "postgres" {
		driver, dsn = DriverPostgres, opts.Config.PostgresDSN()
	} else if dir := filepath.Dir(opts.Config.Database.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	opts.LC.Append(
		fx.Hook{
			OnStop: func(ctx context.Context) error {
				return db.Close()
			},
			OnStart: func(ctx context.Context) error {
				if err := db.PingContext(ctx); err != nil {
					return err
				}

				opts.Logger.Info("Connected to database", "driver", driver)
				return nil
			},
		},
	)

	return db, nil
}

// Open returns a pool for driver. SQLite gets a single writer connection so
// concurrent transactions queue instead of failing with SQLITE_BUSY.
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate applies every registered Go migration.
func Migrate(ctx context.Context, db *sqlx.DB, log logger.Logger) error {
	dialect := "sqlite3"
	if db.DriverName() == DriverPostgres {
		dialect = "postgres"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	goose.SetLogger(goose.NopLogger())

	if err := goose.UpContext(ctx, db.DB, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db.DB)
	if err != nil {
		return err
	}
	log.Info("Database migrated", "version", version)
	return nil
}
