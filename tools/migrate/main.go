package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	_ "github.com/orgball2608/fedi-albums/internal/migrations"
	"github.com/orgball2608/fedi-albums/pkg/config"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

// Migrations are Go files registered with goose at init time, so the
// directory argument only matters for create.
const migrationsDir = "internal/migrations"

func main() {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the albums database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		dbCommand("up", "Apply all pending migrations", func(ctx context.Context, db *sql.DB) error {
			if err := goose.UpContext(ctx, db, "."); err != nil {
				return err
			}
			fmt.Println("Migrations applied successfully")
			return nil
		}),
		dbCommand("down", "Roll back the latest migration", func(ctx context.Context, db *sql.DB) error {
			if err := goose.DownContext(ctx, db, "."); err != nil {
				return err
			}
			fmt.Println("Migration rollback successful")
			return nil
		}),
		dbCommand("status", "Print the status of every migration", func(ctx context.Context, db *sql.DB) error {
			return goose.StatusContext(ctx, db, ".")
		}),
		dbCommand("reset", "Roll back all migrations", func(ctx context.Context, db *sql.DB) error {
			if err := goose.ResetContext(ctx, db, "."); err != nil {
				return err
			}
			fmt.Println("All migrations have been rolled back")
			return nil
		}),
		dbCommand("version", "Print the current schema version", func(ctx context.Context, db *sql.DB) error {
			version, err := goose.GetDBVersionContext(ctx, db)
			if err != nil {
				return err
			}
			fmt.Printf("Schema version: %d\n", version)
			return nil
		}),
		createCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func dbCommand(use, short string, fn func(ctx context.Context, db *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			return fn(cmd.Context(), db)
		},
	}
}

func createCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Scaffold a new Go migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			fmt.Printf("Creating migration in: %s\n", migrationsDir)
			return goose.Create(nil, migrationsDir, args[0], "go")
		},
	}
}

func openDB() (*sql.DB, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	driver, dialect, dsn := "sqlite", "sqlite3", cfg.SQLiteDSN()
	if cfg.Database.Driver == "postgres" {
		driver, dialect, dsn = "postgres", "postgres", cfg.PostgresDSN()
	}
	if err := goose.SetDialect(dialect); err != nil {
		return nil, fmt.Errorf("set dialect: %w", err)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}
