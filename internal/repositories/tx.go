package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/orgball2608/fedi-albums/pkg/logger"
	"github.com/orgball2608/fedi-albums/pkg/retry"
)

type txKey struct{}

// Executor is what repositories run statements against: the pool, or the
// transaction carried by ctx.
type Executor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Conn returns the transaction stored in ctx, or db when there is none.
func Conn(ctx context.Context, db *sqlx.DB) Executor {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// Transactor runs a function inside one database transaction.
type Transactor struct {
	db     *sqlx.DB
	logger logger.Logger
	retry  retry.Config
}

func NewTransactor(db *sqlx.DB, logger logger.Logger) *Transactor {
	return &Transactor{
		db:     db,
		logger: logger.WithComponent("Transactor"),
		retry:  retry.DefaultConfig(),
	}
}

// WithinTx commits when fn returns nil and rolls back otherwise. Nested
// calls join the outer transaction. A busy database is retried from scratch.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	return retry.DoIf(ctx, t.logger, "transaction", func() error {
		return t.run(ctx, fn)
	}, IsBusy, t.retry)
}

func (t *Transactor) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := t.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				t.logger.Error("Failed to rollback transaction", "error", rbErr)
			}
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
