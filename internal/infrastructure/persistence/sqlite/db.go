// Package sqlite carries the transaction plumbing shared by the
// repository implementations.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/application/port"
)

type ctxKey struct{}

// DB wraps sql.DB and implements port.TransactionManager
type DB struct {
	*sql.DB
	logger *zap.Logger
}

var _ port.TransactionManager = (*DB)(nil)

// NewDB wraps an open database handle
func NewDB(sqlDB *sql.DB, logger *zap.Logger) *DB {
	return &DB{DB: sqlDB, logger: logger}
}

// WithTransaction runs fn inside a transaction carried on the context.
// Repositories route their statements through it via TxFrom. A call made
// while a transaction is already on the context joins it rather than
// opening a second one, so the outermost caller decides the commit.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFrom(ctx) != nil {
		return fn(ctx)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	settled := false
	defer func() {
		if settled {
			return
		}
		// fn panicked. Roll back and let the panic travel on.
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Rollback after panic failed", zap.Error(rbErr))
		}
	}()

	if err := fn(context.WithValue(ctx, ctxKey{}, tx)); err != nil {
		settled = true
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Transaction rollback failed", zap.Error(rbErr))
		}
		return err
	}

	settled = true
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// TxFrom returns the transaction carried by ctx, or nil outside a
// WithTransaction call.
func TxFrom(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(ctxKey{}).(*sql.Tx)
	return tx
}
