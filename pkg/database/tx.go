package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TxFunc is a function executed within a transaction.
type TxFunc func(tx pgx.Tx) error

// WithTransaction runs fn within a transaction, committing on success and
// rolling back on error or panic. Used by the trip store to delete and
// re-insert a plan's log days/stops atomically on replan.
func WithTransaction(ctx context.Context, db DB, fn TxFunc) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// WithTransactionResult runs fn within a transaction and returns its result.
func WithTransactionResult[T any](ctx context.Context, db DB, fn func(tx pgx.Tx) (T, error)) (T, error) {
	var result T

	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	result, err = fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return result, fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return result, err
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}
