package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// MigrationLock is the advisory lock key held while the schema is applied.
const MigrationLock int64 = 0x6d6f64756c6172

// TxBeginner starts transactions. *pgxpool.Pool and pgxmock pools satisfy it.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// WithTx runs fn in a RepeatableRead transaction. The transaction commits only
// when fn returns nil.
func WithTx(ctx context.Context, conn TxBeginner, fn func(pgx.Tx) error) error {
	return withTx(ctx, conn, pgx.TxOptions{IsoLevel: pgx.RepeatableRead}, fn)
}

// WithLockedTx is WithTx serialised across processes by a transaction scoped
// advisory lock, so concurrent replicas apply migrations one at a time.
func WithLockedTx(ctx context.Context, conn TxBeginner, key int64, fn func(pgx.Tx) error) error {
	return withTx(ctx, conn, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", key); err != nil {
			return fmt.Errorf("platform/db: advisory lock %d: %w", key, err)
		}
		return fn(tx)
	})
}

func withTx(ctx context.Context, conn TxBeginner, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	tx, err := conn.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}
	return nil
}
