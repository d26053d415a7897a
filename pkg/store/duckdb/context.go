package duckdb

import (
	"context"
	"database/sql"
)

type txContextKey struct{}

// WithTransaction returns a context carrying the transaction so that store
// calls made under it join the same atomic batch commit.
func WithTransaction(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// GetTransaction returns the transaction carried by the context, or nil when
// the caller runs outside a batch.
func GetTransaction(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return tx
	}
	return nil
}
