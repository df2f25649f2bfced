// query.go runs typed reads against the replica.
//
// Functions accept a context and return structured results. Errors are
// returned, never logged or printed.
package db

import (
	"context"
	"fmt"

	pgx "github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool used for reads.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ Querier = (*DB)(nil)

// Query runs sql on the pool.
func (d *DB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return d.Pool.Query(ctx, sql, args...)
}

// Select runs sql and scans every row into a T by column name. T's fields
// are matched via `db` struct tags. The result is empty, never nil.
func Select[T any](ctx context.Context, q Querier, sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("replica query failed: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("replica scan failed: %w", err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
