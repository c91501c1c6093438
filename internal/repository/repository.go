// Package repository stores tasks, users, messages and notifications. Static
// statements are plain SQL run through sqlx; queries with optional filters
// or keyset predicates are assembled with the ent SQL builder so the same code
// runs on PostgreSQL and SQLite.
package repository

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"

	"entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/neighborhelp/internal/database"
	"github.com/gurkanbulca/neighborhelp/pkg/paging"
)

var ErrNotFound = errors.New("record not found")

// base carries the executor (a *sqlx.DB or a *sqlx.Tx) and its dialect.
type base struct {
	ext     sqlx.ExtContext
	dialect string
}

func newBase(db *sqlx.DB) base {
	return base{ext: db, dialect: database.MustDialect(db)}
}

func (b base) withTx(tx *sqlx.Tx) base {
	return base{ext: tx, dialect: b.dialect}
}

func (b base) builder() *sql.DialectBuilder {
	return sql.Dialect(b.dialect)
}

func (b base) selectAll(ctx context.Context, dest any, q sql.Querier) error {
	query, args := q.Query()
	return sqlx.SelectContext(ctx, b.ext, dest, query, args...)
}

func (b base) get(ctx context.Context, dest any, q sql.Querier) error {
	query, args := q.Query()
	if err := sqlx.GetContext(ctx, b.ext, dest, query, args...); err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (b base) exec(ctx context.Context, q sql.Querier) (int64, error) {
	query, args := q.Query()
	return b.execRaw(ctx, query, args...)
}

func (b base) execRaw(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := b.ext.ExecContext(ctx, b.ext.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// after returns the keyset predicate for rows strictly past c in
// (key DESC, id DESC) order.
func after(keyColumn string, c paging.Cursor) *sql.Predicate {
	return sql.Or(
		sql.LT(keyColumn, c.Key),
		sql.And(sql.EQ(keyColumn, c.Key), sql.LT("id", c.ID)),
	)
}

func anySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
