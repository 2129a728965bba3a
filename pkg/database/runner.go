package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Queryer is the query surface shared by DB and Tx. Repositories run their
// statements through it so a write joins the context's open transaction when
// one is present.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
}

// ActiveQueryer returns the context's open transaction when there is one,
// otherwise the plain connection pool.
func ActiveQueryer(ctx context.Context, db DB) Queryer {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return db
}
