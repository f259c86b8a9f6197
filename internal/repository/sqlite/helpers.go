package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
)

// sqlBuilder builds dynamic queries with ?-style placeholders.
var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx, so every
// repository can be joined to a transaction via WithTx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
