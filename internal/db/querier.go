package db

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Querier is the slice of *pgxpool.Pool the account queries need. pgxmock
// pools satisfy it in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
