// Package postgres is the hand-written pgx query layer for aviary.
//
// Each store package defines its own small Querier interface (interfaces are
// defined by the consumer, not the provider); *Queries satisfies all of them.
// Queries is stateless and safe for concurrent use; transactional callers
// construct a new Queries over the transaction with New(tx).
package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the subset of pgxpool.Pool / pgx.Tx used by Queries.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries executes SQL statements against a DBTX.
type Queries struct {
	db DBTX
}

// New creates a Queries bound to the given connection pool or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// PgUUID converts uuid.UUID to pgtype.UUID.
func PgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// FromPgUUID converts pgtype.UUID back to uuid.UUID.
// Invalid (NULL) values map to uuid.Nil.
func FromPgUUID(id pgtype.UUID) uuid.UUID {
	if !id.Valid {
		return uuid.Nil
	}
	return uuid.UUID(id.Bytes)
}
