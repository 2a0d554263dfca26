// Package repo contains all database access logic for the travel itinerary API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lamle62/webgis-du-lich/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
//
// Begin is included so repos can open transactions for multi-statement
// operations. On a pgx.Tx it opens a savepoint, which keeps the test trick
// working inside transactional code paths too.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan
// helpers to be reused for QueryRow and Query calls alike.
type scanner interface {
	Scan(dest ...any) error
}

// Postgres error codes translated into domain errors at this layer.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// translateConstraint maps referential-integrity failures onto
// domain.ErrValidation so callers see a client error, not a server fault.
// An itinerary_places insert with an unknown place_id trips the foreign key;
// a repeated (itinerary_id, place_id) pair trips the primary key.
// Any other error is returned unchanged.
func translateConstraint(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: operation violates a reference between rows", domain.ErrValidation)
	case pgUniqueViolation:
		return fmt.Errorf("%w: duplicate entry", domain.ErrValidation)
	}
	return err
}
