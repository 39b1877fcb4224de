// Package repo contains all database access logic for the TripStory API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/tripstory/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// beginner is a db that can also open a transaction. *pgxpool.Pool opens a
// real transaction; pgx.Tx opens a savepoint.
type beginner interface {
	db
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store groups the repositories that share one connection or transaction.
// Services depend on this interface so every mutating operation can run its
// read-modify-write sequence inside a single transaction.
type Store interface {
	Trips() TripRepo
	Destinations() DestinationRepo

	// InTx runs fn with a Store bound to a new transaction. The transaction
	// commits when fn returns nil and rolls back otherwise, including on panic.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// pgStore is the Postgres implementation of Store.
type pgStore struct {
	conn beginner
}

// NewStore constructs a Store backed by the provided connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewStore(conn beginner) Store {
	return &pgStore{conn: conn}
}

func (s *pgStore) Trips() TripRepo {
	return NewTripRepo(s.conn)
}

func (s *pgStore) Destinations() DestinationRepo {
	return NewDestinationRepo(s.conn)
}

func (s *pgStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	return pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
		return fn(&pgStore{conn: tx})
	})
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan helpers
// to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// Postgres error codes mapped to domain errors.
const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// mapPgError translates constraint violations into domain errors so callers
// never need to know about SQLSTATE codes. Other errors pass through unchanged.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == "trips_title_lower_key":
		return domain.ErrDuplicateTitle
	case pgErr.Code == pgCheckViolation:
		return fmt.Errorf("%w: %s", domain.ErrValidation, pgErr.ConstraintName)
	}
	return err
}
