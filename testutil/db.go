// Package testutil holds the database plumbing shared by TripStory's
// integration tests. Everything here skips the calling test when
// TEST_DATABASE_URL is unset.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pkordes/tripstory/internal/repo"
	"github.com/pkordes/tripstory/migrations"
)

const dsnEnv = "TEST_DATABASE_URL"

// NewPool returns a pool on the test database, closed when the test ends.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := openPool(context.Background(), requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewPool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// NewSQLDB returns a database/sql handle sharing a fresh test pool, for goose.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()
	db := stdlib.OpenDBFromPool(NewPool(t))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewTx begins a transaction that is rolled back when the test ends, so
// tests never need cleanup SQL.
func NewTx(t *testing.T) pgx.Tx {
	t.Helper()

	tx, err := NewPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("testutil.NewTx: begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}

// NewStore returns a repo.Store bound to a rolled-back test transaction.
// Its InTx opens savepoints, so commit and rollback paths stay isolated.
func NewStore(t *testing.T) repo.Store {
	t.Helper()
	return repo.NewStore(NewTx(t))
}

// RunMigrated applies every migration once and then runs the package's
// tests. Use it from TestMain: os.Exit(testutil.RunMigrated(m)).
func RunMigrated(m *testing.M) int {
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		// Each integration test skips itself.
		return m.Run()
	}
	if err := migrate(context.Background(), dsn); err != nil {
		fmt.Fprintf(os.Stderr, "testutil.RunMigrated: %v\n", err)
		return 1
	}
	return m.Run()
}

func migrate(ctx context.Context, dsn string) error {
	pool, err := openPool(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if _, err := migrations.Up(ctx, db); err != nil {
		return err
	}
	return nil
}

func openPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skip(dsnEnv + " not set; skipping integration test")
	}
	return dsn
}
