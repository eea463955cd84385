//go:build integration

// Package testdb connects integration tests to a real PostgreSQL database.
//
// Tests run inside a transaction that is rolled back when they finish, so
// they can run in parallel against the same schema without cleanup:
//
//	func TestArtists(t *testing.T) {
//	    db := testdb.Open(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sqlx.Tx) {
//	        table := artists.InTx(tx)
//	        ...
//	    })
//	}
//
// Tests are skipped when no database URL is configured.
package testdb

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/ensemble-api/internal/platform/logger"
	"github.com/phrazzld/ensemble-api/internal/platform/postgres"
	"github.com/phrazzld/ensemble-api/internal/redact"
)

// Environment variables consulted for the database URL, in order.
const (
	EnvTestDatabaseURL = "ENSEMBLE_TEST_DATABASE_URL"
	EnvDatabaseURL     = "ENSEMBLE_DATABASE_URL"
)

var migrateOnce sync.Once
var migrateErr error

// URL returns the configured test database URL, or "".
func URL() string {
	for _, key := range []string{EnvTestDatabaseURL, EnvDatabaseURL} {
		if url := os.Getenv(key); url != "" {
			return url
		}
	}
	return ""
}

// Open connects to the test database, applying migrations on first use, and
// closes the pool when the test ends. It skips the test when no URL is set.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()

	url := URL()
	if url == "" {
		t.Skip(EnvTestDatabaseURL + " not set - skipping integration test")
	}

	db, err := sqlx.Open(postgres.DriverName, url)
	if err != nil {
		t.Fatalf("failed to open test database: %s", redact.Error(err))
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to reach test database %s: %s", redact.String(url), redact.Error(err))
	}

	migrateOnce.Do(func() {
		_, migrateErr = postgres.MigrateUp(ctx, db.DB, logger.Discard())
	})
	if migrateErr != nil {
		t.Fatalf("failed to migrate test database: %v", migrateErr)
	}
	return db
}

// WithTx runs fn in a transaction that is always rolled back.
func WithTx(t *testing.T, db *sqlx.DB, fn func(t *testing.T, tx *sqlx.Tx)) {
	t.Helper()

	tx, err := db.Beginx()
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil {
			t.Errorf("failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}
