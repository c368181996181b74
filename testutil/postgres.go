// Package testutil provides database connection helpers for integration tests.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

// PostgresURLEnvVar names the environment variable holding the test database URL.
// Integration tests are skipped when it is not set.
const PostgresURLEnvVar = "CUSTOMERS_TEST_DATABASE_URL"

// PostgresURLOrSkip returns the test database URL or skips the test when none is configured.
func PostgresURLOrSkip(t *testing.T) string {
	t.Helper()

	databaseURL := os.Getenv(PostgresURLEnvVar)
	if databaseURL == "" {
		t.Skipf("skipping: %s is not set", PostgresURLEnvVar)
	}

	return databaseURL
}

// PGXPoolConfig builds a pgxpool config for tests with conservative pool limits.
func PGXPoolConfig(t *testing.T, databaseURL string) *pgxpool.Config {
	t.Helper()

	const defaultMaxConnections = int32(4)
	const defaultMinConnections = int32(0)
	const defaultMaxConnLifetime = time.Hour
	const defaultMaxConnIdleTime = time.Minute * 30
	const defaultHealthCheckPeriod = time.Minute
	const defaultConnectTimeout = time.Second * 5

	dbConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		t.Fatalf("failed to parse test database url: %v", err)
	}

	dbConfig.MaxConns = defaultMaxConnections
	dbConfig.MinConns = defaultMinConnections
	dbConfig.MaxConnLifetime = defaultMaxConnLifetime
	dbConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	dbConfig.HealthCheckPeriod = defaultHealthCheckPeriod
	dbConfig.ConnConfig.ConnectTimeout = defaultConnectTimeout

	return dbConfig
}

// ConnectPGXPool opens a pgx pool for tests and registers cleanup.
func ConnectPGXPool(t *testing.T, databaseURL string) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.NewWithConfig(context.Background(), PGXPoolConfig(t, databaseURL))
	if err != nil {
		t.Fatalf("failed to connect pgx pool: %v", err)
	}

	t.Cleanup(pool.Close)

	return pool
}

// ConnectSQLDB opens a database/sql connection via lib/pq for tests and registers cleanup.
func ConnectSQLDB(t *testing.T, databaseURL string) *sql.DB {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		t.Fatalf("failed to open sql.DB: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// ConnectSQLX opens a sqlx connection via lib/pq for tests and registers cleanup.
func ConnectSQLX(t *testing.T, databaseURL string) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		t.Fatalf("failed to open sqlx.DB: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}
