// Package postgresengine provides a PostgreSQL-backed store for customer snapshots.
//
// The store exchanges only detached records.CustomerSnapshot values with its
// callers, so registry-internal state never crosses the storage boundary.
// Writes are guarded by the snapshot revision for optimistic concurrency
// control: a stale revision affects no rows and surfaces as
// records.ErrConcurrencyConflict.
//
// The package supports three database libraries through internal adapters:
//
//	store, err := postgresengine.NewCustomerStoreFromPGXPool(pool)
//	store, err := postgresengine.NewCustomerStoreFromSQLDB(db)
//	store, err := postgresengine.NewCustomerStoreFromSQLX(db)
//
// Expected table schema:
//
//	CREATE TABLE customers (
//		id uuid PRIMARY KEY,
//		name text NOT NULL UNIQUE,
//		email text NOT NULL DEFAULT '',
//		attributes jsonb NOT NULL DEFAULT '{}',
//		created_at timestamp with time zone NOT NULL,
//		updated_at timestamp with time zone NOT NULL,
//		revision bigint NOT NULL
//	);
package postgresengine
