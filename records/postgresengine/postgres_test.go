package postgresengine_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/customer-records-go/records"
	"github.com/AntonStoeckl/customer-records-go/records/postgresengine"
	"github.com/AntonStoeckl/customer-records-go/testutil"
)

// setupStore connects to the test database, creates a dedicated customers table
// and returns a store bound to it. The whole test is skipped when no test
// database is configured.
func setupStore(t *testing.T) (postgresengine.CustomerStore, *pgxpool.Pool) {
	t.Helper()

	databaseURL := testutil.PostgresURLOrSkip(t)
	pool := testutil.ConnectPGXPool(t, databaseURL)

	tableName := fmt.Sprintf("customers_test_%d", time.Now().UnixNano())

	ddl := fmt.Sprintf(`CREATE TABLE %s (
		id uuid PRIMARY KEY,
		name text NOT NULL UNIQUE,
		email text NOT NULL DEFAULT '',
		attributes jsonb NOT NULL DEFAULT '{}',
		created_at timestamp with time zone NOT NULL,
		updated_at timestamp with time zone NOT NULL,
		revision bigint NOT NULL
	)`, tableName)

	_, err := pool.Exec(context.Background(), ddl)
	require.NoError(t, err, "error in arranging test table")

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+tableName)
	})

	store, err := postgresengine.NewCustomerStoreFromPGXPool(pool, postgresengine.WithTableName(tableName))
	require.NoError(t, err)

	return store, pool
}

// givenStoredCustomer adds a fresh customer to a registry and saves its snapshot.
func givenStoredCustomer(t *testing.T, store postgresengine.CustomerStore, name string) records.CustomerSnapshot {
	t.Helper()

	registry := records.BuildRecords()
	require.NoError(t, registry.Add(uuid.New(), name, name+"@example.com"))

	snapshot, err := registry.SnapshotOf(name)
	require.NoError(t, err, "error in arranging test data")

	require.NoError(t, store.Save(context.Background(), snapshot))

	return snapshot
}

func Test_CustomerStore_SaveAndLoad(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	saved := givenStoredCustomer(t, store, "Ada Lovelace")

	loaded, err := store.Load(ctx, "Ada Lovelace")
	require.NoError(t, err)

	assert.Equal(t, saved.ID, loaded.ID)
	assert.Equal(t, saved.Email, loaded.Email)
	assert.Equal(t, uint(1), loaded.Revision)
	assert.True(t, saved.CreatedAt.Equal(loaded.CreatedAt))
}

func Test_CustomerStore_Load_ShouldFail_WhenUnknown(t *testing.T) {
	store, _ := setupStore(t)

	_, err := store.Load(context.Background(), "Ada Lovelace")

	assert.ErrorIs(t, err, records.ErrCustomerNotFound)
}

func Test_CustomerStore_Save_ShouldConflict_OnDuplicateInsert(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	snapshot := givenStoredCustomer(t, store, "Ada Lovelace")

	err := store.Save(ctx, snapshot)

	assert.ErrorIs(t, err, records.ErrConcurrencyConflict)
}

func Test_CustomerStore_Save_UpdatesRow_WithMatchingRevision(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	givenStoredCustomer(t, store, "Ada Lovelace")

	// mutate through a registry restored from the stored state
	loaded, err := store.Load(ctx, "Ada Lovelace")
	require.NoError(t, err)

	registrySnapshot, err := records.BuildRegistrySnapshot(records.CustomerSnapshots{loaded})
	require.NoError(t, err)
	registry, err := records.RestoreRecords(registrySnapshot)
	require.NoError(t, err)

	require.NoError(t, registry.ChangeEmail("Ada Lovelace", "countess@example.com"))
	require.NoError(t, registry.SetAttribute("Ada Lovelace", "tier", "gold"))

	updated, err := registry.SnapshotOf("Ada Lovelace")
	require.NoError(t, err)
	require.Equal(t, uint(3), updated.Revision)

	require.NoError(t, store.Save(ctx, updated))

	reloaded, err := store.Load(ctx, "Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "countess@example.com", reloaded.Email)
	assert.Equal(t, map[string]string{"tier": "gold"}, reloaded.Attributes)
	assert.Equal(t, uint(3), reloaded.Revision)
}

func Test_CustomerStore_Save_ShouldConflict_WithStaleRevision(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	snapshot := givenStoredCustomer(t, store, "Ada Lovelace")

	// pretend a concurrent writer already moved the row to revision 2
	stale := snapshot
	stale.Revision = 3 // update expects the row at revision 2, but it is at 1

	err := store.Save(ctx, stale)

	assert.ErrorIs(t, err, records.ErrConcurrencyConflict)
}

func Test_CustomerStore_Query_WithFilter(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	givenStoredCustomer(t, store, "Ada Lovelace")
	givenStoredCustomer(t, store, "Grace Hopper")
	givenStoredCustomer(t, store, "Charles Babbage")

	filter := records.BuildCustomerFilter().
		Matching().
		AnyNameOf("Ada Lovelace", "Grace Hopper").
		Finalize()

	snapshots, err := store.Query(ctx, filter)
	require.NoError(t, err)

	require.Len(t, snapshots, 2)
	assert.Equal(t, "Ada Lovelace", snapshots[0].Name)
	assert.Equal(t, "Grace Hopper", snapshots[1].Name)
}

func Test_CustomerStore_Query_WithAttributePredicate(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	registry := records.BuildRecords()
	require.NoError(t, registry.Add(uuid.New(), "Ada Lovelace", ""))
	require.NoError(t, registry.SetAttribute("Ada Lovelace", "tier", "gold"))

	snapshot, err := registry.SnapshotOf("Ada Lovelace")
	require.NoError(t, err)

	// a record with revision > 1 that was never inserted must be saved as insert first
	fresh := snapshot
	fresh.Revision = 1
	require.NoError(t, store.Save(ctx, fresh))
	snapshot.Revision = 2
	require.NoError(t, store.Save(ctx, snapshot))

	givenStoredCustomer(t, store, "Grace Hopper")

	filter := records.BuildCustomerFilter().
		Matching().
		AnyAttributeOf(records.P("tier", "gold")).
		Finalize()

	snapshots, err := store.Query(ctx, filter)
	require.NoError(t, err)

	require.Len(t, snapshots, 1)
	assert.Equal(t, "Ada Lovelace", snapshots[0].Name)
}

func Test_CustomerStore_Query_MatchingAnyCustomer_ReturnsAllOrderedByName(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	givenStoredCustomer(t, store, "Grace Hopper")
	givenStoredCustomer(t, store, "Ada Lovelace")

	snapshots, err := store.Query(ctx, records.BuildCustomerFilter().MatchingAnyCustomer())
	require.NoError(t, err)

	require.Len(t, snapshots, 2)
	assert.Equal(t, "Ada Lovelace", snapshots[0].Name)
	assert.Equal(t, "Grace Hopper", snapshots[1].Name)
}

func Test_CustomerStore_Remove(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	snapshot := givenStoredCustomer(t, store, "Ada Lovelace")

	require.NoError(t, store.Remove(ctx, "Ada Lovelace", snapshot.Revision))

	_, err := store.Load(ctx, "Ada Lovelace")
	assert.ErrorIs(t, err, records.ErrCustomerNotFound)
}

func Test_CustomerStore_Remove_ShouldConflict_WithStaleRevision(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	givenStoredCustomer(t, store, "Ada Lovelace")

	err := store.Remove(ctx, "Ada Lovelace", 7)

	assert.ErrorIs(t, err, records.ErrConcurrencyConflict)
}
