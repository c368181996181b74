package snapshotstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/customer-records-go/records"
	"github.com/AntonStoeckl/customer-records-go/records/snapshotstore"
)

func Test_Store_SaveAndLoadLatest(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	snapshot := registrySnapshotFixture(t, "Ada Lovelace", "Grace Hopper")

	// act
	saveErr := store.Save(ctx, snapshot)

	// assert
	require.NoError(t, saveErr)

	loaded, loadErr := store.LoadLatest(ctx)
	require.NoError(t, loadErr)
	assert.Equal(t, snapshot.CustomerCount, loaded.CustomerCount)
	assert.JSONEq(t, string(snapshot.Data), string(loaded.Data))
	assert.True(t, snapshot.TakenAt.Equal(loaded.TakenAt))
}

func Test_Store_LoadLatest_ReturnsNewestSnapshot(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	older := registrySnapshotFixture(t, "Ada Lovelace")
	newer := registrySnapshotFixture(t, "Ada Lovelace", "Grace Hopper", "Barbara Liskov")

	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	// act
	loaded, loadErr := store.LoadLatest(ctx)

	// assert
	require.NoError(t, loadErr)
	assert.Equal(t, 3, loaded.CustomerCount)
}

func Test_Store_LoadLatest_EmptyStore(t *testing.T) {
	store := openStore(t)

	// act
	_, loadErr := store.LoadLatest(context.Background())

	// assert
	assert.ErrorIs(t, loadErr, snapshotstore.ErrNoSnapshots)
}

func Test_Store_Save_InvalidSnapshot(t *testing.T) {
	store := openStore(t)

	broken := records.RegistrySnapshot{Data: []byte(`{not json`)}

	// act
	saveErr := store.Save(context.Background(), broken)

	// assert
	assert.ErrorIs(t, saveErr, records.ErrInvalidSnapshotJSON)
}

func Test_Store_Prune_KeepsNewestSnapshots(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for range 5 {
		require.NoError(t, store.Save(ctx, registrySnapshotFixture(t, "Ada Lovelace")))
	}

	newest := registrySnapshotFixture(t, "Ada Lovelace", "Grace Hopper")
	require.NoError(t, store.Save(ctx, newest))

	// act
	pruneErr := store.Prune(ctx, 2)

	// assert
	require.NoError(t, pruneErr)

	count, countErr := store.Count(ctx)
	require.NoError(t, countErr)
	assert.Equal(t, 2, count)

	loaded, loadErr := store.LoadLatest(ctx)
	require.NoError(t, loadErr)
	assert.Equal(t, 2, loaded.CustomerCount, "the newest snapshot must survive the prune")
}

func Test_Store_Prune_NegativeKeepDeletesAll(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, registrySnapshotFixture(t, "Ada Lovelace")))

	// act
	pruneErr := store.Prune(ctx, -1)

	// assert
	require.NoError(t, pruneErr)

	_, loadErr := store.LoadLatest(ctx)
	assert.ErrorIs(t, loadErr, snapshotstore.ErrNoSnapshots)
}

func Test_Store_RoundTripRestoresRegistry(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	registry := records.BuildRecords()
	require.NoError(t, registry.Add(uuid.New(), "Ada Lovelace", "ada@example.com"))
	require.NoError(t, registry.SetAttribute("Ada Lovelace", "team", "research"))

	snapshot, snapshotErr := registry.Snapshot()
	require.NoError(t, snapshotErr)
	require.NoError(t, store.Save(ctx, snapshot))

	loaded, loadErr := store.LoadLatest(ctx)
	require.NoError(t, loadErr)

	// act
	restored, restoreErr := records.RestoreRecords(loaded)

	// assert
	require.NoError(t, restoreErr)
	assert.Equal(t, 1, restored.Len())

	customer, customerErr := restored.Customer("Ada Lovelace")
	require.NoError(t, customerErr)

	team, hasTeam := customer.Attribute("team")
	assert.True(t, hasTeam)
	assert.Equal(t, "research", team)
	assert.Equal(t, records.RevisionUint(2), customer.Revision())
}

func openStore(t *testing.T) *snapshotstore.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "snapshots.db")

	store, openErr := snapshotstore.Open(path)
	require.NoError(t, openErr)

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

func registrySnapshotFixture(t *testing.T, names ...string) records.RegistrySnapshot {
	t.Helper()

	registry := records.BuildRecords()
	for _, name := range names {
		require.NoError(t, registry.Add(uuid.New(), name, ""))
	}

	snapshot, snapshotErr := registry.Snapshot()
	require.NoError(t, snapshotErr)

	return snapshot
}
