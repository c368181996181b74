package redisengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/customer-records-go/records"
	"github.com/AntonStoeckl/customer-records-go/records/redisengine"
)

// setupCache creates a miniredis-backed snapshot cache for testing.
func setupCache(t *testing.T, options ...redisengine.Option) (*miniredis.Miniredis, redisengine.SnapshotCache) {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})

	cache, err := redisengine.NewSnapshotCache(client, options...)
	require.NoError(t, err)

	return mr, cache
}

func givenSnapshot(t *testing.T, name string) records.CustomerSnapshot {
	t.Helper()

	registry := records.BuildRecords()
	require.NoError(t, registry.Add(uuid.New(), name, name+"@example.com"))
	require.NoError(t, registry.SetAttribute(name, "tier", "gold"))

	snapshot, err := registry.SnapshotOf(name)
	require.NoError(t, err, "error in arranging test data")

	return snapshot
}

func Test_NewSnapshotCache_ShouldFail_WithNilClient(t *testing.T) {
	_, err := redisengine.NewSnapshotCache(nil)

	assert.ErrorIs(t, err, redisengine.ErrNilRedisClient)
}

func Test_SnapshotCache_StoreAndFetch(t *testing.T) {
	_, cache := setupCache(t)
	ctx := context.Background()

	stored := givenSnapshot(t, "Ada Lovelace")
	require.NoError(t, cache.Store(ctx, stored))

	fetched, err := cache.Fetch(ctx, "Ada Lovelace")
	require.NoError(t, err)

	assert.Equal(t, stored.ID, fetched.ID)
	assert.Equal(t, stored.Email, fetched.Email)
	assert.Equal(t, stored.Attributes, fetched.Attributes)
	assert.Equal(t, stored.Revision, fetched.Revision)
}

func Test_SnapshotCache_Fetch_ShouldMiss_WhenNotCached(t *testing.T) {
	_, cache := setupCache(t)

	_, err := cache.Fetch(context.Background(), "Ada Lovelace")

	assert.ErrorIs(t, err, redisengine.ErrCacheMiss)
}

func Test_SnapshotCache_FetchedSnapshot_IsDetached(t *testing.T) {
	_, cache := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, givenSnapshot(t, "Ada Lovelace")))

	first, err := cache.Fetch(ctx, "Ada Lovelace")
	require.NoError(t, err)

	// tampering with one fetched copy must not show through to later fetches
	first.Attributes["tier"] = "tampered"

	second, err := cache.Fetch(ctx, "Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "gold", second.Attributes["tier"])
}

func Test_SnapshotCache_Evict(t *testing.T) {
	_, cache := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, givenSnapshot(t, "Ada Lovelace")))
	require.NoError(t, cache.Evict(ctx, "Ada Lovelace"))

	_, err := cache.Fetch(ctx, "Ada Lovelace")
	assert.ErrorIs(t, err, redisengine.ErrCacheMiss)
}

func Test_SnapshotCache_Evict_MissingName_IsNoOp(t *testing.T) {
	_, cache := setupCache(t)

	assert.NoError(t, cache.Evict(context.Background(), "Ada Lovelace"))
}

func Test_SnapshotCache_Flush_RemovesOnlyPrefixedKeys(t *testing.T) {
	mr, cache := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, givenSnapshot(t, "Ada Lovelace")))
	require.NoError(t, cache.Store(ctx, givenSnapshot(t, "Grace Hopper")))
	require.NoError(t, mr.Set("unrelated-key", "keep-me"))

	require.NoError(t, cache.Flush(ctx))

	_, err := cache.Fetch(ctx, "Ada Lovelace")
	assert.ErrorIs(t, err, redisengine.ErrCacheMiss)
	_, err = cache.Fetch(ctx, "Grace Hopper")
	assert.ErrorIs(t, err, redisengine.ErrCacheMiss)

	assert.True(t, mr.Exists("unrelated-key"))
}

func Test_SnapshotCache_RespectsTTL(t *testing.T) {
	mr, cache := setupCache(t, redisengine.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, givenSnapshot(t, "Ada Lovelace")))

	mr.FastForward(2 * time.Minute)

	_, err := cache.Fetch(ctx, "Ada Lovelace")
	assert.ErrorIs(t, err, redisengine.ErrCacheMiss)
}

func Test_SnapshotCache_WithKeyPrefix(t *testing.T) {
	mr, cache := setupCache(t, redisengine.WithKeyPrefix("directory:"))
	ctx := context.Background()

	require.NoError(t, cache.Store(ctx, givenSnapshot(t, "Ada Lovelace")))

	assert.True(t, mr.Exists("directory:Ada Lovelace"))
}
