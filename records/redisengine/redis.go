// Package redisengine provides a Redis-backed cache for customer snapshots.
//
// The cache stores detached records.CustomerSnapshot values keyed by customer
// name. Because only value copies go in and come out, a populated cache can be
// handed to read-side code without exposing any registry-internal state.
package redisengine

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/AntonStoeckl/customer-records-go/records"
)

var (
	// ErrNilRedisClient is returned when a cache is built with a nil client.
	ErrNilRedisClient = errors.New("redis client must not be nil")

	// ErrCacheMiss is returned when no snapshot is cached under the given name.
	ErrCacheMiss = errors.New("customer snapshot not cached")

	// ErrEncodingSnapshotFailed is returned when a snapshot cannot be serialized for caching.
	ErrEncodingSnapshotFailed = errors.New("encoding customer snapshot failed")

	// ErrDecodingSnapshotFailed is returned when a cached value cannot be deserialized.
	ErrDecodingSnapshotFailed = errors.New("decoding cached customer snapshot failed")

	// ErrCacheOperationFailed is returned when the Redis command itself fails.
	ErrCacheOperationFailed = errors.New("cache operation failed")
)

const (
	defaultKeyPrefix = "customers:"
	defaultTTL       = 15 * time.Minute

	logMsgSnapshotCached  = "customer snapshot cached"
	logMsgSnapshotEvicted = "customer snapshot evicted"
	logMsgCacheFlushed    = "customer cache flushed"
	logMsgRedisCmdFailed  = "redis command failed"

	logAttrError        = "error"
	logAttrCustomerName = "customer_name"
	logAttrKeyCount     = "key_count"
)

// SnapshotCache is a Redis-backed cache of detached customer snapshots keyed by name.
type SnapshotCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    records.Logger
}

// Option defines a functional option for configuring SnapshotCache.
type Option func(*SnapshotCache) error

// WithKeyPrefix sets the key prefix for cached snapshots.
func WithKeyPrefix(prefix string) Option {
	return func(sc *SnapshotCache) error {
		sc.keyPrefix = prefix
		return nil
	}
}

// WithTTL sets the expiry for cached snapshots. A zero TTL caches without expiry.
func WithTTL(ttl time.Duration) Option {
	return func(sc *SnapshotCache) error {
		sc.ttl = ttl
		return nil
	}
}

// WithLogger sets the logger for the SnapshotCache.
func WithLogger(logger records.Logger) Option {
	return func(sc *SnapshotCache) error {
		sc.logger = logger
		return nil
	}
}

// NewSnapshotCache creates a new SnapshotCache using the given Redis client with optional configuration.
func NewSnapshotCache(client *redis.Client, options ...Option) (SnapshotCache, error) {
	if client == nil {
		return SnapshotCache{}, ErrNilRedisClient
	}

	sc := SnapshotCache{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		ttl:       defaultTTL,
	}

	for _, option := range options {
		if err := option(&sc); err != nil {
			return SnapshotCache{}, err
		}
	}

	return sc, nil
}

// Store caches a customer snapshot under its name.
func (sc SnapshotCache) Store(ctx context.Context, snapshot records.CustomerSnapshot) error {
	data, marshalErr := jsoniter.ConfigFastest.Marshal(snapshot)
	if marshalErr != nil {
		return errors.Join(ErrEncodingSnapshotFailed, marshalErr)
	}

	if setErr := sc.client.Set(ctx, sc.key(snapshot.Name), data, sc.ttl).Err(); setErr != nil {
		sc.logRedisError(setErr, snapshot.Name)
		return errors.Join(ErrCacheOperationFailed, setErr)
	}

	if sc.logger != nil {
		sc.logger.Debug(logMsgSnapshotCached, logAttrCustomerName, snapshot.Name)
	}

	return nil
}

// Fetch returns the cached snapshot for the given name.
// Returns ErrCacheMiss when nothing is cached under the name.
func (sc SnapshotCache) Fetch(ctx context.Context, name string) (records.CustomerSnapshot, error) {
	var empty records.CustomerSnapshot

	data, getErr := sc.client.Get(ctx, sc.key(name)).Bytes()
	if errors.Is(getErr, redis.Nil) {
		return empty, ErrCacheMiss
	}

	if getErr != nil {
		sc.logRedisError(getErr, name)
		return empty, errors.Join(ErrCacheOperationFailed, getErr)
	}

	var snapshot records.CustomerSnapshot
	if unmarshalErr := jsoniter.ConfigFastest.Unmarshal(data, &snapshot); unmarshalErr != nil {
		return empty, errors.Join(ErrDecodingSnapshotFailed, unmarshalErr)
	}

	return snapshot, nil
}

// Evict removes the cached snapshot for the given name. Evicting a missing name is a no-op.
func (sc SnapshotCache) Evict(ctx context.Context, name string) error {
	if delErr := sc.client.Del(ctx, sc.key(name)).Err(); delErr != nil {
		sc.logRedisError(delErr, name)
		return errors.Join(ErrCacheOperationFailed, delErr)
	}

	if sc.logger != nil {
		sc.logger.Debug(logMsgSnapshotEvicted, logAttrCustomerName, name)
	}

	return nil
}

// Flush removes all cached snapshots under the configured key prefix.
func (sc SnapshotCache) Flush(ctx context.Context) error {
	var cursor uint64
	var removed int

	for {
		keys, nextCursor, scanErr := sc.client.Scan(ctx, cursor, sc.keyPrefix+"*", 100).Result()
		if scanErr != nil {
			sc.logRedisError(scanErr, "")
			return errors.Join(ErrCacheOperationFailed, scanErr)
		}

		if len(keys) > 0 {
			if delErr := sc.client.Del(ctx, keys...).Err(); delErr != nil {
				sc.logRedisError(delErr, "")
				return errors.Join(ErrCacheOperationFailed, delErr)
			}

			removed += len(keys)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	if sc.logger != nil {
		sc.logger.Info(logMsgCacheFlushed, logAttrKeyCount, removed)
	}

	return nil
}

func (sc SnapshotCache) key(name string) string {
	return sc.keyPrefix + name
}

func (sc SnapshotCache) logRedisError(err error, name string) {
	if sc.logger != nil {
		sc.logger.Warn(logMsgRedisCmdFailed, logAttrError, err.Error(), logAttrCustomerName, name)
	}
}
