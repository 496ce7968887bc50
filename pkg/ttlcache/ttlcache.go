// Package ttlcache implements a lazily expiring cache on top of a durable
// kvstore.Store. Each entry records the time it was written; reads treat an
// entry older than the TTL as absent and delete it.
package ttlcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/illmade-knight/go-catpedia/pkg/kvstore"
	"github.com/rs/zerolog"
)

// DefaultTTL is the maximum age of a cached entry.
const DefaultTTL = 7 * 24 * time.Hour

// Entry is a cached value together with its write time.
type Entry[V any] struct {
	Value    V
	StoredAt time.Time
}

// wireEntry is the serialized form: {"data": ..., "timestamp": <unix millis>}.
type wireEntry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp *int64          `json:"timestamp"`
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now as the cache's time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Cache is a typed TTL cache. It is safe for concurrent use when the
// underlying store is.
type Cache[V any] struct {
	store  kvstore.Store
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// New creates a Cache over store with the fixed DefaultTTL.
func New[V any](store kvstore.Store, logger zerolog.Logger, opts ...Option) (*Cache[V], error) {
	if store == nil {
		return nil, errors.New("ttlcache: store cannot be nil")
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		store:  store,
		ttl:    DefaultTTL,
		now:    o.now,
		logger: logger.With().Str("component", "TTLCache").Logger(),
	}, nil
}

// TTL returns the expiry window applied to every entry.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

// Set stores value under key stamped with the current time, replacing any
// previous entry.
func (c *Cache[V]) Set(ctx context.Context, key string, value V) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value for key %s: %w", key, err)
	}
	ts := c.now().UnixMilli()
	raw, err := json.Marshal(wireEntry{Data: data, Timestamp: &ts})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry for key %s: %w", key, err)
	}
	if err := c.store.Set(ctx, key, raw); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to write cache entry.")
		return fmt.Errorf("failed to write cache entry for key %s: %w", key, err)
	}
	c.logger.Debug().Str("key", key).Int("bytes", len(raw)).Msg("Cache entry stored.")
	return nil
}

// Get returns the cached value for key, or false when the entry is absent,
// expired, corrupt, or the store could not be read.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool) {
	entry, ok := c.Lookup(ctx, key)
	return entry.Value, ok
}

// Lookup is Get with the entry's write time.
func (c *Cache[V]) Lookup(ctx context.Context, key string) (Entry[V], bool) {
	var zero Entry[V]

	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			// Storage trouble is a soft miss; the entry may be readable later.
			c.logger.Warn().Err(err).Str("key", key).Msg("Cache store unavailable, treating as miss.")
		}
		return zero, false
	}

	entry, err := c.decode(raw)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Corrupt cache entry, deleting.")
		c.remove(ctx, key)
		return zero, false
	}

	// Timestamps are stored in whole milliseconds; compare at the same precision.
	now := time.UnixMilli(c.now().UnixMilli())
	if now.Sub(entry.StoredAt) > c.ttl {
		c.logger.Debug().Str("key", key).Time("stored_at", entry.StoredAt).Msg("Cache entry expired, deleting.")
		c.remove(ctx, key)
		return zero, false
	}

	c.logger.Debug().Str("key", key).Msg("Cache hit.")
	return entry, true
}

// Clear deletes the entry for key. Clearing a missing key is not an error.
func (c *Cache[V]) Clear(ctx context.Context, key string) error {
	if err := c.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("failed to clear cache entry for key %s: %w", key, err)
	}
	return nil
}

func (c *Cache[V]) decode(raw []byte) (Entry[V], error) {
	var wire wireEntry
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Entry[V]{}, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	if wire.Timestamp == nil || len(wire.Data) == 0 {
		return Entry[V]{}, errors.New("cache entry is missing data or timestamp")
	}
	var value V
	if err := json.Unmarshal(wire.Data, &value); err != nil {
		return Entry[V]{}, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return Entry[V]{Value: value, StoredAt: time.UnixMilli(*wire.Timestamp)}, nil
}

func (c *Cache[V]) remove(ctx context.Context, key string) {
	if err := c.store.Remove(ctx, key); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete stale cache entry.")
	}
}
