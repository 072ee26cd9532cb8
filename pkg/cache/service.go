package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"refactortrack/pkg/clock"
	"refactortrack/pkg/storage"
)

// DefaultTTL is the read-cache lifetime observed across the application
const DefaultTTL = 5 * time.Minute

// Error definitions
var (
	ErrCacheMiss = errors.New("cache miss")
)

// Entry is the persisted form of a cached response
type Entry struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
}

// Cache is a TTL read cache over an injected Storage. Expired entries are evicted lazily:
// the read that finds one deletes it and reports a miss.
type Cache struct {
	store storage.Storage
	clock clock.Clock
	ttl   time.Duration
}

// Option configures a Cache
type Option func(*Cache)

// WithClock overrides the time source
func WithClock(c clock.Clock) Option {
	return func(cc *Cache) { cc.clock = c }
}

// WithTTL overrides DefaultTTL
func WithTTL(ttl time.Duration) Option {
	return func(cc *Cache) {
		if ttl > 0 {
			cc.ttl = ttl
		}
	}
}

// New creates a cache; construct one per process and pass it by reference
func New(store storage.Storage, opts ...Option) *Cache {
	c := &Cache{
		store: store,
		clock: clock.Real(),
		ttl:   DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured entry lifetime
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Key derives a stable cache key from an operation namespace and its parameters
func Key(namespace string, params any) (string, error) {
	if params == nil {
		return namespace, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("cache key marshal error: %w", err)
	}
	return namespace + ":" + string(data), nil
}

func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrCacheMiss
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	// unreadable entries, expired ones and values that no longer fit dest are all dropped
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return c.drop(ctx, key)
	}
	if c.clock.Now().Sub(entry.Timestamp) >= c.ttl {
		return c.drop(ctx, key)
	}
	if err := json.Unmarshal(entry.Value, dest); err != nil {
		return c.drop(ctx, key)
	}
	return nil
}

// drop deletes key and reports the miss
func (c *Cache) drop(ctx context.Context, key string) error {
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return ErrCacheMiss
}

func (c *Cache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	raw, err := json.Marshal(Entry{Key: key, Value: data, Timestamp: c.clock.Now()})
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

// DeletePrefix removes every entry whose key starts with prefix and reports how many went
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := c.store.Keys(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("cache keys error: %w", err)
	}

	removed := 0
	for _, key := range keys {
		if err := c.store.Delete(ctx, key); err != nil {
			return removed, fmt.Errorf("cache delete prefix error: %w", err)
		}
		removed++
	}
	return removed, nil
}

// Clear drops every entry in the given namespaces. Keys outside them (auth blob, activity) are left alone.
func (c *Cache) Clear(ctx context.Context, prefixes ...string) error {
	for _, p := range prefixes {
		if _, err := c.DeletePrefix(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Exists reports whether a live entry is stored under key
func (c *Cache) Exists(ctx context.Context, key string) bool {
	var discard json.RawMessage
	return c.Get(ctx, key, &discard) == nil
}

// GetOrSet is the cache-aside helper. Concurrent misses for the same key are not coalesced;
// each caller runs fetch.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest any, fetch func(ctx context.Context) (any, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return err
	}

	data, err := fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetcher error: %w", err)
	}

	if err := c.Set(ctx, key, data); err != nil {
		return err
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal fetched data error: %w", err)
	}
	return json.Unmarshal(jsonData, dest)
}
