package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ViewCache stores JSON projections of type T under "<prefix><id>". Redis
// failures degrade to cache misses; the caller's source of truth is never
// bypassed.
type ViewCache[T any] struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewViewCache binds a cache namespace. A zero ttl keeps entries until they
// are deleted.
func NewViewCache[T any](client *goredis.Client, prefix string, ttl time.Duration) *ViewCache[T] {
	return &ViewCache[T]{client: client, prefix: prefix, ttl: ttl}
}

func (c *ViewCache[T]) key(id string) string { return c.prefix + id }

// Get returns the cached view for id, or false on a miss.
func (c *ViewCache[T]) Get(ctx context.Context, id string) (*T, bool) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.Warn("ViewCache: read error", "key", c.key(id), "error", err)
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		slog.Warn("ViewCache: dropping undecodable entry", "key", c.key(id), "error", err)
		c.Delete(ctx, id)
		return nil, false
	}
	return &v, true
}

// GetOrLoad serves id from the cache, or calls load and caches its result.
func (c *ViewCache[T]) GetOrLoad(ctx context.Context, id string, load func(ctx context.Context) (*T, error)) (*T, error) {
	if v, ok := c.Get(ctx, id); ok {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.Set(ctx, id, v)
	return v, nil
}

func (c *ViewCache[T]) Set(ctx context.Context, id string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Warn("ViewCache: marshal error", "key", c.key(id), "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key(id), data, c.ttl).Err(); err != nil {
		slog.Warn("ViewCache: write error", "key", c.key(id), "error", err)
	}
}

func (c *ViewCache[T]) Delete(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("ViewCache: delete error", "keys", keys, "error", err)
	}
}
