// Package statscache keeps the batched organization stats map in Redis so
// listing requests do not rerun the aggregation pipeline.
package statscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dalemusser/clubreviews/internal/domain/models"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis key holding the encoded stats map.
const DefaultKey = "clubreviews:stats:all"

// Cache is a Redis-backed stats.Cache.
type Cache struct {
	rdb redis.Cmdable
	key string
	ttl time.Duration
}

// New returns a Cache. A zero ttl stores entries without expiry.
func New(rdb redis.Cmdable, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, key: DefaultKey, ttl: ttl}
}

// WithKey returns a copy of c that uses key. Tests use this to isolate runs.
func (c *Cache) WithKey(key string) *Cache {
	cp := *c
	cp.key = key
	return &cp
}

func (c *Cache) Load(ctx context.Context) (map[string]models.OrganizationStats, bool, error) {
	b, err := c.rdb.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var all map[string]models.OrganizationStats
	if err := json.Unmarshal(b, &all); err != nil {
		// A corrupt entry is a miss; the next Store overwrites it.
		return nil, false, nil
	}
	return all, true, nil
}

func (c *Cache) Store(ctx context.Context, all map[string]models.OrganizationStats) error {
	if all == nil {
		all = map[string]models.OrganizationStats{}
	}
	b, err := json.Marshal(all)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key, b, c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, c.key).Err()
}
