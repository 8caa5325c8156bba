package stats

import (
	"context"

	"github.com/dalemusser/clubreviews/internal/domain/models"
	"go.uber.org/zap"
)

// Cache stores the full stats map produced by Batched.All.
type Cache interface {
	Load(ctx context.Context) (map[string]models.OrganizationStats, bool, error)
	Store(ctx context.Context, all map[string]models.OrganizationStats) error
	Invalidate(ctx context.Context) error
}

// Cached serves Batched results through a Cache. Cache errors are logged
// and fall through to the database; they never fail a request.
type Cached struct {
	Inner *Batched
	Cache Cache
	Log   *zap.Logger
}

// NewCached wraps inner with cache. A nil cache disables caching.
func NewCached(inner *Batched, cache Cache, log *zap.Logger) *Cached {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cached{Inner: inner, Cache: cache, Log: log}
}

// All returns the cached map, recomputing and storing it on a miss.
func (c *Cached) All(ctx context.Context) (map[string]models.OrganizationStats, error) {
	if c.Cache != nil {
		all, ok, err := c.Cache.Load(ctx)
		if err != nil {
			c.Log.Warn("stats cache load failed", zap.Error(err))
		} else if ok {
			return all, nil
		}
	}
	return c.Refresh(ctx)
}

// Refresh recomputes the full map and writes it to the cache.
func (c *Cached) Refresh(ctx context.Context) (map[string]models.OrganizationStats, error) {
	all, err := c.Inner.All(ctx)
	if err != nil {
		return nil, err
	}
	if c.Cache != nil {
		if err := c.Cache.Store(ctx, all); err != nil {
			c.Log.Warn("stats cache store failed", zap.Error(err))
		}
	}
	return all, nil
}

func (c *Cached) Stats(ctx context.Context, orgID string) (models.OrganizationStats, bool, error) {
	all, err := c.All(ctx)
	if err != nil {
		return models.OrganizationStats{}, false, err
	}
	s, ok := all[orgID]
	return s, ok, nil
}

// Invalidate drops the cached map so the next read recomputes it.
func (c *Cached) Invalidate(ctx context.Context) {
	if c == nil || c.Cache == nil {
		return
	}
	if err := c.Cache.Invalidate(ctx); err != nil {
		c.Log.Warn("stats cache invalidate failed", zap.Error(err))
	}
}

var (
	_ Source = (*Direct)(nil)
	_ Source = (*Batched)(nil)
	_ Source = (*Cached)(nil)
)

// Warm refreshes the cache and reports how many organizations have stats.
func (c *Cached) Warm(ctx context.Context) (int, error) {
	all, err := c.Refresh(ctx)
	return len(all), err
}
