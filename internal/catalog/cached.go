package catalog

import (
	"context"
	"slices"
	"time"

	"imagebot/internal/cache"
	"imagebot/internal/config"
	"imagebot/internal/core"
	"imagebot/internal/models"

	"golang.org/x/sync/singleflight"
)

// CachedFetcher wraps a fetcher with a short-lived snapshot cache keyed by
// catalog URL. Concurrent fetches of the same catalog share one upstream call.
type CachedFetcher struct {
	next   models.Fetcher
	ttl    time.Duration
	cache  *cache.LRUCache[[]string]
	group  singleflight.Group
	logger core.Logger
}

// NewCachedFetcher creates a caching fetcher. ttl <= 0 disables caching
// but keeps call de-duplication.
func NewCachedFetcher(next models.Fetcher, ttl time.Duration, logger core.Logger) *CachedFetcher {
	if logger == nil {
		logger = &core.NopLogger{}
	}
	return &CachedFetcher{
		next:   next,
		ttl:    ttl,
		cache:  cache.New[[]string](core.CacheDefaultCapacity),
		logger: logger,
	}
}

// FetchModels returns the cached snapshot when fresh, otherwise fetches it.
func (c *CachedFetcher) FetchModels(ctx context.Context, cfg *config.BotConfig) ([]string, error) {
	key := cache.CatalogKey(cfg.ImageGeneration.CatalogURL)

	if c.ttl > 0 {
		if ids, ok := c.cache.Get(key); ok {
			c.logger.Debug("Catalog cache hit for %s", cfg.ImageGeneration.CatalogURL)
			return slices.Clone(ids), nil
		}
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// the shared fetch outlives any single waiter
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), core.HTTPRequestTimeout)
		defer cancel()

		ids, err := c.next.FetchModels(fetchCtx, cfg)
		if err != nil {
			return nil, err
		}
		if c.ttl > 0 {
			c.cache.Set(key, slices.Clone(ids), c.ttl)
		}
		return ids, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]string)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops the cached snapshot for catalogURL.
func (c *CachedFetcher) Invalidate(catalogURL string) {
	c.cache.Delete(cache.CatalogKey(catalogURL))
}

// Close stops the cache cleanup worker.
func (c *CachedFetcher) Close() error {
	c.cache.Stop()
	return nil
}
