package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"sharehub/internal/metrics"
	"sharehub/internal/models"

	"github.com/rs/zerolog"
)

const generationKey = "search:generation"

// SearchCache keeps search result pages keyed by query and generation.
// Invalidation bumps the generation counter instead of scanning keys, so
// stale pages simply age out by TTL.
type SearchCache struct {
	store  Store
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewSearchCache(store Store, ttl time.Duration, logger *zerolog.Logger) *SearchCache {
	if ttl <= 0 {
		ttl = models.SearchCacheTTL * time.Second
	}
	return &SearchCache{store: store, ttl: ttl, logger: logger}
}

func (c *SearchCache) Get(ctx context.Context, text string, from, size int) ([]*models.Item, bool) {
	raw, err := c.store.Get(ctx, c.key(ctx, text, from, size))
	if err != nil {
		c.logger.Warn().Err(err).Msg("search cache get error")
		return nil, false
	}
	if raw == nil {
		metrics.IncSearchCache("miss")
		return nil, false
	}

	var items []*models.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		c.logger.Warn().Err(err).Msg("search cache decode error")
		return nil, false
	}
	metrics.IncSearchCache("hit")
	return items, true
}

func (c *SearchCache) Set(ctx context.Context, text string, from, size int, items []*models.Item) {
	raw, err := json.Marshal(items)
	if err != nil {
		c.logger.Warn().Err(err).Msg("search cache encode error")
		return
	}
	if err := c.store.Set(ctx, c.key(ctx, text, from, size), raw, c.ttl); err != nil {
		c.logger.Warn().Err(err).Msg("search cache set error")
	}
}

// Invalidate drops all cached pages by advancing the generation.
func (c *SearchCache) Invalidate(ctx context.Context) {
	if _, err := c.store.Incr(ctx, generationKey); err != nil {
		c.logger.Warn().Err(err).Msg("search cache invalidate error")
	}
}

func (c *SearchCache) key(ctx context.Context, text string, from, size int) string {
	return fmt.Sprintf("search:%d:%s:%d:%d", c.generation(ctx), text, from, size)
}

func (c *SearchCache) generation(ctx context.Context) int64 {
	raw, err := c.store.Get(ctx, generationKey)
	if err != nil || raw == nil {
		return 0
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
