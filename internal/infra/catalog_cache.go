package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/singleflight"
)

// CachedCatalog fronts a CatalogClient with a redis TTL cache. Concurrent
// lookups of the same product collapse into one upstream request.
type CachedCatalog struct {
	inner CatalogClientInterface
	rdb   *redis.Client
	ttl   time.Duration
	group singleflight.Group
}

func NewCachedCatalog(inner CatalogClientInterface, rdb *redis.Client, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{inner: inner, rdb: rdb, ttl: ttl}
}

func (c *CachedCatalog) GetProduct(ctx context.Context, id string) (*ProductInfo, error) {
	cacheKey := "product:" + id

	if c.rdb != nil {
		cached, err := c.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var p ProductInfo
			if err := json.Unmarshal([]byte(cached), &p); err == nil {
				return &p, nil
			}
		}
	}

	v, err, _ := c.group.Do(id, func() (any, error) {
		return c.inner.GetProduct(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	prod, _ := v.(*ProductInfo)
	if prod == nil {
		return nil, nil
	}

	if c.rdb != nil {
		if data, err := json.Marshal(prod); err == nil {
			if err := c.rdb.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
				slog.Debug("catalog cache set failed", slog.String("product_id", id), slog.Any("error", err))
			}
		}
	}

	return prod, nil
}

// Warmup primes the cache for a list of products, typically the current
// storefront landing page. Lookup failures are logged and skipped.
func (c *CachedCatalog) Warmup(ctx context.Context, productIDs []string) {
	for _, id := range productIDs {
		if _, err := c.GetProduct(ctx, id); err != nil {
			slog.Warn("catalog warmup failed", slog.String("product_id", id), slog.Any("error", err))
		}
	}
}
