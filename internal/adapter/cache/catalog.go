// Package cache keeps short-lived copies of catalog query results in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/FizzSlash/AIdesign/internal/domain"
)

const DefaultCatalogTTL = 5 * time.Minute

// CatalogCache wraps a catalog provider. Redis failures are logged and the
// query falls through to the wrapped provider.
type CatalogCache struct {
	next   domain.CatalogProvider
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCatalogCache(next domain.CatalogProvider, rdb redis.UniversalClient, ttl time.Duration, logger zerolog.Logger) *CatalogCache {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogCache{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With().Str("component", "catalog_cache").Logger(),
	}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}
	return rdb, nil
}

func (c *CatalogCache) Query(ctx context.Context, ownerID string, filter domain.CatalogFilter) ([]domain.Product, error) {
	key, err := Key(ownerID, filter)
	if err != nil {
		return c.next.Query(ctx, ownerID, filter)
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var products []domain.Product
		if jerr := json.Unmarshal(raw, &products); jerr == nil {
			return products, nil
		}
		c.logger.Warn().Str("key", key).Msg("cache: dropping undecodable entry")
	case !errors.Is(err, redis.Nil):
		c.logger.Warn().Err(err).Msg("cache: redis get failed")
	}

	products, err := c.next.Query(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	data, err := json.Marshal(products)
	if err != nil {
		return products, nil
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("cache: redis set failed")
	}
	return products, nil
}

// Invalidate drops every cached query of the owner.
func (c *CatalogCache) Invalidate(ctx context.Context, ownerID string) error {
	iter := c.rdb.Scan(ctx, 0, ownerPrefix(ownerID)+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache: scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Key derives a stable cache key; id lists are order-insensitive except
// IDs, whose order drives explicit selection.
func Key(ownerID string, f domain.CatalogFilter) (string, error) {
	norm := f
	norm.Keywords = sortedCopy(f.Keywords)
	norm.ExcludeIDs = sortedCopy(f.ExcludeIDs)
	data, err := json.Marshal(norm)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return ownerPrefix(ownerID) + hex.EncodeToString(sum[:16]), nil
}

func ownerPrefix(ownerID string) string {
	return "catalog:" + ownerID + ":"
}

func sortedCopy(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := slices.Clone(values)
	slices.Sort(out)
	return out
}
