package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/quotemanager/internal/catalog"
	"github.com/andresuchdata/quotemanager/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	catalogKeyPrefix     = "catalog:rows"
	catalogScanBatchSize = 100
)

// CatalogCache keeps raw backend rows per source and feed so a restart or a second
// replica does not hit the backend again within the TTL.
type CatalogCache interface {
	GetRows(ctx context.Context, source string, feed catalog.Feed) ([][]any, bool, error)
	SetRows(ctx context.Context, source string, feed catalog.Feed, rows [][]any) error
	Invalidate(ctx context.Context, source string) error
	InvalidateAll(ctx context.Context) error
	Close() error
}

type redisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopCatalogCache struct{}

func NewCatalogCache(cfg config.CacheConfig) (CatalogCache, error) {
	if !cfg.Enabled {
		return &noopCatalogCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisCatalogCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopCatalogCache() CatalogCache {
	return &noopCatalogCache{}
}

func (c *redisCatalogCache) GetRows(ctx context.Context, source string, feed catalog.Feed) ([][]any, bool, error) {
	payload, err := c.client.Get(ctx, buildCatalogKey(source, feed)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	rows, err := decodeRows(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode catalog cache: %w", err)
	}
	return rows, true, nil
}

func (c *redisCatalogCache) SetRows(ctx context.Context, source string, feed catalog.Feed, rows [][]any) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode catalog cache: %w", err)
	}

	if err := c.client.Set(ctx, buildCatalogKey(source, feed), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisCatalogCache) Invalidate(ctx context.Context, source string) error {
	keys := []string{
		buildCatalogKey(source, catalog.FeedMaterials),
		buildCatalogKey(source, catalog.FeedProducts),
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *redisCatalogCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, catalogKeyPrefix, catalogScanBatchSize)
}

func (c *redisCatalogCache) Close() error {
	return c.client.Close()
}

func (n *noopCatalogCache) GetRows(ctx context.Context, source string, feed catalog.Feed) ([][]any, bool, error) {
	return nil, false, nil
}

func (n *noopCatalogCache) SetRows(ctx context.Context, source string, feed catalog.Feed, rows [][]any) error {
	return nil
}

func (n *noopCatalogCache) Invalidate(ctx context.Context, source string) error {
	return nil
}

func (n *noopCatalogCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func (n *noopCatalogCache) Close() error {
	return nil
}

func buildCatalogKey(source string, feed catalog.Feed) string {
	return fmt.Sprintf("%s:%s:%s", catalogKeyPrefix, source, feed)
}

func decodeRows(payload []byte) ([][]any, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var rows [][]any
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// CachedSource serves catalog rows from the cache and falls back to the wrapped
// source on a miss. Cache failures are logged and never fail a load.
type CachedSource struct {
	inner catalog.Source
	cache CatalogCache
}

func NewCachedSource(inner catalog.Source, cache CatalogCache) *CachedSource {
	if cache == nil {
		cache = NewNoopCatalogCache()
	}
	return &CachedSource{inner: inner, cache: cache}
}

func (s *CachedSource) Name() string {
	return s.inner.Name()
}

func (s *CachedSource) MaterialRows(ctx context.Context) ([][]any, error) {
	return s.rows(ctx, catalog.FeedMaterials, s.inner.MaterialRows)
}

func (s *CachedSource) ProductRows(ctx context.Context) ([][]any, error) {
	return s.rows(ctx, catalog.FeedProducts, s.inner.ProductRows)
}

// Invalidate drops the cached rows so the next refresh reaches the source.
func (s *CachedSource) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, s.inner.Name())
}

func (s *CachedSource) rows(ctx context.Context, feed catalog.Feed, fetch func(context.Context) ([][]any, error)) ([][]any, error) {
	name := s.inner.Name()

	rows, ok, err := s.cache.GetRows(ctx, name, feed)
	if err != nil {
		log.Warn().Err(err).Str("source", name).Str("feed", string(feed)).Msg("catalog cache: get failed")
	} else if ok {
		return rows, nil
	}

	rows, err = fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetRows(ctx, name, feed, rows); err != nil {
		log.Warn().Err(err).Str("source", name).Str("feed", string(feed)).Msg("catalog cache: set failed")
	}
	return rows, nil
}

var _ catalog.Source = (*CachedSource)(nil)
