package store

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/voyagen/mediaorganizer/internal/cache"
	"github.com/voyagen/mediaorganizer/internal/models"
)

const (
	keySettings      = "mediaorganizer:settings"
	keyCountsPattern = "mediaorganizer:counts:*"
)

// CachedStore wraps a Store with a Redis caching layer. Workers read the
// settings row on every job and the dashboard counts on every page load, so
// those two reads are cached; every write invalidates them.
type CachedStore struct {
	inner  Store
	cache  *cache.Redis
	ttl    time.Duration
	logger logrus.FieldLogger
}

// NewCachedStore creates a CachedStore that wraps inner with Redis caching.
func NewCachedStore(inner Store, c *cache.Redis, ttl time.Duration, logger logrus.FieldLogger) *CachedStore {
	return &CachedStore{inner: inner, cache: c, ttl: ttl, logger: logger.WithField("component", "store_cache")}
}

// --- cached reads ---

func (c *CachedStore) GetSettings(ctx context.Context) (*models.Settings, error) {
	if v, ok := get[models.Settings](ctx, c, keySettings); ok {
		return &v, nil
	}
	st, err := c.inner.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, keySettings, st)
	return st, nil
}

func (c *CachedStore) EnsureSettings(ctx context.Context) (*models.Settings, error) {
	if v, ok := get[models.Settings](ctx, c, keySettings); ok {
		return &v, nil
	}
	st, err := c.inner.EnsureSettings(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, keySettings, st)
	return st, nil
}

func (c *CachedStore) CountItems(ctx context.Context, filter ItemFilter) (int, error) {
	key := "mediaorganizer:counts:" + filterHash(filter)
	if v, ok := get[int](ctx, c, key); ok {
		return v, nil
	}
	n, err := c.inner.CountItems(ctx, filter)
	if err != nil {
		return 0, err
	}
	c.set(ctx, key, n)
	return n, nil
}

// --- writes with invalidation ---

func (c *CachedStore) UpdateSettings(ctx context.Context, s *models.Settings) error {
	if err := c.inner.UpdateSettings(ctx, s); err != nil {
		return err
	}
	c.invalidate(ctx, keySettings)
	return nil
}

func (c *CachedStore) SaveSyncBatch(ctx context.Context, batch SyncBatch) error {
	if err := c.inner.SaveSyncBatch(ctx, batch); err != nil {
		return err
	}
	if !batch.Empty() {
		c.invalidatePattern(ctx, keyCountsPattern)
	}
	return nil
}

func (c *CachedStore) UpdateSuggestion(ctx context.Context, id int64, suggestedPath string, organized bool) error {
	if err := c.inner.UpdateSuggestion(ctx, id, suggestedPath, organized); err != nil {
		return err
	}
	c.invalidatePattern(ctx, keyCountsPattern)
	return nil
}

func (c *CachedStore) SetIgnored(ctx context.Context, id int64, ignored bool) error {
	if err := c.inner.SetIgnored(ctx, id, ignored); err != nil {
		return err
	}
	c.invalidatePattern(ctx, keyCountsPattern)
	return nil
}

// --- passthrough ---

func (c *CachedStore) GetItem(ctx context.Context, id int64) (*models.MediaItem, error) {
	return c.inner.GetItem(ctx, id)
}

func (c *CachedStore) ListItemsByKind(ctx context.Context, kind models.Kind) ([]models.MediaItem, error) {
	return c.inner.ListItemsByKind(ctx, kind)
}

func (c *CachedStore) ListItems(ctx context.Context, filter ItemFilter) ([]models.MediaItem, error) {
	return c.inner.ListItems(ctx, filter)
}

func (c *CachedStore) Close() error {
	return c.inner.Close()
}

// --- helpers ---

// get reads a cached value. Redis errors count as a miss so a degraded cache
// falls through to the store.
func get[T any](ctx context.Context, c *CachedStore, key string) (T, bool) {
	v, found, err := cache.Get[T](ctx, c.cache, key)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache get failed")
	}
	return v, found
}

func (c *CachedStore) set(ctx context.Context, key string, v any) {
	if err := cache.Set(ctx, c.cache, key, v, c.ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache set failed")
	}
}

func (c *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := cache.Del(ctx, c.cache, keys...); err != nil {
		c.logger.WithError(err).WithField("keys", keys).Warn("cache del failed")
	}
}

func (c *CachedStore) invalidatePattern(ctx context.Context, patterns ...string) {
	for _, p := range patterns {
		if err := cache.DelPattern(ctx, c.cache, p); err != nil {
			c.logger.WithError(err).WithField("pattern", p).Warn("cache del pattern failed")
		}
	}
}

// filterHash produces a short deterministic hash for an ItemFilter so it
// can be used as part of a cache key.
func filterHash(f ItemFilter) string {
	kind := "any"
	if f.Kind != nil {
		kind = string(*f.Kind)
	}
	raw := fmt.Sprintf("%s|%s|%s|%v", kind, boolKey(f.Organized), boolKey(f.Ignored), f.UnsuggestedOnly)
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h[:8])
}

func boolKey(b *bool) string {
	if b == nil {
		return "any"
	}
	return fmt.Sprint(*b)
}
