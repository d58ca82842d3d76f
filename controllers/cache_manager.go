package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/inkfinity/backend/models"
	awspkg "github.com/inkfinity/backend/pkg/aws"
	"go.uber.org/zap"
)

const (
	CatalogCachePrefix = "catalog:v:"
	CacheVersionKey    = "catalog:version"
	SettingsCacheKey   = "settings:company"
)

// CacheManager caches public catalog responses in Redis. Every catalog key
// embeds a version number; bumping the version invalidates all of them at
// once. A nil manager, or one without a client, never hits.
type CacheManager struct {
	redis   *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
	metrics *awspkg.MetricsClient
}

func NewCacheManager(client *redis.Client, logger *zap.Logger, metrics *awspkg.MetricsClient) *CacheManager {
	return &CacheManager{redis: client, ttl: DefaultCacheTTL, logger: logger, metrics: metrics}
}

func (cm *CacheManager) enabled() bool {
	return cm != nil && cm.redis != nil
}

// GetCatalog loads the versioned entry for key into dst. The returned version
// is the one the lookup ran against; pass it to SetCatalogAsync so a value
// read before an invalidation is never stored under the newer version. Zero
// means the cache is unavailable.
func (cm *CacheManager) GetCatalog(ctx context.Context, key string, dst interface{}) (int64, bool) {
	if !cm.enabled() {
		return 0, false
	}
	version, err := cm.getCacheVersion(ctx)
	if err != nil {
		return 0, false
	}
	return version, cm.get(ctx, catalogKey(version, key), dst)
}

// SetCatalogAsync stores v under version without blocking the response.
func (cm *CacheManager) SetCatalogAsync(version int64, key string, v interface{}) {
	if !cm.enabled() || version <= 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		cm.set(ctx, catalogKey(version, key), v)
	}()
}

// InvalidateProducts bumps the catalog version.
func (cm *CacheManager) InvalidateProducts(ctx context.Context) {
	if !cm.enabled() {
		return
	}
	newVersion, err := cm.redis.Incr(ctx, CacheVersionKey).Result()
	if err != nil {
		cm.logger.Error("failed to invalidate catalog cache", zap.Error(err))
		return
	}
	cm.logger.Debug("catalog cache invalidated", zap.Int64("new_version", newVersion))
}

func (cm *CacheManager) GetSettings(ctx context.Context) (*models.CompanySettings, bool) {
	if !cm.enabled() {
		return nil, false
	}
	var s models.CompanySettings
	if !cm.get(ctx, SettingsCacheKey, &s) {
		return nil, false
	}
	return &s, true
}

func (cm *CacheManager) SetSettingsAsync(s *models.CompanySettings) {
	if !cm.enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		cm.set(ctx, SettingsCacheKey, s)
	}()
}

func (cm *CacheManager) InvalidateSettings(ctx context.Context) {
	if !cm.enabled() {
		return
	}
	if err := cm.redis.Del(ctx, SettingsCacheKey).Err(); err != nil {
		cm.logger.Warn("failed to delete settings cache", zap.Error(err))
	}
}

func (cm *CacheManager) get(ctx context.Context, key string, dst interface{}) bool {
	raw, err := cm.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cm.logger.Debug("cache read failed", zap.String("key", key), zap.Error(err))
		}
		cm.record(awspkg.MetricCacheMisses)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		cm.logger.Warn("failed to unmarshal cached value", zap.String("key", key), zap.Error(err))
		cm.record(awspkg.MetricCacheMisses)
		return false
	}
	cm.record(awspkg.MetricCacheHits)
	return true
}

func (cm *CacheManager) set(ctx context.Context, key string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		cm.logger.Warn("failed to marshal value for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := cm.redis.Set(ctx, key, b, cm.ttl).Err(); err != nil {
		cm.logger.Warn("failed to write cache", zap.String("key", key), zap.Error(err))
	}
}

func (cm *CacheManager) record(metric string) {
	if !cm.metrics.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = cm.metrics.RecordCount(ctx, metric, map[string]string{"Cache": "catalog"})
	}()
}

// getCacheVersion reads the version, creating it on first use.
func (cm *CacheManager) getCacheVersion(ctx context.Context) (int64, error) {
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		ver, err := cm.redis.Get(ctx, CacheVersionKey).Int64()
		if err == nil && ver > 0 {
			return ver, nil
		}
		if errors.Is(err, redis.Nil) {
			if ok, setErr := cm.redis.SetNX(ctx, CacheVersionKey, 1, 0).Result(); setErr == nil && ok {
				return 1, nil
			}
			continue
		}
		if ctx.Err() != nil {
			break
		}
		if i < maxRetries-1 {
			time.Sleep(50 * time.Millisecond)
		}
	}
	return 0, fmt.Errorf("failed to get cache version after %d retries", maxRetries)
}

func catalogKey(version int64, key string) string {
	return fmt.Sprintf("%s%d:%s", CatalogCachePrefix, version, key)
}

func productListKey(f models.ProductFilter) string {
	cat := ""
	if f.CategoryID != nil {
		cat = f.CategoryID.String()
	}
	return fmt.Sprintf("products:p:%d:l:%d:c:%s:s:%s", f.Page, f.PerPage, cat, f.Search)
}

func productKey(id uuid.UUID) string { return "product:" + id.String() }

const (
	trendingListKey = "products:trending"
	categoryListKey = "categories"
)
