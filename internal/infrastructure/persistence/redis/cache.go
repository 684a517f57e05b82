package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"leadgen-api/pkg/logger"
	"leadgen-api/pkg/metrics"
)

var cacheTracer = otel.Tracer("redis.cache")

// Cache 缓存服务，值以 JSON 存储
type Cache struct {
	client *Client
	group  singleflight.Group
}

// NewCache 创建缓存服务
func NewCache(client *Client) *Cache {
	return &Cache{
		client: client,
	}
}

// Get 获取缓存值，未命中时返回 redis.Nil
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.Get",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	val, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if IsNil(err) {
			observeLookup(span, key, false)
			return nil, err
		}
		span.RecordError(err)
		return nil, err
	}

	observeLookup(span, key, true)
	return val, nil
}

// Set 设置缓存值
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	ctx, span := cacheTracer.Start(ctx, "cache.Set",
		trace.WithAttributes(
			attribute.String("cache.key", key),
			attribute.Int64("cache.ttl_ms", ttl.Milliseconds()),
		))
	defer span.End()

	bytes, err := json.Marshal(value)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.client.rdb.Set(ctx, key, bytes, ttl).Err()
}

// GetOrLoadSafe Read-Through 缓存，使用 singleflight 防止缓存击穿
func (c *Cache) GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.GetOrLoadSafe",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	val, err := c.client.rdb.Get(ctx, key).Bytes()
	if err == nil {
		observeLookup(span, key, true)
		return val, nil
	}
	if !IsNil(err) {
		// Redis 不可用时降级为直接加载
		span.RecordError(err)
		logger.Warn(ctx, "cache read failed, loading directly", "key", key, "error", err.Error())
		data, err := loader()
		if err != nil {
			return nil, err
		}
		return json.Marshal(data)
	}

	observeLookup(span, key, false)

	result, err, shared := c.group.Do(key, func() (interface{}, error) {
		// 再次检查缓存（可能已被其他请求填充）
		if val, err := c.client.rdb.Get(ctx, key).Bytes(); err == nil {
			return val, nil
		}

		data, err := loader()
		if err != nil {
			return nil, err
		}

		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data: %w", err)
		}

		if err := c.client.rdb.Set(ctx, key, bytes, ttl).Err(); err != nil {
			logger.Warn(ctx, "cache write failed", "key", key, "error", err.Error())
		}
		return bytes, nil
	})

	span.SetAttributes(attribute.Bool("cache.shared", shared))

	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return result.([]byte), nil
}

// Load 带类型的 Read-Through 读取
func Load[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, loader func() (T, error)) (T, error) {
	var out T
	raw, err := c.GetOrLoadSafe(ctx, key, ttl, func() (interface{}, error) {
		return loader()
	})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}
	return out, nil
}

// Delete 删除缓存
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	ctx, span := cacheTracer.Start(ctx, "cache.Delete",
		trace.WithAttributes(attribute.Int("cache.key_count", len(keys))))
	defer span.End()

	return c.client.rdb.Del(ctx, keys...).Err()
}

// InvalidatePattern 按模式使缓存失效
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) error {
	ctx, span := cacheTracer.Start(ctx, "cache.InvalidatePattern",
		trace.WithAttributes(attribute.String("cache.pattern", pattern)))
	defer span.End()

	iter := c.client.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		span.RecordError(err)
		return err
	}

	if len(keys) > 0 {
		span.SetAttributes(attribute.Int("cache.invalidated_count", len(keys)))
		return c.client.rdb.Del(ctx, keys...).Err()
	}

	return nil
}

// InvalidateSearch 使用户某次搜索的回放缓存失效
func (c *Cache) InvalidateSearch(ctx context.Context, userID string, searchIDs ...string) error {
	keys := make([]string, 0, len(searchIDs))
	for _, id := range searchIDs {
		keys = append(keys, SearchReplayKey(userID, id))
	}
	if len(keys) == 0 {
		return nil
	}
	return c.Delete(ctx, keys...)
}

// InvalidateUser 清除用户相关的全部线索缓存
func (c *Cache) InvalidateUser(ctx context.Context, userID string) error {
	for _, pattern := range userKeyPatterns(userID) {
		if err := c.InvalidatePattern(ctx, pattern); err != nil {
			return err
		}
	}
	return nil
}

func userKeyPatterns(userID string) []string {
	return []string{
		CompanyInfoKey(userID, "*"),
		EmployeesKey(userID, "*"),
		SearchReplayKey(userID, "*"),
	}
}

// CompanyInfoKey 公司详情缓存键
func CompanyInfoKey(userID, companyID string) string {
	return fmt.Sprintf("company:info:%s:%s", userID, companyID)
}

// EmployeesKey 公司员工缓存键
func EmployeesKey(userID, companyID string) string {
	return fmt.Sprintf("company:employees:%s:%s", userID, companyID)
}

// SearchReplayKey 搜索回放缓存键
func SearchReplayKey(userID, searchID string) string {
	return fmt.Sprintf("search:replay:%s:%s", userID, searchID)
}

// SitePreviewKey 网站预览缓存键
func SitePreviewKey(url string) string {
	return "site:preview:" + url
}

// cacheName 取键的前两段作为指标标签
func cacheName(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 {
		return key
	}
	return parts[0] + ":" + parts[1]
}

func observeLookup(span trace.Span, key string, hit bool) {
	span.SetAttributes(attribute.Bool("cache.hit", hit))
	result := "miss"
	if hit {
		result = "hit"
	}
	metrics.CacheLookups.WithLabelValues(cacheName(key), result).Inc()
}
