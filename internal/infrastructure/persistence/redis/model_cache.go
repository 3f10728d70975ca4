package redis

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"z-storycraft-api/internal/domain/repository"
	"z-storycraft-api/pkg/logger"
)

// ModelCache 模型目录的 Redis 缓存
// 缓存失效只影响是否重新拉取，读写错误一律按未命中处理。
type ModelCache struct {
	client *Client
}

var _ repository.ModelCache = (*ModelCache)(nil)

// NewModelCache 创建模型目录缓存
func NewModelCache(client *Client) *ModelCache {
	return &ModelCache{client: client}
}

func cacheKey(provider string) string {
	return "models:" + provider
}

// Get 读取缓存；未命中或过期返回 (nil, false)
func (c *ModelCache) Get(ctx context.Context, provider string) ([]string, bool) {
	ctx, span := tracer.Start(ctx, "modelcache.Get",
		trace.WithAttributes(attribute.String("cache.provider", provider)))
	defer span.End()

	raw, err := c.client.rdb.Get(ctx, cacheKey(provider)).Bytes()
	if err != nil {
		span.SetAttributes(attribute.Bool("cache.hit", false))
		if !IsNil(err) {
			span.RecordError(err)
		}
		return nil, false
	}

	var models []string
	if err := json.Unmarshal(raw, &models); err != nil {
		span.RecordError(err)
		return nil, false
	}

	span.SetAttributes(attribute.Bool("cache.hit", true))
	return models, true
}

// Set 写入缓存；写失败只记日志，不影响调用方
func (c *ModelCache) Set(ctx context.Context, provider string, models []string, ttl time.Duration) {
	ctx, span := tracer.Start(ctx, "modelcache.Set",
		trace.WithAttributes(
			attribute.String("cache.provider", provider),
			attribute.Int64("cache.ttl_ms", ttl.Milliseconds()),
		))
	defer span.End()

	raw, err := json.Marshal(models)
	if err != nil {
		span.RecordError(err)
		return
	}
	if err := c.client.rdb.Set(ctx, cacheKey(provider), raw, ttl).Err(); err != nil {
		span.RecordError(err)
		logger.Warn(ctx, "model cache write failed", "provider", provider, "error", err)
	}
}
