// Package memory 提供进程内缓存实现，未配置 Redis 时使用
package memory

import (
	"context"
	"sync"
	"time"

	"z-storycraft-api/internal/domain/repository"
)

type cacheEntry struct {
	models    []string
	expiresAt time.Time
}

// ModelCache 进程内模型目录缓存
type ModelCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

var _ repository.ModelCache = (*ModelCache)(nil)

// NewModelCache 创建进程内缓存
func NewModelCache() *ModelCache {
	return &ModelCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get 读取缓存；未命中或过期返回 (nil, false)
func (c *ModelCache) Get(ctx context.Context, provider string) ([]string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[provider]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return append([]string(nil), entry.models...), true
}

// Set 写入缓存
func (c *ModelCache) Set(ctx context.Context, provider string, models []string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[provider] = cacheEntry{
		models:    append([]string(nil), models...),
		expiresAt: c.now().Add(ttl),
	}
}
