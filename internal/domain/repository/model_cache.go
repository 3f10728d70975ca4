// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"time"
)

// ModelCache 模型目录缓存接口
type ModelCache interface {
	// Get 读取缓存；未命中或过期返回 (nil, false)
	Get(ctx context.Context, provider string) ([]string, bool)

	// Set 写入缓存
	Set(ctx context.Context, provider string, models []string, ttl time.Duration)
}
