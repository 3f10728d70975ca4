// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"z-storycraft-api/internal/domain/entity"
)

// ProviderRegistry 提供商运行期配置的持久化接口
type ProviderRegistry interface {
	// Load 读取持久化状态；文件不存在时返回 (nil, nil)
	Load(ctx context.Context) (*entity.ProviderState, error)

	// Save 整体持久化状态
	Save(ctx context.Context, state *entity.ProviderState) error
}
