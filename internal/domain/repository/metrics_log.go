// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"z-storycraft-api/internal/domain/entity"
)

// MetricsLog 调用监控记录的持久化接口
type MetricsLog interface {
	// Append 追加一条记录；实现负责裁剪到保留上限
	Append(ctx context.Context, metric entity.CallMetric) error

	// List 按时间顺序返回全部记录
	List(ctx context.Context) ([]entity.CallMetric, error)
}
