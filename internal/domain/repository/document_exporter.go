// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"z-storycraft-api/internal/domain/entity"
)

// DocumentExporter 成品文档导出接口
type DocumentExporter interface {
	// Export 将有序章节组装为单个文档，返回输出路径
	Export(ctx context.Context, title, author string, chapters []*entity.Chapter) (string, error)
}
