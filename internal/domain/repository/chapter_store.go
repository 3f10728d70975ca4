// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"z-storycraft-api/internal/domain/entity"
)

// ChapterStore 章节存储接口
// 读取操作不返回错误：缺失或无法解码的内容按 ("", false) 处理，
// 以便上层上下文构建在部分数据缺失时继续工作。
type ChapterStore interface {
	// SaveUnit 保存章节正文
	SaveUnit(ctx context.Context, workID string, index int, title, content string) error

	// LoadUnit 读取章节正文；不存在或不可读时返回 ("", false)
	LoadUnit(ctx context.Context, workID string, index int) (string, bool)

	// SaveSummary 保存章节摘要
	SaveSummary(ctx context.Context, workID string, index int, summary string) error

	// LoadSummary 读取章节摘要；不存在或不可读时返回 ("", false)
	LoadSummary(ctx context.Context, workID string, index int) (string, bool)

	// UnitTitle 读取章节标题（来自正文文件名）
	UnitTitle(ctx context.Context, workID string, index int) (string, bool)

	// UnitCount 已落盘的章节数
	UnitCount(ctx context.Context, workID string) int

	// ListUnits 按序返回全部已落盘章节
	ListUnits(ctx context.Context, workID string) []*entity.Chapter
}
