package story

import (
	"context"
	"fmt"
	"strings"

	"z-storycraft-api/internal/domain/repository"
	"z-storycraft-api/pkg/logger"
)

// Optimizer 写作上下文构建器
// 近期章节带全文，较早章节只带摘要，控制提示词体积。
type Optimizer struct {
	store        repository.ChapterStore
	recentFull   int
	summaryCount int
}

// NewOptimizer 创建上下文构建器
// recentFull 保留全文的最近章节数，summaryCount 保留摘要的较早章节数。
func NewOptimizer(store repository.ChapterStore, recentFull, summaryCount int) *Optimizer {
	if recentFull <= 0 {
		recentFull = 1
	}
	if summaryCount <= 0 {
		summaryCount = 5
	}
	return &Optimizer{store: store, recentFull: recentFull, summaryCount: summaryCount}
}

// BuildContext 为第 targetIndex 章（0 起）构建前情上下文。
// targetIndex 不超过 recentFull 时全部用全文；否则较早的
// summaryCount 章用摘要、最近 recentFull 章用全文。摘要缺失时
// 降级为该章全文的前两句。没有任何可用内容时返回固定开场。
func (o *Optimizer) BuildContext(ctx context.Context, workID string, targetIndex int) string {
	var parts []string

	if targetIndex <= o.recentFull {
		for i := 0; i < targetIndex; i++ {
			if content, ok := o.store.LoadUnit(ctx, workID, i); ok && content != "" {
				parts = append(parts, fmt.Sprintf("第%d章:\n%s", i+1, content))
			}
		}
	} else {
		start := targetIndex - (o.summaryCount + o.recentFull)
		if start < 0 {
			start = 0
		}
		summaryEnd := targetIndex - o.recentFull
		if summaryEnd < 0 {
			summaryEnd = 0
		}

		for i := start; i < summaryEnd; i++ {
			if summary, ok := o.store.LoadSummary(ctx, workID, i); ok && summary != "" {
				parts = append(parts, fmt.Sprintf("第%d章摘要:\n%s", i+1, summary))
				continue
			}
			if content, ok := o.store.LoadUnit(ctx, workID, i); ok && content != "" {
				logger.Warn(ctx, "chapter summary missing, degrading to leading sentences",
					"work_id", workID, "index", i)
				parts = append(parts, fmt.Sprintf("第%d章摘要:\n%s", i+1, leadingSentences(content, 2)))
			}
		}
		for i := summaryEnd; i < targetIndex; i++ {
			if content, ok := o.store.LoadUnit(ctx, workID, i); ok && content != "" {
				parts = append(parts, fmt.Sprintf("第%d章:\n%s", i+1, content))
			}
		}
	}

	if len(parts) == 0 {
		return "故事开始..."
	}
	return strings.Join(parts, "\n\n")
}
