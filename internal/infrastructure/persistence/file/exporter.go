package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"z-storycraft-api/internal/domain/entity"
	"z-storycraft-api/internal/domain/repository"
)

// TextExporter 纯文本文档导出器
type TextExporter struct {
	dir string
}

var _ repository.DocumentExporter = (*TextExporter)(nil)

// NewTextExporter 创建导出器
func NewTextExporter(dir string) *TextExporter {
	return &TextExporter{dir: dir}
}

// Export 将有序章节组装为单个文本文档
func (e *TextExporter) Export(ctx context.Context, title, author string, chapters []*entity.Chapter) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("《%s》\n", title))
	if author != "" {
		sb.WriteString(fmt.Sprintf("作者：%s\n", author))
	}
	sb.WriteString("\n")

	for _, ch := range chapters {
		sb.WriteString(fmt.Sprintf("第%d章 %s\n\n", ch.Index+1, ch.Title))
		sb.WriteString(ch.Content)
		sb.WriteString("\n\n")
	}

	path := filepath.Join(e.dir, SanitizeFilename(title)+".txt")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}
