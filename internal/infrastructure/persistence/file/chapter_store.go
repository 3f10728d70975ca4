// Package file 提供基于平面文件的持久化实现
// 章节、提供商配置、监控记录都落在独立可读的文件上，
// 便于导出工具和 UI 直接消费。
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"

	"z-storycraft-api/internal/domain/entity"
	"z-storycraft-api/internal/domain/repository"
	"z-storycraft-api/pkg/logger"
)

const summaryFileName = "summary.txt"

// ChapterStore 章节文件存储
// 目录布局：<root>/<workID>/chapter_<index+1>/<title>.txt + summary.txt
type ChapterStore struct {
	root string
}

var _ repository.ChapterStore = (*ChapterStore)(nil)

// NewChapterStore 创建章节存储
func NewChapterStore(root string) *ChapterStore {
	return &ChapterStore{root: root}
}

// SaveUnit 保存章节正文
// 同一章节目录内的旧正文文件会被清掉，标题变更不留残骸。
func (s *ChapterStore) SaveUnit(ctx context.Context, workID string, index int, title, content string) error {
	dir := s.chapterDir(workID, index)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create chapter dir: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, e := range entries {
			if e.IsDir() || e.Name() == summaryFileName {
				continue
			}
			if strings.HasSuffix(e.Name(), ".txt") {
				os.Remove(filepath.Join(dir, e.Name()))
			}
		}
	}

	name := SanitizeFilename(title) + ".txt"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write chapter content: %w", err)
	}
	return nil
}

// LoadUnit 读取章节正文；不存在或不可读时返回 ("", false)
func (s *ChapterStore) LoadUnit(ctx context.Context, workID string, index int) (string, bool) {
	path, ok := s.unitPath(workID, index)
	if !ok {
		return "", false
	}
	return s.readText(ctx, path)
}

// SaveSummary 保存章节摘要
func (s *ChapterStore) SaveSummary(ctx context.Context, workID string, index int, summary string) error {
	dir := s.chapterDir(workID, index)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create chapter dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, summaryFileName), []byte(summary), 0o644); err != nil {
		return fmt.Errorf("write chapter summary: %w", err)
	}
	return nil
}

// LoadSummary 读取章节摘要；不存在或不可读时返回 ("", false)
func (s *ChapterStore) LoadSummary(ctx context.Context, workID string, index int) (string, bool) {
	return s.readText(ctx, filepath.Join(s.chapterDir(workID, index), summaryFileName))
}

// UnitTitle 从正文文件名恢复章节标题
func (s *ChapterStore) UnitTitle(ctx context.Context, workID string, index int) (string, bool) {
	path, ok := s.unitPath(workID, index)
	if !ok {
		return "", false
	}
	return strings.TrimSuffix(filepath.Base(path), ".txt"), true
}

// UnitCount 已落盘的章节数（从 1 连续计数）
func (s *ChapterStore) UnitCount(ctx context.Context, workID string) int {
	count := 0
	for {
		if _, ok := s.unitPath(workID, count); !ok {
			return count
		}
		count++
	}
}

// ListUnits 按序返回全部已落盘章节
func (s *ChapterStore) ListUnits(ctx context.Context, workID string) []*entity.Chapter {
	var chapters []*entity.Chapter
	for i := 0; ; i++ {
		content, ok := s.LoadUnit(ctx, workID, i)
		if !ok {
			break
		}
		title, _ := s.UnitTitle(ctx, workID, i)
		ch := entity.NewChapter(workID, i, title)
		ch.SetContent(content)
		if summary, ok := s.LoadSummary(ctx, workID, i); ok {
			ch.Summary = summary
		}
		chapters = append(chapters, ch)
	}
	return chapters
}

func (s *ChapterStore) chapterDir(workID string, index int) string {
	return filepath.Join(s.root, workID, fmt.Sprintf("chapter_%d", index+1))
}

// unitPath 定位章节正文文件（目录中除 summary.txt 外的 .txt）
func (s *ChapterStore) unitPath(workID string, index int) (string, bool) {
	dir := s.chapterDir(workID, index)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.IsDir() || e.Name() == summaryFileName || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		return filepath.Join(dir, e.Name()), true
	}
	return "", false
}

// readText 读取文本文件，按 UTF-8 → GBK → Latin-1 依次尝试解码
// 全部失败时返回 ("", false)，调用方按内容缺失处理。
func (s *ChapterStore) readText(ctx context.Context, path string) (string, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	if utf8.Valid(raw) {
		return string(raw), true
	}
	if decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(raw); err == nil {
		return string(decoded), true
	}
	if decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw); err == nil {
		return string(decoded), true
	}
	logger.Warn(ctx, "chapter file undecodable, treating as missing", "path", path)
	return "", false
}

var (
	unsafeRunes   = regexp.MustCompile(`["“”‘’《》【】\[\]<>]`)
	invalidRunes  = regexp.MustCompile(`[\\/:*?"<>|]`)
	collapseSpace = regexp.MustCompile(`\s+`)
)

// SanitizeFilename 清理文件名，移除不安全字符
func SanitizeFilename(name string) string {
	if name == "" {
		return "未命名小说"
	}
	name = unsafeRunes.ReplaceAllString(name, "")
	name = invalidRunes.ReplaceAllString(name, "_")
	name = strings.TrimSpace(collapseSpace.ReplaceAllString(name, " "))

	runes := []rune(name)
	if len(runes) > 50 {
		name = strings.TrimSpace(string(runes[:50]))
	}
	if name == "" {
		return "未命名小说"
	}
	return name
}
