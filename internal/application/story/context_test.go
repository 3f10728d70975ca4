package story

import (
	"context"
	"sort"
	"strings"
	"testing"

	"z-storycraft-api/internal/domain/entity"
)

// memStore 测试用内存章节存储
type memStore struct {
	units     map[int]string
	titles    map[int]string
	summaries map[int]string
}

func newMemStore() *memStore {
	return &memStore{
		units:     make(map[int]string),
		titles:    make(map[int]string),
		summaries: make(map[int]string),
	}
}

func (s *memStore) SaveUnit(_ context.Context, _ string, index int, title, content string) error {
	s.units[index] = content
	s.titles[index] = title
	return nil
}

func (s *memStore) LoadUnit(_ context.Context, _ string, index int) (string, bool) {
	content, ok := s.units[index]
	return content, ok
}

func (s *memStore) SaveSummary(_ context.Context, _ string, index int, summary string) error {
	s.summaries[index] = summary
	return nil
}

func (s *memStore) LoadSummary(_ context.Context, _ string, index int) (string, bool) {
	summary, ok := s.summaries[index]
	return summary, ok
}

func (s *memStore) UnitTitle(_ context.Context, _ string, index int) (string, bool) {
	title, ok := s.titles[index]
	return title, ok
}

func (s *memStore) UnitCount(_ context.Context, _ string) int {
	count := 0
	for {
		if _, ok := s.units[count]; !ok {
			return count
		}
		count++
	}
}

func (s *memStore) ListUnits(_ context.Context, workID string) []*entity.Chapter {
	indexes := make([]int, 0, len(s.units))
	for i := range s.units {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	chapters := make([]*entity.Chapter, 0, len(indexes))
	for _, i := range indexes {
		ch := entity.NewChapter(workID, i, s.titles[i])
		ch.SetContent(s.units[i])
		chapters = append(chapters, ch)
	}
	return chapters
}

func TestBuildContextEmptyStore(t *testing.T) {
	opt := NewOptimizer(newMemStore(), 1, 5)

	got := opt.BuildContext(context.Background(), "w1", 0)
	if got != "故事开始..." {
		t.Fatalf("expected default opening, got %q", got)
	}
}

func TestBuildContextFullTextMode(t *testing.T) {
	store := newMemStore()
	store.units[0] = "第一章正文。"
	opt := NewOptimizer(store, 1, 5)

	// targetIndex == recentFull 走全文模式
	got := opt.BuildContext(context.Background(), "w1", 1)
	want := "第1章:\n第一章正文。"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBuildContextSummariesPlusRecent(t *testing.T) {
	store := newMemStore()
	store.units[0] = "第一章正文。"
	store.units[1] = "第二章正文。"
	store.units[2] = "第三章正文。"
	store.summaries[0] = "第一章摘要内容"
	store.summaries[1] = "第二章摘要内容"
	opt := NewOptimizer(store, 1, 5)

	got := opt.BuildContext(context.Background(), "w1", 3)

	blocks := strings.Split(got, "\n\n")
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d: %q", len(blocks), got)
	}
	if blocks[0] != "第1章摘要:\n第一章摘要内容" {
		t.Errorf("block 0 = %q", blocks[0])
	}
	if blocks[1] != "第2章摘要:\n第二章摘要内容" {
		t.Errorf("block 1 = %q", blocks[1])
	}
	if blocks[2] != "第3章:\n第三章正文。" {
		t.Errorf("block 2 = %q", blocks[2])
	}
}

func TestBuildContextMissingSummaryDegrades(t *testing.T) {
	store := newMemStore()
	store.units[0] = "甲。乙。丙。丁。"
	store.units[1] = "第二章正文。"
	opt := NewOptimizer(store, 1, 5)

	got := opt.BuildContext(context.Background(), "w1", 2)

	if !strings.Contains(got, "第1章摘要:\n甲。乙。") {
		t.Errorf("expected degraded two-sentence summary, got %q", got)
	}
	if strings.Contains(got, "丙") {
		t.Errorf("degraded summary kept more than two sentences: %q", got)
	}
}

func TestBuildContextWindowExcludesOldChapters(t *testing.T) {
	store := newMemStore()
	for i := 0; i < 5; i++ {
		store.units[i] = strings.Repeat("正文。", i+1)
		store.summaries[i] = "摘要内容"
	}
	opt := NewOptimizer(store, 1, 2)

	got := opt.BuildContext(context.Background(), "w1", 5)

	// 窗口 [2,5)：第3、4章摘要 + 第5章全文
	if !strings.Contains(got, "第3章摘要:") || !strings.Contains(got, "第4章摘要:") {
		t.Errorf("missing expected summary blocks: %q", got)
	}
	if !strings.Contains(got, "第5章:\n") {
		t.Errorf("missing recent full text block: %q", got)
	}
	if strings.Contains(got, "第1章摘要:") || strings.Contains(got, "第2章摘要:") {
		t.Errorf("chapters outside window leaked in: %q", got)
	}
}
