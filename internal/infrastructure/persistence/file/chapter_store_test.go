package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestChapterStoreRoundTrip(t *testing.T) {
	store := NewChapterStore(t.TempDir())
	ctx := context.Background()

	if err := store.SaveUnit(ctx, "work-1", 0, "初入江湖", "少年背起行囊，离开了村庄。"); err != nil {
		t.Fatalf("SaveUnit: %v", err)
	}
	if err := store.SaveSummary(ctx, "work-1", 0, "少年离村。"); err != nil {
		t.Fatalf("SaveSummary: %v", err)
	}

	content, ok := store.LoadUnit(ctx, "work-1", 0)
	if !ok || content != "少年背起行囊，离开了村庄。" {
		t.Errorf("LoadUnit = %q, %v", content, ok)
	}
	summary, ok := store.LoadSummary(ctx, "work-1", 0)
	if !ok || summary != "少年离村。" {
		t.Errorf("LoadSummary = %q, %v", summary, ok)
	}
	title, ok := store.UnitTitle(ctx, "work-1", 0)
	if !ok || title != "初入江湖" {
		t.Errorf("UnitTitle = %q, %v", title, ok)
	}
}

func TestChapterStoreMissingUnit(t *testing.T) {
	store := NewChapterStore(t.TempDir())
	ctx := context.Background()

	if content, ok := store.LoadUnit(ctx, "nope", 3); ok || content != "" {
		t.Errorf("expected empty miss, got %q, %v", content, ok)
	}
	if summary, ok := store.LoadSummary(ctx, "nope", 3); ok || summary != "" {
		t.Errorf("expected empty miss, got %q, %v", summary, ok)
	}
	if n := store.UnitCount(ctx, "nope"); n != 0 {
		t.Errorf("UnitCount = %d, want 0", n)
	}
}

func TestChapterStoreDirectoryLayout(t *testing.T) {
	root := t.TempDir()
	store := NewChapterStore(root)
	ctx := context.Background()

	if err := store.SaveUnit(ctx, "w", 0, "开端", "内容"); err != nil {
		t.Fatalf("SaveUnit: %v", err)
	}

	// 下标 0 的章节落在 chapter_1 目录
	path := filepath.Join(root, "w", "chapter_1", "开端.txt")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file at %s: %v", path, err)
	}
}

func TestChapterStoreTitleRewrite(t *testing.T) {
	store := NewChapterStore(t.TempDir())
	ctx := context.Background()

	if err := store.SaveUnit(ctx, "w", 0, "旧标题", "v1"); err != nil {
		t.Fatalf("SaveUnit: %v", err)
	}
	if err := store.SaveUnit(ctx, "w", 0, "新标题", "v2"); err != nil {
		t.Fatalf("SaveUnit: %v", err)
	}

	title, _ := store.UnitTitle(ctx, "w", 0)
	if title != "新标题" {
		t.Errorf("title = %q, want 新标题", title)
	}
	content, _ := store.LoadUnit(ctx, "w", 0)
	if content != "v2" {
		t.Errorf("content = %q, want v2", content)
	}
}

func TestChapterStoreGBKFallback(t *testing.T) {
	root := t.TempDir()
	store := NewChapterStore(root)
	ctx := context.Background()

	dir := filepath.Join(root, "w", "chapter_1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	gbk, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("历史遗留的章节内容"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "老章节.txt"), gbk, 0o644); err != nil {
		t.Fatal(err)
	}

	content, ok := store.LoadUnit(ctx, "w", 0)
	if !ok || content != "历史遗留的章节内容" {
		t.Errorf("LoadUnit = %q, %v", content, ok)
	}
}

func TestChapterStoreUnitCountStopsAtGap(t *testing.T) {
	store := NewChapterStore(t.TempDir())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.SaveUnit(ctx, "w", i, fmt.Sprintf("第%d章", i+1), "内容"); err != nil {
			t.Fatal(err)
		}
	}
	// 留出空洞
	if err := store.SaveUnit(ctx, "w", 5, "第6章", "内容"); err != nil {
		t.Fatal(err)
	}

	if n := store.UnitCount(ctx, "w"); n != 3 {
		t.Errorf("UnitCount = %d, want 3 (stops at first gap)", n)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "未命名小说"},
		{"《星际远航》", "星际远航"},
		{"时间/空间:裂缝?", "时间_空间_裂缝_"},
		{"  多   个   空格  ", "多 个 空格"},
	}
	for _, tc := range cases {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
