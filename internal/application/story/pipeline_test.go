package story

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"z-storycraft-api/internal/application/provider"
	"z-storycraft-api/internal/config"
	"z-storycraft-api/internal/domain/entity"
	"z-storycraft-api/internal/infrastructure/llm"
)

// scriptedCompleter 按操作类型返回脚本化响应
type scriptedCompleter struct {
	calls   []string
	handler func(op string, req llm.CompletionRequest) (string, error)
}

func (s *scriptedCompleter) Complete(_ context.Context, operation string, req llm.CompletionRequest) (*provider.Outcome, error) {
	s.calls = append(s.calls, operation)
	text, err := s.handler(operation, req)
	if err != nil {
		return nil, err
	}
	return &provider.Outcome{Text: text, Provider: "deepseek", Model: "deepseek-chat", Attempts: 1}, nil
}

func (s *scriptedCompleter) count(operation string) int {
	n := 0
	for _, op := range s.calls {
		if op == operation {
			n++
		}
	}
	return n
}

func newTestPipeline(completer Completer, store *memStore) *Pipeline {
	p := NewPipeline(completer, store, nil, config.PipelineConfig{
		RecentFullChapters: 1,
		SummaryChapters:    5,
		MinChapterLength:   100,
		StorylineBatchSize: 10,
		InterChapterDelay:  0,
	})
	p.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return p
}

// longChapter 带结构化标记的正常长度章节输出
func longChapter(marker string) string {
	return "<CHAPTER_CONTENT>\n" + marker + strings.Repeat("星河流转，少年握紧了手中的剑。", 20) + "\n</CHAPTER_CONTENT>"
}

func defaultHandler(total int) func(op string, req llm.CompletionRequest) (string, error) {
	return func(op string, _ llm.CompletionRequest) (string, error) {
		switch op {
		case "plot":
			return "情节候选一\n情节候选二\n情节候选三", nil
		case "title":
			return "星河彼岸", nil
		case "characters":
			return `{"characters": [{"name": "林川"}]}`, nil
		case "outline":
			return `{"outline": [{"part": "开端"}]}`, nil
		case "storyline":
			return storylineJSON(1, total), nil
		case "chapter":
			return longChapter(""), nil
		case "summary":
			return "本章讲述了少年的际遇。", nil
		default:
			return "", errors.New("unknown operation " + op)
		}
	}
}

func TestPipelineRunHappyPath(t *testing.T) {
	const total = 3
	completer := &scriptedCompleter{handler: defaultHandler(total)}
	store := newMemStore()
	p := newTestPipeline(completer, store)

	work := entity.NewWork("既有标题", "一个少年的故事", total)
	if err := p.Run(context.Background(), work, "热血"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if work.Stage != entity.StageDone {
		t.Errorf("stage = %q, want done", work.Stage)
	}
	if work.Title != "既有标题" {
		t.Errorf("pre-set title must be kept, got %q", work.Title)
	}
	if completer.count("title") != 0 {
		t.Errorf("title generation should be skipped when title is set")
	}
	if work.Plot == "" || work.Characters == "" || work.Outline == "" {
		t.Errorf("planning artifacts missing: plot=%q characters=%q outline=%q",
			work.Plot, work.Characters, work.Outline)
	}
	if len(work.Storyline) != total {
		t.Fatalf("storyline length = %d", len(work.Storyline))
	}

	// 第一章初稿+改写，其余各一次
	if got := completer.count("chapter"); got != 4 {
		t.Errorf("chapter calls = %d, want 4", got)
	}

	if store.UnitCount(context.Background(), work.ID) != total {
		t.Fatalf("unit count = %d", store.UnitCount(context.Background(), work.ID))
	}
	// 末章带完结标记，且不生成摘要
	final, _ := store.LoadUnit(context.Background(), work.ID, total-1)
	if !strings.HasSuffix(final, "（全文完）") {
		t.Errorf("final chapter missing closing marker: %q", final[len(final)-30:])
	}
	if _, ok := store.LoadSummary(context.Background(), work.ID, total-1); ok {
		t.Errorf("final chapter must not have a summary")
	}
	for i := 0; i < total-1; i++ {
		if _, ok := store.LoadSummary(context.Background(), work.ID, i); !ok {
			t.Errorf("summary %d missing", i)
		}
	}
}

func TestPipelineShortChapterRegeneratedOnce(t *testing.T) {
	const total = 2
	var chapterWrites int
	completer := &scriptedCompleter{}
	completer.handler = func(op string, req llm.CompletionRequest) (string, error) {
		if op == "chapter" {
			chapterWrites++
			switch chapterWrites {
			case 3: // 第2章第一次输出过短
				return "<CHAPTER_CONTENT>太短了。</CHAPTER_CONTENT>", nil
			case 4: // 重写结果仍短于阈值，也要被采用
				return "<CHAPTER_CONTENT>" + strings.Repeat("短", 40) + "</CHAPTER_CONTENT>", nil
			}
		}
		return defaultHandler(total)(op, req)
	}

	store := newMemStore()
	p := newTestPipeline(completer, store)
	work := entity.NewWork("标题", "提示", total)

	if err := p.Run(context.Background(), work, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 初稿+改写+第2章原写+重写
	if chapterWrites != 4 {
		t.Fatalf("chapter writes = %d, want 4", chapterWrites)
	}
	content, _ := store.LoadUnit(context.Background(), work.ID, 1)
	if !strings.Contains(content, strings.Repeat("短", 40)) {
		t.Errorf("short rewrite must be accepted as-is: %q", content)
	}
	if !strings.HasSuffix(content, "（全文完）") {
		t.Errorf("final marker missing: %q", content)
	}
}

func TestPipelineSummaryFallback(t *testing.T) {
	const total = 2
	completer := &scriptedCompleter{}
	completer.handler = func(op string, req llm.CompletionRequest) (string, error) {
		if op == "summary" {
			return "", errors.New("provider unavailable")
		}
		if op == "chapter" {
			return "<CHAPTER_CONTENT>" + strings.Repeat("一句。二句。三句。四句。", 15) + "</CHAPTER_CONTENT>", nil
		}
		return defaultHandler(total)(op, req)
	}

	store := newMemStore()
	p := newTestPipeline(completer, store)
	work := entity.NewWork("标题", "提示", total)

	if err := p.Run(context.Background(), work, ""); err != nil {
		t.Fatalf("summary failure must not abort the run: %v", err)
	}

	summary, ok := store.LoadSummary(context.Background(), work.ID, 0)
	if !ok {
		t.Fatal("fallback summary not saved")
	}
	if !strings.HasPrefix(summary, "【第1章 - 测试】\n") {
		t.Errorf("fallback summary header wrong: %q", summary)
	}
	if !strings.HasSuffix(summary, "一句。二句。三句。") {
		t.Errorf("fallback summary should keep first three sentences: %q", summary)
	}
}

func TestPipelinePlanningFailureMarksWorkFailed(t *testing.T) {
	completer := &scriptedCompleter{handler: func(op string, _ llm.CompletionRequest) (string, error) {
		return "", errors.New("quota exceeded")
	}}
	p := newTestPipeline(completer, newMemStore())
	work := entity.NewWork("标题", "提示", 3)

	err := p.Run(context.Background(), work, "")
	if err == nil {
		t.Fatal("expected error")
	}
	if work.Stage != entity.StageFailed {
		t.Errorf("stage = %q, want failed", work.Stage)
	}
	if work.ErrorMessage == "" {
		t.Errorf("error message not recorded")
	}
}

func TestPipelineCancellation(t *testing.T) {
	completer := &scriptedCompleter{handler: defaultHandler(3)}
	store := newMemStore()
	p := newTestPipeline(completer, store)
	work := entity.NewWork("标题", "提示", 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx, work, "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if work.Stage != entity.StageFailed {
		t.Errorf("stage = %q, want failed", work.Stage)
	}
}
