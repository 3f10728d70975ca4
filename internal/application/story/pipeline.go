// Package story 实现小说生成流水线
// 规划（情节、人物、大纲）、故事线、逐章写作与摘要，
// 所有模型调用经由监控过的补全入口。
package story

import (
	"context"
	"fmt"
	"strings"
	"time"

	"z-storycraft-api/internal/application/provider"
	"z-storycraft-api/internal/config"
	"z-storycraft-api/internal/domain/entity"
	"z-storycraft-api/internal/domain/repository"
	"z-storycraft-api/internal/infrastructure/llm"
	"z-storycraft-api/internal/infrastructure/persistence/file"
	"z-storycraft-api/pkg/logger"
	"z-storycraft-api/pkg/metrics"
	"z-storycraft-api/pkg/tracer"
)

// Completer 流水线使用的补全入口，由监控器实现
type Completer interface {
	Complete(ctx context.Context, operation string, req llm.CompletionRequest) (*provider.Outcome, error)
}

// Pipeline 小说生成流水线
type Pipeline struct {
	completer Completer
	store     repository.ChapterStore
	exporter  repository.DocumentExporter
	optimizer *Optimizer
	cfg       config.PipelineConfig

	// 注入以便测试缩短节流等待
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewPipeline 创建生成流水线
func NewPipeline(completer Completer, store repository.ChapterStore, exporter repository.DocumentExporter, cfg config.PipelineConfig) *Pipeline {
	if cfg.MinChapterLength <= 0 {
		cfg.MinChapterLength = 100
	}
	return &Pipeline{
		completer: completer,
		store:     store,
		exporter:  exporter,
		optimizer: NewOptimizer(store, cfg.RecentFullChapters, cfg.SummaryChapters),
		cfg:       cfg,
		sleep:     sleepCtx,
		now:       time.Now,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run 执行完整生成流程，work 就地更新阶段与产物。
// 任一阶段失败即终止并把 work 置为失败态；阶段之间响应
// ctx 取消。
func (p *Pipeline) Run(ctx context.Context, work *entity.Work, writingStyle string) error {
	ctx = logger.WithContext(ctx, logger.WorkIDKey, work.ID)
	ctx, span := tracer.Start(ctx, "pipeline.run")
	defer span.End()

	start := p.now()
	err := p.run(ctx, work, strings.TrimSpace(writingStyle))
	duration := p.now().Sub(start)

	if err != nil {
		span.RecordError(err)
		work.Fail(err.Error())
		metrics.WorkGenerationTotal.WithLabelValues("failed").Inc()
		metrics.WorkGenerationDuration.WithLabelValues("failed").Observe(duration.Seconds())
		logger.Error(ctx, "work generation failed", err, "stage", string(work.Stage))
		return err
	}

	work.Advance(entity.StageDone)
	metrics.WorkGenerationTotal.WithLabelValues("success").Inc()
	metrics.WorkGenerationDuration.WithLabelValues("success").Observe(duration.Seconds())
	logger.Info(ctx, "work generation finished",
		"title", work.Title, "chapters", work.TotalChapters, "duration", duration.String())
	return nil
}

func (p *Pipeline) run(ctx context.Context, work *entity.Work, style string) error {
	if err := p.plan(ctx, work); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	work.Advance(entity.StageOutlining)
	storyline, err := p.generateStoryline(ctx, work)
	if err != nil {
		return err
	}
	work.Storyline = storyline

	if err := ctx.Err(); err != nil {
		return err
	}
	work.Advance(entity.StageWriting)
	if err := p.writeChapters(ctx, work, style); err != nil {
		return err
	}

	return p.export(ctx, work)
}

// plan 规划阶段：情节候选、选优、改进、标题、人物、大纲
func (p *Pipeline) plan(ctx context.Context, work *entity.Work) error {
	ctx, span := tracer.Start(ctx, "pipeline.plan")
	defer span.End()

	out, err := p.complete(ctx, "plot", plotIdeasMessages(work.Premise))
	if err != nil {
		return fmt.Errorf("generate plot candidates: %w", err)
	}
	candidates := nonEmptyLines(CleanResponse(out.Text))
	logger.Info(ctx, "plot candidates generated", "count", len(candidates))

	out, err = p.complete(ctx, "plot", selectPlotMessages(candidates))
	if err != nil {
		return fmt.Errorf("select plot: %w", err)
	}
	best := CleanResponse(out.Text)

	out, err = p.complete(ctx, "plot", improvePlotMessages(best))
	if err != nil {
		return fmt.Errorf("improve plot: %w", err)
	}
	work.Plot = CleanResponse(out.Text)

	if work.Title == "" {
		out, err = p.complete(ctx, "title", titleMessages(work.Plot))
		if err != nil {
			return fmt.Errorf("generate title: %w", err)
		}
		work.Title = file.SanitizeFilename(CleanResponse(out.Text))
		logger.Info(ctx, "title generated", "title", work.Title)
	}

	out, err = p.complete(ctx, "characters", characterListMessages(work.Plot, work.TotalChapters))
	if err != nil {
		return fmt.Errorf("generate character list: %w", err)
	}
	work.Characters = CleanResponse(out.Text)

	out, err = p.complete(ctx, "outline", outlineMessages(work.Plot, work.Characters, work.TotalChapters))
	if err != nil {
		return fmt.Errorf("generate story outline: %w", err)
	}
	work.Outline = CleanResponse(out.Text)

	return nil
}

// writeChapters 写作阶段：第一章走初稿加改写，其余章节带
// 优化上下文逐章生成；非末章生成摘要，末章追加完结标记。
func (p *Pipeline) writeChapters(ctx context.Context, work *entity.Work, style string) error {
	ctx, span := tracer.Start(ctx, "pipeline.write")
	defer span.End()

	total := work.TotalChapters

	work.CurrentChapter = 0
	content, prov, err := p.writeFirstChapter(ctx, work, style)
	if err != nil {
		return fmt.Errorf("write chapter 1: %w", err)
	}
	if total == 1 {
		content = strings.TrimRight(content, " \t\n") + "\n\n（全文完）"
	}
	title := work.Storyline[0].Title
	if err := p.store.SaveUnit(ctx, work.ID, 0, title, content); err != nil {
		return fmt.Errorf("save chapter 1: %w", err)
	}
	metrics.ChapterWordCount.WithLabelValues(prov).Observe(float64(len([]rune(content))))

	if total > 1 {
		work.Advance(entity.StageSummarizing)
		if err := p.saveSummary(ctx, work, 0, title, content); err != nil {
			return err
		}
	}

	for i := 1; i < total; i++ {
		if err := p.sleep(ctx, p.cfg.InterChapterDelay); err != nil {
			return err
		}
		work.Advance(entity.StageWriting)
		work.CurrentChapter = i

		previous := p.optimizer.BuildContext(ctx, work.ID, i)
		currentLine, upcoming := chapterContext(work.Storyline, i+1)
		prompt := chapterPrompt{
			Plot:       work.Plot,
			Characters: work.Characters,
			Outline:    work.Outline,
			Context:    previous,
			Title:      work.Storyline[i].Title,
			Storyline:  currentLine,
			Style:      style,
			Upcoming:   upcoming,
			Current:    i + 1,
			Total:      total,
		}

		content, prov, err := p.writeOne(ctx, prompt)
		if err != nil {
			return fmt.Errorf("write chapter %d: %w", i+1, err)
		}
		if len([]rune(content)) < p.cfg.MinChapterLength {
			logger.Warn(ctx, "chapter below minimum length, regenerating once",
				"index", i, "length", len([]rune(content)))
			if err := p.sleep(ctx, p.cfg.InterChapterDelay); err != nil {
				return err
			}
			// 重写一次；结果无论长短都采用
			content, prov, err = p.writeOne(ctx, prompt)
			if err != nil {
				return fmt.Errorf("rewrite chapter %d: %w", i+1, err)
			}
		}

		isFinal := i == total-1
		if isFinal {
			content = strings.TrimRight(content, " \t\n") + "\n\n（全文完）"
		}

		title := work.Storyline[i].Title
		if err := p.store.SaveUnit(ctx, work.ID, i, title, content); err != nil {
			return fmt.Errorf("save chapter %d: %w", i+1, err)
		}
		metrics.ChapterWordCount.WithLabelValues(prov).Observe(float64(len([]rune(content))))
		logger.Info(ctx, "chapter written", "index", i, "title", title,
			"word_count", len([]rune(content)))

		if !isFinal {
			work.Advance(entity.StageSummarizing)
			if err := p.saveSummary(ctx, work, i, title, content); err != nil {
				return err
			}
		}
	}

	return nil
}

// writeFirstChapter 初稿后再做一轮改写，返回最终正文
func (p *Pipeline) writeFirstChapter(ctx context.Context, work *entity.Work, style string) (string, string, error) {
	title := work.Storyline[0].Title

	out, err := p.complete(ctx, "chapter",
		firstChapterMessages(work.Plot, work.Characters, work.Outline, title, style))
	if err != nil {
		return "", "", err
	}
	draft := ExtractChapterContent(out.Text)
	logger.Info(ctx, "first chapter draft done", "word_count", len([]rune(draft)))

	out, err = p.complete(ctx, "chapter",
		improveFirstChapterMessages(work.Plot, work.Characters, work.Outline, draft, style))
	if err != nil {
		return "", "", err
	}
	return ExtractChapterContent(out.Text), out.Provider, nil
}

func (p *Pipeline) writeOne(ctx context.Context, prompt chapterPrompt) (string, string, error) {
	out, err := p.complete(ctx, "chapter", chapterMessages(prompt))
	if err != nil {
		return "", "", err
	}
	return ExtractChapterContent(out.Text), out.Provider, nil
}

// saveSummary 生成并保存章节摘要。
// 模型调用失败时降级为正文前三句，摘要永不阻断写作。
func (p *Pipeline) saveSummary(ctx context.Context, work *entity.Work, index int, title, content string) error {
	var summary string
	out, err := p.complete(ctx, "summary", summaryMessages(title, content))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn(ctx, "summary generation failed, using leading sentences",
			"index", index, "error", err)
		summary = "【" + title + "】\n" + leadingSentences(content, 3)
	} else {
		summary = CleanResponse(out.Text)
	}

	if err := p.store.SaveSummary(ctx, work.ID, index, summary); err != nil {
		return fmt.Errorf("save summary %d: %w", index+1, err)
	}
	return nil
}

// export 汇总全部章节导出为单一文档
func (p *Pipeline) export(ctx context.Context, work *entity.Work) error {
	if p.exporter == nil {
		return nil
	}
	chapters := p.store.ListUnits(ctx, work.ID)
	path, err := p.exporter.Export(ctx, work.Title, work.Author, chapters)
	if err != nil {
		return fmt.Errorf("export work: %w", err)
	}
	logger.Info(ctx, "work exported", "path", path)
	return nil
}

func (p *Pipeline) complete(ctx context.Context, operation string, messages []llm.Message) (*provider.Outcome, error) {
	return p.completer.Complete(ctx, operation, llm.CompletionRequest{Messages: messages})
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}
