package story

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"z-storycraft-api/internal/domain/entity"
	"z-storycraft-api/pkg/logger"
)

const (
	// storylineRetryDelay 批次解析失败后重试前的等待
	storylineRetryDelay = 2 * time.Second
	// storylineBatchDelay 相邻批次之间的节流间隔
	storylineBatchDelay = 5 * time.Second
	// digestSynopsisRunes 摘要拼接时单章概要的截断长度
	digestSynopsisRunes = 200
	// digestMaxRunes 批次间携带的前情摘要上限
	digestMaxRunes = 3000
)

// generateStoryline 分批生成全书故事线。
// 单批解析失败重试一次，仍失败则用差异化占位章节补齐，
// 保证返回的故事线恰好 total 章。
func (p *Pipeline) generateStoryline(ctx context.Context, work *entity.Work) ([]entity.ChapterOutline, error) {
	total := work.TotalChapters
	batchSize := p.cfg.StorylineBatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	var all []entity.ChapterOutline
	var digest string

	for start := 1; start <= total; start += batchSize {
		end := start + batchSize - 1
		if end > total {
			end = total
		}

		outlines, err := p.storylineBatch(ctx, work, start, end, digest)
		if err != nil {
			logger.Warn(ctx, "storyline batch unparsable, retrying",
				"work_id", work.ID, "start", start, "end", end, "error", err)
			if serr := p.sleep(ctx, storylineRetryDelay); serr != nil {
				return nil, serr
			}
			outlines, err = p.storylineBatch(ctx, work, start, end, digest)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn(ctx, "storyline batch failed twice, using placeholder chapters",
				"work_id", work.ID, "start", start, "end", end, "error", err)
			outlines = placeholderBatch(start, end, work.Plot, digest)
		}
		all = append(all, outlines...)

		if end < total {
			digest = buildDigest(outlines)
			if err := p.sleep(ctx, storylineBatchDelay); err != nil {
				return nil, err
			}
		}
	}

	return normalizeStoryline(all, total), nil
}

// storylineBatch 生成 [start,end] 章的故事线并解析为结构化概要
func (p *Pipeline) storylineBatch(ctx context.Context, work *entity.Work, start, end int, digest string) ([]entity.ChapterOutline, error) {
	out, err := p.complete(ctx, "storyline",
		storylineBatchMessages(work.Plot, work.Characters, work.Outline, start, end, digest))
	if err != nil {
		return nil, err
	}
	return parseStorylineBatch(CleanJSONResponse(CleanResponse(out.Text)))
}

// parseStorylineBatch 解析一批故事线：单键对象的 JSON 数组，
// 键是章节标题，值是该章概要。
func parseStorylineBatch(raw string) ([]entity.ChapterOutline, error) {
	var items []map[string]string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("parse storyline batch: %w", err)
	}
	outlines := make([]entity.ChapterOutline, 0, len(items))
	for _, item := range items {
		for title, synopsis := range item {
			outlines = append(outlines, entity.ChapterOutline{Title: title, Synopsis: synopsis})
			break
		}
	}
	if len(outlines) == 0 {
		return nil, fmt.Errorf("parse storyline batch: empty array")
	}
	return outlines, nil
}

// buildDigest 把一批章节概要压缩成下一批次的前情提要
func buildDigest(outlines []entity.ChapterOutline) string {
	lines := make([]string, 0, len(outlines))
	for _, o := range outlines {
		lines = append(lines, fmt.Sprintf("%s: %s...", o.Title, truncateRunes(o.Synopsis, digestSynopsisRunes)))
	}
	digest := "前面章节概述：\n" + strings.Join(lines, "\n")
	if len([]rune(digest)) > digestMaxRunes {
		digest = truncateRunes(digest, digestMaxRunes) + "..."
	}
	return digest
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// placeholderBatch 生成差异化的占位故事线，按章节位置给出
// 不同阶段的发展方向，供后续人工或重跑完善。
func placeholderBatch(start, end int, plot, digest string) []entity.ChapterOutline {
	templates := map[int]string{
		1:  "开篇引入，介绍主要背景和核心人物",
		2:  "深入展开设定，建立人物关系",
		3:  "初步冲突出现，推动情节发展",
		4:  "人物成长，背景扩展",
		5:  "矛盾加剧，情节复杂化",
		6:  "转折点出现，改变故事走向",
		7:  "高潮准备，积累张力",
		8:  "关键冲突，重要选择",
		9:  "情节高潮，决定性时刻",
		10: "结局收尾，解决冲突",
	}

	outlines := make([]entity.ChapterOutline, 0, end-start+1)
	for i := start; i <= end; i++ {
		var phase, hint string
		switch {
		case i <= 2:
			phase, hint = "开篇阶段", "重点介绍主要人物和世界设定，为后续发展做铺垫"
		case i <= 4:
			phase, hint = "发展阶段", "深入展开人物关系和背景设定，初步引入冲突"
		case i <= 6:
			phase, hint = "推进阶段", "矛盾和冲突逐渐显现，情节开始复杂化"
		case i <= 8:
			phase, hint = "高潮准备", "积累张力，为即将到来的高潮做准备"
		default:
			phase, hint = "高潮收尾", "解决主要冲突，推向故事结局"
		}

		var b strings.Builder
		fmt.Fprintf(&b, "第%d章处于%s，%s。\n\n本章发展方向：%s。", i, phase, hint, templates[i%10+1])
		if plot != "" {
			fmt.Fprintf(&b, "\n\n结合主要剧情背景：%s...", truncateRunes(plot, 150))
		}
		if i == start && digest != "" {
			fmt.Fprintf(&b, "\n\n承接前文发展：%s...", truncateRunes(digest, 200))
		}
		switch i % 5 {
		case 1:
			b.WriteString("\n\n💡 建议：本章可以引入新的人物或场景。")
		case 3:
			b.WriteString("\n\n💡 建议：本章可以深化主要冲突或揭示关键信息。")
		case 0:
			b.WriteString("\n\n💡 建议：本章可以作为阶段性高潮或转折点。")
		}

		outlines = append(outlines, entity.ChapterOutline{
			Title:    fmt.Sprintf("第%d章 - 待完善", i),
			Synopsis: b.String(),
		})
	}
	return outlines
}

// normalizeStoryline 把故事线规整为恰好 total 章并补上序号
func normalizeStoryline(outlines []entity.ChapterOutline, total int) []entity.ChapterOutline {
	if len(outlines) > total {
		outlines = outlines[:total]
	}
	for len(outlines) < total {
		i := len(outlines) + 1
		outlines = append(outlines, entity.ChapterOutline{
			Title:    fmt.Sprintf("第%d章 - 待完善", i),
			Synopsis: fmt.Sprintf("第%d章内容", i),
		})
	}
	for i := range outlines {
		outlines[i].Index = i
	}
	return outlines
}

// chapterContext 从故事线中取当前章故事线与后续至多 5 章的概况
func chapterContext(outlines []entity.ChapterOutline, current int) (string, string) {
	if current < 1 || current > len(outlines) {
		return fmt.Sprintf("第%d章", current), ""
	}
	o := outlines[current-1]
	currentLine := fmt.Sprintf("%s：%s", o.Title, o.Synopsis)

	var upcoming []string
	for i := current; i < len(outlines) && i < current+5; i++ {
		upcoming = append(upcoming, fmt.Sprintf("%s：%s", outlines[i].Title, outlines[i].Synopsis))
	}
	if len(upcoming) == 0 {
		return currentLine, ""
	}
	return currentLine, "后续章节概况：\n" + strings.Join(upcoming, "\n")
}
