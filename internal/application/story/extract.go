package story

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
	xmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	blankRunRe   = regexp.MustCompile(`\n\s*\n\s*\n`)

	chapterTagRe = regexp.MustCompile(`(?s)<CHAPTER_CONTENT>(.*?)</CHAPTER_CONTENT>`)

	jsonFenceRe     = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	bareKeyRe       = regexp.MustCompile(`(\w+):`)

	// 推理模型的分析性前后缀与元数据行
	analysisRes = []*regexp.Regexp{
		regexp.MustCompile(`(?s)分析[:：].*?(\n\n|\z)`),
		regexp.MustCompile(`(?s)总结[:：].*?(\n\n|\z)`),
		regexp.MustCompile(`(?s)说明[:：].*?(\n\n|\z)`),
		regexp.MustCompile(`(?s)本章要点[:：].*?(\n\n|\z)`),
		regexp.MustCompile(`(?s)写作思路[:：].*?(\n\n|\z)`),
		regexp.MustCompile(`这是.*?的章节内容[:：]?\s*`),
		regexp.MustCompile(`根据.*?要求创作.*?[:：]?\s*`),
	}
	metadataRes = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^(字数[:：]|Word count:).*$`),
		regexp.MustCompile(`(?m)^(创作时间[:：]|Created:).*$`),
		regexp.MustCompile(`(?m)^(作者[:：]|Author:).*$`),
		regexp.MustCompile(`(?m)^(版权[:：]|Copyright:).*$`),
		regexp.MustCompile(`(?m)^(备注[:：]|Note:).*$`),
	}
)

// CleanResponse 清理模型输出：剥掉思考标签、残留 XML 标记与多余空行。
// 非章节类调用（情节、标题、摘要等）的统一后处理。
func CleanResponse(raw string) string {
	s := thinkBlockRe.ReplaceAllString(raw, "")
	s = xmlTagRe.ReplaceAllString(s, "")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// ExtractChapterContent 从写章节的输出中提取正文。
// 优先取 <CHAPTER_CONTENT> 标记内的内容；标记缺失时退化为
// 启发式剥离分析段落与元数据行。
func ExtractChapterContent(raw string) string {
	s := thinkBlockRe.ReplaceAllString(raw, "")
	if m := chapterTagRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(blankRunRe.ReplaceAllString(m[1], "\n\n"))
	}
	return smartExtract(CleanResponse(s))
}

func smartExtract(content string) string {
	for _, re := range analysisRes {
		content = re.ReplaceAllString(content, "")
	}
	for _, re := range metadataRes {
		content = re.ReplaceAllString(content, "")
	}
	content = blankRunRe.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

// CleanJSONResponse 从模型输出中提取可解析的 JSON。
// 依次尝试：代码块提取、前后缀文字裁剪；仍不合法时修复
// 尾随逗号和未加引号的键。修复失败原样返回，由调用方处理。
func CleanJSONResponse(raw string) string {
	s := strings.TrimSpace(raw)
	if m := jsonFenceRe.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}

	lines := strings.Split(s, "\n")
	start := -1
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "[") || strings.HasPrefix(t, "{") {
			start = i
			break
		}
	}
	if start > 0 {
		lines = lines[start:]
	}
	end := -1
	for i := len(lines) - 1; i >= 0; i-- {
		t := strings.TrimSpace(lines[i])
		if strings.HasSuffix(t, "]") || strings.HasSuffix(t, "}") {
			end = i
			break
		}
	}
	if end >= 0 && end < len(lines)-1 {
		lines = lines[:end+1]
	}
	s = strings.Join(lines, "\n")

	if json.Valid([]byte(s)) {
		return s
	}
	repaired := trailingCommaRe.ReplaceAllString(s, "$1")
	repaired = bareKeyRe.ReplaceAllString(repaired, `"$1":`)
	if json.Valid([]byte(repaired)) {
		return repaired
	}
	return s
}

// leadingSentences 取正文的前 n 个句号分句，作为摘要缺失时的降级
func leadingSentences(content string, n int) string {
	sentences := strings.Split(content, "。")
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	return strings.Join(sentences, "。") + "。"
}
