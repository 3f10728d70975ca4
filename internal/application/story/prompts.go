package story

import (
	"fmt"
	"strings"

	"z-storycraft-api/internal/infrastructure/llm"
)

// 各阶段的固定系统人设。提供商级 system_prompt 由网关在
// 首条消息非 system 时注入，这里的阶段人设优先生效。
const (
	plotIdeasPersona   = "你是一个创意助手，专门生成引人入胜的网络小说情节。"
	plotSelectPersona  = "你是写作网络小说情节的专家。"
	plotImprovePersona = "你是改进和完善故事情节的专家。"
	titlePersona       = "你是一位专业作家。"
	characterPersona   = "你是一位专业的小说角色设计师，专门为网络小说创建详细的角色档案。"
	writerPersona      = "你是一位世界级的网络小说作家。请严格按照提供的人物设定、故事大纲和章节故事线来创作。"
	rewriterPersona    = "你是一位世界级的网络小说作家。你的工作是拿你学生的第一章初稿，重写得更好，更详细。"
	editorPersona      = "你是一位专业的文学编辑，专门负责为小说章节创建简洁而全面的摘要。"
)

const outlinePersona = `# 角色定位：
您是一位才华横溢的网络小说作家，因打破常规，用不同寻常的剧情和创意著称。同时，您也是一位经验丰富的金牌编剧，擅长将零散的想法构筑成结构完整、情节丰富、引人入胜的精彩故事。您必须使用中文创作所有内容。

## 您具有以下专业能力：
- 深厚的故事结构理论知识和实践经验
- 丰富的人物塑造和角色发展经验
- 敏锐的情节安排和节奏控制能力
- 创新思维和打破常规的创作能力

## 工作流程：
1. 深入挖掘创意火花，捕捉其中的亮点和独特之处
2. 构思立即抓住读者眼球的开场
3. 巧妙布局一个或几个高潮点作为故事的关键转折
4. 设计既出乎意料又情理之中的剧情反转
5. 以一个既巧妙又令人满意的结局收尾
6. 输出精细化的小说大纲，所有内容必须用中文表达`

const storylinePersona = `你是一位世界级的网络小说作家，专门负责创建详细的章节故事线。

你的任务是根据提供的信息，生成结构化的章节故事线，必须严格按照JSON格式输出。

要求：
1. 输出必须是有效的JSON数组格式
2. 每个章节使用字典结构，包含章节标题和详细内容
3. 不要添加任何前缀、后缀或解释文字
4. 专注于故事情节的逻辑发展和人物塑造`

// chapterTagNote 章节正文的结构化标记要求，附在所有写章节提示词末尾
const chapterTagNote = `**重要格式要求：**
请将章节正文内容包装在以下标记中：
<CHAPTER_CONTENT>
这里是章节正文内容
</CHAPTER_CONTENT>

在标记外可以添加任何说明或分析，但正文内容必须在标记内。`

func dialog(system, user string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	}
}

func plotIdeasMessages(premise string) []llm.Message {
	return dialog(plotIdeasPersona, fmt.Sprintf("基于这个提示生成10个网络小说情节：%s", premise))
}

func selectPlotMessages(plots []string) []llm.Message {
	user := fmt.Sprintf("这里有一些可能的小说情节：%s\n\n现在，写出我们将采用的最终情节。它可以是其中一个，也可以是多个最佳元素的混合，或者是全新且更好的东西。最重要的是情节应该是奇妙的、独特的和引人入胜的。",
		strings.Join(plots, "\n"))
	return dialog(plotSelectPersona, user)
}

func improvePlotMessages(plot string) []llm.Message {
	return dialog(plotImprovePersona, fmt.Sprintf("改进这个情节：%s", plot))
}

func titleMessages(plot string) []llm.Message {
	user := fmt.Sprintf("这是情节：%s\n\n这本书的标题是什么？只回答标题，不要做其他事情。请用中文回答。", plot)
	return dialog(titlePersona, user)
}

func characterListMessages(plot string, totalChapters int) []llm.Message {
	user := fmt.Sprintf(`基于以下情节为%d章的网络小说创建主要人物列表：

情节：%s

请创建一个详细的人物列表，包含：
1. 主角（1-2个）
2. 重要配角（3-5个）
3. 反派角色（1-2个）
4. 其他关键角色（根据需要）

每个角色需要包含姓名、年龄、性格特点、背景设定、在故事中的作用、能力或特长、外貌特征。

请按照以下JSON格式返回：
{
  "characters": [
    {
      "name": "角色姓名",
      "age": "年龄",
      "personality": "性格特点",
      "background": "背景设定",
      "role": "在故事中的作用",
      "abilities": "能力或特长",
      "appearance": "外貌特征",
      "importance": "主角/配角/反派"
    }
  ]
}

请用中文回答，只返回JSON内容，不要添加任何前缀或后缀。`, totalChapters, plot)
	return dialog(characterPersona, user)
}

func outlineMessages(plot, characters string, totalChapters int) []llm.Message {
	user := fmt.Sprintf(`## 输入信息：
您将基于以下信息为%d章的小说创建详细的故事大纲：

**情节设定：**
%s

**人物列表：**
%s

**章节数量：** %d章

## 输出格式：
请按照以下固定格式输出：
`+"```json"+`
{
  "outline": [
    {
      "part": "部分名称",
      "chapters": "章节范围",
      "chapter_numbers": [章节数字数组],
      "summary": "详细剧情梗概（300-500字，包含具体场景、对话要点、行动细节、人物心理变化等）",
      "key_events": ["关键事件列表"],
      "character_development": "角色发展变化",
      "connection": "与前后部分的衔接关系",
      "conflict_type": "冲突类型",
      "story_function": "在整个故事中的功能作用"
    }
  ]
}
`+"```"+`

## 详细要求：
**故事完整性要求：**
- 大纲必须讲述一个从开端到结局的完整故事
- 清晰地呈现主角的成长弧光和变化历程
- 解决所有核心的矛盾与冲突

**分段式结构要求：**
将整个故事划分为开端（故事起始）、发展（矛盾升级）、高潮（关键冲突）、结局（问题解决）几个主要部分。

**章节分配要求：**
- 为每个部分明确标注所占的章节范围，根据%d章进行合理估算与分配
- 开端部分通常占总章节的15-25%%，发展部分占50-65%%，高潮部分占10-20%%，结局部分占10-15%%
- 所有章节都被分配到某个部分，不能遗漏

**剧情梗概要求：**
每个部分的summary必须非常详细（300-500字），包含核心情节和主要事件、重要转折点和关键冲突、人物关系的变化和发展、主角的成长轨迹和心理变化、伏笔和悬念设置、与前后部分的逻辑衔接。summary将直接用于后续章节创作，必须提供足够的细节指导，不能只是概括性描述。

**重要语言要求：**
- 必须使用中文输出所有内容，JSON格式中的所有字段值都必须是中文
- 直接返回JSON格式的大纲内容，不要添加任何前缀或后缀`,
		totalChapters, plot, characters, totalChapters, totalChapters)
	return dialog(outlinePersona, user)
}

func storylineBatchMessages(plot, characters, outline string, start, end int, previous string) []llm.Message {
	user := fmt.Sprintf(`基于以下信息为第%d-%d章创建详细的故事线：

**情节设定：**
%s

**人物列表：**
%s

**故事大纲：**
%s

**前面章节信息：**
%s

请为第%d-%d章创建详细的故事线，确保：
1. 严格按照故事大纲的结构发展
2. 人物行为符合角色设定
3. 与前面章节保持逻辑衔接
4. 每章包含具体的情节发展、人物互动和关键事件
5. 注意章节间的过渡和连贯性

**输出格式要求：**
必须返回有效的JSON数组，格式如下：
`+"```json"+`
[
  {
    "第%d章 - 章节标题": "详细的章节故事线内容，包括主要情节发展、人物互动、关键事件和场景描述"
  },
  {
    "第%d章 - 章节标题": "详细的章节故事线内容..."
  }
]
`+"```"+`

**重要说明：**
- 只返回JSON数组，不要任何前缀或后缀
- 章节标题要有意义，体现该章节的核心内容
- 确保JSON格式正确，可以被解析`,
		start, end, plot, characters, outline, previous, start, end, start, start+1)
	return dialog(storylinePersona, user)
}

func firstChapterMessages(plot, characters, outline, title, style string) []llm.Message {
	user := fmt.Sprintf(`基于以下信息写这部小说的第一章：

情节：%s

人物列表：%s

故事大纲：%s

本章标题：%s

写作风格：%s

**第一章创作特殊要求：**
作为故事开篇，第一章需要：
1. 创造引人入胜的开头，瞬间抓住读者注意力
2. 巧妙介绍主要人物和背景设定，避免生硬的信息堆砌
3. 建立故事基调和氛围，让读者沉浸其中
4. 埋下伏笔和悬念，激发读者阅读兴趣
5. 展现主角的初始状态，为后续成长做铺垫
6. 确保开头具有冲击力，可以是动作场面、悬疑情节或引人深思的场景

请严格按照以下要求创作：
1. 严格按照故事大纲的开端部分发展
2. 确保人物行为符合角色设定
3. 体现指定的写作风格
4. 只包含章节文本，无需重写章节名称
5. 请用中文回答

%s

创作第一章：`, plot, characters, outline, title, style, chapterTagNote)
	return dialog(writerPersona, user)
}

func improveFirstChapterMessages(plot, characters, outline, draft, style string) []llm.Message {
	user := fmt.Sprintf(`基于以下信息改进第一章：

情节：%s

人物列表：%s

故事大纲：%s

学生的第一章初稿：%s

写作风格：%s

现在，重写这部小说的第一章，要比学生的版本好得多。请：
1. 严格按照故事大纲的开端部分发展
2. 确保人物行为符合角色设定
3. 应该更详细、更长、更引人入胜
4. 体现指定的写作风格
5. 强化开头的冲击力和吸引力
6. 增强场景描写和人物刻画的生动性
7. 请用中文回答

%s

改进后的第一章：`, plot, characters, outline, draft, style, chapterTagNote)
	return dialog(rewriterPersona, user)
}

// positionRequirements 根据章节在全书中的位置返回额外创作要求
func positionRequirements(current, total int) string {
	switch {
	case current == total:
		return `**最后一章特殊要求：**
这是故事的最后一章，需要：
1. 完美收尾所有主要情节线，解决所有核心冲突
2. 展现主角的最终成长和变化
3. 给出令人满意的结局，回应读者的期待
4. 营造恰当的结束感，让读者感到完整和满足
5. 可以留下适当的余韵，但不能有重大悬念未解决
6. 在章节结尾明确表示故事完结

`
	case current >= total-1:
		return `**倒数第二章特殊要求：**
这是故事即将结束的关键章节，需要：
1. 将主要冲突推向最终高潮
2. 为最后一章的大结局做充分铺垫
3. 开始收束次要情节线
4. 营造紧张感，让读者急于看到结局
5. 避免引入新的重大冲突或角色

`
	case current <= 2:
		return `**开头章节特殊要求：**
这是故事的开始阶段，需要：
1. 继续深入建立世界观和角色关系
2. 推动主要冲突的发展
3. 为中期发展做好铺垫
4. 平衡世界观介绍和情节推进

`
	default:
		return ""
	}
}

type chapterPrompt struct {
	Plot       string
	Characters string
	Outline    string
	Context    string
	Title      string
	Storyline  string
	Style      string
	Upcoming   string
	Current    int // 1 起
	Total      int
}

func chapterMessages(p chapterPrompt) []llm.Message {
	user := fmt.Sprintf(`基于以下信息写这部小说的下一章：

情节：%s

人物列表：%s

故事大纲：%s

前面的章节：%s

本章标题：%s

本章故事线：%s

写作风格：%s

%s

%s请严格按照以下要求创作：
1. 严格按照故事大纲的相应部分发展
2. 确保人物行为符合角色设定
3. 按照本章故事线的具体要求写作
4. 保持与前面章节的逻辑衔接
5. 为后续章节做好铺垫
6. 只包含章节文本，无需重写章节名称
7. 请用中文回答

%s

创作本章：`,
		p.Plot, p.Characters, p.Outline, p.Context, p.Title, p.Storyline, p.Style,
		p.Upcoming, positionRequirements(p.Current, p.Total), chapterTagNote)
	return dialog(writerPersona, user)
}

func summaryMessages(title, content string) []llm.Message {
	user := fmt.Sprintf(`请为以下小说章节生成一个简洁但全面的摘要。摘要应该：
1. 保留关键情节发展
2. 记录重要人物动向和对话要点
3. 突出与整体故事发展相关的重要细节
4. 长度控制在200-300字之间
5. 用中文回答

章节标题：%s

章节内容：
%s

请生成摘要：`, title, content)
	return dialog(editorPersona, user)
}
