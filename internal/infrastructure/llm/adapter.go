// Package llm 提供各 LLM 后端的适配器实现
package llm

import (
	"context"
	"fmt"
	"net/http"

	"z-storycraft-api/internal/domain/entity"
)

// Role 对话角色
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 对话消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest 补全请求
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// CompletionResult 补全结果
type CompletionResult struct {
	Text  string
	Model string
}

// Adapter 单个 LLM 后端的适配器
// ListModels 在任何失败下都返回非空的内置默认列表（lmstudio 的
// 默认列表是占位模型名），从不返回错误。
type Adapter interface {
	// ID 提供商标识（注册表键）
	ID() string

	// Name 展示名
	Name() string

	// ListModels 返回可用模型列表
	ListModels(ctx context.Context) []string

	// TestConnection 探测后端可达性；必需凭证缺失时直接返回 false
	TestConnection(ctx context.Context) bool

	// Complete 执行一次补全调用；失败返回 *ProviderError
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}

// EstimateTokens 粗略估算文本的 token 数（约 4 字符/token）
func EstimateTokens(text string) int {
	return len(text) / 4
}

// New 按提供商 ID 构造适配器
func New(id string, settings entity.ProviderSettings, client *http.Client) (Adapter, error) {
	switch id {
	case "deepseek":
		return NewDeepSeek(settings, client), nil
	case "qwen":
		return NewQwen(settings, client), nil
	case "zhipu":
		return NewZhipu(settings, client), nil
	case "gemini":
		return NewGemini(settings, client), nil
	case "openrouter":
		return NewOpenRouter(settings, client), nil
	case "lmstudio":
		return NewLMStudio(settings, client), nil
	case "anthropic":
		return NewAnthropic(settings, client), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", id)
	}
}

// KnownProviders 闭集提供商 ID，注册表初始化使用
func KnownProviders() []string {
	return []string{"deepseek", "qwen", "zhipu", "gemini", "openrouter", "lmstudio", "anthropic"}
}
