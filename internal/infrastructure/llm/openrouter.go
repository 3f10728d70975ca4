package llm

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"z-storycraft-api/internal/domain/entity"
)

// OpenRouter OpenRouter 聚合网关适配器
type OpenRouter struct {
	openaiCompat
}

// mainProviderPrefixes 默认只展示主要提供商的模型
var mainProviderPrefixes = []string{
	"openai/gpt-", "o1-",
	"google/gemini-", "google/palm-",
	"deepseek/",
	"qwen/", "alibaba/",
	"grok-", "x-ai/grok",
}

// NewOpenRouter 创建 OpenRouter 适配器
func NewOpenRouter(settings entity.ProviderSettings, client *http.Client) *OpenRouter {
	if settings.BaseURL == "" {
		settings.BaseURL = "https://openrouter.ai/api/v1"
	}
	return &OpenRouter{openaiCompat{
		id:       "openrouter",
		name:     "OpenRouter",
		settings: settings,
		client:   client,
		defaults: []string{
			"openai/gpt-4o", "openai/gpt-4o-mini",
			"deepseek/deepseek-chat", "google/gemini-pro",
		},
		requireKey: true,
	}}
}

// ListModels 模型列表接口无需凭证；成功时过滤到主要提供商
func (a *OpenRouter) ListModels(ctx context.Context) []string {
	models, err := a.fetchModels(ctx)
	if err != nil || len(models) == 0 {
		return append([]string(nil), a.defaults...)
	}
	return filterMainProviders(models)
}

// filterMainProviders 过滤到主要提供商；全被滤掉时回退前 20 个
func filterMainProviders(models []string) []string {
	filtered := make([]string, 0, len(models))
	for _, m := range models {
		lower := strings.ToLower(m)
		for _, prefix := range mainProviderPrefixes {
			if strings.HasPrefix(m, prefix) || strings.Contains(lower, prefix) {
				filtered = append(filtered, m)
				break
			}
		}
	}
	if len(filtered) == 0 {
		if len(models) > 20 {
			models = models[:20]
		}
		filtered = append(filtered, models...)
	}
	sort.Strings(filtered)
	return filtered
}

func (a *OpenRouter) TestConnection(ctx context.Context) bool {
	return a.testByListing(ctx)
}

func (a *OpenRouter) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	if len(strings.TrimSpace(a.settings.APIKey)) < 10 {
		return nil, &ProviderError{Kind: KindAuth, Provider: a.id, Model: req.Model}
	}
	return a.complete(ctx, req)
}
