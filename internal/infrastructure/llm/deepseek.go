package llm

import (
	"context"
	"net/http"

	"z-storycraft-api/internal/domain/entity"
)

// DeepSeek DeepSeek 官方 API 适配器
type DeepSeek struct {
	openaiCompat
}

// NewDeepSeek 创建 DeepSeek 适配器
func NewDeepSeek(settings entity.ProviderSettings, client *http.Client) *DeepSeek {
	if settings.BaseURL == "" {
		settings.BaseURL = "https://api.deepseek.com/v1"
	}
	return &DeepSeek{openaiCompat{
		id:         "deepseek",
		name:       "DeepSeek",
		settings:   settings,
		client:     client,
		defaults:   []string{"deepseek-chat", "deepseek-reasoner"},
		requireKey: true,
	}}
}

func (a *DeepSeek) ListModels(ctx context.Context) []string {
	return a.listModelsWithFallback(ctx)
}

func (a *DeepSeek) TestConnection(ctx context.Context) bool {
	return a.testByListing(ctx)
}

func (a *DeepSeek) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	return a.complete(ctx, req)
}
