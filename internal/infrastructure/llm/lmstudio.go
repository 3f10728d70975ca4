package llm

import (
	"context"
	"net/http"

	"z-storycraft-api/internal/domain/entity"
)

// LMStudio 本地 LM Studio 适配器，无需凭证
type LMStudio struct {
	openaiCompat
}

// NewLMStudio 创建 LM Studio 适配器
func NewLMStudio(settings entity.ProviderSettings, client *http.Client) *LMStudio {
	if settings.BaseURL == "" {
		settings.BaseURL = "http://localhost:1234/v1"
	}
	return &LMStudio{openaiCompat{
		id:       "lmstudio",
		name:     "LM Studio",
		settings: settings,
		client:   client,
		// 本地模型名取决于用户加载了什么，给一个可用的占位默认
		defaults:   []string{"local-model"},
		requireKey: false,
	}}
}

func (a *LMStudio) ListModels(ctx context.Context) []string {
	return a.listModelsWithFallback(ctx)
}

// TestConnection 模型列表接口可达即认为在线
func (a *LMStudio) TestConnection(ctx context.Context) bool {
	_, err := a.fetchModels(ctx)
	return err == nil
}

func (a *LMStudio) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	return a.complete(ctx, req)
}
