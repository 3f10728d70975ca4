package llm

import (
	"context"
	"net/http"

	"z-storycraft-api/internal/domain/entity"
)

// Zhipu 智谱 AI（GLM）适配器
type Zhipu struct {
	openaiCompat
}

// zhipuKnownModels 智谱不提供模型列表接口，使用官方文档中的已知模型
var zhipuKnownModels = []string{
	"glm-4-plus", "glm-4-0520", "glm-4", "glm-4-air", "glm-4-airx",
	"glm-4-flash", "glm-4-flashx", "glm-4-long", "glm-4v-plus",
	"glm-4v", "glm-3-turbo", "cogview-3-plus", "cogview-3",
}

// NewZhipu 创建智谱适配器
func NewZhipu(settings entity.ProviderSettings, client *http.Client) *Zhipu {
	if settings.BaseURL == "" {
		settings.BaseURL = "https://open.bigmodel.cn/api/paas/v4"
	}
	return &Zhipu{openaiCompat{
		id:         "zhipu",
		name:       "智谱AI",
		settings:   settings,
		client:     client,
		defaults:   zhipuKnownModels,
		requireKey: true,
	}}
}

func (a *Zhipu) ListModels(ctx context.Context) []string {
	return append([]string(nil), zhipuKnownModels...)
}

func (a *Zhipu) TestConnection(ctx context.Context) bool {
	return a.testByProbe(ctx, "glm-4-flash")
}

func (a *Zhipu) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	return a.complete(ctx, req)
}
