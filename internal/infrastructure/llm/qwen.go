package llm

import (
	"context"
	"net/http"

	"z-storycraft-api/internal/domain/entity"
)

// Qwen 阿里云通义千问（DashScope 兼容模式）适配器
type Qwen struct {
	openaiCompat
}

// qwenKnownModels DashScope 不提供模型列表接口，使用官方文档中的已知模型
var qwenKnownModels = []string{
	"qwen-max", "qwen-plus", "qwen-turbo", "qwen-long",
	"qwen-max-0428", "qwen-max-0403", "qwen-max-0107",
	"qwen-plus-0828", "qwen-turbo-0828", "qwen-vl-plus",
	"qwen-vl-max", "qwen-audio-turbo", "qwen-audio-chat",
}

// NewQwen 创建通义千问适配器
func NewQwen(settings entity.ProviderSettings, client *http.Client) *Qwen {
	if settings.BaseURL == "" {
		settings.BaseURL = "https://dashscope-intl.aliyuncs.com/compatible-mode/v1"
	}
	return &Qwen{openaiCompat{
		id:         "qwen",
		name:       "阿里云通义千问",
		settings:   settings,
		client:     client,
		defaults:   qwenKnownModels,
		requireKey: true,
	}}
}

func (a *Qwen) ListModels(ctx context.Context) []string {
	return append([]string(nil), qwenKnownModels...)
}

func (a *Qwen) TestConnection(ctx context.Context) bool {
	return a.testByProbe(ctx, "qwen-turbo")
}

func (a *Qwen) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	return a.complete(ctx, req)
}
