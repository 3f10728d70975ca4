// Package llm 提供各 LLM 后端的适配器实现
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"z-storycraft-api/internal/domain/entity"
	"z-storycraft-api/pkg/logger"
)

// openaiCompat OpenAI 兼容后端的共享实现
// deepseek / qwen / zhipu / openrouter / lmstudio 都走这套报文。
type openaiCompat struct {
	id       string
	name     string
	settings entity.ProviderSettings
	client   *http.Client
	// defaults 拉取模型列表失败时的内置兜底
	defaults []string
	// requireKey 为 true 时缺少 API Key 直接判定连接不可用
	requireKey bool
}

func (a *openaiCompat) ID() string   { return a.id }
func (a *openaiCompat) Name() string { return a.name }

// fetchModels 调用 GET /models 拉取模型列表
func (a *openaiCompat) fetchModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.settings.BaseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	if a.settings.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.settings.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Kind:       classifyStatus(resp.StatusCode, string(body)),
			Provider:   a.id,
			StatusCode: resp.StatusCode,
			RawBody:    string(body),
		}
	}

	var parsed struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}

	models := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

// listModelsWithFallback 拉取失败时返回内置默认列表
func (a *openaiCompat) listModelsWithFallback(ctx context.Context) []string {
	models, err := a.fetchModels(ctx)
	if err != nil || len(models) == 0 {
		if err != nil {
			logger.Warn(ctx, "model list fetch failed, using defaults",
				"provider", a.id, "error", err)
		}
		return append([]string(nil), a.defaults...)
	}
	return models
}

// testByListing 凭证非空时以能否拉到模型判断连通性
func (a *openaiCompat) testByListing(ctx context.Context) bool {
	if a.requireKey && strings.TrimSpace(a.settings.APIKey) == "" {
		return false
	}
	models, err := a.fetchModels(ctx)
	return err == nil && len(models) > 0
}

// testByProbe 发送 1 token 的探测请求判断连通性
func (a *openaiCompat) testByProbe(ctx context.Context, model string) bool {
	if a.requireKey && strings.TrimSpace(a.settings.APIKey) == "" {
		return false
	}
	_, err := a.complete(ctx, CompletionRequest{
		Model:     model,
		Messages:  []Message{{Role: RoleUser, Content: "test"}},
		MaxTokens: 1,
	})
	return err == nil
}

// complete 调用 POST /chat/completions
func (a *openaiCompat) complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	payload := map[string]any{
		"model":    req.Model,
		"messages": req.Messages,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		payload["temperature"] = req.Temperature
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ProviderError{Kind: KindValidation, Provider: a.id, Model: req.Model, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.settings.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Kind: KindValidation, Provider: a.id, Model: req.Model, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.settings.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.settings.APIKey)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Kind: KindNetwork, Provider: a.id, Model: req.Model, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Kind: KindNetwork, Provider: a.id, Model: req.Model, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Kind:       classifyStatus(resp.StatusCode, string(raw)),
			Provider:   a.id,
			Model:      req.Model,
			StatusCode: resp.StatusCode,
			RawBody:    string(raw),
		}
	}

	var parsed struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ProviderError{Kind: KindServer, Provider: a.id, Model: req.Model, RawBody: string(raw), Err: err}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ProviderError{Kind: KindServer, Provider: a.id, Model: req.Model, RawBody: string(raw)}
	}

	model := parsed.Model
	if model == "" {
		model = req.Model
	}
	return &CompletionResult{Text: parsed.Choices[0].Message.Content, Model: model}, nil
}
