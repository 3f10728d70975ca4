package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"z-storycraft-api/internal/domain/entity"
)

// Anthropic Claude API 适配器
// 凭证走 x-api-key 头，system 消息是请求体顶层字段。
type Anthropic struct {
	settings entity.ProviderSettings
	client   *http.Client
}

// anthropicKnownModels 官方不提供公开的模型列表接口
var anthropicKnownModels = []string{
	"claude-3-5-sonnet-20241022", "claude-3-5-sonnet-20240620",
	"claude-3-5-haiku-20241022", "claude-3-opus-20240229",
	"claude-3-sonnet-20240229", "claude-3-haiku-20240307",
}

// NewAnthropic 创建 Claude 适配器
func NewAnthropic(settings entity.ProviderSettings, client *http.Client) *Anthropic {
	if settings.BaseURL == "" {
		settings.BaseURL = "https://api.anthropic.com/v1"
	}
	return &Anthropic{settings: settings, client: client}
}

func (a *Anthropic) ID() string   { return "anthropic" }
func (a *Anthropic) Name() string { return "Claude" }

func (a *Anthropic) ListModels(ctx context.Context) []string {
	return append([]string(nil), anthropicKnownModels...)
}

func (a *Anthropic) TestConnection(ctx context.Context) bool {
	return strings.TrimSpace(a.settings.APIKey) != ""
}

func (a *Anthropic) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	var system string
	messages := make([]Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg.Role == RoleSystem {
			system += msg.Content
			continue
		}
		messages = append(messages, msg)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	payload := map[string]any{
		"model":      req.Model,
		"messages":   messages,
		"max_tokens": maxTokens,
	}
	if system != "" {
		payload["system"] = system
	}
	if req.Temperature > 0 {
		payload["temperature"] = req.Temperature
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ProviderError{Kind: KindValidation, Provider: "anthropic", Model: req.Model, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.settings.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Kind: KindValidation, Provider: "anthropic", Model: req.Model, Err: err}
	}
	httpReq.Header.Set("x-api-key", a.settings.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Kind: KindNetwork, Provider: "anthropic", Model: req.Model, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Kind: KindNetwork, Provider: "anthropic", Model: req.Model, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Kind:       classifyStatus(resp.StatusCode, string(raw)),
			Provider:   "anthropic",
			Model:      req.Model,
			StatusCode: resp.StatusCode,
			RawBody:    string(raw),
		}
	}

	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ProviderError{Kind: KindServer, Provider: "anthropic", Model: req.Model, RawBody: string(raw), Err: err}
	}
	if len(parsed.Content) == 0 {
		return nil, &ProviderError{Kind: KindServer, Provider: "anthropic", Model: req.Model, RawBody: string(raw)}
	}

	return &CompletionResult{Text: parsed.Content[0].Text, Model: req.Model}, nil
}
