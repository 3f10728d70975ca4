package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"z-storycraft-api/internal/domain/entity"
	"z-storycraft-api/pkg/logger"
)

// Gemini Google Gemini 适配器
// 报文格式与 OpenAI 系不同：contents/parts 结构，凭证走查询参数。
type Gemini struct {
	settings entity.ProviderSettings
	client   *http.Client
}

// geminiKnownModels 无凭证时返回的公开模型
var geminiKnownModels = []string{
	"gemini-1.5-pro", "gemini-1.5-flash", "gemini-1.0-pro",
	"gemini-pro", "gemini-pro-vision",
}

// geminiDefaultModels 拉取失败时的兜底
var geminiDefaultModels = []string{"gemini-1.5-pro", "gemini-1.5-flash", "gemini-pro"}

// NewGemini 创建 Gemini 适配器
func NewGemini(settings entity.ProviderSettings, client *http.Client) *Gemini {
	if settings.BaseURL == "" {
		settings.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &Gemini{settings: settings, client: client}
}

func (a *Gemini) ID() string   { return "gemini" }
func (a *Gemini) Name() string { return "Google Gemini" }

func (a *Gemini) ListModels(ctx context.Context) []string {
	if strings.TrimSpace(a.settings.APIKey) == "" {
		return append([]string(nil), geminiKnownModels...)
	}

	endpoint := fmt.Sprintf("%s/models?key=%s", a.settings.BaseURL, url.QueryEscape(a.settings.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return append([]string(nil), geminiDefaultModels...)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		logger.Warn(ctx, "model list fetch failed, using defaults", "provider", "gemini", "error", err)
		return append([]string(nil), geminiDefaultModels...)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		return append([]string(nil), geminiDefaultModels...)
	}

	var parsed struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Models) == 0 {
		return append([]string(nil), geminiDefaultModels...)
	}

	models := make([]string, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		models = append(models, strings.TrimPrefix(m.Name, "models/"))
	}
	return models
}

func (a *Gemini) TestConnection(ctx context.Context) bool {
	if strings.TrimSpace(a.settings.APIKey) == "" {
		return false
	}
	return len(a.ListModels(ctx)) > 0
}

func (a *Gemini) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Parts []part `json:"parts"`
		Role  string `json:"role,omitempty"`
	}

	// system 消息并入首条用户消息，Gemini 不支持独立 system 角色
	var contents []content
	var systemPrefix string
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			systemPrefix += msg.Content + "\n\n"
		case RoleUser:
			text := msg.Content
			if systemPrefix != "" {
				text = systemPrefix + text
				systemPrefix = ""
			}
			contents = append(contents, content{Parts: []part{{Text: text}}})
		case RoleAssistant:
			contents = append(contents, content{Parts: []part{{Text: msg.Content}}, Role: "model"})
		}
	}

	genConfig := map[string]any{}
	if req.MaxTokens > 0 {
		genConfig["maxOutputTokens"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		genConfig["temperature"] = req.Temperature
	}

	body, err := json.Marshal(map[string]any{
		"contents":         contents,
		"generationConfig": genConfig,
	})
	if err != nil {
		return nil, &ProviderError{Kind: KindValidation, Provider: "gemini", Model: req.Model, Err: err}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		a.settings.BaseURL, req.Model, url.QueryEscape(a.settings.APIKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Kind: KindValidation, Provider: "gemini", Model: req.Model, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Kind: KindNetwork, Provider: "gemini", Model: req.Model, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Kind: KindNetwork, Provider: "gemini", Model: req.Model, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Kind:       classifyStatus(resp.StatusCode, string(raw)),
			Provider:   "gemini",
			Model:      req.Model,
			StatusCode: resp.StatusCode,
			RawBody:    string(raw),
		}
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ProviderError{Kind: KindServer, Provider: "gemini", Model: req.Model, RawBody: string(raw), Err: err}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, &ProviderError{Kind: KindServer, Provider: "gemini", Model: req.Model, RawBody: string(raw)}
	}

	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return &CompletionResult{Text: sb.String(), Model: req.Model}, nil
}
