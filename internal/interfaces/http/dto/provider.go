package dto

// UpdateProviderConfigRequest 更新提供商配置请求
// 留空的字段保持现有值不变。
type UpdateProviderConfigRequest struct {
	APIKey       string `json:"api_key,omitempty"`
	BaseURL      string `json:"base_url,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	DefaultModel string `json:"default_model,omitempty"`
}

// ProviderConfigResponse 提供商配置响应
// 密钥只回传掩码后的尾部，避免泄露。
type ProviderConfigResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BaseURL      string `json:"base_url,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	DefaultModel string `json:"default_model,omitempty"`
	APIKeySet    bool   `json:"api_key_set"`
	APIKeyTail   string `json:"api_key_tail,omitempty"`
	Enabled      bool   `json:"enabled"`
}

// MaskAPIKey 返回密钥尾部 4 位
func MaskAPIKey(key string) string {
	runes := []rune(key)
	if len(runes) <= 4 {
		return ""
	}
	return string(runes[len(runes)-4:])
}

// ModelsResponse 模型目录响应
type ModelsResponse struct {
	Provider string   `json:"provider"`
	Models   []string `json:"models"`
}

// ActivateResponse 切换激活提供商响应
type ActivateResponse struct {
	Active string `json:"active"`
}
