// Package entity 定义领域实体
package entity

// ProviderSettings 单个 LLM 提供商的运行期配置
type ProviderSettings struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	APIKey       string `json:"api_key,omitempty"`
	BaseURL      string `json:"base_url"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	DefaultModel string `json:"default_model"`
	Enabled      bool   `json:"enabled"`
}

// Merge 用非零字段覆盖当前配置，返回合并结果
func (s ProviderSettings) Merge(patch ProviderSettings) ProviderSettings {
	out := s
	if patch.APIKey != "" {
		out.APIKey = patch.APIKey
	}
	if patch.BaseURL != "" {
		out.BaseURL = patch.BaseURL
	}
	if patch.SystemPrompt != "" {
		out.SystemPrompt = patch.SystemPrompt
	}
	if patch.DefaultModel != "" {
		out.DefaultModel = patch.DefaultModel
	}
	return out
}

// ProviderState 注册表持久化文件的内容
type ProviderState struct {
	Active    string                      `json:"active"`
	Providers map[string]ProviderSettings `json:"providers"`
}

// ProviderStatus 单个提供商的探测结果
// CredentialSet 区分"连不上"和"没配密钥"两种不可用。
type ProviderStatus struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Active        bool   `json:"active"`
	Enabled       bool   `json:"enabled"`
	Connected     bool   `json:"connected"`
	CredentialSet bool   `json:"credential_set"`
	ModelCount    int    `json:"model_count"`
	Error         string `json:"error,omitempty"`
}
