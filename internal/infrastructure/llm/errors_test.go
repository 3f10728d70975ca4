package llm

import (
	"strings"
	"testing"
)

func TestContentPolicyErrorCarriesGuidance(t *testing.T) {
	err := &ProviderError{
		Kind:       KindContentPolicy,
		Provider:   "deepseek",
		Model:      "deepseek-chat",
		StatusCode: 403,
		Attempts:   1,
	}
	if !strings.Contains(err.Error(), "modify the input") {
		t.Errorf("content policy error should tell the caller to change the input, got %q", err.Error())
	}

	other := &ProviderError{Kind: KindRateLimit, Provider: "deepseek", StatusCode: 429}
	if strings.Contains(other.Error(), "modify the input") {
		t.Errorf("non-moderation errors should not carry the rewrite hint, got %q", other.Error())
	}
}
