package file

import (
	"context"
	"path/filepath"
	"testing"

	"z-storycraft-api/internal/domain/entity"
)

func TestProviderRegistryRoundTrip(t *testing.T) {
	reg := NewProviderRegistry(filepath.Join(t.TempDir(), "providers.json"))
	ctx := context.Background()

	state, err := reg.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state != nil {
		t.Fatal("expected nil state before first save")
	}

	in := &entity.ProviderState{
		Active: "deepseek",
		Providers: map[string]entity.ProviderSettings{
			"deepseek": {ID: "deepseek", Name: "DeepSeek", APIKey: "sk-x", DefaultModel: "deepseek-chat", Enabled: true},
		},
	}
	if err := reg.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := reg.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.Active != "deepseek" {
		t.Errorf("active = %q", out.Active)
	}
	if out.Providers["deepseek"].APIKey != "sk-x" {
		t.Errorf("settings not preserved: %+v", out.Providers["deepseek"])
	}
}
