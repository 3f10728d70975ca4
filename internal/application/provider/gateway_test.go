package provider

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"z-storycraft-api/internal/config"
	"z-storycraft-api/internal/domain/entity"
	"z-storycraft-api/internal/infrastructure/llm"
	"z-storycraft-api/internal/infrastructure/persistence/memory"
)

// mockAdapter 可编程的测试适配器
type mockAdapter struct {
	id        string
	mu        sync.Mutex
	calls     int
	listCalls int
	models    []string
	connected bool
	complete  func(call int, req llm.CompletionRequest) (*llm.CompletionResult, error)
}

func (m *mockAdapter) ID() string   { return m.id }
func (m *mockAdapter) Name() string { return m.id }

func (m *mockAdapter) ListModels(ctx context.Context) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if len(m.models) == 0 {
		return []string{"fallback-model"}
	}
	return m.models
}

func (m *mockAdapter) TestConnection(ctx context.Context) bool { return m.connected }

func (m *mockAdapter) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResult, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()
	return m.complete(call, req)
}

func (m *mockAdapter) completions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{
			ActiveProvider: "deepseek",
			RequestTimeout: time.Second,
			ModelCacheTTL:  5 * time.Minute,
			Providers: map[string]config.ProviderConfig{
				"deepseek": {Name: "DeepSeek", APIKey: "sk-test", DefaultModel: "deepseek-chat", Enabled: true},
			},
		},
		Pipeline: config.PipelineConfig{MaxAttempts: 3, RetryDelay: time.Millisecond},
	}
}

func newTestGateway(t *testing.T, adapters map[string]*mockAdapter) *Gateway {
	t.Helper()
	factory := func(id string, settings entity.ProviderSettings, client *http.Client) (llm.Adapter, error) {
		if a, ok := adapters[id]; ok {
			return a, nil
		}
		return &mockAdapter{id: id, complete: func(int, llm.CompletionRequest) (*llm.CompletionResult, error) {
			return &llm.CompletionResult{Text: "ok", Model: "m"}, nil
		}}, nil
	}
	g, err := NewGateway(testConfig(), Options{Cache: memory.NewModelCache(), Factory: factory})
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	return g
}

func TestCompleteRetriesRetryableThreeTimes(t *testing.T) {
	adapter := &mockAdapter{
		id: "deepseek",
		complete: func(call int, req llm.CompletionRequest) (*llm.CompletionResult, error) {
			return nil, &llm.ProviderError{Kind: llm.KindServer, Provider: "deepseek", StatusCode: 500}
		},
	}
	g := newTestGateway(t, map[string]*mockAdapter{"deepseek": adapter})

	_, err := g.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "写"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if adapter.completions() != 3 {
		t.Errorf("attempts = %d, want 3", adapter.completions())
	}
	pe, ok := llm.AsProviderError(err)
	if !ok {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if pe.Attempts != 3 {
		t.Errorf("error attempts = %d, want 3", pe.Attempts)
	}
}

func TestCompleteDoesNotRetryTerminalKinds(t *testing.T) {
	for _, kind := range []llm.ErrorKind{llm.KindAuth, llm.KindQuota, llm.KindValidation} {
		t.Run(string(kind), func(t *testing.T) {
			adapter := &mockAdapter{
				id: "deepseek",
				complete: func(call int, req llm.CompletionRequest) (*llm.CompletionResult, error) {
					return nil, &llm.ProviderError{Kind: kind, Provider: "deepseek"}
				},
			}
			g := newTestGateway(t, map[string]*mockAdapter{"deepseek": adapter})

			_, err := g.Complete(context.Background(), llm.CompletionRequest{
				Messages: []llm.Message{{Role: llm.RoleUser, Content: "写"}},
			})
			if err == nil {
				t.Fatal("expected error")
			}
			if adapter.completions() != 1 {
				t.Errorf("attempts = %d, want 1", adapter.completions())
			}
		})
	}
}

func TestCompleteSucceedsAfterTransientFailure(t *testing.T) {
	adapter := &mockAdapter{
		id: "deepseek",
		complete: func(call int, req llm.CompletionRequest) (*llm.CompletionResult, error) {
			if call < 3 {
				return nil, &llm.ProviderError{Kind: llm.KindRateLimit, Provider: "deepseek", StatusCode: 429}
			}
			return &llm.CompletionResult{Text: "成功", Model: "deepseek-chat"}, nil
		},
	}
	g := newTestGateway(t, map[string]*mockAdapter{"deepseek": adapter})

	outcome, err := g.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "写"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if outcome.Text != "成功" || outcome.Attempts != 3 {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestCompleteRateLimitedThriceIsTerminal(t *testing.T) {
	adapter := &mockAdapter{
		id: "deepseek",
		complete: func(call int, req llm.CompletionRequest) (*llm.CompletionResult, error) {
			return nil, &llm.ProviderError{
				Kind: llm.KindRateLimit, Provider: "deepseek",
				StatusCode: 429, RawBody: `{"error":"rate limited"}`,
			}
		},
	}
	g := newTestGateway(t, map[string]*mockAdapter{"deepseek": adapter})

	_, err := g.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "写"}},
	})
	pe, ok := llm.AsProviderError(err)
	if !ok {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Kind != llm.KindRateLimit || pe.Attempts != 3 {
		t.Errorf("kind=%s attempts=%d", pe.Kind, pe.Attempts)
	}
	if pe.RawBody != `{"error":"rate limited"}` {
		t.Errorf("raw body lost: %q", pe.RawBody)
	}
}

func TestCompleteUsesDefaultModel(t *testing.T) {
	var gotModel string
	adapter := &mockAdapter{
		id: "deepseek",
		complete: func(call int, req llm.CompletionRequest) (*llm.CompletionResult, error) {
			gotModel = req.Model
			return &llm.CompletionResult{Text: "ok", Model: req.Model}, nil
		},
	}
	g := newTestGateway(t, map[string]*mockAdapter{"deepseek": adapter})

	if _, err := g.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "写"}},
	}); err != nil {
		t.Fatal(err)
	}
	if gotModel != "deepseek-chat" {
		t.Errorf("model = %q, want default deepseek-chat", gotModel)
	}
}

func TestCompleteUnknownModel(t *testing.T) {
	adapter := &mockAdapter{
		id: "deepseek",
		complete: func(call int, req llm.CompletionRequest) (*llm.CompletionResult, error) {
			t.Error("network call must not happen")
			return nil, nil
		},
	}
	cfg := testConfig()
	p := cfg.LLM.Providers["deepseek"]
	p.DefaultModel = ""
	cfg.LLM.Providers["deepseek"] = p

	factory := func(id string, settings entity.ProviderSettings, client *http.Client) (llm.Adapter, error) {
		if id == "deepseek" {
			return adapter, nil
		}
		return &mockAdapter{id: id, complete: adapter.complete}, nil
	}
	g, err := NewGateway(cfg, Options{Cache: memory.NewModelCache(), Factory: factory})
	if err != nil {
		t.Fatal(err)
	}

	_, err = g.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "写"}},
	})
	var ume *UnknownModelError
	if !errors.As(err, &ume) {
		t.Fatalf("expected UnknownModelError, got %v", err)
	}
}

func TestSwitchUnknownProvider(t *testing.T) {
	g := newTestGateway(t, nil)
	err := g.Switch(context.Background(), "not-a-provider")
	var upe *UnknownProviderError
	if !errors.As(err, &upe) {
		t.Fatalf("expected UnknownProviderError, got %v", err)
	}
}

func TestSwitchAndActive(t *testing.T) {
	g := newTestGateway(t, nil)
	if err := g.Switch(context.Background(), "zhipu"); err != nil {
		t.Fatalf("Switch: %v", err)
	}
	id, _ := g.Active()
	if id != "zhipu" {
		t.Errorf("active = %q, want zhipu", id)
	}
}

func TestModelsNeverErrorsAndCaches(t *testing.T) {
	adapter := &mockAdapter{
		id:     "deepseek",
		models: []string{"m1", "m2"},
		complete: func(int, llm.CompletionRequest) (*llm.CompletionResult, error) {
			return &llm.CompletionResult{Text: "ok"}, nil
		},
	}
	g := newTestGateway(t, map[string]*mockAdapter{"deepseek": adapter})
	ctx := context.Background()

	models, err := g.Models(ctx, "deepseek", false)
	if err != nil || len(models) != 2 {
		t.Fatalf("Models = %v, %v", models, err)
	}
	// 第二次命中缓存，不再触发适配器
	if _, err := g.Models(ctx, "deepseek", false); err != nil {
		t.Fatal(err)
	}
	if adapter.listCalls != 1 {
		t.Errorf("listCalls = %d, want 1 (cached)", adapter.listCalls)
	}
	// forceRefresh 跳过缓存
	if _, err := g.Models(ctx, "deepseek", true); err != nil {
		t.Fatal(err)
	}
	if adapter.listCalls != 2 {
		t.Errorf("listCalls = %d, want 2 after force refresh", adapter.listCalls)
	}

	if _, err := g.Models(ctx, "nope", false); err == nil {
		t.Error("expected UnknownProviderError for unregistered id")
	}
}

func TestStatusIsolation(t *testing.T) {
	panicking := &mockAdapter{
		id:        "deepseek",
		connected: false,
		complete:  func(int, llm.CompletionRequest) (*llm.CompletionResult, error) { return nil, nil },
	}
	g := newTestGateway(t, map[string]*mockAdapter{"deepseek": panicking})

	statuses := g.Status(context.Background())
	if len(statuses) != len(g.Providers()) {
		t.Fatalf("statuses = %d, want %d", len(statuses), len(g.Providers()))
	}
	byID := make(map[string]entity.ProviderStatus, len(statuses))
	for _, st := range statuses {
		if st.ID == "" {
			t.Error("every provider must report a status entry")
		}
		byID[st.ID] = st
	}
	// 配置了密钥的和没配密钥的必须能区分开
	if !byID["deepseek"].CredentialSet {
		t.Error("deepseek has an api key configured, credential_set should be true")
	}
	if byID["qwen"].CredentialSet {
		t.Error("qwen has no api key configured, credential_set should be false")
	}
}

func TestSystemPromptInjection(t *testing.T) {
	var gotMessages []llm.Message
	adapter := &mockAdapter{
		id: "deepseek",
		complete: func(call int, req llm.CompletionRequest) (*llm.CompletionResult, error) {
			gotMessages = req.Messages
			return &llm.CompletionResult{Text: "ok", Model: req.Model}, nil
		},
	}
	cfg := testConfig()
	p := cfg.LLM.Providers["deepseek"]
	p.SystemPrompt = "你是一位小说家。"
	cfg.LLM.Providers["deepseek"] = p

	factory := func(id string, settings entity.ProviderSettings, client *http.Client) (llm.Adapter, error) {
		if id == "deepseek" {
			return adapter, nil
		}
		return &mockAdapter{id: id, complete: adapter.complete}, nil
	}
	g, err := NewGateway(cfg, Options{Cache: memory.NewModelCache(), Factory: factory})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := g.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "写"}},
	}); err != nil {
		t.Fatal(err)
	}
	if len(gotMessages) != 2 || gotMessages[0].Role != llm.RoleSystem || gotMessages[0].Content != "你是一位小说家。" {
		t.Errorf("system prompt not injected: %+v", gotMessages)
	}
}

// registryStub 记录持久化调用
type registryStub struct {
	mu    sync.Mutex
	state *entity.ProviderState
	saves int
}

func (r *registryStub) Load(ctx context.Context) (*entity.ProviderState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, nil
}

func (r *registryStub) Save(ctx context.Context, state *entity.ProviderState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	r.saves++
	return nil
}

func TestUpdateSettingsMergesAndPersists(t *testing.T) {
	reg := &registryStub{}
	factory := func(id string, settings entity.ProviderSettings, client *http.Client) (llm.Adapter, error) {
		return &mockAdapter{id: id, complete: func(int, llm.CompletionRequest) (*llm.CompletionResult, error) {
			return &llm.CompletionResult{Text: "ok"}, nil
		}}, nil
	}
	g, err := NewGateway(testConfig(), Options{Registry: reg, Cache: memory.NewModelCache(), Factory: factory})
	if err != nil {
		t.Fatal(err)
	}

	if err := g.UpdateSettings(context.Background(), "deepseek", entity.ProviderSettings{APIKey: "sk-new"}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	s, _ := g.Settings("deepseek")
	if s.APIKey != "sk-new" {
		t.Errorf("api key = %q, want sk-new", s.APIKey)
	}
	if s.DefaultModel != "deepseek-chat" {
		t.Errorf("merge dropped default model: %+v", s)
	}
	if reg.saves == 0 {
		t.Error("expected state to be persisted")
	}
	if reg.state.Providers["deepseek"].APIKey != "sk-new" {
		t.Errorf("persisted state stale: %+v", reg.state.Providers["deepseek"])
	}
}

func TestRegistryStateOverridesConfig(t *testing.T) {
	reg := &registryStub{state: &entity.ProviderState{
		Active: "zhipu",
		Providers: map[string]entity.ProviderSettings{
			"deepseek": {APIKey: "sk-persisted"},
		},
	}}
	factory := func(id string, settings entity.ProviderSettings, client *http.Client) (llm.Adapter, error) {
		return &mockAdapter{id: id, complete: func(int, llm.CompletionRequest) (*llm.CompletionResult, error) {
			return &llm.CompletionResult{Text: "ok"}, nil
		}}, nil
	}
	g, err := NewGateway(testConfig(), Options{Registry: reg, Cache: memory.NewModelCache(), Factory: factory})
	if err != nil {
		t.Fatal(err)
	}

	id, _ := g.Active()
	if id != "zhipu" {
		t.Errorf("active = %q, want persisted zhipu", id)
	}
	s, _ := g.Settings("deepseek")
	if s.APIKey != "sk-persisted" {
		t.Errorf("api key = %q, want persisted value", s.APIKey)
	}
}
