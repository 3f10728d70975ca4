// Package provider 实现 LLM 提供商网关
// 统一各后端的补全契约：注册表、活跃提供商指针、重试策略、
// 模型目录缓存和状态聚合都收敛在这里。
package provider

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"z-storycraft-api/internal/config"
	"z-storycraft-api/internal/domain/entity"
	"z-storycraft-api/internal/domain/repository"
	"z-storycraft-api/internal/infrastructure/llm"
	"z-storycraft-api/pkg/logger"
	"z-storycraft-api/pkg/tracer"
)

// UnknownProviderError 引用了未注册的提供商
type UnknownProviderError struct {
	ID string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider: %s", e.ID)
}

// UnknownModelError 无法确定补全使用的模型
type UnknownModelError struct {
	Provider string
	Model    string
}

func (e *UnknownModelError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("provider %s has no model selected and no default model", e.Provider)
	}
	return fmt.Sprintf("unknown model %s for provider %s", e.Model, e.Provider)
}

// Outcome 一次补全调用（含重试）的结果
type Outcome struct {
	Text     string
	Provider string
	Model    string
	Attempts int
}

// AdapterFactory 构造适配器；测试时替换为 mock 工厂
type AdapterFactory func(id string, settings entity.ProviderSettings, client *http.Client) (llm.Adapter, error)

// Gateway 提供商网关
type Gateway struct {
	mu       sync.RWMutex
	adapters map[string]llm.Adapter
	settings map[string]entity.ProviderSettings
	active   string

	registry repository.ProviderRegistry
	cache    repository.ModelCache
	client   *http.Client
	factory  AdapterFactory
	cacheTTL time.Duration
	retry    RetryPolicy
}

// Options 网关构造参数
type Options struct {
	Registry repository.ProviderRegistry
	Cache    repository.ModelCache
	// Factory 为空时使用内置适配器工厂
	Factory AdapterFactory
}

// NewGateway 创建网关
// 配置文件给出初始设定，注册表中的持久化状态（运行期修改过的
// 凭证、活跃指针）优先生效。
func NewGateway(cfg *config.Config, opts Options) (*Gateway, error) {
	factory := opts.Factory
	if factory == nil {
		factory = llm.New
	}

	g := &Gateway{
		adapters: make(map[string]llm.Adapter),
		settings: make(map[string]entity.ProviderSettings),
		registry: opts.Registry,
		cache:    opts.Cache,
		client:   &http.Client{Timeout: cfg.LLM.RequestTimeout},
		factory:  factory,
		cacheTTL: cfg.LLM.ModelCacheTTL,
		retry:    RetryPolicy{MaxAttempts: cfg.Pipeline.MaxAttempts, Delay: cfg.Pipeline.RetryDelay},
	}
	if g.cacheTTL <= 0 {
		g.cacheTTL = 5 * time.Minute
	}
	if g.retry.MaxAttempts <= 0 {
		g.retry = DefaultRetryPolicy()
	}

	// 1. 配置文件中的提供商
	for id, pc := range cfg.LLM.Providers {
		g.settings[id] = entity.ProviderSettings{
			ID:           id,
			Name:         pc.Name,
			APIKey:       pc.APIKey,
			BaseURL:      pc.BaseURL,
			SystemPrompt: pc.SystemPrompt,
			DefaultModel: pc.DefaultModel,
			Enabled:      pc.Enabled,
		}
	}
	// 配置缺省时补齐已知提供商
	for _, id := range llm.KnownProviders() {
		if _, ok := g.settings[id]; !ok {
			g.settings[id] = entity.ProviderSettings{ID: id, Name: id, Enabled: true}
		}
	}

	g.active = cfg.LLM.ActiveProvider
	if g.active == "" {
		g.active = "deepseek"
	}

	// 2. 注册表中的持久化状态优先
	if g.registry != nil {
		state, err := g.registry.Load(context.Background())
		if err != nil {
			return nil, fmt.Errorf("load provider registry: %w", err)
		}
		if state != nil {
			for id, s := range state.Providers {
				if base, ok := g.settings[id]; ok {
					g.settings[id] = base.Merge(s)
				}
			}
			if state.Active != "" {
				g.active = state.Active
			}
		}
	}

	// 3. 构造适配器
	for id, s := range g.settings {
		adapter, err := factory(id, s, g.client)
		if err != nil {
			return nil, err
		}
		g.adapters[id] = adapter
	}

	if _, ok := g.adapters[g.active]; !ok {
		return nil, &UnknownProviderError{ID: g.active}
	}
	return g, nil
}

// Active 当前活跃提供商
func (g *Gateway) Active() (string, entity.ProviderSettings) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active, g.settings[g.active]
}

// Providers 已注册的提供商 ID（有序）
func (g *Gateway) Providers() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]string, 0, len(g.adapters))
	for id := range g.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Settings 读取某提供商的配置
func (g *Gateway) Settings(id string) (entity.ProviderSettings, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.settings[id]
	if !ok {
		return entity.ProviderSettings{}, &UnknownProviderError{ID: id}
	}
	return s, nil
}

// Switch 切换活跃提供商并持久化
func (g *Gateway) Switch(ctx context.Context, id string) error {
	g.mu.Lock()
	if _, ok := g.adapters[id]; !ok {
		g.mu.Unlock()
		return &UnknownProviderError{ID: id}
	}
	g.active = id
	g.mu.Unlock()

	logger.Info(ctx, "active provider switched", "provider", id)
	return g.persist(ctx)
}

// UpdateSettings 合并配置补丁、重建适配器并持久化
func (g *Gateway) UpdateSettings(ctx context.Context, id string, patch entity.ProviderSettings) error {
	g.mu.Lock()
	current, ok := g.settings[id]
	if !ok {
		g.mu.Unlock()
		return &UnknownProviderError{ID: id}
	}

	merged := current.Merge(patch)
	adapter, err := g.factory(id, merged, g.client)
	if err != nil {
		g.mu.Unlock()
		return err
	}
	g.settings[id] = merged
	g.adapters[id] = adapter
	g.mu.Unlock()

	logger.Info(ctx, "provider settings updated", "provider", id)
	return g.persist(ctx)
}

// Models 获取提供商的模型目录
// 命中缓存直接返回；forceRefresh 跳过缓存。适配器保证失败时
// 返回内置默认列表，所以除未知提供商外从不失败。
func (g *Gateway) Models(ctx context.Context, id string, forceRefresh bool) ([]string, error) {
	g.mu.RLock()
	adapter, ok := g.adapters[id]
	g.mu.RUnlock()
	if !ok {
		return nil, &UnknownProviderError{ID: id}
	}

	if !forceRefresh && g.cache != nil {
		if models, hit := g.cache.Get(ctx, id); hit {
			return models, nil
		}
	}

	models := adapter.ListModels(ctx)
	if g.cache != nil {
		g.cache.Set(ctx, id, models, g.cacheTTL)
	}
	return models, nil
}

// Status 聚合全部提供商的探测结果
// 每个提供商独立探测，单个失败不影响其余条目。
func (g *Gateway) Status(ctx context.Context) []entity.ProviderStatus {
	ctx, span := tracer.Start(ctx, "gateway.Status")
	defer span.End()

	g.mu.RLock()
	ids := make([]string, 0, len(g.adapters))
	for id := range g.adapters {
		ids = append(ids, id)
	}
	active := g.active
	g.mu.RUnlock()
	sort.Strings(ids)

	statuses := make([]entity.ProviderStatus, len(ids))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, id := range ids {
		eg.Go(func() error {
			g.mu.RLock()
			adapter := g.adapters[id]
			settings := g.settings[id]
			g.mu.RUnlock()

			st := entity.ProviderStatus{
				ID:            id,
				Name:          adapter.Name(),
				Active:        id == active,
				Enabled:       settings.Enabled,
				CredentialSet: settings.APIKey != "",
			}

			func() {
				defer func() {
					if r := recover(); r != nil {
						st.Error = fmt.Sprintf("status probe panic: %v", r)
					}
				}()
				st.Connected = adapter.TestConnection(egCtx)
				st.ModelCount = len(adapter.ListModels(egCtx))
			}()

			statuses[i] = st
			return nil
		})
	}
	eg.Wait()
	return statuses
}

// Complete 用活跃提供商执行一次补全调用（含重试）
// 模型解析顺序：请求指定 > 提供商默认；两者皆空按配置错误处理。
func (g *Gateway) Complete(ctx context.Context, req llm.CompletionRequest) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "gateway.Complete")
	defer span.End()

	g.mu.RLock()
	active := g.active
	adapter, ok := g.adapters[active]
	settings := g.settings[active]
	g.mu.RUnlock()
	if !ok {
		return nil, &UnknownProviderError{ID: active}
	}

	if req.Model == "" {
		req.Model = settings.DefaultModel
	}
	if req.Model == "" {
		return nil, &UnknownModelError{Provider: active}
	}

	// 提供商声明的系统指令注入到消息头部
	if settings.SystemPrompt != "" && (len(req.Messages) == 0 || req.Messages[0].Role != llm.RoleSystem) {
		req.Messages = append([]llm.Message{{Role: llm.RoleSystem, Content: settings.SystemPrompt}}, req.Messages...)
	}

	result, attempts, err := g.retry.execute(ctx, adapter, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &Outcome{
		Text:     result.Text,
		Provider: active,
		Model:    result.Model,
		Attempts: attempts,
	}, nil
}

// persist 将当前注册表状态写入存储
func (g *Gateway) persist(ctx context.Context) error {
	if g.registry == nil {
		return nil
	}

	g.mu.RLock()
	state := &entity.ProviderState{
		Active:    g.active,
		Providers: make(map[string]entity.ProviderSettings, len(g.settings)),
	}
	for id, s := range g.settings {
		state.Providers[id] = s
	}
	g.mu.RUnlock()

	return g.registry.Save(ctx, state)
}
