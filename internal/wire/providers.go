// Package wire 提供依赖注入配置
package wire

import (
	"path/filepath"

	"z-storycraft-api/internal/application/job"
	"z-storycraft-api/internal/application/monitor"
	"z-storycraft-api/internal/application/provider"
	"z-storycraft-api/internal/application/story"
	"z-storycraft-api/internal/config"
	"z-storycraft-api/internal/domain/repository"
	"z-storycraft-api/internal/infrastructure/persistence/file"
	"z-storycraft-api/internal/infrastructure/persistence/memory"
	"z-storycraft-api/internal/infrastructure/persistence/redis"
	"z-storycraft-api/internal/interfaces/http/handler"
	"z-storycraft-api/internal/interfaces/http/router"
)

// ProvideChapterStore 章节文件存储
func ProvideChapterStore(cfg *config.Config) repository.ChapterStore {
	return file.NewChapterStore(cfg.Storage.StoryDir)
}

// ProvideProviderRegistry 提供商运行期配置存储
func ProvideProviderRegistry(cfg *config.Config) repository.ProviderRegistry {
	return file.NewProviderRegistry(filepath.Join(cfg.Storage.DataDir, "providers.json"))
}

// ProvideMetricsLog 调用指标持久化日志
func ProvideMetricsLog(cfg *config.Config) repository.MetricsLog {
	return file.NewMetricsLog(filepath.Join(cfg.Storage.DataDir, "metrics.json"), cfg.Monitoring.MaxRecords)
}

// ProvideDocumentExporter 成品文档导出器
func ProvideDocumentExporter(cfg *config.Config) repository.DocumentExporter {
	return file.NewTextExporter(cfg.Storage.ExportDir)
}

// ProvideRedisClient 创建 Redis 客户端；未启用时返回 nil
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideModelCache 模型目录缓存；无 Redis 时退化为进程内缓存
func ProvideModelCache(client *redis.Client) repository.ModelCache {
	if client == nil {
		return memory.NewModelCache()
	}
	return redis.NewModelCache(client)
}

// ProvideGateway LLM 提供商网关
func ProvideGateway(cfg *config.Config, registry repository.ProviderRegistry, cache repository.ModelCache) (*provider.Gateway, error) {
	return provider.NewGateway(cfg, provider.Options{
		Registry: registry,
		Cache:    cache,
	})
}

// ProvideMonitor 补全调用监控器
func ProvideMonitor(cfg *config.Config, gateway *provider.Gateway, log repository.MetricsLog) *monitor.Monitor {
	return monitor.NewMonitor(gateway, log, cfg.Monitoring.Enabled)
}

// ProvidePipeline 生成流水线，补全调用经由监控器
func ProvidePipeline(cfg *config.Config, m *monitor.Monitor, store repository.ChapterStore, exporter repository.DocumentExporter) *story.Pipeline {
	return story.NewPipeline(m, store, exporter, cfg.Pipeline)
}

// ProvideRunner 任务管理器
func ProvideRunner(pipeline *story.Pipeline) *job.Runner {
	return job.NewRunner(pipeline)
}

// ProvideHandlers 路由处理器集合
func ProvideHandlers(cfg *config.Config, gateway *provider.Gateway, runner *job.Runner, store repository.ChapterStore, m *monitor.Monitor, redisClient *redis.Client) router.Handlers {
	return router.Handlers{
		Health:   handler.NewHealthHandler(cfg.Storage.StoryDir, redisClient),
		Provider: handler.NewProviderHandler(gateway),
		Work:     handler.NewWorkHandler(runner, store),
		Monitor:  handler.NewMonitorHandler(m),
	}
}

// ProvideRouter HTTP 路由器
func ProvideRouter(cfg *config.Config, handlers router.Handlers) *router.Router {
	return router.New(cfg, handlers)
}
