//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"

	"z-storycraft-api/internal/config"
	"z-storycraft-api/internal/interfaces/http/router"
)

// AppSet 全部应用依赖
var AppSet = wire.NewSet(
	ProvideChapterStore,
	ProvideProviderRegistry,
	ProvideMetricsLog,
	ProvideDocumentExporter,
	ProvideRedisClient,
	ProvideModelCache,
	ProvideGateway,
	ProvideMonitor,
	ProvidePipeline,
	ProvideRunner,
	ProvideHandlers,
	ProvideRouter,
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(AppSet)
	return nil, nil, nil
}
