// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"z-storycraft-api/internal/config"
	"z-storycraft-api/internal/interfaces/http/handler"
	"z-storycraft-api/internal/interfaces/http/middleware"
)

// Handlers 路由需要的全部处理器
type Handlers struct {
	Health   *handler.HealthHandler
	Provider *handler.ProviderHandler
	Work     *handler.WorkHandler
	Monitor  *handler.MonitorHandler
}

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers Handlers
}

// New 创建新的路由器
func New(cfg *config.Config, handlers Handlers) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
	}
	r.setupMiddleware()
	r.setupRoutes()
	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}
	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	// 系统端点
	r.engine.GET("/health", r.handlers.Health.Health)
	r.engine.GET("/ready", r.handlers.Health.Ready)
	r.engine.GET("/live", r.handlers.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.engine.Group("/v1")
	{
		providers := v1.Group("/providers")
		{
			providers.GET("", r.handlers.Provider.List)
			providers.PUT("/:id/config", r.handlers.Provider.UpdateConfig)
			providers.POST("/:id/activate", r.handlers.Provider.Activate)
			providers.GET("/:id/models", r.handlers.Provider.Models)
		}

		works := v1.Group("/works")
		{
			works.POST("", r.handlers.Work.Create)
			works.GET("/:id", r.handlers.Work.Get)
			works.DELETE("/:id", r.handlers.Work.Cancel)
			works.GET("/:id/chapters/:idx", r.handlers.Work.GetChapter)
		}

		monitorGroup := v1.Group("/monitor")
		{
			monitorGroup.GET("/summary", r.handlers.Monitor.Summary)
		}
	}
}
