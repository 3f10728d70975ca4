// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"z-storycraft-api/internal/infrastructure/persistence/redis"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	storyDir string
	redis    *redis.Client
}

// NewHealthHandler 创建健康检查处理器
// redisClient 可以为 nil（未启用 redis 时）。
func NewHealthHandler(storyDir string, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{
		storyDir: storyDir,
		redis:    redisClient,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status string `json:"status"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready 就绪检查接口
// 章节存储目录必须可用；redis 是可选缓存，不可用只降级。
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]*readinessCheck{
		"storage": {Status: "unknown"},
	}
	ready := true

	if info, err := os.Stat(h.storyDir); err != nil || !info.IsDir() {
		checks["storage"].Status = "error"
		if err != nil {
			checks["storage"].Error = err.Error()
		} else {
			checks["storage"].Error = "story dir is not a directory"
		}
		ready = false
	} else {
		checks["storage"].Status = "ok"
	}

	if h.redis != nil {
		check := &readinessCheck{}
		start := time.Now()
		err := h.redis.Ping(ctx)
		check.LatencyMs = time.Since(start).Milliseconds()
		if err != nil {
			check.Status = "degraded"
			check.Error = err.Error()
		} else {
			check.Status = "ok"
		}
		checks["redis"] = check
	}

	resp := readinessResponse{Status: "ok", Checks: checks}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
