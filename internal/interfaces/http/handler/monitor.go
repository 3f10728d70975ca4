package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"z-storycraft-api/internal/application/monitor"
	"z-storycraft-api/internal/interfaces/http/dto"
	"z-storycraft-api/pkg/logger"
)

// MonitorHandler 调用监控处理器
type MonitorHandler struct {
	monitor *monitor.Monitor
}

// NewMonitorHandler 创建调用监控处理器
func NewMonitorHandler(m *monitor.Monitor) *MonitorHandler {
	return &MonitorHandler{monitor: m}
}

// Summary 返回最近 hours 小时的调用统计
// 缺省窗口 24 小时，空窗口返回全零摘要。
func (h *MonitorHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()

	hours := 24
	if raw := c.Query("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			dto.BadRequest(c, "hours must be a positive integer")
			return
		}
		hours = parsed
	}

	summary, err := h.monitor.Summarize(ctx, hours)
	if err != nil {
		logger.Error(ctx, "failed to summarize call metrics", err)
		dto.InternalError(c, "failed to summarize call metrics")
		return
	}
	dto.Success(c, summary)
}
