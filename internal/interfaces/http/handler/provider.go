package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"z-storycraft-api/internal/application/provider"
	"z-storycraft-api/internal/domain/entity"
	"z-storycraft-api/internal/interfaces/http/dto"
	"z-storycraft-api/pkg/logger"
)

// ProviderHandler 提供商管理处理器
type ProviderHandler struct {
	gateway *provider.Gateway
}

// NewProviderHandler 创建提供商管理处理器
func NewProviderHandler(gateway *provider.Gateway) *ProviderHandler {
	return &ProviderHandler{gateway: gateway}
}

// List 返回全部提供商的连接状态
// 逐个探测连通性并拉取模型目录，单个提供商故障不影响其余。
func (h *ProviderHandler) List(c *gin.Context) {
	statuses := h.gateway.Status(c.Request.Context())
	dto.Success(c, statuses)
}

// UpdateConfig 更新单个提供商的配置
// 留空字段保持不变，更新立即持久化并重建适配器。
func (h *ProviderHandler) UpdateConfig(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req dto.UpdateProviderConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	patch := entity.ProviderSettings{
		APIKey:       req.APIKey,
		BaseURL:      req.BaseURL,
		SystemPrompt: req.SystemPrompt,
		DefaultModel: req.DefaultModel,
	}
	if err := h.gateway.UpdateSettings(ctx, id, patch); err != nil {
		h.respondGatewayError(c, err)
		return
	}

	settings, err := h.gateway.Settings(id)
	if err != nil {
		h.respondGatewayError(c, err)
		return
	}
	dto.Success(c, dto.ProviderConfigResponse{
		ID:           settings.ID,
		Name:         settings.Name,
		BaseURL:      settings.BaseURL,
		SystemPrompt: settings.SystemPrompt,
		DefaultModel: settings.DefaultModel,
		APIKeySet:    settings.APIKey != "",
		APIKeyTail:   dto.MaskAPIKey(settings.APIKey),
		Enabled:      settings.Enabled,
	})
}

// Activate 切换激活的提供商
func (h *ProviderHandler) Activate(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if err := h.gateway.Switch(ctx, id); err != nil {
		h.respondGatewayError(c, err)
		return
	}
	active, _ := h.gateway.Active()
	dto.Success(c, dto.ActivateResponse{Active: active})
}

// Models 返回提供商的模型目录
// refresh=true 跳过缓存强制拉取。
func (h *ProviderHandler) Models(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	refresh := c.Query("refresh") == "true"

	models, err := h.gateway.Models(ctx, id, refresh)
	if err != nil {
		h.respondGatewayError(c, err)
		return
	}
	dto.Success(c, dto.ModelsResponse{Provider: id, Models: models})
}

func (h *ProviderHandler) respondGatewayError(c *gin.Context, err error) {
	var unknown *provider.UnknownProviderError
	if errors.As(err, &unknown) {
		dto.NotFound(c, err.Error())
		return
	}
	logger.Error(c.Request.Context(), "provider operation failed", err,
		"provider", c.Param("id"))
	dto.FromError(c, err)
}
