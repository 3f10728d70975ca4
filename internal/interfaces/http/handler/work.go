package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"z-storycraft-api/internal/application/job"
	"z-storycraft-api/internal/domain/entity"
	"z-storycraft-api/internal/domain/repository"
	"z-storycraft-api/internal/interfaces/http/dto"
	"z-storycraft-api/pkg/logger"
)

// WorkHandler 作品生成处理器
type WorkHandler struct {
	runner *job.Runner
	store  repository.ChapterStore
}

// NewWorkHandler 创建作品生成处理器
func NewWorkHandler(runner *job.Runner, store repository.ChapterStore) *WorkHandler {
	return &WorkHandler{runner: runner, store: store}
}

// Create 启动一个生成任务
// 生成在后台执行，立即返回任务快照；同一时间只允许一个任务。
func (h *WorkHandler) Create(c *gin.Context) {
	var req dto.CreateWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	work := entity.NewWork(req.Title, req.Premise, req.Chapters)
	work.Author = req.Author

	snap, err := h.runner.Start(work, req.WritingStyle)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	logger.Info(c.Request.Context(), "generation job started",
		"work_id", work.ID, "chapters", req.Chapters)
	dto.Accepted(c, dto.NewWorkResponse(snap))
}

// Get 返回作品生成任务的当前状态
func (h *WorkHandler) Get(c *gin.Context) {
	snap, err := h.runner.Get(c.Param("id"))
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.NewWorkResponse(snap))
}

// Cancel 请求取消运行中的生成任务
// 取消在流水线阶段边界生效，返回请求时刻的任务快照。
func (h *WorkHandler) Cancel(c *gin.Context) {
	snap, err := h.runner.Cancel(c.Param("id"))
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.NewWorkResponse(snap))
}

// GetChapter 返回指定章节的正文与摘要
// :idx 是 1 起的章节号。
func (h *WorkHandler) GetChapter(c *gin.Context) {
	ctx := c.Request.Context()
	workID := c.Param("id")

	num, err := strconv.Atoi(c.Param("idx"))
	if err != nil || num < 1 {
		dto.BadRequest(c, "chapter number must be a positive integer")
		return
	}
	index := num - 1

	content, ok := h.store.LoadUnit(ctx, workID, index)
	if !ok {
		dto.NotFound(c, "chapter not found")
		return
	}

	ch := entity.NewChapter(workID, index, "")
	if title, ok := h.store.UnitTitle(ctx, workID, index); ok {
		ch.Title = title
	}
	ch.SetContent(content)
	if summary, ok := h.store.LoadSummary(ctx, workID, index); ok {
		ch.Summary = summary
	}
	dto.Success(c, dto.NewChapterResponse(ch))
}
