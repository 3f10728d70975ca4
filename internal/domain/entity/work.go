// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/google/uuid"
)

// WorkStage 作品生成阶段
type WorkStage string

const (
	StagePlanning    WorkStage = "planning"
	StageOutlining   WorkStage = "outlining"
	StageWriting     WorkStage = "writing"
	StageSummarizing WorkStage = "summarizing"
	StageDone        WorkStage = "done"
	StageFailed      WorkStage = "failed"
)

// Work 一部待生成的作品
type Work struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author,omitempty"`
	Premise       string    `json:"premise"`
	TotalChapters int       `json:"total_chapters"`
	Stage         WorkStage `json:"stage"`
	// CurrentChapter 写作/摘要阶段的当前章节下标（0 起）
	CurrentChapter int              `json:"current_chapter"`
	Plot           string           `json:"plot,omitempty"`
	Characters     string           `json:"characters,omitempty"`
	Outline        string           `json:"outline,omitempty"`
	Storyline      []ChapterOutline `json:"storyline,omitempty"`
	ErrorMessage   string           `json:"error_message,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// NewWork 创建新作品
func NewWork(title, premise string, totalChapters int) *Work {
	now := time.Now()
	return &Work{
		ID:            uuid.New().String(),
		Title:         title,
		Premise:       premise,
		TotalChapters: totalChapters,
		Stage:         StagePlanning,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Advance 推进到指定阶段
func (w *Work) Advance(stage WorkStage) {
	w.Stage = stage
	w.UpdatedAt = time.Now()
}

// Fail 标记生成失败
func (w *Work) Fail(errMsg string) {
	w.Stage = StageFailed
	w.ErrorMessage = errMsg
	w.UpdatedAt = time.Now()
}

// IsTerminal 是否处于终态
func (w *Work) IsTerminal() bool {
	return w.Stage == StageDone || w.Stage == StageFailed
}
