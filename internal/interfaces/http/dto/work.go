package dto

import (
	"time"

	"z-storycraft-api/internal/application/job"
	"z-storycraft-api/internal/domain/entity"
)

// CreateWorkRequest 创建生成任务请求
type CreateWorkRequest struct {
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Premise      string `json:"premise" binding:"required"`
	Chapters     int    `json:"chapters" binding:"required,min=1,max=200"`
	WritingStyle string `json:"writing_style,omitempty"`
}

// WorkResponse 作品与任务状态响应
type WorkResponse struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Author         string     `json:"author,omitempty"`
	Premise        string     `json:"premise"`
	TotalChapters  int        `json:"total_chapters"`
	JobStatus      string     `json:"job_status"`
	Stage          string     `json:"stage"`
	CurrentChapter int        `json:"current_chapter"`
	Error          string     `json:"error,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// NewWorkResponse 由任务快照构建响应
func NewWorkResponse(snap *job.Snapshot) *WorkResponse {
	resp := &WorkResponse{
		ID:             snap.Work.ID,
		Title:          snap.Work.Title,
		Author:         snap.Work.Author,
		Premise:        snap.Work.Premise,
		TotalChapters:  snap.Work.TotalChapters,
		JobStatus:      string(snap.Status),
		Stage:          string(snap.Work.Stage),
		CurrentChapter: snap.Work.CurrentChapter,
		Error:          snap.Error,
		StartedAt:      snap.StartedAt,
	}
	if !snap.FinishedAt.IsZero() {
		finished := snap.FinishedAt
		resp.FinishedAt = &finished
	}
	return resp
}

// ChapterResponse 章节内容响应
type ChapterResponse struct {
	WorkID    string `json:"work_id"`
	Index     int    `json:"index"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Summary   string `json:"summary,omitempty"`
	WordCount int    `json:"word_count"`
}

// NewChapterResponse 由章节实体构建响应
func NewChapterResponse(ch *entity.Chapter) *ChapterResponse {
	return &ChapterResponse{
		WorkID:    ch.WorkID,
		Index:     ch.Index,
		Title:     ch.Title,
		Content:   ch.Content,
		Summary:   ch.Summary,
		WordCount: ch.WordCount,
	}
}
