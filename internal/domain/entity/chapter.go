// Package entity 定义领域实体
package entity

import (
	"time"
)

// Chapter 章节实体
// Index 从 0 开始；落盘目录名使用 Index+1（chapter_1 起）。
type Chapter struct {
	WorkID    string    `json:"work_id"`
	Index     int       `json:"index"`
	Title     string    `json:"title"`
	Outline   string    `json:"outline,omitempty"`
	Content   string    `json:"content,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	WordCount int       `json:"word_count"`
	IsFinal   bool      `json:"is_final"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewChapter 创建新章节
func NewChapter(workID string, index int, title string) *Chapter {
	now := time.Now()
	return &Chapter{
		WorkID:    workID,
		Index:     index,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetContent 设置章节内容并更新字数
func (c *Chapter) SetContent(content string) {
	c.Content = content
	c.WordCount = len([]rune(content))
	c.UpdatedAt = time.Now()
}

// ChapterOutline 故事线中的单章概要
type ChapterOutline struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Synopsis string `json:"synopsis"`
}
