// Package job 管理进程内的生成任务
// 一次只允许一个运行中的生成任务，HTTP 层通过任务状态轮询
// 进度，通过取消函数协作式终止流水线。
package job

import (
	"context"
	"sync"
	"time"

	"z-storycraft-api/internal/domain/entity"
	"z-storycraft-api/pkg/errors"
	"z-storycraft-api/pkg/logger"
	"z-storycraft-api/pkg/metrics"
)

// Status 任务状态
type Status string

const (
	StatusRunning  Status = "running"
	StatusDone     Status = "done"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Pipeline 任务执行体，由生成流水线实现
type Pipeline interface {
	Run(ctx context.Context, work *entity.Work, writingStyle string) error
}

// Snapshot 任务的一致性视图
// 运行中时 Work 是启动参数；终态后是包含全部产物的最终状态。
type Snapshot struct {
	Status     Status      `json:"status"`
	Error      string      `json:"error,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at,omitempty"`
	Work       entity.Work `json:"work"`
}

type job struct {
	status     Status
	errMsg     string
	startedAt  time.Time
	finishedAt time.Time
	view       entity.Work
	cancel     context.CancelFunc
	canceled   bool
}

// Runner 进程内任务管理器
type Runner struct {
	mu       sync.Mutex
	pipeline Pipeline
	jobs     map[string]*job
	active   string
}

// NewRunner 创建任务管理器
func NewRunner(pipeline Pipeline) *Runner {
	return &Runner{
		pipeline: pipeline,
		jobs:     make(map[string]*job),
	}
}

// Start 启动生成任务并立即返回
// 已有运行中的任务时拒绝，流水线在独立 goroutine 中执行。
func (r *Runner) Start(work *entity.Work, writingStyle string) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != "" {
		return nil, errors.ErrJobAlreadyActive
	}

	runCtx, cancel := context.WithCancel(context.Background())
	j := &job{
		status:    StatusRunning,
		startedAt: time.Now(),
		view:      *work,
		cancel:    cancel,
	}
	r.jobs[work.ID] = j
	r.active = work.ID
	metrics.ActiveGenerationJobs.Inc()

	go r.run(runCtx, work, writingStyle)

	snap := snapshotOf(j)
	return &snap, nil
}

func (r *Runner) run(ctx context.Context, work *entity.Work, writingStyle string) {
	err := r.pipeline.Run(ctx, work, writingStyle)

	r.mu.Lock()
	defer r.mu.Unlock()
	j := r.jobs[work.ID]
	j.finishedAt = time.Now()
	j.view = *work

	switch {
	case err == nil:
		j.status = StatusDone
	case j.canceled:
		j.status = StatusCanceled
		j.errMsg = err.Error()
	default:
		j.status = StatusFailed
		j.errMsg = err.Error()
	}

	r.active = ""
	metrics.ActiveGenerationJobs.Dec()
	logger.Info(context.Background(), "generation job finished",
		"work_id", work.ID, "status", string(j.status))
}

// Get 返回指定作品的任务快照
func (r *Runner) Get(workID string) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[workID]
	if !ok {
		return nil, errors.ErrJobNotFound
	}
	snap := snapshotOf(j)
	return &snap, nil
}

// Cancel 请求取消运行中的任务
// 取消在流水线阶段边界生效，终态任务返回当前快照。
func (r *Runner) Cancel(workID string) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[workID]
	if !ok {
		return nil, errors.ErrJobNotFound
	}
	if j.status == StatusRunning && !j.canceled {
		j.canceled = true
		j.cancel()
	}
	snap := snapshotOf(j)
	return &snap, nil
}

func snapshotOf(j *job) Snapshot {
	return Snapshot{
		Status:     j.status,
		Error:      j.errMsg,
		StartedAt:  j.startedAt,
		FinishedAt: j.finishedAt,
		Work:       j.view,
	}
}
