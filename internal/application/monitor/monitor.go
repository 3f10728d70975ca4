// Package monitor 实现补全调用监控与成本核算
// 包装网关的补全入口，为每次调用序列（含其全部重试）
// 追加恰好一条持久化记录，并更新进程级 prometheus 指标。
package monitor

import (
	"context"
	"time"

	"z-storycraft-api/internal/application/provider"
	"z-storycraft-api/internal/domain/entity"
	"z-storycraft-api/internal/domain/repository"
	"z-storycraft-api/internal/infrastructure/llm"
	"z-storycraft-api/pkg/logger"
	"z-storycraft-api/pkg/metrics"
)

// CompletionGateway 监控包装的网关入口
type CompletionGateway interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*provider.Outcome, error)
	Active() (string, entity.ProviderSettings)
}

// Monitor 补全调用监控器
type Monitor struct {
	gateway CompletionGateway
	log     repository.MetricsLog
	enabled bool
	now     func() time.Time
}

// NewMonitor 创建监控器
func NewMonitor(gateway CompletionGateway, log repository.MetricsLog, enabled bool) *Monitor {
	return &Monitor{
		gateway: gateway,
		log:     log,
		enabled: enabled,
		now:     time.Now,
	}
}

// Complete 执行补全并记录监控数据
// operation 标注调用用途（plot / storyline / chapter / summary 等）。
func (m *Monitor) Complete(ctx context.Context, operation string, req llm.CompletionRequest) (*provider.Outcome, error) {
	start := m.now()

	var prompt string
	for _, msg := range req.Messages {
		prompt += msg.Content
	}
	promptTokens := llm.EstimateTokens(prompt)

	outcome, err := m.gateway.Complete(ctx, req)
	duration := m.now().Sub(start)

	metric := entity.CallMetric{
		Timestamp:    start,
		Operation:    operation,
		PromptTokens: promptTokens,
		DurationMs:   duration.Milliseconds(),
	}

	if err != nil {
		metric.Success = false
		metric.ErrorMessage = err.Error()
		activeID, activeSettings := m.gateway.Active()
		metric.Provider = activeID
		metric.Model = req.Model
		if metric.Model == "" {
			metric.Model = activeSettings.DefaultModel
		}
		metric.Attempts = 1
		if pe, ok := llm.AsProviderError(err); ok {
			metric.ErrorKind = string(llm.KindOf(err))
			if pe.Provider != "" {
				metric.Provider = pe.Provider
			}
			if pe.Model != "" {
				metric.Model = pe.Model
			}
			if pe.Attempts > 0 {
				metric.Attempts = pe.Attempts
			}
		}
		metric.TotalTokens = promptTokens

		m.record(ctx, metric)
		metrics.LLMCallTotal.WithLabelValues(metric.Provider, metric.Model, "error").Inc()
		metrics.LLMCallDuration.WithLabelValues(metric.Provider, metric.Model).Observe(duration.Seconds())
		return nil, err
	}

	completionTokens := llm.EstimateTokens(outcome.Text)
	metric.Success = true
	metric.Provider = outcome.Provider
	metric.Model = outcome.Model
	metric.Attempts = outcome.Attempts
	metric.CompletionTokens = completionTokens
	metric.TotalTokens = promptTokens + completionTokens
	metric.Cost = EstimateCost(outcome.Provider, outcome.Model, promptTokens, completionTokens)

	m.record(ctx, metric)
	metrics.LLMCallTotal.WithLabelValues(metric.Provider, metric.Model, "success").Inc()
	metrics.LLMCallDuration.WithLabelValues(metric.Provider, metric.Model).Observe(duration.Seconds())
	metrics.LLMTokensUsed.WithLabelValues(metric.Provider, metric.Model, "prompt").Add(float64(promptTokens))
	metrics.LLMTokensUsed.WithLabelValues(metric.Provider, metric.Model, "completion").Add(float64(completionTokens))

	return outcome, nil
}

func (m *Monitor) record(ctx context.Context, metric entity.CallMetric) {
	if !m.enabled || m.log == nil {
		return
	}
	if err := m.log.Append(ctx, metric); err != nil {
		// 监控落盘失败不影响业务调用
		logger.Warn(ctx, "metrics append failed", "error", err)
	}
}

// ProviderStats 单个提供商的窗口统计
type ProviderStats struct {
	Calls        int     `json:"calls"`
	Successful   int     `json:"successful"`
	Cost         float64 `json:"cost"`
	Tokens       int     `json:"tokens"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// Summary 监控摘要
type Summary struct {
	TotalCalls      int                      `json:"total_calls"`
	SuccessfulCalls int                      `json:"successful_calls"`
	FailedCalls     int                      `json:"failed_calls"`
	TotalCost       float64                  `json:"total_cost"`
	TotalTokens     int                      `json:"total_tokens"`
	AvgLatencyMs    float64                  `json:"average_latency_ms"`
	ProviderStats   map[string]ProviderStats `json:"provider_stats"`
}

// Summarize 返回最近 hours 小时的监控摘要
// 空窗口返回全零摘要，不是错误。
func (m *Monitor) Summarize(ctx context.Context, hours int) (*Summary, error) {
	summary := &Summary{ProviderStats: make(map[string]ProviderStats)}
	if m.log == nil {
		return summary, nil
	}

	records, err := m.log.List(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := m.now().Add(-time.Duration(hours) * time.Hour)
	var totalLatency float64
	for _, r := range records {
		if !r.Timestamp.After(cutoff) {
			continue
		}

		summary.TotalCalls++
		if r.Success {
			summary.SuccessfulCalls++
		} else {
			summary.FailedCalls++
		}
		summary.TotalCost += r.Cost
		summary.TotalTokens += r.TotalTokens
		totalLatency += float64(r.DurationMs)

		stats := summary.ProviderStats[r.Provider]
		stats.Calls++
		if r.Success {
			stats.Successful++
		}
		stats.Cost += r.Cost
		stats.Tokens += r.TotalTokens
		stats.AvgLatencyMs += float64(r.DurationMs)
		summary.ProviderStats[r.Provider] = stats
	}

	if summary.TotalCalls > 0 {
		summary.AvgLatencyMs = totalLatency / float64(summary.TotalCalls)
	}
	for id, stats := range summary.ProviderStats {
		if stats.Calls > 0 {
			stats.AvgLatencyMs /= float64(stats.Calls)
			summary.ProviderStats[id] = stats
		}
	}
	return summary, nil
}
