// Package provider 实现 LLM 提供商网关
package provider

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"z-storycraft-api/internal/infrastructure/llm"
	"z-storycraft-api/pkg/logger"
	"z-storycraft-api/pkg/metrics"
)

// RetryPolicy 补全调用的重试策略
// 固定间隔、有限总次数；凭证/配额/请求格式错误不重试。
type RetryPolicy struct {
	// MaxAttempts 总尝试次数（含首次）
	MaxAttempts int
	// Delay 两次尝试之间的固定等待
	Delay time.Duration
}

// DefaultRetryPolicy 3 次尝试，间隔 5 秒
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 5 * time.Second}
}

// execute 按策略执行补全调用，返回结果和实际尝试次数
// 终止错误上会带上累计尝试次数。
func (p RetryPolicy) execute(ctx context.Context, adapter llm.Adapter, req llm.CompletionRequest) (*llm.CompletionResult, int, error) {
	attempts := 0

	op := func() (*llm.CompletionResult, error) {
		attempts++
		result, err := adapter.Complete(ctx, req)
		if err == nil {
			return result, nil
		}

		kind := llm.KindOf(err)
		metrics.LLMCallRetries.WithLabelValues(adapter.ID(), string(kind)).Inc()
		if !kind.Retryable() {
			return nil, backoff.Permanent(err)
		}
		logger.Warn(ctx, "completion attempt failed, will retry",
			"provider", adapter.ID(), "model", req.Model,
			"attempt", attempts, "kind", string(kind))
		return nil, err
	}

	result, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Delay)),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
	)
	if err != nil {
		if pe, ok := llm.AsProviderError(err); ok {
			pe.Attempts = attempts
		}
		return nil, attempts, err
	}
	return result, attempts, nil
}
