// Package llm 提供各 LLM 后端的适配器实现
package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind 补全调用失败的分类
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"     // 请求格式/参数错误
	KindAuth          ErrorKind = "auth"           // 凭证无效或权限不足
	KindQuota         ErrorKind = "quota"          // 余额不足或配额耗尽
	KindRateLimit     ErrorKind = "rate_limit"     // 调用频率限制
	KindContentPolicy ErrorKind = "content_policy" // 内容审核拦截
	KindServer        ErrorKind = "server"         // 后端 5xx
	KindNetwork       ErrorKind = "network"        // 传输层失败
)

// Retryable 该分类是否值得重试
// 凭证、配额、请求格式问题重试不会改变结果。
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindValidation, KindAuth, KindQuota:
		return false
	default:
		return true
	}
}

// ProviderError 补全调用的结构化错误
// RawBody 保留后端原始响应体，供排障与监控记录使用。
type ProviderError struct {
	Kind       ErrorKind
	Provider   string
	Model      string
	StatusCode int
	RawBody    string
	Attempts   int
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("llm %s call failed: kind=%s", e.Provider, e.Kind)
	if e.Model != "" {
		msg += fmt.Sprintf(" model=%s", e.Model)
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status=%d", e.StatusCode)
	}
	if e.Attempts > 0 {
		msg += fmt.Sprintf(" attempts=%d", e.Attempts)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	// 审核拦截重试同样的输入不会成功，提示调用方改写
	if e.Kind == KindContentPolicy {
		msg += " (input rejected by content moderation; modify the input before retrying)"
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is 支持 errors.Is 按 Kind 匹配
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf 提取错误的分类；非 ProviderError 视为网络错误
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindNetwork
}

// AsProviderError 提取链上的 ProviderError
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// classifyStatus 将 HTTP 状态码翻译为错误分类
// 403 默认按凭证问题处理，响应体带审核特征时归为内容拦截。
func classifyStatus(status int, body string) ErrorKind {
	switch {
	case status == 400 || status == 422:
		return KindValidation
	case status == 401:
		return KindAuth
	case status == 402:
		return KindQuota
	case status == 403:
		if looksLikeModeration(body) {
			return KindContentPolicy
		}
		return KindAuth
	case status == 429:
		return KindRateLimit
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}

func looksLikeModeration(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "content_policy") ||
		strings.Contains(lower, "content policy") ||
		strings.Contains(lower, "content_filter") ||
		strings.Contains(lower, "moderation")
}
