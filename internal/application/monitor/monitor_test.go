package monitor

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"z-storycraft-api/internal/application/provider"
	"z-storycraft-api/internal/domain/entity"
	"z-storycraft-api/internal/infrastructure/llm"
)

// gatewayStub 可编程的网关替身
type gatewayStub struct {
	outcome *provider.Outcome
	err     error
}

func (g *gatewayStub) Complete(ctx context.Context, req llm.CompletionRequest) (*provider.Outcome, error) {
	return g.outcome, g.err
}

func (g *gatewayStub) Active() (string, entity.ProviderSettings) {
	return "deepseek", entity.ProviderSettings{ID: "deepseek", DefaultModel: "deepseek-chat"}
}

// logStub 进程内监控日志
type logStub struct {
	mu      sync.Mutex
	records []entity.CallMetric
}

func (l *logStub) Append(ctx context.Context, m entity.CallMetric) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, m)
	return nil
}

func (l *logStub) List(ctx context.Context) ([]entity.CallMetric, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]entity.CallMetric(nil), l.records...), nil
}

func TestCompleteRecordsOneMetricOnSuccess(t *testing.T) {
	log := &logStub{}
	gw := &gatewayStub{outcome: &provider.Outcome{
		Text: "生成的章节内容，大约四十个字符长度的文本。", Provider: "deepseek", Model: "deepseek-chat", Attempts: 2,
	}}
	m := NewMonitor(gw, log, true)

	_, err := m.Complete(context.Background(), "chapter", llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "写一章"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if len(log.records) != 1 {
		t.Fatalf("records = %d, want exactly 1 per attempt-sequence", len(log.records))
	}
	r := log.records[0]
	if !r.Success || r.Provider != "deepseek" || r.Attempts != 2 {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.CompletionTokens == 0 || r.TotalTokens != r.PromptTokens+r.CompletionTokens {
		t.Errorf("token accounting wrong: %+v", r)
	}
	if r.Cost <= 0 {
		t.Errorf("cost = %v, want > 0", r.Cost)
	}
	if r.Operation != "chapter" {
		t.Errorf("operation = %q", r.Operation)
	}
}

func TestCompleteRecordsFailure(t *testing.T) {
	log := &logStub{}
	gw := &gatewayStub{err: &llm.ProviderError{
		Kind: llm.KindRateLimit, Provider: "deepseek", Model: "deepseek-chat", Attempts: 3, StatusCode: 429,
	}}
	m := NewMonitor(gw, log, true)

	_, err := m.Complete(context.Background(), "chapter", llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "写一章"}},
	})
	if err == nil {
		t.Fatal("expected error to propagate")
	}

	if len(log.records) != 1 {
		t.Fatalf("records = %d, want 1", len(log.records))
	}
	r := log.records[0]
	if r.Success {
		t.Error("success should be false")
	}
	if r.ErrorKind != string(llm.KindRateLimit) || r.Attempts != 3 {
		t.Errorf("unexpected record: %+v", r)
	}
	// 失败记录保留终止错误的完整文本，不止分类
	if r.ErrorMessage == "" {
		t.Error("failure record should persist the terminal error message")
	}
	if !strings.Contains(r.ErrorMessage, "status=429") {
		t.Errorf("error message lost backend detail: %q", r.ErrorMessage)
	}
}

func TestSummarizeEmptyWindowAllZero(t *testing.T) {
	m := NewMonitor(&gatewayStub{}, &logStub{}, true)
	s, err := m.Summarize(context.Background(), 24)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.TotalCalls != 0 || s.TotalCost != 0 || s.AvgLatencyMs != 0 {
		t.Errorf("expected all-zero summary: %+v", s)
	}
	if s.ProviderStats == nil || len(s.ProviderStats) != 0 {
		t.Errorf("expected empty provider stats map: %+v", s.ProviderStats)
	}
}

func TestSummarizeWindowAndBreakdown(t *testing.T) {
	log := &logStub{}
	now := time.Now()
	log.records = []entity.CallMetric{
		{Timestamp: now.Add(-30 * time.Minute), Provider: "deepseek", TotalTokens: 100, Cost: 0.01, DurationMs: 200, Success: true},
		{Timestamp: now.Add(-45 * time.Minute), Provider: "deepseek", TotalTokens: 50, Cost: 0.005, DurationMs: 400, Success: false},
		{Timestamp: now.Add(-20 * time.Minute), Provider: "zhipu", TotalTokens: 80, Cost: 0.002, DurationMs: 100, Success: true},
		// 窗口之外
		{Timestamp: now.Add(-3 * time.Hour), Provider: "deepseek", TotalTokens: 999, Cost: 9.99, DurationMs: 999, Success: true},
	}
	m := NewMonitor(&gatewayStub{}, log, true)

	s, err := m.Summarize(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if s.TotalCalls != 3 || s.SuccessfulCalls != 2 || s.FailedCalls != 1 {
		t.Errorf("counts wrong: %+v", s)
	}
	if s.TotalTokens != 230 {
		t.Errorf("tokens = %d, want 230", s.TotalTokens)
	}
	ds := s.ProviderStats["deepseek"]
	if ds.Calls != 2 || ds.Successful != 1 || ds.AvgLatencyMs != 300 {
		t.Errorf("deepseek stats: %+v", ds)
	}
}

func TestEstimateCost(t *testing.T) {
	cases := []struct {
		name     string
		provider string
		model    string
		in, out  int
		want     float64
	}{
		{"exact model", "deepseek", "deepseek-chat", 1000, 1000, 0.0014 + 0.0028},
		{"provider default", "openrouter", "anything/custom", 1000, 1000, 0.002 + 0.006},
		{"generic fallback model", "deepseek", "deepseek-unlisted", 1000, 1000, 0.002 + 0.006},
		{"unknown provider", "mystery", "m", 1000, 1000, 2.0 / 1000 * 2000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EstimateCost(tc.provider, tc.model, tc.in, tc.out)
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("EstimateCost = %v, want %v", got, tc.want)
			}
		})
	}
}
