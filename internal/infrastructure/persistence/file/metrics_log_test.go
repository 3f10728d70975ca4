package file

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"z-storycraft-api/internal/domain/entity"
)

func TestMetricsLogAppendAndList(t *testing.T) {
	log := NewMetricsLog(filepath.Join(t.TempDir(), "metrics.json"), 1000)
	ctx := context.Background()

	m := entity.CallMetric{
		Timestamp:        time.Now(),
		Provider:         "deepseek",
		Model:            "deepseek-chat",
		PromptTokens:     100,
		CompletionTokens: 50,
		TotalTokens:      150,
		Cost:             0.0003,
		Success:          true,
		Attempts:         1,
	}
	if err := log.Append(ctx, m); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := log.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 || records[0].Provider != "deepseek" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestMetricsLogCapsRecords(t *testing.T) {
	log := NewMetricsLog(filepath.Join(t.TempDir(), "metrics.json"), 10)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		m := entity.CallMetric{Provider: fmt.Sprintf("p%d", i), Timestamp: time.Now()}
		if err := log.Append(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	records, err := log.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 10 {
		t.Fatalf("len = %d, want 10", len(records))
	}
	// 保留的是最近的记录
	if records[0].Provider != "p15" || records[9].Provider != "p24" {
		t.Errorf("wrong window: first=%s last=%s", records[0].Provider, records[9].Provider)
	}
}

func TestMetricsLogEmpty(t *testing.T) {
	log := NewMetricsLog(filepath.Join(t.TempDir(), "metrics.json"), 10)
	records, err := log.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty, got %d", len(records))
	}
}
