package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"z-storycraft-api/internal/domain/entity"
	"z-storycraft-api/internal/domain/repository"
)

// MetricsLog 调用监控记录的 JSON 文件持久化
// 每次追加整体重写文件，只保留最近 maxRecords 条。
type MetricsLog struct {
	path       string
	maxRecords int
	mu         sync.Mutex
}

var _ repository.MetricsLog = (*MetricsLog)(nil)

// NewMetricsLog 创建监控记录存储
func NewMetricsLog(path string, maxRecords int) *MetricsLog {
	if maxRecords <= 0 {
		maxRecords = 1000
	}
	return &MetricsLog{path: path, maxRecords: maxRecords}
}

// Append 追加一条记录并裁剪到保留上限
func (l *MetricsLog) Append(ctx context.Context, metric entity.CallMetric) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.read()
	if err != nil {
		return err
	}

	records = append(records, metric)
	if len(records) > l.maxRecords {
		records = records[len(records)-l.maxRecords:]
	}
	return l.write(records)
}

// List 按时间顺序返回全部记录
func (l *MetricsLog) List(ctx context.Context) ([]entity.CallMetric, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

func (l *MetricsLog) read() ([]entity.CallMetric, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read metrics log: %w", err)
	}

	var records []entity.CallMetric
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse metrics log: %w", err)
	}
	return records, nil
}

func (l *MetricsLog) write(records []entity.CallMetric) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode metrics log: %w", err)
	}
	if err := os.WriteFile(l.path, raw, 0o644); err != nil {
		return fmt.Errorf("write metrics log: %w", err)
	}
	return nil
}
