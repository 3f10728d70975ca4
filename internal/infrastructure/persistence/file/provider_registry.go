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

// ProviderRegistry 提供商运行期配置的 JSON 文件持久化
type ProviderRegistry struct {
	path string
	mu   sync.Mutex
}

var _ repository.ProviderRegistry = (*ProviderRegistry)(nil)

// NewProviderRegistry 创建注册表存储
func NewProviderRegistry(path string) *ProviderRegistry {
	return &ProviderRegistry{path: path}
}

// Load 读取持久化状态；文件不存在时返回 (nil, nil)
func (r *ProviderRegistry) Load(ctx context.Context) (*entity.ProviderState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read provider registry: %w", err)
	}

	var state entity.ProviderState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("parse provider registry: %w", err)
	}
	return &state, nil
}

// Save 整体持久化状态
func (r *ProviderRegistry) Save(ctx context.Context, state *entity.ProviderState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}

	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode provider registry: %w", err)
	}
	if err := os.WriteFile(r.path, raw, 0o644); err != nil {
		return fmt.Errorf("write provider registry: %w", err)
	}
	return nil
}
