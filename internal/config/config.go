// Package config 提供配置加载和管理功能
package config

import (
	"time"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Storage       StorageConfig       `yaml:"storage" mapstructure:"storage"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	LLM           LLMConfig           `yaml:"llm" mapstructure:"llm"`
	Pipeline      PipelineConfig      `yaml:"pipeline" mapstructure:"pipeline"`
	Monitoring    MonitoringConfig    `yaml:"monitoring" mapstructure:"monitoring"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// StorageConfig 本地存储配置
// 章节、提供商注册表、监控日志都是独立可读的平面文件，
// 供导出器和 UI 等外部协作方直接消费。
type StorageConfig struct {
	// DataDir 配置与监控文件所在目录
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
	// StoryDir 章节文件根目录（story/<work_id>/chapter_<n>/）
	StoryDir string `yaml:"story_dir" mapstructure:"story_dir"`
	// ExportDir 成品文档输出目录
	ExportDir string `yaml:"export_dir" mapstructure:"export_dir"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig Redis 配置；Enabled 为 false 时模型目录缓存退化为进程内缓存
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Password     string        `yaml:"password" mapstructure:"password"`
	DB           int           `yaml:"db" mapstructure:"db"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// LLMConfig LLM 配置
type LLMConfig struct {
	// ActiveProvider 启动时的活跃提供商；运行期切换通过网关持久化
	ActiveProvider string                    `yaml:"active_provider" mapstructure:"active_provider"`
	Providers      map[string]ProviderConfig `yaml:"providers" mapstructure:"providers"`
	// RequestTimeout 单次补全调用的 HTTP 超时
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	// ModelCacheTTL 模型目录缓存有效期
	ModelCacheTTL time.Duration `yaml:"model_cache_ttl" mapstructure:"model_cache_ttl"`
}

// ProviderConfig LLM 提供商配置
type ProviderConfig struct {
	Name         string `yaml:"name" mapstructure:"name"`
	APIKey       string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	SystemPrompt string `yaml:"system_prompt" mapstructure:"system_prompt"`
	DefaultModel string `yaml:"default_model" mapstructure:"default_model"`
	Enabled      bool   `yaml:"enabled" mapstructure:"enabled"`
}

// PipelineConfig 生成流水线配置
type PipelineConfig struct {
	// RecentFullChapters 上下文中保留全文的最近章节数
	RecentFullChapters int `yaml:"recent_full_chapters" mapstructure:"recent_full_chapters"`
	// SummaryChapters 上下文中保留摘要的较早章节数
	SummaryChapters int `yaml:"summary_chapters" mapstructure:"summary_chapters"`
	// MinChapterLength 低于该字符数的章节触发一次重写
	MinChapterLength int `yaml:"min_chapter_length" mapstructure:"min_chapter_length"`
	// StorylineBatchSize 故事线分批生成的批大小
	StorylineBatchSize int `yaml:"storyline_batch_size" mapstructure:"storyline_batch_size"`
	// InterChapterDelay 相邻章节写作调用之间的节流间隔
	InterChapterDelay time.Duration `yaml:"inter_chapter_delay" mapstructure:"inter_chapter_delay"`
	// RetryDelay 网关重试之间的固定等待
	RetryDelay time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	// MaxAttempts 网关对可重试错误的总尝试次数
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// MonitoringConfig 调用监控配置
type MonitoringConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// MaxRecords 持久化的指标上限（只保留最近 N 条）
	MaxRecords int `yaml:"max_records" mapstructure:"max_records"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	Output string `yaml:"output" mapstructure:"output"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Exporter   string  `yaml:"exporter" mapstructure:"exporter"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	CORS CORSConfig `yaml:"cors" mapstructure:"cors"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}
