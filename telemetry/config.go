package telemetry

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config OpenTelemetry 配置
type Config struct {
	Enabled        bool           `mapstructure:"enabled"`             // 是否启用
	ServiceName    string         `mapstructure:"service_name"`        // 服务名
	ServiceVersion string         `mapstructure:"service_version"`     // 服务版本
	Exporter       ExporterConfig `mapstructure:"exporter"`            // 导出器配置
	Sampler        SamplerConfig  `mapstructure:"sampler"`             // 采样配置
	ResourceAttrs  map[string]any `mapstructure:"resource_attributes"` // Resource 属性（支持嵌套）
	Batch          BatchConfig    `mapstructure:"batch"`               // 批处理配置
	Metrics        MetricsConfig  `mapstructure:"metrics"`             // Metrics 配置
}

// ExporterConfig 导出器配置
type ExporterConfig struct {
	Type     string            `mapstructure:"type"`     // otlp, stdout, noop
	Endpoint string            `mapstructure:"endpoint"` // 导出端点
	Insecure bool              `mapstructure:"insecure"` // 是否使用非安全连接
	Timeout  time.Duration     `mapstructure:"timeout"`  // 导出超时
	Headers  map[string]string `mapstructure:"headers"`  // 自定义 Header（认证等）
}

// SamplerConfig 采样配置
type SamplerConfig struct {
	Type  string  `mapstructure:"type"`  // 采样类型
	Ratio float64 `mapstructure:"ratio"` // 采样比例（仅 trace_id_ratio 生效）
}

// BatchConfig 批处理配置
type BatchConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	MaxQueueSize       int           `mapstructure:"max_queue_size"`
	MaxExportBatchSize int           `mapstructure:"max_export_batch_size"`
	ScheduleDelay      time.Duration `mapstructure:"schedule_delay"`
	ExportTimeout      time.Duration `mapstructure:"export_timeout"`
}

// MetricsConfig Metrics 配置
type MetricsConfig struct {
	Enabled        bool              `mapstructure:"enabled"`
	ExportInterval time.Duration     `mapstructure:"export_interval"`
	ExportTimeout  time.Duration     `mapstructure:"export_timeout"`
	Namespace      string            `mapstructure:"namespace"` // 指标命名空间前缀
	Labels         map[string]string `mapstructure:"labels"`    // 全局标签（env, region 等）
}

// DefaultConfig 默认配置（默认关闭）
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "unknown-service",
		ServiceVersion: "1.0.0",
		Exporter: ExporterConfig{
			Type:     "otlp",
			Endpoint: "localhost:4317",
			Insecure: true,
			Timeout:  10 * time.Second,
		},
		Sampler: SamplerConfig{
			Type:  "parent_based_always_on",
			Ratio: 1.0,
		},
		ResourceAttrs: make(map[string]any),
		Batch: BatchConfig{
			Enabled:            true,
			MaxQueueSize:       2048,
			MaxExportBatchSize: 512,
			ScheduleDelay:      5 * time.Second,
			ExportTimeout:      30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:        false,
			ExportInterval: 10 * time.Second,
			ExportTimeout:  5 * time.Second,
			Namespace:      "yogan",
			Labels:         make(map[string]string),
		},
	}
}

// Validate 校验配置，未启用时不校验
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	return validation.ValidateStruct(&c,
		validation.Field(&c.ServiceName, validation.Required),
		validation.Field(&c.Exporter),
		validation.Field(&c.Sampler),
		validation.Field(&c.Batch),
	)
}

// Validate 校验导出器配置
func (c ExporterConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.Required, validation.In("otlp", "stdout", "noop")),
		validation.Field(&c.Endpoint, validation.When(c.Type == "otlp", validation.Required)),
	)
}

// Validate 校验采样配置
func (c SamplerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.In("always_on", "always_off", "trace_id_ratio", "parent_based_always_on")),
		validation.Field(&c.Ratio, validation.When(c.Type == "trace_id_ratio", validation.Min(0.0), validation.Max(1.0))),
	)
}

// Validate 校验批处理配置
func (c BatchConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxQueueSize, validation.Min(1)),
		validation.Field(&c.MaxExportBatchSize, validation.Min(1)),
	)
}
