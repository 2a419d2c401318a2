package di

import (
	"github.com/KOMKZ/go-yogan-inject/config"
	"github.com/KOMKZ/go-yogan-inject/scope"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ConfigKey 配置文件中的根 key
const ConfigKey = "inject"

// Config 注入管理器配置
//
//	inject:
//	  strict_request_scope: true
//	  dispose_workers: 4
//	  disposed_history: 1024
//	  metrics_enabled: true
//	  tracing_enabled: false
type Config struct {
	// StrictRequestScope 为 true 时，在未激活的作用域中查找该作用域的绑定返回 ErrScopeNotActive；
	// 为 false 时退化为 per-lookup（不缓存、不追踪）并记录警告
	StrictRequestScope bool `mapstructure:"strict_request_scope"`
	// DisposeWorkers 作用域关闭时并发释放实例的协程池大小，0 或 1 表示同步释放
	DisposeWorkers int `mapstructure:"dispose_workers"`
	// DisposedHistory 记住多少个已释放实例，用于忽略作用域关闭后对同一实例的重复显式释放；0 表示默认值
	DisposedHistory int `mapstructure:"disposed_history"`
	// MetricsEnabled 是否登记 inject_* 指标
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
	// TracingEnabled 是否为实例生产创建 span
	TracingEnabled bool `mapstructure:"tracing_enabled"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		StrictRequestScope: true,
		DisposedHistory:    scope.DefaultGraveyardSize,
	}
}

// Validate 校验配置
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DisposeWorkers, validation.Min(0), validation.Max(1024)),
		validation.Field(&c.DisposedHistory, validation.Min(0), validation.Max(1<<20)),
	)
}

// LoadConfig 从 Loader 读取 inject 配置，未配置的字段保留默认值
func LoadConfig(loader *config.Loader) (Config, error) {
	cfg := DefaultConfig()
	if loader == nil || !loader.IsSet(ConfigKey) {
		return cfg, nil
	}
	if err := loader.UnmarshalKey(ConfigKey, &cfg); err != nil {
		return cfg, ErrInvalidConfig.Wrap(err)
	}
	return cfg, nil
}
