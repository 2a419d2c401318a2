package di

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-inject/component"
	"github.com/KOMKZ/go-yogan-inject/config"
	"github.com/KOMKZ/go-yogan-inject/errcode"
	"github.com/KOMKZ/go-yogan-inject/health"
	"github.com/KOMKZ/go-yogan-inject/logger"
	"github.com/KOMKZ/go-yogan-inject/telemetry"
	"github.com/KOMKZ/go-yogan-inject/validator"
	"github.com/samber/do/v2"
)

// ConfigOptions 创建配置加载器的选项
type ConfigOptions struct {
	ConfigPath string // 配置目录，为空时只读取环境变量
	ConfigName string // 基础配置文件名，默认 config
	EnvPrefix  string // 环境变量前缀
}

// ProvideConfigLoader 配置加载器 Provider，无任何依赖
//
//	do.Provide(injector, di.ProvideConfigLoader(di.ConfigOptions{ConfigPath: "./configs", EnvPrefix: "APP"}))
func ProvideConfigLoader(opts ConfigOptions) func(do.Injector) (*config.Loader, error) {
	return func(do.Injector) (*config.Loader, error) {
		b := config.NewLoaderBuilder().
			WithConfigPath(opts.ConfigPath).
			WithEnvPrefix(opts.EnvPrefix)
		if opts.ConfigName != "" {
			b = b.WithConfigName(opts.ConfigName)
		}
		loader, err := b.Build()
		if err != nil {
			return nil, fmt.Errorf("config loader build failed: %w", err)
		}
		return loader, nil
	}
}

// ProvideLoggerManager 日志管理器 Provider，读取顶层 logger 配置
func ProvideLoggerManager(i do.Injector) (*logger.Manager, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return nil, err
	}

	cfg := logger.DefaultManagerConfig()
	if loader.IsSet("logger") {
		if err := loader.UnmarshalKey("logger", &cfg); err != nil {
			return nil, fmt.Errorf("read logger config failed: %w", err)
		}
	}
	cfg.ApplyDefaults()
	if err := config.ValidateAll(cfg); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}
	return logger.NewManager(cfg), nil
}

// ProvideCtxLogger 模块 Logger Provider
func ProvideCtxLogger(module string) func(do.Injector) (*logger.CtxZapLogger, error) {
	return func(i do.Injector) (*logger.CtxZapLogger, error) {
		mgr, err := do.Invoke[*logger.Manager](i)
		if err != nil {
			return nil, err
		}
		return mgr.GetLogger(module), nil
	}
}

// ProvideTelemetryManager 遥测管理器 Provider，读取 telemetry 配置并启动
func ProvideTelemetryManager(i do.Injector) (*telemetry.Manager, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return nil, err
	}
	logs, err := do.Invoke[*logger.Manager](i)
	if err != nil {
		return nil, err
	}

	cfg := telemetry.DefaultConfig()
	if loader.IsSet("telemetry") {
		if err := loader.UnmarshalKey("telemetry", &cfg); err != nil {
			return nil, fmt.Errorf("read telemetry config failed: %w", err)
		}
	}
	if err := config.ValidateAll(cfg); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	mgr := telemetry.NewManager(cfg, logs.GetLogger(component.ComponentTelemetry))
	if err := mgr.Start(context.Background()); err != nil {
		return nil, err
	}
	return mgr, nil
}

// ProvideManager 注入管理器 Provider
// 依赖 *config.Loader 与 *logger.Manager；遥测启用时接入 TracerProvider 并登记 inject_* 指标
func ProvideManager(i do.Injector) (*Manager, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return nil, err
	}
	logs, err := do.Invoke[*logger.Manager](i)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadConfig(loader)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithLogger(logs.GetLogger(component.ComponentInject))}
	tm, tmErr := do.Invoke[*telemetry.Manager](i)
	if tmErr == nil && tm != nil && tm.IsEnabled() {
		opts = append(opts, WithTracerProvider(tm.TracerProvider()))
	}

	m, err := NewFromConfig(cfg, opts...)
	if err != nil {
		return nil, err
	}

	if tmErr == nil && tm != nil && tm.IsEnabled() {
		if registry := tm.MetricsRegistry(); registry != nil {
			if err := registry.Register(m); err != nil {
				_ = m.Shutdown(context.Background())
				return nil, err
			}
		}
	}
	return m, nil
}

// ProvideHealthAggregator 健康检查聚合器 Provider，读取 health 配置并登记注入管理器
func ProvideHealthAggregator(i do.Injector) (*health.Aggregator, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return nil, err
	}
	m, err := do.Invoke[*Manager](i)
	if err != nil {
		return nil, err
	}

	cfg := health.DefaultConfig()
	if loader.IsSet(health.ConfigKey) {
		if err := loader.UnmarshalKey(health.ConfigKey, &cfg); err != nil {
			return nil, fmt.Errorf("read health config failed: %w", err)
		}
	}
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid health config: %w", err)
	}

	agg := health.NewAggregator(cfg)
	agg.Register(m)
	return agg, nil
}

// RegisterCoreProviders 注册配置、日志、遥测、注入管理器与健康检查，并锁定全局错误码注册表
// 错误码都在包级变量中登记，调用时已全部完成
//
//	injector := do.New()
//	di.RegisterCoreProviders(injector, di.ConfigOptions{ConfigPath: "./configs"})
//	m := do.MustInvoke[*di.Manager](injector)
func RegisterCoreProviders(injector do.Injector, opts ConfigOptions) {
	do.Provide(injector, ProvideConfigLoader(opts))
	do.Provide(injector, ProvideLoggerManager)
	do.Provide(injector, ProvideTelemetryManager)
	do.Provide(injector, ProvideManager)
	do.Provide(injector, ProvideHealthAggregator)
	errcode.LockGlobalRegistry()
}
