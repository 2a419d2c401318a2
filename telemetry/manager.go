package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/KOMKZ/go-yogan-inject/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
	otelTrace "go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Manager 遥测管理器
// 管理 TracerProvider、MeterProvider 与 MetricsRegistry
type Manager struct {
	config         Config
	logger         *logger.CtxZapLogger
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	registry       *MetricsRegistry
	extraReaders   []sdkmetric.Reader
	setGlobal      bool
	mu             sync.RWMutex
}

// ManagerOption Manager 选项
type ManagerOption func(*Manager)

// WithMetricReader 追加 Metric Reader（测试中使用 sdkmetric.NewManualReader）
func WithMetricReader(reader sdkmetric.Reader) ManagerOption {
	return func(m *Manager) {
		m.extraReaders = append(m.extraReaders, reader)
	}
}

// WithGlobalProviders Start 后设置为全局 Provider
func WithGlobalProviders() ManagerOption {
	return func(m *Manager) {
		m.setGlobal = true
	}
}

// NewManager 创建遥测管理器
func NewManager(cfg Config, log *logger.CtxZapLogger, opts ...ManagerOption) *Manager {
	if log == nil {
		log = logger.GetLogger("yogan")
	}
	m := &Manager{
		config: cfg,
		logger: log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start 初始化 Provider，未启用时跳过
func (m *Manager) Start(ctx context.Context) error {
	if !m.config.Enabled {
		m.logger.InfoCtx(ctx, "Telemetry disabled, skipping initialization")
		return nil
	}
	if err := m.config.Validate(); err != nil {
		return fmt.Errorf("invalid telemetry config: %w", err)
	}

	res, err := m.createResource(ctx)
	if err != nil {
		return fmt.Errorf("create resource failed: %w", err)
	}

	tp, err := m.createTracerProvider(ctx, res)
	if err != nil {
		return err
	}

	var mp *sdkmetric.MeterProvider
	if m.config.Metrics.Enabled {
		mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
		reader, err := m.createMetricReader(ctx)
		if err != nil {
			_ = tp.Shutdown(ctx)
			return err
		}
		if reader != nil {
			mpOpts = append(mpOpts, sdkmetric.WithReader(reader))
		}
		for _, r := range m.extraReaders {
			mpOpts = append(mpOpts, sdkmetric.WithReader(r))
		}
		mp = sdkmetric.NewMeterProvider(mpOpts...)
	}

	m.mu.Lock()
	m.tracerProvider = tp
	m.meterProvider = mp
	m.registry = nil
	m.mu.Unlock()

	if m.setGlobal {
		otel.SetTracerProvider(tp)
		if mp != nil {
			otel.SetMeterProvider(mp)
		}
	}

	m.logger.InfoCtx(ctx, "✅ Telemetry started",
		zap.String("service_name", m.config.ServiceName),
		zap.String("exporter", m.config.Exporter.Type),
		zap.Bool("metrics", mp != nil),
	)
	return nil
}

// Shutdown 刷新并关闭 Provider
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	tp, mp := m.tracerProvider, m.meterProvider
	m.tracerProvider, m.meterProvider, m.registry = nil, nil, nil
	m.mu.Unlock()

	var errs []error
	if tp != nil {
		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer provider failed: %w", err))
		}
	}
	if mp != nil {
		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown meter provider failed: %w", err))
		}
	}
	return errors.Join(errs...)
}

// TracerProvider 未启动时返回 noop 实现
func (m *Manager) TracerProvider() otelTrace.TracerProvider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tracerProvider == nil {
		return nooptrace.NewTracerProvider()
	}
	return m.tracerProvider
}

// MeterProvider 未启用 Metrics 时返回 noop 实现
func (m *Manager) MeterProvider() metric.MeterProvider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.meterProvider == nil {
		return noopmetric.NewMeterProvider()
	}
	return m.meterProvider
}

// GetTracer 获取 Tracer
func (m *Manager) GetTracer(name string) otelTrace.Tracer {
	return m.TracerProvider().Tracer(name)
}

// MetricsRegistry 基于当前 MeterProvider 的指标注册中心（按需创建）
func (m *Manager) MetricsRegistry() *MetricsRegistry {
	mp := m.MeterProvider()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registry == nil {
		m.registry = NewMetricsRegistry(mp,
			WithNamespace(m.config.Metrics.Namespace),
			WithBaseLabels(m.baseLabels()),
			WithLogger(m.logger),
		)
		m.registry.SetEnabled(m.meterProvider != nil)
	}
	return m.registry
}

func (m *Manager) baseLabels() []attribute.KeyValue {
	labels := []attribute.KeyValue{attribute.String("service_name", m.config.ServiceName)}
	for k, v := range m.config.Metrics.Labels {
		labels = append(labels, attribute.String(k, v))
	}
	return labels
}

// IsEnabled 是否启用
func (m *Manager) IsEnabled() bool {
	return m.config.Enabled
}

// GetConfig 获取配置
func (m *Manager) GetConfig() Config {
	return m.config
}
