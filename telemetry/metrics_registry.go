package telemetry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/KOMKZ/go-yogan-inject/component"
	"github.com/KOMKZ/go-yogan-inject/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// MetricsRegistry 指标注册中心
// 为每个 MetricsProvider 分配独立命名的 Meter 并调用其 RegisterMetrics
type MetricsRegistry struct {
	meterProvider metric.MeterProvider
	meters        map[string]metric.Meter
	providers     map[string]component.MetricsProvider
	baseLabels    []attribute.KeyValue
	namespace     string
	enabled       bool
	logger        *logger.CtxZapLogger
	mu            sync.RWMutex
}

// MetricsRegistryOption MetricsRegistry 选项
type MetricsRegistryOption func(*MetricsRegistry)

// WithNamespace Meter 名称前缀
func WithNamespace(namespace string) MetricsRegistryOption {
	return func(r *MetricsRegistry) {
		r.namespace = namespace
	}
}

// WithBaseLabels 全局基础标签
func WithBaseLabels(labels []attribute.KeyValue) MetricsRegistryOption {
	return func(r *MetricsRegistry) {
		r.baseLabels = append([]attribute.KeyValue(nil), labels...)
	}
}

// WithLogger 设置日志
func WithLogger(l *logger.CtxZapLogger) MetricsRegistryOption {
	return func(r *MetricsRegistry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewMetricsRegistry 创建注册中心，mp 为 nil 时使用全局 MeterProvider
func NewMetricsRegistry(mp metric.MeterProvider, opts ...MetricsRegistryOption) *MetricsRegistry {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	r := &MetricsRegistry{
		meterProvider: mp,
		meters:        make(map[string]metric.Meter),
		providers:     make(map[string]component.MetricsProvider),
		namespace:     "yogan",
		enabled:       true,
		logger:        logger.GetLogger("yogan"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register 登记 MetricsProvider
// 注册中心或 provider 未启用时静默跳过；同名 provider 重复登记返回错误
func (r *MetricsRegistry) Register(provider component.MetricsProvider) error {
	if provider == nil {
		return fmt.Errorf("metrics provider is nil")
	}
	name := provider.MetricsName()
	if name == "" {
		return fmt.Errorf("metrics provider name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return nil
	}
	if !provider.IsMetricsEnabled() {
		r.logger.Debug("metrics disabled for provider", zap.String("provider", name))
		return nil
	}
	if _, ok := r.providers[name]; ok {
		return fmt.Errorf("metrics provider %q already registered", name)
	}

	if err := provider.RegisterMetrics(r.meterLocked(name)); err != nil {
		return fmt.Errorf("register metrics for %q failed: %w", name, err)
	}

	r.providers[name] = provider
	r.logger.Info("metrics provider registered", zap.String("provider", name))
	return nil
}

// GetMeter 获取 Meter，名称为 {namespace}_{name}
func (r *MetricsRegistry) GetMeter(name string) metric.Meter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meterLocked(name)
}

func (r *MetricsRegistry) meterLocked(name string) metric.Meter {
	if meter, ok := r.meters[name]; ok {
		return meter
	}

	meterName := name
	if r.namespace != "" {
		meterName = r.namespace + "_" + name
	}
	meter := r.meterProvider.Meter(meterName)
	r.meters[name] = meter
	return meter
}

// GetBaseLabels 全局基础标签（副本）
func (r *MetricsRegistry) GetBaseLabels() []attribute.KeyValue {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]attribute.KeyValue{}, r.baseLabels...)
}

// IsEnabled 是否启用
func (r *MetricsRegistry) IsEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

// SetEnabled 启用或关闭
func (r *MetricsRegistry) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
}

// ProviderNames 已登记的 provider 名称（排序）
func (r *MetricsRegistry) ProviderNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var _ component.MetricsCollector = (*MetricsRegistry)(nil)
