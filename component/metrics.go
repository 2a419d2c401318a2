// Package component 定义可选能力契约（指标、健康检查），由 di.Manager 等实现
package component

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider 可登记指标的组件
//
//	registry := telemetryManager.MetricsRegistry()
//	_ = registry.Register(injectManager) // 调用 RegisterMetrics，Meter 名为 {namespace}_inject
type MetricsProvider interface {
	// MetricsName 指标分组名（短小写标识，如 "inject"），用于 Meter 命名
	MetricsName() string
	// RegisterMetrics 创建组件的全部 instrument，只调用一次
	RegisterMetrics(meter metric.Meter) error
	// IsMetricsEnabled 为 false 时 Register 跳过该组件
	IsMetricsEnabled() bool
}

// MetricsCollector 指标注册中心，由 telemetry.MetricsRegistry 实现
type MetricsCollector interface {
	Register(provider MetricsProvider) error
	GetMeter(name string) metric.Meter
	GetBaseLabels() []attribute.KeyValue
	IsEnabled() bool
}
