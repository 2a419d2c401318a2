package telemetry

import (
	"go.opentelemetry.io/otel/metric"
)

// MetricsBuilder 指标构建器，统一命名与单位
type MetricsBuilder struct {
	meter     metric.Meter
	namespace string
}

// NewMetricsBuilder 创建指标构建器
func NewMetricsBuilder(meter metric.Meter, namespace string) *MetricsBuilder {
	return &MetricsBuilder{meter: meter, namespace: namespace}
}

func (b *MetricsBuilder) fullName(name string) string {
	if b.namespace == "" {
		return name
	}
	return b.namespace + "_" + name
}

// Counter 创建 Int64Counter
func (b *MetricsBuilder) Counter(name, desc string) (metric.Int64Counter, error) {
	return b.meter.Int64Counter(
		b.fullName(name),
		metric.WithDescription(desc),
		metric.WithUnit("{count}"),
	)
}

// UpDownCounter 创建可增减计数器
func (b *MetricsBuilder) UpDownCounter(name, desc string) (metric.Int64UpDownCounter, error) {
	return b.meter.Int64UpDownCounter(
		b.fullName(name),
		metric.WithDescription(desc),
		metric.WithUnit("{count}"),
	)
}

// DurationHistogram 创建耗时分布直方图（秒）
func (b *MetricsBuilder) DurationHistogram(name, desc string) (metric.Float64Histogram, error) {
	return b.meter.Float64Histogram(
		b.fullName(name),
		metric.WithDescription(desc),
		metric.WithUnit("s"),
	)
}
