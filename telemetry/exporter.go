package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials/insecure"
)

// createSpanExporter 按类型创建 Span 导出器
func (m *Manager) createSpanExporter(ctx context.Context) (trace.SpanExporter, error) {
	switch m.config.Exporter.Type {
	case "otlp":
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(m.config.Exporter.Endpoint),
			otlptracegrpc.WithTimeout(m.config.Exporter.Timeout),
		}
		if m.config.Exporter.Insecure {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		if len(m.config.Exporter.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(m.config.Exporter.Headers))
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
	case "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "noop":
		return noopExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", m.config.Exporter.Type)
	}
}

// createMetricReader 按类型创建周期性 Metric Reader，noop 返回 nil
func (m *Manager) createMetricReader(ctx context.Context) (sdkmetric.Reader, error) {
	var (
		exporter sdkmetric.Exporter
		err      error
	)

	switch m.config.Exporter.Type {
	case "otlp":
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(m.config.Exporter.Endpoint),
			otlpmetricgrpc.WithTimeout(m.config.Exporter.Timeout),
		}
		if m.config.Exporter.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		if len(m.config.Exporter.Headers) > 0 {
			opts = append(opts, otlpmetricgrpc.WithHeaders(m.config.Exporter.Headers))
		}
		exporter, err = otlpmetricgrpc.New(ctx, opts...)
	case "stdout":
		exporter, err = stdoutmetric.New()
	case "noop":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported metrics exporter type: %s", m.config.Exporter.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s metrics exporter failed: %w", m.config.Exporter.Type, err)
	}

	return sdkmetric.NewPeriodicReader(exporter,
		sdkmetric.WithInterval(m.config.Metrics.ExportInterval),
		sdkmetric.WithTimeout(m.config.Metrics.ExportTimeout),
	), nil
}

// noopExporter 丢弃所有 Span
type noopExporter struct{}

func (noopExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	return nil
}

func (noopExporter) Shutdown(ctx context.Context) error {
	return nil
}
