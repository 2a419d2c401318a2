package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// createResource 创建 Resource（服务信息）
func (m *Manager) createResource(ctx context.Context) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(m.config.ServiceName),
		semconv.ServiceVersion(m.config.ServiceVersion),
	}

	for key, value := range flattenAttrs(m.config.ResourceAttrs, "") {
		// 支持环境变量替换
		attrs = append(attrs, attribute.String(key, os.ExpandEnv(value)))
	}

	return resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
}

// flattenAttrs 嵌套 map 展平为点分隔的 key
// {"deployment": {"environment": "test"}} => {"deployment.environment": "test"}
func flattenAttrs(m map[string]any, prefix string) map[string]string {
	result := make(map[string]string)
	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		switch v := value.(type) {
		case string:
			result[fullKey] = v
		case map[string]any:
			for nestedKey, nestedValue := range flattenAttrs(v, fullKey) {
				result[nestedKey] = nestedValue
			}
		default:
			result[fullKey] = fmt.Sprintf("%v", v)
		}
	}
	return result
}
