package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CtxLogger Context-Aware 日志接口
// CtxZapLogger 与 TestCtxLogger 均实现此接口，便于在测试中替换
type CtxLogger interface {
	DebugCtx(ctx context.Context, msg string, fields ...zap.Field)
	InfoCtx(ctx context.Context, msg string, fields ...zap.Field)
	WarnCtx(ctx context.Context, msg string, fields ...zap.Field)
	ErrorCtx(ctx context.Context, msg string, fields ...zap.Field)
}

// CtxZapLogger Context-Aware 的 Zap Logger 包装器
// module 在创建时绑定，使用时只需传递 ctx
// 统一通过 Manager.GetLogger() 或 GetLogger() 获取
type CtxZapLogger struct {
	base   *zap.Logger
	module string
	config *ManagerConfig
}

// NewNopLogger 丢弃所有输出的 Logger
func NewNopLogger() *CtxZapLogger {
	return &CtxZapLogger{base: zap.NewNop(), module: "nop"}
}

// Module 绑定的模块名
func (l *CtxZapLogger) Module() string {
	return l.module
}

// InfoCtx 记录 Info 日志（自动提取 TraceID、ScopeID）
func (l *CtxZapLogger) InfoCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Info(msg, l.enrichFields(ctx, fields)...)
}

// Info 无 context 的便捷方法
func (l *CtxZapLogger) Info(msg string, fields ...zap.Field) {
	l.InfoCtx(context.Background(), msg, fields...)
}

// ErrorCtx 记录 Error 日志（可选附带受控深度的堆栈）
func (l *CtxZapLogger) ErrorCtx(ctx context.Context, msg string, fields ...zap.Field) {
	enriched := l.enrichFields(ctx, fields)

	if l.config != nil && shouldCaptureStacktrace("error", *l.config) {
		depth := l.config.StacktraceDepth
		if depth <= 0 {
			depth = 10
		}
		// skip=3: runtime.Callers -> CaptureStacktrace -> ErrorCtx
		if stack := CaptureStacktrace(3, depth); stack != "" {
			enriched = append(enriched, zap.String("stack", stack))
		}
	}

	l.base.Error(msg, enriched...)
}

// Error 无 context 的便捷方法
func (l *CtxZapLogger) Error(msg string, fields ...zap.Field) {
	l.ErrorCtx(context.Background(), msg, fields...)
}

// DebugCtx 记录 Debug 日志
func (l *CtxZapLogger) DebugCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Debug(msg, l.enrichFields(ctx, fields)...)
}

// Debug 无 context 的便捷方法
func (l *CtxZapLogger) Debug(msg string, fields ...zap.Field) {
	l.DebugCtx(context.Background(), msg, fields...)
}

// WarnCtx 记录 Warn 日志
func (l *CtxZapLogger) WarnCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Warn(msg, l.enrichFields(ctx, fields)...)
}

// Warn 无 context 的便捷方法
func (l *CtxZapLogger) Warn(msg string, fields ...zap.Field) {
	l.WarnCtx(context.Background(), msg, fields...)
}

// With 返回带预设字段的新 Logger
func (l *CtxZapLogger) With(fields ...zap.Field) *CtxZapLogger {
	return &CtxZapLogger{
		base:   l.base.With(fields...),
		module: l.module,
		config: l.config,
	}
}

// GetZapLogger 底层 *zap.Logger（第三方库集成）
func (l *CtxZapLogger) GetZapLogger() *zap.Logger {
	return l.base
}

// enrichFields 注入 app_name、trace_id、scope_id
// module 字段已在 Manager.GetLogger() 中添加
func (l *CtxZapLogger) enrichFields(ctx context.Context, fields []zap.Field) []zap.Field {
	enriched := make([]zap.Field, 0, len(fields)+3)

	if l.config != nil {
		enriched = append(enriched, zap.String("app_name", l.config.AppName))

		if l.config.EnableTraceID {
			if traceID := extractTraceIDFromContext(ctx, l.config); traceID != "" {
				fieldName := l.config.TraceIDFieldName
				if fieldName == "" {
					fieldName = "trace_id"
				}
				enriched = append(enriched, zap.String(fieldName, traceID))
			}
		}
	}

	if scopeID := ScopeIDFromContext(ctx); scopeID != "" {
		enriched = append(enriched, zap.String("scope_id", scopeID))
	}

	return append(enriched, fields...)
}

// extractTraceIDFromContext 提取 TraceID
// 优先级：OpenTelemetry Span > 配置的 key > "trace_id"
func extractTraceIDFromContext(ctx context.Context, cfg *ManagerConfig) string {
	if ctx == nil {
		return ""
	}
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}

	if cfg != nil && cfg.TraceIDKey != "" {
		if traceID, ok := ctx.Value(cfg.TraceIDKey).(string); ok {
			return traceID
		}
	}
	if traceID, ok := ctx.Value("trace_id").(string); ok {
		return traceID
	}
	return ""
}

type scopeIDKey struct{}

// ContextWithScopeID 在 ctx 中记录当前激活的作用域 ID
func ContextWithScopeID(ctx context.Context, scopeID string) context.Context {
	return context.WithValue(ctx, scopeIDKey{}, scopeID)
}

// ScopeIDFromContext 读取当前激活的作用域 ID
func ScopeIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(scopeIDKey{}).(string)
	return id
}
