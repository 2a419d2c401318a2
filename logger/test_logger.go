package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestCtxLogger 测试专用 Logger，日志记录到内存
//
//	testLogger := logger.NewTestCtxLogger()
//	mgr := di.New(di.WithLogger(testLogger))
//	assert.True(t, testLogger.HasLog("INFO", "injection manager shut down"))
type TestCtxLogger struct {
	logs *[]LogEntry
	mu   *sync.RWMutex
}

// LogEntry 日志条目
type LogEntry struct {
	Level   string
	Message string
	TraceID string
	ScopeID string
	Fields  map[string]any
}

// NewTestCtxLogger 创建测试 Logger
func NewTestCtxLogger() *TestCtxLogger {
	logs := make([]LogEntry, 0)
	return &TestCtxLogger{logs: &logs, mu: &sync.RWMutex{}}
}

func (t *TestCtxLogger) record(ctx context.Context, level, msg string, fields []zap.Field) {
	t.mu.Lock()
	defer t.mu.Unlock()

	*t.logs = append(*t.logs, LogEntry{
		Level:   level,
		Message: msg,
		TraceID: extractTraceIDFromContext(ctx, nil),
		ScopeID: ScopeIDFromContext(ctx),
		Fields:  extractFieldsMap(fields),
	})
}

// DebugCtx 记录 Debug 日志
func (t *TestCtxLogger) DebugCtx(ctx context.Context, msg string, fields ...zap.Field) {
	t.record(ctx, "DEBUG", msg, fields)
}

// InfoCtx 记录 Info 日志
func (t *TestCtxLogger) InfoCtx(ctx context.Context, msg string, fields ...zap.Field) {
	t.record(ctx, "INFO", msg, fields)
}

// WarnCtx 记录 Warn 日志
func (t *TestCtxLogger) WarnCtx(ctx context.Context, msg string, fields ...zap.Field) {
	t.record(ctx, "WARN", msg, fields)
}

// ErrorCtx 记录 Error 日志
func (t *TestCtxLogger) ErrorCtx(ctx context.Context, msg string, fields ...zap.Field) {
	t.record(ctx, "ERROR", msg, fields)
}

// HasLog 是否存在指定级别和消息的日志
func (t *TestCtxLogger) HasLog(level, message string) bool {
	return t.CountMessage(level, message) > 0
}

// HasLogWithField 是否存在指定级别、消息和字段值的日志
func (t *TestCtxLogger) HasLogWithField(level, message, fieldKey string, fieldValue any) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, entry := range *t.logs {
		if entry.Level == level && entry.Message == message {
			if val, ok := entry.Fields[fieldKey]; ok && val == fieldValue {
				return true
			}
		}
	}
	return false
}

// CountMessage 统计指定级别和消息的日志数量
func (t *TestCtxLogger) CountMessage(level, message string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, entry := range *t.logs {
		if entry.Level == level && entry.Message == message {
			count++
		}
	}
	return count
}

// CountLogs 统计指定级别的日志数量
func (t *TestCtxLogger) CountLogs(level string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, entry := range *t.logs {
		if entry.Level == level {
			count++
		}
	}
	return count
}

// Logs 所有日志（副本）
func (t *TestCtxLogger) Logs() []LogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	logs := make([]LogEntry, len(*t.logs))
	copy(logs, *t.logs)
	return logs
}

// Clear 清空日志
func (t *TestCtxLogger) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	*t.logs = (*t.logs)[:0]
}

// extractFieldsMap 将 zap.Field 编码为 map，便于断言
func extractFieldsMap(fields []zap.Field) map[string]any {
	enc := zapcore.NewMapObjectEncoder()
	for _, field := range fields {
		field.AddTo(enc)
	}
	return enc.Fields
}
