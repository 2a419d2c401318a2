package logger

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap/zapcore"
)

// ManagerConfig 全局日志配置（所有模块共享）
type ManagerConfig struct {
	BaseLogDir           string `mapstructure:"base_log_dir"` // 日志根目录（默认 logs）
	Level                string `mapstructure:"level"`
	AppName              string `mapstructure:"app_name"` // 自动注入到每条日志（包括空值）
	Encoding             string `mapstructure:"encoding"` // json 或 console
	ConsoleEncoding      string `mapstructure:"console_encoding"`
	EnableConsole        bool   `mapstructure:"enable_console"`
	EnableFile           bool   `mapstructure:"enable_file"`
	EnableDateInFilename bool   `mapstructure:"enable_date_in_filename"`
	DateFormat           string `mapstructure:"date_format"`
	MaxSize              int    `mapstructure:"max_size"` // MB
	MaxBackups           int    `mapstructure:"max_backups"`
	MaxAge               int    `mapstructure:"max_age"` // 天
	Compress             bool   `mapstructure:"compress"`
	EnableCaller         bool   `mapstructure:"enable_caller"`
	EnableStacktrace     bool   `mapstructure:"enable_stacktrace"`
	StacktraceLevel      string `mapstructure:"stacktrace_level"`
	StacktraceDepth      int    `mapstructure:"stacktrace_depth"` // 0 = 不限制

	// TraceID 配置
	EnableTraceID    bool   `mapstructure:"enable_trace_id"`
	TraceIDKey       string `mapstructure:"trace_id_key"`
	TraceIDFieldName string `mapstructure:"trace_id_field_name"`
}

// DefaultManagerConfig 默认配置
// 默认只输出到控制台，文件输出需显式开启
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		BaseLogDir:       "logs",
		Level:            "info",
		Encoding:         "json",
		EnableConsole:    true,
		DateFormat:       "2006-01-02",
		MaxSize:          100,
		MaxBackups:       3,
		MaxAge:           28,
		Compress:         true,
		EnableCaller:     true,
		EnableStacktrace: true,
		StacktraceLevel:  "error",
		StacktraceDepth:  5,
		EnableTraceID:    true,
		TraceIDKey:       "trace_id",
		TraceIDFieldName: "trace_id",
	}
}

// ApplyDefaults 用默认值填充零值字段（原地修改）
// 布尔字段无法区分"未配置"和"false"，保留原值
func (c *ManagerConfig) ApplyDefaults() {
	d := DefaultManagerConfig()

	if c.BaseLogDir == "" {
		c.BaseLogDir = d.BaseLogDir
	}
	if c.Level == "" {
		c.Level = d.Level
	}
	if c.Encoding == "" {
		c.Encoding = d.Encoding
	}
	if c.DateFormat == "" {
		c.DateFormat = d.DateFormat
	}
	if c.StacktraceLevel == "" {
		c.StacktraceLevel = d.StacktraceLevel
	}
	if c.TraceIDKey == "" {
		c.TraceIDKey = d.TraceIDKey
	}
	if c.TraceIDFieldName == "" {
		c.TraceIDFieldName = d.TraceIDFieldName
	}
	if c.MaxSize == 0 {
		c.MaxSize = d.MaxSize
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = d.MaxBackups
	}
	if c.MaxAge == 0 {
		c.MaxAge = d.MaxAge
	}
}

var (
	validLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validEncodings = []string{"json", "console"}
)

// Validate 校验配置
func (c ManagerConfig) Validate() error {
	if !contains(validLevels, c.Level) {
		return fmt.Errorf("invalid log level: %s (valid values: %v)", c.Level, validLevels)
	}
	if !contains(validEncodings, c.Encoding) {
		return fmt.Errorf("invalid log encoding: %s (valid values: %v)", c.Encoding, validEncodings)
	}
	if c.ConsoleEncoding != "" && !contains(validEncodings, c.ConsoleEncoding) {
		return fmt.Errorf("invalid console encoding: %s (valid values: %v)", c.ConsoleEncoding, validEncodings)
	}
	if c.EnableFile && (c.MaxSize < 1 || c.MaxSize > 10000) {
		return fmt.Errorf("MaxSize must be between 1-10000 MB, current: %d", c.MaxSize)
	}
	if c.MaxBackups < 0 || c.MaxAge < 0 {
		return fmt.Errorf("MaxBackups and MaxAge must not be negative")
	}
	if !contains(validLevels, c.StacktraceLevel) {
		return fmt.Errorf("invalid stack trace level: %s (valid values: %v)", c.StacktraceLevel, validLevels)
	}
	return nil
}

// ParseLevel 解析日志级别，未知值回退到 info
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}

// filePath 模块日志文件路径
// logs/inject/inject-info.log 或 logs/inject/inject-info-2024-12-19.log
func (c ManagerConfig) filePath(module, level string) string {
	name := module + "-" + level
	if c.EnableDateInFilename {
		name += "-" + time.Now().Format(c.DateFormat)
	}
	return filepath.Join(c.BaseLogDir, module, name+".log")
}
