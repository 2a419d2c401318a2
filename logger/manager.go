package logger

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Manager Logger 管理器（按模块管理 Logger 实例）
type Manager struct {
	baseConfig ManagerConfig
	loggers    map[string]*CtxZapLogger
	zapLoggers map[string]*zap.Logger
	writers    map[string][]*lumberjack.Logger // 模块名 -> 文件写入器（用于关闭）
	mu         sync.RWMutex
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// NewManager 创建独立的 Manager，cfg 中的零值字段自动填充默认值
func NewManager(cfg ManagerConfig) *Manager {
	cfg.ApplyDefaults()
	return &Manager{
		baseConfig: cfg,
		loggers:    make(map[string]*CtxZapLogger),
		zapLoggers: make(map[string]*zap.Logger),
		writers:    make(map[string][]*lumberjack.Logger),
	}
}

// InitManager 初始化全局 Manager（只生效一次）
func InitManager(cfg ManagerConfig) {
	managerOnce.Do(func() {
		globalManager = NewManager(cfg)
	})
}

// Config 返回生效的配置
func (m *Manager) Config() ManagerConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.baseConfig
}

// GetLogger 获取模块 Logger（线程安全，按需创建）
// 返回的 Logger 已包含 module 字段
func (m *Manager) GetLogger(moduleName string) *CtxZapLogger {
	m.mu.RLock()
	if l, ok := m.loggers[moduleName]; ok {
		m.mu.RUnlock()
		return l
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// 双重检查
	if l, ok := m.loggers[moduleName]; ok {
		return l
	}

	base := m.createLogger(moduleName).With(zap.String("module", moduleName))
	cfg := m.baseConfig
	l := &CtxZapLogger{
		base:   base.WithOptions(zap.AddCallerSkip(1)), // 跳过 CtxZapLogger 包装层
		module: moduleName,
		config: &cfg,
	}

	m.loggers[moduleName] = l
	m.zapLoggers[moduleName] = base
	return l
}

func (m *Manager) createLogger(moduleName string) *zap.Logger {
	cfg := m.baseConfig
	level := ParseLevel(cfg.Level)
	encoder := createEncoder(cfg.Encoding)
	var cores []zapcore.Core

	if cfg.EnableConsole {
		consoleEncoder := encoder
		if cfg.ConsoleEncoding != "" && cfg.ConsoleEncoding != cfg.Encoding {
			consoleEncoder = createEncoder(cfg.ConsoleEncoding)
		}
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level))
	}

	if cfg.EnableFile {
		infoWriter, infoLumber := createFileWriter(cfg.filePath(moduleName, "info"), cfg)
		errorWriter, errorLumber := createFileWriter(cfg.filePath(moduleName, "error"), cfg)
		m.writers[moduleName] = []*lumberjack.Logger{infoLumber, errorLumber}

		// info 文件：配置级别 <= lvl < error
		cores = append(cores, zapcore.NewCore(encoder, infoWriter,
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return lvl >= level && lvl < zapcore.ErrorLevel
			})))
		cores = append(cores, zapcore.NewCore(encoder, errorWriter,
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return lvl >= zapcore.ErrorLevel
			})))
	}

	if len(cores) == 0 {
		return zap.NewNop()
	}

	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	// 堆栈由 CtxZapLogger.ErrorCtx 按深度自行采集，不使用 zap.AddStacktrace
	return zap.New(zapcore.NewTee(cores...), opts...)
}

// CloseAll 刷新缓冲并关闭所有文件句柄
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.zapLoggers {
		_ = l.Sync()
	}
	for _, writers := range m.writers {
		for _, w := range writers {
			_ = w.Close()
		}
	}

	m.loggers = make(map[string]*CtxZapLogger)
	m.zapLoggers = make(map[string]*zap.Logger)
	m.writers = make(map[string][]*lumberjack.Logger)
}

func createEncoder(encoding string) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		CallerKey:      "caller",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if encoding == "console" {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

// createFileWriter 使用 lumberjack 实现文件切割
func createFileWriter(filename string, cfg ManagerConfig) (zapcore.WriteSyncer, *lumberjack.Logger) {
	_ = os.MkdirAll(filepath.Dir(filename), 0o755)

	lumber := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
	return zapcore.AddSync(lumber), lumber
}

// GetLogger 从全局 Manager 获取模块 Logger，未初始化时使用默认配置
func GetLogger(moduleName string) *CtxZapLogger {
	InitManager(DefaultManagerConfig())
	return globalManager.GetLogger(moduleName)
}

// CloseAll 关闭全局 Manager 的所有 Logger
func CloseAll() {
	if globalManager != nil {
		globalManager.CloseAll()
	}
}
