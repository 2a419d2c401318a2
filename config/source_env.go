package config

import (
	"os"
	"strings"
)

// EnvSource 环境变量数据源
type EnvSource struct {
	prefix   string            // 前缀，如 "INJECT"
	priority int
	bindings map[string]string // 显式映射：配置 key -> 环境变量名
}

// NewEnvSource 创建环境变量数据源
func NewEnvSource(prefix string, priority int) *EnvSource {
	return &EnvSource{
		prefix:   prefix,
		priority: priority,
		bindings: make(map[string]string),
	}
}

// AddBinding 添加 key 映射，如 AddBinding("inject.dispose_workers", "DISPOSE_WORKERS")
// 环境变量名未带前缀时自动补上
func (s *EnvSource) AddBinding(key, envKey string) {
	s.bindings[key] = envKey
}

// Name 数据源名称
func (s *EnvSource) Name() string {
	return "env:" + s.prefix
}

// Priority 优先级
func (s *EnvSource) Priority() int {
	return s.priority
}

// Load 有显式映射时只读映射项，否则按前缀扫描
// 扫描模式下 "_" 统一转换为 "."，key 本身含下划线时需用 AddBinding 显式映射
func (s *EnvSource) Load() (map[string]any, error) {
	result := make(map[string]any)

	if len(s.bindings) > 0 {
		for key, envKey := range s.bindings {
			if s.prefix != "" && !strings.HasPrefix(envKey, s.prefix+"_") {
				envKey = s.prefix + "_" + envKey
			}
			if value := os.Getenv(envKey); value != "" {
				result[key] = value
			}
		}
		return result, nil
	}

	if s.prefix == "" {
		return result, nil
	}

	prefix := s.prefix + "_"
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		configKey := strings.ToLower(strings.TrimPrefix(key, prefix))
		result[strings.ReplaceAll(configKey, "_", ".")] = value
	}
	return result, nil
}
