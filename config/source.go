// Package config 提供多数据源的配置加载（基于 viper）
package config

// ConfigSource 配置数据源
// 文件、环境变量等数据源都实现此接口
type ConfigSource interface {
	// Name 数据源名称（用于日志和调试）
	Name() string

	// Priority 优先级，数值越大优先级越高
	// 建议：config.yaml 10，<env>.yaml 20，环境变量 50
	Priority() int

	// Load 加载数据，key 为点号分隔的扁平形式，如 "inject.dispose_workers"
	Load() (map[string]any, error)
}
