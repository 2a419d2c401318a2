package config

import (
	"os"
	"path/filepath"
)

// LoaderBuilder 配置加载器构建器
type LoaderBuilder struct {
	configPath string
	configName string
	envPrefix  string
}

// NewLoaderBuilder 创建构建器
func NewLoaderBuilder() *LoaderBuilder {
	return &LoaderBuilder{configName: "config"}
}

// WithConfigPath 配置目录
func (b *LoaderBuilder) WithConfigPath(path string) *LoaderBuilder {
	b.configPath = path
	return b
}

// WithConfigName 基础配置文件名（不含扩展名，默认 config）
func (b *LoaderBuilder) WithConfigName(name string) *LoaderBuilder {
	b.configName = name
	return b
}

// WithEnvPrefix 环境变量前缀
func (b *LoaderBuilder) WithEnvPrefix(prefix string) *LoaderBuilder {
	b.envPrefix = prefix
	return b
}

// Build 构建并加载
// 1. <path>/config.yaml（优先级 10）
// 2. <path>/<env>.yaml（优先级 20）
// 3. 环境变量（优先级 50）
func (b *LoaderBuilder) Build() (*Loader, error) {
	loader := NewLoader()

	if b.configPath != "" {
		loader.AddSource(NewFileSource(filepath.Join(b.configPath, b.configName+".yaml"), 10))
		if env := GetEnv(); env != "" {
			loader.AddSource(NewFileSource(filepath.Join(b.configPath, env+".yaml"), 20))
		}
	}

	if b.envPrefix != "" {
		loader.AddSource(NewEnvSource(b.envPrefix, 50))
	}

	if err := loader.Load(); err != nil {
		return nil, err
	}
	return loader, nil
}

// GetEnv 运行环境（APP_ENV > ENV > dev）
func GetEnv() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "dev"
}
