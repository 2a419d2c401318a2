package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Loader 配置加载器（多数据源按优先级合并）
type Loader struct {
	sources      []ConfigSource
	mergedConfig map[string]any
	v            *viper.Viper
	loadedFiles  []string
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{
		mergedConfig: make(map[string]any),
		v:            viper.New(),
	}
}

// AddSource 添加数据源
func (l *Loader) AddSource(source ConfigSource) {
	l.sources = append(l.sources, source)
}

// Load 按优先级从低到高加载并合并
func (l *Loader) Load() error {
	sort.SliceStable(l.sources, func(i, j int) bool {
		return l.sources[i].Priority() < l.sources[j].Priority()
	})

	l.mergedConfig = make(map[string]any)
	l.loadedFiles = l.loadedFiles[:0]
	for _, source := range l.sources {
		data, err := source.Load()
		if err != nil {
			return fmt.Errorf("加载数据源 %s 失败: %w", source.Name(), err)
		}
		if fileSource, ok := source.(*FileSource); ok {
			l.loadedFiles = append(l.loadedFiles, fileSource.Path())
		}
		for key, value := range data {
			l.mergedConfig[key] = value
		}
	}

	l.syncToViper()
	return nil
}

// syncToViper 将合并结果写入新的 viper 实例
func (l *Loader) syncToViper() {
	l.v = viper.New()
	for key, value := range unflattenMap(l.mergedConfig) {
		l.v.Set(key, value)
	}
}

// unflattenMap {"inject.dispose_workers": 4} -> {"inject": {"dispose_workers": 4}}
func unflattenMap(flat map[string]any) map[string]any {
	result := make(map[string]any)
	for key, value := range flat {
		parts := strings.FieldsFunc(key, func(r rune) bool { return r == '.' })
		if len(parts) == 0 {
			continue
		}

		current := result
		for _, part := range parts[:len(parts)-1] {
			nested, ok := current[part].(map[string]any)
			if !ok {
				nested = make(map[string]any)
				current[part] = nested
			}
			current = nested
		}
		current[parts[len(parts)-1]] = value
	}
	return result
}

// Unmarshal 解析全部配置到结构体
func (l *Loader) Unmarshal(v any) error {
	return l.v.Unmarshal(v)
}

// UnmarshalKey 解析指定 key 到结构体
func (l *Loader) UnmarshalKey(key string, v any) error {
	return l.v.UnmarshalKey(key, v)
}

// Get 获取配置值
func (l *Loader) Get(key string) any {
	return l.v.Get(key)
}

// GetString 获取字符串配置
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// GetInt 获取整数配置
func (l *Loader) GetInt(key string) int {
	return l.v.GetInt(key)
}

// GetBool 获取布尔配置
func (l *Loader) GetBool(key string) bool {
	return l.v.GetBool(key)
}

// IsSet 配置项是否存在
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// GetLoadedFiles 已加载的配置文件（含不存在而被跳过的文件）
func (l *Loader) GetLoadedFiles() []string {
	return l.loadedFiles
}

// GetViper 底层 viper 实例
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// Reload 重新加载
func (l *Loader) Reload() error {
	return l.Load()
}
