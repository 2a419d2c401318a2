package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// FileSource 文件数据源（yaml/json/toml，由扩展名决定）
type FileSource struct {
	path     string
	priority int
}

// NewFileSource 创建文件数据源
func NewFileSource(path string, priority int) *FileSource {
	return &FileSource{path: path, priority: priority}
}

// Name 数据源名称
func (s *FileSource) Name() string {
	return "file:" + s.path
}

// Priority 优先级
func (s *FileSource) Priority() int {
	return s.priority
}

// Path 文件路径
func (s *FileSource) Path() string {
	return s.path
}

// Load 加载文件，文件不存在时返回空配置
func (s *FileSource) Load() (map[string]any, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("访问配置文件失败 %s: %w", s.path, err)
	}

	v := viper.New()
	v.SetConfigFile(s.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败 %s: %w", s.path, err)
	}

	return flattenMap("", v.AllSettings()), nil
}

// flattenMap 将嵌套 map 展平为点号分隔的 key
// {"inject": {"dispose_workers": 4}} -> {"inject.dispose_workers": 4}
func flattenMap(prefix string, data map[string]any) map[string]any {
	result := make(map[string]any)
	for key, value := range data {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(fullKey, nested) {
				result[k] = v
			}
			continue
		}
		result[fullKey] = value
	}
	return result
}
