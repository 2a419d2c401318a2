package health

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ConfigKey 配置文件中的根 key
const ConfigKey = "health"

// Config 健康检查配置
type Config struct {
	Timeout time.Duration `mapstructure:"timeout"` // 单次聚合检查的超时
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{Timeout: 5 * time.Second}
}

// Validate 校验配置
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
	)
}
