package di

import "github.com/KOMKZ/go-yogan-inject/errcode"

// 注入管理器错误码（模块码 63）
var (
	// ErrSupplierProduction supplier 生产实例失败，Cause 为 supplier 返回的原始错误
	ErrSupplierProduction = errcode.Register(errcode.New(63, 1, "inject", "error.inject.production", "supplier production failed"))
	// ErrManagerShutdown Manager 已关闭
	ErrManagerShutdown = errcode.Register(errcode.New(63, 2, "inject", "error.inject.shutdown", "injection manager is shut down"))
	// ErrInvalidConfig 配置校验失败
	ErrInvalidConfig = errcode.Register(errcode.New(63, 3, "inject", "error.inject.invalid_config", "invalid inject config"))
	// ErrNotBound Invoke 查找的类型没有绑定
	ErrNotBound = errcode.Register(errcode.New(63, 4, "inject", "error.inject.not_bound", "type is not bound"))
	// ErrTypeMismatch supplier 生产的实例无法转换为请求的类型
	ErrTypeMismatch = errcode.Register(errcode.New(63, 5, "inject", "error.inject.type_mismatch", "instance type mismatch"))
)
