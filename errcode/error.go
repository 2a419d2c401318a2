// Package errcode 提供分层错误码
// 错误码格式：MMBBBB（MM = 模块码 2 位，BBBB = 业务码 4 位）
package errcode

import (
	"fmt"
)

// LayeredError 分层错误码
// 支持：错误链、动态消息、上下文数据、消息键（国际化）
type LayeredError struct {
	module string         // 模块名（binding, scope, inject）
	code   int            // 完整错误码（MMBBBB，如 620001）
	msgKey string         // 消息键（如 "error.scope.not_active"）
	msg    string         // 默认消息
	data   map[string]any // 上下文数据
	cause  error          // 原始错误
}

// New 创建分层错误码
// moduleCode: 模块码（10-99）
// businessCode: 业务码（0001-9999）
func New(moduleCode, businessCode int, module, msgKey, msg string) *LayeredError {
	return &LayeredError{
		module: module,
		code:   moduleCode*10000 + businessCode,
		msgKey: msgKey,
		msg:    msg,
		data:   make(map[string]any),
	}
}

func (e *LayeredError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Code 错误码
func (e *LayeredError) Code() int {
	return e.code
}

// Module 模块名
func (e *LayeredError) Module() string {
	return e.module
}

// MsgKey 消息键
func (e *LayeredError) MsgKey() string {
	return e.msgKey
}

// Message 错误消息（不含 cause）
func (e *LayeredError) Message() string {
	return e.msg
}

// Data 上下文数据
func (e *LayeredError) Data() map[string]any {
	return e.data
}

// Cause 原始错误
func (e *LayeredError) Cause() error {
	return e.cause
}

// Unwrap 支持 errors.Is / errors.As 沿错误链查找
func (e *LayeredError) Unwrap() error {
	return e.cause
}

// WithMsg 替换消息（返回新实例）
func (e *LayeredError) WithMsg(msg string) *LayeredError {
	clone := *e
	clone.msg = msg
	return &clone
}

// WithMsgf 格式化替换消息（返回新实例）
func (e *LayeredError) WithMsgf(format string, args ...any) *LayeredError {
	return e.WithMsg(fmt.Sprintf(format, args...))
}

// WithData 添加单个上下文数据（返回新实例）
func (e *LayeredError) WithData(key string, value any) *LayeredError {
	clone := *e
	clone.data = make(map[string]any, len(e.data)+1)
	for k, v := range e.data {
		clone.data[k] = v
	}
	clone.data[key] = value
	return &clone
}

// Wrap 包装原始错误（返回新实例），cause 为 nil 时返回自身
func (e *LayeredError) Wrap(cause error) *LayeredError {
	if cause == nil {
		return e
	}
	clone := *e
	clone.cause = cause
	return &clone
}

// Wrapf 包装原始错误并格式化消息
func (e *LayeredError) Wrapf(cause error, format string, args ...any) *LayeredError {
	return e.Wrap(cause).WithMsgf(format, args...)
}

// Is 按错误码判等，使派生实例（WithMsg/Wrap）仍能匹配哨兵错误
func (e *LayeredError) Is(target error) bool {
	t, ok := target.(*LayeredError)
	if !ok {
		return false
	}
	return e.code == t.code
}

// String 调试输出
func (e *LayeredError) String() string {
	if e.cause != nil {
		return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s, cause:%v}",
			e.code, e.module, e.msg, e.cause)
	}
	return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s}", e.code, e.module, e.msg)
}
