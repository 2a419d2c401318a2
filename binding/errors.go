package binding

import "github.com/KOMKZ/go-yogan-inject/errcode"

// ErrInvalidBinding 注册参数不合法（模块码 61）
var ErrInvalidBinding = errcode.Register(errcode.New(61, 1, "binding", "error.binding.invalid", "invalid binding"))
