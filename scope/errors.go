package scope

import "github.com/KOMKZ/go-yogan-inject/errcode"

// 作用域错误码（模块码 62）
var (
	// ErrScopeNotActive 查找 context 作用域的绑定时没有处于激活状态的 Context
	ErrScopeNotActive = errcode.Register(errcode.New(62, 1, "scope", "error.scope.not_active", "scope not active"))
	// ErrScopeClosed Context 已开始关闭，拒绝新的创建
	ErrScopeClosed = errcode.Register(errcode.New(62, 2, "scope", "error.scope.closed", "scope closed"))
	// ErrUnknownScope 作用域类别未在 Registry 中注册
	ErrUnknownScope = errcode.Register(errcode.New(62, 3, "scope", "error.scope.unknown", "unknown scope"))
	// ErrNotActivatable singleton/per-lookup 不能被显式激活
	ErrNotActivatable = errcode.Register(errcode.New(62, 4, "scope", "error.scope.not_activatable", "scope cannot be activated"))
)
