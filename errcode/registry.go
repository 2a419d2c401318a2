package errcode

import (
	"fmt"
	"sync"
)

// Registry 错误码注册表（防止错误码冲突）
type Registry struct {
	mu     sync.RWMutex
	codes  map[int]string // code -> module:msgKey
	locked bool
}

// NewRegistry 创建独立的注册表
func NewRegistry() *Registry {
	return &Registry{codes: make(map[int]string)}
}

var globalRegistry = NewRegistry()

// Register 向全局注册表登记错误码，冲突时 panic
// 各包在 var 声明中调用，启动阶段即可发现错误码冲突
func Register(err *LayeredError) *LayeredError {
	return globalRegistry.Register(err)
}

// Register 登记错误码
// 相同 code 且相同 module:msgKey 视为幂等登记
func (r *Registry) Register(err *LayeredError) *LayeredError {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locked {
		panic(fmt.Sprintf("registry is locked, cannot register error code: %d", err.Code()))
	}

	key := err.Module() + ":" + err.MsgKey()
	if existing, ok := r.codes[err.Code()]; ok {
		if existing != key {
			panic(fmt.Sprintf(
				"error code conflict: code %d is already registered as %s, cannot register as %s",
				err.Code(), existing, key,
			))
		}
		return err
	}

	r.codes[err.Code()] = key
	return err
}

// Lock 锁定注册表，之后的登记会 panic
func (r *Registry) Lock() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = true
}

// IsLocked 是否已锁定
func (r *Registry) IsLocked() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.locked
}

// LockGlobalRegistry 锁定全局注册表，启动完成后调用，之后再登记错误码会 panic
func LockGlobalRegistry() {
	globalRegistry.Lock()
}

// IsGlobalRegistryLocked 全局注册表是否已锁定
func IsGlobalRegistryLocked() bool {
	return globalRegistry.IsLocked()
}
