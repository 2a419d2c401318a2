package di

import (
	"context"

	"github.com/samber/do/v2"
)

// ProvideBound 把 Manager 中 T 的绑定暴露给 samber/do 注入器
// 每次 do.Invoke 都转发到 Manager，缓存与释放仍由绑定的作用域负责；
// 请求作用域的绑定在 do 中没有激活上下文，严格模式下会返回 ErrScopeNotActive
//
//	di.ProvideBound[*Repo](injector, m)
//	repo := do.MustInvoke[*Repo](injector)
func ProvideBound[T any](injector do.Injector, m *Manager) {
	do.ProvideTransient(injector, func(do.Injector) (T, error) {
		return Invoke[T](context.Background(), m)
	})
}

// ProvideManagerValue 直接注册已创建的 Manager（用于测试或特殊场景）
func ProvideManagerValue(m *Manager) func(do.Injector) (*Manager, error) {
	return func(do.Injector) (*Manager, error) {
		return m, nil
	}
}
