package di

import (
	"context"

	"github.com/KOMKZ/go-yogan-inject/scope"
)

// Activate 开始一次新的作用域激活（深度为 1）
// 返回的 Context 需要配合 RunWithin 使用，最终由 Deactivate 关闭
func (m *Manager) Activate(ctx context.Context, category scope.Category) (*scope.Context, error) {
	if err := m.checkRunning(); err != nil {
		return nil, err
	}
	return m.scopes.Activate(ctx, category)
}

// RunWithin 在已激活的 Context 中执行 fn，fn 内的查找使用该 Context
// 可以在其他 goroutine 中对同一 Context 调用，Context 在所有调用结束前不会关闭
func (m *Manager) RunWithin(ctx context.Context, c *scope.Context, fn func(ctx context.Context) error) error {
	if err := m.checkRunning(); err != nil {
		return err
	}
	return m.scopes.RunWithin(ctx, c, fn)
}

// Deactivate 结束 Activate 开始的激活，深度归零时释放其中的实例
func (m *Manager) Deactivate(ctx context.Context, c *scope.Context) error {
	return m.scopes.Deactivate(ctx, c)
}

// RunInScope 在 category 作用域中执行 fn
// ctx 中已有该类别的激活时嵌套进入（共享实例），否则新建激活并在 fn 返回后关闭
func (m *Manager) RunInScope(ctx context.Context, category scope.Category, fn func(ctx context.Context) error) error {
	if err := m.checkRunning(); err != nil {
		return err
	}
	return m.scopes.RunInScope(ctx, category, fn)
}
