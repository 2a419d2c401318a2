package di

import (
	"context"

	"github.com/KOMKZ/go-yogan-inject/component"
)

var _ component.HealthChecker = (*Manager)(nil)

// Name 健康检查名称
func (m *Manager) Name() string {
	return component.ComponentInject
}

// Check Manager 运行中且单例作用域未关闭时健康
func (m *Manager) Check(ctx context.Context) error {
	if err := m.checkRunning(); err != nil {
		return err
	}
	if m.scopes.IsClosed() {
		return ErrManagerShutdown.WithMsg("scope registry is closed")
	}
	return ctx.Err()
}

// HealthCheck 实现 do.HealthcheckerWithContext
func (m *Manager) HealthCheck(ctx context.Context) error {
	return m.Check(ctx)
}
