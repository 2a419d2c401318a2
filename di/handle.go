package di

import (
	"context"
	"fmt"
	"reflect"

	"github.com/KOMKZ/go-yogan-inject/binding"
	"github.com/KOMKZ/go-yogan-inject/scope"
	"github.com/KOMKZ/go-yogan-inject/supplier"
	"go.uber.org/zap"
)

// handle 绑定 supplier 的对外句柄
// Get 直接转发到 supplier，不经过作用域缓存，也不追踪释放
type handle struct {
	m *Manager
	b *binding.Binding
	s supplier.Supplier
}

// Get 实现 supplier.Supplier
func (h *handle) Get(ctx context.Context) (any, error) {
	return h.s.Get(ctx)
}

// disposableHandle 可释放绑定的句柄
type disposableHandle struct {
	*handle
}

// Dispose 实现 supplier.DisposableSupplier
// 作用域追踪的实例标记为已释放，关闭时不会再次释放；同一实例重复释放是空操作
func (h *disposableHandle) Dispose(instance any) {
	h.m.disposeExplicit(context.Background(), h.b, h.s, instance)
}

// GetSupplier 返回 typ 绑定的 supplier 句柄；未绑定或 Manager 已关闭时返回 nil
// supplier 作用域为 Singleton 时每次返回同一个句柄；为 PerLookup 时每次返回新句柄，各自持有新的 supplier
func (m *Manager) GetSupplier(typ reflect.Type) supplier.Supplier {
	if m.checkRunning() != nil {
		return nil
	}
	b, ok := m.table.Lookup(typ)
	if !ok {
		return nil
	}
	if b.SupplierScope() != scope.Singleton {
		return m.newHandle(b)
	}

	if h, ok := m.handles.Load(b.ID()); ok {
		return h.(supplier.Supplier)
	}
	h, _ := m.handles.LoadOrStore(b.ID(), m.newHandle(b))
	return h.(supplier.Supplier)
}

// GetDisposableSupplier 与 GetSupplier 相同，但绑定的 supplier 不可释放时返回 nil
func (m *Manager) GetDisposableSupplier(typ reflect.Type) supplier.DisposableSupplier {
	s, ok := m.GetSupplier(typ).(supplier.DisposableSupplier)
	if !ok {
		return nil
	}
	return s
}

func (m *Manager) newHandle(b *binding.Binding) supplier.Supplier {
	h := &handle{m: m, b: b, s: b.Supplier()}
	if b.IsDisposable() {
		return &disposableHandle{handle: h}
	}
	return h
}

// disposeExplicit 处理通过句柄发起的释放
// 在单例作用域、所有激活中的作用域以及已释放记录里查找该实例：
// 已释放（包括作用域关闭或 Shutdown 时释放的）则忽略；被追踪则交给生产它的 supplier 释放；
// 未被追踪则转发给句柄的 supplier
func (m *Manager) disposeExplicit(ctx context.Context, b *binding.Binding, fallback supplier.Supplier, instance any) {
	d := m.scopes.MarkDisposed(b.ID(), instance)
	if d.AlreadyDisposed {
		m.logger.DebugCtx(ctx, "instance already disposed, ignoring",
			zap.Stringer("target", b.Target()),
			zap.String("type", supplier.Describe(instance)),
		)
		return
	}

	target := fallback
	category := scope.PerLookup
	if d.Found {
		if d.Origin != nil {
			target = d.Origin
		}
		category = d.Category
	}

	ds, ok := target.(supplier.DisposableSupplier)
	if !ok {
		return
	}
	if err := safeDispose(ds, instance); err != nil {
		m.logger.WarnCtx(ctx, "instance dispose failed",
			zap.Stringer("target", b.Target()),
			zap.String("type", supplier.Describe(instance)),
			zap.Error(err),
		)
		return
	}
	m.logger.DebugCtx(ctx, "instance disposed explicitly",
		zap.Stringer("target", b.Target()),
		zap.String("type", supplier.Describe(instance)),
		zap.String("scope", category.String()),
	)
	m.observeDispose(ctx, category)
}

func safeDispose(s supplier.DisposableSupplier, instance any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispose %s panicked: %v", supplier.Describe(instance), r)
		}
	}()
	s.Dispose(instance)
	return nil
}
