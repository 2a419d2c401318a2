package di

import (
	"context"
	"reflect"

	"github.com/KOMKZ/go-yogan-inject/supplier"
)

// TypeOf 类型 T 的 reflect.Type，用作绑定的 key
func TypeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// Invoke 按类型查找实例
// 没有绑定时返回 ErrNotBound，实例不是 T 时返回 ErrTypeMismatch
func Invoke[T any](ctx context.Context, m *Manager) (T, error) {
	var zero T
	typ := TypeOf[T]()

	v, err := m.GetInstance(ctx, typ)
	if err != nil {
		return zero, err
	}
	if v == nil {
		if _, ok := m.table.Lookup(typ); !ok {
			return zero, ErrNotBound.WithMsgf("%s is not bound", typ).WithData("type", typ.String())
		}
		return zero, nil
	}

	t, ok := v.(T)
	if !ok {
		return zero, ErrTypeMismatch.
			WithMsgf("supplier for %s produced %s", typ, supplier.Describe(v)).
			WithData("type", typ.String())
	}
	return t, nil
}

// MustInvoke 同 Invoke，出错时 panic
func MustInvoke[T any](ctx context.Context, m *Manager) T {
	v, err := Invoke[T](ctx, m)
	if err != nil {
		panic(err)
	}
	return v
}

// SupplierOf 类型 T 绑定的 supplier 句柄
func SupplierOf[T any](m *Manager) supplier.Supplier {
	return m.GetSupplier(TypeOf[T]())
}
