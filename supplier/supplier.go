// Package supplier 定义实例提供者契约
//
// Supplier 负责生产实例；DisposableSupplier 额外负责释放自己生产的实例。
// 容器只保证调用顺序与次数：每个被缓存的实例最多 Dispose 一次，
// 且只交给生产它的那个 supplier。计数、关闭连接等副作用由 supplier 作者负责。
package supplier

import (
	"context"
	"fmt"
	"reflect"
)

// Supplier 实例提供者
type Supplier interface {
	// Get 生产一个实例，错误会原样传递给查找方
	Get(ctx context.Context) (any, error)
}

// DisposableSupplier 可释放实例的提供者
type DisposableSupplier interface {
	Supplier

	// Dispose 释放由同一 supplier 的 Get 生产的实例
	// 实现需容忍从未被调用（如作用域从未激活）
	Dispose(instance any)
}

// IsDisposable 能力探测，只应在注册阶段调用一次
func IsDisposable(s Supplier) bool {
	_, ok := s.(DisposableSupplier)
	return ok
}

// Func 将类型化函数适配为 Supplier
type Func[T any] func(ctx context.Context) (T, error)

// Get 实现 Supplier
func (f Func[T]) Get(ctx context.Context) (any, error) {
	return f(ctx)
}

// Value 每次返回同一个值的 Supplier
func Value[T any](v T) Supplier {
	return Func[T](func(context.Context) (T, error) { return v, nil })
}

// Disposable 由生产/释放函数对组成的 DisposableSupplier
type Disposable[T any] struct {
	Produce func(ctx context.Context) (T, error)
	Release func(instance T)
}

// NewDisposable 创建 Disposable
func NewDisposable[T any](produce func(ctx context.Context) (T, error), release func(T)) *Disposable[T] {
	return &Disposable[T]{Produce: produce, Release: release}
}

// Get 实现 Supplier
func (d *Disposable[T]) Get(ctx context.Context) (any, error) {
	return d.Produce(ctx)
}

// Dispose 实现 DisposableSupplier，类型不匹配的实例被忽略
func (d *Disposable[T]) Dispose(instance any) {
	if d.Release == nil {
		return
	}
	if v, ok := instance.(T); ok {
		d.Release(v)
	}
}

// Factory 按需创建 supplier 对象（per-lookup supplier 作用域使用）
type Factory func() Supplier

// SameInstance 实例身份比较
// 可比较类型用 ==；map/slice/func/chan/pointer 比较底层指针
// 值类型实例（string、int、值结构体）没有身份，相等即视为同一实例；需要按实例追踪释放时应生产指针类型
func SameInstance(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	default:
		return false
	}
}

// Describe 用于日志的实例类型描述
func Describe(instance any) string {
	if instance == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", instance)
}
