// Package binding 维护类型 -> 绑定 的注册表
//
// 每个绑定有两个作用域：
//   - Scope：实例作用域，决定 supplier 生产的实例缓存在哪里（默认 per-lookup）
//   - SupplierScope：supplier 作用域，决定 supplier 对象本身是否共享
//     （Singleton 全局一个，PerLookup 每次句柄查找、每次生产都新建）
package binding

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/KOMKZ/go-yogan-inject/scope"
	"github.com/KOMKZ/go-yogan-inject/supplier"
)

var disposableType = reflect.TypeFor[supplier.DisposableSupplier]()

// Source supplier 来源：现成的 supplier 实例，或 supplier 工厂
type Source struct {
	instance   supplier.Supplier
	factory    supplier.Factory
	disposable bool
}

// Instance 使用现成的 supplier 实例（supplier 作用域只能是 Singleton）
func Instance(s supplier.Supplier) Source {
	if s == nil {
		return Source{}
	}
	return Source{instance: s, disposable: supplier.IsDisposable(s)}
}

// FactoryOf 使用 supplier 工厂，可释放能力由静态类型 S 决定
func FactoryOf[S supplier.Supplier](fn func() S) Source {
	if fn == nil {
		return Source{}
	}
	return Source{
		factory:    func() supplier.Supplier { return fn() },
		disposable: reflect.TypeFor[S]().Implements(disposableType),
	}
}

// IsZero 是否未设置
func (s Source) IsZero() bool {
	return s.instance == nil && s.factory == nil
}

// Spec 注册参数
type Spec struct {
	Target  reflect.Type
	Aliases []reflect.Type
	// Scope 实例作用域，零值为 per-lookup
	Scope scope.Category
	// SupplierScope 零值时：Instance 来源为 Singleton，工厂来源为 PerLookup
	SupplierScope scope.Category
	Source        Source
}

// Binding 一条已注册的绑定（注册后不可变）
type Binding struct {
	id            uint64
	target        reflect.Type
	aliases       []reflect.Type
	scope         scope.Category
	supplierScope scope.Category
	source        Source

	once   sync.Once
	shared supplier.Supplier
}

// ID 绑定 ID，单调递增，用作作用域缓存的 key
func (b *Binding) ID() uint64 {
	return b.id
}

// Target 目标类型
func (b *Binding) Target() reflect.Type {
	return b.target
}

// Aliases 额外暴露的类型（副本）
func (b *Binding) Aliases() []reflect.Type {
	return append([]reflect.Type(nil), b.aliases...)
}

// Scope 实例作用域
func (b *Binding) Scope() scope.Category {
	return b.scope
}

// SupplierScope supplier 作用域
func (b *Binding) SupplierScope() scope.Category {
	return b.supplierScope
}

// IsDisposable 注册时确定的可释放能力
func (b *Binding) IsDisposable() bool {
	return b.source.disposable
}

// Supplier 按 supplier 作用域返回 supplier 对象
// Singleton：整个绑定生命周期同一个；PerLookup：每次调用新建
func (b *Binding) Supplier() supplier.Supplier {
	if b.supplierScope == scope.PerLookup {
		return b.source.factory()
	}
	b.once.Do(func() {
		if b.source.instance != nil {
			b.shared = b.source.instance
			return
		}
		b.shared = b.source.factory()
	})
	return b.shared
}

// String 用于日志
func (b *Binding) String() string {
	names := make([]string, 0, len(b.aliases))
	for _, a := range b.aliases {
		names = append(names, a.String())
	}
	return fmt.Sprintf("binding#%d{%s as [%s] scope=%s supplier=%s disposable=%t}",
		b.id, b.target, strings.Join(names, ","), b.scope, b.supplierScope, b.source.disposable)
}

func newBinding(id uint64, spec Spec) (*Binding, error) {
	if spec.Target == nil {
		return nil, ErrInvalidBinding.WithMsg("binding target type is nil")
	}
	if spec.Source.IsZero() {
		return nil, ErrInvalidBinding.WithMsgf("binding for %s has no supplier", spec.Target)
	}

	supplierScope := spec.SupplierScope
	if supplierScope == "" {
		if spec.Source.instance != nil {
			supplierScope = scope.Singleton
		} else {
			supplierScope = scope.PerLookup
		}
	}
	switch supplierScope {
	case scope.Singleton:
	case scope.PerLookup:
		if spec.Source.instance != nil {
			return nil, ErrInvalidBinding.WithMsgf("supplier instance for %s cannot be per-lookup", spec.Target)
		}
	default:
		return nil, ErrInvalidBinding.WithMsgf("unsupported supplier scope %q for %s", supplierScope, spec.Target)
	}

	aliases := make([]reflect.Type, 0, len(spec.Aliases))
	for _, alias := range spec.Aliases {
		if alias == nil {
			return nil, ErrInvalidBinding.WithMsgf("nil alias for %s", spec.Target)
		}
		if !spec.Target.AssignableTo(alias) {
			return nil, ErrInvalidBinding.WithMsgf("%s is not assignable to alias %s", spec.Target, alias)
		}
		if alias != spec.Target {
			aliases = append(aliases, alias)
		}
	}

	return &Binding{
		id:            id,
		target:        spec.Target,
		aliases:       aliases,
		scope:         spec.Scope.OrDefault(),
		supplierScope: supplierScope,
		source:        spec.Source,
	}, nil
}
