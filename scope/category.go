// Package scope 管理作用域上下文：实例缓存、激活计数与释放
//
// 每次激活对应一个 Context；singleton 作用域在整个 Manager 生命周期内只有一个 Context；
// per-lookup 作用域不缓存、不追踪，由 PerLookupStore 表示。
package scope

// Category 作用域类别
type Category string

const (
	// Singleton 整个 Manager 生命周期共享一个 Context
	Singleton Category = "singleton"
	// Request 每个逻辑工作单元一个 Context，支持嵌套激活（继承同一 Context）
	Request Category = "request"
	// PerLookup 每次查找创建新实例，不缓存、不自动释放
	PerLookup Category = "per_lookup"
)

// OrDefault 零值视为 PerLookup
func (c Category) OrDefault() Category {
	if c == "" {
		return PerLookup
	}
	return c
}

// String 实现 fmt.Stringer
func (c Category) String() string {
	return string(c.OrDefault())
}
