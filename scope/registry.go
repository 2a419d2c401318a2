package scope

import (
	"context"
	"errors"
	"sync"

	"github.com/KOMKZ/go-yogan-inject/supplier"
)

// Resolver 解析自定义作用域的 Store
type Resolver func(ctx context.Context) (Store, error)

type lifecycle struct {
	resolver    Resolver
	activatable bool
}

// Registry 作用域类别 -> Store 的映射及激活生命周期
type Registry struct {
	mu         sync.RWMutex
	categories map[Category]lifecycle
	singleton  *Context
	perLookup  PerLookupStore
	live       map[*Context]struct{}
	graveyard  *Graveyard
	opts       []ContextOption
	hooks      Hooks
	closed     bool
}

// NewRegistry 创建 Registry，内置 Singleton、Request、PerLookup 三种类别
func NewRegistry(opts ...ContextOption) *Registry {
	r := &Registry{
		categories: make(map[Category]lifecycle),
		live:       make(map[*Context]struct{}),
	}
	r.singleton = NewContext(Singleton, opts...)
	r.hooks = r.singleton.hooks
	r.graveyard = r.singleton.graveyard
	r.opts = append(opts[:len(opts):len(opts)], WithGraveyard(r.graveyard))
	r.perLookup = PerLookupStore{hooks: r.hooks}

	r.categories[Singleton] = lifecycle{}
	r.categories[PerLookup] = lifecycle{}
	r.categories[Request] = lifecycle{activatable: true}
	return r
}

// Register 注册自定义作用域类别
// resolver 为 nil 时该类别通过 ctx 传播，可被 Activate；否则由 resolver 决定 Store
func (r *Registry) Register(category Category, resolver Resolver) error {
	category = category.OrDefault()
	if category == Singleton || category == PerLookup {
		return ErrNotActivatable.WithMsgf("built-in scope %s cannot be re-registered", category)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[category] = lifecycle{resolver: resolver, activatable: resolver == nil}
	return nil
}

// Known 类别是否已注册
func (r *Registry) Known(category Category) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.categories[category.OrDefault()]
	return ok
}

// Singleton 单例 Context
func (r *Registry) Singleton() *Context {
	return r.singleton
}

// Resolve 解析类别对应的 Store
func (r *Registry) Resolve(ctx context.Context, category Category) (Store, error) {
	category = category.OrDefault()

	r.mu.RLock()
	lc, ok := r.categories[category]
	closed := r.closed
	r.mu.RUnlock()

	switch {
	case !ok:
		return nil, ErrUnknownScope.WithMsgf("unknown scope: %s", category)
	case category == PerLookup:
		return r.perLookup, nil
	case closed:
		return nil, ErrScopeClosed.WithMsgf("scope registry closed")
	case category == Singleton:
		return r.singleton, nil
	case lc.resolver != nil:
		return lc.resolver(ctx)
	}

	c := FromContext(ctx, category)
	if c == nil {
		return nil, ErrScopeNotActive.WithMsgf("scope %s is not active", category)
	}
	if c.State() != StateOpen {
		return nil, ErrScopeClosed.WithMsgf("scope %s (%s) closed", category, c.id)
	}
	return c, nil
}

// Activate 开启一次新的激活，返回深度为 1 的 Context
func (r *Registry) Activate(ctx context.Context, category Category) (*Context, error) {
	category = category.OrDefault()

	r.mu.Lock()
	lc, ok := r.categories[category]
	if !ok {
		r.mu.Unlock()
		return nil, ErrUnknownScope.WithMsgf("unknown scope: %s", category)
	}
	if !lc.activatable {
		r.mu.Unlock()
		return nil, ErrNotActivatable.WithMsgf("scope %s cannot be activated", category)
	}
	if r.closed {
		r.mu.Unlock()
		return nil, ErrScopeClosed.WithMsgf("scope registry closed")
	}
	c := NewContext(category, r.opts...)
	r.live[c] = struct{}{}
	r.mu.Unlock()

	c.onClose(r.forget)
	if r.hooks.OnActivate != nil {
		r.hooks.OnActivate(ctx, c)
	}
	return c, nil
}

func (r *Registry) forget(c *Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, c)
}

// RunWithin 在 c 中执行 fn（深度 +1），fn 返回或 panic 后深度 -1
func (r *Registry) RunWithin(ctx context.Context, c *Context, fn func(ctx context.Context) error) (err error) {
	if !c.Retain() {
		return ErrScopeClosed.WithMsgf("scope %s (%s) closed", c.category, c.id)
	}
	defer func() {
		if relErr := c.Release(ctx); err == nil {
			err = relErr
		}
	}()
	return fn(WithContext(ctx, c))
}

// Deactivate 结束 Activate 开启的激活，深度归零时释放
func (r *Registry) Deactivate(ctx context.Context, c *Context) error {
	return c.Release(ctx)
}

// RunInScope 在类别 category 的作用域中执行 fn
// ctx 中已有同类别的打开 Context 时复用它（嵌套），否则新开一个并在 fn 结束后关闭
func (r *Registry) RunInScope(ctx context.Context, category Category, fn func(ctx context.Context) error) (err error) {
	if outer := FromContext(ctx, category); outer != nil && outer.Retain() {
		defer func() {
			if relErr := outer.Release(ctx); err == nil {
				err = relErr
			}
		}()
		return fn(ctx)
	}

	c, err := r.Activate(ctx, category)
	if err != nil {
		return err
	}
	defer func() {
		if deErr := r.Deactivate(ctx, c); err == nil {
			err = deErr
		}
	}()
	return r.RunWithin(ctx, c, fn)
}

// Live 所有打开的激活 Context（快照）
func (r *Registry) Live() []*Context {
	r.mu.RLock()
	defer r.mu.RUnlock()

	contexts := make([]*Context, 0, len(r.live))
	for c := range r.live {
		contexts = append(contexts, c)
	}
	return contexts
}

// Disposal 显式释放的记账结果
type Disposal struct {
	Origin          supplier.Supplier
	Category        Category
	Found           bool
	AlreadyDisposed bool
}

// MarkDisposed 在单例、所有打开的激活以及已释放记录中查找实例并记账
// 激活关闭或 Registry 关闭之后，其实例仍能被识别为已释放
func (r *Registry) MarkDisposed(key uint64, instance any) Disposal {
	for _, c := range append([]*Context{r.singleton}, r.Live()...) {
		if origin, found, already := c.markEntry(key, instance); found {
			return Disposal{Origin: origin, Category: c.category, Found: true, AlreadyDisposed: already}
		}
	}
	if r.graveyard.Contains(key, instance) {
		return Disposal{Found: true, AlreadyDisposed: true}
	}
	return Disposal{}
}

// Graveyard 所有 Context 共用的已释放记录
func (r *Registry) Graveyard() *Graveyard {
	return r.graveyard
}

// Close 关闭所有激活中的 Context（忽略深度），最后关闭单例 Context（幂等）
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	var errs []error
	for _, c := range r.Live() {
		errs = append(errs, c.Close(ctx))
	}
	errs = append(errs, r.singleton.Close(ctx))
	return errors.Join(errs...)
}

// IsClosed 是否已关闭
func (r *Registry) IsClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}
