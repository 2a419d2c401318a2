package scope

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/KOMKZ/go-yogan-inject/supplier"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/singleflight"
)

// State Context 状态
type State int32

const (
	StateOpen State = iota
	StateClosing
	StateClosed
)

// String 状态字符串表示
func (s State) String() string {
	switch s {
	case StateOpen:
		return "Open"
	case StateClosing:
		return "Closing"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// EntryState 缓存条目状态：ABSENT（无条目）-> CREATED -> DISPOSED
type EntryState int32

const (
	EntryCreated EntryState = iota + 1
	EntryDisposed
)

// Entry 缓存条目：实例及生产它的 supplier
type Entry struct {
	Key      uint64
	Value    any
	Supplier supplier.Supplier
	state    EntryState
}

// State 条目状态
func (e *Entry) State() EntryState {
	return e.state
}

// CreateFunc 生产实例，同时返回生产它的 supplier（释放时使用）
type CreateFunc func(ctx context.Context) (instance any, origin supplier.Supplier, err error)

// Store 实例存取策略
type Store interface {
	Category() Category
	GetOrCreate(ctx context.Context, key uint64, create CreateFunc) (any, error)
}

// Hooks 生命周期回调（日志、指标），均可为 nil
type Hooks struct {
	OnActivate func(ctx context.Context, c *Context)
	OnCreate   func(ctx context.Context, c *Context, key uint64, instance any)
	OnDispose  func(ctx context.Context, c *Context, key uint64, instance any, err error)
	OnClose    func(ctx context.Context, c *Context, disposed int)
}

// ContextOption Context 选项
type ContextOption func(*Context)

// WithDisposePool 关闭时在协程池中并发释放实例
func WithDisposePool(pool *ants.Pool) ContextOption {
	return func(c *Context) {
		c.pool = pool
	}
}

// WithGraveyard 共享已释放实例的记录（Registry 让所有 Context 共用一个）
func WithGraveyard(g *Graveyard) ContextOption {
	return func(c *Context) {
		c.graveyard = g
	}
}

// WithHooks 设置生命周期回调
func WithHooks(hooks Hooks) ContextOption {
	return func(c *Context) {
		c.hooks = hooks
	}
}

// Context 一次作用域激活的实例缓存与释放单元
//
// 同一 key 在一个 Context 中至多有一个 CREATED 条目；
// 关闭时先拒绝新的创建、等待进行中的创建完成，再对每个 CREATED 条目恰好释放一次。
type Context struct {
	id       string
	category Category

	mu      sync.Mutex
	state   State
	refs    int
	entries map[uint64]*Entry

	// 被替换或随关闭释放的条目记录在这里，用于识别重复释放
	graveyard *Graveyard

	flights  singleflight.Group
	inflight sync.WaitGroup
	done     chan struct{}

	pool     *ants.Pool
	hooks    Hooks
	onClosed []func(*Context)
}

// NewContext 创建 Context，初始引用计数为 1
func NewContext(category Category, opts ...ContextOption) *Context {
	c := &Context{
		id:       uuid.NewString(),
		category: category.OrDefault(),
		refs:     1,
		entries:  make(map[uint64]*Entry),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.graveyard == nil {
		c.graveyard = NewGraveyard(0)
	}
	return c
}

// ID 激活 ID
func (c *Context) ID() string {
	return c.id
}

// Category 作用域类别
func (c *Context) Category() Category {
	return c.category
}

// State 当前状态
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Depth 当前激活深度（引用计数）
func (c *Context) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refs
}

// Done Context 进入 CLOSED 后关闭
func (c *Context) Done() <-chan struct{} {
	return c.done
}

// Len CREATED 条目数
func (c *Context) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, e := range c.entries {
		if e.state == EntryCreated {
			n++
		}
	}
	return n
}

// Lookup 读取已缓存的实例，不触发创建
func (c *Context) Lookup(key uint64) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && e.state == EntryCreated {
		return e.Value, true
	}
	return nil, false
}

// GetOrCreate 读取或创建实例
// 同一 key 的并发首次查找只调用一次 create；调用 create 时不持有 Context 锁；
// 创建失败不留下条目；关闭开始后返回 ErrScopeClosed
func (c *Context) GetOrCreate(ctx context.Context, key uint64, create CreateFunc) (any, error) {
	c.mu.Lock()
	if c.state != StateOpen {
		c.mu.Unlock()
		return nil, ErrScopeClosed.WithMsgf("scope %s (%s) closed", c.category, c.id)
	}
	if e, ok := c.entries[key]; ok && e.state == EntryCreated {
		c.mu.Unlock()
		return e.Value, nil
	}
	c.inflight.Add(1)
	c.mu.Unlock()
	defer c.inflight.Done()

	v, err, _ := c.flights.Do(strconv.FormatUint(key, 10), func() (any, error) {
		// 双重检查：等待期间可能已被其他 flight 创建
		if v, ok := c.Lookup(key); ok {
			return v, nil
		}

		instance, origin, err := create(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if old, ok := c.entries[key]; ok {
			c.graveyard.Bury(key, old.Value)
		}
		c.entries[key] = &Entry{Key: key, Value: instance, Supplier: origin, state: EntryCreated}
		c.mu.Unlock()

		if c.hooks.OnCreate != nil {
			c.hooks.OnCreate(ctx, c, key, instance)
		}
		return instance, nil
	})
	return v, err
}

// MarkDisposed 显式释放的记账：CREATED -> DISPOSED
// found 表示该实例属于本 Context（或已记录在 Graveyard 中），origin 为生产它的 supplier；
// alreadyDisposed 表示此前已被释放（显式释放或关闭时释放），调用方不应再次释放
func (c *Context) MarkDisposed(key uint64, instance any) (origin supplier.Supplier, found, alreadyDisposed bool) {
	if origin, found, alreadyDisposed = c.markEntry(key, instance); found {
		return origin, found, alreadyDisposed
	}
	if c.graveyard.Contains(key, instance) {
		return nil, true, true
	}
	return nil, false, false
}

// markEntry 只查找当前条目，不查 Graveyard
func (c *Context) markEntry(key uint64, instance any) (origin supplier.Supplier, found, alreadyDisposed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !supplier.SameInstance(e.Value, instance) {
		return nil, false, false
	}
	if e.state == EntryDisposed {
		return e.Supplier, true, true
	}
	e.state = EntryDisposed
	return e.Supplier, true, false
}

// Retain 进入一层激活，Context 已开始关闭时返回 false
func (c *Context) Retain() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpen {
		return false
	}
	c.refs++
	return true
}

// Release 退出一层激活，深度归零时关闭 Context
func (c *Context) Release(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateOpen || c.refs <= 0 {
		c.mu.Unlock()
		return nil
	}
	c.refs--
	remaining := c.refs
	c.mu.Unlock()

	if remaining > 0 {
		return nil
	}
	return c.Close(ctx)
}

// Close 关闭 Context 并释放所有 CREATED 条目（幂等）
// 并发调用者会等待第一次关闭完成
func (c *Context) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateOpen {
		c.mu.Unlock()
		<-c.done
		return nil
	}
	c.state = StateClosing
	c.refs = 0
	c.mu.Unlock()

	// 等待进行中的创建完成，否则刚创建的实例会泄漏
	c.inflight.Wait()

	c.mu.Lock()
	pending := make([]*Entry, 0, len(c.entries))
	for key, e := range c.entries {
		// 持锁记录，Registry 遗忘本 Context 之前实例已可在 Graveyard 中找到
		c.graveyard.Bury(key, e.Value)
		if e.state != EntryCreated {
			continue
		}
		e.state = EntryDisposed
		if supplier.IsDisposable(e.Supplier) {
			pending = append(pending, e)
		}
	}
	c.mu.Unlock()

	err := c.disposeAll(ctx, pending)

	c.mu.Lock()
	c.state = StateClosed
	onClosed := c.onClosed
	c.mu.Unlock()
	close(c.done)

	for _, fn := range onClosed {
		fn(c)
	}
	if c.hooks.OnClose != nil {
		c.hooks.OnClose(ctx, c, len(pending))
	}
	return err
}

// disposeAll 释放条目，顺序不保证
func (c *Context) disposeAll(ctx context.Context, entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}

	errs := make([]error, len(entries))
	if c.pool == nil || len(entries) == 1 {
		for i, e := range entries {
			errs[i] = c.dispose(ctx, e)
		}
		return errors.Join(errs...)
	}

	var wg sync.WaitGroup
	for i, e := range entries {
		i, e := i, e
		wg.Add(1)
		task := func() {
			defer wg.Done()
			errs[i] = c.dispose(ctx, e)
		}
		if submitErr := c.pool.Submit(task); submitErr != nil {
			// 池已关闭或过载时退化为同步释放
			task()
		}
	}
	wg.Wait()
	return errors.Join(errs...)
}

// dispose 调用用户的 Dispose，panic 转为 error
func (c *Context) dispose(ctx context.Context, e *Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispose %s panicked: %v", supplier.Describe(e.Value), r)
		}
		if c.hooks.OnDispose != nil {
			c.hooks.OnDispose(ctx, c, e.Key, e.Value, err)
		}
	}()

	e.Supplier.(supplier.DisposableSupplier).Dispose(e.Value)
	return nil
}

// onClose 注册关闭后的内部回调（Registry 用来维护 live 集合）
func (c *Context) onClose(fn func(*Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClosed = append(c.onClosed, fn)
}

// PerLookupStore 不缓存的 Store：每次查找都生产新实例，且从不追踪释放
type PerLookupStore struct {
	hooks Hooks
}

// Category 实现 Store
func (PerLookupStore) Category() Category {
	return PerLookup
}

// GetOrCreate 直接调用 create
func (s PerLookupStore) GetOrCreate(ctx context.Context, key uint64, create CreateFunc) (any, error) {
	instance, _, err := create(ctx)
	if err != nil {
		return nil, err
	}
	if s.hooks.OnCreate != nil {
		s.hooks.OnCreate(ctx, nil, key, instance)
	}
	return instance, nil
}
