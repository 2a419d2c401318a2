// Package di 注入管理器：绑定注册、按作用域查找实例、作用域激活与释放
//
//	m := di.New()
//	_, _ = m.Bind(binding.Spec{
//	    Target: di.TypeOf[*Conn](),
//	    Scope:  scope.Request,
//	    Source: binding.FactoryOf(NewConnSupplier),
//	})
//	_ = m.RunInScope(ctx, scope.Request, func(ctx context.Context) error {
//	    conn, err := di.Invoke[*Conn](ctx, m)
//	    ...
//	})
//	_ = m.Shutdown(ctx)
package di

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/KOMKZ/go-yogan-inject/binding"
	"github.com/KOMKZ/go-yogan-inject/logger"
	"github.com/KOMKZ/go-yogan-inject/scope"
	"github.com/KOMKZ/go-yogan-inject/supplier"
	"github.com/KOMKZ/go-yogan-inject/validator"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// State Manager 状态
type State int32

const (
	StateInit State = iota
	StateRunning
	StateStopping
	StateStopped
)

// String 状态字符串表示
func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Option Manager 选项
type Option func(*Manager)

// WithLogger 设置日志（测试中可传入 logger.NewTestCtxLogger()）
func WithLogger(l logger.CtxLogger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithConfig 设置配置
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		m.config = cfg
	}
}

// WithTracerProvider 设置 TracerProvider，仅在 TracingEnabled 时生效
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *Manager) {
		m.tracerProvider = tp
	}
}

// Manager 注入管理器
type Manager struct {
	config         Config
	logger         logger.CtxLogger
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer

	table   *binding.Table
	scopes  *scope.Registry
	pool    *ants.Pool
	handles sync.Map // 绑定 ID -> singleton supplier 的句柄

	metrics atomic.Pointer[instruments]

	state        atomic.Int32
	shutdownOnce sync.Once
	shutdownErr  error
}

// New 创建 Manager
func New(opts ...Option) *Manager {
	m := &Manager{
		config: DefaultConfig(),
		table:  binding.NewTable(),
	}
	m.state.Store(int32(StateInit))
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logger.GetLogger("inject")
	}

	m.tracer = nooptrace.NewTracerProvider().Tracer("inject")
	if m.config.TracingEnabled {
		if m.tracerProvider == nil {
			m.tracerProvider = otel.GetTracerProvider()
		}
		m.tracer = m.tracerProvider.Tracer("github.com/KOMKZ/go-yogan-inject/di")
	}

	ctxOpts := []scope.ContextOption{
		scope.WithHooks(m.hooks()),
		scope.WithGraveyard(scope.NewGraveyard(m.config.DisposedHistory)),
	}
	if m.config.DisposeWorkers > 1 {
		pool, err := ants.NewPool(m.config.DisposeWorkers)
		if err != nil {
			m.logger.WarnCtx(context.Background(), "dispose pool unavailable, disposing inline",
				zap.Int("workers", m.config.DisposeWorkers), zap.Error(err))
		} else {
			m.pool = pool
			ctxOpts = append(ctxOpts, scope.WithDisposePool(pool))
		}
	}
	m.scopes = scope.NewRegistry(ctxOpts...)

	m.state.Store(int32(StateRunning))
	return m
}

// NewFromConfig 校验配置后创建 Manager
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, ErrInvalidConfig.Wrap(err)
	}
	return New(append([]Option{WithConfig(cfg)}, opts...)...), nil
}

// State 当前状态
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Config 生效的配置
func (m *Manager) Config() Config {
	return m.config
}

// Scopes 作用域注册表
func (m *Manager) Scopes() *scope.Registry {
	return m.scopes
}

func (m *Manager) checkRunning() error {
	if m.State() != StateRunning {
		return ErrManagerShutdown.WithMsgf("injection manager is %s", m.State())
	}
	return nil
}

// Register 注册 supplier 实例到 target 类型
// 与 Bind 相同，但 supplier 作用域固定为 Singleton
func (m *Manager) Register(target reflect.Type, s supplier.Supplier, category scope.Category, aliases ...reflect.Type) (*binding.Binding, error) {
	return m.Bind(binding.Spec{
		Target:  target,
		Aliases: aliases,
		Scope:   category,
		Source:  binding.Instance(s),
	})
}

// Bind 注册绑定，同一类型后注册者生效，旧绑定声明的别名随之失效
func (m *Manager) Bind(spec binding.Spec) (*binding.Binding, error) {
	if err := m.checkRunning(); err != nil {
		return nil, err
	}
	if !m.scopes.Known(spec.Scope) {
		return nil, scope.ErrUnknownScope.WithMsgf("unknown scope %q for %v", spec.Scope, spec.Target)
	}

	b, err := m.table.Register(spec)
	if err != nil {
		return nil, err
	}
	m.logger.DebugCtx(context.Background(), "binding registered",
		zap.Uint64("binding_id", b.ID()),
		zap.Stringer("target", b.Target()),
		zap.String("scope", b.Scope().String()),
		zap.String("supplier_scope", b.SupplierScope().String()),
		zap.Bool("disposable", b.IsDisposable()),
	)
	return b, nil
}

// Unbind 移除 typ 对应的绑定，已缓存的实例仍由所属作用域在关闭时释放
func (m *Manager) Unbind(typ reflect.Type) bool {
	b := m.table.Remove(typ)
	if b == nil {
		return false
	}
	m.handles.Delete(b.ID())
	return true
}

// Bindings 所有生效的绑定
func (m *Manager) Bindings() []*binding.Binding {
	return m.table.All()
}

// RegisterScope 注册自定义作用域类别，resolver 为 nil 时通过 ctx 传播
func (m *Manager) RegisterScope(category scope.Category, resolver scope.Resolver) error {
	if err := m.checkRunning(); err != nil {
		return err
	}
	return m.scopes.Register(category, resolver)
}

// GetInstance 按类型查找实例
// 没有绑定时返回 nil, nil；作用域未激活时返回 scope.ErrScopeNotActive；
// 生产失败时返回 ErrSupplierProduction，Cause 为 supplier 的原始错误
func (m *Manager) GetInstance(ctx context.Context, typ reflect.Type) (any, error) {
	if err := m.checkRunning(); err != nil {
		return nil, err
	}
	b, ok := m.table.Lookup(typ)
	if !ok {
		return nil, nil
	}
	return m.instance(ctx, b)
}

func (m *Manager) instance(ctx context.Context, b *binding.Binding) (any, error) {
	store, err := m.scopes.Resolve(ctx, b.Scope())
	if err != nil {
		if m.config.StrictRequestScope || !errors.Is(err, scope.ErrScopeNotActive) {
			return nil, err
		}
		m.logger.WarnCtx(ctx, "scope not active, producing untracked instance",
			zap.Stringer("target", b.Target()),
			zap.String("scope", b.Scope().String()),
		)
		if store, err = m.scopes.Resolve(ctx, scope.PerLookup); err != nil {
			return nil, err
		}
	}
	return store.GetOrCreate(ctx, b.ID(), m.producer(b))
}

// Shutdown 关闭所有激活中的作用域与单例作用域并清空绑定（幂等，重复调用返回第一次的结果）
// 关闭后所有操作返回 ErrManagerShutdown；同时实现 do.ShutdownerWithContextAndError
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdownOnce.Do(func() {
		m.state.Store(int32(StateStopping))
		m.logger.InfoCtx(ctx, "injection manager shutting down",
			zap.Int("live_scopes", len(m.scopes.Live())))

		err := m.scopes.Close(ctx)
		m.shutdownErr = err
		released := m.table.Release()
		m.handles.Range(func(key, _ any) bool {
			m.handles.Delete(key)
			return true
		})
		if m.pool != nil {
			m.pool.Release()
		}

		m.state.Store(int32(StateStopped))
		if err != nil {
			m.logger.ErrorCtx(ctx, "injection manager shut down with dispose errors",
				zap.Int("bindings", len(released)), zap.Error(err))
			return
		}
		m.logger.InfoCtx(ctx, "injection manager shut down", zap.Int("bindings", len(released)))
	})
	return m.shutdownErr
}
