package scope

import (
	"context"
	"errors"
	"testing"

	"github.com/KOMKZ/go-yogan-inject/logger"
	"github.com/KOMKZ/go-yogan-inject/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ResolveBuiltins(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	store, err := r.Resolve(ctx, Singleton)
	require.NoError(t, err)
	assert.Same(t, r.Singleton(), store)

	store, err = r.Resolve(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, PerLookup, store.Category())

	_, err = r.Resolve(ctx, Request)
	assert.ErrorIs(t, err, ErrScopeNotActive)

	_, err = r.Resolve(ctx, Category("session"))
	assert.ErrorIs(t, err, ErrUnknownScope)
}

func TestRegistry_ActivateNotActivatable(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	_, err := r.Activate(ctx, Singleton)
	assert.ErrorIs(t, err, ErrNotActivatable)
	_, err = r.Activate(ctx, PerLookup)
	assert.ErrorIs(t, err, ErrNotActivatable)
	_, err = r.Activate(ctx, Category("tenant"))
	assert.ErrorIs(t, err, ErrUnknownScope)
}

func TestRegistry_RunInScope(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	s := testutil.NewCounterSupplier()

	var active *Context
	err := r.RunInScope(ctx, Request, func(ctx context.Context) error {
		store, err := r.Resolve(ctx, Request)
		require.NoError(t, err)
		active = store.(*Context)

		v, err := store.GetOrCreate(ctx, 1, createFrom(s))
		require.NoError(t, err)
		assert.Equal(t, "1", v)
		assert.Equal(t, active.ID(), logger.ScopeIDFromContext(ctx))
		assert.Len(t, r.Live(), 1)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, StateClosed, active.State())
	assert.EqualValues(t, 0, s.Count())
	assert.Empty(t, r.Live())
}

func TestRegistry_RunInScope_Nested(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	s := testutil.NewHolderSupplier()

	err := r.RunInScope(ctx, Request, func(ctx context.Context) error {
		outer := FromContext(ctx, Request)
		v1, err := outer.GetOrCreate(ctx, 1, createFrom(s))
		require.NoError(t, err)

		err = r.RunInScope(ctx, Request, func(ctx context.Context) error {
			inner := FromContext(ctx, Request)
			assert.Same(t, outer, inner)
			assert.Equal(t, 2, inner.Depth())

			v2, err := inner.GetOrCreate(ctx, 1, createFrom(s))
			require.NoError(t, err)
			assert.Same(t, v1, v2)
			return nil
		})
		require.NoError(t, err)

		// 内层退出不释放
		assert.Equal(t, StateOpen, outer.State())
		assert.Empty(t, s.Released())
		return nil
	})
	require.NoError(t, err)

	require.Len(t, s.Released(), 1)
	assert.EqualValues(t, 0, s.Count())
}

func TestRegistry_RunInScope_ErrorStillCloses(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	s := testutil.NewCounterSupplier()
	boom := errors.New("boom")

	err := r.RunInScope(ctx, Request, func(ctx context.Context) error {
		store, _ := r.Resolve(ctx, Request)
		_, _ = store.GetOrCreate(ctx, 1, createFrom(s))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 1, s.Disposed())
}

func TestRegistry_RunInScope_PanicStillCloses(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	s := testutil.NewCounterSupplier()

	assert.Panics(t, func() {
		_ = r.RunInScope(ctx, Request, func(ctx context.Context) error {
			store, _ := r.Resolve(ctx, Request)
			_, _ = store.GetOrCreate(ctx, 1, createFrom(s))
			panic("handler failed")
		})
	})
	assert.EqualValues(t, 1, s.Disposed())
	assert.Empty(t, r.Live())
}

func TestRegistry_ActivateRunWithinDeactivate(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	s := testutil.NewCounterSupplier()

	c, err := r.Activate(ctx, Request)
	require.NoError(t, err)

	// 同一 Context 可多次进入，实例保持
	for i := 0; i < 3; i++ {
		err = r.RunWithin(ctx, c, func(ctx context.Context) error {
			store, err := r.Resolve(ctx, Request)
			require.NoError(t, err)
			v, err := store.GetOrCreate(ctx, 1, createFrom(s))
			require.NoError(t, err)
			assert.Equal(t, "1", v)
			return nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, StateOpen, c.State())
	assert.EqualValues(t, 1, s.Produced())

	require.NoError(t, r.Deactivate(ctx, c))
	assert.Equal(t, StateClosed, c.State())
	assert.EqualValues(t, 1, s.Disposed())

	err = r.RunWithin(ctx, c, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrScopeClosed)
}

func TestRegistry_ResolveClosedContext(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	c, err := r.Activate(ctx, Request)
	require.NoError(t, err)
	scoped := WithContext(ctx, c)
	require.NoError(t, r.Deactivate(ctx, c))

	_, err = r.Resolve(scoped, Request)
	assert.ErrorIs(t, err, ErrScopeClosed)
}

func TestRegistry_CustomCategory(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	session := Category("session")

	require.NoError(t, r.Register(session, nil))
	assert.True(t, r.Known(session))

	err := r.RunInScope(ctx, session, func(ctx context.Context) error {
		store, err := r.Resolve(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, session, store.Category())

		// request 作用域与 session 作用域互不影响
		_, err = r.Resolve(ctx, Request)
		assert.ErrorIs(t, err, ErrScopeNotActive)
		return nil
	})
	require.NoError(t, err)

	assert.ErrorIs(t, r.Register(Singleton, nil), ErrNotActivatable)
}

func TestRegistry_CustomResolver(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	shared := NewContext("tenant")
	require.NoError(t, r.Register("tenant", func(ctx context.Context) (Store, error) {
		return shared, nil
	}))

	store, err := r.Resolve(ctx, "tenant")
	require.NoError(t, err)
	assert.Same(t, shared, store)

	_, err = r.Activate(ctx, "tenant")
	assert.ErrorIs(t, err, ErrNotActivatable)
}

func TestRegistry_Close(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	requestSupplier := testutil.NewCounterSupplier()
	singletonSupplier := testutil.NewCounterSupplier()

	c, err := r.Activate(ctx, Request)
	require.NoError(t, err)
	_, err = c.GetOrCreate(ctx, 1, createFrom(requestSupplier))
	require.NoError(t, err)
	_, err = r.Singleton().GetOrCreate(ctx, 2, createFrom(singletonSupplier))
	require.NoError(t, err)

	require.NoError(t, r.Close(ctx))
	require.NoError(t, r.Close(ctx))

	assert.True(t, r.IsClosed())
	assert.Equal(t, StateClosed, c.State())
	assert.EqualValues(t, 1, requestSupplier.Disposed())
	assert.EqualValues(t, 1, singletonSupplier.Disposed())

	_, err = r.Activate(ctx, Request)
	assert.ErrorIs(t, err, ErrScopeClosed)
	_, err = r.Resolve(ctx, Singleton)
	assert.ErrorIs(t, err, ErrScopeClosed)
	// 绑定了 context 的 Deactivate 在关闭后无副作用
	require.NoError(t, r.Deactivate(ctx, c))
}

func TestRegistry_MarkDisposed_AfterRunInScope(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	s := testutil.NewHolderSupplier()

	var v any
	require.NoError(t, r.RunInScope(ctx, Request, func(ctx context.Context) error {
		store, err := r.Resolve(ctx, Request)
		require.NoError(t, err)
		v, err = store.GetOrCreate(ctx, 1, createFrom(s))
		return err
	}))
	require.Len(t, s.Released(), 1)
	require.Empty(t, r.Live())

	d := r.MarkDisposed(1, v)
	assert.True(t, d.Found)
	assert.True(t, d.AlreadyDisposed)
	assert.False(t, r.MarkDisposed(1, testutil.NewHolder("1")).Found)
}

func TestRegistry_MarkDisposed_LiveAndAfterClose(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	s := testutil.NewHolderSupplier()

	c, err := r.Activate(ctx, Request)
	require.NoError(t, err)
	explicit, err := c.GetOrCreate(ctx, 1, createFrom(s))
	require.NoError(t, err)
	closed, err := r.Singleton().GetOrCreate(ctx, 2, createFrom(s))
	require.NoError(t, err)

	d := r.MarkDisposed(1, explicit)
	assert.Same(t, s, d.Origin)
	assert.Equal(t, Request, d.Category)
	assert.True(t, d.Found)
	assert.False(t, d.AlreadyDisposed)

	require.NoError(t, r.Close(ctx))
	// 只有单例实例在关闭时释放
	require.Len(t, s.Released(), 1)

	for _, v := range []any{explicit, closed} {
		d = r.MarkDisposed(0, v)
		assert.False(t, d.Found)
	}
	assert.True(t, r.MarkDisposed(1, explicit).AlreadyDisposed)
	assert.True(t, r.MarkDisposed(2, closed).AlreadyDisposed)
}

func TestRegistry_SharedGraveyard(t *testing.T) {
	g := NewGraveyard(32)
	r := NewRegistry(WithGraveyard(g))
	assert.Same(t, g, r.Graveyard())

	c, err := r.Activate(context.Background(), Request)
	require.NoError(t, err)
	assert.Same(t, g, c.graveyard)
	require.NoError(t, r.Deactivate(context.Background(), c))
}

func TestRegistry_ActivateHook(t *testing.T) {
	ctx := context.Background()
	activated := 0
	r := NewRegistry(WithHooks(Hooks{
		OnActivate: func(ctx context.Context, c *Context) { activated++ },
	}))

	require.NoError(t, r.RunInScope(ctx, Request, func(ctx context.Context) error {
		return r.RunInScope(ctx, Request, func(ctx context.Context) error { return nil })
	}))
	assert.Equal(t, 1, activated)
}
