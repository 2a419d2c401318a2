package scope

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-inject/supplier"
	"github.com/KOMKZ/go-yogan-inject/testutil"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func createFrom(s supplier.Supplier) CreateFunc {
	return func(ctx context.Context) (any, supplier.Supplier, error) {
		v, err := s.Get(ctx)
		return v, s, err
	}
}

func TestContext_GetOrCreate_Caches(t *testing.T) {
	ctx := context.Background()
	c := NewContext(Request)
	s := testutil.NewCounterSupplier()

	v1, err := c.GetOrCreate(ctx, 1, createFrom(s))
	require.NoError(t, err)
	v2, err := c.GetOrCreate(ctx, 1, createFrom(s))
	require.NoError(t, err)

	assert.Equal(t, "1", v1)
	assert.Equal(t, "1", v2)
	assert.EqualValues(t, 1, s.Produced())
	assert.Equal(t, 1, c.Len())

	cached, ok := c.Lookup(1)
	assert.True(t, ok)
	assert.Equal(t, "1", cached)
}

func TestContext_GetOrCreate_FailureLeavesNoEntry(t *testing.T) {
	ctx := context.Background()
	c := NewContext(Request)
	s := testutil.NewFailingSupplier(1)

	_, err := c.GetOrCreate(ctx, 7, createFrom(s))
	assert.ErrorIs(t, err, testutil.ErrProduce)
	assert.Equal(t, 0, c.Len())

	v, err := c.GetOrCreate(ctx, 7, createFrom(s))
	require.NoError(t, err)
	assert.Equal(t, "2", v.(*testutil.Holder).Value())
	assert.EqualValues(t, 2, s.Calls())
}

func TestContext_GetOrCreate_SingleFlight(t *testing.T) {
	ctx := context.Background()
	c := NewContext(Singleton)
	s := testutil.NewSlowSupplier(20 * time.Millisecond)

	results := make([]any, 16)
	g, gctx := errgroup.WithContext(ctx)
	for i := range results {
		i := i
		g.Go(func() error {
			v, err := c.GetOrCreate(gctx, 3, createFrom(s))
			results[i] = v
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, s.Produced())
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
}

func TestContext_Close_DisposesOnce(t *testing.T) {
	ctx := context.Background()
	c := NewContext(Request)
	counter := testutil.NewCounterSupplier()
	plain := supplier.Value("config")

	_, err := c.GetOrCreate(ctx, 1, createFrom(counter))
	require.NoError(t, err)
	_, err = c.GetOrCreate(ctx, 2, createFrom(plain))
	require.NoError(t, err)

	require.NoError(t, c.Close(ctx))
	require.NoError(t, c.Close(ctx))

	assert.Equal(t, StateClosed, c.State())
	assert.EqualValues(t, 1, counter.Disposed())
	assert.EqualValues(t, 0, counter.Count())
	assert.Equal(t, 0, c.Len())

	select {
	case <-c.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestContext_GetOrCreate_AfterClose(t *testing.T) {
	ctx := context.Background()
	c := NewContext(Request)
	require.NoError(t, c.Close(ctx))

	_, err := c.GetOrCreate(ctx, 1, createFrom(testutil.NewCounterSupplier()))
	assert.ErrorIs(t, err, ErrScopeClosed)
}

func TestContext_MarkDisposed(t *testing.T) {
	ctx := context.Background()
	c := NewContext(Request)
	s := testutil.NewHolderSupplier()

	v, err := c.GetOrCreate(ctx, 1, createFrom(s))
	require.NoError(t, err)

	origin, found, already := c.MarkDisposed(1, testutil.NewHolder("1"))
	assert.Nil(t, origin)
	assert.False(t, found)
	assert.False(t, already)

	origin, found, already = c.MarkDisposed(1, v)
	assert.Same(t, s, origin)
	assert.True(t, found)
	assert.False(t, already)

	_, found, already = c.MarkDisposed(1, v)
	assert.True(t, found)
	assert.True(t, already)

	// 显式释放后的条目不再参与关闭时的释放
	require.NoError(t, c.Close(ctx))
	assert.Empty(t, s.Released())
}

func TestContext_MarkDisposed_ReplacedEntry(t *testing.T) {
	ctx := context.Background()
	c := NewContext(Singleton)
	s := testutil.NewHolderSupplier()

	first, err := c.GetOrCreate(ctx, 1, createFrom(s))
	require.NoError(t, err)
	_, found, _ := c.MarkDisposed(1, first)
	require.True(t, found)

	// 显式释放后重新查找会生产新实例
	second, err := c.GetOrCreate(ctx, 1, createFrom(s))
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	_, found, already := c.MarkDisposed(1, first)
	assert.True(t, found)
	assert.True(t, already)
}

func TestContext_MarkDisposed_AfterClose(t *testing.T) {
	ctx := context.Background()
	c := NewContext(Singleton)
	s := testutil.NewHolderSupplier()

	v, err := c.GetOrCreate(ctx, 1, createFrom(s))
	require.NoError(t, err)
	require.NoError(t, c.Close(ctx))
	require.Len(t, s.Released(), 1)

	// 关闭时已释放的实例再次显式释放应被识别
	_, found, already := c.MarkDisposed(1, v)
	assert.True(t, found)
	assert.True(t, already)
}

func TestContext_ReplacedEntriesBounded(t *testing.T) {
	ctx := context.Background()
	g := NewGraveyard(16)
	c := NewContext(Singleton, WithGraveyard(g))
	s := testutil.NewHolderSupplier()

	var last any
	for i := 0; i < 1000; i++ {
		v, err := c.GetOrCreate(ctx, 1, createFrom(s))
		require.NoError(t, err)
		_, found, already := c.MarkDisposed(1, v)
		require.True(t, found)
		require.False(t, already)
		last = v
	}

	assert.Equal(t, 16, g.Len())
	_, found, already := c.MarkDisposed(1, last)
	assert.True(t, found)
	assert.True(t, already)
}

func TestContext_RetainRelease(t *testing.T) {
	ctx := context.Background()
	c := NewContext(Request)
	s := testutil.NewCounterSupplier()
	_, err := c.GetOrCreate(ctx, 1, createFrom(s))
	require.NoError(t, err)

	require.True(t, c.Retain())
	assert.Equal(t, 2, c.Depth())

	require.NoError(t, c.Release(ctx))
	assert.Equal(t, StateOpen, c.State())
	assert.EqualValues(t, 0, s.Disposed())

	require.NoError(t, c.Release(ctx))
	assert.Equal(t, StateClosed, c.State())
	assert.EqualValues(t, 1, s.Disposed())

	assert.False(t, c.Retain())
	require.NoError(t, c.Release(ctx))
}

func TestContext_CloseWaitsForInflight(t *testing.T) {
	ctx := context.Background()
	c := NewContext(Request)

	started := make(chan struct{})
	unblock := make(chan struct{})
	s := testutil.NewCounterSupplier()
	create := func(ctx context.Context) (any, supplier.Supplier, error) {
		close(started)
		<-unblock
		v, err := s.Get(ctx)
		return v, s, err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = c.GetOrCreate(ctx, 1, create)
	}()
	<-started

	closed := make(chan error, 1)
	go func() { closed <- c.Close(ctx) }()

	// Close 必须等待进行中的创建
	select {
	case <-closed:
		t.Fatal("close returned before in-flight creation finished")
	case <-time.After(30 * time.Millisecond):
	}
	assert.Equal(t, StateClosing, c.State())

	close(unblock)
	require.NoError(t, <-closed)
	wg.Wait()

	assert.EqualValues(t, 1, s.Disposed())
	assert.EqualValues(t, 0, s.Count())
}

type panicSupplier struct{}

func (panicSupplier) Get(ctx context.Context) (any, error) { return "p", nil }
func (panicSupplier) Dispose(instance any)                { panic("dispose failed") }

func TestContext_Close_DisposePanic(t *testing.T) {
	ctx := context.Background()
	var disposeErrs atomic.Int64
	c := NewContext(Request, WithHooks(Hooks{
		OnDispose: func(ctx context.Context, c *Context, key uint64, instance any, err error) {
			if err != nil {
				disposeErrs.Add(1)
			}
		},
	}))
	counter := testutil.NewCounterSupplier()

	_, err := c.GetOrCreate(ctx, 1, createFrom(panicSupplier{}))
	require.NoError(t, err)
	_, err = c.GetOrCreate(ctx, 2, createFrom(counter))
	require.NoError(t, err)

	err = c.Close(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispose failed")
	assert.EqualValues(t, 1, disposeErrs.Load())
	// 一个实例释放失败不影响其他实例
	assert.EqualValues(t, 1, counter.Disposed())
	assert.Equal(t, StateClosed, c.State())
}

func TestContext_Close_WithPool(t *testing.T) {
	ctx := context.Background()
	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	defer pool.Release()

	c := NewContext(Request, WithDisposePool(pool))
	suppliers := make([]*testutil.CounterSupplier, 8)
	for i := range suppliers {
		suppliers[i] = testutil.NewCounterSupplier()
		_, err := c.GetOrCreate(ctx, uint64(i), createFrom(suppliers[i]))
		require.NoError(t, err)
	}

	require.NoError(t, c.Close(ctx))
	for _, s := range suppliers {
		assert.EqualValues(t, 1, s.Disposed())
	}
}

func TestContext_Hooks(t *testing.T) {
	ctx := context.Background()
	var created, closedWith int
	c := NewContext(Request, WithHooks(Hooks{
		OnCreate: func(ctx context.Context, c *Context, key uint64, instance any) { created++ },
		OnClose:  func(ctx context.Context, c *Context, disposed int) { closedWith = disposed },
	}))

	_, err := c.GetOrCreate(ctx, 1, createFrom(testutil.NewCounterSupplier()))
	require.NoError(t, err)
	_, err = c.GetOrCreate(ctx, 1, createFrom(testutil.NewCounterSupplier()))
	require.NoError(t, err)
	require.NoError(t, c.Close(ctx))

	assert.Equal(t, 1, created)
	assert.Equal(t, 1, closedWith)
}

func TestPerLookupStore(t *testing.T) {
	ctx := context.Background()
	store := PerLookupStore{}
	s := testutil.NewCounterSupplier()

	v1, err := store.GetOrCreate(ctx, 1, createFrom(s))
	require.NoError(t, err)
	v2, err := store.GetOrCreate(ctx, 1, createFrom(s))
	require.NoError(t, err)

	assert.Equal(t, "1", v1)
	assert.Equal(t, "2", v2)
	assert.Equal(t, PerLookup, store.Category())

	_, err = store.GetOrCreate(ctx, 2, createFrom(testutil.NewFailingSupplier(1)))
	assert.True(t, errors.Is(err, testutil.ErrProduce))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Open", StateOpen.String())
	assert.Equal(t, "Closing", StateClosing.String())
	assert.Equal(t, "Closed", StateClosed.String())
	assert.Equal(t, "Unknown", State(9).String())
}
