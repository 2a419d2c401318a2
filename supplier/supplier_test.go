package supplier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunc_Get(t *testing.T) {
	s := Func[string](func(ctx context.Context) (string, error) {
		return "hello", nil
	})

	v, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
	assert.False(t, IsDisposable(s))
}

func TestFunc_GetError(t *testing.T) {
	boom := errors.New("boom")
	s := Func[int](func(ctx context.Context) (int, error) {
		return 0, boom
	})

	_, err := s.Get(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestValue(t *testing.T) {
	cfg := &struct{ Name string }{Name: "svc"}
	s := Value(cfg)

	v1, _ := s.Get(context.Background())
	v2, _ := s.Get(context.Background())
	assert.Same(t, cfg, v1)
	assert.Same(t, cfg, v2)
}

func TestDisposable(t *testing.T) {
	var released []int
	d := NewDisposable(
		func(ctx context.Context) (int, error) { return 42, nil },
		func(v int) { released = append(released, v) },
	)
	require.True(t, IsDisposable(d))

	v, err := d.Get(context.Background())
	require.NoError(t, err)
	d.Dispose(v)
	// 类型不匹配的实例被忽略
	d.Dispose("not an int")

	assert.Equal(t, []int{42}, released)
}

func TestDisposable_NilRelease(t *testing.T) {
	d := NewDisposable(func(ctx context.Context) (string, error) { return "x", nil }, nil)
	assert.NotPanics(t, func() { d.Dispose("x") })
}

func TestSameInstance(t *testing.T) {
	type holder struct{ v string }
	a, b := &holder{"1"}, &holder{"1"}
	m := map[string]int{}
	s := []int{1, 2}

	assert.True(t, SameInstance(a, a))
	assert.False(t, SameInstance(a, b))
	assert.True(t, SameInstance("1", "1"))
	assert.False(t, SameInstance("1", 1))
	assert.True(t, SameInstance(m, m))
	assert.False(t, SameInstance(m, map[string]int{}))
	assert.True(t, SameInstance(s, s))
	assert.False(t, SameInstance(s, s[:1]))
	assert.True(t, SameInstance(nil, nil))
	assert.False(t, SameInstance(a, nil))

	// 值类型只能按相等比较
	assert.True(t, SameInstance(holder{"1"}, holder{"1"}))
	assert.False(t, SameInstance(holder{"1"}, holder{"2"}))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "<nil>", Describe(nil))
	assert.Equal(t, "string", Describe("x"))
	assert.Equal(t, "*supplier.Disposable[int]", Describe(&Disposable[int]{}))
}
