// Package testutil 测试用 supplier
package testutil

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// CounterSupplier 计数型可释放 supplier
// Get 计数 +1 并返回计数的字符串形式，Dispose 计数 -1
//
//	s := testutil.NewCounterSupplier()
//	v, _ := s.Get(ctx) // "1"
//	s.Dispose(v)
//	v, _ = s.Get(ctx)  // "1"
type CounterSupplier struct {
	counter  atomic.Int64
	produced atomic.Int64
	disposed atomic.Int64
}

// NewCounterSupplier 创建 CounterSupplier
func NewCounterSupplier() *CounterSupplier {
	return &CounterSupplier{}
}

// Get 实现 supplier.Supplier
func (s *CounterSupplier) Get(ctx context.Context) (any, error) {
	s.produced.Add(1)
	return strconv.FormatInt(s.counter.Add(1), 10), nil
}

// Dispose 实现 supplier.DisposableSupplier
func (s *CounterSupplier) Dispose(instance any) {
	s.counter.Add(-1)
	s.disposed.Add(1)
}

// Count 当前计数
func (s *CounterSupplier) Count() int64 {
	return s.counter.Load()
}

// Produced Get 调用次数
func (s *CounterSupplier) Produced() int64 {
	return s.produced.Load()
}

// Disposed Dispose 调用次数
func (s *CounterSupplier) Disposed() int64 {
	return s.disposed.Load()
}

// Holder 包装字符串值的指针类型实例
type Holder struct {
	value string
}

// NewHolder 创建 Holder
func NewHolder(value string) *Holder {
	return &Holder{value: value}
}

// Value 持有的值
func (h *Holder) Value() string {
	return h.value
}

// HolderSupplier 生产 *Holder 的计数型可释放 supplier
type HolderSupplier struct {
	counter  atomic.Int64
	mu       sync.Mutex
	released []*Holder
}

// NewHolderSupplier 创建 HolderSupplier
func NewHolderSupplier() *HolderSupplier {
	return &HolderSupplier{}
}

// Get 实现 supplier.Supplier
func (s *HolderSupplier) Get(ctx context.Context) (any, error) {
	return NewHolder(strconv.FormatInt(s.counter.Add(1), 10)), nil
}

// Dispose 实现 supplier.DisposableSupplier
func (s *HolderSupplier) Dispose(instance any) {
	s.counter.Add(-1)
	if h, ok := instance.(*Holder); ok {
		s.mu.Lock()
		s.released = append(s.released, h)
		s.mu.Unlock()
	}
}

// Count 当前计数
func (s *HolderSupplier) Count() int64 {
	return s.counter.Load()
}

// Released 已释放的实例（副本）
func (s *HolderSupplier) Released() []*Holder {
	s.mu.Lock()
	defer s.mu.Unlock()

	released := make([]*Holder, len(s.released))
	copy(released, s.released)
	return released
}

// ErrProduce FailingSupplier 返回的错误
var ErrProduce = errors.New("testutil: produce failed")

// FailingSupplier 前 failures 次 Get 返回 ErrProduce，之后返回 *Holder
type FailingSupplier struct {
	failures atomic.Int64
	calls    atomic.Int64
}

// NewFailingSupplier 创建 FailingSupplier
func NewFailingSupplier(failures int) *FailingSupplier {
	s := &FailingSupplier{}
	s.failures.Store(int64(failures))
	return s
}

// Get 实现 supplier.Supplier
func (s *FailingSupplier) Get(ctx context.Context) (any, error) {
	n := s.calls.Add(1)
	if n <= s.failures.Load() {
		return nil, ErrProduce
	}
	return NewHolder(strconv.FormatInt(n, 10)), nil
}

// Calls Get 调用次数
func (s *FailingSupplier) Calls() int64 {
	return s.calls.Load()
}

// SlowSupplier 生产前等待 delay 的可释放 supplier，用于并发测试
type SlowSupplier struct {
	delay    time.Duration
	produced atomic.Int64
	disposed atomic.Int64
}

// NewSlowSupplier 创建 SlowSupplier
func NewSlowSupplier(delay time.Duration) *SlowSupplier {
	return &SlowSupplier{delay: delay}
}

// Get 实现 supplier.Supplier
func (s *SlowSupplier) Get(ctx context.Context) (any, error) {
	time.Sleep(s.delay)
	return NewHolder(strconv.FormatInt(s.produced.Add(1), 10)), nil
}

// Dispose 实现 supplier.DisposableSupplier
func (s *SlowSupplier) Dispose(instance any) {
	s.disposed.Add(1)
}

// Produced Get 调用次数
func (s *SlowSupplier) Produced() int64 {
	return s.produced.Load()
}

// Disposed Dispose 调用次数
func (s *SlowSupplier) Disposed() int64 {
	return s.disposed.Load()
}
