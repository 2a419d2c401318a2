package scope

import (
	"sync"

	"github.com/KOMKZ/go-yogan-inject/supplier"
)

// DefaultGraveyardSize Graveyard 默认容量
const DefaultGraveyardSize = 1024

// Graveyard 已释放实例的有界记录，用于识别重复释放
// 容量满后覆盖最早的记录；被覆盖的实例再次显式释放时不再能被识别
type Graveyard struct {
	mu      sync.Mutex
	size    int
	next    int
	records []grave
}

type grave struct {
	key   uint64
	value any
}

// NewGraveyard 创建容量为 size 的 Graveyard，size <= 0 时使用默认容量
func NewGraveyard(size int) *Graveyard {
	if size <= 0 {
		size = DefaultGraveyardSize
	}
	return &Graveyard{size: size}
}

// Bury 记录 key 下已释放的实例
func (g *Graveyard) Bury(key uint64, value any) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.records) < g.size {
		g.records = append(g.records, grave{key: key, value: value})
		return
	}
	g.records[g.next] = grave{key: key, value: value}
	g.next = (g.next + 1) % g.size
}

// Contains 实例是否已被记录为释放
func (g *Graveyard) Contains(key uint64, value any) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, r := range g.records {
		if r.key == key && supplier.SameInstance(r.value, value) {
			return true
		}
	}
	return false
}

// Len 当前记录数
func (g *Graveyard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.records)
}

// Size 容量
func (g *Graveyard) Size() int {
	return g.size
}
