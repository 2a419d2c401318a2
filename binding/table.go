package binding

import (
	"reflect"
	"sort"
	"sync"
)

// Table 绑定表，并发安全
// 同一类型多次注册时后注册者生效
type Table struct {
	mu     sync.RWMutex
	nextID uint64
	byType map[reflect.Type]*Binding
}

// NewTable 创建绑定表
func NewTable() *Table {
	return &Table{byType: make(map[reflect.Type]*Binding)}
}

// Register 校验并登记绑定，覆盖目标类型及别名上已有的绑定
func (t *Table) Register(spec Spec) (*Binding, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, err := newBinding(t.nextID+1, spec)
	if err != nil {
		return nil, err
	}
	t.nextID++

	// 同一目标的旧绑定整体替换，它声明过的别名不再指向它
	if old, ok := t.byType[b.target]; ok && old.target == b.target {
		t.removeLocked(old)
	}
	t.byType[b.target] = b
	for _, alias := range b.aliases {
		t.byType[alias] = b
	}
	return b, nil
}

// Lookup 按目标类型或别名查找
func (t *Table) Lookup(typ reflect.Type) (*Binding, bool) {
	if typ == nil {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	b, ok := t.byType[typ]
	return b, ok
}

// Remove 移除 typ 对应的绑定（包括它的所有类型键），返回被移除的绑定
func (t *Table) Remove(typ reflect.Type) *Binding {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.byType[typ]
	if !ok {
		return nil
	}
	t.removeLocked(b)
	return b
}

func (t *Table) removeLocked(b *Binding) {
	for k, v := range t.byType {
		if v == b {
			delete(t.byType, k)
		}
	}
}

// All 所有生效的绑定，按 ID 排序
func (t *Table) All() []*Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.distinct()
}

// Len 生效的绑定数
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.distinct())
}

// Release 清空绑定表，返回清空前的绑定
func (t *Table) Release() []*Binding {
	t.mu.Lock()
	defer t.mu.Unlock()

	released := t.distinct()
	t.byType = make(map[reflect.Type]*Binding)
	return released
}

func (t *Table) distinct() []*Binding {
	seen := make(map[*Binding]struct{}, len(t.byType))
	bindings := make([]*Binding, 0, len(t.byType))
	for _, b := range t.byType {
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		bindings = append(bindings, b)
	}
	sort.Slice(bindings, func(i, j int) bool { return bindings[i].id < bindings[j].id })
	return bindings
}
