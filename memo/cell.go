// Package memo 提供单槽记忆化缓存。
//
// 排版过程中同一个子元素经常会以相同的区域被反复测量（寡行/孤行预判、网格探测等），
// CachedCell 只记住最近一次的输入哈希与结果，输入不同即重新计算并覆盖。
package memo

import (
	"sync"

	"github.com/mitchellh/hashstructure/v2"
)

// Hasher 由能自行计算哈希的输入实现，实现后不再走结构哈希。
type Hasher interface {
	Hash() uint64
}

// Cloner 由需要复制后再交给调用方的结果实现。
type Cloner[T any] interface {
	Clone() T
}

// CachedCell 是单槽缓存，零值可用。
type CachedCell[T any] struct {
	mu     sync.Mutex
	filled bool
	hash   uint64
	output T
	calls  int
}

// GetOrInit 在输入哈希与上次相同时返回缓存结果，否则执行 f 并替换缓存。
//
// 结果实现了 Cloner 时返回的是副本，调用方修改它不会影响缓存。
// 无法计算哈希的输入每次都会重新计算。
func (c *CachedCell[T]) GetOrInit(input any, f func() T) T {
	h, ok := HashInput(input)

	c.mu.Lock()
	defer c.mu.Unlock()
	if ok && c.filled && c.hash == h {
		return cloned(c.output)
	}
	c.calls++
	out := f()
	c.output = out
	c.hash = h
	c.filled = ok
	return cloned(out)
}

func cloned[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	return v
}

// Calls 返回实际执行计算的次数。
func (c *CachedCell[T]) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset 清空缓存。
func (c *CachedCell[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.output = zero
	c.filled = false
	c.hash = 0
}

// HashInput 计算输入的哈希：优先使用 Hasher，否则使用结构哈希。
func HashInput(input any) (uint64, bool) {
	if h, ok := input.(Hasher); ok {
		return h.Hash(), true
	}
	h, err := hashstructure.Hash(input, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, false
	}
	return h, true
}
