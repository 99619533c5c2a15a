// Package style 提供排版内核使用的样式上下文。
//
// Chain 是不可变的样式链：每个节点保存一组属性，并指向外层节点。
// 查找时由内向外取第一个设置过的值，可折叠属性则把整条链上的值依次合并。
package style

import (
	"github.com/ByLCY/quire/layout"
)

// Property 是一条已赋值的样式属性。
type Property struct {
	name  string
	value any
	hash  uint64
}

// Name 返回属性名。
func (p Property) Name() string { return p.name }

// Key 是带类型的样式属性键。
type Key[T any] struct {
	name string
	def  T
	fold func(inner, outer T) T
}

// NewKey 创建普通属性键，未设置时返回 def。
func NewKey[T any](name string, def T) Key[T] {
	return Key[T]{name: name, def: def}
}

// NewFoldKey 创建可折叠属性键，fold 把内层值与外层值合并。
func NewFoldKey[T any](name string, def T, fold func(inner, outer T) T) Key[T] {
	return Key[T]{name: name, def: def, fold: fold}
}

func (k Key[T]) Name() string { return k.name }

// Default 返回默认值。
func (k Key[T]) Default() T { return k.def }

// Set 生成一条属性。
func (k Key[T]) Set(v T) Property {
	return Property{name: k.name, value: v, hash: layout.HashOf([2]any{k.name, v})}
}

type link struct {
	props  []Property
	parent *link
	depth  int
	hash   uint64
}

// Chain 是样式链，零值表示空链（所有属性取默认值）。
type Chain struct {
	head *link
}

// New 以给定属性创建一条根样式链。
func New(props ...Property) Chain {
	return Chain{}.With(props...)
}

// With 在链的内侧追加一组属性，返回新链，原链不变。
func (c Chain) With(props ...Property) Chain {
	if len(props) == 0 {
		return c
	}
	l := &link{props: append([]Property(nil), props...), parent: c.head}
	h := uint64(0)
	if c.head != nil {
		h = c.head.hash
		l.depth = c.head.depth + 1
	}
	for _, p := range props {
		h = layout.HashOf([2]uint64{h, p.hash})
	}
	l.hash = h
	return Chain{head: l}
}

// Chained 把 outer 链接到 inner 的外侧：inner 中的属性优先。
func (c Chain) Chained(inner Chain) Chain {
	var stack [][]Property
	for l := inner.head; l != nil; l = l.parent {
		stack = append(stack, l.props)
	}
	out := c
	for i := len(stack) - 1; i >= 0; i-- {
		out = out.With(stack[i]...)
	}
	return out
}

// Hash 返回样式链的哈希，两条链内容相同则哈希相同。
func (c Chain) Hash() uint64 {
	if c.head == nil {
		return 0
	}
	return c.head.hash
}

// IsEmpty 判断链上是否没有任何属性。
func (c Chain) IsEmpty() bool { return c.head == nil }

// Get 返回由内向外第一个设置过的值。
func Get[T any](c Chain, k Key[T]) T {
	for l := c.head; l != nil; l = l.parent {
		for i := len(l.props) - 1; i >= 0; i-- {
			p := l.props[i]
			if p.name != k.name {
				continue
			}
			if v, ok := p.value.(T); ok {
				return v
			}
		}
	}
	return k.def
}

// GetFolded 把链上所有值从外向内折叠，未设置 fold 时与 Get 相同。
func GetFolded[T any](c Chain, k Key[T]) T {
	if k.fold == nil {
		return Get(c, k)
	}
	var values []T
	for l := c.head; l != nil; l = l.parent {
		for i := len(l.props) - 1; i >= 0; i-- {
			p := l.props[i]
			if p.name != k.name {
				continue
			}
			if v, ok := p.value.(T); ok {
				values = append(values, v)
			}
		}
	}
	out := k.def
	for i := len(values) - 1; i >= 0; i-- {
		out = k.fold(values[i], out)
	}
	return out
}

// Trunk 返回若干链共有的最外层部分。
func Trunk(chains []Chain) Chain {
	if len(chains) == 0 {
		return Chain{}
	}
	trunk := chains[0].head
	for _, c := range chains[1:] {
		trunk = commonAncestor(trunk, c.head)
		if trunk == nil {
			break
		}
	}
	return Chain{head: trunk}
}

func commonAncestor(a, b *link) *link {
	for a != nil && b != nil && a.depth > b.depth {
		a = a.parent
	}
	for a != nil && b != nil && b.depth > a.depth {
		b = b.parent
	}
	for a != nil && b != nil && a != b {
		a, b = a.parent, b.parent
	}
	if a == nil || b == nil {
		return nil
	}
	return a
}
