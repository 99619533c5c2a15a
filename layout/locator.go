package layout

import (
	"github.com/mitchellh/hashstructure/v2"
)

// Location 唯一标识文档中的一个元素。
type Location uint64

// TagKind 区分开始标签与结束标签。
type TagKind int

const (
	TagStart TagKind = iota
	TagEnd
)

// Tag 在帧中标记元素的开始或结束，供自省使用。
type Tag struct {
	Kind TagKind
	Elem string
	Loc  Location
	Key  uint64
}

// StartTag 构造开始标签。
func StartTag(elem string, loc Location, key uint64) Tag {
	return Tag{Kind: TagStart, Elem: elem, Loc: loc, Key: key}
}

// EndTag 构造结束标签。
func EndTag(loc Location, key uint64) Tag {
	return Tag{Kind: TagEnd, Loc: loc, Key: key}
}

// Locator 为元素分配稳定的位置。字段导出以便参与结构哈希。
type Locator struct {
	ID uint64
}

// RootLocator 返回根定位器。
func RootLocator() Locator { return Locator{ID: 0x51c7} }

// Resolve 返回定位器对应的位置。
func (l Locator) Resolve() Location { return Location(l.ID) }

// Relayout 返回用于重新排版同一元素的定位器。
func (l Locator) Relayout() Locator { return l }

// Split 为子元素派生位置。
func (l Locator) Split() *SplitLocator {
	return &SplitLocator{base: l.ID, seen: map[uint64]int{}}
}

// Hash 实现缓存键。
func (l Locator) Hash() uint64 { return l.ID }

// SplitLocator 依次为子元素分配定位器，相同键按出现次序区分。
type SplitLocator struct {
	base uint64
	seen map[uint64]int
}

// Next 为给定键返回下一个定位器。
func (s *SplitLocator) Next(key any) Locator {
	k := HashOf(key)
	n := s.seen[k]
	s.seen[k] = n + 1
	return Locator{ID: HashOf([3]uint64{s.base, k, uint64(n)})}
}

// NextLocation 直接返回下一个位置。
func (s *SplitLocator) NextLocation(key any) Location {
	return s.Next(key).Resolve()
}

// HashOf 计算任意值的结构哈希，无法哈希时返回 0。
func HashOf(v any) uint64 {
	h, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}
	return h
}
