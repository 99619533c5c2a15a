package layout

import (
	"iter"

	"github.com/mitchellh/hashstructure/v2"
)

// Region 是单个可用区域：尺寸加上各轴是否需要撑满。
type Region struct {
	Size   Size       `json:"size"`
	Expand Axes[bool] `json:"expand"`
}

// NewRegion 构造单个区域。
func NewRegion(size Size, expand Axes[bool]) Region {
	return Region{Size: size, Expand: expand}
}

// Regions 描述当前区域及其后续区域的高度序列。
//
// Backlog 是后续区域的高度；Last 非空时表示最后一个高度无限重复。
type Regions struct {
	Size    Size       `json:"size"`
	Full    Abs        `json:"full"`
	Backlog []Abs      `json:"backlog,omitempty"`
	Last    *Abs       `json:"last,omitempty"`
	Expand  Axes[bool] `json:"expand"`
}

// OneRegion 构造只有一个区域的序列。
func OneRegion(size Size, expand Axes[bool]) Regions {
	return Regions{Size: size, Full: size.Y, Expand: expand}
}

// RepeatRegion 构造一个无限重复的区域序列。
func RepeatRegion(size Size, expand Axes[bool]) Regions {
	last := size.Y
	return Regions{Size: size, Full: size.Y, Last: &last, Expand: expand}
}

// Region 转换为单个区域的序列。
func (r Region) Regions() Regions { return OneRegion(r.Size, r.Expand) }

// First 返回当前区域。
func (r Regions) First() Region { return Region{Size: r.Size, Expand: r.Expand} }

// Base 返回用于解析相对尺寸的基准。
func (r Regions) Base() Size { return Size{X: r.Size.X, Y: r.Full} }

// MayBreak 判断之后是否还有区域可换。
func (r Regions) MayBreak() bool { return len(r.Backlog) > 0 || r.Last != nil }

// MayProgress 判断切换到下一个区域能否带来不同的高度。
func (r Regions) MayProgress() bool {
	return len(r.Backlog) > 0 || (r.Last != nil && *r.Last != r.Size.Y)
}

// IsFull 判断当前区域已满且可以前进。
func (r Regions) IsFull() bool { return Abs(0).Fits(r.Size.Y) && r.MayProgress() }

// Next 前进到下一个区域。
func (r *Regions) Next() {
	var height Abs
	switch {
	case len(r.Backlog) > 0:
		height = r.Backlog[0]
		r.Backlog = r.Backlog[1:]
	case r.Last != nil:
		height = *r.Last
	default:
		return
	}
	r.Size.Y = height
	r.Full = height
}

// Map 对每个区域高度做变换，Full 跟随 Size.Y 一起变换。
func (r Regions) Map(f func(Size) Size) Regions {
	out := r
	first := f(r.Size)
	out.Size = first
	out.Full = f(Size{X: r.Size.X, Y: r.Full}).Y
	out.Backlog = make([]Abs, len(r.Backlog))
	for i, h := range r.Backlog {
		out.Backlog[i] = f(Size{X: r.Size.X, Y: h}).Y
	}
	if r.Last != nil {
		last := f(Size{X: r.Size.X, Y: *r.Last}).Y
		out.Last = &last
	}
	return out
}

// Iter 依次产出当前区域、backlog 以及无限重复的 last 区域。
func (r Regions) Iter() iter.Seq[Size] {
	return func(yield func(Size) bool) {
		if !yield(r.Size) {
			return
		}
		for _, h := range r.Backlog {
			if !yield(Size{X: r.Size.X, Y: h}) {
				return
			}
		}
		if r.Last == nil {
			return
		}
		for {
			if !yield(Size{X: r.Size.X, Y: *r.Last}) {
				return
			}
		}
	}
}

// Hash 计算区域序列的结构哈希，用作缓存键。
func (r Regions) Hash() uint64 {
	h, err := hashstructure.Hash(r, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}
	return h
}

// Hash 计算单个区域的结构哈希。
func (r Region) Hash() uint64 {
	h, err := hashstructure.Hash(r, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}
	return h
}
