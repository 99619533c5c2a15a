package layout

import "math"

// 本文件定义排版内核使用的几何基础类型，长度一律以 pt 为单位。

// epsilon 用于近似比较长度。
const epsilon = 1e-4

// Abs 是以 pt 表示的绝对长度。
type Abs float64

// Inf 返回正无穷长度，用于不限高的区域。
func Inf() Abs { return Abs(math.Inf(1)) }

func (a Abs) IsFinite() bool { return !math.IsInf(float64(a), 0) && !math.IsNaN(float64(a)) }

func (a Abs) IsZero() bool { return a == 0 }

// ApproxEq 判断两个长度是否近似相等。
func (a Abs) ApproxEq(b Abs) bool {
	if !a.IsFinite() || !b.IsFinite() {
		return a == b
	}
	return math.Abs(float64(a-b)) < epsilon
}

// ApproxEmpty 判断长度是否近似为零。
func (a Abs) ApproxEmpty() bool { return math.Abs(float64(a)) < epsilon }

// Fits 判断 other 能否放进 a（允许浮点误差）。
func (a Abs) Fits(other Abs) bool { return float64(a)+epsilon >= float64(other) }

func (a Abs) Max(b Abs) Abs {
	if b > a {
		return b
	}
	return a
}

func (a Abs) Min(b Abs) Abs {
	if b < a {
		return b
	}
	return a
}

// Clamp 将长度限制在 [lo, hi]。
func (a Abs) Clamp(lo, hi Abs) Abs { return a.Max(lo).Min(hi) }

// Em 是相对字号的长度。
type Em float64

// At 将 em 值换算为给定字号下的绝对长度。
func (e Em) At(size Abs) Abs {
	v := Abs(float64(e) * float64(size))
	if !v.IsFinite() {
		return 0
	}
	return v
}

// EmFromLength 把绝对长度换算为 em。
func EmFromLength(length, size Abs) Em {
	if size == 0 {
		return 0
	}
	return Em(float64(length) / float64(size))
}

// Ratio 是比例值，1 表示 100%。
type Ratio float64

// Rel 由比例部分和绝对部分组成，例如 50% + 2pt。
type Rel struct {
	Rel Ratio `json:"rel,omitempty"`
	Abs Abs   `json:"abs,omitempty"`
}

// AbsRel 构造纯绝对长度的 Rel。
func AbsRel(a Abs) Rel { return Rel{Abs: a} }

// RelativeTo 以 whole 为基准解析出绝对长度。
func (r Rel) RelativeTo(whole Abs) Abs {
	if r.Rel == 0 {
		return r.Abs
	}
	return Abs(float64(r.Rel)*float64(whole)) + r.Abs
}

func (r Rel) IsZero() bool { return r.Rel == 0 && r.Abs == 0 }

// Fr 是分数长度，按比例瓜分剩余空间。
type Fr float64

func (f Fr) IsZero() bool { return f == 0 }

// Share 返回在总分数 total 下，本分数从 remaining 中分得的长度。
func (f Fr) Share(total Fr, remaining Abs) Abs {
	if total == 0 {
		return 0
	}
	ratio := float64(f) / float64(total)
	if math.IsInf(ratio, 0) || math.IsNaN(ratio) {
		return 0
	}
	return Abs(ratio * float64(remaining.Max(0)))
}

// Size 是二维尺寸。
type Size struct {
	X Abs `json:"x"`
	Y Abs `json:"y"`
}

func (s Size) Add(o Size) Size { return Size{X: s.X + o.X, Y: s.Y + o.Y} }

// Point 是二维坐标，原点在左上角，y 轴向下。
type Point struct {
	X Abs `json:"x"`
	Y Abs `json:"y"`
}

func (p Point) Add(o Point) Point { return Point{X: p.X + o.X, Y: p.Y + o.Y} }

// Axes 为每个轴各存一份值。
type Axes[T any] struct {
	X T `json:"x"`
	Y T `json:"y"`
}

// Splat 构造两轴相同的 Axes。
func Splat[T any](v T) Axes[T] { return Axes[T]{X: v, Y: v} }

// SelectSize 按轴选择：expand 为 true 的轴取 a，否则取 b。
func SelectSize(expand Axes[bool], a, b Size) Size {
	out := b
	if expand.X {
		out.X = a.X
	}
	if expand.Y {
		out.Y = a.Y
	}
	return out
}

// Dir 是文本或布局方向。
type Dir int

const (
	DirLTR Dir = iota
	DirRTL
	DirTTB
	DirBTT
)

// IsPositive 对 LTR/TTB 返回 true。
func (d Dir) IsPositive() bool { return d == DirLTR || d == DirTTB }

func (d Dir) String() string {
	switch d {
	case DirRTL:
		return "rtl"
	case DirTTB:
		return "ttb"
	case DirBTT:
		return "btt"
	default:
		return "ltr"
	}
}

// FixedAlign 是已解析的对齐方式。
type FixedAlign int

const (
	AlignStart FixedAlign = iota
	AlignCenter
	AlignEnd
)

// Position 返回在 extent 空白下的偏移量。
func (a FixedAlign) Position(extent Abs) Abs {
	switch a {
	case AlignCenter:
		return extent / 2
	case AlignEnd:
		return extent
	default:
		return 0
	}
}

// HAlign 是未解析的水平对齐。
type HAlign int

const (
	HAlignNone HAlign = iota
	HAlignStart
	HAlignLeft
	HAlignCenter
	HAlignRight
	HAlignEnd
)

// Resolve 按文本方向把水平对齐解析为 FixedAlign。
func (h HAlign) Resolve(dir Dir) FixedAlign {
	rtl := dir == DirRTL
	switch h {
	case HAlignLeft:
		if rtl {
			return AlignEnd
		}
		return AlignStart
	case HAlignRight:
		if rtl {
			return AlignStart
		}
		return AlignEnd
	case HAlignCenter:
		return AlignCenter
	case HAlignEnd:
		return AlignEnd
	default:
		return AlignStart
	}
}

// VAlign 是未解析的垂直对齐，VAlignNone 表示未指定。
type VAlign int

const (
	VAlignNone VAlign = iota
	VAlignTop
	VAlignHorizon
	VAlignBottom
)

// Resolve 解析垂直对齐；未指定时返回 false。
func (v VAlign) Resolve() (FixedAlign, bool) {
	switch v {
	case VAlignTop:
		return AlignStart, true
	case VAlignHorizon:
		return AlignCenter, true
	case VAlignBottom:
		return AlignEnd, true
	default:
		return AlignStart, false
	}
}

// Align 组合水平与垂直对齐。
type Align struct {
	X HAlign `json:"x"`
	Y VAlign `json:"y"`
}

// Resolve 解析为两轴的 FixedAlign，未指定的轴视为 start。
func (a Align) Resolve(dir Dir) Axes[FixedAlign] {
	y, _ := a.Y.Resolve()
	return Axes[FixedAlign]{X: a.X.Resolve(dir), Y: y}
}

// Smart 表示 auto 或自定义值。
type Smart[T any] struct {
	Custom bool
	V      T
}

// Auto 返回 auto 值。
func Auto[T any]() Smart[T] { return Smart[T]{} }

// Custom 返回自定义值。
func Custom[T any](v T) Smart[T] { return Smart[T]{Custom: true, V: v} }

// Or 在 auto 时返回 fallback。
func (s Smart[T]) Or(fallback T) T {
	if s.Custom {
		return s.V
	}
	return fallback
}

// Spacing 是相对或分数间距。
type Spacing struct {
	Rel  Rel  `json:"rel"`
	Fr   Fr   `json:"fr,omitempty"`
	IsFr bool `json:"isFr,omitempty"`
}

// RelSpacing 构造相对间距。
func RelSpacing(r Rel) Spacing { return Spacing{Rel: r} }

// FrSpacing 构造分数间距。
func FrSpacing(f Fr) Spacing { return Spacing{Fr: f, IsFr: true} }

func (s Spacing) IsZero() bool {
	if s.IsFr {
		return s.Fr == 0
	}
	return s.Rel.IsZero()
}

// SizingKind 区分 auto、相对和分数尺寸。
type SizingKind int

const (
	SizingAuto SizingKind = iota
	SizingRel
	SizingFr
)

// Sizing 描述容器在某轴上的尺寸。
type Sizing struct {
	Kind SizingKind `json:"kind"`
	Rel  Rel        `json:"rel,omitempty"`
	Fr   Fr         `json:"fr,omitempty"`
}

// Sides 是四边的值，例如内边距。
type Sides[T any] struct {
	Left   T `json:"left"`
	Top    T `json:"top"`
	Right  T `json:"right"`
	Bottom T `json:"bottom"`
}

// Inset 是以 Rel 表示的四边内边距。
type Inset = Sides[Rel]

// InsetIsZero 判断内边距是否为空。
func InsetIsZero(in Inset) bool {
	return in.Left.IsZero() && in.Top.IsZero() && in.Right.IsZero() && in.Bottom.IsZero()
}

// ResolveInset 以 size 为基准解析内边距。
func ResolveInset(in Inset, size Size) Sides[Abs] {
	return Sides[Abs]{
		Left:   in.Left.RelativeTo(size.X),
		Top:    in.Top.RelativeTo(size.Y),
		Right:  in.Right.RelativeTo(size.X),
		Bottom: in.Bottom.RelativeTo(size.Y),
	}
}

// Color 是 RGBA 颜色。
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Black 是默认文字颜色。
var Black = Color{A: 255}
