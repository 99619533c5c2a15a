// Package element 定义排版内核消费的元素模型。
//
// 元素本身不带样式，样式通过 Pair 与元素一起传递；所有元素都记录在 DSL 中的位置，
// 用于错误提示和定位标签。
package element

import (
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
)

// Element 是文档中的一个元素。
type Element interface {
	Name() string
	Span() layout.Span
}

// Pair 是元素及其生效的样式链。
type Pair struct {
	Elem   Element
	Styles style.Chain
}

// Base 记录元素的源码位置，供各元素嵌入。
type Base struct {
	At layout.Span
}

func (b Base) Span() layout.Span { return b.At }

// Tag 是定位标签元素。
type Tag struct {
	Base
	Tag layout.Tag
}

func (Tag) Name() string { return "tag" }

// V 是竖直间距。
type V struct {
	Base
	Amount layout.Spacing
	Weak   bool
}

func (V) Name() string { return "v" }

// Par 是段落，Children 为行内元素。
type Par struct {
	Base
	Children []Pair
}

func (Par) Name() string { return "par" }

// BodyKind 区分块的内容类型。
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyContent
	BodySingle
	BodyMulti
)

// SingleLayouter 在单个区域内生成一帧。
type SingleLayouter func(loc layout.Locator, styles style.Chain, region layout.Region) (layout.Frame, error)

// MultiLayouter 在区域序列上生成多帧。
type MultiLayouter func(loc layout.Locator, styles style.Chain, regions layout.Regions) (layout.Fragment, error)

// BlockBody 是块的内容。
type BlockBody struct {
	Kind    BodyKind
	Content []Pair
	Single  SingleLayouter
	Multi   MultiLayouter
}

// Block 是块级容器。
type Block struct {
	Base
	Width  layout.Sizing
	Height layout.Sizing
	Inset  layout.Inset
	Fill   *layout.Color
	Stroke *layout.Stroke
	Body   BlockBody
}

func (Block) Name() string { return "block" }

// PlaceScope 是浮动元素的作用范围。
type PlaceScope int

const (
	ScopeColumn PlaceScope = iota
	ScopeParent
)

// Place 是绝对定位或浮动元素。
type Place struct {
	Base
	// Alignment 为 auto 时只允许浮动；Y 为 VAlignNone 表示显式不指定垂直对齐。
	Alignment layout.Smart[layout.Align]
	Scope     PlaceScope
	Float     bool
	Clearance style.Length
	Dx, Dy    layout.Rel
	Body      []Pair
}

func (Place) Name() string { return "place" }

// Flush 要求之前的浮动元素全部放置完毕。
type Flush struct{ Base }

func (Flush) Name() string { return "flush" }

// Colbreak 是分栏符。
type Colbreak struct {
	Base
	Weak bool
}

func (Colbreak) Name() string { return "colbreak" }

// Pagebreak 是分页符，不允许出现在容器中。
type Pagebreak struct {
	Base
	Weak bool
}

func (Pagebreak) Name() string { return "pagebreak" }

// Text 是一段文字。
type Text struct {
	Base
	Text string
}

func (Text) Name() string { return "text" }

// Space 是词间空格。
type Space struct{ Base }

func (Space) Name() string { return "space" }

// Linebreak 是强制换行，Justify 为 true 时该行仍两端对齐。
type Linebreak struct {
	Base
	Justify bool
}

func (Linebreak) Name() string { return "linebreak" }

// H 是水平间距。
type H struct {
	Base
	Amount layout.Spacing
	Weak   bool
}

func (H) Name() string { return "h" }

// Box 是行内盒子。
type Box struct {
	Base
	Width    layout.Sizing
	Height   layout.Sizing
	Inset    layout.Inset
	Baseline layout.Rel
	Fill     *layout.Color
	Stroke   *layout.Stroke
	Body     []Pair
}

func (Box) Name() string { return "box" }

// Opaque 是内核不认识的元素，排版时会给出警告并忽略。
type Opaque struct {
	Base
	Kind string
}

func (o Opaque) Name() string { return o.Kind }

// Span 返回 Pair 中元素的位置。
func (p Pair) Span() layout.Span { return p.Elem.Span() }
