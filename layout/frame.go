package layout

// FrameKind 区分软帧与硬帧：软帧在合并时会被展开到父帧中。
type FrameKind int

const (
	FrameSoft FrameKind = iota
	FrameHard
)

// Frame 是一棵已定位的排版结果树。
type Frame struct {
	size     Size
	baseline *Abs
	kind     FrameKind
	items    []Positioned
	parent   *Location
}

// Positioned 是帧内某个位置上的元素。
type Positioned struct {
	Pos  Point
	Item FrameItem
}

// FrameItem 是帧中可以出现的元素：GroupItem、TextItem、ShapeItem 或 TagItem。
type FrameItem interface {
	frameItem()
}

// GroupItem 嵌套一个子帧。
type GroupItem struct {
	Frame  Frame
	Parent *Location
}

// TextItem 是一段已塑形的文字。
type TextItem struct {
	Font   string
	Size   Abs
	Fill   Color
	Lang   string
	Text   string
	Glyphs []Glyph
}

// Glyph 是帧中已定位的字形，Range 是其在 Text 中的字节区间。
type Glyph struct {
	ID       uint16
	XAdvance Em
	XOffset  Em
	Range    [2]int
}

// Width 返回文字的总宽度。
func (t TextItem) Width() Abs {
	var w Em
	for _, g := range t.Glyphs {
		w += g.XAdvance
	}
	return w.At(t.Size)
}

// ShapeItem 是一个矩形，用于填充与描边。
type ShapeItem struct {
	Size   Size
	Fill   *Color
	Stroke *Stroke
}

// Stroke 描述描边。
type Stroke struct {
	Paint     Color
	Thickness Abs
}

// TagItem 是定位标签，用于自省。
type TagItem struct {
	Tag Tag
}

func (GroupItem) frameItem() {}
func (TextItem) frameItem()  {}
func (ShapeItem) frameItem() {}
func (TagItem) frameItem()   {}

// NewSoftFrame 创建软帧。
func NewSoftFrame(size Size) Frame { return Frame{size: size, kind: FrameSoft} }

// NewHardFrame 创建硬帧。
func NewHardFrame(size Size) Frame { return Frame{size: size, kind: FrameHard} }

func (f *Frame) Size() Size          { return f.size }
func (f *Frame) Width() Abs          { return f.size.X }
func (f *Frame) Height() Abs         { return f.size.Y }
func (f *Frame) SetSize(size Size)   { f.size = size }
func (f *Frame) Kind() FrameKind     { return f.kind }
func (f *Frame) SetKind(k FrameKind) { f.kind = k }
func (f *Frame) Items() []Positioned { return f.items }
func (f *Frame) IsEmpty() bool       { return len(f.items) == 0 }

// Baseline 返回基线位置，未设置时为帧高度。
func (f *Frame) Baseline() Abs {
	if f.baseline == nil {
		return f.size.Y
	}
	return *f.baseline
}

// HasBaseline 判断是否显式设置过基线。
func (f *Frame) HasBaseline() bool { return f.baseline != nil }

func (f *Frame) SetBaseline(b Abs) { f.baseline = &b }

// Parent 返回浮动元素所属的位置。
func (f *Frame) Parent() (Location, bool) {
	if f.parent == nil {
		return 0, false
	}
	return *f.parent, true
}

func (f *Frame) SetParent(loc Location) { f.parent = &loc }

// Push 在末尾追加一个元素（位于最上层）。
func (f *Frame) Push(pos Point, item FrameItem) {
	f.items = append(f.items, Positioned{Pos: pos, Item: item})
}

// Prepend 在开头插入一个元素（位于最底层）。
func (f *Frame) Prepend(pos Point, item FrameItem) {
	f.items = append([]Positioned{{Pos: pos, Item: item}}, f.items...)
}

// PushFrame 添加子帧：软帧被展开，硬帧作为分组保留。
func (f *Frame) PushFrame(pos Point, child Frame) {
	if child.kind == FrameSoft && child.parent == nil {
		for _, it := range child.items {
			f.items = append(f.items, Positioned{Pos: pos.Add(it.Pos), Item: it.Item})
		}
		return
	}
	f.Push(pos, GroupItem{Frame: child, Parent: child.parent})
}

// Translate 平移所有元素。
func (f *Frame) Translate(delta Point) {
	if delta == (Point{}) {
		return
	}
	for i := range f.items {
		f.items[i].Pos = f.items[i].Pos.Add(delta)
	}
	if f.baseline != nil {
		b := *f.baseline + delta.Y
		f.baseline = &b
	}
}

// Grow 按内边距扩大帧并平移内容。
func (f *Frame) Grow(inset Sides[Abs]) {
	f.size.X += inset.Left + inset.Right
	f.size.Y += inset.Top + inset.Bottom
	f.Translate(Point{X: inset.Left, Y: inset.Top})
}

// FillAndStroke 在底层加入填充/描边矩形。
func (f *Frame) FillAndStroke(fill *Color, stroke *Stroke) {
	if fill == nil && stroke == nil {
		return
	}
	f.Prepend(Point{}, ShapeItem{Size: f.size, Fill: fill, Stroke: stroke})
}

// Clone 返回帧的浅拷贝，元素切片独立。
func (f Frame) Clone() Frame {
	out := f
	out.items = append([]Positioned(nil), f.items...)
	return out
}

// Fragment 是多区域排版的结果，每个区域一帧。
type Fragment []Frame

// IntoFrame 返回唯一的帧，多帧时只取第一帧。
func (fr Fragment) IntoFrame() Frame {
	if len(fr) == 0 {
		return NewSoftFrame(Size{})
	}
	return fr[0]
}
