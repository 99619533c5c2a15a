package flow

import (
	"slices"

	"github.com/ByLCY/quire/element"
	"github.com/ByLCY/quire/engine"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/memo"
	"github.com/ByLCY/quire/style"
)

// Child 是收集后的流子项，只有本包中的类型实现它：
// Tag、Rel、Fr、*LineChild、*SingleChild、*MultiChild、*PlacedChild、Flush、Break。
type Child interface {
	isChild()
}

// Tag 是定位标签。
type Tag struct{ Tag layout.Tag }

// Rel 是相对间距。Weakness 为 0 表示强间距，数值越大越容易被相邻间距吞掉：
// 1 是弱 v，3 是块旁的自定义间距，4 是段落间距，5 是行距。
type Rel struct {
	Amount   layout.Rel
	Weakness uint8
}

// Fr 是分数间距。
type Fr struct{ Amount layout.Fr }

// Flush 要求放置所有尚未放置的浮动元素。
type Flush struct{}

// Break 是分栏符。
type Break struct{ Weak bool }

func (Tag) isChild()          {}
func (Rel) isChild()          {}
func (Fr) isChild()           {}
func (*LineChild) isChild()   {}
func (*SingleChild) isChild() {}
func (*MultiChild) isChild()  {}
func (*PlacedChild) isChild() {}
func (Flush) isChild()        {}
func (Break) isChild()        {}

// IsWeak 判断间距是否会被相邻间距吞掉。
func (r Rel) IsWeak() bool { return r.Weakness > 0 }

// LineChild 是段落中已经排好的一行。
//
// Need 是这一行开始前至少要留出的高度，用于避免寡行孤行，通常等于帧高。
type LineChild struct {
	Frame layout.Frame
	Align layout.Axes[layout.FixedAlign]
	Need  layout.Abs
}

type frameResult struct {
	frame layout.Frame
	err   error
}

func (r frameResult) Clone() frameResult {
	return frameResult{frame: r.frame.Clone(), err: r.err}
}

type fragmentResult struct {
	frames layout.Fragment
	err    error
}

func (r fragmentResult) Clone() fragmentResult {
	if r.frames == nil {
		return r
	}
	frames := make(layout.Fragment, len(r.frames))
	for i := range r.frames {
		frames[i] = r.frames[i].Clone()
	}
	return fragmentResult{frames: frames, err: r.err}
}

// SingleChild 是不可拆分的块，排版结果按区域缓存。
type SingleChild struct {
	Align  layout.Axes[layout.FixedAlign]
	Sticky bool
	Alone  bool
	// Fr 非空时块高度是分数，由区域填充器在分配剩余空间后再排版。
	Fr *layout.Fr

	elem    element.Block
	styles  style.Chain
	locator layout.Locator
	cell    memo.CachedCell[frameResult]
}

// Layout 在给定区域内排版块。只有独占整个流时才保留竖直方向的撑满。
func (c *SingleChild) Layout(eng *engine.Engine, region layout.Region) (layout.Frame, error) {
	res := c.cell.GetOrInit(region, func() frameResult {
		pod := region
		pod.Expand.Y = pod.Expand.Y && c.Alone
		frame, err := layoutSingleBlock(eng, c.elem, c.locator.Relayout(), c.styles, pod)
		return frameResult{frame: frame, err: err}
	})
	if res.err != nil {
		return layout.Frame{}, res.err
	}
	return res.frame, nil
}

// Calls 返回实际排版的次数。
func (c *SingleChild) Calls() int { return c.cell.Calls() }

// MultiChild 是可拆分的块，可以跨越多个区域。
type MultiChild struct {
	Align  layout.Axes[layout.FixedAlign]
	Sticky bool
	Alone  bool

	elem    element.Block
	styles  style.Chain
	locator layout.Locator
	cell    memo.CachedCell[fragmentResult]
}

// Layout 在区域序列上排版块，返回第一帧。还有剩余的帧时一并返回续排状态。
func (c *MultiChild) Layout(eng *engine.Engine, regions layout.Regions) (layout.Frame, *MultiSpill, error) {
	frames, err := c.layoutFull(eng, regions)
	if err != nil {
		return layout.Frame{}, nil, err
	}
	if len(frames) == 0 {
		return layout.NewSoftFrame(layout.Size{}), nil, nil
	}

	exist := false
	for i := range frames {
		if !frames[i].IsEmpty() {
			exist = true
			break
		}
	}

	var spill *MultiSpill
	if len(frames) > 1 {
		spill = &MultiSpill{
			existNonEmptyFrame: exist,
			multi:              c,
			full:               regions.Full,
			first:              regions.Size.Y,
			minBacklogLen:      len(regions.Backlog),
		}
		tracer().P("block", "multi").Debugf("spill: %d frames, first region %.2f", len(frames), float64(regions.Size.Y))
	}
	return frames[0], spill, nil
}

// Calls 返回实际排版的次数。
func (c *MultiChild) Calls() int { return c.cell.Calls() }

func (c *MultiChild) layoutFull(eng *engine.Engine, regions layout.Regions) (layout.Fragment, error) {
	res := c.cell.GetOrInit(regions, func() fragmentResult {
		pod := regions
		pod.Expand.Y = pod.Expand.Y && c.Alone
		frames, err := layoutMultiBlock(eng, c.elem, c.locator.Relayout(), c.styles, pod)
		return fragmentResult{frames: frames, err: err}
	})
	return res.frames, res.err
}

// MultiSpill 是可拆分块在上一个区域放不下后的续排状态。
//
// 已提交的区域高度只增不减，之后的区域可以在每次续排时被替换。
// 续排时整块会在合并后的区域序列上重新排版，再跳过已经交出的帧，
// 所以后面的区域无法反过来影响已经交出的帧。
type MultiSpill struct {
	existNonEmptyFrame bool
	multi              *MultiChild
	full               layout.Abs
	first              layout.Abs
	backlog            []layout.Abs
	minBacklogLen      int
}

// Layout 在下一个区域继续排版，返回下一帧；仍有剩余时返回新的续排状态。
// s 本身不会被修改，区域填充器回退时可以继续使用旧的状态。
func (s *MultiSpill) Layout(eng *engine.Engine, regions layout.Regions) (layout.Frame, *MultiSpill, error) {
	next := *s
	// 当前区域提交后不再变化
	next.backlog = append(slices.Clone(s.backlog), regions.Size.Y)

	backlog := make([]layout.Abs, 0, len(next.backlog)+len(regions.Backlog))
	backlog = append(backlog, next.backlog...)
	backlog = append(backlog, regions.Backlog...)

	// 去掉与 last 重复的尾部，避免 backlog 无谓增长改变哈希
	for len(backlog) > next.minBacklogLen && regions.Last != nil && backlog[len(backlog)-1] == *regions.Last {
		backlog = backlog[:len(backlog)-1]
	}

	pod := layout.Regions{
		Size:    layout.Size{X: regions.Size.X, Y: next.first},
		Full:    next.full,
		Backlog: backlog,
		Last:    regions.Last,
		Expand:  regions.Expand,
	}
	frames, err := next.multi.layoutFull(eng, pod)
	if err != nil {
		return layout.Frame{}, nil, err
	}

	next.minBacklogLen = max(next.minBacklogLen, len(backlog))

	skip := len(next.backlog)
	if skip >= len(frames) {
		return layout.Frame{}, nil, ErrSpillExhausted
	}
	frame := frames[skip]
	if skip+1 < len(frames) {
		return frame, &next, nil
	}
	return frame, nil, nil
}

// Align 返回块的对齐方式。
func (s *MultiSpill) Align() layout.Axes[layout.FixedAlign] { return s.multi.Align }

// ExistNonEmptyFrame 判断整块排版结果中是否有非空帧。
func (s *MultiSpill) ExistNonEmptyFrame() bool { return s.existNonEmptyFrame }

// MinBacklogLen 返回续排时 backlog 的最小长度。
func (s *MultiSpill) MinBacklogLen() int { return s.minBacklogLen }

// Backlog 返回已提交的区域高度。
func (s *MultiSpill) Backlog() []layout.Abs { return s.backlog }

// PlacedChild 是绝对定位或浮动的元素。
type PlacedChild struct {
	AlignX layout.FixedAlign
	// AlignY 为 auto 时由浮动位置决定；Custom(nil) 表示跟随流中的位置。
	AlignY    layout.Smart[*layout.FixedAlign]
	Scope     element.PlaceScope
	Float     bool
	Clearance layout.Abs
	Delta     layout.Axes[layout.Rel]

	elem      element.Place
	styles    style.Chain
	locator   layout.Locator
	alignment layout.Smart[layout.Align]
	cell      memo.CachedCell[frameResult]
}

// Layout 以 base 为可用空间排版内容，不撑满任何方向。
func (c *PlacedChild) Layout(eng *engine.Engine, base layout.Size) (layout.Frame, error) {
	res := c.cell.GetOrInit(base, func() frameResult {
		align := c.alignment.Or(layout.Align{X: layout.HAlignCenter, Y: layout.VAlignHorizon})
		styles := c.styles.With(style.Alignment.Set(align))
		frame, err := eng.LayoutFrame(c.elem.Body, c.locator.Relayout(), styles, layout.NewRegion(base, layout.Splat(false)))
		if err != nil {
			return frameResult{err: err}
		}
		if c.Float {
			frame.SetParent(c.locator.Resolve())
		}
		return frameResult{frame: frame}
	})
	if res.err != nil {
		return layout.Frame{}, res.err
	}
	return res.frame, nil
}

// Location 返回元素的位置。
func (c *PlacedChild) Location() layout.Location { return c.locator.Resolve() }
