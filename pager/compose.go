package pager

import (
	"errors"

	"github.com/ByLCY/quire/engine"
	"github.com/ByLCY/quire/flow"
	"github.com/ByLCY/quire/layout"
)

// composer 排一个区域：先放浮动元素，再把剩余空间交给 distributor。
type composer struct {
	eng        *engine.Engine
	work       *work
	insertions insertions
}

// compose 产出一个区域的帧。每放入一个浮动元素，区域就从快照开始重新排一次。
func compose(eng *engine.Engine, w *work, regions layout.Regions) (layout.Frame, error) {
	c := &composer{eng: eng, work: w}
	checkpoint := w.clone()
	for {
		pod := regions
		pod.Size.Y -= c.insertions.height()

		inner, err := c.contents(pod)
		if errors.Is(err, errRelayout) {
			*c.work = checkpoint
			checkpoint = c.work.clone()
			continue
		}
		if err != nil {
			return layout.Frame{}, err
		}
		return c.insertions.finalize(c.work, inner), nil
	}
}

func (c *composer) contents(regions layout.Regions) (layout.Frame, error) {
	queued := c.work.floats
	c.work.floats = nil
	for _, p := range queued {
		if err := c.float(p, regions, false); err != nil {
			return layout.Frame{}, err
		}
	}
	return distribute(c, regions)
}

func (c *composer) skipped(loc layout.Location) bool {
	if _, ok := c.work.skips[loc]; ok {
		return true
	}
	for _, l := range c.insertions.skips {
		if l == loc {
			return true
		}
	}
	return false
}

// float 尝试把浮动元素放到区域顶部或底部。放不下时排队等下一个区域；
// 放下时返回 errRelayout，让区域在缩小后的空间里重新排。
func (c *composer) float(placed *flow.PlacedChild, regions layout.Regions, clearance bool) error {
	loc := placed.Location()
	if c.skipped(loc) {
		return nil
	}
	// 前面还有排队的浮动元素时保持顺序
	if len(c.work.floats) > 0 {
		c.work.floats = append(c.work.floats, placed)
		return nil
	}

	base := regions.Base()
	frame, err := placed.Layout(c.eng, base)
	if err != nil {
		return err
	}

	remaining := regions.Size.Y
	need := frame.Height()
	if clearance {
		need += placed.Clearance
	}
	if !remaining.Fits(need) && regions.MayProgress() {
		c.work.floats = append(c.work.floats, placed)
		return nil
	}

	var alignY layout.FixedAlign
	if placed.AlignY.Custom && placed.AlignY.V != nil {
		alignY = *placed.AlignY.V
	} else {
		// auto 时按元素在区域中的位置选择顶部或底部
		used := base.Y - remaining
		if (used+need/2)/base.Y <= 0.5 {
			alignY = layout.AlignStart
		} else {
			alignY = layout.AlignEnd
		}
	}

	tracer().P("float", loc).Debugf("float placed at %d, height %.2f", alignY, float64(need))
	c.insertions.pushFloat(placed, frame, alignY)
	c.insertions.skips = append(c.insertions.skips, loc)
	return errRelayout
}

type floatFrame struct {
	placed *flow.PlacedChild
	frame  layout.Frame
}

// insertions 是区域顶部与底部的浮动元素。
type insertions struct {
	top, bottom         []floatFrame
	topSize, bottomSize layout.Abs
	width               layout.Abs
	skips               []layout.Location
}

func (in *insertions) pushFloat(placed *flow.PlacedChild, frame layout.Frame, alignY layout.FixedAlign) {
	in.width = in.width.Max(frame.Width())
	amount := frame.Height() + placed.Clearance
	if alignY == layout.AlignStart {
		in.topSize += amount
		in.top = append(in.top, floatFrame{placed: placed, frame: frame})
	} else {
		in.bottomSize += amount
		in.bottom = append(in.bottom, floatFrame{placed: placed, frame: frame})
	}
}

func (in *insertions) height() layout.Abs { return in.topSize + in.bottomSize }

// finalize 把浮动元素和正文拼成区域的最终帧。
func (in *insertions) finalize(w *work, inner layout.Frame) layout.Frame {
	w.extendSkips(in.skips)
	if len(in.top) == 0 && len(in.bottom) == 0 {
		return inner
	}

	size := inner.Size().Add(layout.Size{Y: in.height()})
	output := layout.NewSoftFrame(size)
	offsetTop := layout.Abs(0)
	offsetBottom := size.Y - in.bottomSize

	delta := func(p *flow.PlacedChild) layout.Point {
		return layout.Point{X: p.Delta.X.RelativeTo(size.X), Y: p.Delta.Y.RelativeTo(size.Y)}
	}

	for _, f := range in.top {
		x := f.placed.AlignX.Position(size.X - f.frame.Width())
		pos := layout.Point{X: x, Y: offsetTop}.Add(delta(f.placed))
		offsetTop += f.frame.Height() + f.placed.Clearance
		output.PushFrame(pos, f.frame)
	}

	output.PushFrame(layout.Point{Y: in.topSize}, inner)

	for _, f := range in.bottom {
		offsetBottom += f.placed.Clearance
		x := f.placed.AlignX.Position(size.X - f.frame.Width())
		pos := layout.Point{X: x, Y: offsetBottom}.Add(delta(f.placed))
		offsetBottom += f.frame.Height()
		output.PushFrame(pos, f.frame)
	}
	return output
}
