package flow

import (
	"iter"

	"github.com/ByLCY/quire/element"
	"github.com/ByLCY/quire/engine"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
)

// layoutSingleBlock 把不可拆分的块排成一帧。
func layoutSingleBlock(eng *engine.Engine, elem element.Block, loc layout.Locator, styles style.Chain, region layout.Region) (layout.Frame, error) {
	pod := layout.UnbreakablePod(elem.Width, elem.Height, elem.Inset, region.Size)

	var frame layout.Frame
	var err error
	switch elem.Body.Kind {
	case element.BodyNone:
		frame = layout.NewHardFrame(layout.Size{})
	case element.BodyContent:
		frame, err = eng.LayoutFrame(elem.Body.Content, loc.Relayout(), styles, pod)
	case element.BodySingle:
		frame, err = elem.Body.Single(loc, styles, pod)
	case element.BodyMulti:
		// auto 尺寸的多区域内容继承外层的撑满，但只在尺寸有限的轴上
		p := pod
		p.Expand = layout.Axes[bool]{
			X: (pod.Expand.X || region.Expand.X) && pod.Size.X.IsFinite(),
			Y: (pod.Expand.Y || region.Expand.Y) && pod.Size.Y.IsFinite(),
		}
		var frames layout.Fragment
		frames, err = elem.Body.Multi(loc, styles, p.Regions())
		frame = frames.IntoFrame()
	}
	if err != nil {
		return layout.Frame{}, err
	}

	if elem.Body.Kind == element.BodyNone || elem.Body.Kind == element.BodyContent {
		frame.SetKind(layout.FrameHard)
	}

	// 撑满的轴上强制使用区域尺寸，在加内边距之前做
	frame.SetSize(layout.SelectSize(pod.Expand, pod.Size, frame.Size()))
	if !layout.InsetIsZero(elem.Inset) {
		layout.GrowFrame(&frame, elem.Inset)
	}
	frame.FillAndStroke(elem.Fill, elem.Stroke)
	return frame, nil
}

// layoutMultiBlock 把可拆分的块排到区域序列上，每个区域一帧。
func layoutMultiBlock(eng *engine.Engine, elem element.Block, loc layout.Locator, styles style.Chain, regions layout.Regions) (layout.Fragment, error) {
	pod := layout.BreakablePod(elem.Width, elem.Height, elem.Inset, regions)

	var fragment layout.Fragment
	var err error
	switch elem.Body.Kind {
	case element.BodyNone:
		// 没有内容时先生成零尺寸的帧，尺寸在后面统一调整
		fragment = layout.Fragment{layout.NewHardFrame(layout.Size{})}
		if pod.Expand.Y {
			for range pod.Backlog {
				fragment = append(fragment, layout.NewHardFrame(layout.Size{}))
			}
		}
	case element.BodyContent:
		fragment, err = eng.LayoutFragment(elem.Body.Content, loc.Relayout(), styles, pod)
		if err == nil && !pod.Expand.X && !consistentWidths(fragment) {
			// 自动宽度的内容在各区域宽度不一致时，按最宽的一帧撑满重排
			var widest layout.Abs
			for i := range fragment {
				widest = widest.Max(fragment[i].Width())
			}
			p := pod
			p.Size.X = widest
			p.Expand.X = true
			fragment, err = eng.LayoutFragment(elem.Body.Content, loc, styles, p)
		}
	case element.BodySingle:
		var frame layout.Frame
		frame, err = elem.Body.Single(loc, styles, layout.NewRegion(pod.Base(), pod.Expand))
		fragment = layout.Fragment{frame}
	case element.BodyMulti:
		p := pod
		p.Expand = layout.Axes[bool]{
			X: (pod.Expand.X || regions.Expand.X) && pod.Size.X.IsFinite(),
			Y: (pod.Expand.Y || regions.Expand.Y) && pod.Size.Y.IsFinite(),
		}
		fragment, err = elem.Body.Multi(loc, styles, p)
	}
	if err != nil {
		return nil, err
	}

	// 首帧为空而后面有内容时，首帧不画填充和描边
	decorated := elem.Fill != nil || elem.Stroke != nil
	skipFirst := false
	if decorated && len(fragment) > 1 && fragment[0].IsEmpty() {
		for _, f := range fragment[1:] {
			if !f.IsEmpty() {
				skipFirst = true
				break
			}
		}
	}

	next, stop := iter.Pull(pod.Iter())
	defer stop()
	for i := range fragment {
		size, ok := next()
		if !ok {
			break
		}
		frame := &fragment[i]
		if elem.Body.Kind == element.BodyNone || elem.Body.Kind == element.BodyContent {
			frame.SetKind(layout.FrameHard)
		}
		frame.SetSize(layout.SelectSize(pod.Expand, size, frame.Size()))
		if !layout.InsetIsZero(elem.Inset) {
			layout.GrowFrame(frame, elem.Inset)
		}
		if decorated && (i > 0 || !skipFirst) {
			frame.FillAndStroke(elem.Fill, elem.Stroke)
		}
	}
	return fragment, nil
}

func consistentWidths(fragment layout.Fragment) bool {
	for i := 1; i < len(fragment); i++ {
		if !fragment[i-1].Width().ApproxEq(fragment[i].Width()) {
			return false
		}
	}
	return true
}
