// Package pager 是排版内核的区域填充器与驱动入口。
//
// 它把 flow 收集好的 Child 序列逐个区域地放置：处理间距合并、分数空间、
// 浮动元素、可拆分块的续排和 sticky 块的回退，每个区域产出一帧。
// 嵌套内容（块、盒子、浮动元素的正文）通过 Routines 回到这里排版。
package pager

import (
	"github.com/npillmayer/schuko/tracing"

	"github.com/ByLCY/quire/element"
	"github.com/ByLCY/quire/engine"
	"github.com/ByLCY/quire/flow"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
)

func tracer() tracing.Trace { return tracing.Select("quire.pager") }

// Routines 返回供 engine 回调的嵌套排版例程。
func Routines() *engine.Routines {
	return &engine.Routines{
		LayoutFragment: LayoutFragment,
		LayoutFrame:    LayoutFrame,
	}
}

// LayoutFragment 在区域序列上排版嵌套内容，每个区域一帧。
//
// content 中的样式相对于 styles，排版前会接到 styles 的内侧。
func LayoutFragment(eng *engine.Engine, content []element.Pair, loc layout.Locator, styles style.Chain, regions layout.Regions) (layout.Fragment, error) {
	span := spanOf(content)
	if !regions.Size.X.IsFinite() && regions.Expand.X {
		return nil, layout.Bail(span, "cannot expand into infinite width")
	}
	if !regions.Size.Y.IsFinite() && regions.Expand.Y {
		return nil, layout.Bail(span, "cannot expand into infinite height")
	}

	nested, err := eng.Nested(span)
	if err != nil {
		return nil, err
	}
	children := rebase(content, styles)
	return layoutFlow(nested, children, loc, regions, modeOf(children))
}

// LayoutFrame 在单个区域内排版嵌套内容。
func LayoutFrame(eng *engine.Engine, content []element.Pair, loc layout.Locator, styles style.Chain, region layout.Region) (layout.Frame, error) {
	fragment, err := LayoutFragment(eng, content, loc, styles, region.Regions())
	if err != nil {
		return layout.Frame{}, err
	}
	return fragment.IntoFrame(), nil
}

// Paginate 排版整篇文档。content 按分页符切成若干段，每段从新的区域序列开始。
func Paginate(eng *engine.Engine, content []element.Pair, styles style.Chain, regions layout.Regions) (layout.Fragment, error) {
	children := rebase(content, styles)
	split := layout.RootLocator().Split()

	var pages layout.Fragment
	var run []element.Pair
	flush := func() error {
		frames, err := layoutFlow(eng, run, split.Next(len(pages)), regions, flow.ModeRoot)
		if err != nil {
			return err
		}
		tracer().P("pages", len(pages)).Debugf("run of %d elements filled %d regions", len(run), len(frames))
		pages = append(pages, frames...)
		run = nil
		return nil
	}

	for _, pair := range children {
		pb, ok := pair.Elem.(element.Pagebreak)
		if !ok {
			run = append(run, pair)
			continue
		}
		if pb.Weak && !hasContent(run) {
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return pages, nil
}

func layoutFlow(eng *engine.Engine, children []element.Pair, loc layout.Locator, regions layout.Regions, mode flow.Mode) (layout.Fragment, error) {
	var arena flow.Arena
	base := layout.Size{X: regions.Size.X, Y: regions.Full}
	kids, err := flow.Collect(eng, &arena, children, loc, base, regions.Expand.X, mode)
	if err != nil {
		return nil, err
	}

	return fill(eng, kids, regions)
}

// fill 逐个区域放置 children，直到内容放完；区域需要撑满高度时还会用完剩余的 backlog。
func fill(eng *engine.Engine, children []flow.Child, regions layout.Regions) (layout.Fragment, error) {
	w := newWork(children)
	var finished layout.Fragment
	for {
		frame, err := compose(eng, w, regions)
		if err != nil {
			return nil, err
		}
		finished = append(finished, frame)
		if w.done() && (!regions.Expand.Y || len(regions.Backlog) == 0) {
			break
		}
		regions.Next()
	}
	return finished, nil
}

// rebase 把局部样式接到 styles 内侧，段落的子元素接到段落自己的样式内侧。
func rebase(content []element.Pair, styles style.Chain) []element.Pair {
	out := make([]element.Pair, len(content))
	for i, pair := range content {
		chain := styles.Chained(pair.Styles)
		elem := pair.Elem
		if par, ok := elem.(element.Par); ok {
			par.Children = rebase(par.Children, chain)
			elem = par
		}
		out[i] = element.Pair{Elem: elem, Styles: chain}
	}
	return out
}

func spanOf(content []element.Pair) layout.Span {
	if len(content) == 0 {
		return layout.Detached()
	}
	return content[0].Span()
}

// modeOf 在内容全部是行内元素时选择行内模式。
func modeOf(content []element.Pair) flow.Mode {
	if !hasContent(content) {
		return flow.ModeBlock
	}
	for _, pair := range content {
		switch pair.Elem.(type) {
		case element.Text, element.Space, element.Linebreak, element.H, element.Box, element.Tag:
		default:
			return flow.ModeBlock
		}
	}
	return flow.ModeInline
}

// hasContent 判断是否有标签以外的元素。
func hasContent(content []element.Pair) bool {
	for _, pair := range content {
		if _, ok := pair.Elem.(element.Tag); !ok {
			return true
		}
	}
	return false
}
