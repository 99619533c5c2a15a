package inline

import (
	"slices"

	"github.com/ByLCY/quire/engine"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
)

// ParLineMarker 是行号标记在标签中的元素名。
const ParLineMarker = "par-line-marker"

// CommitResult 是提交一行的结果，附带两端对齐的分配情况：
// Initial 是对齐前的剩余宽度，Consumed 是伸缩与额外分配吸收的宽度，
// Remaining 是最终交给对齐方式的剩余宽度。
type CommitResult struct {
	Frame     layout.Frame
	Ratio     float64
	Extra     layout.Abs
	Initial   layout.Abs
	Consumed  layout.Abs
	Remaining layout.Abs
}

type placed struct {
	offset layout.Abs
	frame  layout.Frame
	idx    int
}

// commit 把一行排成宽 width 的帧。full 是区域的完整高度，用于分数宽度盒子。
func commit(eng *engine.Engine, p *Preparation, l *Line, width, full layout.Abs, locator *layout.SplitLocator) (CommitResult, error) {
	remaining := width - l.Width - p.Config.HangingIndent
	var offset layout.Abs

	// 总是从左往右排，LTR 段落的悬挂缩进体现在起点上，RTL 段落体现在行宽上
	if p.Config.Dir == layout.DirLTR {
		offset += p.Config.HangingIndent
	}

	// 标点悬挂
	if i := l.leadingText(); i >= 0 {
		t := l.textAt(i)
		if len(t.Glyphs) > 0 && !t.Dir.IsPositive() && style.Get(t.Styles, style.Overhang) && (len(l.Items) > 1 || len(t.Glyphs) > 1) {
			g := t.Glyphs[0]
			amount := layout.Abs(overhang(g.C) * float64(g.XAdvance.At(t.Size)))
			offset -= amount
			remaining += amount
		}
	}
	if i := l.trailingText(); i >= 0 {
		t := l.textAt(i)
		if len(t.Glyphs) > 0 && t.Dir.IsPositive() && style.Get(t.Styles, style.Overhang) && (len(l.Items) > 1 || len(t.Glyphs) > 1) {
			g := t.Glyphs[len(t.Glyphs)-1]
			remaining += layout.Abs(overhang(g.C) * float64(g.XAdvance.At(t.Size)))
		}
	}

	res := CommitResult{Initial: remaining}

	// 先压缩，再拉伸，最后把剩余空间平摊到可对齐字形上
	fr := l.Fr()
	shrink := l.Shrinkability()
	stretch := l.Stretchability()
	switch {
	case remaining < 0 && shrink > 0:
		res.Ratio = max(float64(remaining/shrink), -1)
		res.Consumed = layout.Abs(res.Ratio) * shrink
		remaining = min(remaining+shrink, 0)
	case l.Justify && fr.IsZero():
		if stretch > 0 {
			res.Ratio = min(float64(remaining/stretch), 1)
			res.Consumed = layout.Abs(res.Ratio) * stretch
			remaining = max(remaining-stretch, 0)
		}
		if n := l.Justifiables(); n > 0 && remaining > 0 {
			res.Extra = remaining / layout.Abs(n)
			res.Consumed += remaining
			remaining = 0
		}
	}

	var top, bottom layout.Abs
	var frames []placed
	push := func(frame layout.Frame, idx int) {
		top = top.Max(frame.Baseline())
		bottom = bottom.Max(frame.Height() - frame.Baseline())
		frames = append(frames, placed{offset: offset, frame: frame, idx: idx})
		offset += frame.Width()
	}

	for _, it := range l.Items {
		switch v := it.Item.(type) {
		case Absolute:
			offset += v.Amount
		case Fractional:
			amount := v.Amount.Share(fr, remaining)
			if v.Box == nil {
				offset += amount
				continue
			}
			if !full.IsFinite() {
				return CommitResult{}, layout.Bail(v.Box.Elem.Span(), "cannot lay out line in infinite height")
			}
			frame, err := layoutBox(eng, v.Box.Elem, v.Box.Loc.Relayout(), v.Box.Styles, layout.Size{X: amount, Y: full})
			if err != nil {
				return CommitResult{}, err
			}
			push(frame, it.Idx)
		case Text:
			push(v.Shaped.Build(res.Ratio, res.Extra), it.Idx)
		case Frame:
			push(v.Frame.Clone(), it.Idx)
		case Tag:
			frame := layout.NewSoftFrame(layout.Size{})
			frame.Push(layout.Point{}, layout.TagItem{Tag: v.Tag})
			frames = append(frames, placed{offset: offset, frame: frame, idx: it.Idx})
		case Skip:
		}
	}

	// 剩余空间已经分给分数间距
	if !fr.IsZero() {
		remaining = 0
	}
	res.Remaining = remaining

	output := layout.NewSoftFrame(layout.Size{X: width, Y: top + bottom})
	output.SetBaseline(top)

	if marker := p.Config.Numbering; marker != nil {
		key := layout.HashOf(*marker)
		loc := locator.NextLocation([2]any{ParLineMarker, key})
		pos := layout.Point{Y: top}
		output.Push(pos, layout.TagItem{Tag: layout.StartTag(ParLineMarker, loc, key)})
		output.Push(pos, layout.TagItem{Tag: layout.EndTag(loc, key)})
	}

	// 帧按逻辑顺序排列，自省时元素的顺序与文档一致
	slices.SortStableFunc(frames, func(a, b placed) int {
		switch {
		case a.idx < b.idx:
			return -1
		case a.idx > b.idx:
			return 1
		}
		return 0
	})

	shift := p.Config.Align.Position(remaining)
	for _, f := range frames {
		pos := layout.Point{X: f.offset + shift, Y: top - f.frame.Baseline()}
		output.PushFrame(pos, f.frame)
	}
	res.Frame = output
	return res, nil
}

// overhang 返回字符可以悬挂到页边的比例。
func overhang(c rune) float64 {
	switch c {
	case '\u2013', '\u2014':
		return 0.2
	case '-', '\u00ad':
		return 0.55
	case '.', ',':
		return 0.8
	case ':', ';':
		return 0.3
	case '\u060c', '\u06d4':
		return 0.4
	}
	return 0
}

// finalize 确定段落宽度并逐行提交。
func finalize(eng *engine.Engine, p *Preparation, lines []*Line, region layout.Size, expand bool, locator *layout.SplitLocator) (layout.Fragment, error) {
	allZeroFr := true
	var widest layout.Abs
	for _, l := range lines {
		if !l.Fr().IsZero() {
			allZeroFr = false
		}
		widest = widest.Max(l.Width)
	}

	// 需要撑满或者有分数间距时取区域宽度，否则收缩到最宽的一行
	width := region.X
	if !region.X.IsFinite() || (!expand && allZeroFr) {
		width = region.X.Min(p.Config.HangingIndent + widest)
	}

	out := make(layout.Fragment, 0, len(lines))
	for _, l := range lines {
		res, err := commit(eng, p, l, width, region.Y, locator)
		if err != nil {
			return nil, err
		}
		out = append(out, res.Frame)
	}
	return out, nil
}
