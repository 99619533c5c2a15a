package flow

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/quire/element"
	"github.com/ByLCY/quire/engine"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
	"github.com/ByLCY/quire/text"
)

// stubFrame 让嵌套内容排成固定大小的一帧，并记下收到的对齐方式。
type stubFrame struct {
	size  layout.Size
	align layout.Align
	calls int
}

func (s *stubFrame) routines() *engine.Routines {
	return &engine.Routines{
		LayoutFrame: func(eng *engine.Engine, content []element.Pair, loc layout.Locator, styles style.Chain, region layout.Region) (layout.Frame, error) {
			s.calls++
			s.align = style.Get(styles, style.Alignment)
			f := layout.NewSoftFrame(s.size)
			f.Push(layout.Point{}, layout.ShapeItem{Size: s.size})
			return f, nil
		},
	}
}

func testEngine(routines *engine.Routines) *engine.Engine {
	if routines == nil {
		routines = &engine.Routines{}
	}
	return engine.New(routines, text.NewMonoShaper(), text.NewDictionaries(), layout.MaxLayoutDepth)
}

func tenPt(props ...style.Property) style.Chain {
	return style.New(append([]style.Property{style.FontSize.Set(10)}, props...)...)
}

func par(s string, styles style.Chain) element.Pair {
	return element.Pair{
		Elem:   element.Par{Children: []element.Pair{{Elem: element.Text{Text: s}, Styles: styles}}},
		Styles: styles,
	}
}

func kinds(children []Child) []string {
	var out []string
	for _, c := range children {
		switch v := c.(type) {
		case Tag:
			out = append(out, "tag")
		case Rel:
			out = append(out, fmt.Sprintf("rel%d", v.Weakness))
		case Fr:
			out = append(out, "fr")
		case *LineChild:
			out = append(out, "line")
		case *SingleChild:
			out = append(out, "single")
		case *MultiChild:
			out = append(out, "multi")
		case *PlacedChild:
			out = append(out, "placed")
		case Flush:
			out = append(out, "flush")
		case Break:
			out = append(out, "break")
		}
	}
	return out
}

// spillBody 生成总高 total 的可拆分内容，依次填满各区域，放不下的部分压到最后一帧。
func spillBody(total layout.Abs) element.MultiLayouter {
	return func(loc layout.Locator, styles style.Chain, regions layout.Regions) (layout.Fragment, error) {
		var out layout.Fragment
		remaining := total
		for size := range regions.Iter() {
			h := remaining.Min(size.Y)
			if regions.Last == nil && len(out) == len(regions.Backlog) {
				h = remaining
			}
			f := layout.NewSoftFrame(layout.Size{X: size.X, Y: h})
			f.Push(layout.Point{}, layout.ShapeItem{Size: layout.Size{X: size.X, Y: h}})
			out = append(out, f)
			remaining -= h
			if remaining.ApproxEmpty() {
				break
			}
		}
		return out, nil
	}
}

func TestCollectOrder(t *testing.T) {
	eng := testEngine(nil)
	styles := tenPt()
	unbreakable := tenPt(style.BlockBreakable.Set(false))
	children := []element.Pair{
		{Elem: element.Tag{Tag: layout.StartTag("heading", 7, 1)}, Styles: styles},
		{Elem: element.V{Amount: layout.RelSpacing(layout.AbsRel(12))}, Styles: styles},
		par("aaaa bbbb cccc", styles),
		{Elem: element.Block{}, Styles: unbreakable},
		{Elem: element.Block{}, Styles: styles},
		{Elem: element.Colbreak{Weak: true}, Styles: styles},
		{Elem: element.Flush{}, Styles: styles},
		{Elem: element.V{Amount: layout.FrSpacing(1)}, Styles: styles},
	}
	var arena Arena
	out, err := Collect(eng, &arena, children, layout.RootLocator(), layout.Size{X: 50, Y: 100}, false, ModeBlock)
	require.NoError(t, err)

	want := []string{
		"tag", "rel0",
		"rel4", "line", "rel5", "line", "rel4",
		"rel4", "single", "rel4",
		"rel4", "multi", "rel4",
		"break", "flush", "fr",
	}
	if diff := cmp.Diff(want, kinds(out)); diff != "" {
		t.Fatalf("收集顺序不符 (-want +got):\n%s", diff)
	}
	if b := out[13].(Break); !b.Weak {
		t.Fatalf("弱分栏符应保留 weak 标记")
	}
	// 段落间距默认 1.2em
	assert.InDelta(t, 12, float64(out[2].(Rel).Amount.Abs), 1e-9)
	assert.Equal(t, 4, arena.Len())
}

func TestBlockSpacingWeakness(t *testing.T) {
	eng := testEngine(nil)
	styles := tenPt(
		style.BlockAbove.Set(layout.Custom(layout.RelSpacing(layout.AbsRel(3)))),
		style.BlockBelow.Set(layout.Custom(layout.FrSpacing(2))),
	)
	out, err := Collect(eng, &Arena{}, []element.Pair{{Elem: element.Block{}, Styles: styles}}, layout.RootLocator(), layout.Size{X: 100, Y: 100}, false, ModeBlock)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, Rel{Amount: layout.AbsRel(3), Weakness: 3}, out[0])
	assert.Equal(t, Fr{Amount: 2}, out[2])
	if m := out[1].(*MultiChild); !m.Alone {
		t.Fatalf("唯一的子元素应标记为 alone")
	}
}

func TestFrHeightBlockIsSingle(t *testing.T) {
	eng := testEngine(nil)
	blk := element.Block{Height: layout.Sizing{Kind: layout.SizingFr, Fr: 2}}
	out, err := Collect(eng, &Arena{}, []element.Pair{{Elem: blk, Styles: tenPt()}}, layout.RootLocator(), layout.Size{X: 100, Y: 100}, false, ModeBlock)
	require.NoError(t, err)
	s, ok := out[1].(*SingleChild)
	require.True(t, ok, "分数高度的块不可拆分")
	require.NotNil(t, s.Fr)
	assert.InDelta(t, 2, float64(*s.Fr), 1e-9)
}

func needs(children []Child) []layout.Abs {
	var out []layout.Abs
	for _, c := range children {
		if l, ok := c.(*LineChild); ok {
			out = append(out, l.Need)
		}
	}
	return out
}

func TestWidowOrphanNeed(t *testing.T) {
	eng := testEngine(nil)
	base := layout.Size{X: 25, Y: 1000}

	cases := []struct {
		name   string
		text   string
		styles style.Chain
		want   []layout.Abs
	}{
		{"三行同时避免寡行孤行", "aaaa bbbb cccc", tenPt(style.Leading.Set(style.Pt(2))), []layout.Abs{34, 10, 10}},
		{"四行首尾各留两行", "aaaa bbbb cccc dddd", tenPt(style.Leading.Set(style.Pt(2))), []layout.Abs{22, 10, 22, 10}},
		{"关闭孤行惩罚", "aaaa bbbb cccc", tenPt(
			style.Leading.Set(style.Pt(2)),
			style.TextCosts.Set(style.Costs{Orphan: new(layout.Ratio)}),
		), []layout.Abs{10, 10, 10}},
		{"单行", "aaaa", tenPt(style.Leading.Set(style.Pt(2))), []layout.Abs{10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Collect(eng, &Arena{}, []element.Pair{par(tc.text, tc.styles)}, layout.RootLocator(), base, false, ModeBlock)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, needs(out)); diff != "" {
				t.Fatalf("need 不符 (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPagebreakInContainer(t *testing.T) {
	eng := testEngine(nil)
	span := layout.Span{File: "doc.qr", Line: 4, Column: 2}
	_, err := Collect(eng, &Arena{}, []element.Pair{{Elem: element.Pagebreak{Base: element.Base{At: span}}, Styles: tenPt()}}, layout.RootLocator(), layout.Size{X: 100, Y: 100}, false, ModeBlock)
	var se *layout.SourceError
	require.True(t, errors.As(err, &se), "应返回 SourceError，实际 %v", err)
	assert.Equal(t, "pagebreaks are not allowed inside of containers", se.Message)
	assert.Equal(t, []string{"try using a `colbreak` instead"}, se.Hints)
	assert.Equal(t, span, se.Span)
}

func TestPlaceValidation(t *testing.T) {
	eng := testEngine(nil)
	hint := "you can enable floating placement with `place(float: true, ..)`"
	top := layout.Align{X: layout.HAlignRight, Y: layout.VAlignTop}

	cases := []struct {
		name  string
		place element.Place
		msg   string
		hints []string
	}{
		{"浮动居中", element.Place{Float: true, Alignment: layout.Custom(layout.Align{Y: layout.VAlignHorizon})},
			"vertical floating placement must be `auto`, `top`, or `bottom`", nil},
		{"浮动未指定竖直对齐", element.Place{Float: true, Alignment: layout.Custom(layout.Align{X: layout.HAlignLeft})},
			"vertical floating placement must be `auto`, `top`, or `bottom`", nil},
		{"非浮动自动定位", element.Place{},
			"automatic positioning is only available for floating placement", []string{hint}},
		{"非浮动父级作用域", element.Place{Alignment: layout.Custom(top), Scope: element.ScopeParent},
			"parent-scoped positioning is currently only available for floating placement", []string{hint}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Collect(eng, &Arena{}, []element.Pair{{Elem: tc.place, Styles: tenPt()}}, layout.RootLocator(), layout.Size{X: 100, Y: 100}, false, ModeBlock)
			var se *layout.SourceError
			require.True(t, errors.As(err, &se), "应返回 SourceError，实际 %v", err)
			assert.Equal(t, tc.msg, se.Message)
			assert.Equal(t, tc.hints, se.Hints)
		})
	}

	out, err := Collect(eng, &Arena{}, []element.Pair{
		{Elem: element.Place{Alignment: layout.Custom(top), Dx: layout.AbsRel(4)}, Styles: tenPt()},
		{Elem: element.Place{Float: true, Clearance: style.Ems(1.5)}, Styles: tenPt()},
	}, layout.RootLocator(), layout.Size{X: 100, Y: 100}, false, ModeBlock)
	require.NoError(t, err)
	abs := out[0].(*PlacedChild)
	assert.Equal(t, layout.AlignEnd, abs.AlignX)
	require.True(t, abs.AlignY.Custom)
	require.NotNil(t, abs.AlignY.V)
	assert.Equal(t, layout.AlignStart, *abs.AlignY.V)
	assert.InDelta(t, 4, float64(abs.Delta.X.Abs), 1e-9)

	float := out[1].(*PlacedChild)
	assert.Equal(t, layout.AlignCenter, float.AlignX)
	assert.False(t, float.AlignY.Custom)
	assert.InDelta(t, 15, float64(float.Clearance), 1e-9)
	if float.Location() == abs.Location() {
		t.Fatalf("两个 place 的位置不应相同")
	}
}

func TestUnknownElementWarns(t *testing.T) {
	eng := testEngine(nil)
	span := layout.Span{Line: 9, Column: 1}
	out, err := Collect(eng, &Arena{}, []element.Pair{{Elem: element.Opaque{Base: element.Base{At: span}, Kind: "table"}, Styles: tenPt()}}, layout.RootLocator(), layout.Size{X: 100, Y: 100}, false, ModeBlock)
	require.NoError(t, err)
	assert.Empty(t, out)
	warnings := eng.Sink.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "table was ignored during paged export", warnings[0].Message)
	assert.Equal(t, span, warnings[0].Span)
}

func TestInlineModeKeepsTagsOutside(t *testing.T) {
	eng := testEngine(nil)
	styles := tenPt()
	children := []element.Pair{
		{Elem: element.Tag{Tag: layout.StartTag("box", 1, 1)}, Styles: styles},
		{Elem: element.Text{Text: "aaaa bbbb"}, Styles: styles},
		{Elem: element.Tag{Tag: layout.EndTag(1, 1)}, Styles: styles},
	}
	out, err := Collect(eng, &Arena{}, children, layout.RootLocator(), layout.Size{X: 25, Y: 100}, false, ModeInline)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"tag", "line", "rel5", "line", "tag"}, kinds(out)); diff != "" {
		t.Fatalf("行内模式输出不符 (-want +got):\n%s", diff)
	}
}

func TestSingleChildMemo(t *testing.T) {
	eng := testEngine(nil)
	var seen []layout.Region
	blk := element.Block{
		Inset: layout.Inset{Left: layout.AbsRel(5), Right: layout.AbsRel(5)},
		Body: element.BlockBody{Kind: element.BodySingle, Single: func(loc layout.Locator, styles style.Chain, region layout.Region) (layout.Frame, error) {
			seen = append(seen, region)
			return layout.NewSoftFrame(layout.Size{X: 20, Y: 30}), nil
		}},
		Fill: &layout.Color{R: 255, A: 255},
	}
	out, err := Collect(eng, &Arena{}, []element.Pair{{Elem: blk, Styles: tenPt(style.BlockBreakable.Set(false))}}, layout.RootLocator(), layout.Size{X: 100, Y: 100}, false, ModeBlock)
	require.NoError(t, err)
	single := out[1].(*SingleChild)

	region := layout.NewRegion(layout.Size{X: 100, Y: 200}, layout.Splat(false))
	frame, err := single.Layout(eng, region)
	require.NoError(t, err)
	again, err := single.Layout(eng, region)
	require.NoError(t, err)
	assert.Equal(t, 1, single.Calls())
	assert.Equal(t, frame.Size(), again.Size())
	assert.InDelta(t, 30, float64(frame.Width()), 1e-9)
	assert.InDelta(t, 30, float64(frame.Height()), 1e-9)
	// 内边距从可用宽度中扣除
	assert.InDelta(t, 90, float64(seen[0].Size.X), 1e-9)
	if _, ok := frame.Items()[0].Item.(layout.ShapeItem); !ok {
		t.Fatalf("填充应位于最底层")
	}

	// 修改返回的帧不影响缓存
	frame.Translate(layout.Point{X: 1})
	third, err := single.Layout(eng, region)
	require.NoError(t, err)
	assert.Equal(t, layout.Point{}, third.Items()[0].Pos)

	_, err = single.Layout(eng, layout.NewRegion(layout.Size{X: 80, Y: 200}, layout.Splat(false)))
	require.NoError(t, err)
	assert.Equal(t, 2, single.Calls())
}

func TestAloneKeepsVerticalExpansion(t *testing.T) {
	eng := testEngine(nil)
	var expandY []bool
	blk := element.Block{Body: element.BlockBody{Kind: element.BodyMulti, Multi: func(loc layout.Locator, styles style.Chain, regions layout.Regions) (layout.Fragment, error) {
		expandY = append(expandY, regions.Expand.Y)
		return layout.Fragment{layout.NewSoftFrame(layout.Size{X: 10, Y: 10})}, nil
	}}}
	styles := tenPt(style.BlockBreakable.Set(false))
	region := layout.NewRegion(layout.Size{X: 100, Y: 100}, layout.Splat(true))

	alone, err := Collect(eng, &Arena{}, []element.Pair{{Elem: blk, Styles: styles}}, layout.RootLocator(), region.Size, true, ModeBlock)
	require.NoError(t, err)
	_, err = alone[1].(*SingleChild).Layout(eng, region)
	require.NoError(t, err)

	shared, err := Collect(eng, &Arena{}, []element.Pair{{Elem: blk, Styles: styles}, {Elem: blk, Styles: styles}}, layout.RootLocator(), region.Size, true, ModeBlock)
	require.NoError(t, err)
	_, err = shared[1].(*SingleChild).Layout(eng, region)
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false}, expandY)
}

func TestMultiSpillMonotonic(t *testing.T) {
	eng := testEngine(nil)
	blk := element.Block{Body: element.BlockBody{Kind: element.BodyMulti, Multi: spillBody(250)}}
	out, err := Collect(eng, &Arena{}, []element.Pair{{Elem: blk, Styles: tenPt()}}, layout.RootLocator(), layout.Size{X: 100, Y: 100}, false, ModeBlock)
	require.NoError(t, err)
	multi := out[1].(*MultiChild)

	regions := layout.RepeatRegion(layout.Size{X: 100, Y: 100}, layout.Splat(false))
	frame, spill, err := multi.Layout(eng, regions)
	require.NoError(t, err)
	require.NotNil(t, spill)
	assert.InDelta(t, 100, float64(frame.Height()), 1e-9)
	assert.True(t, spill.ExistNonEmptyFrame())

	var heights []layout.Abs
	prevMin := spill.MinBacklogLen()
	for spill != nil {
		next := regions
		next.Next()
		frame, spill, err = spill.Layout(eng, next)
		require.NoError(t, err)
		heights = append(heights, frame.Height())
		if spill != nil {
			if spill.MinBacklogLen() < prevMin {
				t.Fatalf("minBacklogLen 不应减小: %d -> %d", prevMin, spill.MinBacklogLen())
			}
			prevMin = spill.MinBacklogLen()
			assert.Equal(t, []layout.Abs{100}, spill.Backlog())
		}
	}
	if diff := cmp.Diff([]layout.Abs{100, 50}, heights); diff != "" {
		t.Fatalf("续排帧高度不符 (-want +got):\n%s", diff)
	}
	// 续排时合并后的区域与第一次相同，命中缓存
	assert.Equal(t, 1, multi.Calls())
}

func TestMultiSpillBacklog(t *testing.T) {
	eng := testEngine(nil)
	blk := element.Block{Body: element.BlockBody{Kind: element.BodyMulti, Multi: spillBody(250)}}
	out, err := Collect(eng, &Arena{}, []element.Pair{{Elem: blk, Styles: tenPt()}}, layout.RootLocator(), layout.Size{X: 100, Y: 60}, false, ModeBlock)
	require.NoError(t, err)
	multi := out[1].(*MultiChild)

	regions := layout.Regions{Size: layout.Size{X: 100, Y: 60}, Full: 60, Backlog: []layout.Abs{80}}
	frame, spill, err := multi.Layout(eng, regions)
	require.NoError(t, err)
	require.NotNil(t, spill)
	assert.InDelta(t, 60, float64(frame.Height()), 1e-9)
	assert.Equal(t, 1, spill.MinBacklogLen())

	regions.Next()
	frame, spill, err = spill.Layout(eng, regions)
	require.NoError(t, err)
	assert.Nil(t, spill)
	// 最后一个区域放不下的内容全部留在最后一帧
	assert.InDelta(t, 190, float64(frame.Height()), 1e-9)
	assert.Equal(t, 1, multi.Calls())
}

func TestMultiBlockFixedHeightDistributes(t *testing.T) {
	eng := testEngine(nil)
	blk := element.Block{
		Height: layout.Sizing{Kind: layout.SizingRel, Rel: layout.AbsRel(150)},
		Fill:   &layout.Color{B: 255, A: 255},
	}
	out, err := Collect(eng, &Arena{}, []element.Pair{{Elem: blk, Styles: tenPt()}}, layout.RootLocator(), layout.Size{X: 100, Y: 100}, false, ModeBlock)
	require.NoError(t, err)
	multi := out[1].(*MultiChild)

	frame, spill, err := multi.Layout(eng, layout.RepeatRegion(layout.Size{X: 100, Y: 100}, layout.Splat(false)))
	require.NoError(t, err)
	require.NotNil(t, spill)
	assert.InDelta(t, 100, float64(frame.Height()), 1e-9)

	rest, spill, err := spill.Layout(eng, layout.RepeatRegion(layout.Size{X: 100, Y: 100}, layout.Splat(false)))
	require.NoError(t, err)
	assert.Nil(t, spill)
	assert.InDelta(t, 50, float64(rest.Height()), 1e-9)
	require.False(t, rest.IsEmpty(), "每一帧都应有填充")
}

func TestPlacedChildDefaults(t *testing.T) {
	stub := &stubFrame{size: layout.Size{X: 10, Y: 20}}
	eng := testEngine(stub.routines())
	out, err := Collect(eng, &Arena{}, []element.Pair{
		{Elem: element.Place{Float: true, Body: []element.Pair{par("x", tenPt())}}, Styles: tenPt()},
	}, layout.RootLocator(), layout.Size{X: 100, Y: 100}, false, ModeBlock)
	require.NoError(t, err)
	placed := out[0].(*PlacedChild)

	base := layout.Size{X: 100, Y: 100}
	frame, err := placed.Layout(eng, base)
	require.NoError(t, err)
	_, err = placed.Layout(eng, base)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, layout.Align{X: layout.HAlignCenter, Y: layout.VAlignHorizon}, stub.align)
	parent, ok := frame.Parent()
	require.True(t, ok, "浮动元素的帧应记录所属位置")
	assert.Equal(t, placed.Location(), parent)
}

func TestArenaReset(t *testing.T) {
	eng := testEngine(nil)
	var arena Arena
	out, err := Collect(eng, &arena, []element.Pair{par("aaaa bbbb cccc", tenPt())}, layout.RootLocator(), layout.Size{X: 25, Y: 100}, false, ModeBlock)
	require.NoError(t, err)
	line := out[1].(*LineChild)
	require.Equal(t, 3, arena.Len())
	require.False(t, line.Frame.IsEmpty())

	arena.Reset()
	assert.Equal(t, 0, arena.Len())
	assert.True(t, line.Frame.IsEmpty())
	assert.Zero(t, line.Need)

	// 复用同一块内存
	again, err := Collect(eng, &arena, []element.Pair{par("aaaa", tenPt())}, layout.RootLocator(), layout.Size{X: 25, Y: 100}, false, ModeBlock)
	require.NoError(t, err)
	assert.Same(t, line, again[1].(*LineChild))
}

func TestArenaSlabGrows(t *testing.T) {
	var s slab[LineChild]
	first := s.alloc()
	first.Need = 1
	for range chunkSize * 2 {
		s.alloc()
	}
	assert.Equal(t, chunkSize*2+1, s.n)
	assert.Len(t, s.chunks, 3)
	assert.InDelta(t, 1, float64(first.Need), 1e-9)
}
