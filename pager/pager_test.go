package pager

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/quire/element"
	"github.com/ByLCY/quire/engine"
	"github.com/ByLCY/quire/flow"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
	"github.com/ByLCY/quire/text"
)

func testEngine(maxDepth int) *engine.Engine {
	return engine.New(Routines(), text.NewMonoShaper(), text.NewDictionaries(), maxDepth)
}

// gapless 去掉块上下的默认间距。
func gapless(props ...style.Property) style.Chain {
	zero := layout.Custom(layout.RelSpacing(layout.Rel{}))
	base := []style.Property{
		style.FontSize.Set(10),
		style.BlockAbove.Set(zero),
		style.BlockBelow.Set(zero),
	}
	return style.New(append(base, props...)...)
}

// solid 填满给定区域。
func solid(loc layout.Locator, styles style.Chain, region layout.Region) (layout.Frame, error) {
	f := layout.NewSoftFrame(region.Size)
	f.Push(layout.Point{}, layout.ShapeItem{Size: region.Size})
	return f, nil
}

func sized(h layout.Sizing, styles style.Chain) element.Pair {
	return element.Pair{
		Elem: element.Block{
			Height: h,
			Body:   element.BlockBody{Kind: element.BodySingle, Single: solid},
		},
		Styles: styles,
	}
}

// fixed 是高度为 h 的不可拆分实心块。
func fixed(h layout.Abs, props ...style.Property) element.Pair {
	props = append([]style.Property{style.BlockBreakable.Set(false)}, props...)
	return sized(layout.Sizing{Kind: layout.SizingRel, Rel: layout.AbsRel(h)}, gapless(props...))
}

func pair(e element.Element) element.Pair {
	return element.Pair{Elem: e, Styles: gapless()}
}

type box struct{ X, Y, H layout.Abs }

// boxes 列出帧中所有矩形的绝对位置与高度。
func boxes(f layout.Frame) []box {
	var out []box
	walk(&f, layout.Point{}, &out)
	return out
}

func walk(f *layout.Frame, origin layout.Point, out *[]box) {
	for _, it := range f.Items() {
		pos := origin.Add(it.Pos)
		switch v := it.Item.(type) {
		case layout.GroupItem:
			walk(&v.Frame, pos, out)
		case layout.ShapeItem:
			*out = append(*out, box{X: pos.X, Y: pos.Y, H: v.Size.Y})
		}
	}
}

func page(w, h layout.Abs) layout.Regions {
	return layout.RepeatRegion(layout.Size{X: w, Y: h}, layout.Splat(true))
}

func line(h, need layout.Abs) *flow.LineChild {
	f := layout.NewSoftFrame(layout.Size{X: 80, Y: h})
	f.Push(layout.Point{}, layout.ShapeItem{Size: layout.Size{X: 80, Y: h}})
	return &flow.LineChild{Frame: f, Need: need}
}

func TestBlocksOverflowToNextRegion(t *testing.T) {
	eng := testEngine(0)
	content := []element.Pair{fixed(60), fixed(60), fixed(60)}
	pages, err := Paginate(eng, content, style.Chain{}, page(100, 100))
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for i := range pages {
		if pages[i].Size() != (layout.Size{X: 100, Y: 100}) {
			t.Fatalf("第 %d 页尺寸错误: %+v", i, pages[i].Size())
		}
		if diff := cmp.Diff([]box{{X: 0, Y: 0, H: 60}}, boxes(pages[i])); diff != "" {
			t.Fatalf("第 %d 页内容不符 (-want +got):\n%s", i, diff)
		}
	}
}

func TestWeakSpacingCollapses(t *testing.T) {
	eng := testEngine(0)
	content := []element.Pair{
		fixed(20),
		pair(element.V{Amount: layout.RelSpacing(layout.AbsRel(10)), Weak: true}),
		pair(element.V{Amount: layout.RelSpacing(layout.AbsRel(15)), Weak: true}),
		fixed(20),
	}
	regions := layout.OneRegion(layout.Size{X: 100, Y: 200}, layout.Splat(false))
	frames, err := LayoutFragment(eng, content, layout.RootLocator(), style.Chain{}, regions)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, layout.Abs(55), frames[0].Height())
	assert.Equal(t, []box{{Y: 0, H: 20}, {Y: 35, H: 20}}, boxes(frames[0]))
}

func TestStrongSpacingKeepsBoth(t *testing.T) {
	eng := testEngine(0)
	content := []element.Pair{
		fixed(20),
		pair(element.V{Amount: layout.RelSpacing(layout.AbsRel(10))}),
		pair(element.V{Amount: layout.RelSpacing(layout.AbsRel(15))}),
		fixed(20),
	}
	regions := layout.OneRegion(layout.Size{X: 100, Y: 200}, layout.Splat(false))
	frames, err := LayoutFragment(eng, content, layout.RootLocator(), style.Chain{}, regions)
	require.NoError(t, err)
	assert.Equal(t, []box{{Y: 0, H: 20}, {Y: 45, H: 20}}, boxes(frames[0]))
}

func TestFractionalBlocksShareRemaining(t *testing.T) {
	eng := testEngine(0)
	fr := func(v layout.Fr) element.Pair {
		return sized(layout.Sizing{Kind: layout.SizingFr, Fr: v}, gapless())
	}
	content := []element.Pair{fr(1), fr(2), fr(1)}
	regions := layout.OneRegion(layout.Size{X: 100, Y: 400}, layout.Splat(true))
	frames, err := LayoutFragment(eng, content, layout.RootLocator(), style.Chain{}, regions)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	want := []box{{Y: 0, H: 100}, {Y: 100, H: 200}, {Y: 300, H: 100}}
	if diff := cmp.Diff(want, boxes(frames[0])); diff != "" {
		t.Fatalf("分数块分配错误 (-want +got):\n%s", diff)
	}
}

func TestFractionalSpacingPushesToBottom(t *testing.T) {
	eng := testEngine(0)
	content := []element.Pair{
		fixed(20),
		pair(element.V{Amount: layout.FrSpacing(1)}),
		fixed(20),
	}
	regions := layout.OneRegion(layout.Size{X: 100, Y: 100}, layout.Splat(false))
	frames, err := LayoutFragment(eng, content, layout.RootLocator(), style.Chain{}, regions)
	require.NoError(t, err)
	// 有分数间距时区域高度用满
	assert.Equal(t, layout.Abs(100), frames[0].Height())
	assert.Equal(t, []box{{Y: 0, H: 20}, {Y: 80, H: 20}}, boxes(frames[0]))
}

func TestColbreak(t *testing.T) {
	eng := testEngine(0)
	content := []element.Pair{fixed(10), pair(element.Colbreak{}), fixed(10)}
	frames, err := LayoutFragment(eng, content, layout.RootLocator(), style.Chain{}, page(100, 100))
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, []box{{Y: 0, H: 10}}, boxes(frames[1]))

	// 区域开头的弱分栏符不起作用
	content = []element.Pair{pair(element.Colbreak{Weak: true}), fixed(10)}
	frames, err = LayoutFragment(eng, content, layout.RootLocator(), style.Chain{}, page(100, 100))
	require.NoError(t, err)
	assert.Len(t, frames, 1)
}

func TestOrphanLineMigrates(t *testing.T) {
	eng := testEngine(0)
	children := []flow.Child{
		flow.Rel{Amount: layout.AbsRel(30)},
		line(10, 25),
		flow.Rel{Amount: layout.AbsRel(5), Weakness: 5},
		line(10, 10),
		flow.Rel{Amount: layout.AbsRel(5), Weakness: 5},
		line(10, 10),
	}
	frames, err := fill(eng, children, page(100, 50))
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Empty(t, boxes(frames[0]))
	assert.Equal(t, []box{{Y: 0, H: 10}, {Y: 15, H: 10}, {Y: 30, H: 10}}, boxes(frames[1]))
}

func TestLineOverflow(t *testing.T) {
	eng := testEngine(0)
	var children []flow.Child
	for i := range 5 {
		if i > 0 {
			children = append(children, flow.Rel{Amount: layout.AbsRel(5), Weakness: 5})
		}
		children = append(children, line(10, 10))
	}
	frames, err := fill(eng, children, page(100, 30))
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Len(t, boxes(frames[0]), 2)
	assert.Len(t, boxes(frames[1]), 2)
	// 第二个区域末尾的行距被去掉，最后一行单独成区
	assert.Equal(t, []box{{Y: 0, H: 10}}, boxes(frames[2]))
}

func TestTagsMoveWithContent(t *testing.T) {
	eng := testEngine(0)
	tag := layout.StartTag("heading", 3, 1)
	children := []flow.Child{
		line(10, 10),
		flow.Tag{Tag: tag},
		line(10, 10),
	}
	frames, err := fill(eng, children, page(100, 15))
	require.NoError(t, err)
	require.Len(t, frames, 2)
	items := frames[1].Items()
	require.NotEmpty(t, items)
	ti, ok := items[0].Item.(layout.TagItem)
	if !ok {
		t.Fatalf("第二个区域应以标签开头，实际为 %T", items[0].Item)
	}
	assert.Equal(t, tag, ti.Tag)
}

func TestBreakableBlockSpills(t *testing.T) {
	eng := testEngine(0)
	inner := []element.Pair{fixed(40), fixed(40), fixed(40)}
	content := []element.Pair{{
		Elem:   element.Block{Body: element.BlockBody{Kind: element.BodyContent, Content: inner}},
		Styles: gapless(),
	}}
	pages, err := Paginate(eng, content, style.Chain{}, page(100, 100))
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, []box{{Y: 0, H: 40}, {Y: 40, H: 40}}, boxes(pages[0]))
	assert.Equal(t, []box{{Y: 0, H: 40}}, boxes(pages[1]))
}

func TestStickyBlockMovesWithNext(t *testing.T) {
	eng := testEngine(0)
	content := []element.Pair{
		fixed(60),
		fixed(20, style.BlockSticky.Set(true)),
		fixed(30),
	}
	pages, err := Paginate(eng, content, style.Chain{}, page(100, 100))
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, []box{{Y: 0, H: 60}}, boxes(pages[0]))
	assert.Equal(t, []box{{Y: 0, H: 20}, {Y: 20, H: 30}}, boxes(pages[1]))
}

func TestBottomFloat(t *testing.T) {
	eng := testEngine(0)
	body := []element.Pair{{
		Elem: element.Block{
			Width:  layout.Sizing{Kind: layout.SizingRel, Rel: layout.AbsRel(30)},
			Height: layout.Sizing{Kind: layout.SizingRel, Rel: layout.AbsRel(20)},
			Body:   element.BlockBody{Kind: element.BodySingle, Single: solid},
		},
		Styles: gapless(style.BlockBreakable.Set(false)),
	}}
	content := []element.Pair{
		fixed(30),
		pair(element.Place{
			Alignment: layout.Custom(layout.Align{X: layout.HAlignCenter, Y: layout.VAlignBottom}),
			Float:     true,
			Clearance: style.Pt(5),
			Body:      body,
		}),
		fixed(30),
	}
	pages, err := Paginate(eng, content, style.Chain{}, page(100, 100))
	require.NoError(t, err)
	require.Len(t, pages, 1)
	want := []box{{X: 0, Y: 0, H: 30}, {X: 0, Y: 30, H: 30}, {X: 35, Y: 80, H: 20}}
	if diff := cmp.Diff(want, boxes(pages[0])); diff != "" {
		t.Fatalf("浮动元素位置错误 (-want +got):\n%s", diff)
	}
}

func TestPagebreaks(t *testing.T) {
	eng := testEngine(0)
	content := []element.Pair{
		fixed(10),
		pair(element.Pagebreak{}),
		pair(element.Pagebreak{Weak: true}),
		fixed(10),
	}
	pages, err := Paginate(eng, content, style.Chain{}, page(100, 100))
	require.NoError(t, err)
	assert.Len(t, pages, 2)

	content = []element.Pair{pair(element.Pagebreak{Weak: true}), fixed(10)}
	pages, err = Paginate(eng, content, style.Chain{}, page(100, 100))
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}

func TestInfiniteExpansion(t *testing.T) {
	eng := testEngine(0)
	inf := layout.Inf()
	cases := []struct {
		size layout.Size
		msg  string
	}{
		{layout.Size{X: inf, Y: 100}, "cannot expand into infinite width"},
		{layout.Size{X: 100, Y: inf}, "cannot expand into infinite height"},
	}
	for _, c := range cases {
		regions := layout.OneRegion(c.size, layout.Splat(true))
		_, err := LayoutFragment(eng, []element.Pair{fixed(10)}, layout.RootLocator(), style.Chain{}, regions)
		var se *layout.SourceError
		if !errors.As(err, &se) {
			t.Fatalf("期望 SourceError，实际为 %v", err)
		}
		assert.Equal(t, c.msg, se.Message)
	}
}

func TestLayoutDepthExceeded(t *testing.T) {
	eng := testEngine(1)
	nest := func(body []element.Pair) []element.Pair {
		return []element.Pair{{
			Elem:   element.Block{Body: element.BlockBody{Kind: element.BodyContent, Content: body}},
			Styles: gapless(),
		}}
	}
	content := nest(nest(nil))
	regions := layout.OneRegion(layout.Size{X: 100, Y: 100}, layout.Splat(false))
	_, err := LayoutFragment(eng, content, layout.RootLocator(), style.Chain{}, regions)
	var se *layout.SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "maximum layout depth exceeded", se.Message)
}

func TestPlacedAlignsWithinRegion(t *testing.T) {
	eng := testEngine(0)
	body := []element.Pair{{
		Elem: element.Block{
			Width:  layout.Sizing{Kind: layout.SizingRel, Rel: layout.AbsRel(20)},
			Height: layout.Sizing{Kind: layout.SizingRel, Rel: layout.AbsRel(10)},
			Body:   element.BlockBody{Kind: element.BodySingle, Single: solid},
		},
		Styles: gapless(style.BlockBreakable.Set(false)),
	}}
	content := []element.Pair{
		pair(element.Place{
			Alignment: layout.Custom(layout.Align{X: layout.HAlignRight, Y: layout.VAlignTop}),
			Body:      body,
		}),
	}
	regions := layout.OneRegion(layout.Size{X: 100, Y: 100}, layout.Splat(true))
	frames, err := LayoutFragment(eng, content, layout.RootLocator(), style.Chain{}, regions)
	require.NoError(t, err)
	assert.Equal(t, []box{{X: 80, Y: 0, H: 10}}, boxes(frames[0]))
}

func TestRebaseNestsParagraphChildren(t *testing.T) {
	outer := style.New(style.FontSize.Set(12))
	local := style.New(style.Justify.Set(true))
	content := []element.Pair{{
		Elem:   element.Par{Children: []element.Pair{{Elem: element.Text{Text: "x"}, Styles: style.New(style.Lang.Set("de"))}}},
		Styles: local,
	}}
	out := rebase(content, outer)
	par := out[0].Elem.(element.Par)
	child := par.Children[0].Styles
	assert.Equal(t, layout.Abs(12), style.Get(child, style.FontSize))
	assert.True(t, style.Get(child, style.Justify))
	assert.Equal(t, "de", style.Get(child, style.Lang))
	assert.True(t, style.Get(content[0].Styles, style.Justify))
}

func TestModeOf(t *testing.T) {
	inline := []element.Pair{pair(element.Text{Text: "a"}), pair(element.Space{})}
	assert.Equal(t, flow.ModeInline, modeOf(inline))
	assert.Equal(t, flow.ModeBlock, modeOf(append(inline, fixed(10))))
	assert.Equal(t, flow.ModeBlock, modeOf([]element.Pair{pair(element.Tag{})}))
}
