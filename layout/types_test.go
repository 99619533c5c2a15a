package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFlattenPageSplitsWords(t *testing.T) {
	text := TextItem{
		Font: "Body",
		Size: 10,
		Fill: Black,
		Text: "ab cd",
		Glyphs: []Glyph{
			{XAdvance: 0.5, Range: [2]int{0, 1}},
			{XAdvance: 0.5, Range: [2]int{1, 2}},
			{XAdvance: 1.0, Range: [2]int{2, 3}}, // 被拉伸的空格
			{XAdvance: 0.5, Range: [2]int{3, 4}},
			{XAdvance: 0.5, Range: [2]int{4, 5}},
		},
	}
	line := NewSoftFrame(Size{X: 100, Y: 10})
	line.Push(Point{X: 0, Y: 8}, text)
	page := NewHardFrame(Size{X: 100, Y: 100})
	page.PushFrame(Point{X: 0, Y: 20}, line)

	got := FlattenPage(page, Sides[Abs]{Left: 10, Top: 10, Right: 10, Bottom: 10})
	want := []TextBox{
		{Content: "ab", X: 10, Y: 38, Width: 10, Font: "Body", FontSize: 10, Color: Black},
		{Content: "cd", X: 30, Y: 38, Width: 10, Font: "Body", FontSize: 10, Color: Black},
	}
	if diff := cmp.Diff(want, got.Texts); diff != "" {
		t.Fatalf("展开结果不符 (-want +got):\n%s", diff)
	}
	if got.Width != 120 || got.Height != 120 {
		t.Fatalf("页面尺寸错误：%vx%v", got.Width, got.Height)
	}
}

func TestFlattenPageShapesAndTags(t *testing.T) {
	fill := Color{R: 255, A: 255}
	inner := NewHardFrame(Size{X: 20, Y: 20})
	inner.FillAndStroke(&fill, &Stroke{Paint: Black, Thickness: 1})
	inner.Push(Point{X: 1, Y: 1}, TagItem{Tag: StartTag("block", 7, 0)})
	page := NewHardFrame(Size{X: 50, Y: 50})
	page.PushFrame(Point{X: 5, Y: 5}, inner)

	got := FlattenPage(page, Sides[Abs]{})
	if len(got.Rects) != 1 || got.Rects[0].X != 5 || got.Rects[0].StrokeWidth != 1 {
		t.Fatalf("矩形展开错误：%+v", got.Rects)
	}
	if len(got.Markers) != 1 || !got.Markers[0].Start || got.Markers[0].X != 6 {
		t.Fatalf("标签展开错误：%+v", got.Markers)
	}
}
