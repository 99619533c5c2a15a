package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
)

func tenPt() style.Chain { return style.New(style.FontSize.Set(10)) }

func TestShapeMonoMetrics(t *testing.T) {
	sh := NewMonoShaper()
	st := Shape(sh, 0, "ab cd", tenPt(), layout.DirLTR, "en", "")
	require.Len(t, st.Glyphs, 5)
	assert.InDelta(t, 25, float64(st.Width()), 1e-9)
	assert.Equal(t, 1, st.Justifiables())
	assert.InDelta(t, 2.5, float64(st.Stretchability()), 1e-9)
	assert.InDelta(t, 5.0/3, float64(st.Shrinkability()), 1e-9)
	top, bottom := st.Measure()
	assert.InDelta(t, 8, float64(top), 1e-9)
	assert.InDelta(t, 2, float64(bottom), 1e-9)
	assert.Equal(t, 1, sh.Calls())
}

func TestReshapeReusesSafeSlices(t *testing.T) {
	sh := NewMonoShaper()
	st := Shape(sh, 10, "ab cd", tenPt(), layout.DirLTR, "en", "")
	sub := st.Reshape(sh, 13, 15)
	if sh.Calls() != 1 {
		t.Fatalf("安全断点处切片不应重新塑形，调用次数 %d", sh.Calls())
	}
	assert.Equal(t, "cd", sub.Text)
	assert.Equal(t, 13, sub.Base)
	require.Len(t, sub.Glyphs, 2)
	assert.Equal(t, 'c', sub.Glyphs[0].C)
	assert.InDelta(t, 10, float64(sub.Width()), 1e-9)
}

func TestReshapeUnsafeBoundaryShapesAgain(t *testing.T) {
	sh := NewMonoShaper()
	st := Shape(sh, 0, "abcd", tenPt(), layout.DirLTR, "en", "")
	st.Glyphs[2].SafeToBreak = false
	sub := st.Reshape(sh, 0, 2)
	if sh.Calls() != 2 {
		t.Fatalf("不安全的断点应触发重新塑形，调用次数 %d", sh.Calls())
	}
	assert.Equal(t, "ab", sub.Text)
	assert.Len(t, sub.Glyphs, 2)
}

func TestReshapeBeforeNewline(t *testing.T) {
	sh := NewMonoShaper()
	st := Shape(sh, 0, "ab\ncd", tenPt(), layout.DirLTR, "en", "")
	require.Len(t, st.Glyphs, 4)
	first := st.Reshape(sh, 0, 2)
	second := st.Reshape(sh, 3, 5)
	assert.Equal(t, 1, sh.Calls())
	assert.Len(t, first.Glyphs, 2)
	assert.Equal(t, 'c', second.Glyphs[0].C)
}

func TestReshapeRTL(t *testing.T) {
	sh := NewMonoShaper()
	st := Shape(sh, 0, "abc", tenPt(), layout.DirRTL, "he", "")
	require.Equal(t, 'c', st.Glyphs[0].C, "RTL 字形按视觉顺序排列")
	sub := st.Reshape(sh, 1, 3)
	assert.Equal(t, 1, sh.Calls())
	require.Len(t, sub.Glyphs, 2)
	assert.Equal(t, 'c', sub.Glyphs[0].C)
	assert.Equal(t, 'b', sub.Glyphs[1].C)
}

func TestHyphenText(t *testing.T) {
	sh := NewMonoShaper()
	st := Shape(sh, 0, "ab", tenPt(), layout.DirLTR, "pl", "")
	h := Hyphen(sh, st, 2)
	require.NotNil(t, h)
	require.Len(t, h.Glyphs, 1)
	assert.Equal(t, '-', h.Glyphs[0].C)
	assert.Equal(t, 2, h.Glyphs[0].Start)
	assert.Equal(t, 2, h.Glyphs[0].End)
	assert.Equal(t, "pl", h.Lang)
	assert.InDelta(t, 5, float64(h.Width()), 1e-9)
	frame := h.Build(0, 0)
	assert.InDelta(t, 5, float64(frame.Width()), 1e-9)
}

func TestBuildJustified(t *testing.T) {
	sh := NewMonoShaper()
	st := Shape(sh, 0, "ab cd", tenPt(), layout.DirLTR, "en", "")

	stretched := st.Build(1, 0)
	assert.InDelta(t, 27.5, float64(stretched.Width()), 1e-9)
	assert.InDelta(t, 8, float64(stretched.Baseline()), 1e-9)

	shrunk := st.Build(-1, 0)
	assert.InDelta(t, 25-5.0/3, float64(shrunk.Width()), 1e-9)

	extra := st.Build(0, 4)
	assert.InDelta(t, 29, float64(extra.Width()), 1e-9)
	items := extra.Items()
	require.Len(t, items, 1)
	text := items[0].Item.(layout.TextItem)
	assert.Equal(t, "ab cd", text.Text)
	assert.Equal(t, [2]int{2, 3}, text.Glyphs[2].Range)
}

func TestEmptyKeepsMetrics(t *testing.T) {
	sh := NewMonoShaper()
	st := Shape(sh, 4, "ab", tenPt(), layout.DirLTR, "en", "").Empty()
	assert.Empty(t, st.Glyphs)
	assert.Zero(t, st.Width())
	top, _ := st.Measure()
	assert.InDelta(t, 8, float64(top), 1e-9)
}

func TestConsecutivePunctuationCompression(t *testing.T) {
	sh := NewMonoShaper()
	gb := Shape(sh, 0, "。」", tenPt(), layout.DirLTR, "zh", "")
	require.Len(t, gb.Glyphs, 2)
	assert.InDelta(t, 15, float64(gb.Width()), 1e-9)
	assert.InDelta(t, 0.5, float64(gb.Glyphs[0].XAdvance), 1e-9)

	cns := Shape(sh, 0, "。」", tenPt(), layout.DirLTR, "zh", "TW")
	assert.InDelta(t, 20, float64(cns.Width()), 1e-9)
	assert.Equal(t, layout.Em(0.25), cns.Glyphs[0].Adjust.Shrink[0])
}
