package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPunctStyleFor(t *testing.T) {
	cases := []struct {
		lang, region string
		want         CJKPunctStyle
	}{
		{"zh", "", PunctGB},
		{"zh", "TW", PunctCNS},
		{"zh", "HK", PunctCNS},
		{"ja", "", PunctJIS},
		{"en", "", PunctGB},
	}
	for _, c := range cases {
		if got := PunctStyleFor(c.lang, c.region); got != c.want {
			t.Fatalf("%s-%s 的标点规范应为 %d，实际为 %d", c.lang, c.region, c.want, got)
		}
	}
}

func TestGlyphClasses(t *testing.T) {
	space := Glyph{C: ' ', XAdvance: 0.5}
	assert.True(t, space.IsSpace())
	adj := space.BaseAdjustability(PunctGB)
	assert.Equal(t, [2]float64{0, 0.25}, [2]float64{float64(adj.Stretch[0]), float64(adj.Stretch[1])})

	open := Glyph{C: '（', XAdvance: 1}
	assert.True(t, open.IsCJKRightAligned())
	assert.True(t, open.IsCJKPunctuation())

	comma := Glyph{C: '，', XAdvance: 1}
	assert.True(t, comma.IsCJKLeftAligned(PunctJIS))
	assert.False(t, comma.IsCJKLeftAligned(PunctCNS))
	assert.True(t, comma.IsCJKCenterAligned(PunctCNS))

	assert.True(t, IsOfCJScript('字'))
	assert.True(t, IsOfCJScript('ー'))
	assert.False(t, IsOfCJScript('a'))
	assert.True(t, IsBeginPunct('《'))
	assert.True(t, IsEndPunct('！'))
	assert.True(t, IsDefaultIgnorable('\u00ad'))
	assert.True(t, IsDefaultIgnorable('\u200b'))
	assert.False(t, IsDefaultIgnorable('a'))
}

func TestShrinkSides(t *testing.T) {
	g := Glyph{C: '」', XAdvance: 1}
	g.Adjust = g.BaseAdjustability(PunctGB)
	g.ShrinkRight(0.5)
	assert.Equal(t, 0.5, float64(g.XAdvance))
	assert.Equal(t, 0.0, float64(g.Adjust.Shrink[1]))

	o := Glyph{C: '「', XAdvance: 1}
	o.Adjust = o.BaseAdjustability(PunctGB)
	o.ShrinkLeft(0.5)
	assert.Equal(t, -0.5, float64(o.XOffset))
	assert.Equal(t, 0.5, float64(o.XAdvance))
}
