package style

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ByLCY/quire/layout"
)

func TestGetInnermostWins(t *testing.T) {
	outer := New(FontSize.Set(12), Lang.Set("de"))
	inner := outer.With(FontSize.Set(9))
	assert.Equal(t, layout.Abs(9), Get(inner, FontSize))
	assert.Equal(t, "de", Get(inner, Lang))
	assert.Equal(t, layout.Abs(12), Get(outer, FontSize), "外层链不应被修改")
	assert.Equal(t, false, Get(Chain{}, Justify))
}

func TestGetFoldedCosts(t *testing.T) {
	half := layout.Ratio(0.5)
	zero := layout.Ratio(0)
	c := New(TextCosts.Set(Costs{Widow: &half})).With(TextCosts.Set(Costs{Orphan: &zero}))
	costs := GetFolded(c, TextCosts)
	assert.Equal(t, layout.Ratio(0.5), costs.WidowCost())
	assert.Equal(t, layout.Ratio(0), costs.OrphanCost())
	assert.Equal(t, layout.Ratio(1), costs.HyphenationCost())
}

func TestHashFollowsContent(t *testing.T) {
	a := New(Justify.Set(true)).With(FontSize.Set(10))
	b := New(Justify.Set(true)).With(FontSize.Set(10))
	c := New(Justify.Set(false)).With(FontSize.Set(10))
	if a.Hash() != b.Hash() {
		t.Fatalf("内容相同的样式链哈希应一致")
	}
	if a.Hash() == c.Hash() {
		t.Fatalf("内容不同的样式链哈希应不同")
	}
}

func TestTrunk(t *testing.T) {
	root := New(Lang.Set("pl"))
	a := root.With(FontSize.Set(10))
	b := root.With(FontSize.Set(14))
	trunk := Trunk([]Chain{a, b})
	assert.Equal(t, root.Hash(), trunk.Hash())
	assert.Equal(t, "pl", Get(trunk, Lang))
	assert.Equal(t, FontSize.Default(), Get(trunk, FontSize))

	unrelated := New(Lang.Set("en"))
	assert.True(t, Trunk([]Chain{a, unrelated}).IsEmpty())
	assert.Equal(t, a.Hash(), Trunk([]Chain{a}).Hash())
}

func TestResolveHelpers(t *testing.T) {
	assert.Equal(t, layout.DirRTL, ResolveDir(New(Lang.Set("ar"))))
	assert.Equal(t, layout.DirLTR, ResolveDir(New(Lang.Set("ar"), Dir.Set(layout.Custom(layout.DirLTR)))))
	assert.True(t, ResolveHyphenate(New(Justify.Set(true))))
	assert.False(t, ResolveHyphenate(New(Justify.Set(true), Hyphenate.Set(layout.Custom(false)))))
	assert.Equal(t, layout.Abs(13), Ems(1.3).Resolve(New(FontSize.Set(10))))
}
