package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
)

func TestDefaultRegions(t *testing.T) {
	regions, margin, err := Default().Regions()
	require.NoError(t, err)
	m := layout.Abs(25 * layout.MmToPt)
	assert.InDelta(t, float64(m), float64(margin.Left), 1e-6)
	assert.InDelta(t, float64(210*layout.MmToPt)-2*float64(m), float64(regions.Size.X), 1e-6)
	assert.InDelta(t, float64(297*layout.MmToPt)-2*float64(m), float64(regions.Size.Y), 1e-6)
	require.NotNil(t, regions.Last)
	assert.Equal(t, regions.Size.Y, *regions.Last)
	assert.True(t, regions.Expand.X && regions.Expand.Y)
}

func TestDecodeOverrides(t *testing.T) {
	src := `
[page]
width = "300pt"
height = "400pt"
margin = "50pt"
backlog = ["100pt", "120pt"]

[text]
size = "10pt"
justify = true
linebreaks = "simple"

[limits]
max-depth = 8
`
	cfg, err := Decode(strings.NewReader(src))
	require.NoError(t, err)

	regions, _, err := cfg.Regions()
	require.NoError(t, err)
	assert.Equal(t, layout.Size{X: 200, Y: 300}, regions.Size)
	assert.Equal(t, []layout.Abs{100, 120}, regions.Backlog)
	assert.Equal(t, 8, cfg.MaxDepth())

	styles, err := cfg.Styles()
	require.NoError(t, err)
	assert.Equal(t, layout.Abs(10), style.Get(styles, style.FontSize))
	assert.True(t, style.Get(styles, style.Justify))
	assert.Equal(t, style.LinebreaksSimple, style.Get(styles, style.Linebreaking))
	// 未出现的字段保留默认值
	assert.Equal(t, "Go", style.Get(styles, style.Font))
}

func TestInvalidLength(t *testing.T) {
	cfg := Default()
	cfg.Page.Margin = "2em"
	_, _, err := cfg.Regions()
	if !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("相对长度不能作为页边距，实际错误: %v", err)
	}
}

func TestSampleDecodes(t *testing.T) {
	cfg, err := Decode(strings.NewReader(Sample()))
	require.NoError(t, err)
	assert.Equal(t, "builtin:Go", cfg.Fonts["Go"])
	assert.Equal(t, layout.MaxLayoutDepth, cfg.MaxDepth())
}
