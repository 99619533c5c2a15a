// Package inline 负责段落与行内内容的排版：收集子元素、塑形、断行，最后把每一行提交为帧。
package inline

import (
	"github.com/npillmayer/schuko/tracing"

	"github.com/ByLCY/quire/element"
	"github.com/ByLCY/quire/engine"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
)

func tracer() tracing.Trace { return tracing.Select("quire.inline") }

// LayoutPar 排版一个段落，每行一帧。
//
// region.X 是可用宽度；expand 为 true 时各行撑满 region.X。situation 决定首行缩进是否生效。
func LayoutPar(eng *engine.Engine, children []element.Pair, loc layout.Locator, shared style.Chain, region layout.Size, expand bool, situation ParSituation) (layout.Fragment, error) {
	return layoutInline(eng, children, loc.Split(), shared, region, expand, situation, true)
}

// LayoutInline 排版不属于段落的行内内容，例如块中直接放置的文字，不带缩进与行号。
// 子元素的位置从调用方的 locator 继续派生。
func LayoutInline(eng *engine.Engine, children []element.Pair, locator *layout.SplitLocator, shared style.Chain, region layout.Size, expand bool) (layout.Fragment, error) {
	return layoutInline(eng, children, locator, shared, region, expand, ParOther, false)
}

func layoutInline(eng *engine.Engine, children []element.Pair, locator *layout.SplitLocator, shared style.Chain, region layout.Size, expand bool, situation ParSituation, isPar bool) (layout.Fragment, error) {
	config := configuration(shared, children, situation, isPar)

	full, segments, err := collect(eng, children, locator, config, region)
	if err != nil {
		return nil, err
	}
	p := prepare(eng, config, full, segments)
	lines := linebreak(eng, p, region.X-config.HangingIndent)
	tracer().Debugf("inline: %d bytes, %d items, %d lines", len(full), len(p.Items), len(lines))
	return finalize(eng, p, lines, region, expand, locator)
}
