// Package engine 汇集一次排版所需的外部协作者：塑形器、断字词典、诊断收集器、
// 嵌套深度计数器，以及由驱动层提供的嵌套排版例程。
package engine

import (
	"github.com/ByLCY/quire/element"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
	"github.com/ByLCY/quire/text"
)

// Routines 是内核回调驱动层的入口，用于排版块内嵌套的内容。
type Routines struct {
	LayoutFragment func(eng *Engine, content []element.Pair, loc layout.Locator, styles style.Chain, regions layout.Regions) (layout.Fragment, error)
	LayoutFrame    func(eng *Engine, content []element.Pair, loc layout.Locator, styles style.Chain, region layout.Region) (layout.Frame, error)
}

// Engine 在整条调用链上显式传递。
type Engine struct {
	Routines *Routines
	Shaper   text.Shaper
	Hyphens  *text.Dictionaries
	Sink     *layout.Sink
	Route    layout.Route
}

// New 创建引擎，sink 为空时新建一个。
func New(routines *Routines, shaper text.Shaper, hyphens *text.Dictionaries, maxDepth int) *Engine {
	return &Engine{
		Routines: routines,
		Shaper:   shaper,
		Hyphens:  hyphens,
		Sink:     &layout.Sink{},
		Route:    layout.NewRoute(maxDepth),
	}
}

// Nested 返回深度加一的引擎副本，超出深度上限时报错。
func (e *Engine) Nested(span layout.Span) (*Engine, error) {
	route, err := e.Route.Enter(span)
	if err != nil {
		return nil, err
	}
	out := *e
	out.Route = route
	return &out, nil
}

// Warn 记录一条警告。
func (e *Engine) Warn(span layout.Span, msg string, hints ...string) {
	if e.Sink == nil {
		return
	}
	e.Sink.Warn(layout.Warning{Span: span, Message: msg, Hints: hints})
}

// LayoutFragment 通过驱动层在区域序列上排版嵌套内容。
func (e *Engine) LayoutFragment(content []element.Pair, loc layout.Locator, styles style.Chain, regions layout.Regions) (layout.Fragment, error) {
	return e.Routines.LayoutFragment(e, content, loc, styles, regions)
}

// LayoutFrame 通过驱动层在单个区域内排版嵌套内容。
func (e *Engine) LayoutFrame(content []element.Pair, loc layout.Locator, styles style.Chain, region layout.Region) (layout.Frame, error) {
	return e.Routines.LayoutFrame(e, content, loc, styles, region)
}
