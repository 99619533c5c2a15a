package pager

import (
	"errors"
	"maps"
	"slices"

	"github.com/ByLCY/quire/flow"
	"github.com/ByLCY/quire/layout"
)

// work 是尚未排入区域的内容。回退时整体复制，切片在复制时克隆。
type work struct {
	children []flow.Child
	spill    *flow.MultiSpill
	floats   []*flow.PlacedChild
	tags     []layout.Tag
	skips    map[layout.Location]struct{}
}

func newWork(children []flow.Child) *work {
	return &work{children: children, skips: map[layout.Location]struct{}{}}
}

func (w *work) clone() work {
	out := *w
	out.floats = slices.Clone(w.floats)
	out.tags = slices.Clone(w.tags)
	return out
}

func (w *work) head() (flow.Child, bool) {
	if len(w.children) == 0 {
		return nil, false
	}
	return w.children[0], true
}

func (w *work) advance() { w.children = w.children[1:] }

func (w *work) done() bool {
	return len(w.children) == 0 && w.spill == nil && len(w.floats) == 0
}

// extendSkips 记录已经放置过的浮动元素。skips 被快照共享，写入前先复制。
func (w *work) extendSkips(locs []layout.Location) {
	if len(locs) == 0 {
		return
	}
	skips := maps.Clone(w.skips)
	if skips == nil {
		skips = map[layout.Location]struct{}{}
	}
	for _, l := range locs {
		skips[l] = struct{}{}
	}
	w.skips = skips
}

// finish 要求结束当前区域，forced 为 true 表示由分栏符触发。
type finish struct{ forced bool }

func (finish) Error() string { return "pager: finish region" }

// errRelayout 表示放入了新的浮动元素，当前区域需要从快照重新排。
var errRelayout = errors.New("pager: relayout region")

func stopFinish(forced bool) error { return finish{forced: forced} }

func asFinish(err error) (bool, bool) {
	var f finish
	if errors.As(err, &f) {
		return f.forced, true
	}
	return false, false
}
