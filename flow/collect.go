package flow

import (
	"github.com/ByLCY/quire/element"
	"github.com/ByLCY/quire/engine"
	"github.com/ByLCY/quire/inline"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
)

// Collect 把 children 转换成 Child 序列，顺序与文档一致。
//
// base 是区域宽度与完整高度，段落按 base.X 断行；expand 决定段落是否撑满宽度。
// 大块 Child 分配在 arena 中。
func Collect(eng *engine.Engine, arena *Arena, children []element.Pair, loc layout.Locator, base layout.Size, expand bool, mode Mode) ([]Child, error) {
	c := &collector{
		eng:       eng,
		arena:     arena,
		children:  children,
		base:      base,
		expand:    expand,
		locator:   loc.Split(),
		situation: inline.ParFirst,
	}
	var err error
	if mode == ModeInline {
		err = c.runInline()
	} else {
		err = c.runBlock()
	}
	if err != nil {
		return nil, err
	}
	tracer().P("mode", mode).Debugf("collected %d children from %d elements", len(c.output), len(children))
	return c.output, nil
}

type collector struct {
	eng       *engine.Engine
	arena     *Arena
	children  []element.Pair
	base      layout.Size
	expand    bool
	locator   *layout.SplitLocator
	output    []Child
	situation inline.ParSituation
}

func (c *collector) runBlock() error {
	for _, pair := range c.children {
		styles := pair.Styles
		switch elem := pair.Elem.(type) {
		case element.Tag:
			c.output = append(c.output, Tag{Tag: elem.Tag})
		case element.V:
			c.v(elem)
		case element.Par:
			if err := c.par(elem, styles); err != nil {
				return err
			}
		case element.Block:
			c.block(elem, styles)
		case element.Place:
			if err := c.place(elem, styles); err != nil {
				return err
			}
		case element.Flush:
			c.output = append(c.output, Flush{})
		case element.Colbreak:
			c.output = append(c.output, Break{Weak: elem.Weak})
		case element.Pagebreak:
			return layout.Bail(elem.Span(), "pagebreaks are not allowed inside of containers",
				"try using a `colbreak` instead")
		default:
			c.eng.Warn(pair.Span(), pair.Elem.Name()+" was ignored during paged export")
		}
	}
	return nil
}

// runInline 把全部内容当作一段排版，首尾的标签留在行外。
func (c *collector) runInline() error {
	start, end := 0, len(c.children)
	for start < end && isTag(c.children[start]) {
		start++
	}
	for end > start && isTag(c.children[end-1]) {
		end--
	}
	inner := c.children[start:end]

	chains := make([]style.Chain, len(inner))
	for i, p := range inner {
		chains[i] = p.Styles
	}
	styles := style.Trunk(chains)

	lines, err := inline.LayoutInline(c.eng, inner, c.locator, styles, c.base, c.expand)
	if err != nil {
		return err
	}
	for _, p := range c.children[:start] {
		c.output = append(c.output, Tag{Tag: p.Elem.(element.Tag).Tag})
	}
	c.lines(lines, styles)
	for _, p := range c.children[end:] {
		c.output = append(c.output, Tag{Tag: p.Elem.(element.Tag).Tag})
	}
	return nil
}

func isTag(p element.Pair) bool {
	_, ok := p.Elem.(element.Tag)
	return ok
}

func (c *collector) v(elem element.V) {
	if elem.Amount.IsFr {
		c.output = append(c.output, Fr{Amount: elem.Amount.Fr})
		return
	}
	var weakness uint8
	if elem.Weak {
		weakness = 1
	}
	c.output = append(c.output, Rel{Amount: elem.Amount.Rel, Weakness: weakness})
}

func (c *collector) par(elem element.Par, styles style.Chain) error {
	loc := c.locator.Next(elemKey(elem))
	lines, err := inline.LayoutPar(c.eng, elem.Children, loc, styles, c.base, c.expand, c.situation)
	if err != nil {
		return err
	}
	spacing := layout.AbsRel(style.Get(styles, style.ParSpacing).Resolve(styles))
	c.output = append(c.output, Rel{Amount: spacing, Weakness: 4})
	c.lines(lines, styles)
	c.output = append(c.output, Rel{Amount: spacing, Weakness: 4})
	c.situation = inline.ParConsecutive
	return nil
}

// lines 输出段落的各行，行间插入行距，并在首尾行上记录避免寡行孤行所需的高度。
func (c *collector) lines(lines layout.Fragment, styles style.Chain) {
	align := resolveAlign(styles)
	leading := style.Get(styles, style.Leading).Resolve(styles)
	costs := style.GetFolded(styles, style.TextCosts)

	n := len(lines)
	preventOrphans := costs.OrphanCost() > 0 && n >= 2 && !lines[1].IsEmpty()
	preventWidows := costs.WidowCost() > 0 && n >= 2 && !lines[n-2].IsEmpty()
	preventAll := n == 3 && preventOrphans && preventWidows

	heightAt := func(i int) layout.Abs {
		if i < 0 || i >= n {
			return 0
		}
		return lines[i].Height()
	}
	front1, front2 := heightAt(0), heightAt(1)
	back2, back1 := heightAt(max(n-2, 0)), heightAt(max(n-1, 0))

	for i, frame := range lines {
		if i > 0 {
			c.output = append(c.output, Rel{Amount: layout.AbsRel(leading), Weakness: 5})
		}
		var need layout.Abs
		switch {
		case preventAll && i == 0:
			need = front1 + leading + front2 + leading + back1
		case preventOrphans && i == 0:
			need = front1 + leading + front2
		case preventWidows && i >= 2 && i+2 == n:
			need = back2 + leading + back1
		default:
			need = frame.Height()
		}
		line := c.arena.lines.alloc()
		line.Frame = frame
		line.Align = align
		line.Need = need
		c.output = append(c.output, line)
	}
}

func (c *collector) block(elem element.Block, styles style.Chain) {
	loc := c.locator.Next(elemKey(elem))
	align := resolveAlign(styles)
	alone := len(c.children) == 1
	sticky := style.Get(styles, style.BlockSticky)
	breakable := style.Get(styles, style.BlockBreakable)

	var fr *layout.Fr
	if elem.Height.Kind == layout.SizingFr {
		v := elem.Height.Fr
		fr = &v
	}

	fallback := layout.AbsRel(style.Get(styles, style.ParSpacing).Resolve(styles))
	spacing := func(amount layout.Smart[layout.Spacing]) Child {
		switch {
		case !amount.Custom:
			return Rel{Amount: fallback, Weakness: 4}
		case amount.V.IsFr:
			return Fr{Amount: amount.V.Fr}
		default:
			return Rel{Amount: amount.V.Rel, Weakness: 3}
		}
	}

	c.output = append(c.output, spacing(style.Get(styles, style.BlockAbove)))
	if !breakable || fr != nil {
		s := c.arena.singles.alloc()
		s.Align = align
		s.Sticky = sticky
		s.Alone = alone
		s.Fr = fr
		s.elem = elem
		s.styles = styles
		s.locator = loc
		c.output = append(c.output, s)
	} else {
		m := c.arena.multis.alloc()
		m.Align = align
		m.Sticky = sticky
		m.Alone = alone
		m.elem = elem
		m.styles = styles
		m.locator = loc
		c.output = append(c.output, m)
	}
	c.output = append(c.output, spacing(style.Get(styles, style.BlockBelow)))
	c.situation = inline.ParOther
}

func (c *collector) place(elem element.Place, styles style.Chain) error {
	dir := style.ResolveDir(styles)
	alignX := layout.AlignCenter
	alignY := layout.Auto[*layout.FixedAlign]()
	if elem.Alignment.Custom {
		alignX = elem.Alignment.V.X.Resolve(dir)
		if y, ok := elem.Alignment.V.Y.Resolve(); ok {
			alignY = layout.Custom(&y)
		} else {
			alignY = layout.Custom[*layout.FixedAlign](nil)
		}
	}

	hint := "you can enable floating placement with `place(float: true, ..)`"
	switch {
	case elem.Float && alignY.Custom && (alignY.V == nil || *alignY.V == layout.AlignCenter):
		return layout.Bail(elem.Span(), "vertical floating placement must be `auto`, `top`, or `bottom`")
	case !elem.Float && !alignY.Custom:
		return layout.Bail(elem.Span(), "automatic positioning is only available for floating placement", hint)
	}
	if !elem.Float && elem.Scope == element.ScopeParent {
		return layout.Bail(elem.Span(), "parent-scoped positioning is currently only available for floating placement", hint)
	}

	p := c.arena.placed.alloc()
	p.AlignX = alignX
	p.AlignY = alignY
	p.Scope = elem.Scope
	p.Float = elem.Float
	p.Clearance = elem.Clearance.Resolve(styles)
	p.Delta = layout.Axes[layout.Rel]{X: elem.Dx, Y: elem.Dy}
	p.elem = elem
	p.styles = styles
	p.locator = c.locator.Next(elemKey(elem))
	p.alignment = elem.Alignment
	c.output = append(c.output, p)
	return nil
}

// resolveAlign 解析块与行的对齐，未指定的竖直方向视为顶端。
func resolveAlign(styles style.Chain) layout.Axes[layout.FixedAlign] {
	return style.Get(styles, style.Alignment).Resolve(style.ResolveDir(styles))
}

// elemKey 是元素在兄弟中的身份，用于派生位置。
func elemKey(e element.Element) [2]any {
	return [2]any{e.Name(), e.Span()}
}
