package pager

import (
	"github.com/ByLCY/quire/flow"
	"github.com/ByLCY/quire/layout"
)

// item 是已排好、尚未定位的区域内容。
type item interface{ isItem() }

type tagItem struct{ tag layout.Tag }

type absItem struct {
	amount   layout.Abs
	weakness uint8
}

// frItem 是分数间距或分数高度的块。
type frItem struct {
	fr     layout.Fr
	single *flow.SingleChild
}

type frameItem struct {
	frame layout.Frame
	align layout.Axes[layout.FixedAlign]
}

type placedItem struct {
	frame  layout.Frame
	placed *flow.PlacedChild
}

func (tagItem) isItem()    {}
func (absItem) isItem()    {}
func (frItem) isItem()     {}
func (frameItem) isItem()  {}
func (placedItem) isItem() {}

// migratable 判断区域只剩这类内容时是否应整体挪到下一个区域。
func migratable(it item) bool {
	switch v := it.(type) {
	case tagItem:
		return true
	case frameItem:
		if v.frame.Size() != (layout.Size{}) {
			return false
		}
		for _, p := range v.frame.Items() {
			if _, ok := p.Item.(layout.TagItem); !ok {
				return false
			}
		}
		return true
	case placedItem:
		return !v.placed.Float
	}
	return false
}

type snapshot struct {
	work  work
	items int
}

// distributor 把尽可能多的内容放进第一个区域。
type distributor struct {
	c       *composer
	regions layout.Regions
	items   []item
	// sticky 非空时可以回退到这里，把末尾连续的 sticky 块挪到下一个区域。
	sticky *snapshot
	// stickable 在处理一组 sticky 块时记录它们是否还能挪动，区域顶部的 sticky 块挪动没有意义。
	stickable *bool
}

func distribute(c *composer, regions layout.Regions) (layout.Frame, error) {
	d := &distributor{c: c, regions: regions}
	init := d.snapshot()

	var forced bool
	if err := d.run(); err == nil {
		forced = d.c.work.done()
	} else if f, ok := asFinish(err); ok {
		forced = f
	} else {
		return layout.Frame{}, err
	}
	return d.finalize(layout.NewRegion(regions.Size, regions.Expand), init, forced)
}

func (d *distributor) run() error {
	if spill := d.c.work.spill; spill != nil {
		d.c.work.spill = nil
		if err := d.multiSpill(spill); err != nil {
			return err
		}
	}
	for {
		child, ok := d.c.work.head()
		if !ok {
			return nil
		}
		if err := d.child(child); err != nil {
			return err
		}
		d.c.work.advance()
	}
}

func (d *distributor) child(child flow.Child) error {
	switch v := child.(type) {
	case flow.Tag:
		d.c.work.tags = append(d.c.work.tags, v.Tag)
	case flow.Rel:
		d.rel(v.Amount, v.Weakness)
	case flow.Fr:
		d.fr(v.Amount)
	case *flow.LineChild:
		return d.line(v)
	case *flow.SingleChild:
		return d.single(v)
	case *flow.MultiChild:
		return d.multi(v)
	case *flow.PlacedChild:
		return d.placed(v)
	case flow.Flush:
		if len(d.c.work.floats) > 0 {
			return stopFinish(false)
		}
	case flow.Break:
		return d.breakRegion(v.Weak)
	}
	return nil
}

func (d *distributor) flushTags() {
	for _, t := range d.c.work.tags {
		d.items = append(d.items, tagItem{tag: t})
	}
	d.c.work.tags = nil
}

func (d *distributor) rel(amount layout.Rel, weakness uint8) {
	v := amount.RelativeTo(d.regions.Base().Y)
	if weakness > 0 && !d.keepWeakRelSpacing(v, weakness) {
		return
	}
	d.regions.Size.Y -= v
	d.items = append(d.items, absItem{amount: v, weakness: weakness})
}

func (d *distributor) fr(fr layout.Fr) {
	// 强分数间距会吞掉之前的弱间距
	d.trimSpacing()
	d.items = append(d.items, frItem{fr: fr})
}

// keepWeakRelSpacing 判断是否保留弱间距。前面已有弱间距时两者合并为一个，
// 保留更强（weakness 更小）或同等强度下更大的那个。
func (d *distributor) keepWeakRelSpacing(amount layout.Abs, weakness uint8) bool {
	for i := len(d.items) - 1; i >= 0; i-- {
		switch v := d.items[i].(type) {
		case absItem:
			if v.weakness == 0 {
				continue
			}
			if weakness <= v.weakness && (weakness < v.weakness || amount > v.amount) {
				d.regions.Size.Y -= amount - v.amount
				d.items[i] = absItem{amount: amount, weakness: weakness}
			}
			return false
		case tagItem, placedItem:
		case frItem:
			// 分数块撑得住间距，分数间距则会吞掉它
			return v.single != nil
		case frameItem:
			return true
		}
	}
	return false
}

// trimSpacing 去掉末尾的弱间距。
func (d *distributor) trimSpacing() {
	for i := len(d.items) - 1; i >= 0; i-- {
		switch v := d.items[i].(type) {
		case absItem:
			if v.weakness > 0 {
				d.regions.Size.Y += v.amount
				d.items = append(d.items[:i], d.items[i+1:]...)
				return
			}
		case frItem, frameItem:
			return
		}
	}
}

// weakSpacing 返回末尾弱间距的大小。
func (d *distributor) weakSpacing() layout.Abs {
	for i := len(d.items) - 1; i >= 0; i-- {
		switch v := d.items[i].(type) {
		case absItem:
			if v.weakness > 0 {
				return v.amount
			}
		case frameItem, frItem:
			return 0
		}
	}
	return 0
}

// nextFits 判断下一个区域能否容纳 need。
func (d *distributor) nextFits(need layout.Abs) bool {
	switch {
	case len(d.regions.Backlog) > 0:
		return d.regions.Backlog[0].Fits(need)
	case d.regions.Last != nil:
		return d.regions.Last.Fits(need)
	}
	return false
}

func (d *distributor) line(line *flow.LineChild) error {
	// 放不下而且换到下一个区域有用时结束当前区域
	if !d.regions.Size.Y.Fits(line.Frame.Height()) && d.regions.MayProgress() {
		return stopFinish(false)
	}
	// 为避免寡行孤行需要的高度在这里放不下，但下一个区域放得下
	if !d.regions.Size.Y.Fits(line.Need) && d.nextFits(line.Need) {
		return stopFinish(false)
	}
	d.frame(line.Frame.Clone(), line.Align, false)
	return nil
}

func (d *distributor) single(single *flow.SingleChild) error {
	frame, err := single.Layout(d.c.eng, layout.NewRegion(d.regions.Base(), d.regions.Expand))
	if err != nil {
		return err
	}

	// 分数高度的块等剩余空间确定后再排
	if single.Fr != nil {
		d.flushTags()
		d.items = append(d.items, frItem{fr: *single.Fr, single: single})
		return nil
	}

	if !d.regions.Size.Y.Fits(frame.Height()) && d.regions.MayProgress() {
		return stopFinish(false)
	}
	d.frame(frame, single.Align, single.Sticky)
	return nil
}

func (d *distributor) multi(multi *flow.MultiChild) error {
	if d.regions.IsFull() {
		return stopFinish(false)
	}

	frame, spill, err := multi.Layout(d.c.eng, d.regions)
	if err != nil {
		return err
	}
	// 块在这里只能放下空帧，而后面还有内容，整块挪到下一个区域
	if frame.IsEmpty() && spill != nil && spill.ExistNonEmptyFrame() && d.regions.MayProgress() {
		return stopFinish(false)
	}

	d.frame(frame, multi.Align, multi.Sticky)
	if spill != nil {
		tracer().P("spill", len(spill.Backlog())).Debugf("breakable block continues in next region")
		d.c.work.spill = spill
		d.c.work.advance()
		return stopFinish(false)
	}
	return nil
}

func (d *distributor) multiSpill(spill *flow.MultiSpill) error {
	if d.regions.IsFull() {
		d.c.work.spill = spill
		return stopFinish(false)
	}

	frame, next, err := spill.Layout(d.c.eng, d.regions)
	if err != nil {
		return err
	}
	d.frame(frame, spill.Align(), false)
	if next != nil {
		d.c.work.spill = next
		return stopFinish(false)
	}
	return nil
}

func (d *distributor) frame(frame layout.Frame, align layout.Axes[layout.FixedAlign], sticky bool) {
	if sticky {
		if d.sticky == nil {
			if d.stickable == nil {
				v := d.regions.MayProgress()
				d.stickable = &v
			}
			if *d.stickable {
				s := d.snapshot()
				d.sticky = &s
			}
		}
	} else if !frame.IsEmpty() {
		d.sticky = nil
		d.stickable = nil
	}

	d.regions.Size.Y -= frame.Height()
	d.flushTags()
	d.items = append(d.items, frameItem{frame: frame, align: align})
}

func (d *distributor) placed(placed *flow.PlacedChild) error {
	if placed.Float {
		// 浮动元素不需要它前面的弱间距
		weak := d.weakSpacing()
		d.regions.Size.Y += weak
		hasFrame := false
		for _, it := range d.items {
			if _, ok := it.(frameItem); ok {
				hasFrame = true
				break
			}
		}
		err := d.c.float(placed, d.regions, hasFrame)
		d.regions.Size.Y -= weak
		return err
	}

	frame, err := placed.Layout(d.c.eng, d.regions.Base())
	if err != nil {
		return err
	}
	d.flushTags()
	d.items = append(d.items, placedItem{frame: frame, placed: placed})
	return nil
}

func (d *distributor) breakRegion(weak bool) error {
	if (!weak || len(d.items) > 0) && d.regions.MayBreak() {
		d.c.work.advance()
		return stopFinish(true)
	}
	return nil
}

func (d *distributor) snapshot() snapshot {
	return snapshot{work: d.c.work.clone(), items: len(d.items)}
}

func (d *distributor) restore(s snapshot) {
	*d.c.work = s.work
	d.items = d.items[:s.items]
}

// finalize 确定区域尺寸并为各项定位。
func (d *distributor) finalize(region layout.Region, init snapshot, forced bool) (layout.Frame, error) {
	allMigratable := len(d.items) > 0
	for _, it := range d.items {
		if !migratable(it) {
			allMigratable = false
			break
		}
	}
	switch {
	case forced:
		d.flushTags()
	case allMigratable:
		// 只剩标签之类的内容时挪到下一个区域，避免标签与它标记的内容分开
		d.restore(init)
	case d.sticky != nil:
		d.restore(*d.sticky)
		d.sticky = nil
	}

	d.trimSpacing()

	var frs layout.Fr
	var used layout.Size
	hasFrChild := false
	for _, it := range d.items {
		switch v := it.(type) {
		case absItem:
			used.Y += v.amount
		case frItem:
			frs += v.fr
			hasFrChild = hasFrChild || v.single != nil
		case frameItem:
			used.Y += v.frame.Height()
			used.X = used.X.Max(v.frame.Width())
		}
	}

	var frSpace layout.Abs
	if frs > 0 && region.Size.Y.IsFinite() {
		frSpace = region.Size.Y - used.Y
		used.Y = region.Size.Y
	}

	var frFrames []layout.Frame
	if hasFrChild {
		for _, it := range d.items {
			v, ok := it.(frItem)
			if !ok || v.single == nil {
				continue
			}
			length := v.fr.Share(frs, frSpace)
			pod := layout.NewRegion(layout.Size{X: region.Size.X, Y: length}, region.Expand)
			frame, err := v.single.Layout(d.c.eng, pod)
			if err != nil {
				return layout.Frame{}, err
			}
			used.X = used.X.Max(frame.Width())
			frFrames = append(frFrames, frame)
		}
	}

	if !region.Expand.X {
		used.X = used.X.Max(d.c.insertions.width)
	}

	size := layout.SelectSize(region.Expand, region.Size, layout.Size{
		X: used.X.Min(region.Size.X),
		Y: used.Y.Min(region.Size.Y),
	})
	free := size.Y - used.Y

	output := layout.NewSoftFrame(size)
	ruler := layout.AlignStart
	var offset layout.Abs
	for _, it := range d.items {
		switch v := it.(type) {
		case tagItem:
			output.Push(layout.Point{Y: offset + ruler.Position(free)}, layout.TagItem{Tag: v.tag})
		case absItem:
			offset += v.amount
		case frItem:
			length := v.fr.Share(frs, frSpace)
			if v.single != nil {
				frame := frFrames[0]
				frFrames = frFrames[1:]
				x := v.single.Align.X.Position(size.X - frame.Width())
				output.PushFrame(layout.Point{X: x, Y: offset}, frame)
			}
			offset += length
		case frameItem:
			ruler = max(ruler, v.align.Y)
			pos := layout.Point{
				X: v.align.X.Position(size.X - v.frame.Width()),
				Y: offset + ruler.Position(free),
			}
			offset += v.frame.Height()
			output.PushFrame(pos, v.frame)
		case placedItem:
			p := v.placed
			x := p.AlignX.Position(size.X - v.frame.Width())
			var y layout.Abs
			if p.AlignY.Custom && p.AlignY.V != nil {
				y = p.AlignY.V.Position(size.Y - v.frame.Height())
			} else {
				y = offset + ruler.Position(free)
			}
			pos := layout.Point{
				X: x + p.Delta.X.RelativeTo(size.X),
				Y: y + p.Delta.Y.RelativeTo(size.Y),
			}
			output.PushFrame(pos, v.frame)
		}
	}
	return output, nil
}
