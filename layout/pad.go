package layout

// ShrinkSize 从 size 中扣除内边距，相对部分以 size 为基准。
func ShrinkSize(size Size, inset Inset) Size {
	in := ResolveInset(inset, size)
	return Size{X: size.X - in.Left - in.Right, Y: size.Y - in.Top - in.Bottom}
}

// GrowFrame 按内边距扩大帧。相对内边距按扩大后的尺寸解析，
// 使扩大后的帧再扣除内边距正好得到原尺寸。
func GrowFrame(f *Frame, inset Inset) {
	size := f.Size()
	grown := Size{
		X: growAxis(size.X, inset.Left, inset.Right),
		Y: growAxis(size.Y, inset.Top, inset.Bottom),
	}
	f.Grow(ResolveInset(inset, grown))
}

func growAxis(s Abs, a, b Rel) Abs {
	rel := float64(a.Rel + b.Rel)
	if rel >= 1 {
		return s + a.Abs + b.Abs
	}
	return Abs(float64(s+a.Abs+b.Abs) / (1 - rel))
}

// UnbreakablePod 计算不可拆分容器内容的排版区域：显式尺寸会撑满，auto 与分数尺寸沿用 base。
func UnbreakablePod(width, height Sizing, inset Inset, base Size) Region {
	size := Size{X: resolveSizing(width, base.X), Y: resolveSizing(height, base.Y)}
	if !InsetIsZero(inset) {
		size = ShrinkSize(size, inset)
	}
	expand := Axes[bool]{
		X: width.Kind != SizingAuto && size.X.IsFinite(),
		Y: height.Kind != SizingAuto && size.Y.IsFinite(),
	}
	return NewRegion(size, expand)
}

func resolveSizing(s Sizing, base Abs) Abs {
	if s.Kind == SizingRel {
		return s.Rel.RelativeTo(base)
	}
	return base
}

// BreakablePod 计算可拆分容器内容的区域序列。固定高度会被分摊到现有区域上，
// 此时不再有无限重复的 last 区域。
func BreakablePod(width, height Sizing, inset Inset, regions Regions) Regions {
	base := regions.Base()

	var first, full Abs
	var backlog []Abs
	var last *Abs
	switch height.Kind {
	case SizingRel:
		full = height.Rel.RelativeTo(base.Y)
		first, backlog = distributeHeight(full, regions)
	default:
		first = regions.Size.Y
		full = regions.Full
		backlog = append([]Abs(nil), regions.Backlog...)
		if regions.Last != nil {
			l := *regions.Last
			last = &l
		}
	}

	size := Size{X: regions.Size.X, Y: first}
	if width.Kind == SizingRel {
		size.X = width.Rel.RelativeTo(base.X)
	}

	if !InsetIsZero(inset) {
		size = ShrinkSize(size, inset)
		y := Rel{Rel: inset.Top.Rel + inset.Bottom.Rel, Abs: inset.Top.Abs + inset.Bottom.Abs}
		full -= y.RelativeTo(full)
		for i, h := range backlog {
			backlog[i] = h - y.RelativeTo(h)
		}
		if last != nil {
			*last -= y.RelativeTo(*last)
		}
	}

	expand := Axes[bool]{
		X: width.Kind != SizingAuto && size.X.IsFinite(),
		Y: height.Kind != SizingAuto && size.Y.IsFinite(),
	}
	return Regions{Size: size, Full: full, Backlog: backlog, Last: last, Expand: expand}
}

// distributeHeight 把固定高度依次分配到各区域，返回第一个区域的高度与其余区域的高度。
// 放不下的部分算到最后一个区域上，让它溢出。
func distributeHeight(height Abs, regions Regions) (Abs, []Abs) {
	var buf []Abs
	remaining := height
	for {
		limited := regions.Size.Y.Clamp(0, remaining)
		buf = append(buf, limited)
		remaining -= limited
		if remaining.ApproxEmpty() || !regions.MayBreak() || (!regions.MayProgress() && limited.ApproxEmpty()) {
			break
		}
		regions.Next()
	}
	if !remaining.ApproxEmpty() {
		buf[len(buf)-1] += remaining
	}
	return buf[0], buf[1:]
}
