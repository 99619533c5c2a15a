package inline

import (
	"math"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ByLCY/quire/engine"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/text"
)

// 行内元素的逻辑序号：行首连字符排最前，行尾连字符排最后，其余为在段落中的下标加一。
const (
	startHyphenIdx = 0
	fallbackIdx    = math.MaxInt - 1
	endHyphenIdx   = math.MaxInt
)

func logicalIdx(i int) int { return i + 1 }

// Dash 是行尾的连字符或破折号。
type Dash int

const (
	DashNone Dash = iota
	// DashSoft 是断字时加上的连字符。
	DashSoft
	// DashHard 是复合词中本来就有的连字符。
	DashHard
	// DashOther 是其他破折号，只影响代价计算。
	DashOther
)

// Indexed 是带逻辑序号的行内元素，行中按视觉顺序排列。
type Indexed struct {
	Idx  int
	Item Item
}

// Line 是一行的测量结果，提交前可以反复构建与比较。
type Line struct {
	Items   []Indexed
	Width   layout.Abs
	Justify bool
	Dash    Dash
}

// leadingText 返回第一个非标签元素在 Items 中的下标，它不是文字时返回 -1。
func (l *Line) leadingText() int {
	for i, it := range l.Items {
		if _, ok := it.Item.(Tag); ok {
			continue
		}
		if _, ok := it.Item.(Text); ok {
			return i
		}
		return -1
	}
	return -1
}

// trailingText 返回最后一个非标签元素在 Items 中的下标，它不是文字时返回 -1。
func (l *Line) trailingText() int {
	for i := len(l.Items) - 1; i >= 0; i-- {
		it := l.Items[i]
		if _, ok := it.Item.(Tag); ok {
			continue
		}
		if _, ok := it.Item.(Text); ok {
			return i
		}
		return -1
	}
	return -1
}

func (l *Line) textAt(i int) *text.ShapedText {
	if i < 0 {
		return nil
	}
	return l.Items[i].Item.(Text).Shaped
}

// mutableText 把下标 i 处的文字替换为独立副本后返回，用于行边界上的修改。
func (l *Line) mutableText(i int) *text.ShapedText {
	shaped := l.textAt(i).Clone()
	l.Items[i].Item = Text{Shaped: shaped}
	return shaped
}

// Justifiables 返回可以分配额外宽度的字形数，行尾的中日文字不参与。
func (l *Line) Justifiables() int {
	n := 0
	for _, it := range l.Items {
		if t, ok := it.Item.(Text); ok {
			n += t.Shaped.Justifiables()
		}
	}
	if t := l.textAt(l.trailingText()); t != nil && t.CJKJustifiableAtLast() {
		n--
	}
	return n
}

// Stretchability 返回整行的可拉伸量。
func (l *Line) Stretchability() layout.Abs {
	var s layout.Abs
	for _, it := range l.Items {
		if t, ok := it.Item.(Text); ok {
			s += t.Shaped.Stretchability()
		}
	}
	return s
}

// Shrinkability 返回整行的可压缩量。
func (l *Line) Shrinkability() layout.Abs {
	var s layout.Abs
	for _, it := range l.Items {
		if t, ok := it.Item.(Text); ok {
			s += t.Shaped.Shrinkability()
		}
	}
	return s
}

// HasNegativeWidthItems 判断行中是否有负宽度的元素。
func (l *Line) HasNegativeWidthItems() bool {
	for _, it := range l.Items {
		switch v := it.Item.(type) {
		case Absolute:
			if v.Amount < 0 {
				return true
			}
		case Frame:
			if v.Frame.Width() < 0 {
				return true
			}
		}
	}
	return false
}

// Fr 返回行中分数间距之和。
func (l *Line) Fr() layout.Fr {
	var fr layout.Fr
	for _, it := range l.Items {
		if v, ok := it.Item.(Fractional); ok {
			fr += v.Amount
		}
	}
	return fr
}

// line 构建覆盖 rng 的一行。pred 是上一行，用于判断是否需要在行首重复连字符。
func line(eng *engine.Engine, p *Preparation, rng Range, bp Breakpoint, pred *Line) *Line {
	full := p.Text[rng.Start:rng.End]
	justify := strings.HasSuffix(full, "\u2028") || (p.Config.Justify && bp.Kind != BreakMandatory)

	var dash Dash
	switch {
	case bp.Kind == BreakHyphen || strings.HasSuffix(full, "\u00ad"):
		dash = DashSoft
	case strings.HasSuffix(full, "-"):
		dash = DashHard
	case strings.HasSuffix(full, "\u2013") || strings.HasSuffix(full, "\u2014"):
		dash = DashOther
	}

	trim := rng.Start + len(bp.Trim(full))
	l := &Line{Justify: justify, Dash: dash}

	if pred != nil && pred.Dash == DashHard {
		if base := pred.textAt(pred.trailingText()); base != nil && shouldRepeatHyphen(base.Lang, full) {
			if hyphen := text.Hyphen(eng.Shaper, base, trim); hyphen != nil {
				l.Items = append(l.Items, Indexed{Idx: startHyphenIdx, Item: Text{Shaped: hyphen}})
			}
		}
	}

	collectItems(l, eng, p, rng, trim)

	if dash == DashSoft {
		if base := l.textAt(l.trailingText()); base != nil {
			if hyphen := text.Hyphen(eng.Shaper, base, trim); hyphen != nil {
				l.Items = append(l.Items, Indexed{Idx: endHyphenIdx, Item: Text{Shaped: hyphen}})
			}
		}
	}

	trimWeakSpacing(l)
	adjustCJAtLineBoundaries(p, full, l)

	for _, it := range l.Items {
		l.Width += it.Item.NaturalWidth()
	}
	return l
}

// collectItems 按视觉顺序收集行内元素，被行切开的文字重新塑形。
func collectItems(l *Line, eng *engine.Engine, p *Preparation, rng Range, trim int) {
	var fallback Item
	reorder(p, rng, func(sub Range, rtl bool) {
		from := len(l.Items)
		collectRange(l, eng, p, sub, trim, &fallback)
		if rtl {
			slices.Reverse(l.Items[from:])
		}
	})

	for _, it := range l.Items {
		if _, ok := it.Item.(Text); ok {
			return
		}
	}
	if fallback != nil {
		l.Items = append(l.Items, Indexed{Idx: fallbackIdx, Item: fallback})
	}
}

// reorder 对每个方向一致的片段按视觉顺序调用 f。
func reorder(p *Preparation, rng Range, f func(Range, bool)) {
	if p.Bidi == nil || rng.Empty() {
		f(rng, p.Config.Dir == layout.DirRTL)
		return
	}
	for _, run := range p.Bidi.visualRuns(p.Text, rng) {
		f(run.Range, run.RTL)
	}
}

func collectRange(l *Line, eng *engine.Engine, p *Preparation, rng Range, trim int, fallback *Item) {
	first := p.firstIndex(rng.Start)
	for k, e := range p.Slice(rng) {
		idx := logicalIdx(first + k)
		t, ok := e.Item.(Text)
		if !ok {
			l.Items = append(l.Items, Indexed{Idx: idx, Item: e.Item})
			continue
		}
		sliced := Range{Start: max(rng.Start, e.Range.Start), End: min(rng.End, e.Range.End, trim)}
		split := e.Range.Start < sliced.Start || sliced.End < e.Range.End
		switch {
		case sliced.Empty():
			*fallback = Text{Shaped: t.Shaped.Empty()}
		case split:
			l.Items = append(l.Items, Indexed{Idx: idx, Item: Text{Shaped: t.Shaped.Reshape(eng.Shaper, sliced.Start, sliced.End)}})
		default:
			l.Items = append(l.Items, Indexed{Idx: idx, Item: e.Item})
		}
	}
}

// trimWeakSpacing 去掉行首行尾的弱间距。
func trimWeakSpacing(l *Line) {
	isWeak := func(it Indexed) bool {
		a, ok := it.Item.(Absolute)
		return ok && a.Weak
	}
	prefix := 0
	for prefix < len(l.Items) && isWeak(l.Items[prefix]) {
		prefix++
	}
	l.Items = l.Items[prefix:]
	for len(l.Items) > 0 && isWeak(l.Items[len(l.Items)-1]) {
		l.Items = l.Items[:len(l.Items)-1]
	}
}

// adjustCJAtLineBoundaries 压缩行首行尾的 CJK 标点，并撤销行边界上的中西文间距。
func adjustCJAtLineBoundaries(p *Preparation, full string, l *Line) {
	first, _ := utf8.DecodeRuneInString(full)
	last, _ := utf8.DecodeLastRuneInString(full)
	if full == "" {
		return
	}
	if text.IsBeginPunct(first) || (p.Config.CJKLatinSpacing && text.IsOfCJScript(first)) {
		adjustCJAtLineStart(p, l)
	}
	if text.IsEndPunct(last) || (p.Config.CJKLatinSpacing && text.IsOfCJScript(last)) {
		adjustCJAtLineEnd(p, l)
	}
}

func adjustCJAtLineStart(p *Preparation, l *Line) {
	i := l.leadingText()
	if i < 0 || len(l.textAt(i).Glyphs) == 0 {
		return
	}
	g := l.textAt(i).Glyphs[0]
	switch {
	case g.IsCJKRightAligned():
		shaped := l.mutableText(i)
		first := &shaped.Glyphs[0]
		first.ShrinkLeft(first.Adjust.Shrink[0])
	case p.Config.CJKLatinSpacing && g.IsCJScript() && g.XOffset > 0:
		shaped := l.mutableText(i)
		first := &shaped.Glyphs[0]
		first.XAdvance -= first.XOffset
		first.XOffset = 0
		first.Adjust.Shrink[0] = 0
	}
}

func adjustCJAtLineEnd(p *Preparation, l *Line) {
	i := l.trailingText()
	if i < 0 || len(l.textAt(i).Glyphs) == 0 {
		return
	}
	t := l.textAt(i)
	g := t.Glyphs[len(t.Glyphs)-1]
	style := text.PunctStyleFor(t.Lang, t.Region)
	switch {
	case g.IsCJKLeftAligned(style):
		shaped := l.mutableText(i)
		last := &shaped.Glyphs[len(shaped.Glyphs)-1]
		last.ShrinkRight(last.Adjust.Shrink[1])
	case p.Config.CJKLatinSpacing && g.IsCJScript() && g.XAdvance-g.XOffset > 1:
		shaped := l.mutableText(i)
		last := &shaped.Glyphs[len(shaped.Glyphs)-1]
		last.XAdvance -= last.XAdvance - last.XOffset - 1
		last.Adjust.Shrink[1] = 0
	}
}

// shouldRepeatHyphen 判断在该语言中行尾的连字符是否要在下一行行首重复。
func shouldRepeatHyphen(lang, following string) bool {
	switch strings.ToLower(lang) {
	case "dsb", "cs", "hr", "pl", "pt", "sk":
		return true
	case "es":
		// 西班牙语只在下一个词不是大写开头时重复
		c, _ := utf8.DecodeRuneInString(following)
		return following != "" && !unicode.IsUpper(c)
	}
	return false
}
