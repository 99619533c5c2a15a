package text

import (
	"slices"
	"strings"

	"github.com/go-text/typesetting/language"

	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
)

// ShapedText 是一段已塑形、可按安全断点切分的文字。
//
// Glyphs 的区间是整段文字中的绝对字节区间，Text 从 Base 字节处开始。
type ShapedText struct {
	Base    int
	Text    string
	Dir     layout.Dir
	Lang    string
	Region  string
	Styles  style.Chain
	Font    string
	Size    layout.Abs
	Fill    layout.Color
	Glyphs  []Glyph
	Ascent  layout.Em
	Descent layout.Em
}

// Shape 塑形 text 并计算每个字形的可调量。base 是 text 在整段文字中的字节偏移。
func Shape(sh Shaper, base int, text string, styles style.Chain, dir layout.Dir, lang, region string) *ShapedText {
	font := style.Get(styles, style.Font)
	size := style.Get(styles, style.FontSize)
	raw := sh.Shape(Request{Base: base, Text: text, Dir: dir, Lang: lang, Region: region, Font: font})

	// 不换行空格与普通空格等宽
	if _, spaceAdv, ok := sh.Glyph(font, ' '); ok {
		for i := range raw.Glyphs {
			if raw.Glyphs[i].C == '\u00a0' {
				raw.Glyphs[i].XAdvance = spaceAdv
			}
		}
	}

	for i := range raw.Glyphs {
		g := &raw.Glyphs[i]
		g.Justifiable = isJustifiable(g.C, g.Script, g.XAdvance, g.Adjust.Stretch)
	}

	st := &ShapedText{
		Base:    base,
		Text:    text,
		Dir:     dir,
		Lang:    lang,
		Region:  region,
		Styles:  styles,
		Font:    font,
		Size:    size,
		Fill:    style.Get(styles, style.Fill),
		Glyphs:  raw.Glyphs,
		Ascent:  raw.Ascent,
		Descent: raw.Descent,
	}
	if len(st.Glyphs) > 0 {
		calculateAdjustability(st.Glyphs, PunctStyleFor(lang, region))
	}
	return st
}

// calculateAdjustability 设置基础可调量，并压缩连续的 CJK 标点。
func calculateAdjustability(glyphs []Glyph, punct CJKPunctStyle) {
	for i := range glyphs {
		glyphs[i].Adjust = glyphs[i].BaseAdjustability(punct)
	}
	for i := 0; i+1 < len(glyphs); i++ {
		g, next := &glyphs[i], &glyphs[i+1]
		// CNS 规范不做连续标点挤压
		if g.IsCJKPunctuation() && punct == PunctCNS {
			continue
		}
		delta := g.XAdvance / 2
		if g.IsCJKPunctuation() && next.IsCJKPunctuation() && g.Adjust.Shrink[1]+next.Adjust.Shrink[0] >= delta {
			left := min(g.Adjust.Shrink[1], delta)
			g.ShrinkRight(left)
			next.ShrinkLeft(delta - left)
		}
	}
}

// Width 返回自然宽度。
func (s *ShapedText) Width() layout.Abs {
	var w layout.Em
	for _, g := range s.Glyphs {
		w += g.XAdvance
	}
	return w.At(s.Size)
}

// End 返回文字末尾在整段文字中的字节偏移。
func (s *ShapedText) End() int { return s.Base + len(s.Text) }

// Clone 复制一份，字形切片独立，可以安全修改。
func (s *ShapedText) Clone() *ShapedText {
	out := *s
	out.Glyphs = slices.Clone(s.Glyphs)
	return &out
}

// Measure 返回基线以上与以下的高度。
func (s *ShapedText) Measure() (top, bottom layout.Abs) {
	return s.Ascent.At(s.Size), s.Descent.At(s.Size)
}

// Justifiables 返回可以参与两端对齐分配的字形数。
func (s *ShapedText) Justifiables() int {
	n := 0
	for _, g := range s.Glyphs {
		if g.Justifiable {
			n++
		}
	}
	return n
}

// CJKJustifiableAtLast 判断末尾字形是否为中日文字或 CJK 标点。
func (s *ShapedText) CJKJustifiableAtLast() bool {
	if len(s.Glyphs) == 0 {
		return false
	}
	last := &s.Glyphs[len(s.Glyphs)-1]
	return last.IsCJScript() || last.IsCJKPunctuation()
}

// Stretchability 返回总的可拉伸量。
func (s *ShapedText) Stretchability() layout.Abs {
	var e layout.Em
	for _, g := range s.Glyphs {
		e += g.Adjust.Stretch[0] + g.Adjust.Stretch[1]
	}
	return e.At(s.Size)
}

// Shrinkability 返回总的可压缩量。
func (s *ShapedText) Shrinkability() layout.Abs {
	var e layout.Em
	for _, g := range s.Glyphs {
		e += g.Adjust.Shrink[0] + g.Adjust.Shrink[1]
	}
	return e.At(s.Size)
}

// Build 按两端对齐比例 ratio 与每个可对齐字形的额外宽度 extra 生成帧。
// ratio 为负时使用压缩量，否则使用拉伸量。
func (s *ShapedText) Build(ratio float64, extra layout.Abs) layout.Frame {
	top, bottom := s.Measure()
	width := s.Width()
	frame := layout.NewSoftFrame(layout.Size{X: width, Y: top + bottom})
	frame.SetBaseline(top)

	var offset layout.Abs
	for start := 0; start < len(s.Glyphs); {
		end := start + 1
		for end < len(s.Glyphs) && s.Glyphs[end].YOffset == s.Glyphs[start].YOffset {
			end++
		}
		group := s.Glyphs[start:end]
		pos := layout.Point{X: offset, Y: top - group[0].YOffset.At(s.Size)}

		lo, hi := group[0].Start, group[0].End
		for _, g := range group {
			lo, hi = min(lo, g.Start), max(hi, g.End)
		}

		item := layout.TextItem{
			Font: s.Font,
			Size: s.Size,
			Fill: s.Fill,
			Lang: s.Lang,
			Text: s.Text[lo-s.Base : hi-s.Base],
		}
		for _, g := range group {
			adj := g.Adjust.Stretch
			if ratio < 0 {
				adj = g.Adjust.Shrink
			}
			left := layout.Em(float64(adj[0]) * ratio)
			right := layout.Em(float64(adj[1]) * ratio)
			if g.Justifiable {
				right += layout.EmFromLength(extra, s.Size)
			}
			width += (left + right).At(s.Size)
			item.Glyphs = append(item.Glyphs, layout.Glyph{
				ID:       g.ID,
				XAdvance: g.XAdvance + left + right,
				XOffset:  g.XOffset + left,
				Range:    [2]int{g.Start - lo, g.End - lo},
			})
		}
		offset += item.Width()
		frame.Push(pos, item)
		start = end
	}
	frame.SetSize(layout.Size{X: width, Y: top + bottom})
	return frame
}

// Reshape 返回 [start, end) 这一段的塑形结果：两端都是安全断点时直接切片复用字形，
// 否则重新塑形。
func (s *ShapedText) Reshape(sh Shaper, start, end int) *ShapedText {
	text := s.Text[start-s.Base : end-s.Base]
	if glyphs, ok := s.sliceSafeToBreak(start, end); ok {
		out := *s
		out.Base = start
		out.Text = text
		out.Glyphs = glyphs
		return &out
	}
	tracer().Debugf("reshape [%d, %d) without safe break", start, end)
	return Shape(sh, start, text, s.Styles, s.Dir, s.Lang, s.Region)
}

// Empty 返回保留度量但不含文字的副本，用于空行。
func (s *ShapedText) Empty() *ShapedText {
	out := *s
	out.Text = ""
	out.Glyphs = nil
	return &out
}

// Hyphen 生成只含一个连字符的文字，样式取自 base，位于整段文字的 at 处。
// 字体中没有连字符时返回 nil。
func Hyphen(sh Shaper, base *ShapedText, at int) *ShapedText {
	id, adv, ok := sh.Glyph(base.Font, '-')
	if !ok {
		tracer().Infof("font %s has no hyphen glyph", base.Font)
		return nil
	}
	out := *base
	out.Base = at
	out.Text = ""
	out.Glyphs = []Glyph{{
		ID:          id,
		XAdvance:    adv,
		Start:       at,
		End:         at,
		SafeToBreak: true,
		C:           '-',
		Script:      language.Common,
	}}
	return &out
}

// sliceSafeToBreak 在两端都能安全断开时返回对应的字形切片。
func (s *ShapedText) sliceSafeToBreak(start, end int) ([]Glyph, bool) {
	if s.Dir == layout.DirRTL {
		start, end = end, start
	}
	left, ok := s.findSafeToBreak(start)
	if !ok {
		return nil, false
	}
	right, ok := s.findSafeToBreak(end)
	if !ok {
		return nil, false
	}
	if left > right {
		return nil, false
	}
	return s.Glyphs[left:right], true
}

// findSafeToBreak 返回字节偏移 index 处的字形下标，该处不能安全断开时 ok 为 false。
func (s *ShapedText) findSafeToBreak(index int) (int, bool) {
	ltr := s.Dir != layout.DirRTL
	n := len(s.Glyphs)
	switch index {
	case s.Base:
		if ltr {
			return 0, true
		}
		return n, true
	case s.End():
		if ltr {
			return n, true
		}
		return 0, true
	}

	idx, found := slices.BinarySearchFunc(s.Glyphs, index, func(g Glyph, t int) int {
		if ltr {
			return g.Start - t
		}
		return t - g.Start
	})
	if !found {
		// 换行符没有字形，在它前面断开时直接返回插入位置
		if idx > 0 && s.Glyphs[idx-1].End == index && strings.HasPrefix(s.Text[index-s.Base:], "\n") {
			return idx, true
		}
		return 0, false
	}
	if !ltr {
		for idx+1 < n && s.Glyphs[idx+1].Start == index {
			idx++
		}
	}
	if !s.Glyphs[idx].SafeToBreak {
		return 0, false
	}
	if !ltr {
		idx++
	}
	return idx, true
}
