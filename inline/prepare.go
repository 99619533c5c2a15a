package inline

import (
	"github.com/go-text/typesetting/language"

	"github.com/ByLCY/quire/element"
	"github.com/ByLCY/quire/engine"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
	"github.com/ByLCY/quire/text"
)

// Range 是整段文字中的字节区间 [Start, End)。
type Range struct {
	Start, End int
}

func (r Range) Len() int            { return r.End - r.Start }
func (r Range) Empty() bool         { return r.End <= r.Start }
func (r Range) Contains(i int) bool { return i >= r.Start && i < r.End }

// ParSituation 描述段落在流中的位置，决定首行缩进是否生效。
type ParSituation int

const (
	// ParFirst 是容器中的第一个段落。
	ParFirst ParSituation = iota
	// ParConsecutive 紧跟在另一个段落之后。
	ParConsecutive
	// ParOther 跟在其他块级内容之后。
	ParOther
)

// Config 是段落中所有子元素共享的设置。
type Config struct {
	Justify         bool
	Linebreaks      style.Linebreaks
	FirstLineIndent layout.Abs
	HangingIndent   layout.Abs
	Align           layout.FixedAlign
	FontSize        layout.Abs
	Dir             layout.Dir
	// Hyphenate、Lang、Region 只在所有子元素取值一致时有效，否则按文字片段各自查询。
	Hyphenate       *bool
	Lang            *string
	Region          *string
	CJKLatinSpacing bool
	Costs           style.Costs
	Numbering       *style.LineNumbering
	Overhang        bool
}

// configuration 从共享样式与子元素解析段落设置。isPar 为 false 时按行内内容处理，
// 不使用首行缩进、悬挂缩进与行号。
func configuration(shared style.Chain, children []element.Pair, situation ParSituation, isPar bool) *Config {
	justify := style.Get(shared, style.Justify)
	fontSize := style.Get(shared, style.FontSize)
	dir := style.ResolveDir(shared)
	align := style.ResolveAlign(shared)

	linebreaks := style.Get(shared, style.Linebreaking)
	if linebreaks == style.LinebreaksAuto {
		linebreaks = style.LinebreaksSimple
		if justify {
			linebreaks = style.LinebreaksOptimized
		}
	}

	c := &Config{
		Justify:         justify,
		Linebreaks:      linebreaks,
		Align:           align,
		FontSize:        fontSize,
		Dir:             dir,
		CJKLatinSpacing: style.Get(shared, style.CJKLatinSpacing),
		Costs:           style.GetFolded(shared, style.TextCosts),
		Overhang:        style.Get(shared, style.Overhang),
	}

	if isPar {
		indent := style.Get(shared, style.FirstIndent)
		applies := false
		switch situation {
		case ParConsecutive:
			applies = true
		case ParFirst, ParOther:
			applies = indent.All
		}
		if !indent.Amount.IsZero() && applies && align == layout.AlignStart {
			c.FirstLineIndent = indent.Amount.Resolve(shared)
		}
		c.HangingIndent = style.Get(shared, style.HangingIndent).Resolve(shared)
		c.Numbering = style.Get(shared, style.Numbering)
	}

	if v, ok := sharedGet(shared, children, style.ResolveHyphenate); ok {
		c.Hyphenate = &v
	}
	if v, ok := sharedGet(shared, children, func(s style.Chain) string { return style.Get(s, style.Lang) }); ok {
		c.Lang = &v
	}
	if v, ok := sharedGet(shared, children, func(s style.Chain) string { return style.Get(s, style.Region) }); ok {
		c.Region = &v
	}
	return c
}

// sharedGet 在所有子元素的取值都与共享样式相同时返回该值。
func sharedGet[T comparable](shared style.Chain, children []element.Pair, get func(style.Chain) T) (T, bool) {
	v := get(shared)
	for _, child := range children {
		if get(child.Styles) != v {
			return v, false
		}
	}
	return v, true
}

type entry struct {
	Range Range
	Item  Item
}

// Preparation 是段落的准备结果：整段文字、按逻辑顺序排列的元素及双向信息。
type Preparation struct {
	Text   string
	Items  []entry
	Bidi   *BidiInfo
	Config *Config
	// indices 把每个字节映射到所在元素的下标，空区间的元素不占字节。
	indices []int
}

// prepare 对收集到的片段逐一塑形。
func prepare(eng *engine.Engine, config *Config, full string, segments []segment) *Preparation {
	p := &Preparation{
		Text:   full,
		Bidi:   newBidiInfo(full, config.Dir),
		Config: config,
	}

	cursor := 0
	for _, seg := range segments {
		end := cursor + seg.length
		if seg.item == nil {
			p.shapeRange(eng, Range{Start: cursor, End: end}, seg.styles)
		} else {
			p.Items = append(p.Items, entry{Range: Range{Start: cursor, End: end}, Item: seg.item})
		}
		cursor = end
	}

	p.indices = make([]int, len(full))
	for i, e := range p.Items {
		for j := e.Range.Start; j < e.Range.End; j++ {
			p.indices[j] = i
		}
	}

	if config.CJKLatinSpacing {
		addCJKLatinSpacing(p.Items)
	}
	tracer().Debugf("prepared %d items over %d bytes", len(p.Items), len(full))
	return p
}

// Get 返回覆盖字节偏移 offset 的元素。
func (p *Preparation) Get(offset int) *entry {
	if len(p.indices) == 0 {
		return nil
	}
	offset = min(offset, len(p.indices)-1)
	return &p.Items[p.indices[offset]]
}

// Slice 返回与 [start, end) 相交的元素，包括落在边界上的空元素。
func (p *Preparation) Slice(rng Range) []entry {
	var out []entry
	for _, e := range p.Items[p.firstIndex(rng.Start):] {
		if e.Range.Start < rng.End || e.Range.End <= rng.End {
			out = append(out, e)
			continue
		}
		break
	}
	return out
}

// firstIndex 返回从字节偏移 start 开始切片时的第一个元素下标。
func (p *Preparation) firstIndex(start int) int {
	switch {
	case start <= 0:
		return 0
	case start < len(p.indices):
		return p.indices[start]
	}
	first := len(p.Items)
	for first > 0 && p.Items[first-1].Range.End >= start {
		first--
	}
	return first
}

// shapeRange 按双向层级与文字系统切分 rng 并分别塑形。
func (p *Preparation) shapeRange(eng *engine.Engine, rng Range, styles style.Chain) {
	lang := style.Get(styles, style.Lang)
	region := style.Get(styles, style.Region)
	process := func(r Range, level uint8) {
		if r.Empty() {
			return
		}
		dir := layout.DirLTR
		if level%2 == 1 {
			dir = layout.DirRTL
		}
		shaped := text.Shape(eng.Shaper, r.Start, p.Text[r.Start:r.End], styles, dir, lang, region)
		p.Items = append(p.Items, entry{Range: r, Item: Text{Shaped: shaped}})
	}

	cursor := rng.Start
	prevLevel := levelAt(p.Bidi, rng.Start, p.Config.Dir)
	prevScript := language.Unknown
	for i, c := range p.Text[rng.Start:rng.End] {
		at := rng.Start + i
		level := levelAt(p.Bidi, at, p.Config.Dir)
		script := language.LookupScript(c)
		if level != prevLevel || !isCompatible(script, prevScript) {
			process(Range{Start: cursor, End: at}, prevLevel)
			cursor, prevLevel, prevScript = at, level, script
		} else if isGenericScript(prevScript) {
			prevScript = script
		}
	}
	process(Range{Start: cursor, End: rng.End}, prevLevel)
}

func isGenericScript(s language.Script) bool {
	return s == language.Unknown || s == language.Common || s == language.Inherited
}

func isCompatible(a, b language.Script) bool {
	return isGenericScript(a) || isGenericScript(b) || a == b
}

// addCJKLatinSpacing 在中日文字与西文字母、数字之间加入 1/4 em 的间距，可压缩到 1/8 em。
func addCJKLatinSpacing(items []entry) {
	var texts []*text.ShapedText
	for _, e := range items {
		switch it := e.Item.(type) {
		case Tag:
			continue
		case Text:
			texts = append(texts, it.Shaped)
		default:
			texts = append(texts, nil)
		}
	}

	var prev *text.Glyph
	for k, shaped := range texts {
		if shaped == nil {
			prev = nil
			continue
		}
		for i := range shaped.Glyphs {
			g := &shaped.Glyphs[i]
			var next *text.Glyph
			if i+1 < len(shaped.Glyphs) {
				next = &shaped.Glyphs[i+1]
			} else if k+1 < len(texts) && texts[k+1] != nil && len(texts[k+1].Glyphs) > 0 {
				next = &texts[k+1].Glyphs[0]
			}
			if g.IsCJScript() && next != nil && next.IsLetterOrNumber() {
				g.XAdvance += 0.25
				g.Adjust.Shrink[1] += 0.125
			}
			if g.IsCJScript() && prev != nil && prev.IsLetterOrNumber() {
				g.XAdvance += 0.25
				g.XOffset += 0.25
				g.Adjust.Shrink[0] += 0.125
			}
			prev = g
		}
	}
}
