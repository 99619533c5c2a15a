package inline

import (
	"github.com/ByLCY/quire/element"
	"github.com/ByLCY/quire/engine"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
	"github.com/ByLCY/quire/text"
)

// 间距与行内盒子在整段文字中的替代字符。
const (
	spacingReplace = " "
	objReplace     = "\ufffc"
)

// Item 是段落准备阶段产出的行内元素。
type Item interface {
	// Textual 返回该元素在整段文字中占据的文本。
	Textual() string
	// NaturalWidth 返回未经两端对齐的自然宽度。
	NaturalWidth() layout.Abs
}

// Text 是方向与样式一致的一段已塑形文字。
type Text struct{ Shaped *text.ShapedText }

// Absolute 是绝对间距，Weak 为 true 时在行首行尾会被去掉。
type Absolute struct {
	Amount layout.Abs
	Weak   bool
}

// Fractional 是分数间距，Box 非空时表示宽度为分数的行内盒子。
type Fractional struct {
	Amount layout.Fr
	Box    *BoxRef
}

// BoxRef 记录延迟到提交阶段才排版的行内盒子。
type BoxRef struct {
	Elem   element.Box
	Loc    layout.Locator
	Styles style.Chain
}

// Frame 是已排版的行内内容。
type Frame struct{ Frame layout.Frame }

// Tag 是定位标签。
type Tag struct{ Tag layout.Tag }

// Skip 是不可见、需要跳过的内容。
type Skip struct{ Text string }

func (t Text) Textual() string              { return t.Shaped.Text }
func (t Text) NaturalWidth() layout.Abs     { return t.Shaped.Width() }
func (Absolute) Textual() string            { return spacingReplace }
func (a Absolute) NaturalWidth() layout.Abs { return a.Amount }
func (Fractional) Textual() string          { return spacingReplace }
func (Fractional) NaturalWidth() layout.Abs { return 0 }
func (Frame) Textual() string               { return objReplace }
func (f Frame) NaturalWidth() layout.Abs    { return f.Frame.Width() }
func (Tag) Textual() string                 { return "" }
func (Tag) NaturalWidth() layout.Abs        { return 0 }
func (s Skip) Textual() string              { return s.Text }
func (Skip) NaturalWidth() layout.Abs       { return 0 }

// segment 是尚未塑形的文字（item 为 nil）或已经准备好的元素。
type segment struct {
	length int
	styles style.Chain
	item   Item
}

type collector struct {
	full     []byte
	segments []segment
}

func (c *collector) pushText(s string, styles style.Chain) {
	if s == "" {
		return
	}
	c.full = append(c.full, s...)
	// 相邻且样式相同的文字合并为一段
	if n := len(c.segments); n > 0 {
		last := &c.segments[n-1]
		if last.item == nil && last.styles.Hash() == styles.Hash() {
			last.length += len(s)
			return
		}
	}
	c.segments = append(c.segments, segment{length: len(s), styles: styles})
}

// pushDirected 推入文字，方向与段落不同时用嵌入控制字符包起来。
func (c *collector) pushDirected(s string, styles style.Chain, outer layout.Dir) {
	if s == "" {
		return
	}
	dir := style.ResolveDir(styles)
	if dir == outer {
		c.pushText(s, styles)
		return
	}
	if dir == layout.DirRTL {
		c.pushText(rtlEmbedding, styles)
	} else {
		c.pushText(ltrEmbedding, styles)
	}
	c.pushText(s, styles)
	c.pushText(popEmbedding, styles)
}

func (c *collector) pushItem(item Item) {
	// 相邻的弱间距取最大值
	if n := len(c.segments); n > 0 {
		if prev, ok := c.segments[n-1].item.(Absolute); ok && prev.Weak {
			if cur, ok := item.(Absolute); ok && cur.Weak {
				prev.Amount = prev.Amount.Max(cur.Amount)
				c.segments[n-1].item = prev
				return
			}
		}
	}
	t := item.Textual()
	c.full = append(c.full, t...)
	c.segments = append(c.segments, segment{length: len(t), item: item})
}

// collect 把所有行内子元素的文字拼成一个字符串，并产出对应的片段。
func collect(eng *engine.Engine, children []element.Pair, locator *layout.SplitLocator, config *Config, region layout.Size) (string, []segment, error) {
	c := &collector{segments: make([]segment, 0, len(children)+2)}

	if config.FirstLineIndent != 0 {
		c.pushItem(Absolute{Amount: config.FirstLineIndent})
	}
	if config.HangingIndent != 0 {
		c.pushItem(Absolute{Amount: -config.HangingIndent})
	}

	for _, child := range children {
		styles := child.Styles
		switch elem := child.Elem.(type) {
		case element.Space:
			c.pushText(" ", styles)
		case element.Text:
			c.pushDirected(elem.Text, styles, config.Dir)
		case element.H:
			if elem.Amount.IsZero() {
				continue
			}
			if elem.Amount.IsFr {
				c.pushItem(Fractional{Amount: elem.Amount.Fr})
			} else {
				c.pushItem(Absolute{Amount: elem.Amount.Rel.RelativeTo(region.X), Weak: elem.Weak})
			}
		case element.Linebreak:
			if elem.Justify {
				c.pushText("\u2028", styles)
			} else {
				c.pushText("\n", styles)
			}
		case element.Box:
			loc := locator.Next(elemKey(elem))
			if elem.Width.Kind == layout.SizingFr {
				c.pushItem(Fractional{Amount: elem.Width.Fr, Box: &BoxRef{Elem: elem, Loc: loc, Styles: styles}})
				continue
			}
			frame, err := layoutBox(eng, elem, loc, styles, region)
			if err != nil {
				return "", nil, err
			}
			c.pushItem(Frame{Frame: frame})
		case element.Tag:
			c.pushItem(Tag{Tag: elem.Tag})
		default:
			eng.Warn(child.Span(), child.Elem.Name()+" may not occur inside of a paragraph and was ignored")
		}
	}
	return string(c.full), c.segments, nil
}

// elemKey 是元素在兄弟中的身份，用于派生位置。
func elemKey(e element.Element) [2]any {
	return [2]any{e.Name(), e.Span()}
}
