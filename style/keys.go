package style

import (
	"strings"

	"github.com/ByLCY/quire/layout"
)

// Length 是绝对长度与 em 长度之和，em 部分按当前字号解析。
type Length struct {
	Abs layout.Abs `json:"abs,omitempty"`
	Em  layout.Em  `json:"em,omitempty"`
}

// Pt 构造绝对长度。
func Pt(v float64) Length { return Length{Abs: layout.Abs(v)} }

// Ems 构造 em 长度。
func Ems(v float64) Length { return Length{Em: layout.Em(v)} }

// Resolve 按样式链中的字号解析为绝对长度。
func (l Length) Resolve(c Chain) layout.Abs {
	return l.Abs + l.Em.At(Get(c, FontSize))
}

func (l Length) IsZero() bool { return l.Abs == 0 && l.Em == 0 }

// Costs 是换行与分页的惩罚系数，nil 表示沿用外层或默认值 100%。
type Costs struct {
	Hyphenation *layout.Ratio `json:"hyphenation,omitempty"`
	Runt        *layout.Ratio `json:"runt,omitempty"`
	Widow       *layout.Ratio `json:"widow,omitempty"`
	Orphan      *layout.Ratio `json:"orphan,omitempty"`
}

func ratioOr(r *layout.Ratio) layout.Ratio {
	if r == nil {
		return 1
	}
	return *r
}

func (c Costs) HyphenationCost() layout.Ratio { return ratioOr(c.Hyphenation) }
func (c Costs) RuntCost() layout.Ratio        { return ratioOr(c.Runt) }
func (c Costs) WidowCost() layout.Ratio       { return ratioOr(c.Widow) }
func (c Costs) OrphanCost() layout.Ratio      { return ratioOr(c.Orphan) }

func foldCosts(inner, outer Costs) Costs {
	pick := func(a, b *layout.Ratio) *layout.Ratio {
		if a != nil {
			return a
		}
		return b
	}
	return Costs{
		Hyphenation: pick(inner.Hyphenation, outer.Hyphenation),
		Runt:        pick(inner.Runt, outer.Runt),
		Widow:       pick(inner.Widow, outer.Widow),
		Orphan:      pick(inner.Orphan, outer.Orphan),
	}
}

// Linebreaks 选择换行算法。
type Linebreaks int

const (
	LinebreaksAuto Linebreaks = iota
	LinebreaksSimple
	LinebreaksOptimized
)

// FirstLineIndent 是首行缩进；All 为 true 时对所有段落生效。
type FirstLineIndent struct {
	Amount Length `json:"amount"`
	All    bool   `json:"all,omitempty"`
}

// LineNumbering 非空时为每行输出行号标记。
type LineNumbering struct {
	Pattern string `json:"pattern"`
}

// 文字相关属性。
var (
	FontSize        = NewKey[layout.Abs]("text.size", 11)
	Font            = NewKey("text.font", "Body")
	Fill            = NewKey("text.fill", layout.Black)
	Lang            = NewKey("text.lang", "en")
	Region          = NewKey("text.region", "")
	Dir             = NewKey("text.dir", layout.Auto[layout.Dir]())
	Hyphenate       = NewKey("text.hyphenate", layout.Auto[bool]())
	Overhang        = NewKey("text.overhang", true)
	CJKLatinSpacing = NewKey("text.cjk-latin-spacing", true)
	TextCosts       = NewFoldKey("text.costs", Costs{}, foldCosts)
)

// 段落与块相关属性。
var (
	Leading        = NewKey("par.leading", Ems(0.65))
	ParSpacing     = NewKey("par.spacing", Ems(1.2))
	Justify        = NewKey("par.justify", false)
	Linebreaking   = NewKey("par.linebreaks", LinebreaksAuto)
	FirstIndent    = NewKey("par.first-line-indent", FirstLineIndent{})
	HangingIndent  = NewKey("par.hanging-indent", Length{})
	Numbering      = NewKey[*LineNumbering]("par.line-numbering", nil)
	Alignment      = NewKey("align.alignment", layout.Align{X: layout.HAlignStart})
	BlockAbove     = NewKey("block.above", layout.Auto[layout.Spacing]())
	BlockBelow     = NewKey("block.below", layout.Auto[layout.Spacing]())
	BlockBreakable = NewKey("block.breakable", true)
	BlockSticky    = NewKey("block.sticky", false)
)

var rtlLangs = map[string]bool{
	"ar": true, "dv": true, "fa": true, "he": true, "ks": true, "pa": true,
	"ps": true, "sd": true, "ug": true, "ur": true, "yi": true,
}

// ResolveDir 解析文字方向：auto 时按语言决定。
func ResolveDir(c Chain) layout.Dir {
	if d := Get(c, Dir); d.Custom {
		return d.V
	}
	if rtlLangs[strings.ToLower(Get(c, Lang))] {
		return layout.DirRTL
	}
	return layout.DirLTR
}

// ResolveHyphenate 解析是否断字：auto 时跟随两端对齐。
func ResolveHyphenate(c Chain) bool {
	return Get(c, Hyphenate).Or(Get(c, Justify))
}

// ResolveAlign 按文字方向解析水平对齐。
func ResolveAlign(c Chain) layout.FixedAlign {
	return Get(c, Alignment).X.Resolve(ResolveDir(c))
}
