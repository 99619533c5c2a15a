package text

import (
	"unicode"

	"github.com/go-text/typesetting/language"

	"github.com/ByLCY/quire/layout"
)

// Adjustability 是字形左右两侧可拉伸、可压缩的量。
type Adjustability struct {
	Stretch [2]layout.Em
	Shrink  [2]layout.Em
}

// Glyph 是塑形得到的单个字形。
//
// Start/End 是字形所在簇在整段文字中的字节区间；同一 ShapedText 中
// LTR 文字的区间单调递增，RTL 文字单调递减。
type Glyph struct {
	ID          uint16
	XAdvance    layout.Em
	XOffset     layout.Em
	YOffset     layout.Em
	Adjust      Adjustability
	Start, End  int
	SafeToBreak bool
	C           rune
	Justifiable bool
	Script      language.Script
}

// IsSpace 判断是否为空格字形。
func (g *Glyph) IsSpace() bool { return isSpace(g.C) }

// IsCJScript 判断是否为中日文字（不含韩文）。
func (g *Glyph) IsCJScript() bool { return isCJScript(g.C, g.Script) }

// IsCJKPunctuation 判断是否为 CJK 标点。
func (g *Glyph) IsCJKPunctuation() bool {
	return g.IsCJKLeftAligned(PunctGB) || g.IsCJKRightAligned() || g.IsCJKCenterAligned(PunctGB)
}

// IsCJKLeftAligned 判断是否为靠左对齐的标点（右侧留白）。
func (g *Glyph) IsCJKLeftAligned(style CJKPunctStyle) bool {
	return isCJKLeftAlignedPunct(g.C, g.XAdvance, g.Adjust.Stretch, style)
}

// IsCJKRightAligned 判断是否为靠右对齐的标点（左侧留白）。
func (g *Glyph) IsCJKRightAligned() bool {
	return isCJKRightAlignedPunct(g.C, g.XAdvance, g.Adjust.Stretch)
}

// IsCJKCenterAligned 判断是否为居中标点。
func (g *Glyph) IsCJKCenterAligned(style CJKPunctStyle) bool {
	return isCJKCenterAlignedPunct(g.C, style)
}

// IsLetterOrNumber 判断是否为西文字母或数字。
func (g *Glyph) IsLetterOrNumber() bool {
	switch language.LookupScript(g.C) {
	case language.Latin, language.Greek, language.Cyrillic:
		return true
	}
	switch g.C {
	case '#', '$', '%', '&':
		return true
	}
	return g.C >= '0' && g.C <= '9'
}

// BaseAdjustability 返回字形的基础可调量：空格按 Knuth-Plass 取 1/2 拉伸、1/3 压缩。
func (g *Glyph) BaseAdjustability(style CJKPunctStyle) Adjustability {
	w := g.XAdvance
	switch {
	case g.IsSpace():
		return Adjustability{Stretch: [2]layout.Em{0, w / 2}, Shrink: [2]layout.Em{0, w / 3}}
	case g.IsCJKLeftAligned(style):
		return Adjustability{Shrink: [2]layout.Em{0, w / 2}}
	case g.IsCJKRightAligned():
		return Adjustability{Shrink: [2]layout.Em{w / 2, 0}}
	case g.IsCJKCenterAligned(style):
		return Adjustability{Shrink: [2]layout.Em{w / 4, w / 4}}
	default:
		return Adjustability{}
	}
}

// ShrinkLeft 压缩字形左侧。
func (g *Glyph) ShrinkLeft(amount layout.Em) {
	g.XOffset -= amount
	g.XAdvance -= amount
	g.Adjust.Shrink[0] -= amount
}

// ShrinkRight 压缩字形右侧。
func (g *Glyph) ShrinkRight(amount layout.Em) {
	g.XAdvance -= amount
	g.Adjust.Shrink[1] -= amount
}

// CJKPunctStyle 是 CJK 标点的排版规范。
type CJKPunctStyle int

const (
	// PunctGB 是 GB/T 15834-2011，主要用于中国大陆。
	PunctGB CJKPunctStyle = iota
	// PunctCNS 用于台湾与香港。
	PunctCNS
	// PunctJIS 是 JIS X 4051，用于日本。
	PunctJIS
)

// PunctStyleFor 按语言与地区选择标点规范。
func PunctStyleFor(lang, region string) CJKPunctStyle {
	switch {
	case lang == "zh" && (region == "TW" || region == "HK"):
		return PunctCNS
	case lang == "ja":
		return PunctJIS
	default:
		return PunctGB
	}
}

// 可以出现在行首与行尾的 CJK 标点。
var (
	BeginPunct = []rune{'“', '‘', '《', '〈', '（', '『', '「', '【', '〖', '〔', '［', '｛'}
	EndPunct   = []rune{
		'”', '’', '，', '．', '。', '、', '：', '；', '》', '〉', '）', '』', '」', '】',
		'〗', '〕', '］', '｝', '？', '！',
	}
)

// IsBeginPunct 判断 r 是否为行首标点。
func IsBeginPunct(r rune) bool { return containsRune(BeginPunct, r) }

// IsEndPunct 判断 r 是否为行尾标点。
func IsEndPunct(r rune) bool { return containsRune(EndPunct, r) }

func containsRune(set []rune, r rune) bool {
	for _, c := range set {
		if c == r {
			return true
		}
	}
	return false
}

func isSpace(c rune) bool { return c == ' ' || c == '\u00a0' || c == '\u3000' }

// IsOfCJScript 判断字符是否属于中日文字。
func IsOfCJScript(c rune) bool { return isCJScript(c, language.LookupScript(c)) }

func isCJScript(c rune, script language.Script) bool {
	switch script {
	case language.Hiragana, language.Katakana, language.Han:
		return true
	}
	return c == 'ー'
}

func isCJKLeftAlignedPunct(c rune, adv layout.Em, stretch [2]layout.Em, style CJKPunctStyle) bool {
	// 中西文引号共用码位，只有全角的才算 CJK 标点
	if (c == '”' || c == '’') && adv+stretch[1] == 1 {
		return true
	}
	switch c {
	case '，', '。', '．', '、', '：', '；':
		if style == PunctGB || style == PunctJIS {
			return true
		}
	case '？', '！':
		if style == PunctGB {
			return true
		}
	}
	switch c {
	case '》', '）', '』', '」', '】', '〗', '〕', '〉', '］', '｝':
		return true
	}
	return false
}

func isCJKRightAlignedPunct(c rune, adv layout.Em, stretch [2]layout.Em) bool {
	if (c == '“' || c == '‘') && adv+stretch[0] == 1 {
		return true
	}
	switch c {
	case '《', '（', '『', '「', '【', '〖', '〔', '〈', '［', '｛':
		return true
	}
	return false
}

func isCJKCenterAlignedPunct(c rune, style CJKPunctStyle) bool {
	if style == PunctCNS {
		switch c {
		case '，', '。', '．', '、', '：', '；':
			return true
		}
	}
	return c == '・' || c == '·'
}

func isJustifiable(c rune, script language.Script, adv layout.Em, stretch [2]layout.Em) bool {
	return isSpace(c) ||
		isCJScript(c, script) ||
		isCJKLeftAlignedPunct(c, adv, stretch, PunctGB) ||
		isCJKRightAlignedPunct(c, adv, stretch) ||
		isCJKCenterAlignedPunct(c, PunctGB)
}

// IsDefaultIgnorable 判断字符是否为默认可忽略字符（软连字符、零宽字符等）。
func IsDefaultIgnorable(r rune) bool {
	if unicode.Is(unicode.Other_Default_Ignorable_Code_Point, r) || unicode.Is(unicode.Variation_Selector, r) {
		return true
	}
	if !unicode.Is(unicode.Cf, r) {
		return false
	}
	switch {
	case r >= 0x0600 && r <= 0x0605, r == 0x06DD, r == 0x070F, r == 0x08E2, r == 0x110BD,
		r >= 0xFFF9 && r <= 0xFFFB, r >= 0x13430 && r <= 0x1343F:
		return false
	}
	return true
}
