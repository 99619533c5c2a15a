// Package text 是排版内核的字形塑形层。
//
// 内核只通过 Shaper 接口与字体打交道：HarfbuzzShaper 基于 go-text/typesetting
// 做真实字体塑形，MonoShaper 是一个确定性的等宽实现，用于测试与无字体环境。
// ShapedText 在此之上负责两端对齐的可调量、按安全断点切片以及连字符插入。
package text

import (
	"sync/atomic"
	"unicode"

	"github.com/go-text/typesetting/language"
	"github.com/npillmayer/schuko/tracing"

	"github.com/ByLCY/quire/layout"
)

func tracer() tracing.Trace { return tracing.Select("quire.text") }

// Request 是一次塑形请求。Text 是整段文字中从 Base 字节处开始的一段。
type Request struct {
	Base   int
	Text   string
	Dir    layout.Dir
	Lang   string
	Region string
	Font   string
}

// Raw 是塑形器的原始输出：字形按视觉顺序排列，区间为整段文字中的绝对字节区间，
// 可调量尚未计算。
type Raw struct {
	Glyphs  []Glyph
	Ascent  layout.Em
	Descent layout.Em
}

// Shaper 把一段文字塑形为字形序列。
type Shaper interface {
	Shape(req Request) Raw
	// Glyph 查询单个字符的字形与前进宽度，字体中没有该字符时 ok 为 false。
	Glyph(font string, r rune) (id uint16, advance layout.Em, ok bool)
	// Metrics 返回字体的上升与下降高度，空文字也需要行高。
	Metrics(font string) (ascent, descent layout.Em)
}

// MonoShaper 是确定性的等宽塑形器：中日文字与全角字符宽 1em，其余字符宽 0.5em，
// 上升 0.8em、下降 0.2em，每个字形都可以安全断开。
type MonoShaper struct {
	calls atomic.Int64
}

// NewMonoShaper 创建等宽塑形器。
func NewMonoShaper() *MonoShaper { return &MonoShaper{} }

// Calls 返回 Shape 被调用的次数。
func (m *MonoShaper) Calls() int { return int(m.calls.Load()) }

// MonoAdvance 返回等宽塑形器中字符的前进宽度。
func MonoAdvance(r rune) layout.Em {
	if IsOfCJScript(r) || isWide(r) {
		return 1
	}
	return 0.5
}

func isWide(r rune) bool {
	switch {
	case r >= 0x3000 && r <= 0x303F, r >= 0xFF01 && r <= 0xFF60, r >= 0xFFE0 && r <= 0xFFE6:
		return true
	case r >= 0xAC00 && r <= 0xD7A3:
		return true
	}
	return r == '・'
}

func (m *MonoShaper) Shape(req Request) Raw {
	m.calls.Add(1)
	out := Raw{Ascent: 0.8, Descent: 0.2}
	for i, r := range req.Text {
		if r == '\n' || r == '\r' || r == '\t' || IsDefaultIgnorable(r) {
			continue
		}
		out.Glyphs = append(out.Glyphs, Glyph{
			ID:          uint16(r),
			XAdvance:    MonoAdvance(r),
			Start:       req.Base + i,
			End:         req.Base + i + len(string(r)),
			SafeToBreak: true,
			C:           r,
			Script:      language.LookupScript(r),
		})
	}
	if req.Dir == layout.DirRTL {
		reverseGlyphs(out.Glyphs)
	}
	tracer().Debugf("mono shape %q: %d glyphs", req.Text, len(out.Glyphs))
	return out
}

func (m *MonoShaper) Glyph(_ string, r rune) (uint16, layout.Em, bool) {
	if !unicode.IsPrint(r) {
		return 0, 0, false
	}
	return uint16(r), MonoAdvance(r), true
}

func (m *MonoShaper) Metrics(string) (layout.Em, layout.Em) { return 0.8, 0.2 }

func reverseGlyphs(glyphs []Glyph) {
	for i, j := 0, len(glyphs)-1; i < j; i, j = i+1, j-1 {
		glyphs[i], glyphs[j] = glyphs[j], glyphs[i]
	}
}
