package realize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
)

// value 是命令参数或赋值右侧的一个值，统一成原始文本加记号类型。
type value struct {
	raw  string
	kind string
	span layout.Span
}

func lexemeValue(l *dsl.Lexeme) value {
	return value{raw: l.Value, kind: l.Type, span: dsl.SpanOf(l.Pos)}
}

func assignmentValue(a *dsl.Assignment, span layout.Span) value {
	v := a.Value
	kind := "Ident"
	switch {
	case v.String != nil:
		kind = "String"
	case v.Number != nil:
		kind = "Number"
	case v.Color != nil:
		kind = "Color"
	}
	return value{raw: strings.TrimSpace(v.Text()), kind: kind, span: span}
}

func (v value) invalid(what string) error {
	return fmt.Errorf("%s: %w: %q 不是有效的%s", v.span, ErrInvalidValue, v.raw, what)
}

func (v value) length() (layout.Length, error) {
	l, ok := layout.ParseRawLengthStr(v.raw)
	if !ok || v.kind == "String" {
		return layout.Length{}, v.invalid("长度")
	}
	return l, nil
}

// styleLength 解析可以写进样式的长度：绝对长度或 em。
func (v value) styleLength() (style.Length, error) {
	l, err := v.length()
	if err != nil {
		return style.Length{}, err
	}
	switch {
	case l.Unit == layout.UnitEM:
		return style.Ems(l.Value), nil
	case l.IsAbsolute():
		return style.Pt(l.ToPT()), nil
	}
	return style.Length{}, v.invalid("绝对长度")
}

func (v value) abs(fontSize layout.Abs) (layout.Abs, error) {
	l, err := v.length()
	if err != nil {
		return 0, err
	}
	switch {
	case l.Unit == layout.UnitEM:
		return layout.Em(l.Value).At(fontSize), nil
	case l.IsAbsolute():
		return layout.Abs(l.ToPT()), nil
	}
	return 0, v.invalid("绝对长度")
}

func (v value) rel(fontSize layout.Abs) (layout.Rel, error) {
	l, err := v.length()
	if err != nil {
		return layout.Rel{}, err
	}
	rel, ok := l.Rel(fontSize)
	if !ok {
		return layout.Rel{}, v.invalid("相对长度")
	}
	return rel, nil
}

func (v value) spacing(fontSize layout.Abs) (layout.Spacing, error) {
	l, err := v.length()
	if err != nil {
		return layout.Spacing{}, err
	}
	return l.Spacing(fontSize), nil
}

func (v value) sizing(fontSize layout.Abs) (layout.Sizing, error) {
	if v.raw == "auto" {
		return layout.Sizing{}, nil
	}
	l, err := v.length()
	if err != nil {
		return layout.Sizing{}, err
	}
	return l.Sizing(fontSize), nil
}

func (v value) boolean() (bool, error) {
	switch strings.ToLower(v.raw) {
	case "true", "yes", "on":
		return true, nil
	case "false", "no", "off":
		return false, nil
	}
	return false, v.invalid("布尔值")
}

func (v value) smartBool() (layout.Smart[bool], error) {
	if v.raw == "auto" {
		return layout.Auto[bool](), nil
	}
	b, err := v.boolean()
	if err != nil {
		return layout.Smart[bool]{}, err
	}
	return layout.Custom(b), nil
}

var namedColors = map[string]layout.Color{
	"black": layout.Black,
	"white": {R: 255, G: 255, B: 255, A: 255},
	"gray":  {R: 170, G: 170, B: 170, A: 255},
	"red":   {R: 255, G: 65, B: 54, A: 255},
	"blue":  {R: 0, G: 116, B: 217, A: 255},
}

func (v value) color() (layout.Color, error) {
	if c, ok := namedColors[strings.ToLower(v.raw)]; ok {
		return c, nil
	}
	c, err := parseColor(v.raw)
	if err != nil {
		return layout.Color{}, v.invalid("颜色")
	}
	return c, nil
}

func parseColor(raw string) (layout.Color, error) {
	if !strings.HasPrefix(raw, "#") {
		return layout.Color{}, fmt.Errorf("颜色值 %s 缺少 # 前缀", raw)
	}
	hex := raw[1:]
	if len(hex) == 3 {
		hex = strings.Repeat(hex[0:1], 2) + strings.Repeat(hex[1:2], 2) + strings.Repeat(hex[2:3], 2)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return layout.Color{}, fmt.Errorf("颜色值 %s 无法解析", raw)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return layout.Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", raw, err)
	}
	return layout.Color{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// align 解析 left、bottom-center 这类写法，两个分量的顺序不限。
func (v value) align() (layout.Align, error) {
	var out layout.Align
	for _, part := range strings.Split(strings.ToLower(v.raw), "-") {
		switch part {
		case "start":
			out.X = layout.HAlignStart
		case "left":
			out.X = layout.HAlignLeft
		case "center":
			out.X = layout.HAlignCenter
		case "right":
			out.X = layout.HAlignRight
		case "end":
			out.X = layout.HAlignEnd
		case "top":
			out.Y = layout.VAlignTop
		case "horizon":
			out.Y = layout.VAlignHorizon
		case "bottom":
			out.Y = layout.VAlignBottom
		default:
			return layout.Align{}, v.invalid("对齐方式")
		}
	}
	return out, nil
}

func (v value) dir() (layout.Smart[layout.Dir], error) {
	switch strings.ToLower(v.raw) {
	case "auto":
		return layout.Auto[layout.Dir](), nil
	case "ltr":
		return layout.Custom(layout.DirLTR), nil
	case "rtl":
		return layout.Custom(layout.DirRTL), nil
	}
	return layout.Smart[layout.Dir]{}, v.invalid("文字方向")
}
