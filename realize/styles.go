package realize

import (
	"fmt"
	"strings"

	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
)

// property 把一条样式设置转换为样式属性。fontSize 是当前生效的字号，用于解析 size 中的 em。
func property(key string, v value, fontSize layout.Abs) (style.Property, error) {
	switch key {
	case "size":
		abs, err := v.abs(fontSize)
		if err != nil {
			return style.Property{}, err
		}
		return style.FontSize.Set(abs), nil
	case "font":
		return style.Font.Set(v.raw), nil
	case "fill", "color":
		c, err := v.color()
		if err != nil {
			return style.Property{}, err
		}
		return style.Fill.Set(c), nil
	case "lang":
		return style.Lang.Set(strings.ToLower(v.raw)), nil
	case "region":
		return style.Region.Set(strings.ToUpper(v.raw)), nil
	case "dir":
		d, err := v.dir()
		if err != nil {
			return style.Property{}, err
		}
		return style.Dir.Set(d), nil
	case "hyphenate":
		b, err := v.smartBool()
		if err != nil {
			return style.Property{}, err
		}
		return style.Hyphenate.Set(b), nil
	case "justify":
		return boolProperty(style.Justify, v)
	case "overhang":
		return boolProperty(style.Overhang, v)
	case "cjk-latin-spacing":
		return boolProperty(style.CJKLatinSpacing, v)
	case "breakable":
		return boolProperty(style.BlockBreakable, v)
	case "sticky":
		return boolProperty(style.BlockSticky, v)
	case "linebreaks":
		lb, err := linebreaks(v)
		if err != nil {
			return style.Property{}, err
		}
		return style.Linebreaking.Set(lb), nil
	case "leading":
		return lengthProperty(style.Leading, v)
	case "spacing":
		return lengthProperty(style.ParSpacing, v)
	case "hanging":
		return lengthProperty(style.HangingIndent, v)
	case "indent":
		l, err := v.styleLength()
		if err != nil {
			return style.Property{}, err
		}
		return style.FirstIndent.Set(style.FirstLineIndent{Amount: l}), nil
	case "indent-all":
		l, err := v.styleLength()
		if err != nil {
			return style.Property{}, err
		}
		return style.FirstIndent.Set(style.FirstLineIndent{Amount: l, All: true}), nil
	case "numbering":
		if v.raw == "none" || v.raw == "" {
			return style.Numbering.Set(nil), nil
		}
		return style.Numbering.Set(&style.LineNumbering{Pattern: v.raw}), nil
	case "align":
		a, err := v.align()
		if err != nil {
			return style.Property{}, err
		}
		return style.Alignment.Set(a), nil
	case "above", "below":
		s, err := v.spacing(fontSize)
		if err != nil {
			return style.Property{}, err
		}
		if key == "above" {
			return style.BlockAbove.Set(layout.Custom(s)), nil
		}
		return style.BlockBelow.Set(layout.Custom(s)), nil
	case "hyphenation-cost", "runt-cost", "widow-cost", "orphan-cost":
		r, err := ratio(v)
		if err != nil {
			return style.Property{}, err
		}
		var costs style.Costs
		switch key {
		case "hyphenation-cost":
			costs.Hyphenation = &r
		case "runt-cost":
			costs.Runt = &r
		case "widow-cost":
			costs.Widow = &r
		default:
			costs.Orphan = &r
		}
		return style.TextCosts.Set(costs), nil
	}
	return style.Property{}, fmt.Errorf("%s: %w: %s", v.span, ErrUnknownProperty, key)
}

func boolProperty(k style.Key[bool], v value) (style.Property, error) {
	b, err := v.boolean()
	if err != nil {
		return style.Property{}, err
	}
	return k.Set(b), nil
}

func lengthProperty(k style.Key[style.Length], v value) (style.Property, error) {
	l, err := v.styleLength()
	if err != nil {
		return style.Property{}, err
	}
	return k.Set(l), nil
}

func linebreaks(v value) (style.Linebreaks, error) {
	switch strings.ToLower(v.raw) {
	case "auto":
		return style.LinebreaksAuto, nil
	case "simple":
		return style.LinebreaksSimple, nil
	case "optimized":
		return style.LinebreaksOptimized, nil
	}
	return style.LinebreaksAuto, v.invalid("换行算法")
}

// ratio 解析百分比，无单位的数字按比例本身处理。
func ratio(v value) (layout.Ratio, error) {
	l, err := v.length()
	if err != nil {
		return 0, err
	}
	switch l.Unit {
	case layout.UnitPercent:
		return layout.Ratio(l.Value / 100), nil
	case layout.UnitNone:
		return layout.Ratio(l.Value), nil
	}
	return 0, v.invalid("比例")
}
