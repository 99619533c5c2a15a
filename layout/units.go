package layout

import (
	"strconv"
	"strings"
)

// 本文件负责 DSL 中长度字面量的解析与单位换算，内核统一使用 pt。

// Unit 记录长度在 DSL 中书写时的原始单位。
type Unit int

const (
	UnitNone    Unit = iota // 无单位数字，例如比例因子
	UnitMM                  // 毫米
	UnitCM                  // 厘米
	UnitIN                  // 英寸
	UnitPT                  // 点
	UnitEM                  // 相对字号
	UnitPercent             // 百分比
	UnitFR                  // 分数
)

// pt 与 mm 的换算常量。
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

var unitSuffixes = []struct {
	s string
	u Unit
}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}, {"em", UnitEM}, {"fr", UnitFR}, {"%", UnitPercent}}

// UnitToString 返回单位的简写。
func UnitToString(u Unit) string {
	for _, suf := range unitSuffixes {
		if suf.u == u {
			return suf.s
		}
	}
	return ""
}

// Length 保留数值与原始单位。
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// IsAbsolute 判断是否为可以直接换算成 pt 的长度。
func (l Length) IsAbsolute() bool {
	switch l.Unit {
	case UnitMM, UnitCM, UnitIN, UnitPT, UnitNone:
		return true
	default:
		return false
	}
}

// To 将长度换算为目标单位，仅支持 UnitMM 与 UnitPT。
func (l Length) To(target Unit) float64 {
	var mm float64
	switch l.Unit {
	case UnitMM:
		mm = l.Value
	case UnitCM:
		mm = l.Value * 10
	case UnitIN:
		mm = l.Value * 25.4
	case UnitPT:
		if target == UnitPT {
			return l.Value
		}
		return l.Value * PtToMm
	default:
		// 无单位的数字按 pt 处理
		if target == UnitMM {
			return l.Value * PtToMm
		}
		return l.Value
	}
	if target == UnitPT {
		return mm * MmToPt
	}
	return mm
}

func (l Length) ToMM() float64 { return l.To(UnitMM) }
func (l Length) ToPT() float64 { return l.To(UnitPT) }

// Rel 把长度解析为 Rel，em 按 fontSize 换算；分数长度返回 false。
func (l Length) Rel(fontSize Abs) (Rel, bool) {
	switch l.Unit {
	case UnitFR:
		return Rel{}, false
	case UnitPercent:
		return Rel{Rel: Ratio(l.Value / 100)}, true
	case UnitEM:
		return Rel{Abs: Em(l.Value).At(fontSize)}, true
	default:
		return Rel{Abs: Abs(l.ToPT())}, true
	}
}

// Spacing 把长度解析为间距，fr 单位得到分数间距。
func (l Length) Spacing(fontSize Abs) Spacing {
	if l.Unit == UnitFR {
		return FrSpacing(Fr(l.Value))
	}
	rel, _ := l.Rel(fontSize)
	return RelSpacing(rel)
}

// Sizing 把长度解析为尺寸描述。
func (l Length) Sizing(fontSize Abs) Sizing {
	if l.Unit == UnitFR {
		return Sizing{Kind: SizingFr, Fr: Fr(l.Value)}
	}
	rel, _ := l.Rel(fontSize)
	return Sizing{Kind: SizingRel, Rel: rel}
}

// ParseRawLengthStr 解析 DSL 长度字符串并保留单位，解析失败时 ok 为 false。
func ParseRawLengthStr(value string) (Length, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return Length{}, false
	}
	lower := strings.ToLower(v)
	unit := UnitNone
	num := lower
	for _, suf := range unitSuffixes {
		if strings.HasSuffix(lower, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(lower, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, false
	}
	return Length{Value: f, Unit: unit}, true
}
