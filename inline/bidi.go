package inline

import (
	"slices"
	"unicode/utf8"

	"golang.org/x/text/unicode/bidi"

	"github.com/ByLCY/quire/layout"
)

// 方向嵌入控制字符，文字方向与段落不同时包在文字两侧。
const (
	ltrEmbedding = "\u202a"
	rtlEmbedding = "\u202b"
	popEmbedding = "\u202c"
	ltrMark      = "\u200e"
)

// BidiInfo 保存整段文字逐字节的嵌入层级。
//
// x/text 的实现只给出方向交替的逻辑片段，这里按段落基准方向把片段换算成层级：
// LTR 段落中 RTL 片段为 1，RTL 段落中 LTR 片段为 2。
type BidiInfo struct {
	levels []uint8
	base   uint8
}

// needsBidi 判断文字是否需要双向处理。
func needsBidi(text string, dir layout.Dir) bool {
	if dir == layout.DirRTL {
		return true
	}
	for _, r := range text {
		props, _ := bidi.LookupRune(r)
		switch props.Class() {
		case bidi.R, bidi.AL, bidi.AN, bidi.RLE, bidi.RLO, bidi.RLI:
			return true
		}
	}
	return false
}

// newBidiInfo 计算双向层级，纯 LTR 文字返回 nil。
func newBidiInfo(text string, dir layout.Dir) *BidiInfo {
	if !needsBidi(text, dir) {
		return nil
	}
	info := &BidiInfo{levels: make([]uint8, len(text))}
	if dir == layout.DirRTL {
		info.base = 1
	}
	for i := range info.levels {
		info.levels[i] = info.base
	}

	for off := 0; off < len(text); {
		n := info.paragraph(text, off)
		if n <= 0 {
			n = len(text) - off
		}
		off += n
	}
	return info
}

// paragraph 处理从 off 开始的一个双向段落，返回消耗的字节数（含段落分隔符）。
func (b *BidiInfo) paragraph(text string, off int) int {
	var p bidi.Paragraph
	input := text[off:]
	shift := 0
	opts := []bidi.Option{bidi.DefaultDirection(bidi.LeftToRight)}
	if b.base == 1 {
		opts = []bidi.Option{bidi.DefaultDirection(bidi.RightToLeft)}
	} else {
		// 否则会按第一个强字符自动判断方向，在开头放一个 LRM 固定为 LTR
		input = ltrMark + input
		shift = 1
	}
	n, err := p.SetString(input, opts...)
	if err != nil {
		tracer().Errorf("bidi: %v", err)
		return len(text) - off
	}
	n -= len(input) - len(text[off:])
	order, err := p.Order()
	if err != nil {
		tracer().Errorf("bidi: %v", err)
		return n
	}

	// 字符下标到字节偏移
	starts := make([]int, 0, n)
	for i := range text[off : off+n] {
		starts = append(starts, off+i)
	}
	starts = append(starts, off+n)

	for i := 0; i < order.NumRuns(); i++ {
		run := order.Run(i)
		s, e := run.Pos()
		s, e = s-shift, e-shift+1
		s, e = max(s, 0), min(e, len(starts)-1)
		if e <= s {
			continue
		}
		level := b.base
		rtl := run.Direction() == bidi.RightToLeft
		if rtl != (b.base == 1) {
			level = b.base + 1
		}
		for j := starts[s]; j < starts[e]; j++ {
			b.levels[j] = level
		}
	}
	return n
}

// Level 返回字节偏移处的层级。
func (b *BidiInfo) Level(offset int) uint8 {
	if b == nil {
		return 0
	}
	if offset >= len(b.levels) {
		return b.base
	}
	return b.levels[offset]
}

// levelAt 在没有双向信息时返回段落方向对应的层级。
func levelAt(b *BidiInfo, offset int, dir layout.Dir) uint8 {
	if b == nil {
		if dir == layout.DirRTL {
			return 1
		}
		return 0
	}
	return b.Level(offset)
}

// visualRun 是一行中层级一致的一段，Rtl 为 true 时需要反转。
type visualRun struct {
	Range Range
	RTL   bool
}

// visualRuns 返回 [start, end) 这一行按视觉顺序排列的片段，行尾空白回到段落层级。
func (b *BidiInfo) visualRuns(text string, rng Range) []visualRun {
	if rng.Empty() {
		return nil
	}
	levels := slices.Clone(b.levels[rng.Start:rng.End])
	// 规则 L1：行尾空白与分隔符回到段落层级
	for i := len(levels); i > 0; {
		r, size := utf8.DecodeLastRuneInString(text[rng.Start : rng.Start+i])
		props, _ := bidi.LookupRune(r)
		switch props.Class() {
		case bidi.WS, bidi.B, bidi.S, bidi.BN, bidi.LRE, bidi.RLE, bidi.LRO, bidi.RLO, bidi.PDF,
			bidi.LRI, bidi.RLI, bidi.FSI, bidi.PDI:
			for j := i - size; j < i; j++ {
				levels[j] = b.base
			}
			i -= size
			continue
		}
		break
	}

	type run struct {
		rng   Range
		level uint8
	}
	var runs []run
	for i := 0; i < len(levels); {
		j := i + 1
		for j < len(levels) && levels[j] == levels[i] {
			j++
		}
		runs = append(runs, run{rng: Range{Start: rng.Start + i, End: rng.Start + j}, level: levels[i]})
		i = j
	}

	// 规则 L2：从最高层级到最低的奇数层级，依次反转连续片段
	var maxLevel, minOdd uint8 = 0, 255
	for _, r := range runs {
		maxLevel = max(maxLevel, r.level)
		if r.level%2 == 1 {
			minOdd = min(minOdd, r.level)
		}
	}
	for lvl := maxLevel; lvl >= minOdd && lvl > 0; lvl-- {
		for i := 0; i < len(runs); {
			if runs[i].level < lvl {
				i++
				continue
			}
			j := i + 1
			for j < len(runs) && runs[j].level >= lvl {
				j++
			}
			slices.Reverse(runs[i:j])
			i = j
		}
	}

	out := make([]visualRun, len(runs))
	for i, r := range runs {
		out[i] = visualRun{Range: r.rng, RTL: r.level%2 == 1}
	}
	return out
}
