package inline

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-text/typesetting/segmenter"

	"github.com/ByLCY/quire/style"
	"github.com/ByLCY/quire/text"
)

// BreakKind 是断行机会的种类。
type BreakKind int

const (
	// BreakNormal 是普通的断行机会。
	BreakNormal BreakKind = iota
	// BreakMandatory 是强制断行，例如换行符与文字末尾。
	BreakMandatory
	// BreakHyphen 是单词内部的断字点。
	BreakHyphen
)

// Breakpoint 是一个断行机会。断字点记录前后的字符数，用于计算惩罚。
type Breakpoint struct {
	Kind        BreakKind
	Left, Right int
}

// Trim 去掉行尾不参与排版的字符：总是去掉默认可忽略字符，普通断点再去掉空白，
// 强制断点去掉换行符。
func (b Breakpoint) Trim(line string) string {
	line = strings.TrimRightFunc(line, text.IsDefaultIgnorable)
	switch b.Kind {
	case BreakNormal:
		return strings.TrimRightFunc(line, unicode.IsSpace)
	case BreakMandatory:
		return strings.TrimRightFunc(line, isLinebreak)
	default:
		return line
	}
}

// isLinebreak 判断字符是否属于换行类（BK、CR、LF、NL）。
func isLinebreak(c rune) bool {
	switch c {
	case '\n', '\r', '\u000b', '\u000c', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// isGlue 判断字符是否禁止在其后断行。
func isGlue(c rune) bool {
	switch c {
	case '\u00a0', '\u202f', '\u2007', '\u2060', '\ufeff', '\u200d', '\u034f', '\u180e':
		return true
	}
	return false
}

// breakpoints 依次对每个断行机会调用 f。
func breakpoints(p *Preparation, hyphens *text.Dictionaries, f func(offset int, bp Breakpoint)) {
	txt := p.Text
	if txt == "" {
		f(0, Breakpoint{Kind: BreakMandatory})
		return
	}

	runes := []rune(txt)
	offsets := make([]int, 0, len(runes)+1)
	for i := range txt {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(txt))

	var seg segmenter.Segmenter
	seg.Init(runes)
	words := alphabeticWords(&seg, offsets)
	hyphenate := p.Config.Hyphenate == nil || *p.Config.Hyphenate

	last := 0
	iter := seg.LineIterator()
	for iter.Next() {
		line := iter.Line()
		point := offsets[line.Offset+len(line.Text)]
		if point == 0 {
			continue
		}

		// 网址在 UAX #14 下断得不好，单独处理
		if head, tail := txt[:last], txt[last:]; strings.HasSuffix(head, "://") || strings.HasPrefix(tail, "www.") {
			link := linkPrefix(tail)
			linebreakLink(link, func(i int) { f(last+i, Breakpoint{Kind: BreakNormal}) })
			last += len(link)
			if point < last {
				continue
			}
		}

		c, _ := utf8.DecodeLastRuneInString(txt[:point])
		bp := Breakpoint{Kind: BreakNormal}
		switch {
		case point == len(txt):
			bp.Kind = BreakMandatory
		case isGlue(c):
			continue
		case isLinebreak(c) || line.IsMandatoryBreak:
			bp.Kind = BreakMandatory
		}

		if hyphenate && last < point {
			for len(words) > 0 && words[0].Start < point {
				w := words[0]
				if w.End > point {
					break
				}
				words = words[1:]
				if w.Start >= last {
					hyphenations(p, hyphens, w, f)
				}
			}
		}

		f(point, bp)
		last = point
	}
}

// alphabeticWords 返回全部由字母组成的单词的字节区间。
func alphabeticWords(seg *segmenter.Segmenter, offsets []int) []Range {
	var out []Range
	iter := seg.WordIterator()
	for iter.Next() {
		w := iter.Word()
		alpha := len(w.Text) > 0
		for _, c := range w.Text {
			if !unicode.IsLetter(c) {
				alpha = false
				break
			}
		}
		if alpha {
			out = append(out, Range{Start: offsets[w.Offset], End: offsets[w.Offset+len(w.Text)]})
		}
	}
	return out
}

// hyphenations 为单词内部的断字点调用 f。
func hyphenations(p *Preparation, hyphens *text.Dictionaries, w Range, f func(int, Breakpoint)) {
	h, ok := hyphens.Lookup(langAt(p, w.Start))
	if !ok {
		return
	}
	word := p.Text[w.Start:w.End]
	count := utf8.RuneCountInString(word)
	for _, off := range text.HyphenOffsets(h, word) {
		at := w.Start + off
		// 最后一个音节之后不断字
		if at >= w.End || !hyphenateAt(p, at) {
			continue
		}
		prev, _ := utf8.DecodeLastRuneInString(word[:off])
		if isGlue(prev) {
			continue
		}
		l := utf8.RuneCountInString(word[:off])
		f(at, Breakpoint{Kind: BreakHyphen, Left: l, Right: count - l})
	}
}

// hyphenateAt 判断 offset 处是否允许断字。
func hyphenateAt(p *Preparation, offset int) bool {
	if p.Config.Hyphenate != nil {
		return *p.Config.Hyphenate
	}
	if e := p.Get(offset); e != nil {
		if t, ok := e.Item.(Text); ok {
			return style.ResolveHyphenate(t.Shaped.Styles)
		}
	}
	return false
}

// langAt 返回 offset 处文字的语言。
func langAt(p *Preparation, offset int) string {
	if p.Config.Lang != nil {
		return *p.Config.Lang
	}
	if e := p.Get(offset); e != nil {
		if t, ok := e.Item.(Text); ok {
			return t.Shaped.Lang
		}
	}
	return ""
}

// linkPrefix 返回 s 开头看起来像网址的部分。
func linkPrefix(s string) string {
	end := 0
	for i, c := range s {
		if unicode.IsSpace(c) || strings.ContainsRune("<>\"`{}|\\^", c) {
			break
		}
		end = i + utf8.RuneLen(c)
	}
	link := s[:end]
	// 末尾的标点一般不属于网址
	return strings.TrimRight(link, ".,;:!?'\")]")
}

type linkClass int

const (
	linkAlphabetic linkClass = iota
	linkDigit
	linkOpen
	linkOther
)

func classOf(c rune) linkClass {
	switch {
	case unicode.IsLetter(c):
		return linkAlphabetic
	case unicode.IsNumber(c):
		return linkDigit
	case c == '(' || c == '[':
		return linkOpen
	default:
		return linkOther
	}
}

// linebreakLink 在网址内部给出断行机会：符号之间、字母与数字交替处，开括号前后不断。
func linebreakLink(link string, f func(int)) {
	offset := 0
	prev := linkOther
	for end, c := range link {
		class := classOf(c)
		var change bool
		if class == linkOther {
			change = prev == linkOther
		} else {
			change = class != prev
		}
		if end > 0 && prev != linkOpen && change {
			piece := link[offset:end]
			if len(piece) < 16 {
				offset = end
				f(offset)
			} else {
				// 很长的片段（例如哈希）允许在每个字符后断开
				for _, pc := range piece {
					offset += utf8.RuneLen(pc)
					f(offset)
				}
			}
		}
		prev = class
	}
}
