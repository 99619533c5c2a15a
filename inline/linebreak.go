package inline

import (
	"math"

	"github.com/ByLCY/quire/engine"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
)

// 断行代价参数。断字代价比 Knuth-Plass 论文中的 50 高，否则断字过于频繁。
const (
	defaultHyphCost = 135.0
	defaultRuntCost = 100.0
	minRatio        = -1.0
	hyphenLimit     = 5
	overfullBadness = 1_000_000.0
)

// linebreak 按段落设置选择断行算法。
func linebreak(eng *engine.Engine, p *Preparation, width layout.Abs) []*Line {
	if p.Config.Linebreaks == style.LinebreaksOptimized {
		return linebreakOptimized(eng, p, width)
	}
	return linebreakSimple(eng, p, width)
}

// linebreakSimple 逐行贪心取最长的一行。
func linebreakSimple(eng *engine.Engine, p *Preparation, width layout.Abs) []*Line {
	lines := make([]*Line, 0, 16)
	start := 0
	var last *Line
	lastEnd := 0

	pred := func() *Line {
		if len(lines) == 0 {
			return nil
		}
		return lines[len(lines)-1]
	}

	breakpoints(p, eng.Hyphens, func(end int, bp Breakpoint) {
		attempt := line(eng, p, Range{Start: start, End: end}, bp, pred())

		// 放不下时先提交上一次能放下的尝试，再从它的结尾重新构建
		if !width.Fits(attempt.Width) && last != nil {
			lines = append(lines, last)
			start = lastEnd
			last = nil
			attempt = line(eng, p, Range{Start: start, End: end}, bp, pred())
		}

		if bp.Kind == BreakMandatory || !width.Fits(attempt.Width) {
			lines = append(lines, attempt)
			start = end
			last = nil
		} else {
			last, lastEnd = attempt, end
		}
	})

	if last != nil {
		lines = append(lines, last)
	}
	tracer().Debugf("simple linebreak: %d lines", len(lines))
	return lines
}

// costMetrics 是整段共享的代价参数。
type costMetrics struct {
	minRatio float64
	hyphCost float64
	runtCost float64
}

func computeMetrics(p *Preparation) costMetrics {
	m := costMetrics{
		hyphCost: defaultHyphCost * float64(p.Config.Costs.HyphenationCost()),
		runtCost: defaultRuntCost * float64(p.Config.Costs.RuntCost()),
	}
	if p.Config.Justify {
		m.minRatio = minRatio
	}
	return m
}

// linebreakOptimized 按 Knuth-Plass 的思路动态规划：对每个断点，在活跃的前驱中找到
// 使总代价最小的一个。
func linebreakOptimized(eng *engine.Engine, p *Preparation, width layout.Abs) []*Line {
	type tableEntry struct {
		pred  int
		total float64
		line  *Line
		end   int
	}

	metrics := computeMetrics(p)
	table := []tableEntry{{line: &Line{}}}
	active := 0
	prevEnd := 0

	breakpoints(p, eng.Hyphens, func(end int, bp Breakpoint) {
		var best *tableEntry
		for i := active; i < len(table); i++ {
			pred := table[i]
			start := pred.end
			unbreakable := prevEnd == start

			attempt := line(eng, p, Range{Start: start, End: end}, bp, pred.line)
			ratio, cost := ratioAndCost(p, metrics, width, pred.line, attempt, bp, unbreakable)

			// 过满的行：若它是活跃集中最早的起点，之后的断点也不可能从这里开始
			if ratio < metrics.minRatio && active == i {
				active++
			}

			total := pred.total + cost
			if best == nil || best.total >= total {
				best = &tableEntry{pred: i, total: total, line: attempt, end: end}
			}
		}

		// 强制断行之前的断点都不能再作为起点
		if bp.Kind == BreakMandatory {
			active = len(table)
		}
		if best != nil {
			table = append(table, *best)
		}
		prevEnd = end
	})

	var lines []*Line
	for idx := len(table) - 1; idx != 0; {
		e := table[idx]
		lines = append(lines, e.line)
		idx = e.pred
	}
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	tracer().Debugf("optimized linebreak: %d lines, cost %.2f", len(lines), table[len(table)-1].total)
	return lines
}

// ratioAndCost 计算一行的伸缩比例与代价。
func ratioAndCost(p *Preparation, m costMetrics, available layout.Abs, pred, attempt *Line, bp Breakpoint, unbreakable bool) (float64, float64) {
	ratio := rawRatio(p, available, attempt.Width, attempt.Stretchability(), attempt.Shrinkability(), attempt.Justifiables())
	cost := rawCost(m, bp, ratio, attempt.Justify, unbreakable, pred.Dash != DashNone && attempt.Dash != DashNone)
	return ratio, cost
}

// rawRatio 返回行需要的伸缩比例：小于 minRatio 表示过满，负数需要压缩，正数需要拉伸。
func rawRatio(p *Preparation, available, width, stretch, shrink layout.Abs, justifiables int) float64 {
	delta := available - width
	if delta.ApproxEq(0) {
		delta = 0
	}
	adjust := stretch
	if delta < 0 {
		adjust = shrink
	}
	ratio := float64(delta) / float64(adjust.Max(0))
	// 0/0 说明行已经正好放满
	if math.IsNaN(ratio) {
		ratio = 0
	}
	// 超出自然拉伸量时按可对齐字形平摊，以半个 em 归一化
	if ratio > 1 {
		extra := float64(delta-adjust) / float64(max(justifiables, 1))
		ratio = 1 + extra/(float64(p.Config.FontSize)/2)
	}
	return math.Max(minRatio-1, math.Min(ratio, 10))
}

// rawCost 按 Knuth-Plass 的公式 (1 + 劣度 + 惩罚)² 计算代价。
func rawCost(m costMetrics, bp Breakpoint, ratio float64, justify, unbreakable, consecutiveDash bool) float64 {
	var badness float64
	switch {
	case ratio < m.minRatio:
		badness = overfullBadness
	case bp.Kind != BreakMandatory || justify || ratio < 0:
		badness = 100 * math.Pow(math.Abs(ratio), 3)
	}

	var penalty float64
	// 强制断行前只剩一个词
	if unbreakable && bp.Kind == BreakMandatory {
		penalty += m.runtCost
	}
	if bp.Kind == BreakHyphen {
		// 离词首词尾越近惩罚越重，每少一个字符加 15%
		steps := max(hyphenLimit-bp.Left, 0) + max(hyphenLimit-bp.Right, 0)
		penalty += (1 + 0.15*float64(steps)) * m.hyphCost
	}
	if consecutiveDash {
		penalty += m.hyphCost
	}
	return math.Pow(1+badness+penalty, 2)
}
