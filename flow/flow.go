// Package flow 把一串块级元素收集成有序的 Child 序列，供区域填充器消费。
//
// 段落在收集时就完成断行，块和浮动元素则延迟到拿到具体区域时再排版，
// 其结果缓存在各自的 Child 中，重复测量同一区域不会重复计算。
package flow

import (
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace { return tracing.Select("quire.flow") }

// Mode 决定收集器如何解释子元素。
type Mode int

const (
	// ModeRoot 是页面级的流。
	ModeRoot Mode = iota
	// ModeBlock 是块内部的流。
	ModeBlock
	// ModeInline 表示子元素全部是行内内容，整体作为一段排版。
	ModeInline
)

func (m Mode) String() string {
	switch m {
	case ModeRoot:
		return "root"
	case ModeBlock:
		return "block"
	case ModeInline:
		return "inline"
	}
	return "unknown"
}
