package layout

import (
	"fmt"
	"strings"
	"sync"
)

// MaxLayoutDepth 是嵌套排版的最大深度。
const MaxLayoutDepth = 72

// Span 指向 DSL 源码中的位置。
type Span struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Detached 返回不指向任何源码的位置。
func Detached() Span { return Span{} }

func (s Span) IsDetached() bool { return s.Line == 0 }

func (s Span) String() string {
	if s.IsDetached() {
		return "<detached>"
	}
	if s.File != "" {
		return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// SourceError 是带源码位置与提示的排版错误。
type SourceError struct {
	Span    Span
	Message string
	Hints   []string
}

func (e *SourceError) Error() string {
	var b strings.Builder
	if !e.Span.IsDetached() {
		b.WriteString(e.Span.String())
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	for _, h := range e.Hints {
		b.WriteString("\n  hint: ")
		b.WriteString(h)
	}
	return b.String()
}

// Bail 构造一个 SourceError。
func Bail(span Span, msg string, hints ...string) error {
	return &SourceError{Span: span, Message: msg, Hints: hints}
}

// Warning 是不会中断排版的诊断信息。
type Warning struct {
	Span    Span     `json:"span"`
	Message string   `json:"message"`
	Hints   []string `json:"hints,omitempty"`
}

func (w Warning) String() string {
	if w.Span.IsDetached() {
		return w.Message
	}
	return w.Span.String() + ": " + w.Message
}

// Sink 收集排版过程中的警告，可被多个调用方共享。
type Sink struct {
	mu       sync.Mutex
	warnings []Warning
}

// Warn 记录一条警告，重复的警告只保留一次。
func (s *Sink) Warn(w Warning) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, prev := range s.warnings {
		if prev.Span == w.Span && prev.Message == w.Message {
			return
		}
	}
	s.warnings = append(s.warnings, w)
}

// Warnings 返回已记录警告的副本。
func (s *Sink) Warnings() []Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Warning(nil), s.warnings...)
}

// Route 记录当前的嵌套排版深度。
type Route struct {
	depth int
	limit int
}

// NewRoute 创建指定上限的深度计数器，limit<=0 时使用 MaxLayoutDepth。
func NewRoute(limit int) Route {
	if limit <= 0 {
		limit = MaxLayoutDepth
	}
	return Route{limit: limit}
}

// Depth 返回当前深度。
func (r Route) Depth() int { return r.depth }

// Enter 进入一层嵌套排版，超出上限时返回错误。
func (r Route) Enter(span Span) (Route, error) {
	limit := r.limit
	if limit <= 0 {
		limit = MaxLayoutDepth
	}
	if r.depth+1 > limit {
		return r, Bail(span, "maximum layout depth exceeded",
			"try to reduce the amount of nesting in your layout")
	}
	return Route{depth: r.depth + 1, limit: limit}, nil
}
