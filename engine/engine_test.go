package engine

import (
	"strings"
	"testing"

	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/text"
)

func TestNestedDepthLimit(t *testing.T) {
	eng := New(&Routines{}, text.NewMonoShaper(), nil, 2)
	one, err := eng.Nested(layout.Detached())
	if err != nil {
		t.Fatalf("第一层嵌套不应出错: %v", err)
	}
	two, err := one.Nested(layout.Detached())
	if err != nil {
		t.Fatalf("第二层嵌套不应出错: %v", err)
	}
	if eng.Route.Depth() != 0 || two.Route.Depth() != 2 {
		t.Fatalf("深度应为 0 与 2，实际为 %d 与 %d", eng.Route.Depth(), two.Route.Depth())
	}
	if _, err := two.Nested(layout.Span{File: "doc.qr", Line: 3, Column: 1}); err == nil || !strings.Contains(err.Error(), "maximum layout depth exceeded") {
		t.Fatalf("超出深度应报错，实际为 %v", err)
	}
}

func TestWarnDedups(t *testing.T) {
	eng := New(&Routines{}, text.NewMonoShaper(), nil, 0)
	span := layout.Span{Line: 1, Column: 1}
	eng.Warn(span, "table was ignored during paged export")
	eng.Warn(span, "table was ignored during paged export")
	if n := len(eng.Sink.Warnings()); n != 1 {
		t.Fatalf("重复警告应去重，实际 %d 条", n)
	}
}
