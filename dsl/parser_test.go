package dsl_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/quire/dsl"
)

const sampleDSL = `
doc Report v1 {
  meta {
    title: "Quarterly"
    keywords: [
      "finance"
      "internal"
    ]
  }

  styles {
    style body { size: 11pt; justify: true }
    style small {
      size: 9pt
    }
  }

  flow {
    par style body {
      "Hello, ${user.name}!"
      text size 9pt { "small" }
      h 5pt
      linebreak
    }
    v 12pt
    v 1fr weak
    block height 40pt breakable false fill #eee inset 4pt {
      par { "inside" }
    }
    place align bottom-center clearance 5pt dx -3pt float {
      par { "note" }
    }
    colbreak
    pagebreak weak
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}

	if doc.Name != "Report" {
		t.Fatalf("文档名应为 Report，实际为 %s", doc.Name)
	}
	if doc.Version != "v1" {
		t.Fatalf("版本应为 v1，实际为 %s", doc.Version)
	}
	if len(doc.Sections) != 3 {
		t.Fatalf("应有 3 个分节，实际为 %d", len(doc.Sections))
	}
	kinds := []string{doc.Sections[0].Kind(), doc.Sections[1].Kind(), doc.Sections[2].Kind()}
	assert.Equal(t, []string{"meta", "styles", "flow"}, kinds)

	meta := doc.Sections[0].Meta
	require.NotNil(t, meta)
	title := meta.Block.Statements[0].Assignment
	if title == nil || title.Key != "title" {
		t.Fatalf("缺少 title 赋值: %+v", meta.Block.Statements[0])
	}
	assert.Equal(t, "Quarterly", title.Value.Text())
	keywords := meta.Block.Statements[1].Assignment
	require.NotNil(t, keywords)
	assert.Equal(t, []string{"finance", "internal"}, keywords.Value.Strings())
}

func TestParseStyles(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	require.NoError(t, err)

	styles := doc.Sections[1].Styles
	require.NotNil(t, styles)
	require.Len(t, styles.Block.Statements, 2)

	body := styles.Block.Statements[0].Command
	require.NotNil(t, body)
	assert.Equal(t, "style", body.Name)
	require.Len(t, body.Args, 1)
	assert.Equal(t, "body", body.Args[0].Value)
	require.NotNil(t, body.Block)
	require.Len(t, body.Block.Statements, 2)
	assert.Equal(t, "size", body.Block.Statements[0].Assignment.Key)
	assert.Equal(t, "11pt", body.Block.Statements[0].Assignment.Value.Text())
	assert.Equal(t, "true", body.Block.Statements[1].Assignment.Value.Text())
}

func TestParseFlow(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	require.NoError(t, err)

	flow := doc.Sections[2].Flow
	require.NotNil(t, flow)

	var names []string
	for _, stmt := range flow.Block.Statements {
		require.NotNil(t, stmt.Command, "flow 中只应有命令")
		names = append(names, stmt.Command.Name)
	}
	assert.Equal(t, []string{"par", "v", "v", "block", "place", "colbreak", "pagebreak"}, names)

	par := flow.Block.Statements[0].Command
	require.NotNil(t, par.Block)
	require.Len(t, par.Block.Statements, 4)
	assert.Equal(t, "Hello, ${user.name}!", par.Block.Text())
	assert.Equal(t, "text", par.Block.Statements[1].Command.Name)
	assert.Equal(t, "small", par.Block.Statements[1].Command.Block.Text())
	assert.Equal(t, "linebreak", par.Block.Statements[3].Command.Name)

	span := par.Span()
	assert.Equal(t, 19, span.Line)
	assert.Equal(t, 5, span.Column)
}

func TestSplitArgs(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	require.NoError(t, err)
	stmts := doc.Sections[2].Flow.Block.Statements

	v, err := stmts[1].Command.Split()
	require.NoError(t, err)
	require.Len(t, v.Positional, 1)
	assert.Equal(t, "12pt", v.Positional[0].Value)
	assert.Empty(t, v.Named)

	weak, err := stmts[2].Command.Split()
	require.NoError(t, err)
	assert.Equal(t, "1fr", weak.Positional[0].Value)
	flag, ok := weak.Get("weak")
	require.True(t, ok)
	assert.Equal(t, "true", flag.Value)

	block, err := stmts[3].Command.Split()
	require.NoError(t, err)
	assert.Equal(t, []string{"height", "breakable", "fill", "inset"}, block.Order)
	assert.Equal(t, "#eee", block.Named["fill"].Value)
	assert.Equal(t, "false", block.Named["breakable"].Value)

	place, err := stmts[4].Command.Split()
	require.NoError(t, err)
	assert.Equal(t, "bottom-center", place.Named["align"].Value)
	assert.Equal(t, "5pt", place.Named["clearance"].Value)
	assert.Equal(t, "true", place.Named["float"].Value)
	assert.Equal(t, "-3pt", place.Named["dx"].Value)
	assert.Equal(t, "Number", place.Named["dx"].Type)
}

func TestSplitArgsRejectsDuplicates(t *testing.T) {
	doc, err := dsl.ParseString(`doc D v1 {
  flow {
    block height 10pt height 20pt
  }
}`)
	require.NoError(t, err)
	_, err = doc.Sections[0].Flow.Block.Statements[0].Command.Split()
	if err == nil || !strings.Contains(err.Error(), "重复") {
		t.Fatalf("重复参数应当报错，实际为 %v", err)
	}
}

func TestParseReportsPosition(t *testing.T) {
	_, err := dsl.Parse("broken.qr", strings.NewReader("doc D v1 {\n  flow {\n"))
	if err == nil {
		t.Fatalf("未闭合的块应当报错")
	}
	if !strings.Contains(err.Error(), "broken.qr") {
		t.Fatalf("错误中应包含文件名: %v", err)
	}
}
