package dsl

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/quire/layout"
)

// Args 是拆分后的命令参数。
type Args struct {
	// Positional 是第一个标识符之前的参数，例如 v 12pt 中的 12pt。
	Positional []*Lexeme
	Named      map[string]*Lexeme
	// Order 记录键出现的顺序。
	Order []string
}

// Get 返回键对应的值。
func (a Args) Get(key string) (*Lexeme, bool) {
	l, ok := a.Named[key]
	return l, ok
}

// Split 把命令参数拆成位置参数与键值对。键后面紧跟一个值；
// 最后一个键没有值时视为 true，例如 pagebreak weak。
// 负号与后面的数字合并为一个参数。
func (c *Command) Split() (Args, error) {
	args := Args{Named: map[string]*Lexeme{}}
	lexemes := mergeSigns(c.Args)

	i := 0
	for i < len(lexemes) && lexemes[i].Type != "Ident" {
		args.Positional = append(args.Positional, lexemes[i])
		i++
	}
	for i < len(lexemes) {
		key := lexemes[i]
		if key.Type != "Ident" {
			return args, fmt.Errorf("%s: %s 的参数 %q 应当是键名", position(key.Pos), c.Name, key.Raw)
		}
		if _, dup := args.Named[key.Value]; dup {
			return args, fmt.Errorf("%s: %s 的参数 %s 重复", position(key.Pos), c.Name, key.Value)
		}
		args.Order = append(args.Order, key.Value)
		if i+1 == len(lexemes) {
			args.Named[key.Value] = &Lexeme{Type: "Ident", Value: "true", Raw: "true", Pos: key.Pos}
			break
		}
		args.Named[key.Value] = lexemes[i+1]
		i += 2
	}
	return args, nil
}

func mergeSigns(in []*Lexeme) []*Lexeme {
	out := make([]*Lexeme, 0, len(in))
	for i := 0; i < len(in); i++ {
		l := in[i]
		if l.Type == "Symbol" && l.Value == "-" && i+1 < len(in) && in[i+1].Type == "Number" {
			next := in[i+1]
			out = append(out, &Lexeme{Type: "Number", Value: "-" + next.Value, Raw: "-" + next.Raw, Pos: l.Pos})
			i++
			continue
		}
		out = append(out, l)
	}
	return out
}

// Span 返回命令在源码中的位置。
func (c *Command) Span() layout.Span { return SpanOf(c.Pos) }

// SpanOf 把解析器位置转换为 layout.Span。
func SpanOf(pos lexer.Position) layout.Span {
	return layout.Span{File: pos.Filename, Line: pos.Line, Column: pos.Column}
}

func position(pos lexer.Position) string { return SpanOf(pos).String() }

// Text 拼接块中直接出现的字符串字面量。
func (b *Block) Text() string {
	if b == nil {
		return ""
	}
	var sb strings.Builder
	for _, stmt := range b.Statements {
		if stmt.Text != nil {
			sb.WriteString(string(stmt.Text.Value))
		}
	}
	return sb.String()
}

// Text 返回值的文本形式，数组返回空串。
func (v *Value) Text() string {
	if v == nil {
		return ""
	}
	switch {
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Expr != nil:
		var sb strings.Builder
		for _, part := range v.Expr.Parts {
			sb.WriteString(part.Value)
		}
		return sb.String()
	}
	return ""
}

// Strings 返回值中的字符串列表，单个值视为只有一项。
func (v *Value) Strings() []string {
	if v == nil {
		return nil
	}
	if v.Array != nil {
		out := make([]string, 0, len(v.Array.Values))
		for _, item := range v.Array.Values {
			if s := item.Text(); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := v.Text(); s != "" {
		return []string{s}
	}
	return nil
}
