// Package realize 把解析后的 DSL 文档转换成排版内核消费的元素序列。
//
// 每个元素的样式链只包含它自己设置的属性，相对于所在容器；容器的样式在排版时才接到外侧。
// flow 中连续的行内内容会被收进隐式段落。文字中的 ${path} 按数据展开。
package realize

import (
	"fmt"
	"strings"

	"github.com/ByLCY/quire/binding"
	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/element"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
)

// Document 是转换后的文档。
type Document struct {
	Name    string
	Meta    layout.DocumentMeta
	Content []element.Pair
	// Warnings 记录无法解析的数据绑定等不影响排版的问题。
	Warnings []layout.Warning
}

// Options 控制转换过程。
type Options struct {
	// Data 是 ${path} 占位符的数据来源，通常由 JSON 解码得到。
	Data any
	// Styles 是文档的根样式，只用来解析 em 等依赖上下文的单位，不会写进结果。
	Styles style.Chain
}

// Realize 转换整篇文档。
func Realize(doc *dsl.Document, opts Options) (*Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("realize: 文档为空")
	}
	r := &realizer{
		data:   opts.Data,
		named:  map[string][]setting{},
		labels: layout.RootLocator().Split(),
	}
	out := &Document{Name: doc.Name, Meta: layout.DocumentMeta{Creator: "quire"}}

	var flows []*dsl.FlowSection
	for _, section := range doc.Sections {
		switch {
		case section.Meta != nil:
			r.meta(section.Meta.Block, &out.Meta)
		case section.Styles != nil:
			if err := r.styles(section.Styles.Block); err != nil {
				return nil, err
			}
		case section.Flow != nil:
			flows = append(flows, section.Flow)
		}
	}
	if len(flows) == 0 {
		return nil, ErrNoFlow
	}
	for _, f := range flows {
		content, err := r.flow(f.Block, opts.Styles, true)
		if err != nil {
			return nil, err
		}
		out.Content = append(out.Content, content...)
	}
	out.Warnings = r.warnings
	return out, nil
}

type setting struct {
	key string
	val value
}

type realizer struct {
	data     any
	named    map[string][]setting
	labels   *layout.SplitLocator
	warnings []layout.Warning
}

func (r *realizer) meta(block *dsl.Block, meta *layout.DocumentMeta) {
	if block == nil {
		return
	}
	for _, stmt := range block.Statements {
		a := stmt.Assignment
		if a == nil {
			continue
		}
		switch strings.ToLower(a.Key) {
		case "title":
			meta.Title = binding.Interpolate(a.Value.Text(), r.data)
		case "author":
			meta.Author = binding.Interpolate(a.Value.Text(), r.data)
		case "subject":
			meta.Subject = binding.Interpolate(a.Value.Text(), r.data)
		case "creator":
			meta.Creator = binding.Interpolate(a.Value.Text(), r.data)
		case "keywords":
			meta.Keywords = a.Value.Strings()
		}
	}
}

// styles 收集具名样式。style 定义可以引用之前定义的样式。
func (r *realizer) styles(block *dsl.Block) error {
	if block == nil {
		return nil
	}
	for _, stmt := range block.Statements {
		cmd := stmt.Command
		if cmd == nil || cmd.Name != "style" {
			continue
		}
		if len(cmd.Args) == 0 || cmd.Args[0].Type != "Ident" {
			return fmt.Errorf("%s: style 需要一个名称", cmd.Span())
		}
		name := cmd.Args[0].Value
		// 名称之后的参数按键值对处理
		rest := *cmd
		rest.Args = cmd.Args[1:]
		args, err := rest.Split()
		if err != nil {
			return err
		}
		if len(args.Positional) != 0 {
			return fmt.Errorf("%s: style %s 的参数 %q 应当是键名", cmd.Span(), name, args.Positional[0].Raw)
		}
		var settings []setting
		for _, key := range args.Order {
			settings = append(settings, setting{key: key, val: lexemeValue(args.Named[key])})
		}
		if cmd.Block != nil {
			for _, inner := range cmd.Block.Statements {
				if inner.Assignment == nil {
					continue
				}
				settings = append(settings, setting{
					key: inner.Assignment.Key,
					val: assignmentValue(inner.Assignment, dsl.SpanOf(inner.Assignment.Pos)),
				})
			}
		}
		// 展开引用的样式，保存的设置里不再含有 style
		var flat []setting
		for _, s := range settings {
			if s.key != "style" {
				flat = append(flat, s)
				continue
			}
			base, ok := r.named[s.val.raw]
			if !ok {
				return fmt.Errorf("%s: %w: %s", s.val.span, ErrUnknownStyle, s.val.raw)
			}
			flat = append(flat, base...)
		}
		r.named[name] = flat
	}
	return nil
}

// resolve 把一组设置转换为样式属性，outer 用来解析 em。
func (r *realizer) resolve(settings []setting, outer style.Chain, props []style.Property) ([]style.Property, error) {
	for _, s := range settings {
		if s.key == "style" {
			named, ok := r.named[s.val.raw]
			if !ok {
				return nil, fmt.Errorf("%s: %w: %s", s.val.span, ErrUnknownStyle, s.val.raw)
			}
			for _, ns := range named {
				p, err := property(ns.key, ns.val, style.Get(outer.With(props...), style.FontSize))
				if err != nil {
					return nil, err
				}
				props = append(props, p)
			}
			continue
		}
		size := style.Get(outer.With(props...), style.FontSize)
		p, err := property(s.key, s.val, size)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, nil
}

// command 是拆分参数后的命令。fields 是元素自身的字段，其余参数都是样式。
type command struct {
	cmd    *dsl.Command
	args   dsl.Args
	fields map[string]value
	local  style.Chain
	full   style.Chain
}

func (c *command) span() layout.Span { return c.cmd.Span() }

func (c *command) base() element.Base { return element.Base{At: c.span()} }

func (c *command) fontSize() layout.Abs { return style.Get(c.full, style.FontSize) }

func (c *command) field(key string) (value, bool) {
	v, ok := c.fields[key]
	return v, ok
}

func (c *command) flag(key string) (bool, error) {
	v, ok := c.fields[key]
	if !ok {
		return false, nil
	}
	return v.boolean()
}

func (c *command) amount() (value, error) {
	if len(c.args.Positional) != 1 {
		return value{}, fmt.Errorf("%s: %w: %s 需要一个长度参数", c.span(), ErrInvalidValue, c.cmd.Name)
	}
	return lexemeValue(c.args.Positional[0]), nil
}

// elementFields 列出每种命令自己的字段。
var elementFields = map[string][]string{
	"par":       {"label"},
	"text":      nil,
	"space":     nil,
	"linebreak": {"justify"},
	"h":         {"weak"},
	"v":         {"weak"},
	"box":       {"width", "height", "inset", "baseline", "fill", "stroke", "thickness", "label"},
	"block":     {"width", "height", "inset", "fill", "stroke", "thickness", "label"},
	"place":     {"align", "float", "scope", "clearance", "dx", "dy", "label"},
	"flush":     nil,
	"colbreak":  {"weak"},
	"pagebreak": {"weak"},
}

func (r *realizer) split(cmd *dsl.Command, outer style.Chain) (*command, error) {
	args, err := cmd.Split()
	if err != nil {
		return nil, err
	}
	c := &command{cmd: cmd, args: args, fields: map[string]value{}}
	own := map[string]bool{}
	for _, f := range elementFields[cmd.Name] {
		own[f] = true
	}
	var settings []setting
	for _, key := range args.Order {
		v := lexemeValue(args.Named[key])
		if own[key] {
			c.fields[key] = v
			continue
		}
		settings = append(settings, setting{key: key, val: v})
	}
	props, err := r.resolve(settings, outer, nil)
	if err != nil {
		return nil, err
	}
	c.local = style.New(props...)
	c.full = outer.Chained(c.local)
	return c, nil
}

// item 是转换过程中的一个元素，inline 表示它能出现在段落里。
type item struct {
	pair   element.Pair
	inline bool
	tag    bool
}

// flow 转换一串块级内容。root 为真或内容中混有块级元素时，行内内容收进隐式段落。
func (r *realizer) flow(block *dsl.Block, outer style.Chain, root bool) ([]element.Pair, error) {
	items, err := r.seq(block, outer)
	if err != nil {
		return nil, err
	}
	if !root && allInline(items) {
		return pairs(items), nil
	}
	return wrap(items), nil
}

func (r *realizer) seq(block *dsl.Block, outer style.Chain) ([]item, error) {
	if block == nil {
		return nil, nil
	}
	var items []item
	lastText := false
	for _, stmt := range block.Statements {
		switch {
		case stmt.Text != nil:
			if lastText {
				items = append(items, item{pair: element.Pair{Elem: element.Space{Base: element.Base{At: dsl.SpanOf(stmt.Text.Pos)}}}, inline: true})
			}
			items = append(items, r.text(string(stmt.Text.Value), dsl.SpanOf(stmt.Text.Pos)))
			lastText = true
			continue
		case stmt.Command != nil:
			out, err := r.command(stmt.Command, outer)
			if err != nil {
				return nil, err
			}
			items = append(items, out...)
		case stmt.Assignment != nil:
			r.warn(dsl.SpanOf(stmt.Assignment.Pos), "assignment "+stmt.Assignment.Key+" is not allowed here and was ignored")
		}
		lastText = false
	}
	return items, nil
}

func (r *realizer) text(raw string, span layout.Span) item {
	expanded, missing := binding.Expand(raw, r.data)
	for _, path := range missing {
		r.warn(span, "unresolved binding ${"+path+"}")
	}
	return item{pair: element.Pair{Elem: element.Text{Base: element.Base{At: span}, Text: expanded}}, inline: true}
}

func (r *realizer) warn(span layout.Span, msg string) {
	r.warnings = append(r.warnings, layout.Warning{Span: span, Message: msg})
}

func (r *realizer) command(cmd *dsl.Command, outer style.Chain) ([]item, error) {
	if _, known := elementFields[cmd.Name]; !known {
		return []item{{pair: element.Pair{Elem: element.Opaque{Base: element.Base{At: cmd.Span()}, Kind: cmd.Name}}}}, nil
	}
	c, err := r.split(cmd, outer)
	if err != nil {
		return nil, err
	}

	switch cmd.Name {
	case "text":
		return r.textCommand(c)
	case "par":
		children, err := r.inline(c)
		if err != nil {
			return nil, err
		}
		par := element.Par{Base: c.base(), Children: children}
		return r.labeled(c, item{pair: element.Pair{Elem: par, Styles: c.local}})
	case "space":
		return []item{{pair: element.Pair{Elem: element.Space{Base: c.base()}, Styles: c.local}, inline: true}}, nil
	case "linebreak":
		justify, err := c.flag("justify")
		if err != nil {
			return nil, err
		}
		lb := element.Linebreak{Base: c.base(), Justify: justify}
		return []item{{pair: element.Pair{Elem: lb, Styles: c.local}, inline: true}}, nil
	case "h", "v":
		return r.spacing(c)
	case "box":
		return r.box(c)
	case "block":
		return r.block(c)
	case "place":
		return r.place(c)
	case "flush":
		return []item{{pair: element.Pair{Elem: element.Flush{Base: c.base()}, Styles: c.local}}}, nil
	case "colbreak":
		weak, err := c.flag("weak")
		if err != nil {
			return nil, err
		}
		return []item{{pair: element.Pair{Elem: element.Colbreak{Base: c.base(), Weak: weak}, Styles: c.local}}}, nil
	default:
		weak, err := c.flag("weak")
		if err != nil {
			return nil, err
		}
		return []item{{pair: element.Pair{Elem: element.Pagebreak{Base: c.base(), Weak: weak}, Styles: c.local}}}, nil
	}
}

// inline 转换段落或文字命令的正文，位置参数中的字符串排在正文之前。
func (r *realizer) inline(c *command) ([]element.Pair, error) {
	var items []item
	for i, l := range c.args.Positional {
		if l.Type != "String" {
			return nil, fmt.Errorf("%s: %w: %s 的位置参数只能是字符串", dsl.SpanOf(l.Pos), ErrInvalidValue, c.cmd.Name)
		}
		if i > 0 {
			items = append(items, item{pair: element.Pair{Elem: element.Space{Base: element.Base{At: dsl.SpanOf(l.Pos)}}}, inline: true})
		}
		items = append(items, r.text(l.Value, dsl.SpanOf(l.Pos)))
	}
	body, err := r.seq(c.cmd.Block, c.full)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 && len(body) > 0 {
		items = append(items, item{pair: element.Pair{Elem: element.Space{Base: c.base()}}, inline: true})
	}
	return pairs(append(items, body...)), nil
}

// textCommand 把样式接到每个子元素的内侧，不产生容器。
func (r *realizer) textCommand(c *command) ([]item, error) {
	children, err := r.inline(c)
	if err != nil {
		return nil, err
	}
	out := make([]item, 0, len(children))
	for _, child := range children {
		out = append(out, item{
			pair:   element.Pair{Elem: child.Elem, Styles: c.local.Chained(child.Styles)},
			inline: isInline(child.Elem),
			tag:    isTag(child.Elem),
		})
	}
	return out, nil
}

func (r *realizer) spacing(c *command) ([]item, error) {
	raw, err := c.amount()
	if err != nil {
		return nil, err
	}
	amount, err := raw.spacing(c.fontSize())
	if err != nil {
		return nil, err
	}
	weak, err := c.flag("weak")
	if err != nil {
		return nil, err
	}
	if c.cmd.Name == "h" {
		h := element.H{Base: c.base(), Amount: amount, Weak: weak}
		return []item{{pair: element.Pair{Elem: h, Styles: c.local}, inline: true}}, nil
	}
	v := element.V{Base: c.base(), Amount: amount, Weak: weak}
	return []item{{pair: element.Pair{Elem: v, Styles: c.local}}}, nil
}

// frameFields 是 block 与 box 共有的字段。
type frameFields struct {
	width, height layout.Sizing
	inset         layout.Inset
	fill          *layout.Color
	stroke        *layout.Stroke
}

func (c *command) frameFields() (frameFields, error) {
	var out frameFields
	var err error
	size := c.fontSize()
	if v, ok := c.field("width"); ok {
		if out.width, err = v.sizing(size); err != nil {
			return out, err
		}
	}
	if v, ok := c.field("height"); ok {
		if out.height, err = v.sizing(size); err != nil {
			return out, err
		}
	}
	if v, ok := c.field("inset"); ok {
		rel, err := v.rel(size)
		if err != nil {
			return out, err
		}
		out.inset = layout.Inset{Left: rel, Top: rel, Right: rel, Bottom: rel}
	}
	if v, ok := c.field("fill"); ok && v.raw != "none" {
		fill, err := v.color()
		if err != nil {
			return out, err
		}
		out.fill = &fill
	}
	if v, ok := c.field("stroke"); ok && v.raw != "none" {
		paint, err := v.color()
		if err != nil {
			return out, err
		}
		thickness := layout.Abs(1)
		if t, ok := c.field("thickness"); ok {
			if thickness, err = t.abs(size); err != nil {
				return out, err
			}
		}
		out.stroke = &layout.Stroke{Paint: paint, Thickness: thickness}
	}
	return out, nil
}

func (r *realizer) box(c *command) ([]item, error) {
	ff, err := c.frameFields()
	if err != nil {
		return nil, err
	}
	box := element.Box{
		Base:   c.base(),
		Width:  ff.width,
		Height: ff.height,
		Inset:  ff.inset,
		Fill:   ff.fill,
		Stroke: ff.stroke,
	}
	if v, ok := c.field("baseline"); ok {
		if box.Baseline, err = v.rel(c.fontSize()); err != nil {
			return nil, err
		}
	}
	if box.Body, err = r.flow(c.cmd.Block, c.full, false); err != nil {
		return nil, err
	}
	return r.labeled(c, item{pair: element.Pair{Elem: box, Styles: c.local}, inline: true})
}

func (r *realizer) block(c *command) ([]item, error) {
	ff, err := c.frameFields()
	if err != nil {
		return nil, err
	}
	block := element.Block{
		Base:   c.base(),
		Width:  ff.width,
		Height: ff.height,
		Inset:  ff.inset,
		Fill:   ff.fill,
		Stroke: ff.stroke,
	}
	if c.cmd.Block != nil && len(c.cmd.Block.Statements) > 0 {
		content, err := r.flow(c.cmd.Block, c.full, false)
		if err != nil {
			return nil, err
		}
		block.Body = element.BlockBody{Kind: element.BodyContent, Content: content}
	}
	return r.labeled(c, item{pair: element.Pair{Elem: block, Styles: c.local}})
}

func (r *realizer) place(c *command) ([]item, error) {
	float, err := c.flag("float")
	if err != nil {
		return nil, err
	}
	place := element.Place{Base: c.base(), Float: float, Clearance: style.Ems(1.5)}

	switch v, ok := c.field("align"); {
	case ok && v.raw != "auto":
		a, err := v.align()
		if err != nil {
			return nil, err
		}
		place.Alignment = layout.Custom(a)
	case !ok && !float:
		place.Alignment = layout.Custom(layout.Align{X: layout.HAlignStart})
	}

	if v, ok := c.field("scope"); ok {
		switch v.raw {
		case "column":
			place.Scope = element.ScopeColumn
		case "parent":
			place.Scope = element.ScopeParent
		default:
			return nil, v.invalid("作用范围")
		}
	}
	if v, ok := c.field("clearance"); ok {
		if place.Clearance, err = v.styleLength(); err != nil {
			return nil, err
		}
	}
	size := c.fontSize()
	if v, ok := c.field("dx"); ok {
		if place.Dx, err = v.rel(size); err != nil {
			return nil, err
		}
	}
	if v, ok := c.field("dy"); ok {
		if place.Dy, err = v.rel(size); err != nil {
			return nil, err
		}
	}
	if place.Body, err = r.flow(c.cmd.Block, c.full, false); err != nil {
		return nil, err
	}
	return r.labeled(c, item{pair: element.Pair{Elem: place, Styles: c.local}})
}

// labeled 在带 label 的元素前后插入定位标签。
func (r *realizer) labeled(c *command, it item) ([]item, error) {
	v, ok := c.field("label")
	if !ok {
		return []item{it}, nil
	}
	loc := r.labels.NextLocation(v.raw)
	key := layout.HashOf(v.raw)
	start := element.Tag{Base: c.base(), Tag: layout.StartTag(it.pair.Elem.Name(), loc, key)}
	end := element.Tag{Base: c.base(), Tag: layout.EndTag(loc, key)}
	return []item{
		{pair: element.Pair{Elem: start}, tag: true},
		it,
		{pair: element.Pair{Elem: end}, tag: true},
	}, nil
}

func isInline(e element.Element) bool {
	switch e.(type) {
	case element.Text, element.Space, element.Linebreak, element.H, element.Box:
		return true
	}
	return false
}

func isTag(e element.Element) bool {
	_, ok := e.(element.Tag)
	return ok
}

func allInline(items []item) bool {
	for _, it := range items {
		if !it.inline && !it.tag {
			return false
		}
	}
	return true
}

func pairs(items []item) []element.Pair {
	out := make([]element.Pair, len(items))
	for i, it := range items {
		out[i] = it.pair
	}
	return out
}

// wrap 把连续的行内元素收进隐式段落，段落首尾的空格去掉。
// 标签只在段落已经开始时并入段落，段落末尾的标签移到段落之后。
func wrap(items []item) []element.Pair {
	var out []element.Pair
	var run []item
	flush := func() {
		end := len(run)
		for end > 0 && (run[end-1].tag || isSpace(run[end-1])) {
			end--
		}
		if end > 0 {
			out = append(out, element.Pair{Elem: element.Par{Base: element.Base{At: run[0].pair.Span()}, Children: pairs(run[:end])}})
		}
		for _, it := range run[end:] {
			if it.tag {
				out = append(out, it.pair)
			}
		}
		run = nil
	}
	for _, it := range items {
		switch {
		case it.inline:
			if len(run) == 0 && isSpace(it) {
				continue
			}
			run = append(run, it)
		case it.tag && len(run) > 0:
			run = append(run, it)
		default:
			flush()
			out = append(out, it.pair)
		}
	}
	flush()
	return out
}

func isSpace(it item) bool {
	_, ok := it.pair.Elem.(element.Space)
	return ok
}
