package layout

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// 该文件定义导出用的扁平结果：把帧树展开成页面坐标下的文字与矩形，供渲染与调试 JSON 共用。

// Result 保存排版后的页面与资源信息，坐标单位为 pt，原点在页面左上角。
type Result struct {
	Pages    []Page                  `json:"pages"`
	Fonts    map[string]FontResource `json:"fonts"`
	Warnings []Warning               `json:"warnings,omitempty"`
	Meta     DocumentMeta            `json:"meta"`
}

// FontResource 描述字体资源，src 可以是文件路径、embed:* 或 builtin:* 形式。
type FontResource struct {
	Name   string `json:"name"`
	Src    string `json:"src"`
	Style  string `json:"style"`
	Family string `json:"family"` // 渲染器使用的 Family 名称
}

// Page 记录页面尺寸以及可以直接绘制的元素。
type Page struct {
	Width   float64   `json:"width"`
	Height  float64   `json:"height"`
	Texts   []TextBox `json:"texts"`
	Rects   []Rect    `json:"rects,omitempty"`
	Markers []Marker  `json:"markers,omitempty"`
}

// TextBox 是一段已定位的文字，Y 为基线位置。
type TextBox struct {
	Content  string  `json:"content"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Font     string  `json:"font"`
	FontSize float64 `json:"fontSize"`
	Color    Color   `json:"color"`
	Lang     string  `json:"lang,omitempty"`
}

// Rect 表示一个矩形（不包含圆角）。
type Rect struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	StrokeColor *Color  `json:"strokeColor,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	FillColor   *Color  `json:"fillColor,omitempty"` // 为空表示不填充
}

// Marker 是展开后的定位标签。
type Marker struct {
	Start bool     `json:"start"`
	Elem  string   `json:"elem,omitempty"`
	Loc   Location `json:"loc"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}

// FlattenPage 把一个页面帧展开为 Page，margin 为帧在页面中的偏移。
func FlattenPage(frame Frame, margin Sides[Abs]) Page {
	page := Page{
		Width:  float64(frame.Width() + margin.Left + margin.Right),
		Height: float64(frame.Height() + margin.Top + margin.Bottom),
	}
	flattenInto(&page, &frame, Point{X: margin.Left, Y: margin.Top})
	return page
}

func flattenInto(page *Page, frame *Frame, origin Point) {
	for _, it := range frame.Items() {
		pos := origin.Add(it.Pos)
		switch item := it.Item.(type) {
		case GroupItem:
			flattenInto(page, &item.Frame, pos)
		case TextItem:
			page.Texts = append(page.Texts, splitWords(item, pos)...)
		case ShapeItem:
			rect := Rect{
				X:         float64(pos.X),
				Y:         float64(pos.Y),
				Width:     float64(item.Size.X),
				Height:    float64(item.Size.Y),
				FillColor: item.Fill,
			}
			if item.Stroke != nil {
				paint := item.Stroke.Paint
				rect.StrokeColor = &paint
				rect.StrokeWidth = float64(item.Stroke.Thickness)
			}
			page.Rects = append(page.Rects, rect)
		case TagItem:
			page.Markers = append(page.Markers, Marker{
				Start: item.Tag.Kind == TagStart,
				Elem:  item.Tag.Elem,
				Loc:   item.Tag.Loc,
				X:     float64(pos.X),
				Y:     float64(pos.Y),
			})
		}
	}
}

// splitWords 在空白字形处把一段文字切成多个词，保留两端对齐后的字形间距。
func splitWords(item TextItem, pos Point) []TextBox {
	var out []TextBox
	x := pos.X
	var (
		word   strings.Builder
		wordX  = x
		wordW  Abs
		inWord bool
		last   = [2]int{-1, -1}
	)
	flush := func() {
		if !inWord {
			return
		}
		out = append(out, TextBox{
			Content:  word.String(),
			X:        float64(wordX),
			Y:        float64(pos.Y),
			Width:    float64(wordW),
			Font:     item.Font,
			FontSize: float64(item.Size),
			Color:    item.Fill,
			Lang:     item.Lang,
		})
		word.Reset()
		wordW = 0
		inWord = false
	}
	for _, g := range item.Glyphs {
		adv := g.XAdvance.At(item.Size)
		start, end := g.Range[0], g.Range[1]
		if start < 0 || end > len(item.Text) || start > end {
			start, end = 0, 0
		}
		cluster := item.Text[start:end]
		r, _ := utf8.DecodeRuneInString(cluster)
		if cluster == "" || unicode.IsSpace(r) {
			flush()
			x += adv
			continue
		}
		if !inWord {
			inWord = true
			wordX = x + g.XOffset.At(item.Size)
		}
		// 同一簇的多个字形只写一次文字
		if g.Range != last {
			word.WriteString(cluster)
			last = g.Range
		}
		wordW += adv
		x += adv
	}
	flush()
	return out
}
