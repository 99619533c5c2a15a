package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/quire/fonts"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/renderer"
)

// markerSize 是调试标记的边长，单位 mm。
const markerSize = 1.2

// Renderer 通过 github.com/tdewolff/canvas 把排版结果绘制成 PDF。
// 排版结果的坐标单位是 pt，canvas 使用 mm，绘制时在边界换算。
type Renderer struct {
	baseDir string
	markers bool

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily
}

var _ renderer.Renderer = (*Renderer)(nil)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options 配置渲染器。
type Options struct {
	// BaseDir 是相对字体路径的起点。
	BaseDir string
	// Markers 为真时在定位标签处画出小方块。
	Markers bool
}

// NewRenderer 创建渲染器。
func NewRenderer(opts Options) *Renderer {
	return &Renderer{
		baseDir:      opts.BaseDir,
		markers:      opts.Markers,
		fontFamilies: map[string]*fontFamilyEntry{},
	}
}

// Render 把排版结果渲染为 PDF 字节。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	first := result.Pages[0]
	writer := pdf.New(&buf, toMm(first.Width), toMm(first.Height), nil)
	applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(toMm(page.Width), toMm(page.Height))
		}
		c := canvas.New(toMm(page.Width), toMm(page.Height))
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与排版结果一致，左上角为原点

		if err := r.drawPage(ctx, page, result.Fonts); err != nil {
			return nil, fmt.Errorf("第 %d 页: %w", i+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, resources map[string]layout.FontResource) error {
	// 形状作为背景先画
	r.drawRects(ctx, page.Rects)
	for _, tb := range page.Texts {
		if err := r.drawTextBox(ctx, tb, resolveFontResource(tb.Font, resources)); err != nil {
			return err
		}
	}
	if r.markers {
		r.drawMarkers(ctx, page.Markers)
	}
	return nil
}

// drawTextBox 在基线处绘制一个词，位置已由排版确定。
func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox, fontRes layout.FontResource) error {
	if tb.Content == "" {
		return nil
	}
	face, err := r.fontFace(fontRes, tb.FontSize, tb.Color)
	if err != nil {
		return err
	}
	line := canvas.NewTextLine(face, tb.Content, canvas.Left)
	ctx.DrawText(toMm(tb.X), toMm(tb.Y), line)
	return nil
}

func (r *Renderer) drawRects(ctx *canvas.Context, rects []layout.Rect) {
	for _, rc := range rects {
		if rc.FillColor != nil {
			ctx.SetFillColor(colorFromLayout(*rc.FillColor))
		} else {
			ctx.SetFillColor(color.RGBA{})
		}
		if rc.StrokeColor != nil && rc.StrokeWidth > 0 {
			ctx.SetStrokeColor(colorFromLayout(*rc.StrokeColor))
			ctx.SetStrokeWidth(toMm(rc.StrokeWidth))
		} else {
			ctx.SetStrokeColor(color.RGBA{})
			ctx.SetStrokeWidth(0)
		}
		ctx.DrawPath(toMm(rc.X), toMm(rc.Y), canvas.Rectangle(toMm(rc.Width), toMm(rc.Height)))
	}
}

// drawMarkers 用红色方块标出开始标签，蓝色标出结束标签。
func (r *Renderer) drawMarkers(ctx *canvas.Context, markers []layout.Marker) {
	ctx.SetStrokeColor(color.RGBA{})
	ctx.SetStrokeWidth(0)
	for _, m := range markers {
		if m.Start {
			ctx.SetFillColor(color.RGBA{R: 0xdd, A: 0xff})
		} else {
			ctx.SetFillColor(color.RGBA{B: 0xdd, A: 0xff})
		}
		ctx.DrawPath(toMm(m.X)-markerSize/2, toMm(m.Y)-markerSize/2, canvas.Rectangle(markerSize, markerSize))
	}
}

func (r *Renderer) fontFace(font layout.FontResource, sizePt float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(sizePt, colorFromLayout(col), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	familyName := font.Family
	if familyName == "" {
		familyName = font.Name
	}
	family := canvas.NewFontFamily(familyName)

	if err := r.loadFontIntoFamily(family, font, style); err != nil {
		fallback, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: canvas.FontRegular}
		return fallback, canvas.FontRegular, nil
	}

	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	if font.Src == "" {
		return fmt.Errorf("字体 %s 缺少 src", font.Name)
	}
	data, err := fonts.Load(font.Src, r.baseDir)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

// fallback 在调用方持有 fontMu 时调用。
func (r *Renderer) fallback() (*canvas.FontFamily, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, nil
	}
	data, err := fonts.Load("builtin:"+fonts.Fallback, "")
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("quire-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	r.fallbackFamily = family
	return family, nil
}

// resolveFontResource 按族名查找字体，找不到时使用内置字体。
func resolveFontResource(name string, resources map[string]layout.FontResource) layout.FontResource {
	if font, ok := resources[name]; ok {
		return font
	}
	return layout.FontResource{Name: fonts.Fallback, Family: fonts.Fallback, Src: "builtin:" + fonts.Fallback}
}

func parseFontStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	var result canvas.FontStyle
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	default:
		result = canvas.FontRegular
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, float64(c.A)/255.0)
}

// toMm 将点(pt)转换为毫米(mm)。
func toMm(pt float64) float64 { return pt * layout.PtToMm }
