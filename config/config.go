// Package config 读取排版配置：页面区域、默认文字样式、字体来源、断字词典与嵌套深度上限。
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml"

	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
)

// ErrInvalidLength 表示配置中的长度无法解析为绝对长度。
var ErrInvalidLength = errors.New("config: invalid length")

// Config 是完整的排版配置。
type Config struct {
	Page PageSettings `toml:"page"`
	Text TextSettings `toml:"text"`
	// Fonts 把字体族名映射到来源，builtin: 前缀表示内置字体，其余按文件路径读取。
	Fonts map[string]string `toml:"fonts"`
	// Hyphenation 把语言映射到 TeX 断字模式文件。
	Hyphenation map[string]string `toml:"hyphenation"`
	Limits      LimitSettings     `toml:"limits"`
}

// PageSettings 描述页面与内容区域。
type PageSettings struct {
	Width  string `toml:"width"`
	Height string `toml:"height"`
	Margin string `toml:"margin"`
	// Backlog 是之后各区域的内容高度，用完后重复第一页的高度。
	Backlog []string `toml:"backlog"`
}

type TextSettings struct {
	Font       string `toml:"font"`
	Size       string `toml:"size"`
	Lang       string `toml:"lang"`
	Justify    bool   `toml:"justify"`
	Linebreaks string `toml:"linebreaks"`
}

type LimitSettings struct {
	MaxDepth int `toml:"max-depth"`
}

// Default 返回 A4 纸、2.5cm 边距、11pt 字号的默认配置。
func Default() *Config {
	return &Config{
		Page: PageSettings{
			Width:  "210mm",
			Height: "297mm",
			Margin: "25mm",
		},
		Text: TextSettings{
			Font:       "Go",
			Size:       "11pt",
			Lang:       "en",
			Linebreaks: "auto",
		},
		Fonts: map[string]string{
			"Go":      "builtin:Go",
			"Go-Bold": "builtin:Go-Bold",
			"Go-Mono": "builtin:Go-Mono",
		},
		Hyphenation: map[string]string{},
		Limits:      LimitSettings{MaxDepth: layout.MaxLayoutDepth},
	}
}

// Load 读取 TOML 配置文件，未出现的字段保留默认值。
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开配置文件 %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode 从 r 解码配置。
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return cfg, nil
}

// Regions 返回内容区域序列与页边距。所有页面的内容区域都要撑满。
func (c *Config) Regions() (layout.Regions, layout.Sides[layout.Abs], error) {
	var margin layout.Sides[layout.Abs]
	width, err := absLength(c.Page.Width)
	if err != nil {
		return layout.Regions{}, margin, err
	}
	height, err := absLength(c.Page.Height)
	if err != nil {
		return layout.Regions{}, margin, err
	}
	m, err := absLength(c.Page.Margin)
	if err != nil {
		return layout.Regions{}, margin, err
	}
	margin = layout.Sides[layout.Abs]{Left: m, Top: m, Right: m, Bottom: m}

	size := layout.Size{X: width - 2*m, Y: height - 2*m}
	regions := layout.RepeatRegion(size, layout.Splat(true))
	for _, raw := range c.Page.Backlog {
		h, err := absLength(raw)
		if err != nil {
			return layout.Regions{}, margin, err
		}
		regions.Backlog = append(regions.Backlog, h)
	}
	return regions, margin, nil
}

// Styles 返回文档的根样式链。
func (c *Config) Styles() (style.Chain, error) {
	size, err := absLength(c.Text.Size)
	if err != nil {
		return style.Chain{}, err
	}
	props := []style.Property{
		style.FontSize.Set(size),
		style.Justify.Set(c.Text.Justify),
		style.Linebreaking.Set(ParseLinebreaks(c.Text.Linebreaks)),
	}
	if c.Text.Font != "" {
		props = append(props, style.Font.Set(c.Text.Font))
	}
	if c.Text.Lang != "" {
		props = append(props, style.Lang.Set(c.Text.Lang))
	}
	return style.New(props...), nil
}

// MaxDepth 返回嵌套排版的深度上限。
func (c *Config) MaxDepth() int {
	if c.Limits.MaxDepth <= 0 {
		return layout.MaxLayoutDepth
	}
	return c.Limits.MaxDepth
}

// ParseLinebreaks 解析换行算法名，无法识别时为 auto。
func ParseLinebreaks(v string) style.Linebreaks {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "simple":
		return style.LinebreaksSimple
	case "optimized":
		return style.LinebreaksOptimized
	}
	return style.LinebreaksAuto
}

func absLength(raw string) (layout.Abs, error) {
	l, ok := layout.ParseRawLengthStr(raw)
	if !ok || !l.IsAbsolute() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLength, raw)
	}
	return layout.Abs(l.ToPT()), nil
}

// Sample 返回带注释的示例配置。
func Sample() string {
	return `# quire 排版配置
[page]
width = "210mm"
height = "297mm"
margin = "25mm"
# 之后各页的内容高度，用完后重复第一页
#backlog = ["200mm"]

[text]
font = "Go"
size = "11pt"
lang = "en"
justify = false
# auto、simple 或 optimized
linebreaks = "auto"

[fonts]
Go = "builtin:Go"
#Body = "fonts/Body-Regular.ttf"

[hyphenation]
#en = "patterns/hyph-en-us.tex"

[limits]
max-depth = 72
`
}
