package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/npillmayer/schuko/tracing"
	"github.com/ogier/pflag"

	"github.com/ByLCY/quire/config"
	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/engine"
	"github.com/ByLCY/quire/fonts"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/pager"
	"github.com/ByLCY/quire/realize"
	"github.com/ByLCY/quire/renderer"
	canvasrenderer "github.com/ByLCY/quire/renderer/canvas"
	"github.com/ByLCY/quire/text"
)

var traceKeys = []string{"quire.flow", "quire.inline", "quire.pager", "quire.text"}

type options struct {
	input      string
	output     string
	configPath string
	data       string
	dataFile   string
	debug      string
	frames     string
	format     string
	markers    bool
}

func main() {
	var opts options
	pflag.StringVarP(&opts.input, "in", "i", "examples/demo.quire", "DSL 文件路径")
	pflag.StringVarP(&opts.output, "out", "o", "output/demo.pdf", "输出路径")
	pflag.StringVarP(&opts.configPath, "config", "c", "", "TOML 配置文件路径")
	pflag.StringVarP(&opts.data, "data", "d", "", "绑定到 DSL 的 JSON 数据")
	pflag.StringVar(&opts.dataFile, "data-file", "", "绑定到 DSL 的 JSON 数据文件")
	pflag.StringVar(&opts.debug, "debug", "", "展开后的页面调试 JSON 输出路径")
	pflag.StringVar(&opts.frames, "frames", "", "帧树调试 JSON 输出路径")
	pflag.StringVarP(&opts.format, "format", "f", "pdf", "输出格式：pdf 或 json")
	pflag.BoolVar(&opts.markers, "markers", false, "在 PDF 中标出定位标签")
	verbose := pflag.BoolP("verbose", "v", false, "输出排版内核的调试信息")
	printConfig := pflag.Bool("print-config", false, "打印示例配置后退出")
	pflag.Parse()

	if *printConfig {
		fmt.Print(config.Sample())
		return
	}
	if *verbose {
		for _, key := range traceKeys {
			tracing.Select(key).SetTraceLevel(tracing.LevelDebug)
		}
	}

	result, err := run(opts)
	if err != nil {
		log.Fatalf("生成失败: %v", err)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	fmt.Printf("已生成 %d 页：%s\n", len(result.Pages), opts.output)
}

// run 串联配置、解析、转换、排版与渲染。
func run(opts options) (*layout.Result, error) {
	cfg, baseDir, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	data, err := loadData(opts)
	if err != nil {
		return nil, err
	}

	regions, margin, err := cfg.Regions()
	if err != nil {
		return nil, err
	}
	styles, err := cfg.Styles()
	if err != nil {
		return nil, err
	}
	shaper, resources, err := loadFonts(cfg, baseDir)
	if err != nil {
		return nil, err
	}
	hyphens := text.NewDictionaries()
	for lang, path := range cfg.Hyphenation {
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		if err := hyphens.LoadFile(lang, path); err != nil {
			return nil, fmt.Errorf("加载断字词典 %s 失败: %w", lang, err)
		}
	}

	file, err := os.Open(opts.input)
	if err != nil {
		return nil, fmt.Errorf("无法打开 DSL 文件 %s: %w", opts.input, err)
	}
	defer file.Close()
	doc, err := dsl.Parse(opts.input, file)
	if err != nil {
		return nil, fmt.Errorf("解析 DSL 失败: %w", err)
	}
	realized, err := realize.Realize(doc, realize.Options{Data: data, Styles: styles})
	if err != nil {
		return nil, err
	}

	eng := engine.New(pager.Routines(), shaper, hyphens, cfg.MaxDepth())
	frames, err := pager.Paginate(eng, realized.Content, styles, regions)
	if err != nil {
		return nil, fmt.Errorf("排版失败: %w", err)
	}

	result := &layout.Result{Fonts: resources, Meta: realized.Meta}
	for _, frame := range frames {
		result.Pages = append(result.Pages, layout.FlattenPage(frame, margin))
	}
	result.Warnings = append(realized.Warnings, eng.Sink.Warnings()...)

	if opts.frames != "" {
		if err := ensureDir(opts.frames); err != nil {
			return nil, err
		}
		if err := layout.WriteFrameDebugJSON(frames, opts.frames); err != nil {
			return nil, fmt.Errorf("输出帧树 JSON 失败: %w", err)
		}
	}
	if opts.debug != "" {
		if err := ensureDir(opts.debug); err != nil {
			return nil, err
		}
		if err := layout.WriteDebugJSON(result, opts.debug); err != nil {
			return nil, fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}

	var r renderer.Renderer
	switch opts.format {
	case "json":
		r = renderer.JSON{}
	case "pdf":
		r = canvasrenderer.NewRenderer(canvasrenderer.Options{BaseDir: baseDir, Markers: opts.markers})
	default:
		return nil, fmt.Errorf("不支持的输出格式 %q", opts.format)
	}
	out, err := r.Render(result)
	if err != nil {
		return nil, fmt.Errorf("渲染失败: %w", err)
	}
	if err := ensureDir(opts.output); err != nil {
		return nil, err
	}
	if err := os.WriteFile(opts.output, out, 0o644); err != nil {
		return nil, fmt.Errorf("写入输出文件失败: %w", err)
	}
	return result, nil
}

// loadConfig 返回配置以及相对路径的起点：有配置文件时是它所在的目录，否则是 DSL 文件所在的目录。
func loadConfig(opts options) (*config.Config, string, error) {
	if opts.configPath == "" {
		return config.Default(), filepath.Dir(opts.input), nil
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, "", err
	}
	return cfg, filepath.Dir(opts.configPath), nil
}

func loadData(opts options) (any, error) {
	raw := []byte(opts.data)
	if opts.dataFile != "" {
		var err error
		if raw, err = os.ReadFile(opts.dataFile); err != nil {
			return nil, fmt.Errorf("读取数据文件失败: %w", err)
		}
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
	}
	return data, nil
}

// loadFonts 把配置中的字体注册到塑形器，并返回渲染用的字体资源表。
func loadFonts(cfg *config.Config, baseDir string) (*text.HarfbuzzShaper, map[string]layout.FontResource, error) {
	fallback, err := fonts.Load("builtin:"+fonts.Fallback, "")
	if err != nil {
		return nil, nil, err
	}
	shaper, err := text.NewHarfbuzzShaper(fonts.Fallback, fallback)
	if err != nil {
		return nil, nil, err
	}
	resources := map[string]layout.FontResource{
		fonts.Fallback: {Name: fonts.Fallback, Family: fonts.Fallback, Src: "builtin:" + fonts.Fallback},
	}

	families := make([]string, 0, len(cfg.Fonts))
	for family := range cfg.Fonts {
		families = append(families, family)
	}
	sort.Strings(families)
	for _, family := range families {
		src := cfg.Fonts[family]
		data, err := fonts.Load(src, baseDir)
		if err != nil {
			return nil, nil, err
		}
		if err := shaper.Register(family, data); err != nil {
			return nil, nil, fmt.Errorf("注册字体 %s 失败: %w", family, err)
		}
		resources[family] = layout.FontResource{Name: family, Family: family, Src: src}
	}
	return shaper, resources, nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	return nil
}
