// Package fonts 提供内置字体，并按来源字符串读取字体文件。
package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Fallback 是找不到字体时使用的内置字体族。
const Fallback = "Go"

var builtin = map[string][]byte{
	"Go":        goregular.TTF,
	"Go-Bold":   gobold.TTF,
	"Go-Italic": goitalic.TTF,
	"Go-Mono":   gomono.TTF,
}

// Builtin 返回内置字体族名。
func Builtin() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load 返回字体数据。src 写作 "builtin:Go" 时取内置字体，否则按文件路径读取，
// 相对路径以 baseDir 为起点。
func Load(src, baseDir string) ([]byte, error) {
	if name, ok := strings.CutPrefix(src, "builtin:"); ok {
		data, found := builtin[name]
		if !found {
			return nil, fmt.Errorf("没有名为 %s 的内置字体", name)
		}
		return data, nil
	}
	path := src
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", path, err)
	}
	return data, nil
}
