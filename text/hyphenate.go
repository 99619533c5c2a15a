package text

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/speedata/hyphenation"
)

// 断字位置前后至少保留的字符数。
const (
	HyphenLeftMin  = 2
	HyphenRightMin = 3
)

// Hyphenator 返回单词中可以断字的位置（按字符计，表示在该字符之前断开）。
type Hyphenator interface {
	Hyphenate(word string) []int
}

// Dictionaries 按语言保存断字词典，可并发读取。
type Dictionaries struct {
	mu    sync.RWMutex
	langs map[string]Hyphenator
}

// NewDictionaries 创建空的词典集合。
func NewDictionaries() *Dictionaries {
	return &Dictionaries{langs: make(map[string]Hyphenator)}
}

// Add 注册某个语言的断字器。
func (d *Dictionaries) Add(lang string, h Hyphenator) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.langs[strings.ToLower(lang)] = h
}

// Load 从 TeX 断字规则读取某个语言的词典。
func (d *Dictionaries) Load(lang string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("读取 %s 断字规则失败: %w", lang, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyPatterns, lang)
	}
	h, err := hyphenation.New(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("解析 %s 断字规则失败: %w", lang, err)
	}
	d.Add(lang, h)
	return nil
}

// LoadFile 从文件读取断字规则。
func (d *Dictionaries) LoadFile(lang, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("打开断字规则文件 %s 失败: %w", path, err)
	}
	defer f.Close()
	return d.Load(lang, f)
}

// Lookup 返回语言对应的断字器。
func (d *Dictionaries) Lookup(lang string) (Hyphenator, bool) {
	if d == nil {
		return nil, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.langs[strings.ToLower(lang)]
	return h, ok
}

// HyphenOffsets 返回 word 中可以断字的字节偏移，已去掉太靠近词首词尾的位置。
func HyphenOffsets(h Hyphenator, word string) []int {
	n := utf8.RuneCountInString(word)
	if n < HyphenLeftMin+HyphenRightMin {
		return nil
	}
	var out []int
	for _, pos := range h.Hyphenate(word) {
		if pos < HyphenLeftMin || pos > n-HyphenRightMin {
			continue
		}
		out = append(out, runeOffset(word, pos))
	}
	return out
}

func runeOffset(s string, runes int) int {
	i := 0
	for b := range s {
		if i == runes {
			return b
		}
		i++
	}
	return len(s)
}
