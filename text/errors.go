package text

import "errors"

// text 包的哨兵错误。
var (
	// ErrFontParse 表示字体数据无法解析。
	ErrFontParse = errors.New("text: invalid font data")

	// ErrEmptyPatterns 表示断字规则为空。
	ErrEmptyPatterns = errors.New("text: empty hyphenation patterns")
)
