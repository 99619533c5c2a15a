package realize

import "errors"

var (
	// ErrNoFlow 表示文档缺少 flow 分节。
	ErrNoFlow = errors.New("realize: document has no flow section")
	// ErrUnknownStyle 表示引用了未定义的具名样式。
	ErrUnknownStyle = errors.New("realize: unknown style")
	// ErrInvalidValue 表示参数值无法解析。
	ErrInvalidValue = errors.New("realize: invalid value")
	// ErrUnknownProperty 表示样式中出现了不认识的属性。
	ErrUnknownProperty = errors.New("realize: unknown property")
)
