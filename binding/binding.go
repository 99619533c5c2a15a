// Package binding 把文档文字中的 ${path.to.value} 占位符替换为数据中的值。
//
// 路径按点号分段，每段可带下标，例如 ${items[0].name}。数据通常来自 JSON 解码，
// 也接受任意以字符串为键的 map 和任意切片。
package binding

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 若 data 为空或路径不存在，则保留原占位符。
func Interpolate(text string, data any) string {
	out, _ := Expand(text, data)
	return out
}

// Expand 与 Interpolate 相同，另外返回无法解析的路径，按出现顺序排列。
func Expand(text string, data any) (string, []string) {
	var missing []string
	out := exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-1])
		if path == "" {
			return match
		}
		if val, ok := Lookup(data, path); ok {
			return format(val)
		}
		missing = append(missing, path)
		return match
	})
	return out, missing
}

// Lookup 按路径取值。
func Lookup(data any, path string) (any, bool) {
	if data == nil {
		return nil, false
	}
	current := data
	for _, segment := range strings.Split(path, ".") {
		name, indexes := parseSegment(segment)
		if name != "" {
			var ok bool
			current, ok = descendMap(current, name)
			if !ok {
				return nil, false
			}
		}
		for _, idxStr := range indexes {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, false
			}
			var ok bool
			current, ok = descendArray(current, idx)
			if !ok {
				return nil, false
			}
		}
	}
	return current, true
}

func format(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func parseSegment(segment string) (string, []string) {
	name := segment
	var indexes []string
	if i := strings.Index(segment, "["); i != -1 {
		name = segment[:i]
		rest := segment[i:]
		for len(rest) > 0 && rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				break
			}
			indexes = append(indexes, strings.TrimSpace(rest[1:end]))
			rest = rest[end+1:]
		}
	}
	return strings.TrimSpace(name), indexes
}

func descendMap(current any, key string) (any, bool) {
	if m, ok := current.(map[string]any); ok {
		val, ok := m[key]
		return val, ok
	}
	rv := reflect.ValueOf(current)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	val := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
	if !val.IsValid() {
		return nil, false
	}
	return val.Interface(), true
}

func descendArray(current any, idx int) (any, bool) {
	if s, ok := current.([]any); ok {
		if idx < 0 || idx >= len(s) {
			return nil, false
		}
		return s[idx], true
	}
	rv := reflect.ValueOf(current)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if idx < 0 || idx >= rv.Len() {
		return nil, false
	}
	return rv.Index(idx).Interface(), true
}
