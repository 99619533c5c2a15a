package layout

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteDebugJSON 将排版结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	return writeJSON(res, path)
}

// WriteFrameDebugJSON 把帧树（未展开）按层级写成 JSON。
func WriteFrameDebugJSON(frames []Frame, path string) error {
	nodes := make([]DebugFrame, 0, len(frames))
	for i := range frames {
		nodes = append(nodes, DebugFrameOf(&frames[i]))
	}
	return writeJSON(nodes, path)
}

func writeJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化调试 JSON 失败: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// DebugFrame 是帧的 JSON 表示。
type DebugFrame struct {
	Width    Abs         `json:"width"`
	Height   Abs         `json:"height"`
	Baseline Abs         `json:"baseline"`
	Hard     bool        `json:"hard,omitempty"`
	Items    []DebugItem `json:"items,omitempty"`
}

// DebugItem 是帧内元素的 JSON 表示。
type DebugItem struct {
	X     Abs         `json:"x"`
	Y     Abs         `json:"y"`
	Kind  string      `json:"kind"`
	Text  string      `json:"text,omitempty"`
	Width Abs         `json:"width,omitempty"`
	Group *DebugFrame `json:"group,omitempty"`
	Tag   string      `json:"tag,omitempty"`
}

// DebugFrameOf 把帧转换为 DebugFrame。
func DebugFrameOf(f *Frame) DebugFrame {
	out := DebugFrame{
		Width:    f.Width(),
		Height:   f.Height(),
		Baseline: f.Baseline(),
		Hard:     f.Kind() == FrameHard,
	}
	for _, it := range f.Items() {
		item := DebugItem{X: it.Pos.X, Y: it.Pos.Y}
		switch v := it.Item.(type) {
		case GroupItem:
			item.Kind = "group"
			child := DebugFrameOf(&v.Frame)
			item.Group = &child
		case TextItem:
			item.Kind = "text"
			item.Text = v.Text
			item.Width = v.Width()
		case ShapeItem:
			item.Kind = "shape"
			item.Width = v.Size.X
		case TagItem:
			item.Kind = "tag"
			if v.Tag.Kind == TagStart {
				item.Tag = fmt.Sprintf("start %s %x", v.Tag.Elem, uint64(v.Tag.Loc))
			} else {
				item.Tag = fmt.Sprintf("end %x", uint64(v.Tag.Loc))
			}
		}
		out.Items = append(out.Items, item)
	}
	return out
}
