package renderer

import (
	"encoding/json"
	"fmt"

	"github.com/ByLCY/quire/layout"
)

// Renderer 将排版结果输出为最终文件，例如 PDF 或调试用的 JSON。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// JSON 把排版结果序列化为缩进的 JSON。
type JSON struct{}

func (JSON) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("序列化排版结果失败: %w", err)
	}
	return data, nil
}
