package inline

import (
	"github.com/ByLCY/quire/element"
	"github.com/ByLCY/quire/engine"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/style"
)

// layoutBox 在 region 内排版行内盒子，返回的帧基线已按 Baseline 偏移。
func layoutBox(eng *engine.Engine, elem element.Box, loc layout.Locator, styles style.Chain, region layout.Size) (layout.Frame, error) {
	pod := layout.UnbreakablePod(elem.Width, elem.Height, elem.Inset, region)

	var frame layout.Frame
	if len(elem.Body) == 0 {
		frame = layout.NewHardFrame(pod.Size)
	} else {
		var err error
		frame, err = eng.LayoutFrame(elem.Body, loc, styles, pod)
		if err != nil {
			return layout.Frame{}, err
		}
		frame.SetKind(layout.FrameHard)
	}

	// 撑满的轴上强制使用区域尺寸，在加内边距之前做
	frame.SetSize(layout.SelectSize(pod.Expand, pod.Size, frame.Size()))
	if !layout.InsetIsZero(elem.Inset) {
		layout.GrowFrame(&frame, elem.Inset)
	}
	frame.FillAndStroke(elem.Fill, elem.Stroke)

	if shift := elem.Baseline.RelativeTo(frame.Height()); shift != 0 {
		frame.SetBaseline(frame.Baseline() - shift)
	}
	return frame, nil
}
