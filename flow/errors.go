package flow

import "errors"

// ErrSpillExhausted 表示续排时重新排版得到的帧数少于已经提交的区域数。
var ErrSpillExhausted = errors.New("flow: breakable block produced fewer frames than committed regions")
