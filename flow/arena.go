package flow

const chunkSize = 32

// slab 按块分配 T，已分配元素的地址在 reset 之前保持不变。
type slab[T any] struct {
	chunks [][]T
	n      int
}

func (s *slab[T]) alloc() *T {
	c, i := s.n/chunkSize, s.n%chunkSize
	if c == len(s.chunks) {
		s.chunks = append(s.chunks, make([]T, chunkSize))
	}
	s.n++
	return &s.chunks[c][i]
}

func (s *slab[T]) reset() {
	for _, c := range s.chunks {
		clear(c)
	}
	s.n = 0
}

// Arena 持有一次收集产生的大块 Child。
//
// Collect 返回的 Child 指向 Arena 内部，Reset 之后全部失效。零值可用。
type Arena struct {
	lines   slab[LineChild]
	singles slab[SingleChild]
	multis  slab[MultiChild]
	placed  slab[PlacedChild]
}

// Len 返回当前已分配的 Child 数量。
func (a *Arena) Len() int {
	return a.lines.n + a.singles.n + a.multis.n + a.placed.n
}

// Reset 清空 Arena，保留已申请的内存以便下一次收集复用。
func (a *Arena) Reset() {
	a.lines.reset()
	a.singles.reset()
	a.multis.reset()
	a.placed.reset()
}
