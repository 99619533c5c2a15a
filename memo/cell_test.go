package memo

import (
	"sync"
	"testing"
)

type region struct {
	W, H float64
}

type keyed uint64

func (k keyed) Hash() uint64 { return uint64(k) }

func TestCachedCellHitAndMiss(t *testing.T) {
	var c CachedCell[float64]
	compute := func(r region) func() float64 {
		return func() float64 { return r.W * r.H }
	}

	a := region{W: 10, H: 20}
	if got := c.GetOrInit(a, compute(a)); got != 200 {
		t.Fatalf("首次计算结果错误：%v", got)
	}
	if got := c.GetOrInit(region{W: 10, H: 20}, compute(a)); got != 200 || c.Calls() != 1 {
		t.Fatalf("相同输入应命中缓存，calls=%d", c.Calls())
	}

	b := region{W: 10, H: 30}
	if got := c.GetOrInit(b, compute(b)); got != 300 || c.Calls() != 2 {
		t.Fatalf("不同输入应重新计算，got=%v calls=%d", got, c.Calls())
	}
	// 单槽：回到旧输入必须重新计算
	if got := c.GetOrInit(a, compute(a)); got != 200 || c.Calls() != 3 {
		t.Fatalf("单槽缓存不应记住更早的输入，calls=%d", c.Calls())
	}
}

func TestCachedCellUsesHasher(t *testing.T) {
	var c CachedCell[int]
	n := 0
	f := func() int { n++; return n }
	c.GetOrInit(keyed(1), f)
	c.GetOrInit(keyed(1), f)
	if got := c.GetOrInit(keyed(2), f); got != 2 {
		t.Fatalf("Hasher 不同应重新计算，实际 %d", got)
	}
}

func TestCachedCellUnhashable(t *testing.T) {
	var c CachedCell[int]
	f := func() int { return 1 }
	ch := make(chan int)
	c.GetOrInit(ch, f)
	c.GetOrInit(ch, f)
	if c.Calls() != 2 {
		t.Fatalf("无法哈希的输入不应命中缓存，calls=%d", c.Calls())
	}
}

func TestCachedCellConcurrent(t *testing.T) {
	var c CachedCell[int]
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := c.GetOrInit(region{W: 1, H: 1}, func() int { return 42 }); got != 42 {
				t.Errorf("并发读取结果错误：%d", got)
			}
		}()
	}
	wg.Wait()
	if c.Calls() != 1 {
		t.Fatalf("并发下同一输入只应计算一次，calls=%d", c.Calls())
	}
}

type boxed struct{ vals []int }

func (b boxed) Clone() boxed { return boxed{vals: append([]int(nil), b.vals...)} }

func TestCachedCellClonesOutput(t *testing.T) {
	var c CachedCell[boxed]
	f := func() boxed { return boxed{vals: []int{1, 2}} }

	first := c.GetOrInit(keyed(1), f)
	first.vals[0] = 99
	second := c.GetOrInit(keyed(1), f)
	if c.Calls() != 1 {
		t.Fatalf("相同输入应命中缓存，calls=%d", c.Calls())
	}
	if second.vals[0] != 1 {
		t.Fatalf("修改返回值不应影响缓存，得到 %v", second.vals)
	}
	second.vals[1] = 42
	if third := c.GetOrInit(keyed(1), f); third.vals[1] != 2 {
		t.Fatalf("命中缓存时应返回副本，得到 %v", third.vals)
	}
}
