package text

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/harfbuzz"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/quire/layout"
)

// HarfbuzzShaper 使用 go-text/typesetting 的 HarfBuzz 实现塑形。
//
// 解析后的 font.Font 是只读的，可以并发共享；font.Face 与 shaping.HarfbuzzShaper
// 都不能并发使用，因此每次塑形新建 Face，并从池中取 shaper。
type HarfbuzzShaper struct {
	shaperPool sync.Pool

	mu       sync.RWMutex
	families map[string]*font.Font
	fallback string
}

// NewHarfbuzzShaper 创建塑形器，fallback 是找不到字体族时使用的字体。
func NewHarfbuzzShaper(fallback string, data []byte) (*HarfbuzzShaper, error) {
	s := &HarfbuzzShaper{
		shaperPool: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
		families: make(map[string]*font.Font),
		fallback: fallback,
	}
	if err := s.Register(fallback, data); err != nil {
		return nil, err
	}
	return s, nil
}

// Register 注册一个字体族。
func (s *HarfbuzzShaper) Register(family string, data []byte) error {
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFontParse, family, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.families[family] = face.Font
	return nil
}

// Families 返回已注册的字体族名。
func (s *HarfbuzzShaper) Families() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.families))
	for name := range s.families {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *HarfbuzzShaper) face(family string) *font.Face {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.families[family]
	if !ok {
		f = s.families[s.fallback]
	}
	return font.NewFace(f)
}

func (s *HarfbuzzShaper) Shape(req Request) Raw {
	face := s.face(req.Font)
	upem := float64(face.Upem())
	out := Raw{}
	out.Ascent, out.Descent = extents(face)

	runes := []rune(req.Text)
	if len(runes) == 0 || onlyIgnorables(runes) {
		return out
	}
	offsets := make([]int, len(runes)+1)
	i := 0
	for b := range req.Text {
		offsets[i] = b
		i++
	}
	offsets[len(runes)] = len(req.Text)

	dir := di.DirectionLTR
	if req.Dir == layout.DirRTL {
		dir = di.DirectionRTL
	}
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: dir,
		Face:      face,
		Size:      fixed.I(int(face.Upem())),
		Script:    detectScript(runes),
		Language:  language.NewLanguage(req.Lang),
	}
	hb := s.shaperPool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	s.shaperPool.Put(hb)

	// 每个簇的结束位置是下一个更大的簇起点
	clusters := make([]int, 0, len(output.Glyphs))
	for _, g := range output.Glyphs {
		clusters = append(clusters, g.ClusterIndex)
	}
	sort.Ints(clusters)
	clusterEnd := func(c int) int {
		j := sort.SearchInts(clusters, c+1)
		if j < len(clusters) {
			return clusters[j]
		}
		return len(runes)
	}

	toEm := func(v fixed.Int26_6) layout.Em { return layout.Em(float64(v) / 64 / upem) }
	out.Glyphs = make([]Glyph, 0, len(output.Glyphs))
	for _, g := range output.Glyphs {
		c := runes[g.ClusterIndex]
		out.Glyphs = append(out.Glyphs, Glyph{
			ID:          uint16(g.GlyphID),
			XAdvance:    toEm(g.XAdvance),
			XOffset:     toEm(g.XOffset),
			YOffset:     toEm(g.YOffset),
			Start:       req.Base + offsets[g.ClusterIndex],
			End:         req.Base + offsets[clusterEnd(g.ClusterIndex)],
			SafeToBreak: g.Mask&harfbuzz.GlyphUnsafeToBreak == 0,
			C:           c,
			Script:      language.LookupScript(c),
		})
	}
	return out
}

func (s *HarfbuzzShaper) Glyph(family string, r rune) (uint16, layout.Em, bool) {
	face := s.face(family)
	gid, ok := face.NominalGlyph(r)
	if !ok {
		return 0, 0, false
	}
	return uint16(gid), layout.Em(float64(face.HorizontalAdvance(gid)) / float64(face.Upem())), true
}

func (s *HarfbuzzShaper) Metrics(family string) (layout.Em, layout.Em) {
	return extents(s.face(family))
}

func extents(face *font.Face) (ascent, descent layout.Em) {
	upem := float64(face.Upem())
	ext, ok := face.FontHExtents()
	if !ok || upem == 0 {
		return 0.8, 0.2
	}
	return layout.Em(float64(ext.Ascender) / upem), layout.Em(-float64(ext.Descender) / upem)
}

func onlyIgnorables(runes []rune) bool {
	for _, r := range runes {
		if r != '\n' && r != '\t' && !IsDefaultIgnorable(r) {
			return false
		}
	}
	return true
}

// detectScript 返回第一个非通用字符的文字系统。
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		switch sc := language.LookupScript(r); sc {
		case language.Common, language.Inherited, language.Unknown:
			continue
		default:
			return sc
		}
	}
	return language.Latin
}
