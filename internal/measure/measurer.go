package measure

import (
	"fmt"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/dgallion1/richtext/internal/runs"
)

// Measurer reports text advances and natural line heights for a run style.
// FontSize and FontFamily in the style are already resolved.
type Measurer interface {
	Advance(s string, st runs.RunStyle) float64
	LineHeight(st runs.RunStyle) float64
}

// ByName returns the measurer for a configuration name: "font" or "cell".
func ByName(name string) (Measurer, error) {
	switch strings.ToLower(name) {
	case "", "font":
		return NewFontMeasurer()
	case "cell":
		return CellMeasurer{}, nil
	}
	return nil, fmt.Errorf("unknown measurer %q (want font or cell)", name)
}

type variant uint8

const (
	regular variant = iota
	bold
	italic
	boldItalic
	mono
)

type faceKey struct {
	v    variant
	size float64
}

// FontMeasurer lays text out with the Go fonts. Faces are created lazily per
// variant and size and cached.
type FontMeasurer struct {
	fonts [5]*truetype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

func NewFontMeasurer() (*FontMeasurer, error) {
	m := &FontMeasurer{faces: make(map[faceKey]font.Face)}
	for v, ttf := range [][]byte{goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF, gomono.TTF} {
		f, err := truetype.Parse(ttf)
		if err != nil {
			return nil, fmt.Errorf("parse go font %d: %w", v, err)
		}
		m.fonts[v] = f
	}
	return m, nil
}

func variantOf(st runs.RunStyle) variant {
	if st.Traits.Has(runs.Monospace) || isMonoFamily(st.FontFamily) {
		return mono
	}
	b, i := st.Traits.Has(runs.Bold), st.Traits.Has(runs.Italic)
	switch {
	case b && i:
		return boldItalic
	case b:
		return bold
	case i:
		return italic
	}
	return regular
}

func isMonoFamily(family string) bool {
	f := strings.ToLower(family)
	for _, m := range []string{"mono", "menlo", "courier", "consolas"} {
		if strings.Contains(f, m) {
			return true
		}
	}
	return false
}

func (m *FontMeasurer) face(st runs.RunStyle) font.Face {
	key := faceKey{v: variantOf(st), size: st.FontSize}
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.faces[key]; ok {
		return f
	}
	f := truetype.NewFace(m.fonts[key.v], &truetype.Options{Size: key.size, DPI: 72, Hinting: font.HintingNone})
	m.faces[key] = f
	return f
}

func (m *FontMeasurer) Advance(s string, st runs.RunStyle) float64 {
	if s == "" {
		return 0
	}
	if s == runs.ObjectReplacement {
		return st.FontSize
	}
	face := m.face(st)
	// Faces are not safe for concurrent use.
	m.mu.Lock()
	adv := font.MeasureString(face, s)
	m.mu.Unlock()
	return float64(adv) / 64
}

func (m *FontMeasurer) LineHeight(st runs.RunStyle) float64 {
	face := m.face(st)
	m.mu.Lock()
	h := face.Metrics().Height
	m.mu.Unlock()
	return float64(h) / 64
}

// CellMeasurer measures in terminal cells: every line is one cell high and
// font sizes are ignored.
type CellMeasurer struct{}

func (CellMeasurer) Advance(s string, _ runs.RunStyle) float64 {
	return float64(runewidth.StringWidth(s))
}

func (CellMeasurer) LineHeight(runs.RunStyle) float64 { return 1 }
