package style

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a packed 0xAARRGGBB value. The zero Color means "not configured".
type Color uint32

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	return Color(0xFF000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// Hex parses "#rrggbb" or "#rgb".
func Hex(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return 0, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGB(r, g, b), nil
}

// MustHex is Hex for package-level theme tables.
func MustHex(s string) Color {
	c, err := Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// IsSet reports whether the color was configured.
func (c Color) IsSet() bool { return c != 0 }

func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }
func (c Color) A() uint8 { return uint8(c >> 24) }

// Hex formats the color as "#rrggbb"; unset colors format as "".
func (c Color) Hex() string {
	if !c.IsSet() {
		return ""
	}
	return c.colorful().Hex()
}

func (c Color) String() string {
	if !c.IsSet() {
		return "unset"
	}
	return c.Hex()
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R()) / 255,
		G: float64(c.G()) / 255,
		B: float64(c.B()) / 255,
	}
}

// Blend mixes c toward other in Lab space; t=0 is c, t=1 is other.
func (c Color) Blend(other Color, t float64) Color {
	if !c.IsSet() {
		return other
	}
	if !other.IsSet() {
		return c
	}
	m := c.colorful().BlendLab(other.colorful(), t).Clamped()
	r, g, b := m.RGB255()
	return RGB(r, g, b)
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	v, err := Hex(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ColorSet is a small set of colors.
type ColorSet map[Color]struct{}

// Contains reports whether c is a configured member of the set.
func (s ColorSet) Contains(c Color) bool {
	if !c.IsSet() {
		return false
	}
	_, ok := s[c]
	return ok
}
