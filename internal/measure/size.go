package measure

import (
	"fmt"
	"math"
)

// PackedSize holds a width and height as two float32 values in one word:
// width in the high 32 bits, height in the low 32 bits. Equal sizes pack to
// equal values, so changes can be detected with ==.
type PackedSize uint64

func Pack(width, height float64) PackedSize {
	w := math.Float32bits(float32(width))
	h := math.Float32bits(float32(height))
	return PackedSize(uint64(w)<<32 | uint64(h))
}

func (s PackedSize) Width() float64 { return float64(math.Float32frombits(uint32(s >> 32))) }

func (s PackedSize) Height() float64 { return float64(math.Float32frombits(uint32(s))) }

func (s PackedSize) String() string {
	return fmt.Sprintf("%gx%g", s.Width(), s.Height())
}

// AtMost returns s with its height clamped to maxHeight.
func (s PackedSize) AtMost(maxHeight float64) PackedSize {
	if s.Height() <= maxHeight {
		return s
	}
	return Pack(s.Width(), maxHeight)
}
