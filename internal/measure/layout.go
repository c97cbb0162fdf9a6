package measure

import (
	"math"
	"strings"

	"github.com/dgallion1/richtext/internal/runs"
	"github.com/dgallion1/richtext/internal/style"
)

// Paint is the default text style used where a run carries none, and for
// the initial estimate before any styled content exists.
type Paint struct {
	FontFamily string  `json:"font_family,omitempty"`
	FontSize   float64 `json:"font_size"`
	Bold       bool    `json:"bold,omitempty"`
	LineHeight float64 `json:"line_height,omitempty"`
}

// PaintFor returns the paragraph paint of a style configuration.
func PaintFor(cfg *style.Config) Paint {
	if cfg == nil {
		cfg = style.Default()
	}
	p := cfg.Paragraph
	return Paint{FontFamily: p.FontFamily, FontSize: p.FontSize, Bold: p.Bold(), LineHeight: p.LineHeight}
}

func (p Paint) resolve(st runs.RunStyle) runs.RunStyle {
	if st.FontSize == 0 {
		st.FontSize = p.FontSize
	}
	if st.FontFamily == "" {
		st.FontFamily = p.FontFamily
	}
	if st.LineHeight == 0 {
		st.LineHeight = p.LineHeight
	}
	return st
}

// PlainRuns wraps raw text in a single run styled by p.
func PlainRuns(text string, p Paint) []runs.Run {
	st := runs.RunStyle{FontSize: p.FontSize, FontFamily: p.FontFamily, LineHeight: p.LineHeight}
	if p.Bold {
		st.Traits = runs.Bold
	}
	return []runs.Run{{Start: 0, End: len(text), Text: text, Style: st}}
}

// Layout wraps content greedily at word boundaries within maxWidth and
// returns the size of the result. A maxWidth of zero or less disables
// wrapping and the reported width is the widest line; otherwise the
// reported width is maxWidth. A newline carrying a bottom margin adds that
// margin below the line it ends; a line holding only such a newline is as
// tall as its margin.
func Layout(m Measurer, content []runs.Run, p Paint, maxWidth float64) PackedSize {
	var (
		lineW, lineH float64
		widest       float64
		total        float64
	)
	lineHeight := func(st runs.RunStyle) float64 {
		natural := m.LineHeight(st)
		if st.LineHeight > natural {
			return st.LineHeight
		}
		return natural
	}
	// commit ends the current line. st is the style of the newline that
	// ends it; its bottom margin is added below the line.
	commit := func(st runs.RunStyle) {
		switch {
		case lineW == 0 && lineH == 0 && st.MarginBottom > 0:
			total += st.MarginBottom
		case lineH == 0:
			total += lineHeight(st)
		default:
			total += lineH + st.MarginBottom
		}
		widest = max(widest, lineW)
		lineW, lineH = 0, 0
	}

	for _, run := range content {
		st := p.resolve(run.Style)
		pieces := strings.Split(run.Text, "\n")
		for i, piece := range pieces {
			if i > 0 {
				commit(st)
			}
			for _, word := range strings.SplitAfter(piece, " ") {
				if word == "" {
					continue
				}
				visible := m.Advance(strings.TrimRight(word, " "), st)
				if maxWidth > 0 && lineW > 0 && lineW+visible > maxWidth {
					commit(runs.RunStyle{})
				}
				lineW += m.Advance(word, st)
				lineH = max(lineH, lineHeight(st))
			}
		}
	}
	if lineW > 0 || lineH > 0 {
		commit(runs.RunStyle{})
	}

	width := maxWidth
	if width <= 0 {
		width = widest
	}
	return Pack(math.Ceil(width), math.Ceil(total))
}
