package runs

import (
	"sort"

	"github.com/dgallion1/richtext/internal/style"
)

// Document is the frozen result of a render pass.
type Document struct {
	Text  string `json:"text"`
	Spans []Span `json:"spans"`
}

// Len returns the text length in bytes.
func (d *Document) Len() int { return len(d.Text) }

// SpansOf returns every span of the given kind in recording order.
func (d *Document) SpansOf(kind Kind) []Span {
	var out []Span
	for _, s := range d.Spans {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// LinkAt returns the URL of the innermost link covering offset.
func (d *Document) LinkAt(offset int) (string, bool) {
	best := -1
	for i, s := range d.Spans {
		if s.Kind != KindLink || offset < s.Start || offset >= s.End {
			continue
		}
		if best < 0 || s.Len() < d.Spans[best].Len() {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return d.Spans[best].URL, true
}

// RunStyle is the effective style of a run after all covering annotations
// are folded together.
type RunStyle struct {
	Traits       Traits      `json:"traits,omitempty"`
	FontSize     float64     `json:"font_size,omitempty"`
	FontFamily   string      `json:"font_family,omitempty"`
	Color        style.Color `json:"color,omitempty"`
	Background   style.Color `json:"background,omitempty"`
	URL          string      `json:"url,omitempty"`
	LineHeight   float64     `json:"line_height,omitempty"`
	MarginBottom float64     `json:"margin_bottom,omitempty"`
	Image        string      `json:"image,omitempty"`
	Math         string      `json:"math,omitempty"`
	Heading      int         `json:"heading,omitempty"`
	Quote        int         `json:"quote,omitempty"`
	CodeBlock    bool        `json:"code_block,omitempty"`
}

// Run is a maximal range with a single effective style.
type Run struct {
	Start int      `json:"start"`
	End   int      `json:"end"`
	Text  string   `json:"text"`
	Style RunStyle `json:"style"`
}

// Runs flattens the spans into non-overlapping runs covering the whole
// text. Spans are folded in recording order; a color already taken from the
// preserve set is never replaced by a later span.
//
// Boundaries are swept left to right while the set of open spans is kept
// sorted by recording index, so each piece folds only the spans covering it.
func (d *Document) Runs(preserve style.ColorSet) []Run {
	if len(d.Text) == 0 {
		return nil
	}
	opens := make(map[int][]int, len(d.Spans))
	closes := make(map[int][]int, len(d.Spans))
	cuts := make([]int, 0, 2*len(d.Spans)+2)
	cuts = append(cuts, 0, len(d.Text))
	for i, s := range d.Spans {
		if s.Start >= s.End {
			continue
		}
		opens[s.Start] = append(opens[s.Start], i)
		closes[s.End] = append(closes[s.End], i)
		cuts = append(cuts, s.Start, s.End)
	}
	sort.Ints(cuts)
	cuts = dedupe(cuts)

	var (
		out    []Run
		active []int
	)
	for i := 0; i+1 < len(cuts); i++ {
		a, b := cuts[i], cuts[i+1]
		for _, idx := range closes[a] {
			active = removeSorted(active, idx)
		}
		for _, idx := range opens[a] {
			active = insertSorted(active, idx)
		}

		var rs RunStyle
		for _, idx := range active {
			fold(&rs, d.Spans[idx].Annotation, preserve)
		}
		if n := len(out); n > 0 && out[n-1].End == a && out[n-1].Style == rs {
			out[n-1].End = b
			out[n-1].Text = d.Text[out[n-1].Start:b]
			continue
		}
		out = append(out, Run{Start: a, End: b, Text: d.Text[a:b], Style: rs})
	}
	return out
}

func insertSorted(xs []int, v int) []int {
	i := sort.SearchInts(xs, v)
	xs = append(xs, 0)
	copy(xs[i+1:], xs[i:])
	xs[i] = v
	return xs
}

func removeSorted(xs []int, v int) []int {
	i := sort.SearchInts(xs, v)
	if i < len(xs) && xs[i] == v {
		xs = append(xs[:i], xs[i+1:]...)
	}
	return xs
}

func fold(rs *RunStyle, a Annotation, preserve style.ColorSet) {
	switch a.Kind {
	case KindText, KindToken:
		setFont(rs, a)
		rs.Traits |= a.Traits
		rs.Color = applyColor(rs.Color, a.Color, preserve)
	case KindHeading:
		fillFont(rs, a)
		rs.Traits |= a.Traits
		rs.Heading = a.Level
		rs.Color = applyColor(rs.Color, a.Color, preserve)
	case KindStrong, KindEmphasis:
		rs.Traits |= a.Traits
		rs.Color = applyColor(rs.Color, a.Color, preserve)
	case KindCode:
		setFont(rs, a)
		rs.Traits |= a.Traits
		rs.Color = applyColor(rs.Color, a.Color, preserve)
		if a.Background.IsSet() {
			rs.Background = a.Background
		}
	case KindLink:
		rs.URL = a.URL
		rs.Traits |= a.Traits
		rs.Color = applyColor(rs.Color, a.Color, preserve)
	case KindBlockquote:
		fillFont(rs, a)
		rs.Quote++
		rs.Color = applyColor(rs.Color, a.Color, preserve)
		if a.Background.IsSet() && !rs.Background.IsSet() {
			rs.Background = a.Background
		}
	case KindCodeBlock:
		fillFont(rs, a)
		rs.CodeBlock = true
		rs.Traits |= a.Traits
		if a.Background.IsSet() && !rs.Background.IsSet() {
			rs.Background = a.Background
		}
	case KindTable:
		fillFont(rs, a)
	case KindTableHeader:
		rs.Traits |= a.Traits
		rs.Color = applyColor(rs.Color, a.Color, preserve)
		if a.Background.IsSet() {
			rs.Background = a.Background
		}
	case KindLineHeight:
		rs.LineHeight = a.Value
	case KindMarginBottom:
		rs.MarginBottom = a.Value
	case KindImage:
		rs.Image = a.URL
	case KindMath:
		rs.Math = a.Source
	case KindListMarker:
	}
}

// applyColor returns the color a run ends up with when candidate is applied
// on top of current.
func applyColor(current, candidate style.Color, preserve style.ColorSet) style.Color {
	if !candidate.IsSet() {
		return current
	}
	if preserve.Contains(current) {
		return current
	}
	return candidate
}

func setFont(rs *RunStyle, a Annotation) {
	if a.FontSize > 0 {
		rs.FontSize = a.FontSize
	}
	if a.FontFamily != "" {
		rs.FontFamily = a.FontFamily
	}
}

func fillFont(rs *RunStyle, a Annotation) {
	if rs.FontSize == 0 {
		rs.FontSize = a.FontSize
	}
	if rs.FontFamily == "" {
		rs.FontFamily = a.FontFamily
	}
}

func dedupe(sorted []int) []int {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}
