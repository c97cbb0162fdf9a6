// Package runs holds the output of a render pass: a text buffer plus
// range-tagged style annotations, and the resolution of those annotations
// into flat styled runs.
package runs

import (
	"strconv"

	"github.com/dgallion1/richtext/internal/style"
)

// Kind tags an Annotation.
type Kind uint8

const (
	KindText Kind = iota
	KindStrong
	KindEmphasis
	KindCode
	KindLink
	KindImage
	KindHeading
	KindLineHeight
	KindMarginBottom
	KindBlockquote
	KindListMarker
	KindCodeBlock
	KindToken
	KindMath
	KindTable
	KindTableHeader

	kindCount
)

var kindNames = [...]string{
	KindText:         "text",
	KindStrong:       "strong",
	KindEmphasis:     "emphasis",
	KindCode:         "code",
	KindLink:         "link",
	KindImage:        "image",
	KindHeading:      "heading",
	KindLineHeight:   "line_height",
	KindMarginBottom: "margin_bottom",
	KindBlockquote:   "blockquote",
	KindListMarker:   "list_marker",
	KindCodeBlock:    "code_block",
	KindToken:        "token",
	KindMath:         "math",
	KindTable:        "table",
	KindTableHeader:  "table_header",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Traits is a bit set of font traits. Nested inline styles OR their traits
// together.
type Traits uint8

const (
	Bold Traits = 1 << iota
	Italic
	Monospace
	Underline
	Strikethrough
)

// Has reports whether every bit of t2 is set in t.
func (t Traits) Has(t2 Traits) bool { return t&t2 == t2 }

// MarkerKind says how a list marker is drawn.
type MarkerKind uint8

const (
	MarkerBullet MarkerKind = iota
	MarkerNumber
	MarkerTask
)

// Annotation is a declarative rendering delta. Which fields are meaningful
// depends on Kind.
type Annotation struct {
	Kind Kind `json:"kind"`

	Traits     Traits      `json:"traits,omitempty"`
	FontSize   float64     `json:"font_size,omitempty"`
	FontFamily string      `json:"font_family,omitempty"`
	Color      style.Color `json:"color,omitempty"`
	Background style.Color `json:"background,omitempty"`

	// Value is the line height for KindLineHeight and the margin for
	// KindMarginBottom.
	Value float64 `json:"value,omitempty"`

	URL    string  `json:"url,omitempty"`
	Inline bool    `json:"inline,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	Depth int `json:"depth,omitempty"`
	Level int `json:"level,omitempty"`

	Marker     MarkerKind `json:"marker_kind,omitempty"`
	MarkerText string     `json:"marker,omitempty"`
	Number     int        `json:"number,omitempty"`
	Checked    bool       `json:"checked,omitempty"`

	BorderColor style.Color `json:"border_color,omitempty"`
	BorderWidth float64     `json:"border_width,omitempty"`
	Radius      float64     `json:"radius,omitempty"`
	GapWidth    float64     `json:"gap_width,omitempty"`

	// Alt is replacement text for object spans (image alt text, math
	// rendered as plain text).
	Alt      string `json:"alt,omitempty"`
	Language string `json:"language,omitempty"`
	Source   string `json:"source,omitempty"`
	Columns  int    `json:"columns,omitempty"`
}

// Span is an annotation over the byte range [Start, End) of the buffer.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Annotation
}

// Contains reports whether [start,end) lies inside the span.
func (s Span) Contains(start, end int) bool {
	return s.Start <= start && end <= s.End
}

// Len returns the span length in bytes.
func (s Span) Len() int { return s.End - s.Start }
