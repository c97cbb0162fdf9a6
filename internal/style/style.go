// Package style holds the resolved per-block style records used by a render
// pass. A Config is read-only once handed to a renderer.
package style

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Block is the style shared by every block kind.
type Block struct {
	FontSize     float64
	FontFamily   string
	FontWeight   string
	Color        Color
	MarginBottom float64
	LineHeight   float64
}

// Bold reports whether FontWeight names a bold weight.
func (b Block) Bold() bool { return IsBold(b.FontWeight) }

type Blockquote struct {
	Block
	BorderColor        Color
	BorderWidth        float64
	GapWidth           float64
	BackgroundColor    Color
	NestedMarginBottom float64
}

type List struct {
	Block
	BulletColor      Color
	BulletSize       float64
	MarkerColor      Color
	MarkerFontWeight string
	MarginLeft       float64
	GapWidth         float64
}

type CodeBlock struct {
	Block
	BackgroundColor Color
	BorderColor     Color
	BorderRadius    float64
	BorderWidth     float64
	Padding         float64
	// Theme is the highlighter style name.
	Theme string
}

type Table struct {
	Block
	HeaderColor      Color
	HeaderBackground Color
	BorderColor      Color
	CellPadding      float64
}

type Inline struct {
	Color Color
}

type Link struct {
	Color     Color
	Underline bool
}

type Code struct {
	Color           Color
	BackgroundColor Color
	BorderColor     Color
	FontFamily      string
	FontSize        float64
}

type Image struct {
	Height       float64
	BorderRadius float64
	MarginBottom float64
}

type InlineImage struct {
	Size float64
}

type Math struct {
	FontSize        float64
	Color           Color
	BackgroundColor Color
	Padding         float64
	MarginBottom    float64
}

type TaskList struct {
	CheckedColor   Color
	BorderColor    Color
	CheckmarkColor Color
	BoxSize        float64
}

// Config is the complete style configuration for one render setup.
type Config struct {
	Name string

	Paragraph     Block
	Headings      [6]Block
	Blockquote    Blockquote
	OrderedList   List
	UnorderedList List
	CodeBlock     CodeBlock
	Table         Table

	Strong      Inline
	Emphasis    Inline
	Link        Link
	Code        Code
	Image       Image
	InlineImage InlineImage
	Math        Math
	TaskList    TaskList
}

// Heading returns the style for a heading level. Levels outside 1..6 use
// level 1.
func (c *Config) Heading(level int) Block {
	if level < 1 || level > 6 {
		level = 1
	}
	return c.Headings[level-1]
}

// PreserveColors returns the configured inline colors that an enclosing
// block color must not overwrite.
func (c *Config) PreserveColors() ColorSet {
	set := make(ColorSet, 4)
	for _, col := range []Color{c.Strong.Color, c.Emphasis.Color, c.Link.Color, c.Code.Color} {
		if col.IsSet() {
			set[col] = struct{}{}
		}
	}
	return set
}

// Validate checks that every block has a usable font size and line height.
func (c *Config) Validate() error {
	var errs []error
	check := func(name string, b Block) {
		if b.FontSize <= 0 {
			errs = append(errs, fmt.Errorf("%s: font size must be positive, got %v", name, b.FontSize))
		}
		if b.LineHeight < 0 {
			errs = append(errs, fmt.Errorf("%s: line height must not be negative, got %v", name, b.LineHeight))
		}
		if b.MarginBottom < 0 {
			errs = append(errs, fmt.Errorf("%s: margin bottom must not be negative, got %v", name, b.MarginBottom))
		}
	}
	check("paragraph", c.Paragraph)
	for i, h := range c.Headings {
		check("h"+strconv.Itoa(i+1), h)
	}
	check("blockquote", c.Blockquote.Block)
	check("ordered list", c.OrderedList.Block)
	check("unordered list", c.UnorderedList.Block)
	check("code block", c.CodeBlock.Block)
	check("table", c.Table.Block)
	return errors.Join(errs...)
}

// IsBold reports whether a CSS-like font weight is bold.
func IsBold(weight string) bool {
	w := strings.ToLower(strings.TrimSpace(weight))
	switch w {
	case "bold", "bolder", "semibold", "heavy", "black":
		return true
	}
	n, err := strconv.Atoi(w)
	return err == nil && n >= 600
}
