package style

import (
	"fmt"
	"sort"
	"strings"
)

const (
	defaultFont = "System"
	monoFont    = "Menlo"
)

// Default returns the light theme.
func Default() *Config {
	text := MustHex("#1f2328")
	muted := MustHex("#59636e")
	heading := func(size, margin float64) Block {
		return Block{
			FontSize:     size,
			FontFamily:   defaultFont,
			FontWeight:   "bold",
			Color:        text,
			MarginBottom: margin,
			LineHeight:   size * 1.25,
		}
	}
	listBlock := Block{
		FontSize:     16,
		FontFamily:   defaultFont,
		FontWeight:   "normal",
		Color:        text,
		MarginBottom: 16,
		LineHeight:   24,
	}
	return &Config{
		Name: "light",
		Paragraph: Block{
			FontSize:     16,
			FontFamily:   defaultFont,
			FontWeight:   "normal",
			Color:        text,
			MarginBottom: 16,
			LineHeight:   24,
		},
		Headings: [6]Block{
			heading(32, 16),
			heading(24, 16),
			heading(20, 12),
			heading(18, 12),
			heading(16, 8),
			heading(14, 8),
		},
		Blockquote: Blockquote{
			Block: Block{
				FontSize:     16,
				FontFamily:   defaultFont,
				FontWeight:   "normal",
				Color:        muted,
				MarginBottom: 16,
				LineHeight:   24,
			},
			BorderColor:        MustHex("#d1d9e0"),
			BorderWidth:        4,
			GapWidth:           16,
			BackgroundColor:    0,
			NestedMarginBottom: 8,
		},
		OrderedList: List{
			Block:            listBlock,
			MarkerColor:      text,
			MarkerFontWeight: "normal",
			MarginLeft:       16,
			GapWidth:         8,
		},
		UnorderedList: List{
			Block:       listBlock,
			BulletColor: text,
			BulletSize:  6,
			MarginLeft:  16,
			GapWidth:    8,
		},
		CodeBlock: CodeBlock{
			Block: Block{
				FontSize:     14,
				FontFamily:   monoFont,
				FontWeight:   "normal",
				Color:        text,
				MarginBottom: 16,
				LineHeight:   20,
			},
			BackgroundColor: MustHex("#f6f8fa"),
			BorderColor:     MustHex("#d1d9e0"),
			BorderRadius:    6,
			BorderWidth:     1,
			Padding:         16,
			Theme:           "github",
		},
		Table: Table{
			Block: Block{
				FontSize:     14,
				FontFamily:   defaultFont,
				FontWeight:   "normal",
				Color:        text,
				MarginBottom: 16,
				LineHeight:   20,
			},
			HeaderColor:      text,
			HeaderBackground: MustHex("#f6f8fa"),
			BorderColor:      MustHex("#d1d9e0"),
			CellPadding:      8,
		},
		Strong:   Inline{Color: 0},
		Emphasis: Inline{Color: 0},
		Link:     Link{Color: MustHex("#0969da"), Underline: true},
		Code: Code{
			Color:           MustHex("#cf222e"),
			BackgroundColor: MustHex("#eff1f3"),
			FontFamily:      monoFont,
			FontSize:        14,
		},
		Image:       Image{Height: 200, BorderRadius: 6, MarginBottom: 16},
		InlineImage: InlineImage{Size: 16},
		Math:        Math{FontSize: 16, Color: text, Padding: 8, MarginBottom: 16},
		TaskList: TaskList{
			CheckedColor:   MustHex("#0969da"),
			BorderColor:    MustHex("#59636e"),
			CheckmarkColor: MustHex("#ffffff"),
			BoxSize:        14,
		},
	}
}

// Dark returns the dark theme. It shares the light theme's metrics.
func Dark() *Config {
	c := Default()
	c.Name = "dark"
	text := MustHex("#f0f6fc")
	c.Paragraph.Color = text
	for i := range c.Headings {
		c.Headings[i].Color = text
	}
	c.Blockquote.Color = MustHex("#9198a1")
	c.Blockquote.BorderColor = MustHex("#3d444d")
	c.OrderedList.Color = text
	c.OrderedList.MarkerColor = text
	c.UnorderedList.Color = text
	c.UnorderedList.BulletColor = text
	c.CodeBlock.Color = text
	c.CodeBlock.BackgroundColor = MustHex("#151b23")
	c.CodeBlock.BorderColor = MustHex("#3d444d")
	c.CodeBlock.Theme = "github-dark"
	c.Table.Color = text
	c.Table.HeaderColor = text
	c.Table.HeaderBackground = MustHex("#151b23")
	c.Table.BorderColor = MustHex("#3d444d")
	c.Link.Color = MustHex("#4493f8")
	c.Code.Color = MustHex("#ff7b72")
	c.Code.BackgroundColor = MustHex("#262c36")
	c.Math.Color = text
	c.TaskList.CheckedColor = MustHex("#4493f8")
	c.TaskList.BorderColor = MustHex("#9198a1")
	c.TaskList.CheckmarkColor = MustHex("#0d1117")
	return c
}

// themes maps every accepted name to its constructor. "default" is an alias
// for the light theme.
var themes = map[string]func() *Config{
	"default": Default,
	"light":   Default,
	"dark":    Dark,
}

// ThemeByName returns a fresh copy of a named theme.
func ThemeByName(name string) (*Config, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Default(), nil
	}
	fn, ok := themes[name]
	if !ok {
		return nil, fmt.Errorf("unknown theme %q (available: %s)", name, strings.Join(AvailableThemes(), ", "))
	}
	return fn(), nil
}

// AvailableThemes lists the theme names in sorted order.
func AvailableThemes() []string {
	names := make([]string, 0, len(themes))
	for n := range themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
