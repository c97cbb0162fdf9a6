package render

import (
	"errors"
	"strings"

	"github.com/dgallion1/richtext/internal/doctree"
	"github.com/dgallion1/richtext/internal/mathtex"
	"github.com/dgallion1/richtext/internal/runs"
)

// breakLine starts a new line unless the buffer is empty or already at one.
func (p *pass) breakLine() {
	if p.b.Len() > 0 && !p.b.EndsWithNewline() {
		p.b.Newline()
	}
}

func (p *pass) codeBlock(n *doctree.Node) {
	code := n.Content
	if code == "" {
		code = n.PlainText()
	}
	code = strings.TrimSuffix(code, "\n")
	if code == "" {
		return
	}
	cs := p.r.cfg.CodeBlock
	lang, _ := n.Attr(doctree.AttrLanguage)

	p.breakLine()
	start := p.b.Len()
	p.scoped(BlockCodeBlock, cs.Block, 0, func() {
		p.b.WriteString(code)
	})
	codeEnd := p.b.Len()
	p.b.Newline()
	end := p.b.Len()

	p.b.Annotate(start, end, runs.Annotation{
		Kind:        runs.KindCodeBlock,
		Traits:      runs.Monospace,
		FontSize:    cs.FontSize,
		FontFamily:  cs.FontFamily,
		Background:  cs.BackgroundColor,
		BorderColor: cs.BorderColor,
		BorderWidth: cs.BorderWidth,
		Radius:      cs.BorderRadius,
		GapWidth:    cs.Padding,
		Language:    lang,
	})
	text := textAnnotation(cs.Block)
	text.Traits |= runs.Monospace
	p.b.Annotate(start, codeEnd, text)

	if p.r.highlighter != nil {
		at := start
		for _, tok := range p.r.highlighter.Highlight(code, lang) {
			tokEnd := min(at+len(tok.Text), codeEnd)
			if tokEnd <= at {
				break
			}
			if tok.Color.IsSet() || tok.Bold || tok.Italic || tok.Underline {
				a := runs.Annotation{Kind: runs.KindToken, Color: tok.Color}
				if tok.Bold {
					a.Traits |= runs.Bold
				}
				if tok.Italic {
					a.Traits |= runs.Italic
				}
				if tok.Underline {
					a.Traits |= runs.Underline
				}
				p.b.Annotate(at, tokEnd, a)
			}
			at = tokEnd
		}
	}

	p.lineHeight(start, end, cs.LineHeight)
	if !p.c.InsideBlockElement() && cs.MarginBottom > 0 {
		p.spacer(cs.MarginBottom)
	}
}

// math typesets a formula through the math renderer. Any failure, including
// a timeout on the UI loop, falls back to the delimited source as text.
func (p *pass) math(n *doctree.Node) {
	latex := strings.TrimSpace(n.Content)
	if latex == "" {
		return
	}
	display := n.BoolAttr(doctree.AttrDisplay)
	if v, _ := n.Attr(doctree.AttrDisplay); v == "block" {
		display = true
	}

	if _, ok := p.c.BlockStyle(); ok {
		p.mathInline(latex, display)
		return
	}

	cfg := p.r.cfg
	start := p.b.Len()
	p.scoped(BlockParagraph, cfg.Paragraph, 0, func() { p.mathInline(latex, display) })
	if p.b.Len() == start {
		return
	}
	if !p.c.InsideBlockElement() {
		p.spacer(cfg.Math.MarginBottom)
	}
}

func (p *pass) mathInline(latex string, display bool) {
	bs := p.c.RequireBlockStyle(doctree.KindMath)
	ms := p.r.cfg.Math
	size := ms.FontSize
	if size == 0 {
		size = bs.FontSize
	}
	color := ms.Color
	if !color.IsSet() {
		color = bs.Color
	}

	if p.r.math != nil {
		img, err := p.r.math.Render(p.ctx, latex, display, size, color)
		if err == nil {
			start := p.b.Len()
			p.b.WriteString(runs.ObjectReplacement)
			p.b.Annotate(start, p.b.Len(), runs.Annotation{
				Kind:       runs.KindMath,
				Source:     latex,
				Alt:        img.Text,
				Inline:     !display,
				Width:      img.Width,
				Height:     img.Height,
				Value:      img.Baseline,
				Color:      color,
				Background: ms.BackgroundColor,
			})
			return
		}
		level := p.r.log.Warn
		if errors.Is(err, mathtex.ErrTimeout) {
			level = p.r.log.Info
		}
		level("math fallback to source", "latex", latex, "error", err)
	}

	delim := "$"
	if display {
		delim = "$$"
	}
	start := p.b.Len()
	p.b.WriteString(delim + latex + delim)
	p.b.Annotate(start, p.b.Len(), textAnnotation(bs))
}

// table writes one line per row with cells separated by tabs.
func (p *pass) table(n *doctree.Node) {
	ts := p.r.cfg.Table
	p.breakLine()
	start := p.b.Len()
	columns := 0

	p.scoped(BlockTable, ts.Block, 0, func() {
		for _, row := range n.Children {
			if row == nil || row.Kind != doctree.KindTableRow {
				p.dispatch(row)
				continue
			}
			columns = max(columns, p.tableRow(row))
		}
	})

	end := p.b.Len()
	if end == start {
		return
	}
	p.b.Annotate(start, end, runs.Annotation{
		Kind:        runs.KindTable,
		FontSize:    ts.FontSize,
		FontFamily:  ts.FontFamily,
		BorderColor: ts.BorderColor,
		GapWidth:    ts.CellPadding,
		Columns:     columns,
	})
	p.lineHeight(start, end, ts.LineHeight)
	if !p.c.InsideBlockElement() && ts.MarginBottom > 0 {
		p.spacer(ts.MarginBottom)
	}
}

func (p *pass) tableRow(row *doctree.Node) int {
	ts := p.r.cfg.Table
	start := p.b.Len()
	cells := 0
	for _, cell := range row.Children {
		if cell == nil {
			continue
		}
		if cells > 0 {
			p.b.WriteString("\t")
		}
		cells++
		for _, c := range cell.Children {
			// Cells hold inline content; paragraph wrappers would add spacing.
			if c != nil && c.Kind == doctree.KindParagraph {
				p.children(c)
				continue
			}
			p.dispatch(c)
		}
	}
	end := p.b.Len()
	p.b.Newline()
	if row.BoolAttr(doctree.AttrHeader) && end > start {
		p.b.Annotate(start, end, runs.Annotation{
			Kind:       runs.KindTableHeader,
			Traits:     runs.Bold,
			Color:      ts.HeaderColor,
			Background: ts.HeaderBackground,
		})
	}
	return cells
}
