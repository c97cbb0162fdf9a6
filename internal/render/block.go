package render

import (
	"sort"
	"strings"

	"github.com/dgallion1/richtext/internal/doctree"
	"github.com/dgallion1/richtext/internal/runs"
	"github.com/dgallion1/richtext/internal/style"
)

func (p *pass) paragraph(n *doctree.Node) {
	if p.c.InsideBlockElement() {
		p.children(n)
		p.b.Newline()
		return
	}

	cfg := p.r.cfg
	ps := cfg.Paragraph
	start := p.b.Len()
	p.scoped(BlockParagraph, ps, 0, func() { p.children(n) })
	end := p.b.Len()
	if end == start {
		return
	}

	imageOnly := isImageOnly(n)
	if !imageOnly {
		p.lineHeight(start, end, ps.LineHeight)
	}
	margin := ps.MarginBottom
	if imageOnly {
		margin = cfg.Image.MarginBottom
	}
	p.spacer(margin)
}

// scoped sets a block style for the duration of fn and restores the previous
// one afterwards, even if fn panics.
func (p *pass) scoped(kind BlockKind, s style.Block, level int, fn func()) {
	saved := p.c.save()
	defer p.c.restore(saved)
	p.c.setBlock(kind, s, level)
	fn()
}

// isImageOnly reports whether the paragraph's only meaningful child is an
// image.
func isImageOnly(n *doctree.Node) bool {
	images := 0
	for _, c := range n.Children {
		switch {
		case c == nil:
		case c.Kind == doctree.KindImage:
			images++
		case c.Kind == doctree.KindText && strings.TrimSpace(c.Content) == "":
		case c.Kind == doctree.KindLineBreak:
		default:
			return false
		}
	}
	return images == 1
}

func (p *pass) heading(n *doctree.Node) {
	level := n.IntAttr(doctree.AttrLevel, 1)
	if level < 1 || level > 6 {
		level = 1
	}
	hs := p.r.cfg.Heading(level)

	start := p.b.Len()
	p.scoped(BlockHeading, hs, level, func() { p.children(n) })
	end := p.b.Len()
	if end == start {
		return
	}

	a := runs.Annotation{
		Kind:       runs.KindHeading,
		Level:      level,
		FontSize:   hs.FontSize,
		FontFamily: hs.FontFamily,
		Color:      hs.Color,
	}
	if hs.Bold() {
		a.Traits = runs.Bold
	}
	p.b.Annotate(start, end, a)
	p.lineHeight(start, end, hs.LineHeight)
	p.spacer(hs.MarginBottom)
}

func (p *pass) blockquote(n *doctree.Node) {
	bq := p.r.cfg.Blockquote
	depth := p.c.blockquoteDepth
	start := p.b.Len()

	func() {
		saved := p.c.save()
		defer func() {
			p.c.restore(saved)
			p.c.blockquoteDepth = depth
		}()
		p.c.blockquoteDepth = depth + 1
		p.c.setBlock(BlockBlockquote, bq.Block, 0)
		p.children(n)
	}()

	end := p.b.Len()
	if end == start {
		return
	}

	nested := p.nestedQuotes(start, end, depth)
	p.b.Annotate(start, end, runs.Annotation{
		Kind:        runs.KindBlockquote,
		Depth:       depth,
		FontSize:    bq.FontSize,
		FontFamily:  bq.FontFamily,
		Color:       bq.Color,
		Background:  bq.BackgroundColor,
		BorderColor: bq.BorderColor,
		BorderWidth: bq.BorderWidth,
		GapWidth:    bq.GapWidth,
	})
	if bq.LineHeight > 0 {
		for _, r := range excludeRanges(start, end, nested) {
			p.lineHeight(r[0], r[1], bq.LineHeight)
		}
	}
	if len(nested) > 0 && bq.NestedMarginBottom > 0 {
		contentEnd := end
		if p.b.Slice(end-1, end) == "\n" {
			contentEnd--
		}
		if contentEnd > start {
			for _, r := range excludeRanges(start, contentEnd, nested) {
				p.b.Annotate(r[0], r[1], runs.Annotation{Kind: runs.KindMarginBottom, Value: bq.NestedMarginBottom})
			}
		}
	}
	if depth == 0 && bq.MarginBottom > 0 {
		p.spacer(bq.MarginBottom)
	}
}

// nestedQuotes returns the ranges of blockquotes exactly one level deeper
// than depth that lie inside [start,end) and begin after start.
func (p *pass) nestedQuotes(start, end, depth int) [][2]int {
	var out [][2]int
	for _, s := range p.b.SpansOf(runs.KindBlockquote, start, end) {
		if s.Depth == depth+1 && s.Start >= start && s.End <= end && s.Start > start {
			out = append(out, [2]int{s.Start, s.End})
		}
	}
	return out
}

// excludeRanges returns the gaps of [start,end) not covered by holes.
func excludeRanges(start, end int, holes [][2]int) [][2]int {
	if len(holes) == 0 {
		return [][2]int{{start, end}}
	}
	sorted := make([][2]int, len(holes))
	copy(sorted, holes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i][0] < sorted[j][0] })

	var out [][2]int
	cursor := start
	for _, h := range sorted {
		if cursor < h[0] && cursor < end {
			out = append(out, [2]int{cursor, min(h[0], end)})
		}
		if h[1] > cursor {
			cursor = h[1]
		}
	}
	if cursor < end {
		out = append(out, [2]int{cursor, end})
	}
	return out
}
