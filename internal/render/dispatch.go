package render

import (
	"context"

	"github.com/dgallion1/richtext/internal/doctree"
	"github.com/dgallion1/richtext/internal/runs"
)

// pass is the mutable state of one Render call.
type pass struct {
	r   *Renderer
	ctx context.Context
	b   *runs.Builder
	c   *Context
}

func (p *pass) dispatch(n *doctree.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case doctree.KindDocument:
		p.children(n)
	case doctree.KindParagraph:
		p.paragraph(n)
	case doctree.KindHeading:
		p.heading(n)
	case doctree.KindBlockquote:
		p.blockquote(n)
	case doctree.KindOrderedList:
		p.list(n, ListOrdered)
	case doctree.KindUnorderedList:
		p.list(n, ListUnordered)
	case doctree.KindListItem:
		p.listItem(n, false)
	case doctree.KindTaskListItem:
		p.listItem(n, true)
	case doctree.KindCodeBlock:
		p.codeBlock(n)
	case doctree.KindTable:
		p.table(n)
	case doctree.KindTableRow, doctree.KindTableCell:
		p.children(n)
	case doctree.KindText:
		p.text(n)
	case doctree.KindStrong:
		p.strong(n)
	case doctree.KindEmphasis:
		p.emphasis(n)
	case doctree.KindCode:
		p.code(n)
	case doctree.KindLink:
		p.link(n)
	case doctree.KindLineBreak:
		p.b.Newline()
	case doctree.KindImage:
		p.image(n)
	case doctree.KindMath:
		p.math(n)
	default:
		p.r.log.Warn("unsupported node kind", "kind", n.Kind.String())
	}
}

func (p *pass) children(n *doctree.Node) {
	for _, c := range n.Children {
		p.dispatch(c)
	}
}

// spacer appends a newline carrying a bottom margin.
func (p *pass) spacer(margin float64) {
	at := p.b.Len()
	p.b.Newline()
	if margin > 0 {
		p.b.Annotate(at, p.b.Len(), runs.Annotation{Kind: runs.KindMarginBottom, Value: margin})
	}
}

func (p *pass) lineHeight(start, end int, value float64) {
	if value > 0 {
		p.b.Annotate(start, end, runs.Annotation{Kind: runs.KindLineHeight, Value: value})
	}
}
