package render

import (
	"strconv"

	"github.com/dgallion1/richtext/internal/doctree"
	"github.com/dgallion1/richtext/internal/runs"
	"github.com/dgallion1/richtext/internal/style"
)

func (r *Renderer) listStyle(lt ListType) style.List {
	if lt == ListOrdered {
		return r.cfg.OrderedList
	}
	return r.cfg.UnorderedList
}

func (p *pass) list(n *doctree.Node, lt ListType) {
	ls := p.r.listStyle(lt)
	start := p.b.Len()

	entry := p.c.EnterList(lt, ls.Block)
	if lt == ListOrdered {
		if first := n.IntAttr(doctree.AttrStart, 1); first > 1 {
			p.c.listItemNumber = first - 1
		}
	}
	if entry.PreviousDepth > 0 && p.b.Len() > 0 && !p.b.EndsWithNewline() {
		p.b.Newline()
	}

	func() {
		defer p.c.ExitList(entry)
		p.children(n)
	}()

	end := p.b.Len()
	if end == start {
		return
	}
	p.lineHeight(start, end, ls.LineHeight)
	if entry.PreviousDepth == 0 && ls.MarginBottom > 0 {
		p.spacer(ls.MarginBottom)
	}
}

func (p *pass) listItem(n *doctree.Node, task bool) {
	start := p.b.Len()
	lt := p.c.listType

	if _, ok := p.c.BlockStyle(); !ok {
		defer p.c.restore(p.c.save())
		switch lt {
		case ListOrdered, ListUnordered:
			p.c.setList(lt, p.r.listStyle(lt).Block)
		default:
			p.c.setBlock(BlockParagraph, p.r.cfg.Paragraph, 0)
		}
	}
	if lt == ListOrdered {
		p.c.listItemNumber++
	}
	number := p.c.listItemNumber

	p.children(n)

	end := p.b.Len()
	if end == start || p.b.IsBlank(start, end) {
		return
	}
	p.b.TrimTrailingNewlines(start)
	p.b.Newline()

	if lt == ListNone && !task {
		return
	}
	depth := max(p.c.listDepth-1, 0)
	p.b.Annotate(start, p.b.Len(), p.marker(lt, depth, number, task, n.BoolAttr(doctree.AttrChecked)))
}

func (p *pass) marker(lt ListType, depth, number int, task, checked bool) runs.Annotation {
	ls := p.r.listStyle(lt)
	a := runs.Annotation{
		Kind:     runs.KindListMarker,
		Depth:    depth,
		FontSize: ls.FontSize,
		Value:    ls.MarginLeft,
		GapWidth: ls.GapWidth,
	}
	switch {
	case task:
		tl := p.r.cfg.TaskList
		a.Marker = runs.MarkerTask
		a.Checked = checked
		a.MarkerText = "[ ]"
		a.Color = tl.BorderColor
		if checked {
			a.MarkerText = "[x]"
			a.Color = tl.CheckedColor
		}
		a.Background = tl.CheckmarkColor
		a.Width = tl.BoxSize
	case lt == ListOrdered:
		a.Marker = runs.MarkerNumber
		a.Number = number
		a.MarkerText = strconv.Itoa(number) + "."
		a.Color = ls.MarkerColor
		if style.IsBold(ls.MarkerFontWeight) {
			a.Traits = runs.Bold
		}
	default:
		a.Marker = runs.MarkerBullet
		a.MarkerText = "•"
		a.Color = ls.BulletColor
		a.Width = ls.BulletSize
	}
	return a
}
