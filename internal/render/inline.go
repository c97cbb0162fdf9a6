package render

import (
	"github.com/dgallion1/richtext/internal/doctree"
	"github.com/dgallion1/richtext/internal/runs"
	"github.com/dgallion1/richtext/internal/style"
)

func textAnnotation(bs style.Block) runs.Annotation {
	a := runs.Annotation{
		Kind:       runs.KindText,
		FontSize:   bs.FontSize,
		FontFamily: bs.FontFamily,
		Color:      bs.Color,
	}
	if bs.Bold() {
		a.Traits = runs.Bold
	}
	return a
}

func (p *pass) text(n *doctree.Node) {
	bs := p.c.RequireBlockStyle(n.Kind)
	if n.Content == "" {
		return
	}
	start := p.b.Len()
	p.b.WriteString(n.Content)
	p.b.Annotate(start, p.b.Len(), textAnnotation(bs))
}

func (p *pass) strong(n *doctree.Node) {
	bs := p.c.RequireBlockStyle(n.Kind)
	start := p.b.Len()
	p.children(n)
	end := p.b.Len()
	if end <= start {
		return
	}
	color := p.r.cfg.Strong.Color
	if !color.IsSet() {
		color = bs.Color
	}
	p.b.Annotate(start, end, runs.Annotation{Kind: runs.KindStrong, Traits: runs.Bold, Color: color})
}

func (p *pass) emphasis(n *doctree.Node) {
	p.c.RequireBlockStyle(n.Kind)
	start := p.b.Len()
	p.children(n)
	end := p.b.Len()
	if end <= start {
		return
	}
	p.b.Annotate(start, end, runs.Annotation{Kind: runs.KindEmphasis, Traits: runs.Italic, Color: p.r.cfg.Emphasis.Color})
}

func (p *pass) code(n *doctree.Node) {
	bs := p.c.RequireBlockStyle(n.Kind)
	content := n.Content
	if content == "" {
		content = n.PlainText()
	}
	if content == "" {
		return
	}
	cs := p.r.cfg.Code
	start := p.b.Len()
	p.b.WriteString(content)
	a := runs.Annotation{
		Kind:        runs.KindCode,
		Traits:      runs.Monospace,
		FontFamily:  cs.FontFamily,
		FontSize:    cs.FontSize,
		Color:       cs.Color,
		Background:  cs.BackgroundColor,
		BorderColor: cs.BorderColor,
	}
	if a.FontSize == 0 {
		a.FontSize = bs.FontSize
	}
	p.b.Annotate(start, p.b.Len(), a)
}

func (p *pass) link(n *doctree.Node) {
	p.c.RequireBlockStyle(n.Kind)
	start := p.b.Len()
	p.children(n)
	end := p.b.Len()
	url, _ := n.Attr(doctree.AttrURL)
	if end <= start || url == "" {
		return
	}
	ls := p.r.cfg.Link
	a := runs.Annotation{Kind: runs.KindLink, URL: url, Color: ls.Color}
	if ls.Underline {
		a.Traits = runs.Underline
	}
	p.b.Annotate(start, end, a)
}

// image writes one object replacement character. An image that follows
// other text on the same line is inline; otherwise it is a block image.
func (p *pass) image(n *doctree.Node) {
	url, _ := n.Attr(doctree.AttrURL)
	if url == "" {
		p.r.log.Debug("image without url skipped")
		return
	}
	inline := p.b.Len() > 0 && !p.b.EndsWithNewline()
	alt, _ := n.Attr(doctree.AttrAlt)

	cfg := p.r.cfg
	a := runs.Annotation{
		Kind:   runs.KindImage,
		URL:    url,
		Inline: inline,
		Alt:    alt,
	}
	if inline {
		a.Width, a.Height = cfg.InlineImage.Size, cfg.InlineImage.Size
	} else {
		a.Height = cfg.Image.Height
		a.Radius = cfg.Image.BorderRadius
	}
	if p.r.images != nil {
		if w, h, ok := p.r.images.Request(url); ok && w > 0 && h > 0 {
			if inline {
				a.Width = cfg.InlineImage.Size * w / h
			} else {
				a.Width, a.Height = w, h
				if cfg.Image.Height > 0 {
					a.Width, a.Height = w*cfg.Image.Height/h, cfg.Image.Height
				}
			}
		}
	}

	start := p.b.Len()
	p.b.WriteString(runs.ObjectReplacement)
	p.b.Annotate(start, p.b.Len(), a)
}
