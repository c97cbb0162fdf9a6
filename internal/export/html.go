package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/richtext/internal/runs"
	"github.com/dgallion1/richtext/internal/style"
)

// HTML writes doc as a standalone HTML page with inline styles.
func HTML(w io.Writer, doc *runs.Document, cfg *style.Config, title string) error {
	if cfg == nil {
		cfg = style.Default()
	}
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	page := element(atom.Html)
	root.AppendChild(page)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, "charset", "utf-8"))
	t := element(atom.Title)
	t.AppendChild(textNode(title))
	head.AppendChild(t)
	page.AppendChild(head)

	body := element(atom.Body, "style", css(
		"font-family", family(cfg.Paragraph.FontFamily),
		"font-size", px(cfg.Paragraph.FontSize),
		"color", cfg.Paragraph.Color.Hex(),
	))
	page.AppendChild(body)

	hw := &htmlWriter{cfg: cfg, body: body}
	for _, l := range splitLines(doc, cfg.PreserveColors()) {
		hw.line(l)
	}

	if err := html.Render(w, root); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

type htmlWriter struct {
	cfg  *style.Config
	body *html.Node

	quotes []*html.Node
	pre    *html.Node
	table  *html.Node
}

// container returns the node new blocks go into for the given quote depth.
func (hw *htmlWriter) container(depth int) *html.Node {
	for len(hw.quotes) > depth {
		hw.quotes = hw.quotes[:len(hw.quotes)-1]
	}
	parent := hw.body
	if n := len(hw.quotes); n > 0 {
		parent = hw.quotes[n-1]
	}
	bq := hw.cfg.Blockquote
	for len(hw.quotes) < depth {
		q := element(atom.Blockquote, "style", css(
			"border-left", fmt.Sprintf("%gpx solid %s", bq.BorderWidth, bq.BorderColor.Hex()),
			"padding-left", px(bq.GapWidth),
			"margin", "0 0 "+orZero(px(bq.NestedMarginBottom))+" 0",
			"background-color", bq.BackgroundColor.Hex(),
		))
		parent.AppendChild(q)
		hw.quotes = append(hw.quotes, q)
		parent = q
	}
	return parent
}

func (hw *htmlWriter) line(l line) {
	if !l.Code {
		hw.pre = nil
	}
	if !l.Table {
		hw.table = nil
	}
	if l.Blank() {
		hw.pre, hw.table = nil, nil
		return
	}
	parent := hw.container(l.Quote)

	switch {
	case l.Code:
		hw.codeLine(parent, l)
	case l.Table:
		hw.tableRow(parent, l)
	default:
		parent.AppendChild(hw.block(l))
	}
}

func (hw *htmlWriter) codeLine(parent *html.Node, l line) {
	if hw.pre == nil {
		cb := hw.cfg.CodeBlock
		hw.pre = element(atom.Pre, "style", css(
			"background-color", cb.BackgroundColor.Hex(),
			"border", borderCSS(cb.BorderWidth, cb.BorderColor),
			"border-radius", px(cb.BorderRadius),
			"padding", px(cb.Padding),
		))
		code := element(atom.Code)
		if l.Language != "" {
			code.Attr = append(code.Attr, html.Attribute{Key: "class", Val: "language-" + l.Language})
		}
		hw.pre.AppendChild(code)
		parent.AppendChild(hw.pre)
	} else {
		hw.pre.FirstChild.AppendChild(textNode("\n"))
	}
	for _, s := range l.Segments {
		hw.pre.FirstChild.AppendChild(hw.inline(s))
	}
}

func (hw *htmlWriter) tableRow(parent *html.Node, l line) {
	if hw.table == nil {
		tc := hw.cfg.Table
		hw.table = element(atom.Table, "style", css(
			"border-collapse", "collapse",
			"border", borderCSS(1, tc.BorderColor),
		))
		parent.AppendChild(hw.table)
	}
	tr := element(atom.Tr)
	cell := atom.Td
	if l.Header {
		cell = atom.Th
	}
	for _, segs := range l.cells() {
		td := element(cell, "style", css(
			"padding", px(hw.cfg.Table.CellPadding),
			"border", borderCSS(1, hw.cfg.Table.BorderColor),
		))
		for _, s := range segs {
			td.AppendChild(hw.inline(s))
		}
		tr.AppendChild(td)
	}
	hw.table.AppendChild(tr)
}

func (hw *htmlWriter) block(l line) *html.Node {
	var n *html.Node
	if l.Heading > 0 {
		n = element(headingAtoms[min(l.Heading, 6)-1])
	} else {
		n = element(atom.P)
	}
	setStyle(n, "margin", "0 0 "+orZero(px(l.Margin))+" 0")
	if m := l.Marker; m != nil {
		indent := float64(m.Depth+1) * m.Value
		n.Attr = append(n.Attr, html.Attribute{Key: "data-marker", Val: m.MarkerText})
		setStyle(n, "margin-left", px(indent))
		marker := element(atom.Span, "class", "marker", "style", css(
			"color", m.Color.Hex(),
			"margin-right", px(m.GapWidth),
		))
		marker.AppendChild(textNode(m.MarkerText))
		n.AppendChild(marker)
	}
	for _, s := range l.Segments {
		n.AppendChild(hw.inline(s))
	}
	return n
}

var headingAtoms = [6]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

func (hw *htmlWriter) inline(s segment) *html.Node {
	rs := s.Style
	var n *html.Node
	switch {
	case rs.Image != "":
		return element(atom.Img, "src", rs.Image, "alt", strings.ReplaceAll(s.Text, objectReplacement, ""))
	case rs.Math != "":
		n = element(atom.Span, "class", "math")
		n.AppendChild(textNode(rs.Math))
	default:
		n = textNode(strings.ReplaceAll(s.Text, objectReplacement, ""))
	}

	decl := css(
		"font-weight", when(rs.Traits.Has(runs.Bold), "bold"),
		"font-style", when(rs.Traits.Has(runs.Italic), "italic"),
		"font-family", when(rs.Traits.Has(runs.Monospace), monoFamily(rs.FontFamily)),
		"text-decoration", when(rs.Traits.Has(runs.Underline), "underline"),
		"color", rs.Color.Hex(),
		"background-color", rs.Background.Hex(),
	)
	if decl != "" {
		span := element(atom.Span, "style", decl)
		span.AppendChild(n)
		n = span
	}
	if rs.URL != "" {
		a := element(atom.A, "href", rs.URL)
		a.AppendChild(n)
		n = a
	}
	return n
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i+1] == "" {
			continue
		}
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func setStyle(n *html.Node, key, value string) {
	for i, a := range n.Attr {
		if a.Key == "style" {
			n.Attr[i].Val = strings.TrimSuffix(a.Val, ";") + ";" + key + ":" + value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: key + ":" + value})
}

// css joins key/value pairs, skipping empty values.
func css(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			parts = append(parts, pairs[i]+":"+pairs[i+1])
		}
	}
	return strings.Join(parts, ";")
}

func px(v float64) string {
	if v <= 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func borderCSS(width float64, c style.Color) string {
	if width <= 0 || !c.IsSet() {
		return ""
	}
	return fmt.Sprintf("%gpx solid %s", width, c.Hex())
}

func family(name string) string {
	switch {
	case name == "":
		return ""
	case strings.Contains(strings.ToLower(name), "mono"):
		return name + ", monospace"
	}
	return name
}

func monoFamily(name string) string {
	if name == "" {
		return "monospace"
	}
	return family(name)
}

func when(cond bool, v string) string {
	if cond {
		return v
	}
	return ""
}
