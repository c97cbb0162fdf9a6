package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/richtext/internal/doctree"
)

// HTMLParser handles HTML files. Loose inline content between blocks is
// wrapped in paragraphs; script, style and navigation chrome are skipped.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := newDocument(filename)
	if title := findTitle(root); title != "" {
		doc.WithAttr(doctree.AttrTitle, title)
	}

	body := findBody(root)
	if body == nil {
		body = root
	}
	htmlBlocks(doc, body)
	return doc, nil
}

func skipped(a atom.Atom) bool {
	switch a {
	case atom.Script, atom.Style, atom.Nav, atom.Head, atom.Noscript, atom.Template, atom.Iframe:
		return true
	}
	return false
}

func isBlockElement(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Blockquote, atom.Ul, atom.Ol, atom.Li, atom.Pre, atom.Table,
		atom.Div, atom.Section, atom.Article, atom.Main, atom.Header, atom.Footer,
		atom.Aside, atom.Figure, atom.Hr, atom.Dl, atom.Dd, atom.Dt, atom.Body, atom.Html:
		return true
	}
	return false
}

// htmlBlocks converts the children of n into block nodes on out.
func htmlBlocks(out *doctree.Node, n *html.Node) {
	var pending []*doctree.Node
	flush := func() {
		if para := newInlineParagraph(pending); para != nil {
			out.Append(para)
		}
		pending = nil
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && skipped(c.DataAtom) {
			continue
		}
		if !isBlockElement(c) {
			pending = append(pending, htmlInline(c)...)
			continue
		}
		flush()
		if isContainer(c.DataAtom) {
			htmlBlocks(out, c)
			continue
		}
		if b := htmlBlock(c); b != nil {
			out.Append(b)
		}
	}
	flush()
}

func htmlBlock(n *html.Node) *doctree.Node {
	switch n.DataAtom {
	case atom.P, atom.Dt, atom.Dd:
		return newInlineParagraph(htmlInlineChildren(n))
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		children := trimInline(htmlInlineChildren(n))
		if len(children) == 0 {
			return nil
		}
		level := int(n.Data[1] - '0')
		return doctree.New(doctree.KindHeading, children...).WithAttr(doctree.AttrLevel, strconv.Itoa(level))
	case atom.Blockquote:
		q := doctree.New(doctree.KindBlockquote)
		htmlBlocks(q, n)
		return q
	case atom.Ul, atom.Ol:
		kind := doctree.KindUnorderedList
		if n.DataAtom == atom.Ol {
			kind = doctree.KindOrderedList
		}
		l := doctree.New(kind)
		if start, ok := attr(n, "start"); ok && kind == doctree.KindOrderedList {
			l.WithAttr(doctree.AttrStart, start)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Li {
				l.Append(htmlListItem(c))
			}
		}
		return l
	case atom.Li:
		return htmlListItem(n)
	case atom.Pre:
		return htmlPre(n)
	case atom.Table:
		return htmlTable(n)
	}
	return nil
}

// isContainer reports generic block wrappers whose content is lifted into
// the enclosing block.
func isContainer(a atom.Atom) bool {
	switch a {
	case atom.Div, atom.Section, atom.Article, atom.Main, atom.Header, atom.Footer,
		atom.Aside, atom.Figure, atom.Dl, atom.Body, atom.Html:
		return true
	}
	return false
}

func htmlListItem(n *html.Node) *doctree.Node {
	item := doctree.New(doctree.KindListItem)
	if box := findCheckbox(n); box != nil {
		item.Kind = doctree.KindTaskListItem
		_, checked := attr(box, "checked")
		item.WithAttr(doctree.AttrChecked, strconv.FormatBool(checked))
	}
	htmlBlocks(item, n)
	return item
}

func findCheckbox(li *html.Node) *html.Node {
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Input {
			if t, _ := attr(c, "type"); strings.EqualFold(t, "checkbox") {
				return c
			}
		}
		if c.Type == html.ElementNode && c.DataAtom == atom.P {
			if box := findCheckbox(c); box != nil {
				return box
			}
		}
	}
	return nil
}

func htmlPre(n *html.Node) *doctree.Node {
	cb := &doctree.Node{Kind: doctree.KindCodeBlock, Content: rawText(n)}
	code := n.FirstChild
	for code != nil && code.Type != html.ElementNode {
		code = code.NextSibling
	}
	if code != nil && code.DataAtom == atom.Code {
		if class, ok := attr(code, "class"); ok {
			for _, cls := range strings.Fields(class) {
				if lang, ok := strings.CutPrefix(cls, "language-"); ok {
					cb.WithAttr(doctree.AttrLanguage, lang)
					break
				}
			}
		}
	}
	if strings.TrimSpace(cb.Content) == "" {
		return nil
	}
	return cb
}

func htmlTable(n *html.Node) *doctree.Node {
	t := doctree.New(doctree.KindTable)
	var rows func(*html.Node, bool)
	rows = func(n *html.Node, inHead bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Thead:
				rows(c, true)
			case atom.Tbody, atom.Tfoot:
				rows(c, false)
			case atom.Tr:
				t.Append(htmlRow(c, inHead))
			}
		}
	}
	rows(n, false)
	if len(t.Children) == 0 {
		return nil
	}
	return t
}

func htmlRow(tr *html.Node, inHead bool) *doctree.Node {
	row := doctree.New(doctree.KindTableRow)
	header := inHead
	cells := 0
	allTH := true
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
			continue
		}
		cells++
		if c.DataAtom != atom.Th {
			allTH = false
		}
		cell := doctree.New(doctree.KindTableCell, trimInline(htmlInlineChildren(c))...)
		if align, ok := attr(c, "align"); ok {
			cell.WithAttr(doctree.AttrAlign, strings.ToLower(align))
		}
		row.Append(cell)
	}
	if header || (cells > 0 && allTH) {
		row.WithAttr(doctree.AttrHeader, "true")
	}
	return row
}

func htmlInlineChildren(n *html.Node) []*doctree.Node {
	var out []*doctree.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, htmlInline(c)...)
	}
	return mergeText(out)
}

// htmlInline converts one node in inline context. Block elements nested in
// inline context contribute their text.
func htmlInline(n *html.Node) []*doctree.Node {
	switch n.Type {
	case html.TextNode:
		s := collapseSpace(n.Data)
		if s == "" {
			return nil
		}
		return []*doctree.Node{textNode(s)}
	case html.ElementNode:
	default:
		return nil
	}
	if skipped(n.DataAtom) {
		return nil
	}

	switch n.DataAtom {
	case atom.Br:
		return []*doctree.Node{doctree.New(doctree.KindLineBreak)}
	case atom.Strong, atom.B:
		return wrapInline(doctree.KindStrong, n)
	case atom.Em, atom.I:
		return wrapInline(doctree.KindEmphasis, n)
	case atom.Code, atom.Kbd, atom.Samp, atom.Tt:
		s := rawText(n)
		if s == "" {
			return nil
		}
		return []*doctree.Node{{Kind: doctree.KindCode, Content: s}}
	case atom.A:
		href, ok := attr(n, "href")
		children := htmlInlineChildren(n)
		if !ok || href == "" {
			return children
		}
		return []*doctree.Node{doctree.New(doctree.KindLink, children...).WithAttr(doctree.AttrURL, href)}
	case atom.Img:
		src, ok := attr(n, "src")
		if !ok || src == "" {
			return nil
		}
		img := doctree.New(doctree.KindImage).WithAttr(doctree.AttrURL, src)
		if alt, ok := attr(n, "alt"); ok && alt != "" {
			img.WithAttr(doctree.AttrAlt, alt)
		}
		return []*doctree.Node{img}
	case atom.Input:
		return nil
	}
	return htmlInlineChildren(n)
}

func wrapInline(kind doctree.Kind, n *html.Node) []*doctree.Node {
	children := htmlInlineChildren(n)
	if len(children) == 0 {
		return nil
	}
	return []*doctree.Node{doctree.New(kind, children...)}
}

func newInlineParagraph(children []*doctree.Node) *doctree.Node {
	children = trimInline(mergeText(children))
	if len(children) == 0 {
		return nil
	}
	return doctree.New(doctree.KindParagraph, children...)
}

// trimInline strips leading and trailing whitespace of an inline run.
func trimInline(nodes []*doctree.Node) []*doctree.Node {
	for len(nodes) > 0 && nodes[0].Kind == doctree.KindText {
		nodes[0].Content = strings.TrimLeft(nodes[0].Content, " ")
		if nodes[0].Content != "" {
			break
		}
		nodes = nodes[1:]
	}
	for len(nodes) > 0 {
		last := nodes[len(nodes)-1]
		if last.Kind == doctree.KindLineBreak {
			nodes = nodes[:len(nodes)-1]
			continue
		}
		if last.Kind != doctree.KindText {
			break
		}
		last.Content = strings.TrimRight(last.Content, " ")
		if last.Content != "" {
			break
		}
		nodes = nodes[:len(nodes)-1]
	}
	return nodes
}

func mergeText(nodes []*doctree.Node) []*doctree.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n.Kind == doctree.KindText && len(out) > 0 && out[len(out)-1].Kind == doctree.KindText {
			prev := out[len(out)-1]
			if strings.HasSuffix(prev.Content, " ") {
				prev.Content += strings.TrimLeft(n.Content, " ")
			} else {
				prev.Content += n.Content
			}
			continue
		}
		out = append(out, n)
	}
	return out
}

func collapseSpace(s string) string {
	if s == "" {
		return ""
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return " "
	}
	out := strings.Join(fields, " ")
	if isSpace(s[0]) {
		out = " " + out
	}
	if isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r' || b == '\f'
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// rawText returns the text below n without whitespace collapsing.
func rawText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		return strings.TrimSpace(rawText(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
