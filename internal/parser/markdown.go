package parser

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/dgallion1/richtext/internal/doctree"
)

// MarkdownParser handles GitHub-flavoured Markdown with $inline$ and
// $$display$$ math.
type MarkdownParser struct {
	md goldmark.Markdown
}

func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithInlineParsers(util.Prioritized(&mathParser{}, 150)),
		),
	)}
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	doc := p.ParseBytes(src)
	if title := newDocument(filename).Attributes[doctree.AttrTitle]; title != "" {
		doc.WithAttr(doctree.AttrTitle, title)
	}
	return doc, nil
}

// ParseBytes converts markdown source. It never fails; empty input yields an
// empty document.
func (p *MarkdownParser) ParseBytes(src []byte) *doctree.Node {
	if p.md == nil {
		*p = *NewMarkdownParser()
	}
	root := p.md.Parser().Parse(text.NewReader(src))
	c := &mdConverter{src: src}
	doc := doctree.New(doctree.KindDocument)
	c.blocks(doc, root)
	return doc
}

// ParseMarkdown is a convenience wrapper around a default MarkdownParser.
func ParseMarkdown(src string) *doctree.Node {
	return NewMarkdownParser().ParseBytes([]byte(src))
}

type mdConverter struct {
	src []byte
}

// blocks converts the block children of n and appends them to out.
func (c *mdConverter) blocks(out *doctree.Node, n ast.Node) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if b := c.block(child); b != nil {
			out.Append(b)
		}
	}
}

func (c *mdConverter) block(n ast.Node) *doctree.Node {
	switch n := n.(type) {
	case *ast.Heading:
		h := doctree.New(doctree.KindHeading, c.inlines(n)...)
		return h.WithAttr(doctree.AttrLevel, strconv.Itoa(n.Level))

	case *ast.Paragraph, *ast.TextBlock:
		children := c.inlines(n)
		if len(children) == 0 {
			return nil
		}
		// A paragraph holding only display math is a math block.
		if len(children) == 1 && children[0].Kind == doctree.KindMath && children[0].BoolAttr(doctree.AttrDisplay) {
			return children[0]
		}
		return doctree.New(doctree.KindParagraph, children...)

	case *ast.Blockquote:
		q := doctree.New(doctree.KindBlockquote)
		c.blocks(q, n)
		return q

	case *ast.List:
		kind := doctree.KindUnorderedList
		if n.IsOrdered() {
			kind = doctree.KindOrderedList
		}
		l := doctree.New(kind)
		if n.IsOrdered() && n.Start != 1 {
			l.WithAttr(doctree.AttrStart, strconv.Itoa(n.Start))
		}
		c.blocks(l, n)
		return l

	case *ast.ListItem:
		return c.listItem(n)

	case *ast.FencedCodeBlock:
		cb := &doctree.Node{Kind: doctree.KindCodeBlock, Content: c.lines(n)}
		if lang := n.Language(c.src); len(lang) > 0 {
			cb.WithAttr(doctree.AttrLanguage, string(lang))
		}
		return cb

	case *ast.CodeBlock:
		return &doctree.Node{Kind: doctree.KindCodeBlock, Content: c.lines(n)}

	case *east.Table:
		return c.table(n)

	case *ast.ThematicBreak, *ast.HTMLBlock:
		return nil
	}
	// Unknown blocks keep their inline content.
	if n.Type() == ast.TypeBlock && n.HasChildren() {
		if children := c.inlines(n); len(children) > 0 {
			return doctree.New(doctree.KindParagraph, children...)
		}
	}
	return nil
}

func (c *mdConverter) listItem(n *ast.ListItem) *doctree.Node {
	item := doctree.New(doctree.KindListItem)
	if first := n.FirstChild(); first != nil {
		if box, ok := first.FirstChild().(*east.TaskCheckBox); ok {
			item.Kind = doctree.KindTaskListItem
			item.WithAttr(doctree.AttrChecked, strconv.FormatBool(box.IsChecked))
		}
	}
	c.blocks(item, n)
	if item.Kind == doctree.KindTaskListItem && len(item.Children) > 0 {
		trimLeadingSpace(item.Children[0])
	}
	return item
}

// trimLeadingSpace removes the space left between a task checkbox and its
// label.
func trimLeadingSpace(n *doctree.Node) {
	if len(n.Children) == 0 || n.Children[0].Kind != doctree.KindText {
		return
	}
	first := n.Children[0]
	first.Content = strings.TrimLeft(first.Content, " \t")
	if first.Content == "" {
		n.Children = n.Children[1:]
	}
}

func (c *mdConverter) table(n *east.Table) *doctree.Node {
	t := doctree.New(doctree.KindTable)
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch row := child.(type) {
		case *east.TableHeader:
			t.Append(c.tableRow(row, n.Alignments).WithAttr(doctree.AttrHeader, "true"))
		case *east.TableRow:
			t.Append(c.tableRow(row, n.Alignments))
		}
	}
	return t
}

func (c *mdConverter) tableRow(row ast.Node, aligns []east.Alignment) *doctree.Node {
	r := doctree.New(doctree.KindTableRow)
	i := 0
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		// Headers may wrap their cells in a row.
		if inner, ok := cell.(*east.TableRow); ok {
			return c.tableRow(inner, aligns)
		}
		tc := doctree.New(doctree.KindTableCell, c.inlines(cell)...)
		if i < len(aligns) && aligns[i] != east.AlignNone {
			tc.WithAttr(doctree.AttrAlign, aligns[i].String())
		}
		r.Append(tc)
		i++
	}
	return r
}

func (c *mdConverter) lines(n ast.Node) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(c.src))
	}
	return buf.String()
}

// inlines converts the inline children of n, merging adjacent text.
func (c *mdConverter) inlines(n ast.Node) []*doctree.Node {
	var out []*doctree.Node
	push := func(nodes ...*doctree.Node) {
		for _, node := range nodes {
			if node.Kind == doctree.KindText && len(out) > 0 && out[len(out)-1].Kind == doctree.KindText {
				out[len(out)-1].Content += node.Content
				continue
			}
			out = append(out, node)
		}
	}

	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch child := child.(type) {
		case *ast.Text:
			push(textNode(string(child.Value(c.src))))
			switch {
			case child.HardLineBreak():
				push(doctree.New(doctree.KindLineBreak))
			case child.SoftLineBreak():
				push(doctree.Text(" "))
			}
		case *ast.String:
			push(textNode(string(child.Value)))
		case *ast.Emphasis:
			kind := doctree.KindEmphasis
			if child.Level >= 2 {
				kind = doctree.KindStrong
			}
			push(doctree.New(kind, c.inlines(child)...))
		case *ast.CodeSpan:
			push(&doctree.Node{Kind: doctree.KindCode, Content: c.plain(child)})
		case *ast.Link:
			l := doctree.New(doctree.KindLink, c.inlines(child)...).WithAttr(doctree.AttrURL, string(child.Destination))
			if len(child.Title) > 0 {
				l.WithAttr(doctree.AttrTitle, string(child.Title))
			}
			push(l)
		case *ast.AutoLink:
			url := string(child.URL(c.src))
			if child.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(url, "mailto:") {
				url = "mailto:" + url
			}
			push(doctree.New(doctree.KindLink, textNode(string(child.Label(c.src)))).WithAttr(doctree.AttrURL, url))
		case *ast.Image:
			img := doctree.New(doctree.KindImage).WithAttr(doctree.AttrURL, string(child.Destination))
			if alt := c.plain(child); alt != "" {
				img.WithAttr(doctree.AttrAlt, alt)
			}
			if len(child.Title) > 0 {
				img.WithAttr(doctree.AttrTitle, string(child.Title))
			}
			push(img)
		case *mathNode:
			m := &doctree.Node{Kind: doctree.KindMath, Content: child.latex}
			if child.display {
				m.WithAttr(doctree.AttrDisplay, "true")
			}
			push(m)
		case *east.Strikethrough:
			push(c.inlines(child)...)
		case *east.TaskCheckBox, *ast.RawHTML:
		default:
			push(c.inlines(child)...)
		}
	}
	return out
}

// plain returns the concatenated text below n.
func (c *mdConverter) plain(n ast.Node) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			sb.Write(t.Value(c.src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

var kindMath = ast.NewNodeKind("Math")

// mathNode is an inline formula recognised by mathParser.
type mathNode struct {
	ast.BaseInline
	latex   string
	display bool
}

func (n *mathNode) Kind() ast.NodeKind { return kindMath }

func (n *mathNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Latex":   n.latex,
		"Display": strconv.FormatBool(n.display),
	}, nil)
}

// mathParser recognises $...$ and $$...$$ on a single line. Inline math
// must not start or end with a space and must not be followed by a digit, so
// prices such as "$5 and $10" stay text.
type mathParser struct{}

func (p *mathParser) Trigger() []byte { return []byte{'$'} }

func (p *mathParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if len(line) < 2 || line[0] != '$' {
		return nil
	}
	delim := 1
	if line[1] == '$' {
		delim = 2
	}
	body := line[delim:]
	end := closingDollar(body, delim == 2)
	if end <= 0 {
		return nil
	}
	latex := body[:end]
	if delim == 1 {
		if latex[0] == ' ' || latex[len(latex)-1] == ' ' {
			return nil
		}
		if after := body[end+1:]; len(after) > 0 && after[0] >= '0' && after[0] <= '9' {
			return nil
		}
	}
	trimmed := strings.TrimSpace(string(latex))
	if trimmed == "" {
		return nil
	}
	block.Advance(delim + end + delim)
	return &mathNode{latex: trimmed, display: delim == 2}
}

// closingDollar returns the index of the closing delimiter in body, or -1.
func closingDollar(body []byte, double bool) int {
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '\\':
			i++
		case '\n':
			return -1
		case '$':
			if !double {
				return i
			}
			if i+1 < len(body) && body[i+1] == '$' {
				return i
			}
		}
	}
	return -1
}
