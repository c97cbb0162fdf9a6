package parser

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/richtext/internal/doctree"
)

// DOCXParser handles .docx files. Heading styles map to headings and bold or
// italic runs to strong and emphasis.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "richtext-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	d, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc := newDocument(filename)
	for _, item := range d.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		inlines := trimInline(docxInlines(para))
		if len(inlines) == 0 {
			continue
		}
		if level := docxHeadingLevel(para); level > 0 {
			doc.Append(doctree.New(doctree.KindHeading, inlines...).WithAttr(doctree.AttrLevel, strconv.Itoa(level)))
			continue
		}
		doc.Append(doctree.New(doctree.KindParagraph, inlines...))
	}
	return doc, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if style == "title" {
		return 1
	}
	rest, ok := strings.CutPrefix(style, "heading")
	if !ok {
		return 0
	}
	level, err := strconv.Atoi(rest)
	if err != nil || level < 1 || level > 6 {
		return 0
	}
	return level
}

func docxInlines(para *docx.Paragraph) []*doctree.Node {
	var out []*doctree.Node
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			out = append(out, docxRun(c)...)
		case *docx.Hyperlink:
			// Targets live in the relationship part; keep the label only.
			out = append(out, docxRun(&c.Run)...)
		}
	}
	return mergeText(out)
}

func docxRun(run *docx.Run) []*doctree.Node {
	var buf strings.Builder
	for _, rc := range run.Children {
		if t, ok := rc.(*docx.Text); ok {
			buf.WriteString(t.Text)
		}
	}
	if buf.Len() == 0 {
		return nil
	}
	node := textNode(buf.String())
	if props := run.RunProperties; props != nil {
		if props.Italic != nil {
			node = doctree.New(doctree.KindEmphasis, node)
		}
		if props.Bold != nil {
			node = doctree.New(doctree.KindStrong, node)
		}
	}
	return []*doctree.Node{node}
}
