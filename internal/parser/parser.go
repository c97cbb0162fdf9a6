// Package parser turns source documents into doctree nodes. Every parser
// returns a Document root; the document title, when known, is stored in its
// "title" attribute.
package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/richtext/internal/doctree"
)

// ErrUnsupportedFormat is returned for file types no parser handles.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Parser converts raw document bytes into a document tree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Node, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return NewMarkdownParser(), nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// newDocument returns an empty root titled after filename without its
// extension.
func newDocument(filename string) *doctree.Node {
	doc := doctree.New(doctree.KindDocument)
	if title := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)); title != "" && title != "." {
		doc.WithAttr(doctree.AttrTitle, title)
	}
	return doc
}

// textNode returns an NFC-normalized text leaf.
func textNode(s string) *doctree.Node {
	return doctree.Text(norm.NFC.String(s))
}

// paragraphOf builds a paragraph from lines joined by line breaks.
func paragraphOf(lines []string) *doctree.Node {
	p := doctree.New(doctree.KindParagraph)
	for i, l := range lines {
		if i > 0 {
			p.Append(doctree.New(doctree.KindLineBreak))
		}
		p.Append(textNode(l))
	}
	return p
}
