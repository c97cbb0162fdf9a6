package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/richtext/internal/doctree"
)

func title(n *doctree.Node) string {
	v, _ := n.Attr(doctree.AttrTitle)
	return v
}

func TestTextParser_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if title(tree) != "notes" {
		t.Errorf("expected title %q, got %q", "notes", title(tree))
	}
	if len(tree.Children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(tree.Children))
	}

	want := []string{
		"First paragraph line one.\nFirst paragraph line two.",
		"Second paragraph.",
		"Third paragraph.",
	}
	for i, w := range want {
		if tree.Children[i].Kind != doctree.KindParagraph {
			t.Errorf("child[%d]: expected paragraph, got %s", i, tree.Children[i].Kind)
		}
		if got := tree.Children[i].PlainText(); got != w {
			t.Errorf("child[%d]: expected %q, got %q", i, w, got)
		}
	}
	if n := doctree.Count(tree, doctree.KindLineBreak); n != 1 {
		t.Errorf("expected 1 line break, got %d", n)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title(tree) != "empty" {
		t.Errorf("expected title %q, got %q", "empty", title(tree))
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected 0 children for empty input, got %d", len(tree.Children))
	}
}

func TestTextParser_CRLF(t *testing.T) {
	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader("Hello\r\nworld\r\n"), "crlf.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(tree.Children))
	}
	if got := tree.Children[0].PlainText(); got != "Hello\nworld" {
		t.Errorf("expected %q, got %q", "Hello\nworld", got)
	}
}

func TestTextParser_MultipleBlankLines(t *testing.T) {
	// Multiple consecutive blank lines should not produce empty paragraphs.
	input := "Para one.\n\n\n\nPara two."
	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader(input), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(tree.Children))
	}
}

func TestTextParser_WhitespaceOnlyLines(t *testing.T) {
	// Lines with only whitespace should be treated as blank.
	input := "Para one.\n   \nPara two."
	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader(input), "ws.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(tree.Children))
	}
}

func TestTextParser_NormalizesToNFC(t *testing.T) {
	p := &TextParser{}
	tree, err := p.Parse(strings.NewReader("cafe\u0301"), "nfc.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tree.PlainText(); got != "caf\u00e9" {
		t.Errorf("expected composed form, got %q", got)
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"a.txt", "*parser.TextParser"},
		{"a.MD", "*parser.MarkdownParser"},
		{"a.markdown", "*parser.MarkdownParser"},
		{"a.csv", "*parser.CSVParser"},
		{"a.htm", "*parser.HTMLParser"},
		{"a.pdf", "*parser.PDFParser"},
		{"a.docx", "*parser.DOCXParser"},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.filename)
		if err != nil {
			t.Fatalf("ForFile(%q): %v", tt.filename, err)
		}
		if got := typeName(p); got != tt.want {
			t.Errorf("ForFile(%q) = %s, want %s", tt.filename, got, tt.want)
		}
		if !IsSupportedExtension(tt.filename) {
			t.Errorf("IsSupportedExtension(%q) = false", tt.filename)
		}
	}

	if _, err := ForFile("a.xyz"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if IsSupportedExtension("a.xyz") {
		t.Error("IsSupportedExtension(a.xyz) = true")
	}
}

func typeName(p Parser) string {
	switch p.(type) {
	case *TextParser:
		return "*parser.TextParser"
	case *MarkdownParser:
		return "*parser.MarkdownParser"
	case *CSVParser:
		return "*parser.CSVParser"
	case *HTMLParser:
		return "*parser.HTMLParser"
	case *PDFParser:
		return "*parser.PDFParser"
	case *DOCXParser:
		return "*parser.DOCXParser"
	}
	return "unknown"
}

func TestCSVParser_HeaderRow(t *testing.T) {
	p := &CSVParser{}
	tree, err := p.Parse(strings.NewReader("name,age\nann, 30\nbob,41,extra\n"), "people.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title(tree) != "people" {
		t.Errorf("expected title %q, got %q", "people", title(tree))
	}
	if len(tree.Children) != 1 || tree.Children[0].Kind != doctree.KindTable {
		t.Fatalf("expected a single table, got %+v", tree.Children)
	}
	rows := tree.Children[0].Children
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if !rows[0].BoolAttr(doctree.AttrHeader) || rows[1].BoolAttr(doctree.AttrHeader) {
		t.Error("only the first row should be a header")
	}
	if got := rows[1].Children[1].PlainText(); got != "30" {
		t.Errorf("expected %q, got %q", "30", got)
	}
	if len(rows[2].Children) != 3 {
		t.Errorf("ragged row should keep 3 cells, got %d", len(rows[2].Children))
	}
}

func TestCSVParser_Empty(t *testing.T) {
	p := &CSVParser{}
	tree, err := p.Parse(strings.NewReader(""), "empty.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected no children, got %d", len(tree.Children))
	}
}

func TestPageLines(t *testing.T) {
	got := pageLines("  first  \r\n\n   \nsecond\n")
	want := []string{"  first", "second"}
	if len(got) != len(want) {
		t.Fatalf("pageLines = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
	if lines := pageLines(" \n\n"); lines != nil {
		t.Errorf("blank page = %q", lines)
	}
}
