package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/richtext/internal/doctree"
)

// PDFParser extracts page text from PDF files. Each page becomes one
// paragraph whose lines are joined by line breaks. When FallbackPdftotext is
// set and the Go reader fails, the pdftotext binary is tried instead.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	// ledongthuc/pdf opens by path.
	tmp, err := os.CreateTemp("", "richtext-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	_, err = io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	pages, err := readPages(path)
	if err != nil && p.FallbackPdftotext {
		pages, err = pdftotextPages(path)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	doc := newDocument(filename)
	for _, page := range pages {
		if lines := pageLines(page); len(lines) > 0 {
			doc.Append(paragraphOf(lines))
		}
	}
	return doc, nil
}

// readPages returns the plain text of every readable page. Pages that fail
// to decode are skipped.
func readPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// pdftotextPages runs pdftotext and splits its output on form feeds.
func pdftotextPages(path string) ([]string, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return strings.Split(string(out), "\f"), nil
}

// pageLines drops blank lines and trailing spaces.
func pageLines(page string) []string {
	var lines []string
	for _, line := range strings.Split(page, "\n") {
		line = strings.TrimRight(line, " \r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
