package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/richtext/internal/doctree"
)

// TextParser handles plain text files: blank lines separate paragraphs and
// single newlines become line breaks.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := newDocument(filename)
	var lines []string
	flush := func() {
		if len(lines) > 0 {
			doc.Append(paragraphOf(lines))
			lines = nil
		}
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return doc, nil
}
