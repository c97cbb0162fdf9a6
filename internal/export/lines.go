// Package export writes rendered documents to HTML, DOCX, ANSI terminal
// text and JSON. Every exporter works from the same line view of a
// runs.Document, so block structure is recovered from the spans the renderer
// recorded rather than from the source tree.
package export

import (
	"strings"

	"github.com/dgallion1/richtext/internal/runs"
	"github.com/dgallion1/richtext/internal/style"
)

const objectReplacement = runs.ObjectReplacement

type segment struct {
	Text  string
	Style runs.RunStyle
}

// line is one "\n"-terminated row of the document text.
type line struct {
	Start, End int
	Segments   []segment

	Heading  int
	Quote    int
	Code     bool
	Language string
	Table    bool
	Header   bool
	Marker   *runs.Annotation
	// Margin is the bottom margin carried by the terminating newline.
	Margin float64
}

// Blank reports whether the line is a spacer.
func (l line) Blank() bool { return len(l.Segments) == 0 }

// Plain returns the line text with object placeholders removed.
func (l line) Plain() string {
	var sb strings.Builder
	for _, s := range l.Segments {
		sb.WriteString(strings.ReplaceAll(s.Text, objectReplacement, ""))
	}
	return sb.String()
}

// cells splits a table line on tabs, keeping styles per piece.
func (l line) cells() [][]segment {
	out := [][]segment{nil}
	for _, s := range l.Segments {
		parts := strings.Split(s.Text, "\t")
		for i, part := range parts {
			if i > 0 {
				out = append(out, nil)
			}
			if part != "" {
				out[len(out)-1] = append(out[len(out)-1], segment{Text: part, Style: s.Style})
			}
		}
	}
	return out
}

func splitLines(doc *runs.Document, preserve style.ColorSet) []line {
	if doc == nil || doc.Len() == 0 {
		return nil
	}
	var out []line
	cur := line{}
	for _, r := range doc.Runs(preserve) {
		offset := r.Start
		for i, piece := range strings.Split(r.Text, "\n") {
			if i > 0 {
				cur.End = offset
				cur.Margin = r.Style.MarginBottom
				out = append(out, cur)
				offset++
				cur = line{Start: offset}
			}
			if piece != "" {
				cur.Segments = append(cur.Segments, segment{Text: piece, Style: r.Style})
			}
			offset += len(piece)
		}
	}
	if !cur.Blank() {
		cur.End = doc.Len()
		out = append(out, cur)
	}
	for i := range out {
		classify(doc, &out[i])
	}
	return out
}

func classify(doc *runs.Document, l *line) {
	for _, s := range l.Segments {
		l.Heading = max(l.Heading, s.Style.Heading)
		l.Quote = max(l.Quote, s.Style.Quote)
		l.Code = l.Code || s.Style.CodeBlock
	}
	for i := range doc.Spans {
		s := &doc.Spans[i]
		inside := s.Start <= l.Start && l.End <= s.End && l.Start < s.End
		switch s.Kind {
		case runs.KindTable:
			if inside {
				l.Table = true
			}
		case runs.KindTableHeader:
			if s.Start == l.Start {
				l.Header = true
			}
		case runs.KindCodeBlock:
			if inside {
				l.Language = s.Language
			}
		case runs.KindListMarker:
			if s.Start == l.Start && (l.Marker == nil || s.Depth > l.Marker.Depth) {
				l.Marker = &s.Annotation
			}
		}
	}
}
