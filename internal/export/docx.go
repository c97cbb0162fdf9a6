package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/richtext/internal/runs"
	"github.com/dgallion1/richtext/internal/style"
)

// DOCX writes doc as a Word document. Headings use the built-in HeadingN
// paragraph styles; table rows become tab-separated paragraphs.
func DOCX(w io.Writer, doc *runs.Document, cfg *style.Config) error {
	if cfg == nil {
		cfg = style.Default()
	}
	d := docx.New().WithDefaultTheme()

	for _, l := range splitLines(doc, cfg.PreserveColors()) {
		if l.Blank() {
			continue
		}
		p := d.AddParagraph()
		if l.Heading > 0 {
			p.Properties = &docx.ParagraphProperties{
				Style: &docx.Style{Val: "Heading" + strconv.Itoa(min(l.Heading, 6))},
			}
		}
		if l.Quote > 0 {
			p.AddText(strings.Repeat("│ ", l.Quote)).Color(strings.TrimPrefix(cfg.Blockquote.BorderColor.Hex(), "#"))
		}
		if m := l.Marker; m != nil {
			p.AddText(strings.Repeat("    ", m.Depth) + m.MarkerText + " ")
		}
		if l.Table {
			for i, cell := range l.cells() {
				if i > 0 {
					p.AddText("\t")
				}
				for _, s := range cell {
					docxRun(p, s, l.Header)
				}
			}
			continue
		}
		for _, s := range l.Segments {
			docxRun(p, s, false)
		}
	}

	if _, err := d.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func docxRun(p *docx.Paragraph, s segment, bold bool) {
	rs := s.Style
	text := displayText(s)
	if text == "" {
		return
	}
	if rs.URL != "" {
		p.AddLink(text, rs.URL)
		return
	}
	r := p.AddText(text)
	if bold || rs.Traits.Has(runs.Bold) {
		r.Bold()
	}
	if rs.Traits.Has(runs.Italic) {
		r.Italic()
	}
	if rs.Traits.Has(runs.Underline) {
		r.Underline("single")
	}
	if rs.Color.IsSet() {
		r.Color(strings.TrimPrefix(rs.Color.Hex(), "#"))
	}
	if rs.FontSize > 0 {
		// Sizes are in half-points.
		r.Size(strconv.Itoa(int(rs.FontSize * 2)))
	}
}
