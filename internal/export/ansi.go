package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"

	"github.com/dgallion1/richtext/internal/runs"
	"github.com/dgallion1/richtext/internal/style"
)

// ANSIOptions controls terminal output.
type ANSIOptions struct {
	// Width wraps paragraphs to this many cells; 0 disables wrapping.
	Width int
	// Color emits SGR sequences. Without it the output is plain text.
	Color bool
}

// ANSI writes doc as terminal text.
func ANSI(w io.Writer, doc *runs.Document, cfg *style.Config, opts ANSIOptions) error {
	if cfg == nil {
		cfg = style.Default()
	}
	aw := &ansiWriter{cfg: cfg, opts: opts}
	if opts.Color {
		aw.r = lipgloss.NewRenderer(w)
		aw.r.SetColorProfile(termenv.TrueColor)
	}

	lines := splitLines(doc, cfg.PreserveColors())
	for i := 0; i < len(lines); i++ {
		l := lines[i]
		switch {
		case l.Blank():
			aw.gap()
			continue
		case l.Table:
			j := i
			for j < len(lines) && lines[j].Table && !lines[j].Blank() {
				j++
			}
			aw.table(lines[i:j])
			i = j - 1
			l = lines[i]
		case l.Code:
			aw.code(l)
		default:
			aw.paragraph(l)
		}
		if l.Margin > 0 {
			aw.gap()
		}
	}

	out := strings.TrimRight(aw.sb.String(), "\n")
	if out != "" {
		out += "\n"
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("write ansi: %w", err)
	}
	return nil
}

type ansiWriter struct {
	cfg  *style.Config
	opts ANSIOptions
	r    *lipgloss.Renderer
	sb   strings.Builder
}

// gap writes one empty line, never two in a row.
func (aw *ansiWriter) gap() {
	if aw.sb.Len() > 0 && !strings.HasSuffix(aw.sb.String(), "\n\n") {
		aw.sb.WriteByte('\n')
	}
}

func (aw *ansiWriter) quotePrefix(depth int) string {
	if depth == 0 {
		return ""
	}
	bar := strings.Repeat("│ ", depth)
	if aw.r == nil {
		return bar
	}
	return aw.r.NewStyle().Foreground(lipgloss.Color(aw.cfg.Blockquote.BorderColor.Hex())).Render(bar)
}

func (aw *ansiWriter) paragraph(l line) {
	quote := aw.quotePrefix(l.Quote)
	marker := ""
	if m := l.Marker; m != nil {
		marker = strings.Repeat("  ", m.Depth) + aw.paint(m.MarkerText, runs.RunStyle{Color: m.Color, Traits: m.Traits}) + " "
	}

	var body strings.Builder
	for _, s := range l.Segments {
		body.WriteString(aw.styled(s))
	}
	text := body.String()

	hang := ansi.PrintableRuneWidth(marker)
	if avail := aw.opts.Width - ansi.PrintableRuneWidth(quote) - hang; aw.opts.Width > 0 && avail > 0 {
		text = wordwrap.String(text, avail)
	}
	first, rest, wrapped := strings.Cut(text, "\n")
	aw.sb.WriteString(quote + marker + first + "\n")
	if wrapped {
		for _, wl := range strings.Split(indent.String(rest, uint(hang)), "\n") {
			aw.sb.WriteString(quote + wl + "\n")
		}
	}
}

func (aw *ansiWriter) code(l line) {
	var body strings.Builder
	for _, s := range l.Segments {
		body.WriteString(aw.styled(s))
	}
	aw.sb.WriteString(aw.quotePrefix(l.Quote) + indent.String(body.String(), 2) + "\n")
}

func (aw *ansiWriter) table(rows []line) {
	cells := make([][]string, len(rows))
	var widths []int
	for i, row := range rows {
		for j, segs := range row.cells() {
			var cell strings.Builder
			for _, s := range segs {
				cell.WriteString(aw.styled(s))
			}
			cells[i] = append(cells[i], cell.String())
			if j >= len(widths) {
				widths = append(widths, 0)
			}
			widths[j] = max(widths[j], ansi.PrintableRuneWidth(cell.String()))
		}
	}

	for i, row := range rows {
		quote := aw.quotePrefix(row.Quote)
		padded := make([]string, len(cells[i]))
		for j, c := range cells[i] {
			padded[j] = padding.String(c, uint(widths[j]))
		}
		aw.sb.WriteString(quote + strings.TrimRight(strings.Join(padded, "  "), " ") + "\n")
		if row.Header {
			rules := make([]string, len(widths))
			for j, w := range widths {
				rules[j] = strings.Repeat("─", w)
			}
			aw.sb.WriteString(quote + aw.paint(strings.Join(rules, "  "), runs.RunStyle{Color: aw.cfg.Table.BorderColor}) + "\n")
		}
	}
}

func displayText(s segment) string {
	switch {
	case s.Style.Image != "":
		return "[image " + s.Style.Image + "]"
	case s.Style.Math != "":
		return s.Style.Math
	}
	return strings.ReplaceAll(s.Text, objectReplacement, "")
}

func (aw *ansiWriter) styled(s segment) string {
	return aw.paint(displayText(s), s.Style)
}

func (aw *ansiWriter) paint(text string, rs runs.RunStyle) string {
	if aw.r == nil || text == "" {
		return text
	}
	st := aw.r.NewStyle().
		Bold(rs.Traits.Has(runs.Bold)).
		Italic(rs.Traits.Has(runs.Italic)).
		Underline(rs.Traits.Has(runs.Underline)).
		Strikethrough(rs.Traits.Has(runs.Strikethrough))
	if rs.Color.IsSet() {
		st = st.Foreground(lipgloss.Color(rs.Color.Hex()))
	}
	if rs.Background.IsSet() {
		st = st.Background(lipgloss.Color(rs.Background.Hex()))
	}
	return st.Render(text)
}
