// Command richtext renders documents to ANSI terminal text, HTML, DOCX or
// JSON.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/dgallion1/richtext/internal/doctree"
	"github.com/dgallion1/richtext/internal/export"
	"github.com/dgallion1/richtext/internal/highlight"
	"github.com/dgallion1/richtext/internal/mathtex"
	"github.com/dgallion1/richtext/internal/measure"
	"github.com/dgallion1/richtext/internal/parser"
	"github.com/dgallion1/richtext/internal/render"
	"github.com/dgallion1/richtext/internal/runs"
	"github.com/dgallion1/richtext/internal/style"
)

const defaultWidth = 80

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	format     string
	theme      string
	width      int
	output     string
	listThemes bool
	measure    bool
	measurer   string
	noColor    bool
	verbose    bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	flags := pflag.NewFlagSet("richtext", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&opts.format, "format", "f", "ansi", "Output format: ansi|html|docx|json|runs")
	flags.StringVarP(&opts.theme, "theme", "t", "default", "Theme name")
	flags.IntVarP(&opts.width, "width", "w", 0, "Output width override (0 uses terminal width if available)")
	flags.StringVarP(&opts.output, "output", "o", "", "Output file instead of stdout")
	flags.BoolVar(&opts.listThemes, "list-themes", false, "List available themes")
	flags.BoolVar(&opts.measure, "measure", false, "Print the laid-out size at --width instead of the document")
	flags.StringVar(&opts.measurer, "measurer", "cell", "Measurer for --measure: font|cell")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable ANSI colors")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log render diagnostics to stderr")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: richtext [flags] [file]\n")
		fmt.Fprintln(stderr, "\nIf no file is given, Markdown is read from stdin.")
		fmt.Fprintln(stderr, "\nFlags:")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}

	if opts.listThemes {
		for _, name := range style.AvailableThemes() {
			fmt.Fprintln(stdout, name)
		}
		return 0
	}
	if flags.NArg() > 1 {
		fmt.Fprintln(stderr, "at most one input file")
		return 2
	}

	if err := render1(opts, flags.Arg(0), stdin, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "richtext: %v\n", err)
		return 1
	}
	return 0
}

func render1(opts options, input string, stdin io.Reader, stdout, stderr io.Writer) error {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := style.ThemeByName(opts.theme)
	if err != nil {
		return err
	}
	root, err := readDocument(input, stdin)
	if err != nil {
		return err
	}

	r := render.New(cfg,
		render.WithLogger(log),
		render.WithHighlighter(highlight.NewChroma(cfg.CodeBlock.Theme)),
		render.WithMath(mathtex.New(mathtex.UnicodeTypesetter{}, nil, 2*time.Second, log)),
	)
	doc, err := r.Render(context.Background(), root)
	if err != nil {
		return err
	}

	out, closeOut, err := resolveOutput(opts.output, stdout)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}

	if opts.measure {
		m, err := measure.ByName(opts.measurer)
		if err != nil {
			return err
		}
		size := measure.Layout(m, doc.Runs(r.PreserveColors()), measure.PaintFor(cfg), float64(opts.width))
		_, err = fmt.Fprintf(out, "%s %d\n", size, uint64(size))
		return err
	}

	switch opts.format {
	case "ansi":
		color := !opts.noColor && opts.output == "" && isTerminal(stdout)
		return export.ANSI(out, doc, cfg, export.ANSIOptions{Width: resolveWidth(opts.width, stdout), Color: color})
	case "html":
		title, _ := root.Attr(doctree.AttrTitle)
		return export.HTML(out, doc, cfg, title)
	case "docx":
		return export.DOCX(out, doc, cfg)
	case "json":
		return export.JSON(out, doc, r.PreserveColors(), false)
	case "runs":
		return writeRuns(out, doc.Runs(r.PreserveColors()))
	}
	return fmt.Errorf("unknown format %q (want ansi, html, docx, json or runs)", opts.format)
}

// readDocument parses the input file by extension, or stdin as markdown.
func readDocument(path string, stdin io.Reader) (*doctree.Node, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return parser.ParseMarkdown(string(data)), nil
	}
	p, err := parser.ForFile(path)
	if err != nil {
		return nil, err
	}
	if pp, ok := p.(*parser.PDFParser); ok {
		pp.FallbackPdftotext = true
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.Parse(f, filepath.Base(path))
}

func writeRuns(w io.Writer, rs []runs.Run) error {
	var buf bytes.Buffer
	for _, r := range rs {
		fmt.Fprintf(&buf, "%d\t%d\t%s\t%s\n", r.Start, r.End, describe(r.Style), strconv.Quote(r.Text))
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func describe(st runs.RunStyle) string {
	var parts []string
	if st.Heading > 0 {
		parts = append(parts, "h"+strconv.Itoa(st.Heading))
	}
	for _, t := range []struct {
		bit  runs.Traits
		name string
	}{{runs.Bold, "bold"}, {runs.Italic, "italic"}, {runs.Monospace, "mono"}, {runs.Underline, "underline"}} {
		if st.Traits.Has(t.bit) {
			parts = append(parts, t.name)
		}
	}
	if st.Quote > 0 {
		parts = append(parts, "quote"+strconv.Itoa(st.Quote))
	}
	if st.CodeBlock {
		parts = append(parts, "code")
	}
	if st.URL != "" {
		parts = append(parts, "link="+st.URL)
	}
	if st.Image != "" {
		parts = append(parts, "image="+st.Image)
	}
	if st.Math != "" {
		parts = append(parts, "math")
	}
	if st.Color.IsSet() {
		parts = append(parts, st.Color.Hex())
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func resolveOutput(path string, stdout io.Writer) (io.Writer, io.Closer, error) {
	if path == "" || path == "-" {
		return stdout, nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func resolveWidth(width int, out io.Writer) int {
	if width > 0 {
		return width
	}
	return terminalWidth(out, defaultWidth)
}

func terminalWidth(out io.Writer, fallback int) int {
	if f, ok := out.(*os.File); ok {
		fd := int(f.Fd())
		if term.IsTerminal(fd) {
			if w, _, err := term.GetSize(fd); err == nil && w > 0 {
				return w
			}
		}
	}
	if value := os.Getenv("COLUMNS"); value != "" {
		if w, err := strconv.Atoi(value); err == nil && w > 0 {
			return w
		}
	}
	return fallback
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
