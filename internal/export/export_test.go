package export

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/muesli/reflow/ansi"

	"github.com/dgallion1/richtext/internal/doctree"
	"github.com/dgallion1/richtext/internal/parser"
	"github.com/dgallion1/richtext/internal/render"
	"github.com/dgallion1/richtext/internal/runs"
	"github.com/dgallion1/richtext/internal/style"
)

func renderMarkdown(t *testing.T, src string) (*runs.Document, *style.Config) {
	t.Helper()
	cfg := style.Default()
	doc, err := render.New(cfg).Render(context.Background(), parser.ParseMarkdown(src))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return doc, cfg
}

const richSample = "# Hi\n\nSome **bold** [link](https://x.io)\n\n> quoted\n\n- one\n- two\n\n```go\nx := 1\n```\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"

func TestSplitLinesClassifies(t *testing.T) {
	doc, cfg := renderMarkdown(t, richSample)
	lines := splitLines(doc, cfg.PreserveColors())

	find := func(text string) line {
		t.Helper()
		for _, l := range lines {
			if l.Plain() == text {
				return l
			}
		}
		t.Fatalf("no line %q", text)
		return line{}
	}
	if l := find("Hi"); l.Heading != 1 || l.Margin <= 0 {
		t.Errorf("heading line = %+v", l)
	}
	if l := find("quoted"); l.Quote != 1 {
		t.Errorf("quote depth = %d", l.Quote)
	}
	if l := find("one"); l.Marker == nil || l.Marker.MarkerText != "•" {
		t.Errorf("list marker = %+v", l.Marker)
	}
	if l := find("x := 1"); !l.Code || l.Language != "go" {
		t.Errorf("code line = %+v", l)
	}
	if l := find("a\tb"); !l.Table || !l.Header {
		t.Errorf("header row = %+v", l)
	}
	if l := find("1\t2"); !l.Table || l.Header {
		t.Errorf("body row = %+v", l)
	}
}

func TestHTMLStructure(t *testing.T) {
	doc, cfg := renderMarkdown(t, richSample)
	var buf bytes.Buffer
	if err := HTML(&buf, doc, cfg, "Sample & co"); err != nil {
		t.Fatalf("HTML: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>Sample &amp; co</title>",
		"<h1",
		`<a href="https://x.io">`,
		"font-weight:bold",
		"<blockquote",
		`class="language-go"`,
		"x := 1",
		"<th",
		"<td",
		`data-marker="•"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "￼") {
		t.Error("object placeholder leaked into html")
	}
}

func TestHTMLImage(t *testing.T) {
	doc, cfg := renderMarkdown(t, "![cat](cat.png)\n")
	var buf bytes.Buffer
	if err := HTML(&buf, doc, cfg, ""); err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if !strings.Contains(buf.String(), `<img src="cat.png"`) {
		t.Errorf("no img element in:\n%s", buf.String())
	}
}

func TestANSIPlainLayout(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"paragraph then list", "text one\n\n- a\n- b\n", "text one\n\n• a\n• b\n"},
		{"nested list", "- a\n  - b\n", "• a\n  • b\n"},
		{"ordered", "1. a\n2. b\n", "1. a\n2. b\n"},
		{"table", "| a | bb |\n|---|---|\n| ccc | d |\n", "a    bb\n───  ──\nccc  d\n"},
		{"quote", "> q\n", "│ q\n"},
		{"code", "```\nx\n```\n", "  x\n"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, cfg := renderMarkdown(t, tt.src)
			var buf bytes.Buffer
			if err := ANSI(&buf, doc, cfg, ANSIOptions{}); err != nil {
				t.Fatalf("ANSI: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestANSIWraps(t *testing.T) {
	doc, cfg := renderMarkdown(t, "- alpha beta gamma delta epsilon zeta eta theta\n")
	var buf bytes.Buffer
	if err := ANSI(&buf, doc, cfg, ANSIOptions{Width: 14}); err != nil {
		t.Fatalf("ANSI: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected wrapping, got %q", buf.String())
	}
	for i, l := range lines {
		if w := ansi.PrintableRuneWidth(l); w > 14 {
			t.Errorf("line %d is %d cells wide: %q", i, w, l)
		}
		if i > 0 && !strings.HasPrefix(l, "  ") {
			t.Errorf("continuation line %d is not hung under the marker: %q", i, l)
		}
	}
}

func TestANSIColor(t *testing.T) {
	doc, cfg := renderMarkdown(t, "plain **bold**\n")
	var buf bytes.Buffer
	if err := ANSI(&buf, doc, cfg, ANSIOptions{Color: true}); err != nil {
		t.Fatalf("ANSI: %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("expected escape sequences, got %q", buf.String())
	}
	if got := stripANSI(buf.String()); got != "plain bold\n" {
		t.Errorf("visible text = %q", got)
	}
}

func stripANSI(s string) string {
	var sb strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEsc = false
			}
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func TestDOCXRoundTrip(t *testing.T) {
	doc, cfg := renderMarkdown(t, "# Title\n\nplain **bold**\n")
	var buf bytes.Buffer
	if err := DOCX(&buf, doc, cfg); err != nil {
		t.Fatalf("DOCX: %v", err)
	}

	p := &parser.DOCXParser{}
	tree, err := p.Parse(bytes.NewReader(buf.Bytes()), "out.docx")
	if err != nil {
		t.Fatalf("parse back: %v", err)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(tree.Children))
	}
	h := tree.Children[0]
	if h.Kind != doctree.KindHeading || h.IntAttr(doctree.AttrLevel, 0) != 1 || h.PlainText() != "Title" {
		t.Errorf("heading = %s level %d %q", h.Kind, h.IntAttr(doctree.AttrLevel, 0), h.PlainText())
	}
	body := tree.Children[1]
	if !strings.Contains(body.PlainText(), "bold") || doctree.Count(body, doctree.KindStrong) == 0 {
		t.Errorf("paragraph lost bold run: %q", body.PlainText())
	}
}

func TestJSON(t *testing.T) {
	doc, cfg := renderMarkdown(t, "a **b**\n")
	var buf bytes.Buffer
	if err := JSON(&buf, doc, cfg.PreserveColors(), true); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var got struct {
		Text  string            `json:"text"`
		Spans []json.RawMessage `json:"spans"`
		Runs  []struct {
			Text string `json:"text"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Text != doc.Text || len(got.Spans) != len(doc.Spans) {
		t.Errorf("payload mismatch: %q %d spans", got.Text, len(got.Spans))
	}
	if len(got.Runs) == 0 {
		t.Error("runs missing")
	}
	if !strings.Contains(buf.String(), `"kind": "strong"`) {
		t.Error("span kinds should marshal by name")
	}

	buf.Reset()
	if err := JSON(&buf, nil, nil, false); err != nil {
		t.Fatalf("JSON(nil): %v", err)
	}
	if !strings.Contains(buf.String(), `"spans": []`) {
		t.Errorf("nil document = %s", buf.String())
	}
}
