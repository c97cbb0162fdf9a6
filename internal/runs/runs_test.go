package runs

import (
	"testing"

	"github.com/dgallion1/richtext/internal/style"
)

var (
	red  = style.RGB(255, 0, 0)
	blue = style.RGB(0, 0, 255)
	gray = style.RGB(128, 128, 128)
)

func TestAnnotateOutOfBoundsPanics(t *testing.T) {
	b := NewBuilder()
	b.WriteString("abc")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for out-of-range span")
		}
		if _, ok := r.(*RangeError); !ok {
			t.Fatalf("expected *RangeError, got %T", r)
		}
	}()
	b.Annotate(1, 5, Annotation{Kind: KindStrong})
}

func TestAnnotateEmptyRangeIgnored(t *testing.T) {
	b := NewBuilder()
	b.WriteString("abc")
	b.Annotate(2, 2, Annotation{Kind: KindStrong})
	if len(b.Spans()) != 0 {
		t.Errorf("expected empty span to be ignored, got %d spans", len(b.Spans()))
	}
}

func TestTrimTrailingNewlinesClampsSpans(t *testing.T) {
	b := NewBuilder()
	b.WriteString("item\n\n")
	b.Annotate(0, 6, Annotation{Kind: KindLineHeight, Value: 20})
	b.Annotate(5, 6, Annotation{Kind: KindMarginBottom, Value: 8})

	b.TrimTrailingNewlines(0)

	if got := b.Slice(0, b.Len()); got != "item" {
		t.Fatalf("expected %q, got %q", "item", got)
	}
	spans := b.Spans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span after trim, got %d", len(spans))
	}
	if spans[0].End != 4 {
		t.Errorf("expected clamped end 4, got %d", spans[0].End)
	}
}

func TestTrimTrailingNewlinesRespectsFrom(t *testing.T) {
	b := NewBuilder()
	b.WriteString("a\n\n")
	b.TrimTrailingNewlines(2)
	if b.Len() != 2 {
		t.Errorf("expected trim to stop at 2, got len %d", b.Len())
	}
}

func TestIsBlank(t *testing.T) {
	b := NewBuilder()
	b.WriteString(" \t\n x")
	if !b.IsBlank(0, 5) {
		t.Error("expected whitespace prefix to be blank")
	}
	if b.IsBlank(0, b.Len()) {
		t.Error("expected full buffer not to be blank")
	}
}

func TestColorPrecedenceEitherOrder(t *testing.T) {
	preserve := style.ColorSet{red: {}}

	build := func(strongFirst bool) []Run {
		b := NewBuilder()
		b.WriteString("quoted bold")
		b.Annotate(0, 11, Annotation{Kind: KindText, Color: gray, FontSize: 16})
		strong := func() { b.Annotate(7, 11, Annotation{Kind: KindStrong, Traits: Bold, Color: red}) }
		quote := func() { b.Annotate(0, 11, Annotation{Kind: KindBlockquote, Color: blue}) }
		if strongFirst {
			strong()
			quote()
		} else {
			quote()
			strong()
		}
		return b.Document().Runs(preserve)
	}

	for _, strongFirst := range []bool{true, false} {
		runs := build(strongFirst)
		if len(runs) != 2 {
			t.Fatalf("strongFirst=%v: expected 2 runs, got %d", strongFirst, len(runs))
		}
		if runs[1].Text != "bold" {
			t.Fatalf("strongFirst=%v: expected second run %q, got %q", strongFirst, "bold", runs[1].Text)
		}
		if runs[1].Style.Color != red {
			t.Errorf("strongFirst=%v: expected strong color %v, got %v", strongFirst, red, runs[1].Style.Color)
		}
		if !runs[1].Style.Traits.Has(Bold) {
			t.Errorf("strongFirst=%v: expected bold trait", strongFirst)
		}
		if runs[0].Style.Color != blue {
			t.Errorf("strongFirst=%v: expected blockquote color on plain text, got %v", strongFirst, runs[0].Style.Color)
		}
	}
}

func TestTraitsCompose(t *testing.T) {
	b := NewBuilder()
	b.WriteString("both")
	b.Annotate(0, 4, Annotation{Kind: KindText})
	b.Annotate(0, 4, Annotation{Kind: KindEmphasis, Traits: Italic})
	b.Annotate(0, 4, Annotation{Kind: KindStrong, Traits: Bold})

	runs := b.Document().Runs(nil)
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if !runs[0].Style.Traits.Has(Bold | Italic) {
		t.Errorf("expected bold+italic, got traits %b", runs[0].Style.Traits)
	}
}

func TestRunsMergeAdjacentEqualStyles(t *testing.T) {
	b := NewBuilder()
	b.WriteString("one two")
	b.Annotate(0, 3, Annotation{Kind: KindText, FontSize: 16})
	b.Annotate(3, 7, Annotation{Kind: KindText, FontSize: 16})

	runs := b.Document().Runs(nil)
	if len(runs) != 1 {
		t.Fatalf("expected adjacent equal runs to merge, got %d runs", len(runs))
	}
	if runs[0].Text != "one two" {
		t.Errorf("expected merged text %q, got %q", "one two", runs[0].Text)
	}
}

func TestLinkAtPicksInnermost(t *testing.T) {
	b := NewBuilder()
	b.WriteString("outer inner")
	b.Annotate(6, 11, Annotation{Kind: KindLink, URL: "https://inner.example"})
	b.Annotate(0, 11, Annotation{Kind: KindLink, URL: "https://outer.example"})
	doc := b.Document()

	if url, ok := doc.LinkAt(8); !ok || url != "https://inner.example" {
		t.Errorf("expected inner link, got %q (ok=%v)", url, ok)
	}
	if url, ok := doc.LinkAt(2); !ok || url != "https://outer.example" {
		t.Errorf("expected outer link, got %q (ok=%v)", url, ok)
	}
	if _, ok := doc.LinkAt(11); ok {
		t.Error("expected no link past the end")
	}
}

func TestDocumentIsSnapshot(t *testing.T) {
	b := NewBuilder()
	b.WriteString("a")
	b.Annotate(0, 1, Annotation{Kind: KindText})
	doc := b.Document()
	b.WriteString("b")
	b.Annotate(1, 2, Annotation{Kind: KindText})

	if doc.Text != "a" || len(doc.Spans) != 1 {
		t.Errorf("document changed after freeze: text=%q spans=%d", doc.Text, len(doc.Spans))
	}
}
