package render

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/dgallion1/richtext/internal/doctree"
	"github.com/dgallion1/richtext/internal/highlight"
	"github.com/dgallion1/richtext/internal/mathtex"
	"github.com/dgallion1/richtext/internal/runs"
	"github.com/dgallion1/richtext/internal/style"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRenderer(cfg *style.Config, opts ...Option) *Renderer {
	return New(cfg, append([]Option{WithLogger(quietLogger())}, opts...)...)
}

func mustRender(t *testing.T, r *Renderer, root *doctree.Node) *runs.Document {
	t.Helper()
	doc, err := r.Render(context.Background(), root)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return doc
}

func doc(children ...*doctree.Node) *doctree.Node {
	return doctree.New(doctree.KindDocument, children...)
}

func para(children ...*doctree.Node) *doctree.Node {
	return doctree.New(doctree.KindParagraph, children...)
}

func item(children ...*doctree.Node) *doctree.Node {
	return doctree.New(doctree.KindListItem, children...)
}

func quote(children ...*doctree.Node) *doctree.Node {
	return doctree.New(doctree.KindBlockquote, children...)
}

func spansOf(d *runs.Document, kind runs.Kind) []runs.Span {
	return d.SpansOf(kind)
}

// sample covers every node kind the renderer knows about.
func sample() *doctree.Node {
	return doc(
		doctree.New(doctree.KindHeading, doctree.Text("Title")).WithAttr(doctree.AttrLevel, "2"),
		para(
			doctree.Text("plain "),
			doctree.New(doctree.KindStrong, doctree.Text("bold")),
			doctree.Text(" "),
			doctree.New(doctree.KindEmphasis, doctree.Text("it")),
			doctree.New(doctree.KindLineBreak),
			&doctree.Node{Kind: doctree.KindCode, Content: "x := 1"},
			doctree.New(doctree.KindLink, doctree.Text("site")).WithAttr(doctree.AttrURL, "https://example.com"),
		),
		quote(para(doctree.Text("a")), quote(para(doctree.Text("b")))),
		doctree.New(doctree.KindOrderedList,
			item(para(doctree.Text("one"))),
			item(para(doctree.Text("two")), doctree.New(doctree.KindUnorderedList, item(para(doctree.Text("x"))))),
		),
		(&doctree.Node{Kind: doctree.KindCodeBlock, Content: "func main() {}\n"}).WithAttr(doctree.AttrLanguage, "go"),
		doctree.New(doctree.KindTable,
			doctree.New(doctree.KindTableRow,
				doctree.New(doctree.KindTableCell, doctree.Text("h1")),
				doctree.New(doctree.KindTableCell, doctree.Text("h2")),
			).WithAttr(doctree.AttrHeader, "true"),
			doctree.New(doctree.KindTableRow,
				doctree.New(doctree.KindTableCell, doctree.Text("c1")),
				doctree.New(doctree.KindTableCell, doctree.Text("c2")),
			),
		),
		para(doctree.New(doctree.KindImage).WithAttr(doctree.AttrURL, "https://example.com/a.png")),
	)
}

func TestRenderDeterministic(t *testing.T) {
	r := newTestRenderer(nil, WithHighlighter(highlight.NewChroma("github")))
	first := mustRender(t, r, sample())
	second := mustRender(t, r, sample())
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two renders of the same tree differ")
	}
	p := r.PreserveColors()
	if !reflect.DeepEqual(first.Runs(p), second.Runs(p)) {
		t.Fatal("resolved runs differ between renders")
	}
}

func TestNestedBlockquoteExclusion(t *testing.T) {
	r := newTestRenderer(nil)
	d := mustRender(t, r, doc(quote(para(doctree.Text("a")), quote(para(doctree.Text("b"))))))

	if d.Text != "a\nb\n\n" {
		t.Fatalf("text = %q", d.Text)
	}

	lh := spansOf(d, runs.KindLineHeight)
	if len(lh) != 2 {
		t.Fatalf("expected 2 line-height spans, got %d: %+v", len(lh), lh)
	}
	var inner, outer runs.Span
	for _, s := range lh {
		if s.Start == 2 {
			inner = s
		} else {
			outer = s
		}
	}
	if inner.Start != 2 || inner.End != 4 {
		t.Errorf("inner line height = [%d,%d), want [2,4)", inner.Start, inner.End)
	}
	if outer.Start != 0 || outer.End != 2 {
		t.Errorf("outer line height = [%d,%d), want [0,2)", outer.Start, outer.End)
	}
	if outer.End > inner.Start {
		t.Error("outer line-height range overlaps the nested quote")
	}

	depths := map[int]bool{}
	for _, s := range spansOf(d, runs.KindBlockquote) {
		if s.Contains(2, 3) {
			depths[s.Depth] = true
		}
	}
	if !depths[0] || !depths[1] {
		t.Errorf("expected borders at depth 0 and 1 over inner content, got %v", depths)
	}

	var nestedMargin bool
	for _, s := range spansOf(d, runs.KindMarginBottom) {
		if s.Value == r.Config().Blockquote.NestedMarginBottom {
			nestedMargin = true
			if s.Start != 0 || s.End != 2 {
				t.Errorf("nested margin = [%d,%d), want [0,2)", s.Start, s.End)
			}
		}
	}
	if !nestedMargin {
		t.Error("expected a nested margin span on the outer quote")
	}
}

func markerNumbers(d *runs.Document) []int {
	var out []int
	for _, s := range spansOf(d, runs.KindListMarker) {
		if s.Marker == runs.MarkerNumber {
			out = append(out, s.Number)
		}
	}
	return out
}

func TestOrderedCounterIsolation(t *testing.T) {
	tree := doc(doctree.New(doctree.KindOrderedList,
		item(para(doctree.Text("a"))),
		item(
			para(doctree.Text("b")),
			doctree.New(doctree.KindUnorderedList, item(para(doctree.Text("x")))),
		),
		item(para(doctree.Text("c"))),
	))
	d := mustRender(t, newTestRenderer(nil), tree)

	if d.Text != "a\nb\nx\nc\n\n" {
		t.Fatalf("text = %q", d.Text)
	}
	if got := markerNumbers(d); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("numbers = %v, want [1 2 3]", got)
	}

	var bullets int
	for _, s := range spansOf(d, runs.KindListMarker) {
		if s.Marker == runs.MarkerBullet {
			bullets++
			if s.Depth != 1 {
				t.Errorf("nested bullet depth = %d, want 1", s.Depth)
			}
		}
	}
	if bullets != 1 {
		t.Errorf("expected 1 bullet, got %d", bullets)
	}
}

func TestOrderedListStart(t *testing.T) {
	tree := doc(doctree.New(doctree.KindOrderedList,
		item(para(doctree.Text("a"))),
		item(para(doctree.Text("b"))),
	).WithAttr(doctree.AttrStart, "3"))
	d := mustRender(t, newTestRenderer(nil), tree)
	if got := markerNumbers(d); !reflect.DeepEqual(got, []int{3, 4}) {
		t.Errorf("numbers = %v, want [3 4]", got)
	}
}

func TestEmptyItemConsumesNumber(t *testing.T) {
	tree := doc(doctree.New(doctree.KindOrderedList,
		item(para(doctree.Text("a"))),
		item(),
		item(para(doctree.Text("c"))),
	))
	d := mustRender(t, newTestRenderer(nil), tree)
	if got := markerNumbers(d); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Errorf("numbers = %v, want [1 3]", got)
	}
}

func TestTaskListMarkers(t *testing.T) {
	tree := doc(doctree.New(doctree.KindUnorderedList,
		doctree.New(doctree.KindTaskListItem, para(doctree.Text("done"))).WithAttr(doctree.AttrChecked, "true"),
		doctree.New(doctree.KindTaskListItem, para(doctree.Text("todo"))),
	))
	d := mustRender(t, newTestRenderer(nil), tree)

	markers := spansOf(d, runs.KindListMarker)
	if len(markers) != 2 {
		t.Fatalf("expected 2 markers, got %d", len(markers))
	}
	if markers[0].Marker != runs.MarkerTask || !markers[0].Checked || markers[0].MarkerText != "[x]" {
		t.Errorf("first marker = %+v", markers[0].Annotation)
	}
	if markers[1].Checked || markers[1].MarkerText != "[ ]" {
		t.Errorf("second marker = %+v", markers[1].Annotation)
	}
}

func linkColor(t *testing.T, tree *doctree.Node) style.Color {
	t.Helper()
	r := newTestRenderer(nil)
	d := mustRender(t, r, tree)
	for _, run := range d.Runs(r.PreserveColors()) {
		if run.Text == "x" {
			return run.Style.Color
		}
	}
	t.Fatal("run for x not found")
	return 0
}

func TestLinkColorWinsRegardlessOfNesting(t *testing.T) {
	link := func(children ...*doctree.Node) *doctree.Node {
		return doctree.New(doctree.KindLink, children...).WithAttr(doctree.AttrURL, "https://example.com")
	}
	strong := func(children ...*doctree.Node) *doctree.Node {
		return doctree.New(doctree.KindStrong, children...)
	}
	want := style.Default().Link.Color

	if got := linkColor(t, doc(para(link(strong(doctree.Text("x")))))); got != want {
		t.Errorf("link(strong): color = %s, want %s", got, want)
	}
	if got := linkColor(t, doc(para(strong(link(doctree.Text("x")))))); got != want {
		t.Errorf("strong(link): color = %s, want %s", got, want)
	}
}

func TestImageOnlyParagraph(t *testing.T) {
	cfg := style.Default()
	cfg.Image.MarginBottom = 40
	r := newTestRenderer(cfg)
	d := mustRender(t, r, doc(para(doctree.New(doctree.KindImage).WithAttr(doctree.AttrURL, "a.png"))))

	if d.Text != runs.ObjectReplacement+"\n" {
		t.Fatalf("text = %q", d.Text)
	}
	if lh := spansOf(d, runs.KindLineHeight); len(lh) != 0 {
		t.Errorf("image-only paragraph got line-height spans: %+v", lh)
	}
	mb := spansOf(d, runs.KindMarginBottom)
	if len(mb) != 1 || mb[0].Value != 40 {
		t.Errorf("margin spans = %+v, want one with value 40", mb)
	}
	img := spansOf(d, runs.KindImage)
	if len(img) != 1 || img[0].Inline {
		t.Fatalf("image spans = %+v, want one block image", img)
	}
	if img[0].Radius != cfg.Image.BorderRadius || img[0].BorderWidth != 0 {
		t.Errorf("image radius = %v, border width = %v, want radius %v and no border",
			img[0].Radius, img[0].BorderWidth, cfg.Image.BorderRadius)
	}
}

type fixedImages struct{ w, h float64 }

func (f fixedImages) Request(string) (float64, float64, bool) { return f.w, f.h, true }

func TestInlineImageScaledToLineSize(t *testing.T) {
	r := newTestRenderer(nil, WithImages(fixedImages{w: 64, h: 32}))
	d := mustRender(t, r, doc(para(doctree.Text("see "), doctree.New(doctree.KindImage).WithAttr(doctree.AttrURL, "a.png"))))

	img := spansOf(d, runs.KindImage)
	if len(img) != 1 {
		t.Fatalf("expected one image span, got %d", len(img))
	}
	if !img[0].Inline {
		t.Error("image after text should be inline")
	}
	size := r.Config().InlineImage.Size
	if img[0].Width != size*2 || img[0].Height != size {
		t.Errorf("inline image size = %vx%v, want %vx%v", img[0].Width, img[0].Height, size*2, size)
	}
}

func TestInlineOutsideBlockIsContractError(t *testing.T) {
	r := newTestRenderer(nil)
	_, err := r.Render(context.Background(), doc(doctree.Text("stray")))
	var ce *ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ContractError, got %v", err)
	}
	if ce.Node != doctree.KindText {
		t.Errorf("contract error node = %s", ce.Node)
	}
}

func TestContextRestoredAfterBlocks(t *testing.T) {
	r := newTestRenderer(nil)

	// Siblings after nested containers render normally.
	tree := doc(
		quote(quote(para(doctree.Text("deep")))),
		doctree.New(doctree.KindUnorderedList, item(doctree.New(doctree.KindOrderedList, item(para(doctree.Text("n")))))),
		para(doctree.Text("after")),
	)
	d := mustRender(t, r, tree)
	last := d.Runs(r.PreserveColors())
	var found bool
	for _, run := range last {
		if run.Text == "after" {
			found = true
			if run.Style.Quote != 0 {
				t.Error("paragraph after quote still inside quote")
			}
		}
	}
	if !found {
		t.Fatal("trailing paragraph missing")
	}

	// No block style leaks out of a list.
	_, err := r.Render(context.Background(), doc(
		doctree.New(doctree.KindUnorderedList, item(para(doctree.Text("a")))),
		doctree.Text("leak"),
	))
	var ce *ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("expected contract error after list, got %v", err)
	}
}

func TestListExitRestoresContext(t *testing.T) {
	c := NewContext()
	outer := c.EnterList(ListOrdered, style.Block{FontSize: 16})
	c.listItemNumber = 2
	inner := c.EnterList(ListUnordered, style.Block{FontSize: 14})
	if c.ListDepth() != 2 || c.ListType() != ListUnordered || c.ListItemNumber() != 0 {
		t.Fatalf("inner state: depth=%d type=%d n=%d", c.ListDepth(), c.ListType(), c.ListItemNumber())
	}
	c.ExitList(inner)
	if c.ListDepth() != 1 || c.ListType() != ListOrdered || c.ListItemNumber() != 2 {
		t.Fatalf("after inner exit: depth=%d type=%d n=%d", c.ListDepth(), c.ListType(), c.ListItemNumber())
	}
	if bs, _ := c.BlockStyle(); bs.FontSize != 16 || c.BlockKind() != BlockOrderedList {
		t.Errorf("parent block style not restored: %+v %s", bs, c.BlockKind())
	}
	c.ExitList(outer)
	if c.ListDepth() != 0 || c.ListType() != ListNone || c.InsideBlockElement() {
		t.Error("outer exit did not clear list state")
	}
	if _, ok := c.BlockStyle(); ok {
		t.Error("block style still set after leaving all lists")
	}
}

func TestStrayListItemDoesNotLeakStyle(t *testing.T) {
	r := newTestRenderer(nil)
	stray := doctree.New(doctree.KindListItem, doctree.Text("a"))

	d := mustRender(t, r, doc(stray))
	if d.Text != "a\n" {
		t.Errorf("stray item text = %q", d.Text)
	}

	_, err := r.Render(context.Background(), doc(stray, doctree.Text("leak")))
	var ce *ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("expected contract error for text after a stray item, got %v", err)
	}
}

func TestUnknownKindSkipped(t *testing.T) {
	r := newTestRenderer(nil)
	d := mustRender(t, r, doc(&doctree.Node{Kind: doctree.Kind(200)}, para(doctree.Text("ok"))))
	if d.Text != "ok\n" {
		t.Errorf("text = %q", d.Text)
	}
}

func TestHeadingLevelFallback(t *testing.T) {
	r := newTestRenderer(nil)
	for _, level := range []string{"9", "abc", "0"} {
		d := mustRender(t, r, doc(doctree.New(doctree.KindHeading, doctree.Text("h")).WithAttr(doctree.AttrLevel, level)))
		hs := spansOf(d, runs.KindHeading)
		if len(hs) != 1 {
			t.Fatalf("level %q: expected one heading span", level)
		}
		if hs[0].Level != 1 || hs[0].FontSize != r.Config().Heading(1).FontSize {
			t.Errorf("level %q: got level %d size %v", level, hs[0].Level, hs[0].FontSize)
		}
	}
}

type fakeMath struct {
	err error
}

func (f fakeMath) Render(_ context.Context, latex string, _ bool, size float64, _ style.Color) (mathtex.Image, error) {
	if f.err != nil {
		return mathtex.Image{}, f.err
	}
	return mathtex.Image{Text: latex, Width: 10, Height: size}, nil
}

func mathNode(latex string) *doctree.Node {
	return &doctree.Node{Kind: doctree.KindMath, Content: latex}
}

func TestMathFallsBackOnTimeout(t *testing.T) {
	r := newTestRenderer(nil, WithMath(fakeMath{err: mathtex.ErrTimeout}))
	d := mustRender(t, r, doc(para(doctree.Text("f "), mathNode("x^2"))))
	if d.Text != "f $x^2$\n" {
		t.Errorf("text = %q", d.Text)
	}
	if len(spansOf(d, runs.KindMath)) != 0 {
		t.Error("fallback should not emit a math span")
	}
}

func TestDisplayMathBlock(t *testing.T) {
	r := newTestRenderer(nil, WithMath(fakeMath{}))
	d := mustRender(t, r, doc(mathNode("x").WithAttr(doctree.AttrDisplay, "block")))
	if d.Text != runs.ObjectReplacement+"\n" {
		t.Fatalf("text = %q", d.Text)
	}
	ms := spansOf(d, runs.KindMath)
	if len(ms) != 1 || ms[0].Inline || ms[0].Source != "x" {
		t.Errorf("math spans = %+v", ms)
	}
	mb := spansOf(d, runs.KindMarginBottom)
	if len(mb) != 1 || mb[0].Value != r.Config().Math.MarginBottom {
		t.Errorf("margin spans = %+v", mb)
	}
}

type fakeHighlighter struct{}

func (fakeHighlighter) Highlight(code, _ string) []highlight.Token {
	return []highlight.Token{
		{Text: code[:2], Color: style.RGB(255, 0, 0), Bold: true},
		{Text: code[2:]},
	}
}

func TestCodeBlockTokens(t *testing.T) {
	r := newTestRenderer(nil, WithHighlighter(fakeHighlighter{}))
	d := mustRender(t, r, doc((&doctree.Node{Kind: doctree.KindCodeBlock, Content: "fn x\n"}).WithAttr(doctree.AttrLanguage, "go")))

	if d.Text != "fn x\n\n" {
		t.Fatalf("text = %q", d.Text)
	}
	toks := spansOf(d, runs.KindToken)
	if len(toks) != 1 || toks[0].Start != 0 || toks[0].End != 2 || !toks[0].Traits.Has(runs.Bold) {
		t.Fatalf("token spans = %+v", toks)
	}
	cb := spansOf(d, runs.KindCodeBlock)
	if len(cb) != 1 || cb[0].Language != "go" || cb[0].End != 5 {
		t.Errorf("code block spans = %+v", cb)
	}
}

func TestTableRows(t *testing.T) {
	cell := func(s string) *doctree.Node { return doctree.New(doctree.KindTableCell, para(doctree.Text(s))) }
	tree := doc(doctree.New(doctree.KindTable,
		doctree.New(doctree.KindTableRow, cell("a"), cell("b")).WithAttr(doctree.AttrHeader, "true"),
		doctree.New(doctree.KindTableRow, cell("1"), cell("2")),
	))
	d := mustRender(t, newTestRenderer(nil), tree)

	if d.Text != "a\tb\n1\t2\n\n" {
		t.Fatalf("text = %q", d.Text)
	}
	hdr := spansOf(d, runs.KindTableHeader)
	if len(hdr) != 1 || hdr[0].Start != 0 || hdr[0].End != 3 {
		t.Errorf("header spans = %+v", hdr)
	}
	tbl := spansOf(d, runs.KindTable)
	if len(tbl) != 1 || tbl[0].Columns != 2 {
		t.Errorf("table spans = %+v", tbl)
	}
}

func TestNilRoot(t *testing.T) {
	d := mustRender(t, newTestRenderer(nil), nil)
	if d.Len() != 0 || len(d.Spans) != 0 {
		t.Errorf("nil root produced %+v", d)
	}
}

func TestActivateLink(t *testing.T) {
	var got string
	r := newTestRenderer(nil, WithLinkHandler(func(url string) { got = url }))
	d := mustRender(t, r, doc(para(
		doctree.Text("go "),
		doctree.New(doctree.KindLink, doctree.Text("here")).WithAttr(doctree.AttrURL, "https://example.com"),
	)))

	if r.Activate(d, 0) {
		t.Error("activation outside a link should report false")
	}
	if !r.Activate(d, 4) {
		t.Fatal("activation inside the link should report true")
	}
	if got != "https://example.com" {
		t.Errorf("handler got %q", got)
	}
}

func TestLinkWithoutURLRendersText(t *testing.T) {
	d := mustRender(t, newTestRenderer(nil), doc(para(doctree.New(doctree.KindLink, doctree.Text("bare")))))
	if d.Text != "bare\n" {
		t.Errorf("text = %q", d.Text)
	}
	if len(spansOf(d, runs.KindLink)) != 0 {
		t.Error("link without url should not be annotated")
	}
}

func TestConcurrentPasses(t *testing.T) {
	r := newTestRenderer(nil)
	want := mustRender(t, r, sample())
	errs := make(chan error, 8)
	for range 8 {
		go func() {
			d, err := r.Render(context.Background(), sample())
			if err == nil && !reflect.DeepEqual(d, want) {
				err = errors.New("concurrent render differs")
			}
			errs <- err
		}()
	}
	for range 8 {
		if err := <-errs; err != nil {
			t.Error(err)
		}
	}
}
