package doctree

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestKindNamesRoundTrip(t *testing.T) {
	for k := KindDocument; k < kindCount; k++ {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v %v", k.String(), got, ok)
		}
	}
	if Kind(200).Valid() {
		t.Error("out of range kind reported valid")
	}
	if _, err := Kind(200).MarshalText(); err == nil {
		t.Error("expected error marshalling invalid kind")
	}
}

func TestNodeJSON(t *testing.T) {
	doc := New(KindDocument,
		New(KindHeading, Text("Title")).WithAttr(AttrLevel, "2"),
	)
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"kind":"heading"`) {
		t.Errorf("json = %s", data)
	}

	var back Node
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Children[0].Kind != KindHeading || back.Children[0].IntAttr(AttrLevel, 1) != 2 {
		t.Errorf("decoded = %+v", back.Children[0])
	}

	if err := json.Unmarshal([]byte(`{"kind":"bogus"}`), &back); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestAttributes(t *testing.T) {
	n := New(KindOrderedList).WithAttr(AttrStart, " 4 ").WithAttr(AttrChecked, "yes")
	tests := []struct {
		name string
		got  int
		want int
	}{
		{"present", n.IntAttr(AttrStart, 1), 4},
		{"absent", n.IntAttr(AttrLevel, 1), 1},
		{"not a number", New(KindHeading).WithAttr(AttrLevel, "x").IntAttr(AttrLevel, 1), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.name, tt.got, tt.want)
		}
	}
	if n.BoolAttr(AttrChecked) {
		t.Error("unparseable bool should be false")
	}
	var nilNode *Node
	if _, ok := nilNode.Attr(AttrURL); ok {
		t.Error("nil node has no attributes")
	}
}

func TestPlainTextAndCount(t *testing.T) {
	doc := New(KindDocument,
		New(KindParagraph,
			Text("a "),
			New(KindStrong, Text("b")),
			New(KindLineBreak),
			&Node{Kind: KindCode, Content: "c"},
		),
		New(KindParagraph, &Node{Kind: KindMath, Content: "x^2"}),
	)
	if got := doc.Children[0].PlainText(); got != "a b\nc" {
		t.Errorf("PlainText = %q", got)
	}
	if got := Count(doc, KindParagraph); got != 2 {
		t.Errorf("Count = %d", got)
	}

	var visited int
	Walk(doc, func(n *Node) bool {
		visited++
		return n.Kind != KindParagraph
	})
	if visited != 3 {
		t.Errorf("Walk visited %d nodes, want 3", visited)
	}
}
