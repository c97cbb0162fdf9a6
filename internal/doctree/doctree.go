// Package doctree defines the document tree handed from the parsers to the
// renderer. Trees are built once and treated as read-only afterwards.
package doctree

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the type of a Node.
type Kind uint8

const (
	KindDocument Kind = iota
	KindParagraph
	KindText
	KindLink
	KindHeading
	KindLineBreak
	KindStrong
	KindEmphasis
	KindCode
	KindImage
	KindBlockquote
	KindListItem
	KindOrderedList
	KindUnorderedList
	KindTable
	KindTableRow
	KindTableCell
	KindTaskListItem
	KindMath
	KindCodeBlock

	kindCount
)

var kindNames = [...]string{
	KindDocument:      "document",
	KindParagraph:     "paragraph",
	KindText:          "text",
	KindLink:          "link",
	KindHeading:       "heading",
	KindLineBreak:     "line_break",
	KindStrong:        "strong",
	KindEmphasis:      "emphasis",
	KindCode:          "code",
	KindImage:         "image",
	KindBlockquote:    "blockquote",
	KindListItem:      "list_item",
	KindOrderedList:   "ordered_list",
	KindUnorderedList: "unordered_list",
	KindTable:         "table",
	KindTableRow:      "table_row",
	KindTableCell:     "table_cell",
	KindTaskListItem:  "task_list_item",
	KindMath:          "math",
	KindCodeBlock:     "code_block",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool { return k < kindCount }

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("doctree: invalid kind %d", k)
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	kind, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("doctree: unknown kind %q", b)
	}
	*k = kind
	return nil
}

// Attribute keys.
const (
	AttrURL      = "url"
	AttrTitle    = "title"
	AttrAlt      = "alt"
	AttrLevel    = "level"
	AttrStart    = "start"
	AttrLanguage = "language"
	AttrChecked  = "checked"
	AttrDisplay  = "display"
	AttrHeader   = "header"
	AttrAlign    = "align"
)

// Node is one element of a parsed document.
type Node struct {
	Kind       Kind              `json:"kind"`
	Content    string            `json:"content,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Children   []*Node           `json:"children,omitempty"`
}

// New returns a container node of the given kind.
func New(kind Kind, children ...*Node) *Node {
	return &Node{Kind: kind, Children: children}
}

// Text returns a text leaf.
func Text(s string) *Node {
	return &Node{Kind: KindText, Content: s}
}

// WithAttr sets an attribute and returns n for chaining.
func (n *Node) WithAttr(key, value string) *Node {
	if n.Attributes == nil {
		n.Attributes = make(map[string]string, 1)
	}
	n.Attributes[key] = value
	return n
}

// Attr returns the attribute value and whether it was present.
func (n *Node) Attr(key string) (string, bool) {
	if n == nil || n.Attributes == nil {
		return "", false
	}
	v, ok := n.Attributes[key]
	return v, ok
}

// IntAttr parses an integer attribute, returning fallback when the attribute
// is absent or not a number.
func (n *Node) IntAttr(key string, fallback int) int {
	v, ok := n.Attr(key)
	if !ok {
		return fallback
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return i
}

// BoolAttr parses a boolean attribute; anything unparseable is false.
func (n *Node) BoolAttr(key string) bool {
	v, ok := n.Attr(key)
	if !ok {
		return false
	}
	b, _ := strconv.ParseBool(v)
	return b
}

// Append adds children and returns n.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// PlainText concatenates the content of every leaf below n in document order.
func (n *Node) PlainText() string {
	var sb strings.Builder
	n.writePlain(&sb)
	return sb.String()
}

func (n *Node) writePlain(sb *strings.Builder) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindLineBreak:
		sb.WriteByte('\n')
		return
	case KindText, KindCode, KindCodeBlock, KindMath:
		if n.Content != "" {
			sb.WriteString(n.Content)
			return
		}
	}
	for _, c := range n.Children {
		c.writePlain(sb)
	}
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the children of that node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Count returns the number of nodes of the given kind in the tree.
func Count(root *Node, kind Kind) int {
	total := 0
	Walk(root, func(n *Node) bool {
		if n.Kind == kind {
			total++
		}
		return true
	})
	return total
}
