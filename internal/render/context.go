package render

import (
	"fmt"

	"github.com/dgallion1/richtext/internal/doctree"
	"github.com/dgallion1/richtext/internal/style"
)

// BlockKind is the innermost enclosing block element.
type BlockKind uint8

const (
	BlockNone BlockKind = iota
	BlockParagraph
	BlockHeading
	BlockBlockquote
	BlockOrderedList
	BlockUnorderedList
	BlockCodeBlock
	BlockTable
)

func (k BlockKind) String() string {
	switch k {
	case BlockParagraph:
		return "paragraph"
	case BlockHeading:
		return "heading"
	case BlockBlockquote:
		return "blockquote"
	case BlockOrderedList:
		return "ordered_list"
	case BlockUnorderedList:
		return "unordered_list"
	case BlockCodeBlock:
		return "code_block"
	case BlockTable:
		return "table"
	}
	return "none"
}

// ListType is the kind of the innermost list.
type ListType uint8

const (
	ListNone ListType = iota
	ListOrdered
	ListUnordered
)

// ContractError reports an inline node reached outside any block. It is
// raised as a panic and surfaced by Renderer.Render as an error.
type ContractError struct {
	Node doctree.Kind
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("render: %s node rendered without a block style; inline nodes must appear inside a paragraph, heading, blockquote, list, or table", e.Node)
}

// blockState is the part of Context a block renderer saves on entry and
// restores on exit.
type blockState struct {
	kind     BlockKind
	style    style.Block
	hasStyle bool
	level    int
}

// Context is the per-pass nesting state threaded through every renderer.
type Context struct {
	block blockState

	blockquoteDepth int
	listDepth       int
	listType        ListType
	listItemNumber  int
	orderedNumbers  []int
}

func NewContext() *Context { return &Context{} }

func (c *Context) BlockKind() BlockKind { return c.block.kind }

// BlockStyle returns the current block style, if any.
func (c *Context) BlockStyle() (style.Block, bool) { return c.block.style, c.block.hasStyle }

func (c *Context) HeadingLevel() int    { return c.block.level }
func (c *Context) BlockquoteDepth() int { return c.blockquoteDepth }
func (c *Context) ListDepth() int       { return c.listDepth }
func (c *Context) ListType() ListType   { return c.listType }
func (c *Context) ListItemNumber() int  { return c.listItemNumber }

// InsideBlockElement reports whether an enclosing blockquote or list owns
// spacing for nested paragraphs.
func (c *Context) InsideBlockElement() bool {
	return c.blockquoteDepth > 0 || c.listDepth > 0
}

// RequireBlockStyle returns the current block style and panics with a
// *ContractError when none is set.
func (c *Context) RequireBlockStyle(node doctree.Kind) style.Block {
	if !c.block.hasStyle {
		panic(&ContractError{Node: node})
	}
	return c.block.style
}

func (c *Context) setBlock(kind BlockKind, s style.Block, level int) {
	c.block = blockState{kind: kind, style: s, hasStyle: true, level: level}
}

func (c *Context) save() blockState { return c.block }

func (c *Context) restore(s blockState) { c.block = s }

func (c *Context) setList(lt ListType, s style.Block) {
	kind := BlockUnorderedList
	if lt == ListOrdered {
		kind = BlockOrderedList
	}
	c.listType = lt
	c.setBlock(kind, s, 0)
}

func (c *Context) pushItemNumber() {
	c.orderedNumbers = append(c.orderedNumbers, c.listItemNumber)
}

func (c *Context) popItemNumber() {
	if n := len(c.orderedNumbers); n > 0 {
		c.listItemNumber = c.orderedNumbers[n-1]
		c.orderedNumbers = c.orderedNumbers[:n-1]
	}
}

func (c *Context) resetLists() {
	c.listType = ListNone
	c.listItemNumber = 0
	c.orderedNumbers = c.orderedNumbers[:0]
}
