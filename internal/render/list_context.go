package render

import "github.com/dgallion1/richtext/internal/style"

// ListEntry is the state saved by EnterList and consumed by ExitList.
type ListEntry struct {
	PreviousDepth      int
	ParentListType     ListType
	WasNestedInOrdered bool

	saved blockState
}

// EnterList pushes a list level. A parent ordered list's item counter is
// saved even when the new list is unordered.
func (c *Context) EnterList(lt ListType, s style.Block) ListEntry {
	prev := c.listDepth
	nested := prev > 0
	parent := ListNone
	if nested {
		parent = c.listType
	}
	inOrdered := nested && parent == ListOrdered
	if inOrdered {
		c.pushItemNumber()
	}
	entry := ListEntry{
		PreviousDepth:      prev,
		ParentListType:     parent,
		WasNestedInOrdered: inOrdered,
		saved:              c.save(),
	}
	c.listDepth = prev + 1
	c.setList(lt, s)
	c.listItemNumber = 0
	return entry
}

// ExitList pops the list level opened by the matching EnterList. Leaving the
// outermost list clears all list state; leaving a nested list restores the
// parent's list type, counter, and block style.
func (c *Context) ExitList(e ListEntry) {
	c.listDepth = e.PreviousDepth
	if c.listDepth == 0 {
		c.resetLists()
	}
	if e.WasNestedInOrdered {
		c.popItemNumber()
	}
	c.restore(e.saved)
	if e.PreviousDepth > 0 {
		c.listType = e.ParentListType
	}
}
