package runs

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// ObjectReplacement stands in for images and typeset math in the buffer.
const ObjectReplacement = "\uFFFC"

// RangeError is the panic value for an annotation outside the buffer.
type RangeError struct {
	Start, End, Len int
	Kind            Kind
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("runs: %s span [%d,%d) outside buffer of length %d", e.Kind, e.Start, e.End, e.Len)
}

// Builder accumulates text and spans for one render pass. It is not safe
// for concurrent use.
type Builder struct {
	buf   []byte
	spans []Span
}

func NewBuilder() *Builder {
	return &Builder{buf: make([]byte, 0, 256)}
}

// Len returns the buffer length in bytes.
func (b *Builder) Len() int { return len(b.buf) }

func (b *Builder) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// Newline appends a single '\n'.
func (b *Builder) Newline() {
	b.buf = append(b.buf, '\n')
}

// EndsWithNewline reports whether the last byte is '\n'. An empty buffer
// does not end with a newline.
func (b *Builder) EndsWithNewline() bool {
	return len(b.buf) > 0 && b.buf[len(b.buf)-1] == '\n'
}

// Slice returns the text in [start,end).
func (b *Builder) Slice(start, end int) string {
	return string(b.buf[start:end])
}

// IsBlank reports whether [start,end) holds only whitespace.
func (b *Builder) IsBlank(start, end int) bool {
	for i := start; i < end; {
		r, size := utf8.DecodeRune(b.buf[i:end])
		if !unicode.IsSpace(r) {
			return false
		}
		i += size
	}
	return true
}

// TrimTrailingNewlines removes trailing '\n' bytes, never cutting below
// from. Spans reaching into the removed bytes are clamped and spans left
// empty are dropped.
func (b *Builder) TrimTrailingNewlines(from int) {
	end := len(b.buf)
	for end > from && b.buf[end-1] == '\n' {
		end--
	}
	if end == len(b.buf) {
		return
	}
	b.buf = b.buf[:end]
	kept := b.spans[:0]
	for _, s := range b.spans {
		if s.End > end {
			s.End = end
		}
		if s.Start < s.End {
			kept = append(kept, s)
		}
	}
	b.spans = kept
}

// Annotate records a over [start,end). Empty ranges are ignored. A range
// outside the current buffer is a programming error and panics.
func (b *Builder) Annotate(start, end int, a Annotation) {
	if start < 0 || end > len(b.buf) || start > end {
		panic(&RangeError{Start: start, End: end, Len: len(b.buf), Kind: a.Kind})
	}
	if start == end {
		return
	}
	b.spans = append(b.spans, Span{Start: start, End: end, Annotation: a})
}

// Spans returns the recorded spans in recording order. The slice must not
// be modified.
func (b *Builder) Spans() []Span { return b.spans }

// SpansOf returns the spans of one kind overlapping [start,end).
func (b *Builder) SpansOf(kind Kind, start, end int) []Span {
	var out []Span
	for _, s := range b.spans {
		if s.Kind == kind && s.Start < end && s.End > start {
			out = append(out, s)
		}
	}
	return out
}

// Document freezes the builder's current contents.
func (b *Builder) Document() *Document {
	spans := make([]Span, len(b.spans))
	copy(spans, b.spans)
	return &Document{Text: string(b.buf), Spans: spans}
}
