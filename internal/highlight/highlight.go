// Package highlight tokenizes code blocks into colored tokens.
package highlight

import (
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/dgallion1/richtext/internal/style"
)

// Token is one highlighted piece of a code block. Concatenating the Text of
// every token reproduces the input, possibly with a trailing newline added.
type Token struct {
	Text      string
	Color     style.Color
	Bold      bool
	Italic    bool
	Underline bool
}

// Chroma highlights code with chroma lexers and a chroma style.
type Chroma struct {
	style *chroma.Style

	mu     sync.RWMutex
	lexers map[string]chroma.Lexer
}

// NewChroma uses the named chroma style, falling back to chroma's default
// style for unknown names.
func NewChroma(styleName string) *Chroma {
	return &Chroma{
		style:  styles.Get(styleName),
		lexers: make(map[string]chroma.Lexer),
	}
}

// StyleName returns the resolved chroma style name.
func (h *Chroma) StyleName() string { return h.style.Name }

// Highlight splits code into tokens. Unknown languages produce one
// uncolored token.
func (h *Chroma) Highlight(code, language string) []Token {
	lexer := h.lexer(language)
	if lexer == nil {
		return []Token{{Text: code}}
	}
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return []Token{{Text: code}}
	}
	var out []Token
	for _, tok := range it.Tokens() {
		if tok.Value == "" {
			continue
		}
		entry := h.style.Get(tok.Type)
		t := Token{
			Text:      tok.Value,
			Bold:      entry.Bold == chroma.Yes,
			Italic:    entry.Italic == chroma.Yes,
			Underline: entry.Underline == chroma.Yes,
		}
		if entry.Colour.IsSet() {
			t.Color = style.RGB(entry.Colour.Red(), entry.Colour.Green(), entry.Colour.Blue())
		}
		out = append(out, t)
	}
	return out
}

func (h *Chroma) lexer(language string) chroma.Lexer {
	if language == "" {
		return nil
	}
	h.mu.RLock()
	l, ok := h.lexers[language]
	h.mu.RUnlock()
	if ok {
		return l
	}

	l = lexers.Get(language)
	if l == nil {
		l = lexers.Match("file." + language)
	}
	if l != nil {
		l = chroma.Coalesce(l)
	}
	h.mu.Lock()
	h.lexers[language] = l
	h.mu.Unlock()
	return l
}
