// Package render turns a doctree into a styled-run document. A Renderer holds
// only read-only configuration; each call to Render owns its own builder and
// nesting context, so one Renderer may serve concurrent passes.
package render

import (
	"context"
	"log/slog"

	"github.com/dgallion1/richtext/internal/doctree"
	"github.com/dgallion1/richtext/internal/highlight"
	"github.com/dgallion1/richtext/internal/mathtex"
	"github.com/dgallion1/richtext/internal/runs"
	"github.com/dgallion1/richtext/internal/style"
)

// Highlighter splits code into colored tokens.
type Highlighter interface {
	Highlight(code, language string) []highlight.Token
}

// MathRenderer typesets formulas. Any error makes the renderer fall back to
// the raw source.
type MathRenderer interface {
	Render(ctx context.Context, latex string, display bool, fontSize float64, color style.Color) (mathtex.Image, error)
}

// ImageSource starts loading images. Request must not block; it reports the
// intrinsic size when the image is already loaded.
type ImageSource interface {
	Request(url string) (width, height float64, ok bool)
}

// LinkHandler is invoked with the target of an activated link.
type LinkHandler func(url string)

type Option func(*Renderer)

func WithLogger(log *slog.Logger) Option {
	return func(r *Renderer) { r.log = log }
}

func WithHighlighter(h Highlighter) Option {
	return func(r *Renderer) { r.highlighter = h }
}

func WithMath(m MathRenderer) Option {
	return func(r *Renderer) { r.math = m }
}

func WithImages(src ImageSource) Option {
	return func(r *Renderer) { r.images = src }
}

func WithLinkHandler(fn LinkHandler) Option {
	return func(r *Renderer) { r.onLink = fn }
}

// Renderer converts document trees into styled runs.
type Renderer struct {
	cfg      *style.Config
	preserve style.ColorSet
	log      *slog.Logger

	highlighter Highlighter
	math        MathRenderer
	images      ImageSource
	onLink      LinkHandler
}

// New returns a Renderer for cfg. A nil cfg uses style.Default().
func New(cfg *style.Config, opts ...Option) *Renderer {
	if cfg == nil {
		cfg = style.Default()
	}
	r := &Renderer{
		cfg:      cfg,
		preserve: cfg.PreserveColors(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) Config() *style.Config { return r.cfg }

// PreserveColors is the color set to pass to runs.Document.Runs.
func (r *Renderer) PreserveColors() style.ColorSet { return r.preserve }

// Render runs one pass over root. A nil root yields an empty document. An
// inline node outside any block is reported as a *ContractError.
func (r *Renderer) Render(ctx context.Context, root *doctree.Node) (doc *runs.Document, err error) {
	if root == nil {
		return &runs.Document{}, nil
	}
	p := &pass{
		r:   r,
		ctx: ctx,
		b:   runs.NewBuilder(),
		c:   NewContext(),
	}
	defer func() {
		if rec := recover(); rec != nil {
			ce, ok := rec.(*ContractError)
			if !ok {
				panic(rec)
			}
			doc, err = nil, ce
		}
	}()
	p.dispatch(root)
	return p.b.Document(), nil
}

// Activate invokes the link handler for the link under offset. It reports
// whether a link was found and a handler was set.
func (r *Renderer) Activate(doc *runs.Document, offset int) bool {
	if doc == nil || r.onLink == nil {
		return false
	}
	url, ok := doc.LinkAt(offset)
	if !ok {
		return false
	}
	r.onLink(url)
	return true
}
