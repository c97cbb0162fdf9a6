// Package mathtex typesets LaTeX math on the UI loop with a bounded wait.
package mathtex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/richtext/internal/style"
	"github.com/dgallion1/richtext/internal/uithread"
)

var (
	// ErrTimeout means the typesetter did not answer within the timeout.
	ErrTimeout = errors.New("math typesetting timed out")
	// ErrNoResult means the typesetter finished without producing output.
	ErrNoResult = errors.New("math typesetter produced no result")
)

// Image is a typeset formula.
type Image struct {
	// Text is a plain-text rendering usable where no bitmap can be drawn.
	Text     string
	Width    float64
	Height   float64
	Baseline float64
}

// Typesetter lays out one formula. Implementations may assume they run on
// the UI loop.
type Typesetter interface {
	Typeset(latex string, display bool, fontSize float64, color style.Color) (Image, error)
}

type cacheKey struct {
	latex    string
	display  bool
	fontSize float64
	color    style.Color
}

type result struct {
	img Image
	err error
}

const defaultCacheSize = 256

// Renderer wraps a Typesetter with the UI-loop rendezvous, a timeout and a
// bounded cache of successful results.
type Renderer struct {
	ts      Typesetter
	loop    *uithread.Loop
	timeout time.Duration
	log     *slog.Logger

	mu       sync.Mutex
	cache    map[cacheKey]Image
	order    []cacheKey
	maxCache int
}

// New returns a Renderer. A nil loop runs the typesetter on its own
// goroutine with the same timeout.
func New(ts Typesetter, loop *uithread.Loop, timeout time.Duration, log *slog.Logger) *Renderer {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{
		ts:       ts,
		loop:     loop,
		timeout:  timeout,
		log:      log,
		cache:    make(map[cacheKey]Image),
		maxCache: defaultCacheSize,
	}
}

// Render typesets latex, returning ErrTimeout when the loop does not answer
// in time. Callers fall back to the raw source on any error.
func (r *Renderer) Render(ctx context.Context, latex string, display bool, fontSize float64, color style.Color) (Image, error) {
	key := cacheKey{latex: latex, display: display, fontSize: fontSize, color: color}
	if img, ok := r.cached(key); ok {
		return img, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out := make(chan result, 1)
	work := func() {
		img, err := r.ts.Typeset(latex, display, fontSize, color)
		out <- result{img: img, err: err}
	}

	var err error
	if r.loop != nil {
		err = r.loop.Call(ctx, work)
	} else {
		go work()
	}

	var res result
	switch {
	case err != nil:
		return Image{}, r.wrap(err)
	case r.loop != nil:
		select {
		case res = <-out:
		default:
			return Image{}, ErrNoResult
		}
	default:
		select {
		case res = <-out:
		case <-ctx.Done():
			return Image{}, r.wrap(ctx.Err())
		}
	}
	if res.err != nil {
		return Image{}, fmt.Errorf("typeset %q: %w", latex, res.err)
	}
	r.store(key, res.img)
	return res.img, nil
}

func (r *Renderer) wrap(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		r.log.Warn("math typesetting timed out", "timeout", r.timeout)
		return ErrTimeout
	}
	return err
}

func (r *Renderer) cached(key cacheKey) (Image, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.cache[key]
	return img, ok
}

func (r *Renderer) store(key cacheKey, img Image) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cache[key]; ok {
		return
	}
	if len(r.order) >= r.maxCache {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.cache, oldest)
	}
	r.cache[key] = img
	r.order = append(r.order, key)
}

// CacheLen returns the number of cached formulas.
func (r *Renderer) CacheLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// SetCacheSize bounds the formula cache. Values below one keep the default.
func (r *Renderer) SetCacheSize(n int) {
	if n < 1 {
		n = defaultCacheSize
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maxCache = n
	for len(r.order) > n {
		delete(r.cache, r.order[0])
		r.order = r.order[1:]
	}
}
