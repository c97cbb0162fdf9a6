// Package measure caches the laid-out size of rendered views. Each view owns
// a Handle; the first measurement is a rough estimate from raw text and later
// ones use the styled content stored for the handle.
package measure

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/dgallion1/richtext/internal/runs"
)

// ErrUnknownHandle is returned for handles with no cache entry.
var ErrUnknownHandle = errors.New("unknown measurement handle")

// placeholder stands in for a view with no text yet: one line tall.
const placeholder = "I"

type entry struct {
	mu          sync.Mutex
	initialized bool
	width       float64
	size        PackedSize
	content     []runs.Run
	paint       Paint
}

// Snapshot is a copy of one cache entry.
type Snapshot struct {
	Initialized bool       `json:"initialized"`
	Width       float64    `json:"width"`
	Size        PackedSize `json:"size"`
	Runs        int        `json:"runs"`
	Paint       Paint      `json:"paint"`
}

// Store is the process-wide measurement cache. The map lock guards
// membership only; each entry has its own lock for read-modify-write.
type Store struct {
	m        Measurer
	defaults Paint
	log      *slog.Logger

	mu      sync.Mutex
	entries map[Handle]*entry
}

// NewStore returns a Store measuring with m. defaults is the paint used for
// initial estimates.
func NewStore(m Measurer, defaults Paint, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		m:        m,
		defaults: defaults,
		log:      log,
		entries:  make(map[Handle]*entry),
	}
}

// Open mints a handle and registers an uninitialized entry for it.
func (s *Store) Open() Handle {
	id := NewHandle()
	s.mu.Lock()
	s.entries[id] = &entry{}
	s.mu.Unlock()
	return id
}

func (s *Store) lookup(id Handle, create bool) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok && create {
		e = &entry{}
		s.entries[id] = e
	}
	return e
}

// Store records new content for id, re-measures it at the cached width and
// reports whether the size changed. An absent entry counts as width 0 and
// size 0.
func (s *Store) Store(id Handle, content []runs.Run, paint Paint) bool {
	e := s.lookup(id, true)
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.size
	size := Layout(s.m, content, paint, e.width)
	e.initialized = true
	e.size = size
	e.content = content
	e.paint = paint
	changed := size != prev
	if changed {
		s.log.Debug("measurement changed", "id", id, "from", prev.String(), "to", size.String())
	}
	return changed
}

// Measure returns the size of id at width. The first request for an entry
// measures initial (or a one-line placeholder) in the default paint and
// caches it; a request at the cached width returns the cached size; any
// other width re-lays out the stored content. An empty id is measured
// without caching.
func (s *Store) Measure(id Handle, width float64, initial string) PackedSize {
	if id == "" {
		return s.initialSize(width, initial)
	}
	e := s.lookup(id, true)
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		text := initial
		if text == "" {
			text = placeholder
		}
		e.initialized = true
		e.content = PlainRuns(text, s.defaults)
		e.paint = s.defaults
		e.width = width
		e.size = Layout(s.m, e.content, e.paint, width)
		return e.size
	}
	if width == e.width {
		return e.size
	}
	e.width = width
	e.size = Layout(s.m, e.content, e.paint, width)
	return e.size
}

// MeasureAtMost is Measure with the height clamped to maxHeight.
func (s *Store) MeasureAtMost(id Handle, width, maxHeight float64, initial string) PackedSize {
	return s.Measure(id, width, initial).AtMost(maxHeight)
}

func (s *Store) initialSize(width float64, initial string) PackedSize {
	if initial == "" {
		initial = placeholder
	}
	return Layout(s.m, PlainRuns(initial, s.defaults), s.defaults, width)
}

// Release removes the entry for id.
func (s *Store) Release(id Handle) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// Lookup returns a copy of the entry for id.
func (s *Store) Lookup(id Handle) (Snapshot, error) {
	e := s.lookup(id, false)
	if e == nil {
		return Snapshot{}, ErrUnknownHandle
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Initialized: e.initialized,
		Width:       e.width,
		Size:        e.size,
		Runs:        len(e.content),
		Paint:       e.paint,
	}, nil
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
