// Package images loads image headers in the background so the renderer can
// size image placeholders. Loading never blocks a render pass; each finished
// load, successful or not, posts a redraw to the UI loop.
package images

import (
	"sync"
	"time"
)

// Status is the state of one image load.
type Status string

const (
	StatusPending Status = "pending"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusFailed  Status = "failed"
)

// Terminal reports whether no further transitions will happen.
func (s Status) Terminal() bool { return s == StatusLoaded || s == StatusFailed }

// Entry tracks one image URL.
type Entry struct {
	mu sync.Mutex

	url       string
	status    Status
	width     int
	height    int
	format    string
	err       string
	updatedAt time.Time
}

// Snapshot is a JSON-safe copy of an entry.
type Snapshot struct {
	URL       string    `json:"url"`
	Status    Status    `json:"status"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	Format    string    `json:"format,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newEntry(url string) *Entry {
	return &Entry{url: url, status: StatusPending, updatedAt: time.Now()}
}

func (e *Entry) setStatus(s Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = s
	e.updatedAt = time.Now()
}

func (e *Entry) loaded(w, h int, format string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = StatusLoaded
	e.width, e.height, e.format = w, h, format
	e.err = ""
	e.updatedAt = time.Now()
}

func (e *Entry) fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = StatusFailed
	e.err = err.Error()
	e.updatedAt = time.Now()
}

func (e *Entry) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		URL:       e.url,
		Status:    e.status,
		Width:     e.width,
		Height:    e.height,
		Format:    e.format,
		Error:     e.err,
		UpdatedAt: e.updatedAt,
	}
}

// Registry is a thread-safe set of entries with TTL eviction of terminal
// entries.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry
	ttl     time.Duration
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{entries: make(map[string]*Entry), ttl: ttl}
}

// getOrCreate returns the entry for url and whether it was just created.
func (r *Registry) getOrCreate(url string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[url]; ok {
		return e, false
	}
	e := newEntry(url)
	r.entries[url] = e
	return e, true
}

func (r *Registry) Get(url string) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[url]
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Cleanup removes terminal entries not updated within the TTL. In-flight
// entries are kept so their workers still have somewhere to report.
func (r *Registry) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	removed := 0
	for url, e := range r.entries {
		snap := e.Snapshot()
		if snap.Status.Terminal() && now.Sub(snap.UpdatedAt) > r.ttl {
			delete(r.entries, url)
			removed++
		}
	}
	return removed
}
