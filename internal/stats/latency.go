// Package stats keeps rolling latency windows for named operations.
package stats

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	at time.Time
	ms float64
}

// Snapshot is a point-in-time aggregate of one window.
type Snapshot struct {
	Count int     `json:"count"`
	MinMs float64 `json:"min_ms"`
	MaxMs float64 `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// Window holds samples no older than maxAge.
type Window struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
}

func NewWindow(maxAge time.Duration) *Window {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Window{samples: make([]sample, 0, 128), maxAge: maxAge}
}

func (w *Window) Record(d time.Duration) {
	if d < 0 {
		d = 0
	}
	now := time.Now()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked(now)
	w.samples = append(w.samples, sample{at: now, ms: float64(d) / float64(time.Millisecond)})
}

func (w *Window) Snapshot() Snapshot {
	now := time.Now()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked(now)
	if len(w.samples) == 0 {
		return Snapshot{}
	}

	values := make([]float64, len(w.samples))
	var sum float64
	for i, s := range w.samples {
		values[i] = s.ms
		sum += s.ms
	}
	sort.Float64s(values)
	return Snapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: sum / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

func (w *Window) pruneLocked(now time.Time) {
	cutoff := now.Add(-w.maxAge)
	keep := w.samples[:0]
	for _, s := range w.samples {
		if !s.at.Before(cutoff) {
			keep = append(keep, s)
		}
	}
	w.samples = keep
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sorted []float64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return sorted[0]
	case pct >= 100:
		return sorted[len(sorted)-1]
	}
	index := float64(len(sorted)-1) * pct / 100
	lower := int(index)
	if lower+1 >= len(sorted) {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower] + (sorted[lower+1]-sorted[lower])*weight
}

// Tracker is a set of windows keyed by operation name, created on first use.
type Tracker struct {
	maxAge time.Duration

	mu      sync.Mutex
	windows map[string]*Window
}

func NewTracker(maxAge time.Duration) *Tracker {
	return &Tracker{maxAge: maxAge, windows: make(map[string]*Window)}
}

func (t *Tracker) window(name string) *Window {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.windows[name]
	if !ok {
		w = NewWindow(t.maxAge)
		t.windows[name] = w
	}
	return w
}

func (t *Tracker) Record(name string, d time.Duration) {
	if t == nil {
		return
	}
	t.window(name).Record(d)
}

// Since records the time elapsed since start under name.
func (t *Tracker) Since(name string, start time.Time) {
	t.Record(name, time.Since(start))
}

// Snapshot aggregates every window.
func (t *Tracker) Snapshot() map[string]Snapshot {
	out := make(map[string]Snapshot)
	if t == nil {
		return out
	}
	t.mu.Lock()
	windows := make(map[string]*Window, len(t.windows))
	for k, v := range t.windows {
		windows[k] = v
	}
	t.mu.Unlock()
	for name, w := range windows {
		out[name] = w.Snapshot()
	}
	return out
}
