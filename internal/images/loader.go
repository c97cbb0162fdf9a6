package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"sync"
	"time"

	_ "golang.org/x/image/webp"

	"github.com/dgallion1/richtext/internal/stats"
)

var (
	// ErrQueueFull is recorded on entries that could not be queued.
	ErrQueueFull = errors.New("image queue is full")
	// ErrStopped is recorded on entries the loader never reached.
	ErrStopped = errors.New("image loader stopped")
)

// Poster receives the redraw signal. uithread.Loop satisfies it.
type Poster interface {
	Post(fn func()) bool
}

type Config struct {
	Workers   int
	QueueSize int
	TTL       time.Duration
	// Redraw runs on the poster after every finished load.
	Redraw func()
}

// Loader decodes image headers on a worker pool. There is no retry: a
// failed entry stays failed until it expires from the registry.
type Loader struct {
	entries *Registry
	queue   chan *Entry
	fetch   Fetcher
	poster  Poster
	redraw  func()
	log     *slog.Logger
	stats   *stats.Tracker
	workers int

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once

	// qmu orders sends on queue against its close.
	qmu    sync.RWMutex
	closed bool
}

func NewLoader(cfg Config, fetch Fetcher, poster Poster, st *stats.Tracker, log *slog.Logger) *Loader {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.Redraw == nil {
		cfg.Redraw = func() {}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Loader{
		entries: NewRegistry(cfg.TTL),
		queue:   make(chan *Entry, cfg.QueueSize),
		fetch:   fetch,
		poster:  poster,
		redraw:  cfg.Redraw,
		log:     log,
		stats:   st,
		workers: cfg.Workers,
	}
}

// Start launches the workers and the registry cleanup.
func (l *Loader) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	for range l.workers {
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case e, ok := <-l.queue:
					if !ok {
						return
					}
					l.load(workerCtx, e)
				}
			}
		}()
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if n := l.entries.Cleanup(); n > 0 {
					l.log.Debug("expired image entries", "count", n)
				}
			}
		}
	}()
}

// Stop cancels in-flight loads and waits for the workers. Entries still
// queued are failed with ErrStopped and signalled like any other finished
// load.
func (l *Loader) Stop() {
	l.stopOnce.Do(func() {
		if l.cancel != nil {
			l.cancel()
		}
		l.qmu.Lock()
		l.closed = true
		close(l.queue)
		l.qmu.Unlock()
		l.wg.Wait()

		for e := range l.queue {
			e.fail(ErrStopped)
			l.signal()
		}
	})
}

// Request returns the intrinsic size of src when it has loaded. Otherwise it
// queues a load the first time src is seen and returns ok=false without
// blocking.
func (l *Loader) Request(src string) (width, height float64, ok bool) {
	e, created := l.entries.getOrCreate(src)
	if !created {
		snap := e.Snapshot()
		if snap.Status == StatusLoaded {
			return float64(snap.Width), float64(snap.Height), true
		}
		return 0, 0, false
	}

	if err := l.enqueue(e); err != nil {
		e.fail(err)
		l.log.Warn("image not queued", "url", src, "error", err)
		l.signal()
	}
	return 0, 0, false
}

func (l *Loader) enqueue(e *Entry) error {
	l.qmu.RLock()
	defer l.qmu.RUnlock()
	if l.closed {
		return ErrStopped
	}
	select {
	case l.queue <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Status returns the state of src, if it has been requested.
func (l *Loader) Status(src string) (Snapshot, bool) {
	e := l.entries.Get(src)
	if e == nil {
		return Snapshot{}, false
	}
	return e.Snapshot(), true
}

func (l *Loader) QueueDepth() int { return len(l.queue) }

func (l *Loader) load(ctx context.Context, e *Entry) {
	start := time.Now()
	e.setStatus(StatusLoading)
	log := l.log.With("url", e.url)

	w, h, format, err := l.decode(ctx, e.url)
	if err != nil {
		log.Warn("image load failed", "error", err)
		e.fail(err)
	} else {
		log.Debug("image loaded", "width", w, "height", h, "format", format)
		e.loaded(w, h, format)
	}
	l.stats.Since("image_load", start)
	l.signal()
}

func (l *Loader) decode(ctx context.Context, src string) (int, int, string, error) {
	data, err := l.fetch.Fetch(ctx, src)
	if err != nil {
		return 0, 0, "", err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, format, nil
}

// signal posts the redraw callback. A full or stopped poster drops it; the
// next pass picks up the new state anyway.
func (l *Loader) signal() {
	if l.poster == nil {
		l.redraw()
		return
	}
	if !l.poster.Post(l.redraw) {
		l.log.Debug("redraw signal dropped")
	}
}
