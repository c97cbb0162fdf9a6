// Package uithread runs functions serially on a single goroutine that plays
// the role of a host's UI thread.
package uithread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrStopped is returned when work is offered to a stopped loop.
var ErrStopped = errors.New("ui loop stopped")

// Loop executes posted functions one at a time in posting order.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	log   *slog.Logger

	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New starts a loop with room for queueSize pending functions.
func New(queueSize int, log *slog.Logger) *Loop {
	if queueSize <= 0 {
		queueSize = 64
	}
	if log == nil {
		log = slog.Default()
	}
	l := &Loop{
		tasks: make(chan func(), queueSize),
		done:  make(chan struct{}),
		log:   log,
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.done:
			return
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("ui task panicked", "panic", fmt.Sprint(r))
		}
	}()
	fn()
}

// Post queues fn without blocking. It reports false when the queue is full
// or the loop is stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	default:
		return false
	}
}

// Call runs fn on the loop and waits for it to finish. It gives up when ctx
// is done; fn may still run later in that case.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}
	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return fmt.Errorf("enqueue ui task: %w", ctx.Err())
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return fmt.Errorf("wait for ui task: %w", ctx.Err())
	}
}

// Stop ends the loop. Pending functions are discarded.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
	l.wg.Wait()
}
