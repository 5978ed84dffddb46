package cellgraph

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// DefaultLoopQueueSize is the dispatch channel capacity of a Loop.
const DefaultLoopQueueSize = 256

// Loop serializes work from many goroutines onto the goroutine that owns a
// Runtime. Every queued function runs inside its own transaction.
type Loop struct {
	rt     *Runtime
	logger *slog.Logger
	queue  chan task

	done     chan struct{}
	doneOnce sync.Once
	closed   atomic.Bool
}

// task is one queued update. done, when set, receives the outcome.
type task struct {
	fn   func() error
	done chan<- error
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithQueueSize sets the dispatch channel capacity.
func WithQueueSize(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.queue = make(chan task, n)
		}
	}
}

// WithLoopLogger sets the logger for dropped and panicking work. It
// defaults to the runtime logger.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoop creates a loop for rt. Nothing runs until Run is called.
func NewLoop(rt *Runtime, opts ...LoopOption) *Loop {
	l := &Loop{
		rt:     rt,
		logger: rt.Logger(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.queue == nil {
		l.queue = make(chan task, DefaultLoopQueueSize)
	}
	return l
}

// Runtime returns the runtime the loop drives.
func (l *Loop) Runtime() *Runtime {
	return l.rt
}

// Dispatch queues fn without waiting. It reports false if the loop is closed
// or the queue is full, in which case fn is dropped.
func (l *Loop) Dispatch(fn func()) bool {
	if l.closed.Load() {
		return false
	}
	select {
	case l.queue <- task{fn: func() error { fn(); return nil }}:
		return true
	case <-l.done:
		return false
	default:
		l.logger.Warn("cellgraph: dispatch queue full, discarding update")
		return false
	}
}

// Do queues fn and waits for it to run. The returned error is fn's error,
// the graph error that aborted its transaction, or the context error.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	if l.closed.Load() {
		return ErrLoopClosed
	}
	res := make(chan error, 1)

	select {
	case l.queue <- task{fn: fn, done: res}:
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-res:
		return err
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes queued work until ctx is cancelled. It must be called from
// exactly one goroutine, which becomes the runtime owner.
func (l *Loop) Run(ctx context.Context) error {
	defer l.close()
	for {
		select {
		case t := <-l.queue:
			l.execute(t)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Loop) close() {
	l.doneOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// execute runs one queued update in its own transaction with panic
// recovery.
func (l *Loop) execute(t task) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("cellgraph: dispatch panic",
				"panic", r,
				"stack", string(debug.Stack()))
			if t.done != nil {
				t.done <- fmt.Errorf("cellgraph: update panicked: %v", r)
			}
		}
	}()

	var ferr error
	err := l.rt.Tx(func() { ferr = t.fn() })
	if err != nil {
		l.logger.Error("cellgraph: dispatched update aborted", "error", err)
	} else {
		err = ferr
	}
	if t.done != nil {
		t.done <- err
	}
}
