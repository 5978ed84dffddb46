package cellgraph

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

// newTestRuntime returns a runtime that logs nowhere.
func newTestRuntime(opts ...Option) *Runtime {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(append([]Option{WithLogger(quiet)}, opts...)...)
}

// expectGraphPanic runs fn and fails unless it panics with an error
// matching want.
func expectGraphPanic(t *testing.T, want error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic with %v, got none", want)
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, want) {
			t.Fatalf("expected panic with %v, got %v", want, r)
		}
	}()
	fn()
}

// recordingObserver keeps every event it receives.
type recordingObserver struct {
	committed  []TxStats
	aborted    []error
	recomputes []RecomputeStats
}

func (o *recordingObserver) TxCommitted(s TxStats) {
	o.committed = append(o.committed, s)
}

func (o *recordingObserver) TxAborted(_ TxStats, err error) {
	o.aborted = append(o.aborted, err)
}

func (o *recordingObserver) CacheRecomputed(s RecomputeStats) {
	o.recomputes = append(o.recomputes, s)
}
