package observe

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/vango-dev/cellgraph/pkg/cellgraph"
)

func newRuntime(o cellgraph.Observer) *cellgraph.Runtime {
	return cellgraph.New(
		cellgraph.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		cellgraph.WithObserver(o),
	)
}

func TestMetricsRecordsCommittedTransactions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))
	rt := newRuntime(m)

	a := cellgraph.NewVar(rt, 1)
	b := cellgraph.NewVar(rt, 2)
	if err := rt.TxNamed("bump", func() {
		a.Set(10)
		b.Set(20)
	}); err != nil {
		t.Fatalf("TxNamed: %v", err)
	}

	if got := testutil.ToFloat64(m.txTotal.WithLabelValues("bump", "committed")); got != 1 {
		t.Errorf("transactions_total{bump,committed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.writes); got != 2 {
		t.Errorf("writes_total = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.txDuration); got != 1 {
		t.Errorf("transaction_duration_seconds series = %d, want 1", got)
	}
}

func TestMetricsUnnamedLabel(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	m.TxCommitted(cellgraph.TxStats{})

	if got := testutil.ToFloat64(m.txTotal.WithLabelValues("unnamed", "committed")); got != 1 {
		t.Errorf("transactions_total{unnamed,committed} = %v, want 1", got)
	}
}

func TestMetricsRecordsRecomputes(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	rt := newRuntime(m)

	v := cellgraph.NewVar(rt, 3)
	double := cellgraph.NewCache(rt, func(fr *cellgraph.Frame) int {
		return v.Get(fr) * 2
	}, cellgraph.Named("double"))

	double.Peek()
	double.Peek()
	v.Set(4)
	double.Peek()

	if got := testutil.ToFloat64(m.recomputes.WithLabelValues("double")); got != 2 {
		t.Errorf("recomputes_total{double} = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.recomputeDuration); got != 1 {
		t.Errorf("recompute_duration_seconds series = %d, want 1", got)
	}
}

func TestMetricsRecordsAborts(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	rt := newRuntime(m)

	var self cellgraph.Cache[int]
	self = cellgraph.NewCache(rt, func(fr *cellgraph.Frame) int {
		return self.Get(fr) + 1
	}, cellgraph.Named("self"))

	err := rt.TxNamed("loop", func() { self.Peek() })
	if !errors.Is(err, cellgraph.ErrCyclicDependency) {
		t.Fatalf("TxNamed error = %v, want %v", err, cellgraph.ErrCyclicDependency)
	}

	if got := testutil.ToFloat64(m.txTotal.WithLabelValues("loop", "aborted")); got != 1 {
		t.Errorf("transactions_total{loop,aborted} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.txAborts.WithLabelValues(string(cellgraph.CodeCycle))); got != 1 {
		t.Errorf("transaction_aborts_total{G001} = %v, want 1", got)
	}
}

func TestErrorCode(t *testing.T) {
	if got := errorCode(errors.New("boom")); got != "other" {
		t.Errorf("errorCode(plain) = %q, want other", got)
	}
	ge := &cellgraph.GraphError{Code: cellgraph.CodeBudget, Err: cellgraph.ErrBudgetExceeded}
	if got := errorCode(ge); got != "G005" {
		t.Errorf("errorCode(budget) = %q, want G005", got)
	}
}

func TestMetricsConfigOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(
		WithRegistry(reg),
		WithNamespace("todos"),
		WithSubsystem("graph"),
		WithConstLabels(prometheus.Labels{"app": "todos"}),
		WithBuckets([]float64{0.001, 0.01}),
	)
	m.TxCommitted(cellgraph.TxStats{Name: "x", Started: time.Now(), Finished: time.Now()})

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "todos_graph_transactions_total" {
			found = true
		}
	}
	if !found {
		t.Error("todos_graph_transactions_total not registered")
	}
}
