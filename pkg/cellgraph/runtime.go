package cellgraph

import (
	"fmt"
	"log/slog"
	"time"
)

// Runtime owns one reactive graph: the node arena, the open transaction and
// the queue of pending subscriptions.
//
// A Runtime is not safe for concurrent use. All reads, writes and
// transactions must happen on one goroutine at a time; use a Loop to funnel
// work from other goroutines onto the owner.
type Runtime struct {
	cfg runtimeConfig

	// nodes is the arena. Index 0 is never used so the zero NodeID is "none".
	nodes []*node
	live  int

	// tx is the open transaction, nil between updates.
	tx *txState

	// stack holds the caches currently recomputing, outermost first.
	stack []NodeID

	// queue holds pending subscriptions in the order they became pending.
	queue []NodeID

	// stops holds the open suppression scopes, innermost last.
	stops []*stopScope
}

// txState is the bookkeeping of one outermost transaction.
type txState struct {
	name       string
	depth      int
	committing bool
	started    time.Time
	changed    map[NodeID]struct{}

	writes      int
	invalidated int
	scheduled   int
	runs        int
	recomputes  int
}

func (tx *txState) stats(finished time.Time) TxStats {
	return TxStats{
		Name:             tx.name,
		Started:          tx.started,
		Finished:         finished,
		Writes:           tx.writes,
		Changed:          len(tx.changed),
		Invalidated:      tx.invalidated,
		Scheduled:        tx.scheduled,
		SubscriptionRuns: tx.runs,
		Recomputes:       tx.recomputes,
	}
}

// New creates an empty runtime.
func New(opts ...Option) *Runtime {
	cfg := defaultRuntimeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Runtime{
		cfg:   cfg,
		nodes: make([]*node, 1, 64),
	}
}

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.cfg.logger
}

// NodeCount returns the number of live nodes.
func (rt *Runtime) NodeCount() int {
	return rt.live
}

// InTx reports whether a transaction is open, including the commit phase.
func (rt *Runtime) InTx() bool {
	return rt.tx != nil
}

// Begin opens a transaction or joins the one already open. Every Begin must
// be paired with End. Prefer Tx, which also converts graph errors into a
// returned error and leaves the runtime clean after a panic.
func (rt *Runtime) Begin() {
	if rt.tx == nil {
		rt.tx = &txState{
			started: time.Now(),
			changed: make(map[NodeID]struct{}),
		}
	}
	rt.tx.depth++
}

// End closes the innermost Begin. Closing the outermost one commits: pending
// subscriptions run in the order they became pending, after every write of
// the transaction is visible.
func (rt *Runtime) End() {
	tx := rt.tx
	if tx == nil || tx.depth == 0 {
		panic("cellgraph: End called without a matching Begin")
	}
	tx.depth--
	if tx.depth > 0 || tx.committing {
		return
	}
	rt.commit()
}

// Tx runs fn as one transaction. If a transaction is already open, fn joins
// it and no commit happens when fn returns.
//
// A graph error raised inside fn (cycle, dangling handle, write during
// recompute, budget exhaustion) aborts the outermost transaction, which then
// returns the error. Writes already applied stay applied; subscriptions
// still pending run at the next commit.
//
// Example:
//
//	err := rt.Tx(func() {
//	    first.Set("Ada")
//	    last.Set("Lovelace")
//	})
//	// subscriptions reading either name ran once
func (rt *Runtime) Tx(fn func()) error {
	return rt.TxNamed("", fn)
}

// TxNamed is Tx with a name that shows up in debug logs, TxStats and spans.
// The name is ignored when joining an open transaction.
func (rt *Runtime) TxNamed(name string, fn func()) (err error) {
	outer := rt.tx == nil
	rt.Begin()
	if outer {
		rt.tx.name = name
		if rt.cfg.debug.LogTransactions {
			rt.cfg.logger.Debug("cellgraph: tx start", "tx", name)
		}
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if !outer {
			panic(r)
		}
		err = rt.abort(r)
	}()

	fn()
	rt.End()
	return nil
}

// atomically runs fn inside the open transaction, or inside a fresh one.
// A graph error in a fresh transaction is re-raised after the abort so the
// caller of a bare write still sees it.
func (rt *Runtime) atomically(fn func()) {
	if rt.tx != nil {
		fn()
		return
	}
	if err := rt.Tx(fn); err != nil {
		panic(err)
	}
}

func (rt *Runtime) commit() {
	tx := rt.tx
	tx.committing = true

	for len(rt.queue) > 0 {
		id := rt.queue[0]
		n := rt.nodes[id]
		if n == nil || !n.pending {
			rt.queue = rt.queue[1:]
			continue
		}
		if rt.cfg.budget > 0 && tx.runs >= rt.cfg.budget {
			// The runaway subscription is dropped from the queue so the
			// next commit does not spin on it again.
			n.pending = false
			rt.queue = rt.queue[1:]
			panic(&GraphError{Code: CodeBudget, Node: id, Name: n.name, Err: ErrBudgetExceeded})
		}
		rt.queue = rt.queue[1:]
		rt.runSubscription(n)
	}
	rt.queue = nil

	stats := tx.stats(time.Now())
	rt.tx = nil
	if rt.cfg.debug.LogTransactions {
		rt.cfg.logger.Debug("cellgraph: tx committed",
			"tx", stats.Name,
			"writes", stats.Writes,
			"invalidated", stats.Invalidated,
			"subscription_runs", stats.SubscriptionRuns,
			"duration", stats.Duration(),
		)
	}
	rt.cfg.observer.TxCommitted(stats)
}

// abort discards the open transaction after a panic. Graph errors are
// returned; any other panic value is re-raised once the runtime is clean.
func (rt *Runtime) abort(r any) error {
	var stats TxStats
	if rt.tx != nil {
		stats = rt.tx.stats(time.Now())
	}
	rt.tx = nil
	rt.stack = rt.stack[:0]
	rt.stops = rt.stops[:0]

	ge, ok := r.(*GraphError)
	if !ok {
		rt.cfg.logger.Error("cellgraph: update panicked", "tx", stats.Name, "panic", r)
		rt.cfg.observer.TxAborted(stats, fmt.Errorf("cellgraph: panic: %v", r))
		panic(r)
	}

	rt.cfg.logger.Warn("cellgraph: tx aborted", "tx", stats.Name, "error", ge)
	rt.cfg.observer.TxAborted(stats, ge)
	return ge
}
