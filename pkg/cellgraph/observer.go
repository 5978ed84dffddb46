package cellgraph

import (
	"time"
)

// TxStats summarizes one outermost transaction.
type TxStats struct {
	Name     string
	Started  time.Time
	Finished time.Time

	// Writes counts accepted write events, Changed distinct variables.
	Writes  int
	Changed int

	// Invalidated counts caches marked dirty, Scheduled subscriptions
	// marked pending.
	Invalidated int
	Scheduled   int

	SubscriptionRuns int
	Recomputes       int
}

// Duration returns Finished - Started.
func (s TxStats) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}

// RecomputeStats describes one cache recompute.
type RecomputeStats struct {
	Node     NodeID
	Name     string
	Deps     int
	Duration time.Duration
}

// Observer receives runtime events. Methods are called on the runtime's
// goroutine and must not touch the graph.
type Observer interface {
	TxCommitted(stats TxStats)
	TxAborted(stats TxStats, err error)
	CacheRecomputed(stats RecomputeStats)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) TxCommitted(TxStats)            {}
func (NopObserver) TxAborted(TxStats, error)       {}
func (NopObserver) CacheRecomputed(RecomputeStats) {}

type multiObserver []Observer

// Observers fans events out to several observers in order.
func Observers(obs ...Observer) Observer {
	out := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (m multiObserver) TxCommitted(s TxStats) {
	for _, o := range m {
		o.TxCommitted(s)
	}
}

func (m multiObserver) TxAborted(s TxStats, err error) {
	for _, o := range m {
		o.TxAborted(s, err)
	}
}

func (m multiObserver) CacheRecomputed(s RecomputeStats) {
	for _, o := range m {
		o.CacheRecomputed(s)
	}
}
