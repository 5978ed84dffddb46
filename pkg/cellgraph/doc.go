// Package cellgraph implements a fine-grained incremental computation
// runtime: mutable variables, memoized caches derived from them and
// subscriptions that react to them, kept consistent by demand-driven
// invalidation.
//
// # Core Types
//
// Var[T] is a mutable value. Cache[T] is a pure function of the variables
// and caches it reads, recomputed lazily on the first read after one of
// them changed. Subscription is a body with side effects that reruns after
// a transaction in which something it read changed.
//
//	rt := cellgraph.New()
//	price := cellgraph.NewVar(rt, 10)
//	qty := cellgraph.NewVar(rt, 2)
//	total := cellgraph.NewCache(rt, func(fr *cellgraph.Frame) int {
//	    return price.Get(fr) * qty.Get(fr)
//	})
//	cellgraph.Subscribe(rt, func(fr *cellgraph.Frame) {
//	    fmt.Println("total:", total.Get(fr))
//	})
//
// # Dependency Tracking
//
// Dependencies are recorded explicitly. Cache compute functions and
// subscription bodies receive a *Frame; values read with Get(fr) become
// dependencies of that node. Peek reads without tracking. Because the frame
// is a parameter, not ambient state, an update function (which receives no
// frame) cannot accidentally subscribe to what it reads.
//
// # Transactions
//
// Every write happens inside a transaction. Tx groups writes; nested Tx
// calls join the open one. Subscriptions run when the outermost transaction
// commits, once each, after all writes are visible:
//
//	rt.Tx(func() {
//	    price.Set(12)
//	    qty.Set(3)
//	})
//	// prints "total: 36" once
//
// A bare Set outside Tx runs in a transaction of its own.
//
// Stop suppresses invalidation of chosen nodes for the duration of a bulk
// update, then invalidates them once on exit.
//
// # Collections
//
// Collection[T] holds an ordered sequence of Var[T] in a persistent Vector,
// so structural edits and element edits invalidate independently and every
// snapshot is stable while the collection changes.
//
// # Errors
//
// Graph-invariant violations (cycles, dangling handles, writes inside a
// cache recompute, runaway commits) panic with *GraphError. The outermost
// Tx recovers them, aborts and returns the error.
//
// # Thread Safety
//
// A Runtime belongs to one goroutine at a time. Loop funnels updates from
// other goroutines onto the goroutine running Loop.Run.
package cellgraph
