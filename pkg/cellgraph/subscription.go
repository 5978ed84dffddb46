package cellgraph

// Subscription is a handle to a side-effecting body that reruns after each
// commit in which one of its dependencies was invalidated.
type Subscription struct {
	rt *Runtime
	id NodeID
}

// Subscribe creates a subscription and runs body once immediately. If a
// transaction is open the first run happens inside it; otherwise it gets
// its own.
//
// A body may write variables. Those writes propagate like any other and can
// schedule further subscriptions within the same commit, but a body never
// reschedules itself through its own writes: its dependency set is rebuilt
// only after it returns.
//
// Example:
//
//	cellgraph.Subscribe(rt, func(fr *cellgraph.Frame) {
//	    log.Printf("count is %d", count.Get(fr))
//	})
func Subscribe(rt *Runtime, body func(fr *Frame), opts ...NodeOption) Subscription {
	cfg := applyNodeOptions(opts)
	n := rt.alloc(kindSubscription, cfg.name)
	n.body = body
	rt.atomically(func() {
		rt.runSubscription(n)
	})
	return Subscription{rt: rt, id: n.id}
}

// ID returns the node id.
func (s Subscription) ID() NodeID {
	return s.id
}

// IsZero reports whether s is the zero handle.
func (s Subscription) IsZero() bool {
	return s.rt == nil
}

// Runs returns how many times the body has completed.
func (s Subscription) Runs() uint64 {
	if s.rt == nil {
		panic(graphError(CodeDangling, ErrDanglingNode, nil, 0))
	}
	return s.rt.lookup(s.id, kindSubscription).runs
}

// Pending reports whether the subscription is scheduled for the next commit.
func (s Subscription) Pending() bool {
	if s.rt == nil {
		panic(graphError(CodeDangling, ErrDanglingNode, nil, 0))
	}
	return s.rt.lookup(s.id, kindSubscription).pending
}

// Dispose stops the subscription and releases its dependency edges.
func (s Subscription) Dispose() {
	if s.rt == nil {
		panic(graphError(CodeDangling, ErrDanglingNode, nil, 0))
	}
	s.rt.atomically(func() {
		s.rt.free(s.id, kindSubscription)
	})
}

// runSubscription executes one run of a subscription body. A body that
// panics with a graph error is linked to what it read before failing but
// not rescheduled, so only a later change to those dependencies retries
// it. Any other panic puts it back on the queue for the next commit.
func (rt *Runtime) runSubscription(n *node) {
	n.pending = false
	rt.unlink(n)

	fr := newFrame(rt, n.id)
	done := false
	defer func() {
		fr.close()
		if done || rt.nodes[n.id] != n {
			return
		}
		r := recover()
		if r == nil {
			return
		}
		if ge, ok := r.(*GraphError); ok {
			rt.link(n, fr.deps)
			rt.cfg.logger.Error("cellgraph: subscription failed",
				"subscription", n.id,
				"name", n.name,
				"error", ge)
		} else if !n.pending {
			n.pending = true
			rt.queue = append(rt.queue, n.id)
		}
		panic(r)
	}()

	n.body(fr)

	// The body may have disposed its own subscription.
	if rt.nodes[n.id] == n {
		rt.link(n, fr.deps)
		n.runs++
	}
	if rt.tx != nil {
		rt.tx.runs++
	}
	done = true
}
