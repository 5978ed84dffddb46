package cellgraph

// propagate walks the graph breadth-first from start, marking caches dirty
// and scheduling subscriptions. Nothing is recomputed here.
//
// The walk continues through caches that are already dirty. A subscription
// links its dependencies only after its body returns, so it can end up
// depending on a cache that its own writes dirtied. The visited set bounds
// the walk. A subscription that is already pending is not queued twice.
//
// Nodes suppressed by an open Stop scope are handed to that scope instead
// of being marked, and the walk does not continue through them.
func (rt *Runtime) propagate(start []NodeID) {
	tx := rt.tx
	visited := make(map[NodeID]struct{}, len(start))
	queue := append([]NodeID(nil), start...)
	marked := 0

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}

		n := rt.nodes[id]
		if n == nil {
			continue
		}
		if scope := rt.suppressing(id); scope != nil {
			scope.hold(id)
			continue
		}

		switch n.kind {
		case kindCache:
			if !n.dirty {
				n.dirty = true
				marked++
				if tx != nil {
					tx.invalidated++
				}
			}
			queue = append(queue, rt.sortedDependents(n)...)
		case kindSubscription:
			if n.pending {
				continue
			}
			n.pending = true
			marked++
			rt.queue = append(rt.queue, id)
			if tx != nil {
				tx.scheduled++
			}
		}
	}

	if rt.cfg.debug.LogPropagation {
		rt.cfg.logger.Debug("cellgraph: propagated", "roots", len(start), "marked", marked)
	}
}
