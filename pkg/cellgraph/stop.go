package cellgraph

// stopScope is one open Stop call.
type stopScope struct {
	all   bool
	nodes map[NodeID]struct{}

	// held are the suppressed nodes reached while the scope was open, in
	// the order they were first reached.
	held    []NodeID
	heldSet map[NodeID]struct{}
}

func (s *stopScope) covers(id NodeID) bool {
	if s.all {
		return true
	}
	_, ok := s.nodes[id]
	return ok
}

func (s *stopScope) hold(id NodeID) {
	if _, ok := s.heldSet[id]; ok {
		return
	}
	s.heldSet[id] = struct{}{}
	s.held = append(s.held, id)
}

// suppressing returns the innermost open scope that covers id.
func (rt *Runtime) suppressing(id NodeID) *stopScope {
	for i := len(rt.stops) - 1; i >= 0; i-- {
		if s := rt.stops[i]; s.covers(id) {
			return s
		}
	}
	return nil
}

// Stop runs fn with invalidation of the given nodes suppressed. With no
// nodes, every dependent of every write in fn is suppressed.
//
// Suppressed nodes keep serving the value they had when the scope opened:
// a suppressed cache is not marked dirty and a suppressed subscription is
// not scheduled. When fn returns, by any path including a panic, the nodes
// that were reached are invalidated once, so dependents observe only the
// end state of a bulk update.
//
// Stop joins the open transaction or opens one.
//
// Example:
//
//	rt.Stop(func() {
//	    for _, h := range items.Peek().Handles() {
//	        h.Update(toggle)
//	    }
//	})
func (rt *Runtime) Stop(fn func(), nodes ...Node) {
	rt.atomically(func() {
		scope := &stopScope{
			all:     len(nodes) == 0,
			nodes:   make(map[NodeID]struct{}, len(nodes)),
			heldSet: make(map[NodeID]struct{}),
		}
		for _, n := range nodes {
			scope.nodes[n.ID()] = struct{}{}
		}
		rt.stops = append(rt.stops, scope)
		defer rt.release(scope)
		fn()
	})
}

// release closes scope and invalidates what it held. Outer scopes still
// apply to the released nodes.
func (rt *Runtime) release(scope *stopScope) {
	for i := len(rt.stops) - 1; i >= 0; i-- {
		if rt.stops[i] == scope {
			rt.stops = append(rt.stops[:i], rt.stops[i+1:]...)
			break
		}
	}
	if len(scope.held) > 0 {
		rt.propagate(scope.held)
	}
}
