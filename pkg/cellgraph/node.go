package cellgraph

import (
	"slices"
)

// NodeID identifies a node within one Runtime. IDs start at 1 and are never
// reused, so a stale handle can always be told apart from a live one.
type NodeID uint64

// Node is implemented by every handle type (Var, Cache, Subscription).
type Node interface {
	ID() NodeID
}

type nodeKind uint8

const (
	kindVar nodeKind = iota + 1
	kindCache
	kindSubscription
)

func (k nodeKind) String() string {
	switch k {
	case kindVar:
		return "var"
	case kindCache:
		return "cache"
	case kindSubscription:
		return "subscription"
	default:
		return "unknown"
	}
}

// node is one arena slot. The kind decides which fields are meaningful.
type node struct {
	id   NodeID
	kind nodeKind
	name string

	// value holds the variable value or the cached result.
	value any

	// generation counts writes to a variable.
	generation uint64

	// equal, when set, drops variable writes equal to the current value.
	equal func(a, b any) bool

	// onWrite runs after each accepted write, inside the writing transaction.
	onWrite func()

	compute func(*Frame) any
	body    func(*Frame)

	// dirty is set on caches whose value is absent or stale.
	dirty bool

	// pending is set on subscriptions scheduled for the next commit.
	pending bool

	// computing guards against re-entering a recompute (cycle).
	computing bool

	deps       []NodeID
	dependents map[NodeID]struct{}

	// runs counts recomputes (caches) or body executions (subscriptions).
	runs uint64
}

// alloc appends a fresh node to the arena.
func (rt *Runtime) alloc(kind nodeKind, name string) *node {
	n := &node{
		id:         NodeID(len(rt.nodes)),
		kind:       kind,
		name:       name,
		dependents: make(map[NodeID]struct{}),
	}
	rt.nodes = append(rt.nodes, n)
	rt.live++
	return n
}

// lookup returns the live node for id or panics with ErrDanglingNode.
func (rt *Runtime) lookup(id NodeID, kind nodeKind) *node {
	if id == 0 || int(id) >= len(rt.nodes) || rt.nodes[id] == nil {
		panic(graphError(CodeDangling, ErrDanglingNode, nil, id))
	}
	n := rt.nodes[id]
	if n.kind != kind {
		panic(&GraphError{Code: CodeDangling, Node: id, Name: n.name, Err: ErrDanglingNode})
	}
	return n
}

// free tombstones a slot after detaching it from the graph. Dependents of
// the freed node are invalidated so they observe the removal on next read.
func (rt *Runtime) free(id NodeID, kind nodeKind) {
	if id == 0 || int(id) >= len(rt.nodes) {
		panic(graphError(CodeDangling, ErrDanglingNode, nil, id))
	}
	n := rt.nodes[id]
	if n == nil {
		panic(graphError(CodeDoubleFree, ErrDoubleFree, nil, id))
	}
	if n.kind != kind {
		panic(&GraphError{Code: CodeDangling, Node: id, Name: n.name, Err: ErrDanglingNode})
	}
	rt.unlink(n)
	if len(n.dependents) > 0 {
		rt.propagate(rt.sortedDependents(n))
		for dep := range n.dependents {
			if d := rt.nodes[dep]; d != nil {
				d.deps = slices.DeleteFunc(d.deps, func(x NodeID) bool { return x == id })
			}
		}
	}
	n.pending = false
	rt.nodes[id] = nil
	rt.live--
}

// link records deps as the dependency set of n and registers n as a
// dependent of each. Freed dependencies are skipped.
func (rt *Runtime) link(n *node, deps []NodeID) {
	n.deps = n.deps[:0]
	for _, d := range deps {
		dn := rt.nodes[d]
		if dn == nil {
			continue
		}
		dn.dependents[n.id] = struct{}{}
		n.deps = append(n.deps, d)
	}
}

// unlink clears the dependency set of n.
func (rt *Runtime) unlink(n *node) {
	for _, d := range n.deps {
		if dn := rt.nodes[d]; dn != nil {
			delete(dn.dependents, n.id)
		}
	}
	n.deps = n.deps[:0]
}

// sortedDependents returns the dependents of n in creation order, which
// keeps subscription scheduling deterministic.
func (rt *Runtime) sortedDependents(n *node) []NodeID {
	out := make([]NodeID, 0, len(n.dependents))
	for id := range n.dependents {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// nameOf returns the diagnostic name of id, or "" when unknown.
func (rt *Runtime) nameOf(id NodeID) string {
	if id == 0 || int(id) >= len(rt.nodes) || rt.nodes[id] == nil {
		return ""
	}
	return rt.nodes[id].name
}
