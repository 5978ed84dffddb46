package cellgraph

// Var is a handle to a mutable variable in a Runtime.
//
// Handles are small comparable values; two handles are equal exactly when
// they name the same node, never because their values match. The zero Var
// refers to nothing and reports IsZero.
type Var[T any] struct {
	rt *Runtime
	id NodeID
}

// NewVar creates a variable holding initial.
//
// Example:
//
//	count := cellgraph.NewVar(rt, 0, cellgraph.Named("count"))
//	count.Set(5)
//	count.Update(func(n int) int { return n + 1 })
func NewVar[T any](rt *Runtime, initial T, opts ...NodeOption) Var[T] {
	cfg := applyNodeOptions(opts)
	n := rt.alloc(kindVar, cfg.name)
	n.value = initial
	n.equal = cfg.equal
	return Var[T]{rt: rt, id: n.id}
}

// ID returns the node id.
func (v Var[T]) ID() NodeID {
	return v.id
}

// IsZero reports whether v is the zero handle.
func (v Var[T]) IsZero() bool {
	return v.rt == nil
}

// Runtime returns the runtime that owns v.
func (v Var[T]) Runtime() *Runtime {
	return v.rt
}

func (v Var[T]) node() *node {
	if v.rt == nil {
		panic(graphError(CodeDangling, ErrDanglingNode, nil, 0))
	}
	return v.rt.lookup(v.id, kindVar)
}

// Get returns the current value and records a dependency on fr's owner.
func (v Var[T]) Get(fr *Frame) T {
	n := v.node()
	fr.track(v.rt, v.id)
	return as[T](n.value)
}

// Peek returns the current value without recording a dependency.
func (v Var[T]) Peek() T {
	return as[T](v.node().value)
}

// Generation returns the number of accepted writes to v.
func (v Var[T]) Generation() uint64 {
	return v.node().generation
}

// Set replaces the value. Outside a transaction the write runs in its own.
func (v Var[T]) Set(value T) {
	v.write(func(n *node) bool {
		if n.equal != nil && n.equal(n.value, value) {
			return false
		}
		n.value = value
		return true
	})
}

// Update replaces the value with fn(current).
func (v Var[T]) Update(fn func(T) T) {
	v.write(func(n *node) bool {
		old := as[T](n.value)
		next := fn(old)
		if n.equal != nil && n.equal(old, next) {
			return false
		}
		n.value = next
		return true
	})
}

// UpdateInPlace lets fn mutate a copy of the value, then stores it. The
// whole mutation is one write event.
func (v Var[T]) UpdateInPlace(fn func(*T)) {
	v.write(func(n *node) bool {
		old := as[T](n.value)
		next := old
		fn(&next)
		if n.equal != nil && n.equal(old, next) {
			return false
		}
		n.value = next
		return true
	})
}

// MarkUpdated invalidates dependents without changing the value.
func (v Var[T]) MarkUpdated() {
	v.write(func(*node) bool { return true })
}

// Dispose frees the variable. Dependents are invalidated; reading v
// afterwards raises ErrDanglingNode and disposing again ErrDoubleFree.
func (v Var[T]) Dispose() {
	if v.rt == nil {
		panic(graphError(CodeDangling, ErrDanglingNode, nil, 0))
	}
	v.rt.atomically(func() {
		v.rt.free(v.id, kindVar)
	})
}

func (v Var[T]) write(mutate func(n *node) bool) {
	if v.rt == nil {
		panic(graphError(CodeDangling, ErrDanglingNode, nil, 0))
	}
	v.rt.atomically(func() {
		v.rt.write(v.id, mutate)
	})
}

// write applies one write event to a variable inside the open transaction.
func (rt *Runtime) write(id NodeID, mutate func(n *node) bool) {
	if len(rt.stack) > 0 {
		top := rt.stack[len(rt.stack)-1]
		panic(&GraphError{Code: CodeWriteInCompute, Node: top, Name: rt.nameOf(top), Err: ErrWriteInCompute})
	}
	n := rt.lookup(id, kindVar)
	if !mutate(n) {
		return
	}
	n.generation++
	tx := rt.tx
	tx.writes++
	tx.changed[id] = struct{}{}
	if len(n.dependents) > 0 {
		rt.propagate(rt.sortedDependents(n))
	}
	if n.onWrite != nil {
		n.onWrite()
	}
}
