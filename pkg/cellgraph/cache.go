package cellgraph

import (
	"slices"
	"time"
)

// Cache is a handle to a memoized derived value.
//
// A cache computes lazily: creating it runs nothing, and invalidation only
// marks it dirty. The compute function runs on the first read after the
// cache became dirty, so several invalidations before a read cost one
// recompute. The dependency set is rebuilt on every recompute, which lets
// the cache read different inputs depending on its branches.
type Cache[T any] struct {
	rt *Runtime
	id NodeID
}

// NewCache creates a cache over compute. compute receives a fresh Frame on
// every run; reads through it are the cache's dependencies. compute must
// not write variables.
//
// Example:
//
//	total := cellgraph.NewCache(rt, func(fr *cellgraph.Frame) int {
//	    return price.Get(fr) * qty.Get(fr)
//	})
func NewCache[T any](rt *Runtime, compute func(fr *Frame) T, opts ...NodeOption) Cache[T] {
	cfg := applyNodeOptions(opts)
	n := rt.alloc(kindCache, cfg.name)
	n.compute = func(fr *Frame) any { return compute(fr) }
	n.dirty = true
	return Cache[T]{rt: rt, id: n.id}
}

// ID returns the node id.
func (c Cache[T]) ID() NodeID {
	return c.id
}

// IsZero reports whether c is the zero handle.
func (c Cache[T]) IsZero() bool {
	return c.rt == nil
}

func (c Cache[T]) node() *node {
	if c.rt == nil {
		panic(graphError(CodeDangling, ErrDanglingNode, nil, 0))
	}
	return c.rt.lookup(c.id, kindCache)
}

// Get returns the cached value, recomputing first if it is dirty, and
// records a dependency on fr's owner.
func (c Cache[T]) Get(fr *Frame) T {
	n := c.node()
	if fr != nil && fr.owner == c.id {
		c.rt.cycle(n)
	}
	fr.track(c.rt, c.id)
	if n.dirty {
		c.rt.recompute(n)
	}
	return as[T](n.value)
}

// Peek is Get without recording a dependency. It still recomputes a dirty
// cache.
func (c Cache[T]) Peek() T {
	return c.Get(nil)
}

// Dirty reports whether the next read will recompute.
func (c Cache[T]) Dirty() bool {
	return c.node().dirty
}

// Recomputes returns how many times compute has run.
func (c Cache[T]) Recomputes() uint64 {
	return c.node().runs
}

// Dispose releases the cache's dependency edges and frees its slot.
func (c Cache[T]) Dispose() {
	if c.rt == nil {
		panic(graphError(CodeDangling, ErrDanglingNode, nil, 0))
	}
	c.rt.atomically(func() {
		c.rt.free(c.id, kindCache)
	})
}

// recompute runs the compute function of a dirty cache with a fresh frame
// and replaces its dependency set with what the run read.
func (rt *Runtime) recompute(n *node) {
	if n.computing {
		rt.cycle(n)
	}
	n.computing = true
	rt.stack = append(rt.stack, n.id)
	rt.unlink(n)

	fr := newFrame(rt, n.id)
	start := time.Now()
	defer func() {
		fr.close()
		n.computing = false
		rt.stack = rt.stack[:len(rt.stack)-1]
	}()

	value := n.compute(fr)

	rt.link(n, fr.deps)
	n.value = value
	n.dirty = false
	n.runs++

	elapsed := time.Since(start)
	if rt.tx != nil {
		rt.tx.recomputes++
	}
	if rt.cfg.debug.LogRecomputes {
		rt.cfg.logger.Debug("cellgraph: cache recomputed",
			"node", uint64(n.id),
			"name", n.name,
			"deps", len(n.deps),
			"duration", elapsed,
		)
	}
	rt.cfg.observer.CacheRecomputed(RecomputeStats{
		Node:     n.id,
		Name:     n.name,
		Deps:     len(n.deps),
		Duration: elapsed,
	})
}

// cycle raises ErrCyclicDependency for a read of n while n is recomputing.
func (rt *Runtime) cycle(n *node) {
	path := []NodeID{n.id}
	if i := slices.Index(rt.stack, n.id); i >= 0 {
		path = append(slices.Clone(rt.stack[i:]), n.id)
	}
	panic(&GraphError{Code: CodeCycle, Node: n.id, Name: n.name, Path: path, Err: ErrCyclicDependency})
}
