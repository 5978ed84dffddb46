package cellgraph

// Frame is the tracking context handed to a cache compute function or a
// subscription body. Reads made through a frame become dependency edges of
// its owner once the body returns. A frame is closed after its body returns;
// reads through a closed or nil frame are untracked.
//
// Frames are never stored by the runtime between runs, so there is no
// ambient "current listener": code that was not handed a frame cannot
// create dependencies by accident.
type Frame struct {
	rt     *Runtime
	owner  NodeID
	deps   []NodeID
	seen   map[NodeID]struct{}
	closed bool
}

func newFrame(rt *Runtime, owner NodeID) *Frame {
	return &Frame{
		rt:    rt,
		owner: owner,
		seen:  make(map[NodeID]struct{}),
	}
}

// Owner returns the node whose body this frame tracks.
func (f *Frame) Owner() NodeID {
	if f == nil {
		return 0
	}
	return f.owner
}

// Deps returns the dependencies recorded so far, in first-read order.
func (f *Frame) Deps() []NodeID {
	if f == nil {
		return nil
	}
	out := make([]NodeID, len(f.deps))
	copy(out, f.deps)
	return out
}

// track records a read of id. Reads of the owner itself are left to the
// recompute stack, which reports them as cycles.
func (f *Frame) track(rt *Runtime, id NodeID) {
	if f == nil || f.closed || f.rt != rt || id == f.owner {
		return
	}
	if _, ok := f.seen[id]; ok {
		return
	}
	f.seen[id] = struct{}{}
	f.deps = append(f.deps, id)
}

func (f *Frame) close() {
	f.closed = true
}
