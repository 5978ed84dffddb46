package cellgraph

// Collection is an ordered collection of variables. The sequence itself
// lives in one Var[Vector[T]], so structural changes (insert, remove) are a
// single write on that variable, while each element is its own variable and
// can be written without touching the sequence.
//
// Readers that depend on the sequence read Snapshot; readers that also
// depend on element values read each element through the same frame.
type Collection[T any] struct {
	rt    *Runtime
	items Var[Vector[T]]
	cfg   collectionConfig
}

type collectionConfig struct {
	name     string
	touch    bool
	elemOpts []NodeOption
}

// CollectionOption configures a Collection.
type CollectionOption func(*collectionConfig)

// WithCollectionName names the sequence variable.
func WithCollectionName(name string) CollectionOption {
	return func(c *collectionConfig) {
		c.name = name
	}
}

// TouchOnElementWrite makes every write to an element also mark the
// sequence variable updated, so readers of the sequence alone observe
// element changes.
func TouchOnElementWrite() CollectionOption {
	return func(c *collectionConfig) {
		c.touch = true
	}
}

// WithElementOptions applies opts to every element variable the collection
// creates.
func WithElementOptions(opts ...NodeOption) CollectionOption {
	return func(c *collectionConfig) {
		c.elemOpts = append(c.elemOpts, opts...)
	}
}

// NewCollection creates a collection holding initial, in order.
func NewCollection[T any](rt *Runtime, initial []T, opts ...CollectionOption) *Collection[T] {
	c := &Collection[T]{rt: rt}
	for _, opt := range opts {
		opt(&c.cfg)
	}
	handles := make([]Var[T], len(initial))
	for i, v := range initial {
		handles[i] = c.NewElement(v)
	}
	c.items = NewVar(rt, NewVector(handles...), Named(c.cfg.name))
	return c
}

// ID returns the id of the sequence variable, so a Collection can be
// passed to Runtime.Stop.
func (c *Collection[T]) ID() NodeID {
	return c.items.ID()
}

// Runtime returns the runtime that owns c.
func (c *Collection[T]) Runtime() *Runtime {
	return c.rt
}

// Var returns the sequence variable.
func (c *Collection[T]) Var() Var[Vector[T]] {
	return c.items
}

// NewElement creates an element variable owned by c without inserting it.
func (c *Collection[T]) NewElement(value T) Var[T] {
	h := NewVar(c.rt, value, c.cfg.elemOpts...)
	c.adopt(h)
	return h
}

func (c *Collection[T]) adopt(h Var[T]) {
	if !c.cfg.touch || h.IsZero() {
		return
	}
	n := h.node()
	n.onWrite = func() {
		if !c.items.IsZero() {
			c.items.MarkUpdated()
		}
	}
}

// Snapshot returns the current sequence and records a dependency on it.
func (c *Collection[T]) Snapshot(fr *Frame) Vector[T] {
	return c.items.Get(fr)
}

// Peek returns the current sequence without recording a dependency.
func (c *Collection[T]) Peek() Vector[T] {
	return c.items.Peek()
}

// Len returns the number of elements and records a dependency on the
// sequence.
func (c *Collection[T]) Len(fr *Frame) int {
	return c.items.Get(fr).Len()
}

// Position returns the current index of h.
func (c *Collection[T]) Position(h Var[T]) (int, bool) {
	return c.items.Peek().Position(h)
}

// PushFront inserts h at the head.
func (c *Collection[T]) PushFront(h Var[T]) {
	c.adopt(h)
	c.items.Update(func(v Vector[T]) Vector[T] { return v.PushFront(h) })
}

// PushFrontValue creates an element for value and inserts it at the head.
func (c *Collection[T]) PushFrontValue(value T) Var[T] {
	var h Var[T]
	c.rt.atomically(func() {
		h = c.NewElement(value)
		c.items.Update(func(v Vector[T]) Vector[T] { return v.PushFront(h) })
	})
	return h
}

// PushBack appends h.
func (c *Collection[T]) PushBack(h Var[T]) {
	c.adopt(h)
	c.items.Update(func(v Vector[T]) Vector[T] { return v.PushBack(h) })
}

// PushBackValue creates an element for value and appends it.
func (c *Collection[T]) PushBackValue(value T) Var[T] {
	var h Var[T]
	c.rt.atomically(func() {
		h = c.NewElement(value)
		c.items.Update(func(v Vector[T]) Vector[T] { return v.PushBack(h) })
	})
	return h
}

// Remove removes and disposes the element at pos. It returns an error
// wrapping ErrPositionNotFound when pos is out of range.
func (c *Collection[T]) Remove(pos int) error {
	var err error
	c.rt.atomically(func() {
		next, removed, rerr := c.items.Peek().RemoveAt(pos)
		if rerr != nil {
			err = rerr
			return
		}
		c.items.Set(next)
		removed.Dispose()
	})
	return err
}

// RemoveVar removes and disposes h. It reports false, and changes nothing,
// when h is not in the collection, including when h was already removed.
func (c *Collection[T]) RemoveVar(h Var[T]) bool {
	pos, ok := c.Position(h)
	if !ok {
		c.rt.cfg.logger.Debug("cellgraph: remove of absent element", "node", uint64(h.ID()))
		return false
	}
	return c.Remove(pos) == nil
}

// RemoveWhere removes and disposes every element whose current value
// matches, as one structural write. It returns how many were removed.
func (c *Collection[T]) RemoveWhere(match func(T) bool) int {
	removed := 0
	c.rt.atomically(func() {
		var gone []Var[T]
		next := c.items.Peek().Retain(func(h Var[T]) bool {
			if match(h.Peek()) {
				gone = append(gone, h)
				return false
			}
			return true
		})
		if len(gone) == 0 {
			return
		}
		c.items.Set(next)
		for _, h := range gone {
			h.Dispose()
		}
		removed = len(gone)
	})
	return removed
}

// Replace disposes every element and loads values in their place, as one
// structural write.
func (c *Collection[T]) Replace(values []T) {
	c.rt.atomically(func() {
		old := c.items.Peek()
		handles := make([]Var[T], len(values))
		for i, v := range values {
			handles[i] = c.NewElement(v)
		}
		c.items.Set(NewVector(handles...))
		for _, h := range old.All() {
			h.Dispose()
		}
	})
}
