package cellgraph

import (
	"fmt"
	"iter"

	"github.com/benbjohnson/immutable"
)

// Vector is a persistent ordered sequence of variable handles. Every
// operation returns a new Vector and leaves the receiver untouched, so a
// Vector read out of a Var is a stable snapshot: iterating it while the
// collection is being modified observes exactly the elements it held.
//
// The zero Vector is empty and ready to use.
type Vector[T any] struct {
	list *immutable.List[Var[T]]
}

// NewVector returns a vector holding handles in order.
func NewVector[T any](handles ...Var[T]) Vector[T] {
	b := immutable.NewListBuilder[Var[T]]()
	for _, h := range handles {
		b.Append(h)
	}
	return Vector[T]{list: b.List()}
}

func (v Vector[T]) l() *immutable.List[Var[T]] {
	if v.list == nil {
		return immutable.NewList[Var[T]]()
	}
	return v.list
}

// Len returns the number of elements.
func (v Vector[T]) Len() int {
	if v.list == nil {
		return 0
	}
	return v.list.Len()
}

// At returns the handle at index i. It panics if i is out of range.
func (v Vector[T]) At(i int) Var[T] {
	if i < 0 || i >= v.Len() {
		panic(fmt.Sprintf("cellgraph: vector index %d out of range [0:%d]", i, v.Len()))
	}
	return v.list.Get(i)
}

// All iterates positions and handles in order.
func (v Vector[T]) All() iter.Seq2[int, Var[T]] {
	return func(yield func(int, Var[T]) bool) {
		for i := 0; i < v.Len(); i++ {
			if !yield(i, v.list.Get(i)) {
				return
			}
		}
	}
}

// Handles copies the handles into a slice.
func (v Vector[T]) Handles() []Var[T] {
	out := make([]Var[T], 0, v.Len())
	for _, h := range v.All() {
		out = append(out, h)
	}
	return out
}

// Values reads every element through fr.
func (v Vector[T]) Values(fr *Frame) []T {
	out := make([]T, 0, v.Len())
	for _, h := range v.All() {
		out = append(out, h.Get(fr))
	}
	return out
}

// Position returns the index of h, compared by identity.
func (v Vector[T]) Position(h Var[T]) (int, bool) {
	for i, x := range v.All() {
		if x == h {
			return i, true
		}
	}
	return -1, false
}

// PushFront returns v with h inserted at the head.
func (v Vector[T]) PushFront(h Var[T]) Vector[T] {
	return Vector[T]{list: v.l().Prepend(h)}
}

// PushBack returns v with h appended.
func (v Vector[T]) PushBack(h Var[T]) Vector[T] {
	return Vector[T]{list: v.l().Append(h)}
}

// RemoveAt returns v without the element at i, along with that element.
func (v Vector[T]) RemoveAt(i int) (Vector[T], Var[T], error) {
	n := v.Len()
	if i < 0 || i >= n {
		return v, Var[T]{}, fmt.Errorf("%w: %d (length %d)", ErrPositionNotFound, i, n)
	}
	removed := v.list.Get(i)
	switch {
	case n == 1:
		return Vector[T]{}, removed, nil
	case i == 0:
		return Vector[T]{list: v.list.Slice(1, n)}, removed, nil
	case i == n-1:
		return Vector[T]{list: v.list.Slice(0, n-1)}, removed, nil
	}
	out := v.list.Slice(0, i)
	for j := i + 1; j < n; j++ {
		out = out.Append(v.list.Get(j))
	}
	return Vector[T]{list: out}, removed, nil
}

// Retain returns the elements for which keep reports true, in order.
func (v Vector[T]) Retain(keep func(Var[T]) bool) Vector[T] {
	b := immutable.NewListBuilder[Var[T]]()
	for _, h := range v.All() {
		if keep(h) {
			b.Append(h)
		}
	}
	return Vector[T]{list: b.List()}
}
