package cellgraph

import (
	"errors"
	"slices"
	"testing"
)

func TestCollectionPushFrontOrder(t *testing.T) {
	rt := newTestRuntime()
	c := NewCollection[string](rt, nil)

	c.PushFrontValue("a")
	c.PushFrontValue("b")

	if got := c.Peek().Values(nil); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("expected [b a], got %v", got)
	}
	if c.Len(nil) != 2 {
		t.Errorf("expected 2, got %d", c.Len(nil))
	}
}

func TestCollectionPushBack(t *testing.T) {
	rt := newTestRuntime()
	c := NewCollection(rt, []int{1, 2})

	c.PushBackValue(3)
	h := NewVar(rt, 0)
	c.PushFront(h)

	if got := c.Peek().Values(nil); !slices.Equal(got, []int{0, 1, 2, 3}) {
		t.Errorf("expected [0 1 2 3], got %v", got)
	}
	if pos, ok := c.Position(h); !ok || pos != 0 {
		t.Errorf("expected position 0, got %d %v", pos, ok)
	}
}

func TestCollectionRemove(t *testing.T) {
	rt := newTestRuntime()
	c := NewCollection(rt, []string{"a", "b", "c"})
	b := c.Peek().At(1)

	if err := c.Remove(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Peek().Values(nil); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("expected [a c], got %v", got)
	}
	expectGraphPanic(t, ErrDanglingNode, func() { b.Peek() })
}

func TestCollectionRemoveOutOfBounds(t *testing.T) {
	rt := newTestRuntime()
	c := NewCollection(rt, []string{"a"})

	for _, pos := range []int{-1, 1, 5} {
		if err := c.Remove(pos); !errors.Is(err, ErrPositionNotFound) {
			t.Errorf("Remove(%d): expected ErrPositionNotFound, got %v", pos, err)
		}
	}
	if c.Len(nil) != 1 {
		t.Errorf("expected collection untouched, got len %d", c.Len(nil))
	}
}

func TestCollectionRemoveVarStale(t *testing.T) {
	rt := newTestRuntime()
	c := NewCollection[string](rt, nil)
	h := c.PushBackValue("x")

	if !c.RemoveVar(h) {
		t.Fatal("expected first removal to succeed")
	}
	gen := c.Var().Generation()
	if c.RemoveVar(h) {
		t.Error("expected removal of a stale handle to report false")
	}
	if c.Var().Generation() != gen {
		t.Error("expected stale removal not to write the sequence")
	}
}

func TestCollectionSnapshotStable(t *testing.T) {
	rt := newTestRuntime()
	c := NewCollection(rt, []int{1, 2, 3})
	snap := c.Peek()

	c.PushFrontValue(0)
	_ = c.Remove(3)

	if got := snap.Values(nil); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("expected snapshot [1 2 3], got %v", got)
	}
}

func TestCollectionElementWriteSkipsSequence(t *testing.T) {
	rt := newTestRuntime()
	c := NewCollection(rt, []int{1, 2})
	count := NewCache(rt, func(fr *Frame) int { return c.Len(fr) })
	sum := NewCache(rt, func(fr *Frame) int {
		total := 0
		for _, v := range c.Snapshot(fr).Values(fr) {
			total += v
		}
		return total
	})
	_, _ = count.Peek(), sum.Peek()

	c.Peek().At(0).Set(10)

	if count.Dirty() {
		t.Error("element write should not invalidate readers of the sequence alone")
	}
	if sum.Peek() != 12 {
		t.Errorf("expected 12, got %d", sum.Peek())
	}
}

func TestCollectionTouchOnElementWrite(t *testing.T) {
	rt := newTestRuntime()
	c := NewCollection(rt, []int{1, 2}, TouchOnElementWrite())
	count := NewCache(rt, func(fr *Frame) int { return c.Len(fr) })
	_ = count.Peek()

	c.Peek().At(0).Set(10)
	if !count.Dirty() {
		t.Error("expected element write to touch the sequence")
	}

	pushed := c.PushFrontValue(7)
	_ = count.Peek()
	pushed.Set(8)
	if !count.Dirty() {
		t.Error("expected writes to pushed elements to touch the sequence")
	}
}

func TestCollectionRemoveWhere(t *testing.T) {
	rt := newTestRuntime()
	c := NewCollection(rt, []int{1, 2, 3, 4, 5})

	runs := 0
	Subscribe(rt, func(fr *Frame) {
		c.Snapshot(fr)
		runs++
	})

	n := c.RemoveWhere(func(v int) bool { return v%2 == 0 })
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	if got := c.Peek().Values(nil); !slices.Equal(got, []int{1, 3, 5}) {
		t.Errorf("expected [1 3 5], got %v", got)
	}
	if runs != 2 {
		t.Errorf("expected one structural write, got %d runs", runs)
	}

	if c.RemoveWhere(func(int) bool { return false }) != 0 || runs != 2 {
		t.Error("expected no write when nothing matches")
	}
}

func TestCollectionReplace(t *testing.T) {
	rt := newTestRuntime()
	c := NewCollection(rt, []string{"old"})
	old := c.Peek().At(0)

	c.Replace([]string{"x", "y"})

	if got := c.Peek().Values(nil); !slices.Equal(got, []string{"x", "y"}) {
		t.Errorf("expected [x y], got %v", got)
	}
	expectGraphPanic(t, ErrDanglingNode, func() { old.Peek() })
	if rt.NodeCount() != 3 {
		t.Errorf("expected sequence plus 2 elements, got %d nodes", rt.NodeCount())
	}
}

func TestCollectionCountsStayConsistent(t *testing.T) {
	rt := newTestRuntime()
	c := NewCollection[bool](rt, nil)

	total := NewCache(rt, func(fr *Frame) int { return c.Len(fr) })
	done := NewCache(rt, func(fr *Frame) int {
		return c.Snapshot(fr).Retain(func(h Var[bool]) bool { return h.Get(fr) }).Len()
	})
	open := NewCache(rt, func(fr *Frame) int {
		return c.Snapshot(fr).Retain(func(h Var[bool]) bool { return !h.Get(fr) }).Len()
	})

	check := func(step string) {
		t.Helper()
		if done.Peek()+open.Peek() != total.Peek() {
			t.Errorf("%s: %d + %d != %d", step, done.Peek(), open.Peek(), total.Peek())
		}
	}

	for i := 0; i < 20; i++ {
		h := c.PushFrontValue(i%3 == 0)
		check("push")
		if i%4 == 0 {
			h.Update(func(b bool) bool { return !b })
			check("toggle")
		}
		if i%5 == 0 {
			_ = c.Remove(c.Len(nil) - 1)
			check("remove")
		}
	}
}
