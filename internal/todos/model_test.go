package todos

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/cellgraph/pkg/cellgraph"
	"github.com/vango-dev/cellgraph/pkg/persist"
)

func newTestModel(t *testing.T, opts ...Option) *Model {
	t.Helper()
	rt := cellgraph.New(cellgraph.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	m, err := New(rt, opts...)
	require.NoError(t, err)
	return m
}

func titles(v cellgraph.Vector[Todo]) []string {
	out := []string{}
	for _, t := range v.Values(nil) {
		out = append(out, t.Title)
	}
	return out
}

func assertCounts(t *testing.T, m *Model) {
	t.Helper()
	assert.Equal(t, m.TodosCount(nil), m.CompletedCount(nil)+m.ActiveCount(nil),
		"completed + active must equal total")
	assert.Equal(t, m.CompletedCount(nil) > 0, m.CompletedExist(nil))
}

func TestAddPushesFront(t *testing.T) {
	m := newTestModel(t)

	m.Add("a")
	m.Add("b")

	assert.Equal(t, []string{"b", "a"}, titles(m.Todos(nil)))
	assert.Equal(t, 2, m.TodosCount(nil))
	assert.True(t, m.TodosExist(nil))
}

func TestAddTodoTrimsAndClearsInput(t *testing.T) {
	m := newTestModel(t)

	m.SetNewTitle("   ")
	assert.True(t, m.AddTodo().IsZero(), "blank title adds nothing")
	assert.Equal(t, "   ", m.NewTitle(nil), "blank input is left alone")

	m.SetNewTitle("  buy milk ")
	h := m.AddTodo()
	require.False(t, h.IsZero())
	assert.Equal(t, "buy milk", h.Peek().Title)
	assert.False(t, h.Peek().Completed)
	assert.NotEqual(t, [16]byte{}, [16]byte(h.Peek().ID))
	assert.Equal(t, "", m.NewTitle(nil))
}

func TestCountsStayConsistent(t *testing.T) {
	m := newTestModel(t)
	assertCounts(t, m)

	a := m.Add("a")
	b := m.Add("b")
	m.Add("c")
	assertCounts(t, m)

	m.ToggleTodo(a)
	assertCounts(t, m)
	assert.Equal(t, 1, m.CompletedCount(nil))
	assert.Equal(t, 2, m.ActiveCount(nil))

	m.ToggleTodo(b)
	m.RemoveTodo(a)
	assertCounts(t, m)
	assert.Equal(t, 2, m.TodosCount(nil))

	m.CheckOrUncheckAll()
	assertCounts(t, m)
	assert.Equal(t, 0, m.ActiveCount(nil))

	m.RemoveCompleted()
	assertCounts(t, m)
	assert.Equal(t, 0, m.TodosCount(nil))
	assert.False(t, m.TodosExist(nil))
}

func TestCheckOrUncheckAll(t *testing.T) {
	m := newTestModel(t)
	a := m.Add("a")
	m.Add("b")
	m.Add("c")
	m.ToggleTodo(a)

	m.CheckOrUncheckAll()
	assert.True(t, m.AreAllCompleted(nil))
	assert.Equal(t, 3, m.CompletedCount(nil))

	m.CheckOrUncheckAll()
	assert.False(t, m.AreAllCompleted(nil))
	assert.Equal(t, 3, m.ActiveCount(nil))

	m.CheckOrUncheckAll()
	assert.True(t, m.AreAllCompleted(nil))
	m.Add("d")
	assert.False(t, m.AreAllCompleted(nil))
}

func TestBulkUpdatesNotifyOnce(t *testing.T) {
	m := newTestModel(t)
	for _, title := range []string{"a", "b", "c", "d"} {
		m.Add(title)
	}

	var seen []int
	cellgraph.Subscribe(m.Runtime(), func(fr *cellgraph.Frame) {
		seen = append(seen, m.CompletedCount(fr))
	})

	m.CheckOrUncheckAll()
	m.RemoveCompleted()

	assert.Equal(t, []int{0, 4, 0}, seen, "each bulk update is observed once, at its end state")
}

func TestSelection(t *testing.T) {
	m := newTestModel(t)
	a := m.Add("a")
	b := m.Add("b")

	m.SelectTodo(a)
	assert.Equal(t, a, m.SelectedTodo(nil))
	assert.Equal(t, "a", m.SelectedTitle(nil))

	m.SetSelectedTitle("renamed")
	m.SaveSelectedTodo()
	assert.Equal(t, "renamed", a.Peek().Title)
	assert.True(t, m.SelectedTodo(nil).IsZero())
	assert.Equal(t, "", m.SelectedTitle(nil))

	m.SelectTodo(b)
	m.SelectTodo(cellgraph.Var[Todo]{})
	assert.True(t, m.SelectedTodo(nil).IsZero())

	m.SaveSelectedTodo()
	assert.Equal(t, "b", b.Peek().Title, "saving without a selection changes nothing")
}

func TestRemovingSelectedClearsSelection(t *testing.T) {
	m := newTestModel(t)
	a := m.Add("a")
	b := m.Add("b")

	m.SelectTodo(a)
	require.True(t, m.RemoveTodo(a))
	assert.True(t, m.SelectedTodo(nil).IsZero())
	assert.False(t, m.RemoveTodo(a), "a removed todo is not in the list")

	m.SelectTodo(b)
	m.ToggleTodo(b)
	assert.Equal(t, 1, m.RemoveCompleted())
	assert.True(t, m.SelectedTodo(nil).IsZero())
	assert.Equal(t, 0, m.TodosCount(nil))
}

func TestRemovingOtherKeepsSelection(t *testing.T) {
	m := newTestModel(t)
	a := m.Add("a")
	b := m.Add("b")

	m.SelectTodo(a)
	m.RemoveTodo(b)
	assert.Equal(t, a, m.SelectedTodo(nil))
}

func TestFiltersFollowRoute(t *testing.T) {
	m := newTestModel(t)
	a := m.Add("a")
	m.Add("b")
	m.ToggleTodo(a)

	assert.Equal(t, FilterAll, m.SelectedFilter(nil))
	assert.Equal(t, []string{"b", "a"}, titles(m.FilteredTodos(nil)))

	require.NoError(t, m.Navigate("/active"))
	assert.Equal(t, RouteActive, m.Route(nil))
	assert.Equal(t, FilterActive, m.SelectedFilter(nil))
	assert.Equal(t, []string{"b"}, titles(m.FilteredTodos(nil)))

	require.NoError(t, m.SetRoute(RouteCompleted))
	assert.Equal(t, "/completed", m.URL(nil))
	assert.Equal(t, []string{"a"}, titles(m.FilteredTodos(nil)))

	m.ToggleTodo(a)
	assert.Empty(t, titles(m.FilteredTodos(nil)))

	require.NoError(t, m.Navigate("/archive"))
	assert.Equal(t, RouteUnknown, m.Route(nil))
	assert.Equal(t, FilterAll, m.SelectedFilter(nil))

	assert.Error(t, m.SetRoute(RouteUnknown))
}

func TestCacheReadTwiceRecomputesOnce(t *testing.T) {
	m := newTestModel(t)
	m.Add("a")

	m.TodosCount(nil)
	m.TodosCount(nil)
	assert.Equal(t, uint64(1), m.todosCount.Recomputes())
}

func TestDiamondRecomputesOnce(t *testing.T) {
	m := newTestModel(t)
	a := m.Add("a")
	m.Add("b")

	m.AreAllCompleted(nil)
	before := m.areAllCompleted.Recomputes()

	// todos_count and completed_count both reach are_all_completed.
	m.ToggleTodo(a)
	m.AreAllCompleted(nil)
	assert.Equal(t, before+1, m.areAllCompleted.Recomputes())
}

func TestByID(t *testing.T) {
	m := newTestModel(t)
	a := m.Add("a")
	id := a.Peek().ID

	found, ok := m.Find(id)
	require.True(t, ok)
	assert.Equal(t, a, found)

	require.NoError(t, m.ToggleByID(id))
	assert.True(t, a.Peek().Completed)

	require.NoError(t, m.RenameByID(id, "A"))
	assert.Equal(t, "A", a.Peek().Title)

	require.NoError(t, m.SelectByID(id))
	assert.Equal(t, a, m.SelectedTodo(nil))

	require.NoError(t, m.RemoveByID(id))
	assert.True(t, m.SelectedTodo(nil).IsZero())

	missing := NewID()
	assert.ErrorIs(t, m.ToggleByID(missing), ErrTodoNotFound)
	assert.ErrorIs(t, m.RemoveByID(missing), ErrTodoNotFound)
	assert.ErrorIs(t, m.SelectByID(missing), ErrTodoNotFound)
	assert.ErrorIs(t, m.RenameByID(missing, "x"), ErrTodoNotFound)
}

func TestPersistenceSavesOncePerUpdate(t *testing.T) {
	store := persist.NewMemoryStore()
	m := newTestModel(t, WithStore(store))
	require.NotNil(t, m.Binding())
	assert.Equal(t, 0, m.Binding().Saves())

	m.Add("a")
	assert.Equal(t, 1, m.Binding().Saves())

	m.Add("b")
	m.Add("c")
	m.CheckOrUncheckAll()
	assert.Equal(t, 4, m.Binding().Saves())

	m.RemoveCompleted()
	assert.Equal(t, 5, m.Binding().Saves())

	m.SetNewTitle("draft")
	m.SelectTodo(cellgraph.Var[Todo]{})
	assert.Equal(t, 5, m.Binding().Saves(), "edits outside the list do not save")

	m.Close()
	m.Add("d")
	assert.Equal(t, 5, m.Binding().Saves())
}

func TestPersistenceRoundTrip(t *testing.T) {
	store := persist.NewMemoryStore()

	first := newTestModel(t, WithStore(store))
	a := first.Add("a")
	first.Add("b")
	first.ToggleTodo(a)
	want := first.Todos(nil).Values(nil)

	second := newTestModel(t, WithStore(store))
	assert.Equal(t, want, second.Todos(nil).Values(nil))
	assert.Equal(t, 1, second.CompletedCount(nil))

	_, ok := second.Find(a.Peek().ID)
	assert.True(t, ok)
}

func TestCorruptStorageStartsEmpty(t *testing.T) {
	store := persist.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), StorageKey, []byte("{oops")))

	m := newTestModel(t, WithStore(store))
	assert.Equal(t, 0, m.TodosCount(nil))

	m.Add("fresh")
	values, err := persist.LoadValues[Todo](context.Background(), store, StorageKey, nil)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "fresh", values[0].Title)
}

func TestStorageKeyOption(t *testing.T) {
	store := persist.NewMemoryStore()
	m := newTestModel(t, WithStore(store), WithStorageKey("other"))
	m.Add("a")

	values, err := persist.LoadValues[Todo](context.Background(), store, StorageKey, nil)
	require.NoError(t, err)
	assert.Nil(t, values)

	values, err = persist.LoadValues[Todo](context.Background(), store, "other", nil)
	require.NoError(t, err)
	assert.Len(t, values, 1)
}

func TestUnreadableStoreFailsNew(t *testing.T) {
	store := persist.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), StorageKey, []byte(`{"version":1,"items":[]}`)))
	require.NoError(t, store.Close())

	rt := cellgraph.New(cellgraph.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	m, err := New(rt, WithStore(store))
	var closed persist.ErrStoreClosed
	require.ErrorAs(t, err, &closed)
	assert.Nil(t, m)
}
