package todos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/cellgraph/pkg/cellgraph"
)

func TestView(t *testing.T) {
	m := newTestModel(t, WithURL("http://localhost:8080/active"))
	a := m.Add("a")
	b := m.Add("b")
	m.ToggleTodo(a)
	m.SelectTodo(b)
	m.SetNewTitle("draft")

	v := m.View(nil)
	assert.Equal(t, "/active", v.URL)
	assert.Equal(t, "active", v.Route)
	assert.Equal(t, "active", v.Filter)
	assert.Equal(t, []string{"all", "active", "completed"}, v.Filters)
	assert.Equal(t, "draft", v.NewTitle)
	assert.Equal(t, 2, v.TotalCount)
	assert.Equal(t, 1, v.ActiveCount)
	assert.Equal(t, 1, v.CompletedCount)
	assert.True(t, v.TodosExist)
	assert.True(t, v.CompletedExist)
	assert.False(t, v.AllCompleted)
	assert.Equal(t, b.Peek().ID.String(), v.SelectedID)
	assert.Equal(t, "b", v.SelectedTitle)

	require.Len(t, v.Todos, 1)
	assert.Equal(t, TodoView{ID: b.Peek().ID.String(), Title: "b", Selected: true}, v.Todos[0])
}

func TestViewSubscriptionTracksChanges(t *testing.T) {
	m := newTestModel(t)

	var views []View
	cellgraph.Subscribe(m.Runtime(), func(fr *cellgraph.Frame) {
		views = append(views, m.View(fr))
	})

	h := m.Add("a")
	m.ToggleTodo(h)
	require.NoError(t, m.Navigate("/completed"))
	m.RemoveTodo(h)

	require.Len(t, views, 5)
	assert.Empty(t, views[0].Todos)
	assert.Equal(t, "a", views[1].Todos[0].Title)
	assert.True(t, views[2].Todos[0].Completed)
	assert.Equal(t, "completed", views[3].Filter)
	assert.Len(t, views[3].Todos, 1)
	assert.Empty(t, views[4].Todos)
	assert.False(t, views[4].TodosExist)
}

func TestRoutesAndFilters(t *testing.T) {
	for _, f := range Filters() {
		got, ok := ParseFilter(f.String())
		assert.True(t, ok)
		assert.Equal(t, f, got)
		assert.Equal(t, f, filterFor(f.Route()))

		path, err := Routes.URL(f.Route())
		require.NoError(t, err)
		assert.Equal(t, f.Route(), Routes.Parse(path))
	}

	_, ok := ParseFilter("archived")
	assert.False(t, ok)
	assert.Equal(t, "unknown", RouteUnknown.String())
}
