package todos

import (
	"github.com/vango-dev/cellgraph/pkg/cellgraph"
)

// TodoView is a plain-value rendering of one todo.
type TodoView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Selected  bool   `json:"selected,omitempty"`
}

// View is a snapshot of everything a renderer shows. It holds no handles,
// so it can leave the runtime goroutine.
type View struct {
	URL      string     `json:"url"`
	Route    string     `json:"route"`
	Filter   string     `json:"filter"`
	Filters  []string   `json:"filters"`
	NewTitle string     `json:"newTitle"`
	Todos    []TodoView `json:"todos"`

	TotalCount     int  `json:"totalCount"`
	ActiveCount    int  `json:"activeCount"`
	CompletedCount int  `json:"completedCount"`
	TodosExist     bool `json:"todosExist"`
	CompletedExist bool `json:"completedExist"`
	AllCompleted   bool `json:"allCompleted"`

	SelectedID    string `json:"selectedId,omitempty"`
	SelectedTitle string `json:"selectedTitle,omitempty"`
}

// View reads the current state through fr. Called from a subscription, the
// subscription re-runs whenever anything shown changes.
func (m *Model) View(fr *cellgraph.Frame) View {
	v := View{
		URL:            m.URL(fr),
		Route:          m.Route(fr).String(),
		Filter:         m.SelectedFilter(fr).String(),
		NewTitle:       m.NewTitle(fr),
		TotalCount:     m.TodosCount(fr),
		ActiveCount:    m.ActiveCount(fr),
		CompletedCount: m.CompletedCount(fr),
		TodosExist:     m.TodosExist(fr),
		CompletedExist: m.CompletedExist(fr),
		AllCompleted:   m.AreAllCompleted(fr),
	}
	for _, f := range Filters() {
		v.Filters = append(v.Filters, f.String())
	}

	selected := m.SelectedTodo(fr)
	if !selected.IsZero() {
		v.SelectedID = selected.Get(fr).ID.String()
		v.SelectedTitle = m.SelectedTitle(fr)
	}

	filtered := m.FilteredTodos(fr)
	v.Todos = make([]TodoView, 0, filtered.Len())
	for _, h := range filtered.All() {
		t := h.Get(fr)
		v.Todos = append(v.Todos, TodoView{
			ID:        t.ID.String(),
			Title:     t.Title,
			Completed: t.Completed,
			Selected:  h == selected,
		})
	}
	return v
}
