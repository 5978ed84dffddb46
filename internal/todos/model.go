// Package todos is the todo list application model. State lives in
// cellgraph variables; derived values are caches; saving is a subscription.
// Every exported mutator is one named transaction.
package todos

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/vango-dev/cellgraph/pkg/cellgraph"
	"github.com/vango-dev/cellgraph/pkg/persist"
	"github.com/vango-dev/cellgraph/pkg/urlroute"
)

type options struct {
	ctx    context.Context
	store  persist.Store
	key    string
	url    string
	logger *slog.Logger
}

// Option configures New.
type Option func(*options)

// WithStore loads the list from store and saves it after every change.
// Without a store the list lives only in memory.
func WithStore(store persist.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithStorageKey overrides StorageKey.
func WithStorageKey(key string) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithURL sets the initial location. Default: "/".
func WithURL(url string) Option {
	return func(o *options) {
		o.url = url
	}
}

// WithLogger sets the model logger. Default: the runtime logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithContext sets the context used for loading and saving.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// Model is the todo list. It must only be used from the goroutine that
// owns its runtime.
type Model struct {
	rt      *cellgraph.Runtime
	logger  *slog.Logger
	router  *urlroute.Router[Route]
	binding *persist.Binding

	todos         *cellgraph.Collection[Todo]
	newTitle      cellgraph.Var[string]
	selected      cellgraph.Var[cellgraph.Var[Todo]]
	selectedTitle cellgraph.Var[string]

	filter          cellgraph.Cache[Filter]
	todosCount      cellgraph.Cache[int]
	todosExist      cellgraph.Cache[bool]
	completed       cellgraph.Cache[cellgraph.Vector[Todo]]
	completedCount  cellgraph.Cache[int]
	completedExist  cellgraph.Cache[bool]
	areAllCompleted cellgraph.Cache[bool]
	active          cellgraph.Cache[cellgraph.Vector[Todo]]
	activeCount     cellgraph.Cache[int]
	filtered        cellgraph.Cache[cellgraph.Vector[Todo]]
}

// New builds the model on rt, restoring saved todos when a store is given.
// It fails only when the store cannot be read.
func New(rt *cellgraph.Runtime, opts ...Option) (*Model, error) {
	o := &options{
		ctx: context.Background(),
		key: StorageKey,
		url: "/",
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = rt.Logger()
	}

	var initial []Todo
	if o.store != nil {
		var err error
		initial, err = persist.LoadValues[Todo](o.ctx, o.store, o.key, o.logger)
		if err != nil {
			return nil, err
		}
	}

	m := &Model{
		rt:     rt,
		logger: o.logger,
		router: urlroute.NewRouter(rt, Routes, o.url),
		todos: cellgraph.NewCollection(rt, initial,
			cellgraph.WithCollectionName("todos"),
			cellgraph.TouchOnElementWrite(),
		),
		newTitle: cellgraph.NewVar(rt, "", cellgraph.Named("new_todo_title"), cellgraph.SkipEqualWrites()),
		selected: cellgraph.NewVar(rt, cellgraph.Var[Todo]{},
			cellgraph.Named("selected_todo"),
			cellgraph.WithEquals(func(a, b cellgraph.Var[Todo]) bool { return a == b }),
		),
		selectedTitle: cellgraph.NewVar(rt, "", cellgraph.Named("selected_todo_title"), cellgraph.SkipEqualWrites()),
	}
	m.buildCaches()

	if o.store != nil {
		m.binding = persist.Bind(m.todos, o.store, o.key,
			persist.WithContext(o.ctx),
			persist.WithLogger(o.logger),
		)
	}
	return m, nil
}

func (m *Model) buildCaches() {
	rt := m.rt

	m.filter = cellgraph.NewCache(rt, func(fr *cellgraph.Frame) Filter {
		return filterFor(m.router.Route(fr))
	}, cellgraph.Named("selected_filter"))

	m.todosCount = cellgraph.NewCache(rt, func(fr *cellgraph.Frame) int {
		return m.todos.Len(fr)
	}, cellgraph.Named("todos_count"))

	m.todosExist = cellgraph.NewCache(rt, func(fr *cellgraph.Frame) bool {
		return m.todosCount.Get(fr) != 0
	}, cellgraph.Named("todos_exist"))

	m.completed = cellgraph.NewCache(rt, func(fr *cellgraph.Frame) cellgraph.Vector[Todo] {
		return m.todos.Snapshot(fr).Retain(func(h cellgraph.Var[Todo]) bool {
			return h.Get(fr).Completed
		})
	}, cellgraph.Named("completed_todos"))

	m.completedCount = cellgraph.NewCache(rt, func(fr *cellgraph.Frame) int {
		return m.completed.Get(fr).Len()
	}, cellgraph.Named("completed_count"))

	m.completedExist = cellgraph.NewCache(rt, func(fr *cellgraph.Frame) bool {
		return m.completedCount.Get(fr) != 0
	}, cellgraph.Named("completed_exist"))

	m.areAllCompleted = cellgraph.NewCache(rt, func(fr *cellgraph.Frame) bool {
		return m.todosCount.Get(fr) == m.completedCount.Get(fr)
	}, cellgraph.Named("are_all_completed"))

	m.active = cellgraph.NewCache(rt, func(fr *cellgraph.Frame) cellgraph.Vector[Todo] {
		return m.todos.Snapshot(fr).Retain(func(h cellgraph.Var[Todo]) bool {
			return !h.Get(fr).Completed
		})
	}, cellgraph.Named("active_todos"))

	m.activeCount = cellgraph.NewCache(rt, func(fr *cellgraph.Frame) int {
		return m.active.Get(fr).Len()
	}, cellgraph.Named("active_count"))

	m.filtered = cellgraph.NewCache(rt, func(fr *cellgraph.Frame) cellgraph.Vector[Todo] {
		switch m.filter.Get(fr) {
		case FilterActive:
			return m.active.Get(fr)
		case FilterCompleted:
			return m.completed.Get(fr)
		default:
			return m.todos.Snapshot(fr)
		}
	}, cellgraph.Named("filtered_todos"))
}

// update runs fn as one named transaction. Graph errors propagate as
// panics to the enclosing Tx, which turns them into errors.
func (m *Model) update(name string, fn func()) {
	if err := m.rt.TxNamed(name, fn); err != nil {
		panic(err)
	}
}

// Runtime returns the runtime the model lives on.
func (m *Model) Runtime() *cellgraph.Runtime {
	return m.rt
}

// Collection returns the todo collection.
func (m *Model) Collection() *cellgraph.Collection[Todo] {
	return m.todos
}

// Binding returns the persistence binding, or nil without a store.
func (m *Model) Binding() *persist.Binding {
	return m.binding
}

// Close stops saving. The model stays usable in memory.
func (m *Model) Close() {
	if m.binding != nil {
		m.binding.Close()
	}
}

// ------ Route ------

// Route returns the current route.
func (m *Model) Route(fr *cellgraph.Frame) Route {
	return m.router.Route(fr)
}

// URL returns the current location.
func (m *Model) URL(fr *cellgraph.Frame) string {
	return m.router.URL(fr)
}

// SetRoute moves to the URL of r.
func (m *Model) SetRoute(r Route) error {
	var err error
	m.update("set_route", func() {
		err = m.router.Set(r)
	})
	return err
}

// Navigate moves to a URL. Unknown paths select RouteUnknown.
func (m *Model) Navigate(url string) error {
	var err error
	m.update("navigate", func() {
		err = m.router.Navigate(url)
	})
	return err
}

// SelectedFilter returns the filter implied by the route.
func (m *Model) SelectedFilter(fr *cellgraph.Frame) Filter {
	return m.filter.Get(fr)
}

// ------ Selection ------

// SelectedTodo returns the selected todo, or the zero handle.
func (m *Model) SelectedTodo(fr *cellgraph.Frame) cellgraph.Var[Todo] {
	return m.selected.Get(fr)
}

// SelectTodo selects h for editing and copies its title into the edit
// buffer. The zero handle clears the selection.
func (m *Model) SelectTodo(h cellgraph.Var[Todo]) {
	m.update("select_todo", func() {
		m.selected.Set(h)
		if h.IsZero() {
			m.selectedTitle.Set("")
			return
		}
		m.selectedTitle.Set(h.Peek().Title)
	})
}

// SelectedTitle returns the edit buffer of the selected todo.
func (m *Model) SelectedTitle(fr *cellgraph.Frame) string {
	return m.selectedTitle.Get(fr)
}

// SetSelectedTitle replaces the edit buffer.
func (m *Model) SetSelectedTitle(title string) {
	m.update("set_selected_todo_title", func() {
		m.selectedTitle.Set(title)
	})
}

// SaveSelectedTodo takes the edit buffer and the selection, clearing both,
// and writes the title to the selected todo. Without a selection it only
// clears the buffer.
func (m *Model) SaveSelectedTodo() {
	m.update("save_selected_todo", func() {
		title := m.selectedTitle.Peek()
		h := m.selected.Peek()
		m.selectedTitle.Set("")
		m.selected.Set(cellgraph.Var[Todo]{})
		if h.IsZero() {
			return
		}
		h.Update(func(t Todo) Todo {
			t.Title = title
			return t
		})
	})
}

// ------ Todos ------

// NewTitle returns the new-todo input.
func (m *Model) NewTitle(fr *cellgraph.Frame) string {
	return m.newTitle.Get(fr)
}

// SetNewTitle replaces the new-todo input.
func (m *Model) SetNewTitle(title string) {
	m.update("set_new_todo_title", func() {
		m.newTitle.Set(title)
	})
}

// AddTodo adds the trimmed new-todo input at the head of the list and
// clears the input. A blank input adds nothing and returns the zero handle.
func (m *Model) AddTodo() cellgraph.Var[Todo] {
	var h cellgraph.Var[Todo]
	m.update("add_todo", func() {
		title := strings.TrimSpace(m.newTitle.Peek())
		if title == "" {
			return
		}
		m.newTitle.Set("")
		h = m.todos.PushFrontValue(Todo{ID: NewID(), Title: title})
		m.logger.Debug("todos: added", "id", h.Peek().ID, "title", title)
	})
	return h
}

// Add sets the new-todo input to title and adds it.
func (m *Model) Add(title string) cellgraph.Var[Todo] {
	var h cellgraph.Var[Todo]
	m.update("add", func() {
		m.newTitle.Set(title)
		h = m.AddTodo()
	})
	return h
}

// RemoveTodo removes h, clearing the selection if h was selected. It
// reports false when h is not in the list.
func (m *Model) RemoveTodo(h cellgraph.Var[Todo]) bool {
	var removed bool
	m.update("remove_todo", func() {
		if m.selected.Peek() == h {
			m.selected.Set(cellgraph.Var[Todo]{})
			m.selectedTitle.Set("")
		}
		removed = m.todos.RemoveVar(h)
	})
	return removed
}

// ToggleTodo flips the completed flag of h.
func (m *Model) ToggleTodo(h cellgraph.Var[Todo]) {
	m.update("toggle_todo", func() {
		h.Update(func(t Todo) Todo {
			t.Completed = !t.Completed
			return t
		})
	})
}

// CheckOrUncheckAll completes every active todo, or, when all are already
// completed, reopens them all. Dependents see only the final state.
func (m *Model) CheckOrUncheckAll() {
	m.update("check_or_uncheck_all", func() {
		m.rt.Stop(func() {
			targets := m.active.Peek()
			if m.areAllCompleted.Peek() {
				targets = m.todos.Peek()
			}
			for _, h := range targets.All() {
				m.ToggleTodo(h)
			}
		})
	})
}

// RemoveCompleted removes every completed todo. Dependents see only the
// final state.
func (m *Model) RemoveCompleted() int {
	removed := 0
	m.update("remove_completed", func() {
		m.rt.Stop(func() {
			for _, h := range m.completed.Peek().Handles() {
				if m.RemoveTodo(h) {
					removed++
				}
			}
		})
	})
	return removed
}

// Find returns the todo with id.
func (m *Model) Find(id uuid.UUID) (cellgraph.Var[Todo], bool) {
	for _, h := range m.todos.Peek().All() {
		if h.Peek().ID == id {
			return h, true
		}
	}
	return cellgraph.Var[Todo]{}, false
}

// ToggleByID toggles the todo with id.
func (m *Model) ToggleByID(id uuid.UUID) error {
	h, ok := m.Find(id)
	if !ok {
		return ErrTodoNotFound
	}
	m.ToggleTodo(h)
	return nil
}

// RemoveByID removes the todo with id.
func (m *Model) RemoveByID(id uuid.UUID) error {
	h, ok := m.Find(id)
	if !ok {
		return ErrTodoNotFound
	}
	m.RemoveTodo(h)
	return nil
}

// SelectByID selects the todo with id.
func (m *Model) SelectByID(id uuid.UUID) error {
	h, ok := m.Find(id)
	if !ok {
		return ErrTodoNotFound
	}
	m.SelectTodo(h)
	return nil
}

// RenameByID selects the todo with id and saves title as its new title.
func (m *Model) RenameByID(id uuid.UUID, title string) error {
	h, ok := m.Find(id)
	if !ok {
		return ErrTodoNotFound
	}
	m.update("rename_todo", func() {
		m.SelectTodo(h)
		m.SetSelectedTitle(title)
		m.SaveSelectedTodo()
	})
	return nil
}

// ------ Derived values ------

// Todos returns the whole list.
func (m *Model) Todos(fr *cellgraph.Frame) cellgraph.Vector[Todo] {
	return m.todos.Snapshot(fr)
}

// TodosCount returns the number of todos.
func (m *Model) TodosCount(fr *cellgraph.Frame) int {
	return m.todosCount.Get(fr)
}

// TodosExist reports whether the list is non-empty.
func (m *Model) TodosExist(fr *cellgraph.Frame) bool {
	return m.todosExist.Get(fr)
}

// CompletedCount returns the number of completed todos.
func (m *Model) CompletedCount(fr *cellgraph.Frame) int {
	return m.completedCount.Get(fr)
}

// CompletedExist reports whether any todo is completed.
func (m *Model) CompletedExist(fr *cellgraph.Frame) bool {
	return m.completedExist.Get(fr)
}

// AreAllCompleted reports whether every todo is completed. It is true for
// an empty list.
func (m *Model) AreAllCompleted(fr *cellgraph.Frame) bool {
	return m.areAllCompleted.Get(fr)
}

// ActiveCount returns the number of todos not yet completed.
func (m *Model) ActiveCount(fr *cellgraph.Frame) int {
	return m.activeCount.Get(fr)
}

// CompletedTodos returns the completed todos in list order.
func (m *Model) CompletedTodos(fr *cellgraph.Frame) cellgraph.Vector[Todo] {
	return m.completed.Get(fr)
}

// ActiveTodos returns the active todos in list order.
func (m *Model) ActiveTodos(fr *cellgraph.Frame) cellgraph.Vector[Todo] {
	return m.active.Get(fr)
}

// FilteredTodos returns the todos shown under the selected filter.
func (m *Model) FilteredTodos(fr *cellgraph.Frame) cellgraph.Vector[Todo] {
	return m.filtered.Get(fr)
}
