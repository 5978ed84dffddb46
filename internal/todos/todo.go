package todos

import (
	"errors"

	"github.com/google/uuid"
	"github.com/vango-dev/cellgraph/pkg/urlroute"
)

// StorageKey is the store key the todo list is saved under.
const StorageKey = "todos-cellgraph"

// ErrTodoNotFound is returned by id-based operations when no todo has the
// given id.
var ErrTodoNotFound = errors.New("todos: todo not found")

// Todo is one entry of the list. Its value lives in a cellgraph variable;
// the id is stable across saves and restarts.
type Todo struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
}

// NewID returns a time-ordered id for a new todo.
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// Route is a page of the application.
type Route int

const (
	RouteUnknown Route = iota
	RouteRoot
	RouteActive
	RouteCompleted
)

func (r Route) String() string {
	switch r {
	case RouteRoot:
		return "root"
	case RouteActive:
		return "active"
	case RouteCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Routes maps URLs to routes.
var Routes = urlroute.MustTable(RouteUnknown,
	urlroute.Entry[Route]{Path: "/", Route: RouteRoot},
	urlroute.Entry[Route]{Path: "/active", Route: RouteActive},
	urlroute.Entry[Route]{Path: "/completed", Route: RouteCompleted},
)

// Filter selects which todos are listed.
type Filter int

const (
	FilterAll Filter = iota
	FilterActive
	FilterCompleted
)

func (f Filter) String() string {
	switch f {
	case FilterActive:
		return "active"
	case FilterCompleted:
		return "completed"
	default:
		return "all"
	}
}

// Route returns the route that selects f.
func (f Filter) Route() Route {
	switch f {
	case FilterActive:
		return RouteActive
	case FilterCompleted:
		return RouteCompleted
	default:
		return RouteRoot
	}
}

// Filters lists every filter in display order.
func Filters() []Filter {
	return []Filter{FilterAll, FilterActive, FilterCompleted}
}

// ParseFilter maps a filter name back to its value.
func ParseFilter(s string) (Filter, bool) {
	for _, f := range Filters() {
		if f.String() == s {
			return f, true
		}
	}
	return FilterAll, false
}

func filterFor(r Route) Filter {
	switch r {
	case RouteActive:
		return FilterActive
	case RouteCompleted:
		return FilterCompleted
	default:
		return FilterAll
	}
}
