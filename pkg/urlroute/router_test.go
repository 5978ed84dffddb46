package urlroute

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/vango-dev/cellgraph/pkg/cellgraph"
)

type page int

const (
	pageUnknown page = iota
	pageRoot
	pageActive
	pageCompleted
)

func testTable(t *testing.T) *Table[page] {
	t.Helper()
	table, err := NewTable(pageUnknown,
		Entry[page]{Path: "/", Route: pageRoot},
		Entry[page]{Path: "active", Route: pageActive},
		Entry[page]{Path: "/completed/", Route: pageCompleted},
	)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func TestTableRoundTrip(t *testing.T) {
	table := testTable(t)

	for _, e := range table.Entries() {
		path, err := table.URL(e.Route)
		if err != nil {
			t.Fatalf("URL(%v): %v", e.Route, err)
		}
		if got := table.Parse(path); got != e.Route {
			t.Errorf("Parse(URL(%v)) = %v", e.Route, got)
		}
	}

	if path, _ := table.URL(pageActive); path != "/active" {
		t.Errorf("URL(active) = %q, want /active", path)
	}
	if path, _ := table.URL(pageCompleted); path != "/completed" {
		t.Errorf("URL(completed) = %q, want /completed", path)
	}
}

func TestTableParse(t *testing.T) {
	table := testTable(t)

	tests := map[string]page{
		"":                           pageRoot,
		"/":                          pageRoot,
		"/active/":                   pageActive,
		"/completed?x=1":             pageCompleted,
		"http://localhost/completed": pageCompleted,
		"/archived":                  pageUnknown,
		"/../etc":                    pageUnknown,
		"/a\\b":                      pageUnknown,
	}
	for input, want := range tests {
		if got := table.Parse(input); got != want {
			t.Errorf("Parse(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestTableUnknownRouteHasNoURL(t *testing.T) {
	table := testTable(t)
	if _, err := table.URL(pageUnknown); !errors.Is(err, ErrUnknownRoute) {
		t.Errorf("URL(unknown) error = %v, want %v", err, ErrUnknownRoute)
	}
}

func TestNewTableRejects(t *testing.T) {
	tests := map[string][]Entry[page]{
		"duplicate path":  {{Path: "/a", Route: pageActive}, {Path: "/a/", Route: pageCompleted}},
		"duplicate route": {{Path: "/a", Route: pageActive}, {Path: "/b", Route: pageActive}},
		"unknown route":   {{Path: "/a", Route: pageUnknown}},
		"bad path":        {{Path: "/../a", Route: pageActive}},
		"query":           {{Path: "/a?x=1", Route: pageActive}},
	}
	for name, entries := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewTable(pageUnknown, entries...); err == nil {
				t.Error("NewTable succeeded, want error")
			}
		})
	}
}

func TestMustTablePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustTable did not panic")
		}
	}()
	MustTable(pageUnknown, Entry[page]{Path: "/a", Route: pageUnknown})
}

func newTestRouter(t *testing.T, initial string) (*cellgraph.Runtime, *Router[page]) {
	t.Helper()
	rt := cellgraph.New(cellgraph.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return rt, NewRouter(rt, testTable(t), initial)
}

func TestRouterNavigate(t *testing.T) {
	rt, r := newTestRouter(t, "http://localhost:8000/active")

	var seen []page
	cellgraph.Subscribe(rt, func(fr *cellgraph.Frame) {
		seen = append(seen, r.Route(fr))
	})

	if err := r.Navigate("/completed/"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if got := r.URL(nil); got != "/completed" {
		t.Errorf("URL = %q, want /completed", got)
	}
	if err := r.Navigate("/nowhere"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	want := []page{pageActive, pageCompleted, pageUnknown}
	if len(seen) != len(want) {
		t.Fatalf("routes seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("routes seen = %v, want %v", seen, want)
			break
		}
	}
}

func TestRouterNavigateSameLocationIsNotAWrite(t *testing.T) {
	rt, r := newTestRouter(t, "/active")

	runs := 0
	cellgraph.Subscribe(rt, func(fr *cellgraph.Frame) {
		r.Location(fr)
		runs++
	})

	if err := r.Navigate("/active/"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
}

func TestRouterNavigateInvalid(t *testing.T) {
	_, r := newTestRouter(t, "/active")

	if err := r.Navigate("/a\\b"); err != ErrBackslashInPath {
		t.Errorf("Navigate error = %v, want %v", err, ErrBackslashInPath)
	}
	if got := r.Route(nil); got != pageActive {
		t.Errorf("route = %v, want active", got)
	}
}

func TestRouterSet(t *testing.T) {
	_, r := newTestRouter(t, "/active?page=2")

	if err := r.Set(pageRoot); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := r.URL(nil); got != "/" {
		t.Errorf("URL = %q, want /", got)
	}
	if err := r.Set(pageUnknown); !errors.Is(err, ErrUnknownRoute) {
		t.Errorf("Set(unknown) error = %v, want %v", err, ErrUnknownRoute)
	}
}

func TestRouterInvalidInitial(t *testing.T) {
	_, r := newTestRouter(t, "/../x")
	if got := r.Route(nil); got != pageRoot {
		t.Errorf("route = %v, want root", got)
	}
}
