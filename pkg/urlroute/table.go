package urlroute

import (
	"errors"
	"fmt"
)

// ErrUnknownRoute is returned when a route has no registered path.
var ErrUnknownRoute = errors.New("urlroute: route has no path")

// Entry pairs a path with the route it maps to.
type Entry[R comparable] struct {
	Path  string
	Route R
}

// Table is a bidirectional mapping between canonical paths and a closed set
// of routes. Paths that match no entry parse as the unknown route.
type Table[R comparable] struct {
	unknown R
	byPath  map[string]R
	byRoute map[R]string
	entries []Entry[R]
}

// NewTable builds a table. Entry paths are canonicalized; a duplicate path,
// a duplicate route, or an entry for the unknown route is an error.
func NewTable[R comparable](unknown R, entries ...Entry[R]) (*Table[R], error) {
	t := &Table[R]{
		unknown: unknown,
		byPath:  make(map[string]R, len(entries)),
		byRoute: make(map[R]string, len(entries)),
	}
	for _, e := range entries {
		loc, err := Canonicalize(e.Path)
		if err != nil {
			return nil, fmt.Errorf("route path %q: %w", e.Path, err)
		}
		if loc.Query != "" {
			return nil, fmt.Errorf("route path %q: query not allowed", e.Path)
		}
		if e.Route == unknown {
			return nil, fmt.Errorf("route path %q: maps to the unknown route", e.Path)
		}
		if _, dup := t.byPath[loc.Path]; dup {
			return nil, fmt.Errorf("route path %q: duplicate path", e.Path)
		}
		if _, dup := t.byRoute[e.Route]; dup {
			return nil, fmt.Errorf("route %v: duplicate route", e.Route)
		}
		t.byPath[loc.Path] = e.Route
		t.byRoute[e.Route] = loc.Path
		t.entries = append(t.entries, Entry[R]{Path: loc.Path, Route: e.Route})
	}
	return t, nil
}

// MustTable is like NewTable but panics on error. Use it for package-level
// tables.
func MustTable[R comparable](unknown R, entries ...Entry[R]) *Table[R] {
	t, err := NewTable(unknown, entries...)
	if err != nil {
		panic(err)
	}
	return t
}

// Unknown returns the fallback route.
func (t *Table[R]) Unknown() R {
	return t.unknown
}

// Entries returns the registered entries with canonical paths, in
// registration order.
func (t *Table[R]) Entries() []Entry[R] {
	out := make([]Entry[R], len(t.entries))
	copy(out, t.entries)
	return out
}

// Match returns the route for a canonical location.
func (t *Table[R]) Match(loc Location) R {
	if r, ok := t.byPath[loc.Path]; ok {
		return r
	}
	return t.unknown
}

// Parse maps a raw path or URL to its route. Malformed input parses as the
// unknown route.
func (t *Table[R]) Parse(raw string) R {
	loc, err := ParseLocation(raw)
	if err != nil {
		return t.unknown
	}
	return t.Match(loc)
}

// URL returns the canonical path for r, or ErrUnknownRoute.
func (t *Table[R]) URL(r R) (string, error) {
	path, ok := t.byRoute[r]
	if !ok {
		return "", fmt.Errorf("%w: %v", ErrUnknownRoute, r)
	}
	return path, nil
}
