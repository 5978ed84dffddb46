package urlroute

import (
	"github.com/vango-dev/cellgraph/pkg/cellgraph"
)

// Router owns the current location of an application as a variable and
// derives the current route from it with a cache, so views depend on the
// route rather than on the raw URL.
type Router[R comparable] struct {
	table *Table[R]
	loc   cellgraph.Var[Location]
	route cellgraph.Cache[R]
}

// NewRouter creates a router starting at initial. An initial value that
// fails to canonicalize starts the router at "/".
func NewRouter[R comparable](rt *cellgraph.Runtime, table *Table[R], initial string) *Router[R] {
	loc, err := ParseLocation(initial)
	if err != nil {
		rt.Logger().Warn("urlroute: invalid initial location", "url", initial, "error", err)
		loc = Location{Path: "/"}
	}
	r := &Router[R]{table: table}
	r.loc = cellgraph.NewVar(rt, loc, cellgraph.Named("url"), cellgraph.SkipEqualWrites())
	r.route = cellgraph.NewCache(rt, func(fr *cellgraph.Frame) R {
		return table.Match(r.loc.Get(fr))
	}, cellgraph.Named("route"))
	return r
}

// Table returns the route table.
func (r *Router[R]) Table() *Table[R] {
	return r.table
}

// Location returns the current location and records a dependency on it.
func (r *Router[R]) Location(fr *cellgraph.Frame) Location {
	return r.loc.Get(fr)
}

// URL returns the current location rendered as a string.
func (r *Router[R]) URL(fr *cellgraph.Frame) string {
	return r.loc.Get(fr).String()
}

// Route returns the current route and records a dependency on it.
func (r *Router[R]) Route(fr *cellgraph.Frame) R {
	return r.route.Get(fr)
}

// RouteCache exposes the route cache for callers building their own
// caches on top of it.
func (r *Router[R]) RouteCache() cellgraph.Cache[R] {
	return r.route
}

// Navigate moves to raw, a path or absolute URL. Navigating to the current
// location is not a write. Malformed input returns an error and changes
// nothing.
func (r *Router[R]) Navigate(raw string) error {
	loc, err := ParseLocation(raw)
	if err != nil {
		return err
	}
	r.loc.Set(loc)
	return nil
}

// Set moves to the path registered for route, dropping any query.
func (r *Router[R]) Set(route R) error {
	path, err := r.table.URL(route)
	if err != nil {
		return err
	}
	r.loc.Set(Location{Path: path})
	return nil
}
