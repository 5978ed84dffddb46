// Package urlroute maps URLs to a closed set of application routes and
// keeps the current route in a cellgraph variable.
//
//	table := urlroute.MustTable(RouteUnknown,
//	    urlroute.Entry[Route]{Path: "/", Route: RouteRoot},
//	    urlroute.Entry[Route]{Path: "/active", Route: RouteActive},
//	)
//	router := urlroute.NewRouter(rt, table, "/")
//	router.Navigate("/active")
//
// Paths are canonicalized before matching, so "/active/" and "//active"
// resolve to the same route. Anything that does not match parses as the
// unknown route.
package urlroute
