// Package nav routes between the login, code and help views.
package nav

import "sync"

// Route names a view.
type Route string

const (
	RouteLogin Route = "/login"
	RouteCode  Route = "/code"
	RouteHelp  Route = "/help"
)

// Resolve maps a path to a Route. Unknown paths go to the login view.
func Resolve(path string) Route {
	switch r := Route(path); r {
	case RouteLogin, RouteCode, RouteHelp:
		return r
	default:
		return RouteLogin
	}
}

// Navigator changes the active view.
type Navigator interface {
	Navigate(to Route)
}

// Router holds the active route and notifies a single consumer of changes.
type Router struct {
	mu      sync.Mutex
	current Route
	changes chan Route
}

var _ Navigator = (*Router)(nil)

// NewRouter returns a Router positioned at initial.
func NewRouter(initial Route) *Router {
	return &Router{
		current: Resolve(string(initial)),
		changes: make(chan Route, 1),
	}
}

// Navigate makes to the active route. Navigating to the current route is
// still reported so a view can re-enter.
func (r *Router) Navigate(to Route) {
	r.mu.Lock()
	r.current = to
	r.mu.Unlock()

	// Latest wins: drop an unconsumed notification before sending.
	select {
	case <-r.changes:
	default:
	}
	select {
	case r.changes <- to:
	default:
	}
}

// Current returns the active route.
func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Changes delivers navigation events.
func (r *Router) Changes() <-chan Route {
	return r.changes
}
