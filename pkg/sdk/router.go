package sdk

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-hclog"
)

// ErrRedirectLoop is returned when a navigation does not settle on a view.
var ErrRedirectLoop = errors.New("navigation redirect loop")

const maxRedirects = 8

// Route is a navigable view and its static metadata.
type Route struct {
	Name    string
	Pattern string
	// RequiresAuth marks views only an authenticated session may enter.
	RequiresAuth bool
	// Redirect, when set, forwards the view to another path before the guard runs.
	Redirect string
}

// DefaultRoutes returns the application's view table.
func DefaultRoutes() []Route {
	return []Route{
		{Name: "Root", Pattern: "/", Redirect: DefaultHomePath},
		{Name: "Login", Pattern: DefaultLoginPath},
		{Name: "Dashboard", Pattern: DefaultHomePath, RequiresAuth: true},
		{Name: "Racers", Pattern: "/racers", RequiresAuth: true},
		{Name: "RacerDetail", Pattern: "/racers/{id}", RequiresAuth: true},
		{Name: "Races", Pattern: "/races", RequiresAuth: true},
		{Name: "RaceDetail", Pattern: "/races/{id}", RequiresAuth: true},
		{Name: "Reports", Pattern: "/reports", RequiresAuth: true},
		{Name: "NotFound", Pattern: "/*"},
	}
}

// Navigation is the settled result of Router.Navigate.
type Navigation struct {
	Requested string
	Path      string
	Route     Route
	Params    map[string]string
	// Redirects lists the intermediate paths visited, in order.
	Redirects []string
}

// Router resolves paths to routes and runs every transition through a Guard.
type Router struct {
	mux    *chi.Mux
	routes map[string]Route
	guard  *Guard
	logger hclog.Logger

	mu      sync.RWMutex
	current string
}

var _ Navigator = (*Router)(nil)

// NewRouter builds a Router over routes. Patterns use chi syntax.
func NewRouter(guard *Guard, routes []Route, logger hclog.Logger) (*Router, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	r := &Router{
		mux:    chi.NewRouter(),
		routes: make(map[string]Route, len(routes)),
		guard:  guard,
		logger: logger,
	}
	for _, route := range routes {
		if _, dup := r.routes[route.Pattern]; dup {
			return nil, fmt.Errorf("duplicate route pattern %q", route.Pattern)
		}
		if err := r.register(route); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Router) register(route Route) (err error) {
	defer func() {
		// chi panics on malformed patterns
		if p := recover(); p != nil {
			err = fmt.Errorf("invalid route pattern %q: %v", route.Pattern, p)
		}
	}()
	r.mux.Get(route.Pattern, http.NotFound)
	r.routes[route.Pattern] = route
	return nil
}

// Resolve returns the route matching path and its URL parameters.
// An unmatched path resolves to an unnamed route that does not require auth.
func (r *Router) Resolve(path string) (Route, map[string]string) {
	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, path) {
		return Route{Pattern: path}, nil
	}
	route, ok := r.routes[rctx.RoutePattern()]
	if !ok {
		return Route{Pattern: path}, nil
	}
	var params map[string]string
	if n := len(rctx.URLParams.Keys); n > 0 {
		params = make(map[string]string, n)
		for i, key := range rctx.URLParams.Keys {
			params[key] = rctx.URLParams.Values[i]
		}
	}
	return route, params
}

// Navigate moves to path, applying static redirects and the guard until a view
// is allowed. The settled view becomes Current.
func (r *Router) Navigate(path string) (Navigation, error) {
	nav := Navigation{Requested: path}
	path = normalizeViewPath(path)

	for hop := 0; hop <= maxRedirects; hop++ {
		route, params := r.Resolve(path)
		if route.Redirect != "" && route.Redirect != path {
			nav.Redirects = append(nav.Redirects, route.Redirect)
			path = route.Redirect
			continue
		}

		decision := r.guard.Check(route, path)
		if decision.Outcome == Allow {
			nav.Path, nav.Route, nav.Params = path, route, params
			r.mu.Lock()
			r.current = path
			r.mu.Unlock()
			r.logger.Debug("navigated", "requested", nav.Requested, "path", path, "route", route.Name)
			return nav, nil
		}

		r.logger.Debug("navigation redirected", "from", path, "to", decision.Target, "outcome", decision.Outcome.String())
		nav.Redirects = append(nav.Redirects, decision.Target)
		path = decision.Target
	}

	return Navigation{}, fmt.Errorf("%w: %s", ErrRedirectLoop, nav.Requested)
}

// Redirect implements Navigator.
func (r *Router) Redirect(path string) {
	if _, err := r.Navigate(path); err != nil {
		r.logger.Error("navigation failed", "path", path, "error", err)
	}
}

// Current returns the path of the last settled view, or "" before any navigation.
func (r *Router) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func normalizeViewPath(p string) string {
	if u, err := url.Parse(p); err == nil {
		p = u.Path
	}
	if p == "" || p[0] != '/' {
		p = "/" + p
	}
	return p
}
