// Package router maps URL paths to views.
//
// A Router is built once from an ordered list of routes and a history
// strategy. Navigation picks the first route whose pattern matches, loads its
// view when the route was declared Deferred, records the navigation in the
// history and returns the resolved Match. The router never logs and never
// retries; failures come back as *NavigationError.
package router

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/weatherscope/pkg/metrics"
)

// Route is one entry of the route table.
type Route struct {
	// Path is the pattern, e.g. "/trends/:city".
	Path string
	// Name must be unique across the table.
	Name string
	// Component is the eager or deferred view.
	Component *Component
	// Props forwards placeholder values to the view as input properties.
	Props bool
}

// Match is a resolved navigation target.
type Match struct {
	Route  *Route
	Name   string
	Params map[string]string
	Query  url.Values

	// Path is the matched path relative to the base.
	Path string
	// Href is the full location including base and query.
	Href string
	// Props is what the view receives; empty unless the route forwards props.
	Props Props
	// View is set by Navigate, Back and Forward once the view is ready.
	View View
}

type compiledRoute struct {
	route   *Route
	pattern *pattern
}

// Router holds the route table, the history strategy and the current match.
type Router struct {
	routes  []compiledRoute
	byName  map[string]compiledRoute
	history History

	mu      sync.Mutex
	current *Match

	navigations atomic.Uint64
	failures    atomic.Uint64
	now         func() time.Time
}

// New validates routes and builds a Router. A nil history means an
// in-memory history rooted at "/".
func New(history History, routes ...Route) (*Router, error) {
	if history == nil {
		history = NewMemoryHistory("/")
	}
	r := &Router{
		byName:  make(map[string]compiledRoute, len(routes)),
		history: history,
		now:     time.Now,
	}
	shapes := make(map[string]string, len(routes))
	for i := range routes {
		rt := routes[i]
		if strings.TrimSpace(rt.Name) == "" {
			return nil, fmt.Errorf("%w: route %q has no name", ErrInvalidRoute, rt.Path)
		}
		if rt.Component == nil {
			return nil, fmt.Errorf("%w: route %q has no component", ErrInvalidRoute, rt.Name)
		}
		if rt.Component.view == nil && rt.Component.loader == nil {
			return nil, fmt.Errorf("%w: route %q has an empty component", ErrInvalidRoute, rt.Name)
		}
		if _, dup := r.byName[rt.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate route name %q", ErrInvalidRoute, rt.Name)
		}
		p, err := compilePattern(rt.Path)
		if err != nil {
			return nil, err
		}
		if other, dup := shapes[p.key()]; dup {
			return nil, fmt.Errorf("%w: %q and %q match the same paths", ErrInvalidRoute, other, rt.Name)
		}
		shapes[p.key()] = rt.Name
		c := compiledRoute{route: &rt, pattern: p}
		r.routes = append(r.routes, c)
		r.byName[rt.Name] = c
	}
	return r, nil
}

// Base returns the history base path.
func (r *Router) Base() string { return r.history.Base() }

// Routes returns the route table in registration order.
func (r *Router) Routes() []Route {
	out := make([]Route, len(r.routes))
	for i, c := range r.routes {
		out[i] = *c.route
	}
	return out
}

// Resolve matches to against the table without loading views or touching
// history. Routes are tried in registration order; the first match wins.
func (r *Router) Resolve(to string) (*Match, error) {
	segs, path, query := splitTarget(stripBase(r.history.Base(), to))
	for _, c := range r.routes {
		params, ok := c.pattern.match(segs)
		if !ok {
			continue
		}
		m := &Match{
			Route:  c.route,
			Name:   c.route.Name,
			Path:   path,
			Href:   r.href(path, query),
			Params: params,
			Query:  query,
			Props:  Props{},
		}
		if c.route.Props {
			for k, v := range params {
				m.Props[k] = v
			}
		}
		return m, nil
	}
	return nil, &NavigationError{To: to, Err: ErrNoMatch}
}

// NavigateOption configures a single navigation.
type NavigateOption func(*navigateOptions)

type navigateOptions struct {
	replace bool
}

// WithReplace replaces the current history entry instead of pushing one.
func WithReplace() NavigateOption {
	return func(o *navigateOptions) { o.replace = true }
}

// Navigate resolves to, waits for the view to be ready and records the
// navigation. On failure history and the current match are left untouched.
func (r *Router) Navigate(ctx context.Context, to string, opts ...NavigateOption) (*Match, error) {
	var o navigateOptions
	for _, opt := range opts {
		opt(&o)
	}

	m, err := r.Resolve(to)
	if err != nil {
		r.failures.Add(1)
		metrics.RecordNavigation("", "no_match")
		return nil, err
	}
	if err := r.mount(ctx, to, m); err != nil {
		return nil, err
	}

	entry := Entry{
		ID:       uuid.New(),
		Location: m.Href,
		Route:    m.Name,
		Params:   m.Params,
		At:       r.now(),
	}
	r.mu.Lock()
	if o.replace {
		r.history.Replace(entry)
	} else {
		r.history.Push(entry)
	}
	r.current = m
	r.mu.Unlock()

	r.navigations.Add(1)
	metrics.RecordNavigation(m.Name, "ok")
	return m, nil
}

// Back moves one entry back. Only the memory history supports it.
func (r *Router) Back(ctx context.Context) (*Match, error) { return r.Go(ctx, -1) }

// Forward moves one entry forward. Only the memory history supports it.
func (r *Router) Forward(ctx context.Context) (*Match, error) { return r.Go(ctx, 1) }

// Go moves delta entries through the history and mounts the entry's view.
func (r *Router) Go(ctx context.Context, delta int) (*Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.history.Go(delta)
	if err != nil {
		return nil, &NavigationError{To: fmt.Sprintf("history(%+d)", delta), Err: err}
	}
	m, err := r.Resolve(entry.Location)
	if err == nil {
		err = r.mount(ctx, entry.Location, m)
	}
	if err != nil {
		// Put the stack back where it was.
		_, _ = r.history.Go(-delta)
		return nil, err
	}
	r.current = m
	r.navigations.Add(1)
	metrics.RecordNavigation(m.Name, "ok")
	return m, nil
}

// mount makes the view of m ready, running a deferred loader if needed.
func (r *Router) mount(ctx context.Context, to string, m *Match) error {
	start := time.Now()
	v, ran, err := m.Route.Component.resolve(ctx)
	if ran {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.RecordViewLoad(m.Name, result, time.Since(start).Seconds())
	}
	if err != nil {
		r.failures.Add(1)
		metrics.RecordNavigation(m.Name, "load_failed")
		return &NavigationError{To: to, Route: m.Name, Err: fmt.Errorf("%w: %w", ErrLoadView, err)}
	}
	m.View = v
	return nil
}

// Current returns the last successful navigation, nil before the first one.
func (r *Router) Current() *Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// History returns the entries kept by the history strategy.
func (r *Router) History() []Entry {
	return r.history.Entries()
}

// Href builds the location of a named route with params path-escaped.
func (r *Router) Href(name string, params map[string]string) (string, error) {
	c, ok := r.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	path, err := c.pattern.build(params)
	if err != nil {
		return "", err
	}
	return joinBase(r.history.Base(), path), nil
}

// Stats is a snapshot of router activity.
type Stats struct {
	Routes        int      `json:"routes"`
	Navigations   uint64   `json:"navigations"`
	Failures      uint64   `json:"failures"`
	Current       string   `json:"current,omitempty"`
	HistoryLength int      `json:"historyLength"`
	LoadedViews   []string `json:"loadedViews"`
}

// Stats returns counters and the set of views ready to mount.
func (r *Router) Stats() Stats {
	s := Stats{
		Routes:        len(r.routes),
		Navigations:   r.navigations.Load(),
		Failures:      r.failures.Load(),
		HistoryLength: len(r.history.Entries()),
		LoadedViews:   []string{},
	}
	if cur := r.Current(); cur != nil {
		s.Current = cur.Href
	}
	for _, c := range r.routes {
		if c.route.Component.Loaded() {
			s.LoadedViews = append(s.LoadedViews, c.route.Name)
		}
	}
	return s
}

func (r *Router) href(path string, query url.Values) string {
	h := joinBase(r.history.Base(), path)
	if len(query) > 0 {
		h += "?" + query.Encode()
	}
	return h
}
