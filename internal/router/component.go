package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Props are the input properties a view receives, keyed by placeholder name.
type Props map[string]string

// View renders a page for a resolved route.
type View interface {
	Render(ctx context.Context, w io.Writer, props Props) error
}

// ViewFunc adapts a function to View.
type ViewFunc func(ctx context.Context, w io.Writer, props Props) error

// Render calls f.
func (f ViewFunc) Render(ctx context.Context, w io.Writer, props Props) error {
	return f(ctx, w, props)
}

// Loader produces a view on first use.
type Loader func(ctx context.Context) (View, error)

var (
	errNilView     = errors.New("loader returned a nil view")
	errLoaderPanic = errors.New("loader panicked")
)

// Component is the view reference held by a route: either a view available
// from the start (Eager) or one produced by a loader on first navigation
// (Deferred). A successful load is kept; a failed one is retried by the next
// navigation, and a loader panic counts as a failed load. Concurrent first
// navigations share one loader call.
type Component struct {
	mu       sync.Mutex
	view     View
	loader   Loader
	inflight *loadCall
}

type loadCall struct {
	done chan struct{}
	view View
	err  error
}

// Eager wraps a view that is available immediately.
func Eager(v View) *Component {
	return &Component{view: v}
}

// Deferred wraps a loader that is not called until the first navigation
// to the owning route.
func Deferred(l Loader) *Component {
	return &Component{loader: l}
}

// IsDeferred reports whether the component was declared with a loader.
func (c *Component) IsDeferred() bool {
	return c.loader != nil
}

// Loaded reports whether the view is available without calling the loader.
func (c *Component) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view != nil
}

// resolve returns the view, running the loader when needed. ran reports
// whether this call executed the loader.
func (c *Component) resolve(ctx context.Context) (v View, ran bool, err error) {
	c.mu.Lock()
	if c.view != nil {
		v = c.view
		c.mu.Unlock()
		return v, false, nil
	}
	if call := c.inflight; call != nil {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.view, false, call.err
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
	call := &loadCall{done: make(chan struct{})}
	c.inflight = call
	c.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			v, ran, err = nil, true, fmt.Errorf("%w: %v", errLoaderPanic, p)
		}
		c.mu.Lock()
		c.inflight = nil
		if err == nil {
			c.view = v
		}
		c.mu.Unlock()

		call.view, call.err = v, err
		close(call.done)
	}()

	v, err = c.loader(ctx)
	if err == nil && v == nil {
		err = errNilView
	}
	if err != nil {
		v = nil
	}
	return v, true, err
}
