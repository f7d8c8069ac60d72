package router

import (
	"errors"
	"fmt"
)

// Sentinel kinds for router errors. These allow errors.Is from callers.
var (
	// ErrNoMatch reports a navigation target that no registered route matches.
	ErrNoMatch = errors.New("no matching route")
	// ErrLoadView reports a deferred view whose loader failed.
	ErrLoadView = errors.New("view load failed")
	// ErrInvalidRoute reports a route table that cannot be built.
	ErrInvalidRoute = errors.New("invalid route")
	// ErrNoHistory reports a history move the strategy cannot perform.
	ErrNoHistory = errors.New("no history entry")
	// ErrUnknownRoute reports a lookup by a name that is not registered.
	ErrUnknownRoute = errors.New("unknown route")
	// ErrMissingParam reports a link built without a required placeholder value.
	ErrMissingParam = errors.New("missing route param")
)

// NavigationError is returned by Navigate, Back and Forward. It keeps the
// target and, when one matched, the route name next to the cause.
type NavigationError struct {
	To    string
	Route string
	Err   error
}

func (e *NavigationError) Error() string {
	if e.Route == "" {
		return fmt.Sprintf("navigate %q: %v", e.To, e.Err)
	}
	return fmt.Sprintf("navigate %q (route %s): %v", e.To, e.Route, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }
