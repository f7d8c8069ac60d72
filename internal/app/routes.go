package service

import (
	"fmt"

	"github.com/okian/weatherscope/internal/router"
	"github.com/okian/weatherscope/internal/views"
)

// Routes returns the dashboard route table in matching order. Only the home
// view is built up front; trends and history are loaded on first visit.
func Routes(pages *views.Pages) ([]router.Route, error) {
	home, err := pages.Home()
	if err != nil {
		return nil, fmt.Errorf("build home view: %w", err)
	}
	return []router.Route{
		{
			Path:      "/",
			Name:      views.RouteHome,
			Component: router.Eager(home),
		},
		{
			Path:      "/trends/:city",
			Name:      views.RouteTrends,
			Component: router.Deferred(pages.TrendsLoader()),
			Props:     true,
		},
		{
			Path:      "/history/:city",
			Name:      views.RouteHistory,
			Component: router.Deferred(pages.HistoryLoader()),
			Props:     true,
		},
	}, nil
}
