// Package service wires the weather client, the dashboard views and the
// router into the service the HTTP adapters serve.
package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/okian/weatherscope/internal/adapters/weatherapi"
	"github.com/okian/weatherscope/internal/config"
	"github.com/okian/weatherscope/internal/router"
	"github.com/okian/weatherscope/internal/views"
	"github.com/okian/weatherscope/pkg/logger"
)

// Service owns the dashboard components.
type Service struct {
	mu sync.RWMutex

	// Core components
	client *weatherapi.Client
	pages  *views.Pages
	router *router.Router

	// Configuration
	apiBaseURL  string
	apiTimeout  time.Duration
	transport   http.RoundTripper
	basePath    string
	historyMode string
	historyMax  int
	cities      []string
	defaultDays int

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig applies every dashboard setting from cfg.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		for _, opt := range []Option{
			WithAPIBaseURL(cfg.APIBaseURL),
			WithAPITimeout(time.Duration(cfg.APITimeoutMS) * time.Millisecond),
			WithBasePath(cfg.BasePath),
			WithHistoryMode(cfg.HistoryMode),
			WithHistoryMaxEntries(cfg.HistoryMaxEntries),
			WithCities(cfg.Cities),
			WithDefaultDays(cfg.DefaultDays),
		} {
			opt(s)
		}
	}
}

// WithAPIBaseURL sets the backend base address.
func WithAPIBaseURL(u string) Option {
	return func(s *Service) {
		if u != "" {
			s.apiBaseURL = u
		}
	}
}

// WithAPITimeout sets the http.Client timeout; zero means none.
func WithAPITimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.apiTimeout = d
		}
	}
}

// WithTransport sets the round-tripper of the weather client.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *Service) { s.transport = rt }
}

// WithBasePath sets the router base path.
func WithBasePath(p string) Option {
	return func(s *Service) {
		if p != "" {
			s.basePath = p
		}
	}
}

// WithHistoryMode selects "web" or "memory" history.
func WithHistoryMode(mode string) Option {
	return func(s *Service) {
		if mode != "" {
			s.historyMode = mode
		}
	}
}

// WithHistoryMaxEntries caps the memory history; zero keeps the router default.
func WithHistoryMaxEntries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyMax = n
		}
	}
}

// WithCities sets the cities shown on the home page.
func WithCities(cities []string) Option {
	return func(s *Service) {
		if len(cities) > 0 {
			s.cities = append([]string(nil), cities...)
		}
	}
}

// WithDefaultDays sets the window the views forward to the backend.
func WithDefaultDays(days int) Option {
	return func(s *Service) { s.defaultDays = days }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	cfg := config.New()
	s := &Service{
		apiBaseURL:  cfg.APIBaseURL,
		basePath:    cfg.BasePath,
		historyMode: cfg.HistoryMode,
		historyMax:  cfg.HistoryMaxEntries,
		cities:      cfg.Cities,
		defaultDays: cfg.DefaultDays,
		logger:      nil, // Will be replaced when service starts
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the client, the views and the router.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	history, err := newHistory(s.historyMode, s.basePath, s.historyMax)
	if err != nil {
		return err
	}

	client, err := weatherapi.New(s.apiBaseURL,
		weatherapi.WithHTTPClient(&http.Client{Timeout: s.apiTimeout}),
		weatherapi.WithTransport(s.transport),
	)
	if err != nil {
		return fmt.Errorf("create weather client: %w", err)
	}

	pages := views.New(client,
		views.WithCities(s.cities),
		views.WithDays(s.defaultDays),
		views.WithLogger(s.logger.Named("views")),
	)
	routes, err := Routes(pages)
	if err != nil {
		return err
	}
	r, err := router.New(history, routes...)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}
	pages.Bind(r)

	s.client, s.pages, s.router = client, pages, r
	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "dashboard service started",
		logger.String("apiBaseURL", client.BaseURL()),
		logger.String("basePath", r.Base()),
		logger.String("historyMode", s.historyMode),
		logger.Int("routes", len(routes)),
	)
	return nil
}

func newHistory(mode, base string, maxEntries int) (router.History, error) {
	switch mode {
	case config.HistoryWeb:
		return router.NewWebHistory(base), nil
	case config.HistoryMemory:
		return router.NewMemoryHistory(base, router.WithMaxEntries(maxEntries)), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownHistoryMode, mode)
}

// Stop marks the service stopped. Components are kept so in-flight requests
// can finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "dashboard service stopped")
}

// Router returns the dashboard router, nil before Start.
func (s *Service) Router() *router.Router {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.router
}

// Client returns the weather client, nil before Start.
func (s *Service) Client() *weatherapi.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// Pages returns the view builder, nil before Start.
func (s *Service) Pages() *views.Pages {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pages
}

// Ready reports whether the service has been started.
func (s *Service) Ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"apiBaseURL":  s.apiBaseURL,
		"basePath":    s.basePath,
		"historyMode": s.historyMode,
		"cities":      s.cities,
		"defaultDays": s.defaultDays,
	}
	if s.router != nil {
		stats["router"] = s.router.Stats()
	}
	if s.started {
		stats["uptimeSeconds"] = time.Since(s.startedAt).Seconds()
	}
	return stats
}
