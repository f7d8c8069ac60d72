// Package views renders the dashboard pages served for the router's routes.
package views

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/weatherscope/internal/adapters/weatherapi"
	"github.com/okian/weatherscope/internal/router"
	"github.com/okian/weatherscope/pkg/logger"
	"github.com/okian/weatherscope/pkg/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

const tracerName = "github.com/okian/weatherscope/internal/views"

// Route names the pages are registered under.
const (
	RouteHome    = "home"
	RouteTrends  = "trends"
	RouteHistory = "history"
)

// ErrMissingCity is returned when a city page is rendered without a city.
var ErrMissingCity = errors.New("missing city property")

// WeatherClient is the part of the backend client the pages use.
type WeatherClient interface {
	GetCurrentWeather(ctx context.Context, city string) (*weatherapi.Response[weatherapi.WeatherData], error)
	GetAverageWeather(ctx context.Context, city string, days int) (*weatherapi.Response[weatherapi.AverageWeather], error)
	GetTrends(ctx context.Context, city string, days int) (*weatherapi.Response[[]weatherapi.WeatherData], error)
	GetHistory(ctx context.Context, city string) (*weatherapi.Response[[]weatherapi.WeatherData], error)
}

// Linker builds links to named routes.
type Linker interface {
	Href(name string, params map[string]string) (string, error)
}

// Pages builds the dashboard views.
type Pages struct {
	client WeatherClient
	links  Linker
	cities []string
	days   int
	logger logger.Logger
	tracer trace.Tracer
	// parses counts template parses, one per page actually built.
	parses func(page string)
}

// Option applies a configuration option to Pages.
type Option func(*Pages)

// WithCities sets the cities shown on the home page.
func WithCities(cities []string) Option {
	return func(p *Pages) {
		if len(cities) > 0 {
			p.cities = append([]string(nil), cities...)
		}
	}
}

// WithDays sets the window forwarded to the average and trends calls.
func WithDays(days int) Option {
	return func(p *Pages) { p.days = days }
}

// WithLogger sets the logger used for client failures.
func WithLogger(l logger.Logger) Option {
	return func(p *Pages) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithParseHook registers a callback run each time a page template is parsed.
func WithParseHook(fn func(page string)) Option {
	return func(p *Pages) {
		if fn != nil {
			p.parses = fn
		}
	}
}

// New returns the page builder. Links are bound later with Bind because the
// router that builds them is itself built from these pages.
func New(client WeatherClient, opts ...Option) *Pages {
	p := &Pages{
		client: client,
		cities: []string{"London", "Paris", "Tokyo"},
		days:   7,
		logger: logger.Nop(),
		tracer: otel.Tracer(tracerName),
		parses: func(string) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Bind sets the link builder, normally the router.
func (p *Pages) Bind(l Linker) { p.links = l }

// Home returns the eager home view.
func (p *Pages) Home() (router.View, error) {
	t, err := p.parse(RouteHome, "home.html")
	if err != nil {
		return nil, err
	}
	return p.view(RouteHome, t, p.homeData), nil
}

// TrendsLoader returns the deferred loader of the trends view.
func (p *Pages) TrendsLoader() router.Loader {
	return func(context.Context) (router.View, error) {
		t, err := p.parse(RouteTrends, "trends.html", "rows.html")
		if err != nil {
			return nil, err
		}
		return p.view(RouteTrends, t, p.trendsData), nil
	}
}

// HistoryLoader returns the deferred loader of the history view.
func (p *Pages) HistoryLoader() router.Loader {
	return func(context.Context) (router.View, error) {
		t, err := p.parse(RouteHistory, "history.html", "rows.html")
		if err != nil {
			return nil, err
		}
		return p.view(RouteHistory, t, p.historyData), nil
	}
}

// RenderError writes a standalone error page.
func (p *Pages) RenderError(w io.Writer, title, message string) error {
	t, err := p.parse("error", "error.html")
	if err != nil {
		return err
	}
	return t.ExecuteTemplate(w, "layout", errorPage{
		page:    page{Title: title, HomeHref: p.href(RouteHome, nil)},
		Message: message,
	})
}

var funcs = template.FuncMap{
	"stamp": func(ts weatherapi.Timestamp) string {
		if ts.IsZero() {
			return "-"
		}
		return ts.Format("2006-01-02 15:04")
	},
	"deref": func(f *float64) float64 {
		if f == nil {
			return 0
		}
		return *f
	},
}

func (p *Pages) parse(name string, files ...string) (*template.Template, error) {
	patterns := make([]string, 0, len(files)+1)
	patterns = append(patterns, "templates/layout.html")
	for _, f := range files {
		patterns = append(patterns, "templates/"+f)
	}
	t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, patterns...)
	if err != nil {
		return nil, fmt.Errorf("parse %s templates: %w", name, err)
	}
	p.parses(name)
	return t, nil
}

type dataFunc func(ctx context.Context, props router.Props) (any, error)

// view renders into a buffer first so a template failure never leaves a
// half-written page.
func (p *Pages) view(route string, t *template.Template, data dataFunc) router.View {
	return router.ViewFunc(func(ctx context.Context, w io.Writer, props router.Props) (err error) {
		start := time.Now()
		ctx, span := p.tracer.Start(ctx, "views.render",
			trace.WithAttributes(attribute.String("views.route", route)))
		defer func() {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
			metrics.RecordViewRender(route, time.Since(start).Seconds())
		}()

		d, err := data(ctx, props)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := t.ExecuteTemplate(&buf, "layout", d); err != nil {
			return fmt.Errorf("render %s: %w", route, err)
		}
		_, err = buf.WriteTo(w)
		return err
	})
}

// href returns "#" when no linker is bound or the link cannot be built.
func (p *Pages) href(name string, params map[string]string) string {
	if p.links == nil {
		return "#"
	}
	h, err := p.links.Href(name, params)
	if err != nil {
		return "#"
	}
	return h
}

// fail logs a client failure and turns it into the text of the error panel.
func (p *Pages) fail(ctx context.Context, op, city string, err error) string {
	p.logger.Warn(ctx, "weather request failed",
		logger.String("operation", op),
		logger.String("city", city),
		logger.Error(err))
	metrics.RecordError("views", op)

	var httpErr *weatherapi.HTTPError
	if errors.As(err, &httpErr) {
		if msg := httpErr.Message(); msg != "" {
			return fmt.Sprintf("The weather service answered %s: %s", httpErr.Status, msg)
		}
		return "The weather service answered " + httpErr.Status
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "The request was canceled before the weather service answered"
	}
	return "The weather service is unreachable"
}
