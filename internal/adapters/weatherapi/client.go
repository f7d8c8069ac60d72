// Package weatherapi is the client of the WeatherScope backend.
//
// Every operation issues exactly one GET and hands back the decoded payload.
// Errors are not translated: transport failures are the http.Client's
// *url.Error, non-2xx answers are *HTTPError and malformed bodies are the
// JSON decoder's error. The client neither retries nor logs.
package weatherapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/weatherscope/pkg/metrics"
)

// DefaultUserAgent is sent unless WithUserAgent overrides it.
const DefaultUserAgent = "weatherscope-dashboard"

const tracerName = "github.com/okian/weatherscope/internal/adapters/weatherapi"

// Operation names, as used in metrics and spans.
const (
	OpCurrentWeather = "getCurrentWeather"
	OpAverageWeather = "getAverageWeather"
	OpTrends         = "getTrends"
	OpHistory        = "getHistory"
)

// Client talks to the backend at a fixed base URL. It is safe for
// concurrent use.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	transport  http.RoundTripper
	userAgent  string
	tracer     trace.Tracer
}

// New returns a client for baseURL, which must be absolute.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrInvalidBaseURL, baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery, u.Fragment = "", ""

	c := &Client{
		base:       u,
		httpClient: &http.Client{},
		userAgent:  DefaultUserAgent,
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	rt := c.transport
	if rt == nil {
		rt = c.httpClient.Transport
	}
	hc := *c.httpClient
	hc.Transport = metrics.InstrumentRoundTripper(rt)
	c.httpClient = &hc
	return c, nil
}

// BaseURL returns the normalized base address.
func (c *Client) BaseURL() string { return c.base.String() }

// GetCurrentWeather fetches the latest observation: GET /<city>.
func (c *Client) GetCurrentWeather(ctx context.Context, city string) (*Response[WeatherData], error) {
	return get[WeatherData](ctx, c, OpCurrentWeather, city, "/"+url.PathEscape(city), nil)
}

// GetAverageWeather fetches the mean temperature: GET /avg/<city>?days=<days>.
// days is sent as given.
func (c *Client) GetAverageWeather(ctx context.Context, city string, days int) (*Response[AverageWeather], error) {
	return get[AverageWeather](ctx, c, OpAverageWeather, city, "/avg/"+url.PathEscape(city), daysQuery(days))
}

// GetTrends fetches the observations of the last days: GET /trends/<city>?days=<days>.
func (c *Client) GetTrends(ctx context.Context, city string, days int) (*Response[[]WeatherData], error) {
	return get[[]WeatherData](ctx, c, OpTrends, city, "/trends/"+url.PathEscape(city), daysQuery(days))
}

// GetHistory fetches every stored observation: GET /history/<city>.
func (c *Client) GetHistory(ctx context.Context, city string) (*Response[[]WeatherData], error) {
	return get[[]WeatherData](ctx, c, OpHistory, city, "/history/"+url.PathEscape(city), nil)
}

func daysQuery(days int) url.Values {
	return url.Values{"days": []string{strconv.Itoa(days)}}
}

// endpoint joins the base with an already escaped path.
func (c *Client) endpoint(escapedPath string, query url.Values) string {
	u := *c.base
	u.RawPath = c.base.EscapedPath() + escapedPath
	if p, err := url.PathUnescape(u.RawPath); err == nil {
		u.Path = p
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func get[T any](ctx context.Context, c *Client, op, city, escapedPath string, query url.Values) (resp *Response[T], err error) {
	ctx, span := c.tracer.Start(ctx, "weatherapi."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("weatherapi.operation", op),
			attribute.String("weatherapi.city", city),
		),
	)
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		metrics.RecordClientOperation(op, result)
		span.End()
	}()

	target := c.endpoint(escapedPath, query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	span.SetAttributes(attribute.Int("http.status_code", res.StatusCode))

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &HTTPError{
			Method:     http.MethodGet,
			URL:        target,
			StatusCode: res.StatusCode,
			Status:     res.Status,
			Header:     res.Header,
			Body:       body,
		}
	}

	out := &Response[T]{StatusCode: res.StatusCode, Header: res.Header}
	if err := json.Unmarshal(body, &out.Data); err != nil {
		return nil, err
	}
	return out, nil
}
