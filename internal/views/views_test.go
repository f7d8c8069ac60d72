package views_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/okian/weatherscope/internal/adapters/weatherapi"
	"github.com/okian/weatherscope/internal/router"
	"github.com/okian/weatherscope/internal/views"
	"github.com/okian/weatherscope/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeClient struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
	rows  []weatherapi.WeatherData
}

func (f *fakeClient) record(op, city string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op+":"+city)
	return f.fail[op]
}

func (f *fakeClient) GetCurrentWeather(_ context.Context, city string) (*weatherapi.Response[weatherapi.WeatherData], error) {
	if err := f.record(weatherapi.OpCurrentWeather, city); err != nil {
		return nil, err
	}
	return &weatherapi.Response[weatherapi.WeatherData]{
		Data: weatherapi.WeatherData{City: city, Temperature: 12.34, Humidity: 55, Description: "light rain"},
	}, nil
}

func (f *fakeClient) GetAverageWeather(_ context.Context, city string, days int) (*weatherapi.Response[weatherapi.AverageWeather], error) {
	if err := f.record(weatherapi.OpAverageWeather, city); err != nil {
		return nil, err
	}
	avg := 9.5
	return &weatherapi.Response[weatherapi.AverageWeather]{
		Data: weatherapi.AverageWeather{City: city, Days: days, AverageTemperature: &avg},
	}, nil
}

func (f *fakeClient) GetTrends(_ context.Context, city string, _ int) (*weatherapi.Response[[]weatherapi.WeatherData], error) {
	if err := f.record(weatherapi.OpTrends, city); err != nil {
		return nil, err
	}
	return &weatherapi.Response[[]weatherapi.WeatherData]{Data: f.rows}, nil
}

func (f *fakeClient) GetHistory(_ context.Context, city string) (*weatherapi.Response[[]weatherapi.WeatherData], error) {
	if err := f.record(weatherapi.OpHistory, city); err != nil {
		return nil, err
	}
	return &weatherapi.Response[[]weatherapi.WeatherData]{Data: f.rows}, nil
}

type staticLinks struct{}

func (staticLinks) Href(name string, params map[string]string) (string, error) {
	if name == views.RouteHome {
		return "/", nil
	}
	return "/" + name + "/" + params["city"], nil
}

// warnRecorder keeps the messages logged at warn level.
type warnRecorder struct {
	mu    sync.Mutex
	warns []string
}

func (w *warnRecorder) Info(context.Context, string, ...logger.Field)  {}
func (w *warnRecorder) Error(context.Context, string, ...logger.Field) {}
func (w *warnRecorder) Debug(context.Context, string, ...logger.Field) {}
func (w *warnRecorder) Warn(_ context.Context, msg string, _ ...logger.Field) {
	w.mu.Lock()
	w.warns = append(w.warns, msg)
	w.mu.Unlock()
}
func (w *warnRecorder) Named(string) logger.Logger        { return w }
func (w *warnRecorder) With(...logger.Field) logger.Logger { return w }

func render(v router.View, props router.Props) (string, error) {
	var buf bytes.Buffer
	err := v.Render(context.Background(), &buf, props)
	return buf.String(), err
}

func TestHome(t *testing.T) {
	Convey("Given the home page for two cities", t, func() {
		client := &fakeClient{}
		warns := &warnRecorder{}
		pages := views.New(client,
			views.WithCities([]string{"Oslo", "New York"}),
			views.WithDays(3),
			views.WithLogger(warns))
		pages.Bind(staticLinks{})
		home, err := pages.Home()
		So(err, ShouldBeNil)

		Convey("When it renders", func() {
			out, err := render(home, router.Props{})

			Convey("Then every city has its current and average weather", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Oslo")
				So(out, ShouldContainSubstring, "New York")
				So(out, ShouldContainSubstring, "12.3 °C")
				So(out, ShouldContainSubstring, "Average: 9.5 °C")
				So(out, ShouldContainSubstring, "last 3 days")
				So(out, ShouldContainSubstring, `href="/trends/Oslo"`)
				So(len(client.calls), ShouldEqual, 4)
				So(warns.warns, ShouldBeEmpty)
			})
		})

		Convey("When the backend rejects the current weather", func() {
			client.fail = map[string]error{
				weatherapi.OpCurrentWeather: &weatherapi.HTTPError{
					StatusCode: http.StatusNotFound,
					Status:     "404 Not Found",
					Body:       []byte(`{"message":"city not found"}`),
				},
			}
			out, err := render(home, router.Props{})

			Convey("Then the page still renders with an error panel and a warning is logged", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, `class="error"`)
				So(out, ShouldContainSubstring, "404 Not Found: city not found")
				So(len(warns.warns), ShouldEqual, 2)
			})
		})
	})
}

func TestDeferredPages(t *testing.T) {
	Convey("Given the page builder", t, func() {
		var mu sync.Mutex
		parsed := map[string]int{}
		client := &fakeClient{rows: []weatherapi.WeatherData{
			{City: "Lima", Temperature: 18, Humidity: 70, Description: "fog"},
			{City: "Lima", Temperature: 24, Humidity: 60, Description: "sun"},
		}}
		pages := views.New(client, views.WithParseHook(func(page string) {
			mu.Lock()
			parsed[page]++
			mu.Unlock()
		}))
		pages.Bind(staticLinks{})

		Convey("Then taking the loaders parses nothing", func() {
			_ = pages.TrendsLoader()
			_ = pages.HistoryLoader()
			So(parsed, ShouldBeEmpty)
			So(client.calls, ShouldBeEmpty)
		})

		Convey("When the trends loader runs and the view renders", func() {
			v, err := pages.TrendsLoader()(context.Background())
			So(err, ShouldBeNil)
			So(parsed[views.RouteTrends], ShouldEqual, 1)

			out, err := render(v, router.Props{"city": "Lima"})

			Convey("Then the summary and rows are shown", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Trends for Lima")
				So(out, ShouldContainSubstring, "Min 18.0 °C")
				So(out, ShouldContainSubstring, "Max 24.0 °C")
				So(out, ShouldContainSubstring, "Mean 21.0 °C")
				So(out, ShouldContainSubstring, "fog")
				So(client.calls, ShouldResemble, []string{"getTrends:Lima"})
			})
		})

		Convey("When the history view renders without a city", func() {
			v, err := pages.HistoryLoader()(context.Background())
			So(err, ShouldBeNil)
			_, err = render(v, router.Props{})
			So(errors.Is(err, views.ErrMissingCity), ShouldBeTrue)
		})

		Convey("When the history backend is unreachable", func() {
			client.fail = map[string]error{weatherapi.OpHistory: errors.New("dial tcp: connection refused")}
			v, _ := pages.HistoryLoader()(context.Background())
			out, err := render(v, router.Props{"city": "Lima"})
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "unreachable")
		})

		Convey("When an error page is rendered", func() {
			var buf bytes.Buffer
			So(pages.RenderError(&buf, "Not found", "No page at /nowhere"), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "No page at /nowhere")
			So(buf.String(), ShouldContainSubstring, "<title>Not found")
		})
	})
}

func TestSummarize(t *testing.T) {
	Convey("Summarize", t, func() {
		_, ok := views.Summarize(nil)
		So(ok, ShouldBeFalse)

		s, ok := views.Summarize([]weatherapi.WeatherData{{Temperature: -2}, {Temperature: 4}, {Temperature: 1}})
		So(ok, ShouldBeTrue)
		So(s.Min, ShouldEqual, -2)
		So(s.Max, ShouldEqual, 4)
		So(s.Mean, ShouldEqual, 1)
	})
}
