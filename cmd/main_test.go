package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	app "github.com/okian/weatherscope/internal/app"
	"github.com/okian/weatherscope/internal/config"
	"github.com/okian/weatherscope/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func fakeBackend() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/avg/"):
			_, _ = io.WriteString(w, `{"city":"Boston","days":7,"averageTemperature":4.0}`)
		case strings.HasPrefix(r.URL.Path, "/trends/"), strings.HasPrefix(r.URL.Path, "/history/"):
			_, _ = io.WriteString(w, `[{"id":1,"city":"Boston","temperature":4.0,"humidity":70,"description":"cloudy","timestamp":"2024-03-01T12:00:00"}]`)
		default:
			_, _ = io.WriteString(w, `{"id":1,"city":"Boston","temperature":4.0,"humidity":70,"description":"cloudy","timestamp":"2024-03-01T12:00:00"}`)
		}
	}))
}

func get(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("WEATHERSCOPE_ADDR", ":8081")
			_ = os.Setenv("WEATHERSCOPE_BASE_PATH", "/dash")
			defer func() {
				_ = os.Unsetenv("WEATHERSCOPE_ADDR")
				_ = os.Unsetenv("WEATHERSCOPE_BASE_PATH")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
				convey.So(cfg.BasePath, convey.ShouldEqual, "/dash")
			})
		})

		convey.Convey("When serving through the assembled handler", func() {
			backend := fakeBackend()
			defer backend.Close()

			ctx := context.Background()
			svc := app.New(
				app.WithAPIBaseURL(backend.URL),
				app.WithCities([]string{"Boston"}),
				app.WithLogger(logger.Nop()),
			)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()
			h := newHandler(ctx, svc, logger.Nop())

			convey.Convey("Then the operational endpoints answer", func() {
				convey.So(get(h, http.MethodGet, "/healthz").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get(h, http.MethodGet, "/stats").Body.String(), convey.ShouldContainSubstring, `"started":true`)
				convey.So(get(h, http.MethodGet, "/metrics").Body.String(), convey.ShouldContainSubstring, "weatherscope_dashboard")
			})

			convey.Convey("And the dashboard pages render", func() {
				rec := get(h, http.MethodGet, "/trends/Boston")
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, "Trends for Boston")

				home := get(h, http.MethodGet, "/")
				convey.So(home.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(home.Body.String(), convey.ShouldContainSubstring, "cloudy")
			})

			convey.Convey("And unknown paths and methods are rejected", func() {
				convey.So(get(h, http.MethodGet, "/forecast/Boston").Code, convey.ShouldEqual, http.StatusNotFound)
				convey.So(get(h, http.MethodDelete, "/").Code, convey.ShouldEqual, http.StatusMethodNotAllowed)
			})

			convey.Convey("And the site requests are counted", func() {
				_ = get(h, http.MethodGet, "/history/Boston")
				body := get(h, http.MethodGet, "/metrics").Body.String()
				convey.So(body, convey.ShouldContainSubstring, `endpoint="site"`)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it returns once the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() {
					updateSystemMetrics()
				}, convey.ShouldNotPanic)
			})
		})
	})
}
