package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating on a custom registry", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(WithPrometheusRegistry(registry))
			m.RecordNavigation("home", "ok")

			Convey("Then metric names carry the dashboard prefix", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				found := false
				for _, f := range families {
					if f.GetName() == "weatherscope_dashboard_navigations_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When a nil registry is given", func() {
			m := &Manager{registry: customRegistry}
			WithPrometheusRegistry(nil)(m)

			Convey("Then the registry is kept", func() {
				So(m.registry, ShouldEqual, customRegistry)
			})
		})
	})
}

func TestManagerRecording(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When recording navigations", func() {
			m.RecordNavigation("trends", "ok")
			m.RecordNavigation("trends", "ok")
			m.RecordNavigation("", "no_match")

			Convey("Then counters are per route and result", func() {
				So(testutil.ToFloat64(m.navigations.WithLabelValues("trends", "ok")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.navigations.WithLabelValues("none", "no_match")), ShouldEqual, 1)
			})
		})

		Convey("When recording view loads, client operations and errors", func() {
			m.RecordViewLoad("history", "ok", 0.01)
			m.RecordViewRender("history", 0.02)
			m.RecordClientOperation("getTrends", "error")
			m.RecordError("site", "load_failed")
			m.RecordHTTPRequest("site", "GET", "200", 0.05)

			Convey("Then each collector is updated", func() {
				So(testutil.ToFloat64(m.viewLoads.WithLabelValues("history", "ok")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.clientOperations.WithLabelValues("getTrends", "error")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.errorsByType.WithLabelValues("site", "load_failed")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.httpRequests.WithLabelValues("site", "GET", "200")), ShouldEqual, 1)
			})
		})
	})
}

func TestInstrumentRoundTripper(t *testing.T) {
	Convey("Given an instrumented transport", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		defer srv.Close()

		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))
		client := &http.Client{Transport: m.InstrumentRoundTripper(nil)}

		Convey("When one request is made", func() {
			resp, err := client.Get(srv.URL)
			So(err, ShouldBeNil)
			_ = resp.Body.Close()

			Convey("Then it is counted by code and method", func() {
				So(testutil.ToFloat64(m.clientRequests.WithLabelValues("418", "get")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.clientInFlight), ShouldEqual, 0)
			})
		})
	})
}

func TestGlobalHandler(t *testing.T) {
	Convey("Given the global registry", t, func() {
		RecordNavigation("home", "ok")
		UpdateSystemGoroutineCount(3)

		Convey("When scraping the handler", func() {
			w := httptest.NewRecorder()
			Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

			Convey("Then the exposition includes dashboard metrics", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := w.Body.String()
				So(strings.Contains(body, "weatherscope_dashboard_navigations_total"), ShouldBeTrue)
				So(strings.Contains(body, "weatherscope_dashboard_system_goroutines 3"), ShouldBeTrue)
				So(GetRegistry(), ShouldNotBeNil)
			})
		})
	})
}
