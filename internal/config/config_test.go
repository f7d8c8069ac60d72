package config_test

import (
	"errors"
	"testing"

	"github.com/okian/weatherscope/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":3000")
			convey.So(cfg.APIBaseURL, convey.ShouldEqual, "http://localhost:8080")
			convey.So(cfg.APITimeoutMS, convey.ShouldEqual, 0)
			convey.So(cfg.BasePath, convey.ShouldEqual, "/")
			convey.So(cfg.HistoryMode, convey.ShouldEqual, config.HistoryWeb)
			convey.So(cfg.Cities, convey.ShouldResemble, []string{"London", "Paris", "Tokyo"})
			convey.So(cfg.DefaultDays, convey.ShouldEqual, 7)
			convey.So(cfg.HistoryMaxEntries, convey.ShouldEqual, 100)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When the base URL is relative", func() {
			cfg.APIBaseURL = "localhost:8080"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the history mode is unknown", func() {
			cfg.HistoryMode = "hash"
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "history_mode")
		})

		convey.Convey("When the log format is unknown", func() {
			cfg.LogFormat = "xml"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the timeout is negative", func() {
			cfg.APITimeoutMS = -1
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the history cap is zero", func() {
			cfg.HistoryMaxEntries = 0
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "history_max_entries")
		})

		convey.Convey("When days are zero", func() {
			cfg.DefaultDays = 0
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
