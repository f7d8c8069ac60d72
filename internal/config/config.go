// Package config defines the dashboard configuration and its loader.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers defaults, an optional YAML file and WEATHERSCOPE_ env vars.
// - Validation failures wrap ErrInvalidConfig; source failures wrap ErrLoadConfig.
package config

// History modes understood by the router.
const (
	HistoryWeb    = "web"
	HistoryMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the dashboard listen address, e.g. ":3000".
	Addr string `koanf:"addr"`

	// APIBaseURL is the WeatherScope backend every client request is sent to.
	APIBaseURL string `koanf:"api_base_url"`

	// APITimeoutMS bounds whole client requests at the transport level. Zero means no timeout.
	APITimeoutMS int `koanf:"api_timeout_ms"`

	// BasePath is the router base under which dashboard routes live.
	BasePath string `koanf:"base_path"`

	// HistoryMode selects the router history strategy: web or memory.
	HistoryMode string `koanf:"history_mode"`

	// HistoryMaxEntries caps the entries kept by the memory history.
	HistoryMaxEntries int `koanf:"history_max_entries"`

	// Cities listed on the home view.
	Cities []string `koanf:"cities"`

	// DefaultDays is forwarded as the days parameter by the views.
	DefaultDays int `koanf:"default_days"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		LogFormat:    "text",
		Addr:         ":3000",
		APIBaseURL:   "http://localhost:8080",
		APITimeoutMS: 0,
		BasePath:     "/",
		HistoryMode:  HistoryWeb,
		Cities:       []string{"London", "Paris", "Tokyo"},
		DefaultDays:  7,

		HistoryMaxEntries: 100,
	}
}
