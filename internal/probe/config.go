// Package probe exercises the backend through the weather client: every
// operation for every city, once, on a pool of workers.
package probe

import (
	"context"
	"errors"
	"time"

	"github.com/okian/weatherscope/internal/adapters/weatherapi"
	"github.com/okian/weatherscope/pkg/logger"
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	DefaultWorkers          = 4
)

// Sentinel kinds for probe errors.
var (
	ErrNoCities  = errors.New("no cities to probe")
	ErrNilClient = errors.New("nil client")
)

// Client is the weather client surface the probe calls.
type Client interface {
	GetCurrentWeather(ctx context.Context, city string) (*weatherapi.Response[weatherapi.WeatherData], error)
	GetAverageWeather(ctx context.Context, city string, days int) (*weatherapi.Response[weatherapi.AverageWeather], error)
	GetTrends(ctx context.Context, city string, days int) (*weatherapi.Response[[]weatherapi.WeatherData], error)
	GetHistory(ctx context.Context, city string) (*weatherapi.Response[[]weatherapi.WeatherData], error)
}

// Config holds configuration for a probe run.
type Config struct {
	Cities  []string // Cities to probe; repeats are probed once
	Days    int      // Window for the average and trends operations
	Workers int      // Number of concurrent workers

	// Logger receives progress and per-call failures. Nil discards them.
	Logger logger.Logger
}

// OpStats holds the outcome of one operation across all cities.
type OpStats struct {
	Operation  string        `json:"operation"`
	Calls      int           `json:"calls"`
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	MeanTime   time.Duration `json:"meanTime"`
	MaxTime    time.Duration `json:"maxTime"`
	// Failures maps city to the error text.
	Failures map[string]string `json:"failures,omitempty"`
}

// Report holds probe statistics.
type Report struct {
	Cities     []string      `json:"cities"`
	Days       int           `json:"days"`
	Workers    int           `json:"workers"`
	Operations []OpStats     `json:"operations"`
	StartTime  time.Time     `json:"startTime"`
	EndTime    time.Time     `json:"endTime"`
	Duration   time.Duration `json:"duration"`
}

// Failed returns the number of failed calls across every operation.
func (r *Report) Failed() int {
	n := 0
	for _, op := range r.Operations {
		n += op.Failed
	}
	return n
}
