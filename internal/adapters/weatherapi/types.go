package weatherapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WeatherData is one stored observation for a city.
type WeatherData struct {
	ID          int64     `json:"id"`
	City        string    `json:"city"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Description string    `json:"description"`
	Timestamp   Timestamp `json:"timestamp"`
}

// AverageWeather is the mean temperature of a city over the last Days days.
// AverageTemperature is nil when the backend has no samples in the window.
type AverageWeather struct {
	City               string   `json:"city"`
	Days               int      `json:"days"`
	AverageTemperature *float64 `json:"averageTemperature"`
}

// Response is a decoded payload together with the response metadata.
type Response[T any] struct {
	Data       T
	StatusCode int
	Header     http.Header
}

// localLayout is the backend's date-time format: no zone, optional fraction.
const localLayout = "2006-01-02T15:04:05.999999999"

// Timestamp accepts the backend's zone-less date-times as well as RFC 3339.
// Zone-less values are read as UTC.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = v
		return nil
	}
	v, err := time.Parse(localLayout, s)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", s, err)
	}
	t.Time = v
	return nil
}

// MarshalJSON writes the backend's zone-less form.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(localLayout))
}
