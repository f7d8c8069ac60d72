package weatherapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel kinds for client errors.
var (
	ErrInvalidBaseURL = errors.New("invalid base url")
)

// HTTPError is returned when the backend answers with a non-2xx status.
// The body is kept verbatim.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

func (e *HTTPError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("%s %s: %s: %s", e.Method, e.URL, e.Status, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Status)
}

// Message extracts the "message" field the backend puts in its error bodies.
// It returns "" when the body is not such a document.
func (e *HTTPError) Message() string {
	var doc struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Body, &doc); err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Message)
}
