package router

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one navigation recorded by a History.
type Entry struct {
	ID       uuid.UUID         `json:"id"`
	Location string            `json:"location"`
	Route    string            `json:"route"`
	Params   map[string]string `json:"params,omitempty"`
	At       time.Time         `json:"at"`
}

// History is the navigation-history strategy of a Router.
type History interface {
	// Base is the normalized base path: "/" or "/prefix" without a trailing slash.
	Base() string
	// Current returns the active entry, false before the first navigation.
	Current() (Entry, bool)
	Push(e Entry)
	Replace(e Entry)
	// Go moves delta entries through the stack and returns the new active entry.
	Go(delta int) (Entry, error)
	// Entries returns the entries this strategy keeps, oldest first.
	Entries() []Entry
}

// normalizeBase turns "", "/", "dash", "/dash/" into "/" or "/dash".
func normalizeBase(base string) string {
	base = strings.Trim(strings.TrimSpace(base), "/")
	if base == "" {
		return "/"
	}
	return "/" + base
}

// joinBase prefixes path with base.
func joinBase(base, path string) string {
	if base == "/" {
		return path
	}
	if path == "/" {
		return base + "/"
	}
	return base + path
}

// stripBase removes base from target when target starts with it on a
// segment boundary. Targets given without the base are returned unchanged.
func stripBase(base, target string) string {
	if base == "/" || !strings.HasPrefix(target, base) {
		return target
	}
	rest := target[len(base):]
	switch {
	case rest == "":
		return "/"
	case rest[0] == '/', rest[0] == '?', rest[0] == '#':
		return rest
	}
	return target
}

// webHistory leaves the stack to the browser: it only tracks the current
// location. Moving through history is the browser's job.
type webHistory struct {
	mu      sync.RWMutex
	base    string
	current *Entry
}

// NewWebHistory returns the browser-integrated strategy rooted at base.
func NewWebHistory(base string) History {
	return &webHistory{base: normalizeBase(base)}
}

func (h *webHistory) Base() string { return h.base }

func (h *webHistory) Current() (Entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return Entry{}, false
	}
	return *h.current, true
}

func (h *webHistory) Push(e Entry) { h.Replace(e) }

func (h *webHistory) Replace(e Entry) {
	h.mu.Lock()
	h.current = &e
	h.mu.Unlock()
}

func (h *webHistory) Go(int) (Entry, error) { return Entry{}, ErrNoHistory }

func (h *webHistory) Entries() []Entry {
	if e, ok := h.Current(); ok {
		return []Entry{e}
	}
	return nil
}

// DefaultMaxEntries bounds a memory history unless WithMaxEntries says otherwise.
const DefaultMaxEntries = 100

// memoryHistory keeps the stack in process, for tests and for environments
// without a browser. Once full, each push drops the oldest entry.
type memoryHistory struct {
	mu      sync.RWMutex
	base    string
	entries []Entry
	pos     int
	max     int
}

// MemoryOption configures a memory history.
type MemoryOption func(*memoryHistory)

// WithMaxEntries caps the number of entries kept. Values below 1 are ignored.
func WithMaxEntries(n int) MemoryOption {
	return func(h *memoryHistory) {
		if n > 0 {
			h.max = n
		}
	}
}

// NewMemoryHistory returns an in-memory strategy rooted at base.
func NewMemoryHistory(base string, opts ...MemoryOption) History {
	h := &memoryHistory{base: normalizeBase(base), pos: -1, max: DefaultMaxEntries}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *memoryHistory) Base() string { return h.base }

func (h *memoryHistory) Current() (Entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.pos < 0 {
		return Entry{}, false
	}
	return h.entries[h.pos], true
}

// Push drops any forward entries before appending, then the oldest entries
// past the cap.
func (h *memoryHistory) Push(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.pos+1], e)
	if over := len(h.entries) - h.max; over > 0 {
		n := copy(h.entries, h.entries[over:])
		clear(h.entries[n:])
		h.entries = h.entries[:n]
	}
	h.pos = len(h.entries) - 1
}

func (h *memoryHistory) Replace(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pos < 0 {
		h.entries = []Entry{e}
		h.pos = 0
		return
	}
	h.entries[h.pos] = e
}

func (h *memoryHistory) Go(delta int) (Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := h.pos + delta
	if h.pos < 0 || next < 0 || next >= len(h.entries) {
		return Entry{}, ErrNoHistory
	}
	h.pos = next
	return h.entries[h.pos], nil
}

func (h *memoryHistory) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}
