// Package site serves the dashboard views over HTTP.
package site

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/weatherscope/internal/router"
	"github.com/okian/weatherscope/pkg/logger"
)

// Error constants
var (
	ErrRender = errors.New("view render failed")
)

// Navigator resolves a request target to a mounted view.
type Navigator interface {
	Navigate(ctx context.Context, to string, opts ...router.NavigateOption) (*router.Match, error)
}

// ErrorPages renders the 404, 405 and 500 pages.
type ErrorPages interface {
	RenderError(w io.Writer, title, message string) error
}

// Assets served from the embedded FS instead of the router.
var assets = []string{"/favicon.svg", "/robots.txt"}

// Register attaches the embedded assets and the page handler to r. The page
// handler takes every path no other route claimed.
func Register(_ context.Context, r chi.Router, h *RootHandler) {
	if r == nil {
		panic("router is nil")
	}
	files := http.FileServer(FS())
	for _, a := range assets {
		r.Method(http.MethodGet, a, files)
		r.Method(http.MethodHead, a, files)
	}
	r.NotFound(h.ServeHTTP)
	r.MethodNotAllowed(h.ServeHTTP)
}

// RootHandler navigates the router to the request target and renders the
// resulting view.
type RootHandler struct {
	nav    Navigator
	pages  ErrorPages
	logger logger.Logger
}

// NewRootHandler creates a new root handler.
func NewRootHandler(nav Navigator, pages ErrorPages, log logger.Logger) *RootHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RootHandler{nav: nav, pages: pages, logger: log}
}

// ServeHTTP handles GET and HEAD for every dashboard path.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		h.renderError(ctx, w, http.StatusMethodNotAllowed, "Method not allowed", r.Method+" is not supported")
		return
	}

	target := r.URL.RequestURI()
	m, err := h.nav.Navigate(ctx, target)
	if err != nil {
		if errors.Is(err, router.ErrNoMatch) {
			h.renderError(ctx, w, http.StatusNotFound, "Not found", "No page at "+r.URL.Path)
			return
		}
		h.logger.Error(ctx, "navigation failed", logger.String("target", target), logger.Error(err))
		h.renderError(ctx, w, http.StatusInternalServerError, "Something went wrong", "The page could not be loaded")
		return
	}

	var buf bytes.Buffer
	if err := m.View.Render(ctx, &buf, m.Props); err != nil {
		h.logger.Error(ctx, "render failed",
			logger.String("route", m.Name),
			logger.String("target", target),
			logger.Error(errors.Join(ErrRender, err)))
		h.renderError(ctx, w, http.StatusInternalServerError, "Something went wrong", "The page could not be rendered")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = buf.WriteTo(w)
	}
}

func (h *RootHandler) renderError(ctx context.Context, w http.ResponseWriter, status int, title, message string) {
	var buf bytes.Buffer
	if err := h.pages.RenderError(&buf, title, message); err != nil {
		h.logger.Warn(ctx, "error page render failed", logger.Error(err))
		http.Error(w, message, status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
