// Package http is lip's HTTP/JSON transport.
package http

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/lip/internal/logging"
	"github.com/dmitrijs2005/lip/internal/server/http/middleware"
	"github.com/go-chi/chi/v5"
)

type Options struct {
	Logger  logging.Logger
	Timeout time.Duration
	Metrics *Metrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	// Ready backs /healthz; nil means always ready.
	Ready *atomic.Bool
}

// NewRouter wires the lip routes and middleware onto a chi router.
func NewRouter(e Engine, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recover(opts.Logger),
		middleware.RequestID(),
		middleware.Logging(opts.Logger),
		middleware.Timeout(opts.Timeout),
	)

	h := NewHandlers(e, opts.Metrics)

	r.Get("/", h.Index)
	r.Post("/create", h.Create)
	r.Post("/jwt", h.Token)
	r.Post("/invalidatejwt", h.InvalidateToken)
	r.Post("/update", h.Update)
	r.Post("/retrieve", h.Retrieve)
	r.Post("/delete", h.Delete)

	r.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if opts.Ready == nil || opts.Ready.Load() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.NotFound)

	return r
}
