package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions configures NewRouter
type RouterOptions struct {
	Environment    string
	RequestTimeout time.Duration
}

// NewRouter mounts h behind the standard middleware stack, with /health and /metrics.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{
			"status":      "healthy",
			"environment": opts.Environment,
			"bucket":      h.issuer.Bucket(),
		})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/", h.Routes())

	return r
}
