package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/thbase/pkg/middleware"
)

// routes builds the router.
func (s *Server) routes() http.Handler {
	cfg := s.config
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recoverer(s.logger))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Prometheus(middleware.WithNamespace(metricsNamespace(cfg.Name))))
	}
	r.Use(middleware.OpenTelemetry(
		middleware.WithTracerName(cfg.Tracing.Name),
		middleware.WithRequestFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != cfg.Metrics.Path
		}),
	))

	r.Get("/", s.handleIndex)
	r.Method(http.MethodPost, "/", s.submission)

	if s.disk != nil {
		images := strings.TrimRight(cfg.Images.Prefix, "/") + "/*"
		r.Get(images, s.handleImage)
		r.Head(images, s.handleImage)
	}

	r.Route("/api/records", func(r chi.Router) {
		r.Get("/", s.handleCategories)
		r.Get("/{th}", s.handleCategory)
	})
	r.Get("/ws/records", s.feed.ServeHTTP)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	if cfg.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Metrics.Path, promhttp.Handler())
	}

	return r
}

// metricsNamespace turns the service name into a Prometheus namespace.
func metricsNamespace(name string) string {
	if name == "" {
		return "thbase"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, name)
}
