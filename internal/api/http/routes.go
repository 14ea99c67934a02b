package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new HTTP router with configured routes, middleware, and handlers.
// It sets up batch routes, health check, and Prometheus metrics endpoint.
func NewRouter(batchService BatchServiceI, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	batchHandler := NewBatchHandler(batchService, logger)

	r.Route("/batches", func(r chi.Router) {
		r.Post("/", batchHandler.CreateBatch)
		r.Get("/", batchHandler.ListBatches)
		r.Get("/{batchID}", batchHandler.GetBatch)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
