package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowgenius/flowdex/internal/api"
	"github.com/flowgenius/flowdex/internal/api/handlers"
	"github.com/flowgenius/flowdex/internal/api/middleware"
)

type RouterConfig struct {
	IndexHandler *handlers.IndexHandler
	ToolHandler  *handlers.ToolHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/index", cfg.IndexHandler.Index)
		r.Post("/batch", cfg.IndexHandler.Batch)
		r.Get("/jobs/{id}", cfg.IndexHandler.GetJob)

		r.Route("/tools", func(r chi.Router) {
			r.Post("/", cfg.ToolHandler.Create)
			r.Get("/", cfg.ToolHandler.List)
			r.Get("/{id}", cfg.ToolHandler.Get)
			r.Get("/{id}/stats", cfg.ToolHandler.Stats)
			r.Delete("/{id}/chunks", cfg.ToolHandler.DeleteChunks)
		})
	})

	return r
}
