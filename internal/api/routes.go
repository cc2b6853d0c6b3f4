package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://app.podsight.io", "http://localhost:5173", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/models", h.HandleModels)

		r.Route("/conversions", func(r chi.Router) {
			r.Post("/", h.HandleCreateConversion)
			r.Post("/{id}/attribute", h.HandleAttribute)
			r.Get("/{id}/results", h.HandleConversionResults)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/{id}/summary", h.HandleCampaignSummary)
			r.Put("/{id}/spend", h.HandleSetSpend)
		})
	})

	return r
}
