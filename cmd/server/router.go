package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/jobd/internal/api"
	apiMiddleware "github.com/phrazzld/jobd/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	jobHandler := api.NewJobHandler(app.jobService)

	r.Route("/api", func(r chi.Router) {
		r.With(apiMiddleware.RateLimit(
			app.config.Server.SubmitRate,
			app.config.Server.SubmitBurst,
		)).Post("/jobs", jobHandler.SubmitJob)

		r.Get("/jobs/{key}/status", jobHandler.GetJobStatus)
		r.Get("/jobs/{key}/result", jobHandler.GetJobResult)
		r.Get("/stats", jobHandler.GetStats)
	})

	r.Get("/health", api.Health)

	return r
}
