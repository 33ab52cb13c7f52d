package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Sami-Laayouni/ai-course-studio-sub002/internal/api"
	apiMiddleware "github.com/Sami-Laayouni/ai-course-studio-sub002/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	documentHandler := api.NewDocumentHandler(app.documentService)
	jobHandler := api.NewJobHandler(app.dispatcher)
	analysisHandler := api.NewAnalysisHandler(app.analysisService)

	r.Route("/api", func(r chi.Router) {
		// Document ingestion and inspection
		r.Post("/documents", documentHandler.CreateDocument)
		r.Get("/documents/{id}", documentHandler.GetDocument)
		r.Get("/documents/{id}/status", jobHandler.DocumentStatus)
		r.Post("/documents/{id}/jobs", documentHandler.EnqueueJob)

		// Job queue control
		r.Post("/jobs/dispatch", jobHandler.Dispatch)
		r.Get("/jobs/pending", jobHandler.PendingJobs)

		// AI-backed analyses
		r.Post("/analyses/review-responses", analysisHandler.AnalyzeReviewResponses)
		r.Post("/flashcards", analysisHandler.GenerateFlashcards)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
