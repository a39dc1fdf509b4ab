package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/pipeline"
	"github.com/starford/ansuz/internal/store"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(orch *pipeline.Orchestrator, st store.ProjectStore, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(orch, st)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Projects CRUD.
	r.Post("/projects", h.CreateProject)
	r.Get("/projects", h.ListProjects)
	r.Get("/projects/{id}", h.GetProject)
	r.Delete("/projects/{id}", h.DeleteProject)

	// Pipeline operations.
	r.Post("/projects/{id}/run-workflow", h.RunWorkflow)
	r.Post("/projects/{id}/generate-content", h.GenerateContent)

	// Status event stream (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
