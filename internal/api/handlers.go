package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/pipeline"
	"github.com/starford/ansuz/internal/store"
)

// Handler holds API route handlers.
type Handler struct {
	orch  *pipeline.Orchestrator
	store store.ProjectStore
}

// NewHandler creates a new Handler.
func NewHandler(orch *pipeline.Orchestrator, st store.ProjectStore) *Handler {
	return &Handler{orch: orch, store: st}
}

// CreateProject handles POST /projects.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "brand_name and main_keyword are required", err)
		return
	}

	p := &models.Project{
		BrandName:         req.BrandName,
		MainKeyword:       req.MainKeyword,
		LSIKeywords:       req.LSIKeywords,
		SecondaryKeywords: req.SecondaryKeywords,
		OutputLanguage:    req.OutputLanguage,
	}
	if err := h.orch.CreateProject(r.Context(), p); err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			writeError(w, http.StatusBadRequest, "invalid project", err)
			return
		}
		slog.Error("create project failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to create project", err)
		return
	}
	writeData(w, http.StatusCreated, "project created", p)
}

// RunWorkflow handles POST /projects/{id}/run-workflow.
func (h *Handler) RunWorkflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := h.orch.RunPlanningWorkflow(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeError(w, http.StatusNotFound, "project not found", err)
		case errors.Is(err, apperr.ErrConflict):
			writeError(w, http.StatusConflict, "a pipeline run is already in progress", err)
		default:
			slog.Error("planning workflow failed", slog.String("project_id", id), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "planning workflow failed", err)
		}
		return
	}
	writeData(w, http.StatusOK, "planning workflow completed", result)
}

// GenerateContent handles POST /projects/{id}/generate-content.
func (h *Handler) GenerateContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := h.orch.GenerateFullContent(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeError(w, http.StatusNotFound, "project not found", err)
		case errors.Is(err, apperr.ErrInvalidState), errors.Is(err, apperr.ErrValidation):
			writeError(w, http.StatusBadRequest, "run the planning workflow before generating content", err)
		case errors.Is(err, apperr.ErrConflict):
			writeError(w, http.StatusConflict, "a pipeline run is already in progress", err)
		default:
			slog.Error("content generation failed", slog.String("project_id", id), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "content generation failed", err)
		}
		return
	}
	writeData(w, http.StatusOK, "content generated", result)
}

// GetProject handles GET /projects/{id}.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found", err)
			return
		}
		slog.Error("get project failed", slog.String("project_id", id), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load project", err)
		return
	}
	writeData(w, http.StatusOK, "", p)
}

// ListProjects handles GET /projects with optional status filter and paging.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := models.Status(q.Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status value", nil)
		return
	}

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = 20
	}

	rows, total, err := h.store.List(r.Context(), store.Filter{
		Status: status,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		slog.Error("list projects failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list projects", err)
		return
	}
	if rows == nil {
		rows = []models.Project{}
	}

	totalPages := (total + limit - 1) / limit
	writeData(w, http.StatusOK, "", ProjectListResponse{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		Projects:   rows,
	})
}

// DeleteProject handles DELETE /projects/{id}.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found", err)
			return
		}
		slog.Error("delete project failed", slog.String("project_id", id), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to delete project", err)
		return
	}
	writeData(w, http.StatusOK, "project deleted", nil)
}
