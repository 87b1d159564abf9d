package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flowgenius/flowdex/internal/api"
	"github.com/flowgenius/flowdex/internal/domain"
)

type ToolStore interface {
	Create(ctx context.Context, tool *domain.Tool) error
	GetByID(ctx context.Context, id string) (*domain.Tool, error)
	List(ctx context.Context) ([]*domain.Tool, error)
}

type KnowledgeOps interface {
	Stats(ctx context.Context, toolID string) (*domain.ToolKnowledgeStats, error)
	Cleanup(ctx context.Context, toolID, sourcePath string, confirm bool) (int64, error)
}

// ToolHandler exposes tool registration plus per-tool knowledge stats and
// chunk cleanup.
type ToolHandler struct {
	tools     ToolStore
	knowledge KnowledgeOps
}

func NewToolHandler(tools ToolStore, knowledge KnowledgeOps) *ToolHandler {
	return &ToolHandler{tools: tools, knowledge: knowledge}
}

type CreateToolRequest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}

type ToolResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	IsActive    bool     `json:"is_active"`
	CreatedAt   string   `json:"created_at"`
}

type CleanupResponse struct {
	ToolID     string `json:"tool_id"`
	SourcePath string `json:"source_path,omitempty"`
	Deleted    int64  `json:"deleted"`
}

func toolToResponse(t *domain.Tool) ToolResponse {
	return ToolResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Categories:  t.Categories,
		IsActive:    t.IsActive,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Create handles POST /api/v1/tools.
func (h *ToolHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid request body")
		return
	}

	tool := &domain.Tool{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Categories:  req.Categories,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := domain.ValidateTool(tool); err != nil {
		api.HandleError(w, err)
		return
	}

	if err := h.tools.Create(r.Context(), tool); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, toolToResponse(tool))
}

// List handles GET /api/v1/tools.
func (h *ToolHandler) List(w http.ResponseWriter, r *http.Request) {
	tools, err := h.tools.List(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]ToolResponse, 0, len(tools))
	for _, t := range tools {
		resp = append(resp, toolToResponse(t))
	}
	api.Success(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/tools/{id}.
func (h *ToolHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	tool, err := h.tools.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, toolToResponse(tool))
}

// Stats handles GET /api/v1/tools/{id}/stats.
func (h *ToolHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	stats, err := h.knowledge.Stats(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, stats)
}

// DeleteChunks handles DELETE /api/v1/tools/{id}/chunks. The confirm query
// parameter must be set to true; an optional source_path narrows the
// deletion to one source.
func (h *ToolHandler) DeleteChunks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sourcePath := r.URL.Query().Get("source_path")
	confirm := r.URL.Query().Get("confirm") == "true"

	deleted, err := h.knowledge.Cleanup(r.Context(), id, sourcePath, confirm)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, CleanupResponse{
		ToolID:     id,
		SourcePath: sourcePath,
		Deleted:    deleted,
	})
}
