package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/flowgenius/flowdex/internal/api"
	"github.com/flowgenius/flowdex/internal/domain"
)

const maxBatchDocuments = 100

type JobQueue interface {
	Create(ctx context.Context, job *domain.IndexJob) error
	GetByID(ctx context.Context, id string) (*domain.IndexJob, error)
}

type ToolDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.Tool, error)
}

// IndexHandler accepts indexing requests and enqueues them for the
// background worker. Documents are not processed inline.
type IndexHandler struct {
	jobs  JobQueue
	tools ToolDirectory
}

func NewIndexHandler(jobs JobQueue, tools ToolDirectory) *IndexHandler {
	return &IndexHandler{jobs: jobs, tools: tools}
}

type IndexDocumentRequest struct {
	ToolID     string `json:"tool_id"`
	SourcePath string `json:"source_path"`
	SourceType string `json:"source_type,omitempty"`
	Title      string `json:"title,omitempty"`
}

type BatchIndexRequest struct {
	Documents []IndexDocumentRequest `json:"documents"`
}

type IndexJobResponse struct {
	ID          string `json:"id"`
	ToolID      string `json:"tool_id"`
	SourcePath  string `json:"source_path"`
	SourceType  string `json:"source_type"`
	Title       string `json:"title,omitempty"`
	Status      string `json:"status"`
	Retries     int32  `json:"retries"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at"`
	ProcessedAt string `json:"processed_at,omitempty"`
}

type BatchRejection struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type BatchIndexResponse struct {
	Accepted []IndexJobResponse `json:"accepted"`
	Rejected []BatchRejection   `json:"rejected,omitempty"`
}

func jobToResponse(j *domain.IndexJob) IndexJobResponse {
	resp := IndexJobResponse{
		ID:         j.ID,
		ToolID:     j.ToolID,
		SourcePath: j.SourcePath,
		SourceType: string(j.SourceType),
		Title:      j.Title,
		Status:     string(j.Status),
		Retries:    j.Retries,
		Error:      j.Error,
		CreatedAt:  j.CreatedAt.UTC().Format(time.RFC3339),
	}
	if j.ProcessedAt != nil {
		resp.ProcessedAt = j.ProcessedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// buildJob validates one request entry and turns it into a pending job.
func (h *IndexHandler) buildJob(ctx context.Context, req IndexDocumentRequest) (*domain.IndexJob, error) {
	if req.ToolID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "tool_id is required")
	}
	if req.SourcePath == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "source_path is required")
	}

	sourceType := domain.SourceType(req.SourceType)
	if req.SourceType == "" {
		sourceType = domain.DetectSourceType(req.SourcePath)
	} else if err := domain.ValidateSourceType(sourceType); err != nil {
		return nil, err
	}

	if _, err := h.tools.GetByID(ctx, req.ToolID); err != nil {
		return nil, err
	}

	job := &domain.IndexJob{
		ID:         uuid.NewString(),
		ToolID:     req.ToolID,
		SourcePath: req.SourcePath,
		SourceType: sourceType,
		Title:      req.Title,
		Status:     domain.IndexJobStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := domain.ValidateIndexJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// Index handles POST /api/v1/index. The document is queued and the job is
// returned with status 202.
func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	var req IndexDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid request body")
		return
	}

	job, err := h.buildJob(r.Context(), req)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if err := h.jobs.Create(r.Context(), job); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, jobToResponse(job))
}

// Batch handles POST /api/v1/batch. Each document is validated and queued
// independently; invalid entries are reported without failing the rest.
func (h *IndexHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid request body")
		return
	}

	if len(req.Documents) == 0 {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "documents is required")
		return
	}
	if len(req.Documents) > maxBatchDocuments {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "too many documents in one batch")
		return
	}

	resp := BatchIndexResponse{}
	for i, doc := range req.Documents {
		job, err := h.buildJob(r.Context(), doc)
		if err == nil {
			err = h.jobs.Create(r.Context(), job)
		}
		if err != nil {
			resp.Rejected = append(resp.Rejected, BatchRejection{Index: i, Reason: err.Error()})
			continue
		}
		resp.Accepted = append(resp.Accepted, jobToResponse(job))
	}

	status := http.StatusAccepted
	if len(resp.Accepted) == 0 {
		status = http.StatusBadRequest
	}
	api.JSON(w, status, api.Response{Success: len(resp.Accepted) > 0, Data: resp})
}

// GetJob handles GET /api/v1/jobs/{id}.
func (h *IndexHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "job id is required")
		return
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrIndexJobNotFound) {
			api.Error(w, http.StatusNotFound, domain.ErrCodeNotFound, "index job not found")
			return
		}
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, jobToResponse(job))
}
