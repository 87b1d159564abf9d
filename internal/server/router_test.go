package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgenius/flowdex/internal/api/handlers"
	"github.com/flowgenius/flowdex/internal/domain"
)

type stubJobQueue struct{}

func (stubJobQueue) Create(context.Context, *domain.IndexJob) error { return nil }
func (stubJobQueue) GetByID(context.Context, string) (*domain.IndexJob, error) {
	return nil, domain.ErrIndexJobNotFound
}

type stubToolStore struct{}

func (stubToolStore) Create(context.Context, *domain.Tool) error { return nil }
func (stubToolStore) GetByID(context.Context, string) (*domain.Tool, error) {
	return nil, domain.ErrToolNotFound
}
func (stubToolStore) List(context.Context) ([]*domain.Tool, error) {
	return []*domain.Tool{}, nil
}

type stubKnowledgeOps struct{}

func (stubKnowledgeOps) Stats(context.Context, string) (*domain.ToolKnowledgeStats, error) {
	return &domain.ToolKnowledgeStats{}, nil
}
func (stubKnowledgeOps) Cleanup(context.Context, string, string, bool) (int64, error) {
	return 0, nil
}

func newTestRouter() http.Handler {
	return NewRouter(RouterConfig{
		IndexHandler: handlers.NewIndexHandler(stubJobQueue{}, stubToolStore{}),
		ToolHandler:  handlers.NewToolHandler(stubToolStore{}, stubKnowledgeOps{}),
	})
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestRouter_RequestIDHeader(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_RequestIDPassthrough(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-abc", w.Header().Get("X-Request-ID"))
}

func TestRouter_RoutesMounted(t *testing.T) {
	router := newTestRouter()

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/v1/tools", http.StatusOK},
		{http.MethodGet, "/api/v1/tools/ghost", http.StatusNotFound},
		{http.MethodGet, "/api/v1/jobs/missing", http.StatusNotFound},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, tc.status, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouter_RejectsOversizedBody(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/index", nil)
	req.ContentLength = 50 * 1024 * 1024
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
