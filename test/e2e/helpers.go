//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowgenius/flowdex/internal/api/handlers"
	"github.com/flowgenius/flowdex/internal/jobs"
	"github.com/flowgenius/flowdex/internal/pipeline"
	"github.com/flowgenius/flowdex/internal/repository"
	"github.com/flowgenius/flowdex/internal/server"
	"github.com/flowgenius/flowdex/internal/testutil"
)

const embeddingDim = 1536

// fakeEmbedder produces deterministic vectors so the full pipeline runs
// without an OpenAI key.
type fakeEmbedder struct{}

func (fakeEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, embeddingDim)
		for j := range vec {
			vec[j] = float32((len(text)+i+j)%97) / 97
		}
		out[i] = vec
	}
	return out, nil
}

func (fakeEmbedder) Dimensions() int { return embeddingDim }

// TestEnv holds all resources for one end-to-end test.
type TestEnv struct {
	T      *testing.T
	Ctx    context.Context
	Pool   *pgxpool.Pool
	Server *httptest.Server
	Worker *jobs.IndexWorker
	Client *http.Client

	postgresC *testutil.PostgresContainer
}

// SetupEnv starts Postgres, migrates, wires the pipeline with a fake
// embedder and serves the real router in-process.
func SetupEnv(t *testing.T) *TestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	toolRepo := repository.NewToolRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	jobRepo := repository.NewIndexJobRepository(pool)

	opts := pipeline.DefaultOptions()
	opts.ChunkSize = 300
	opts.ChunkOverlap = 60
	opts.MinChunkChars = 40
	opts.RateLimitDelay = 0
	opts.EmbeddingDimensions = embeddingDim

	loader := pipeline.NewLoader(opts.FetchTimeout, nil)
	pipe, err := pipeline.New(loader, fakeEmbedder{}, chunkRepo, toolRepo, opts)
	if err != nil {
		t.Fatalf("failed to build pipeline: %v", err)
	}

	router := server.NewRouter(server.RouterConfig{
		IndexHandler: handlers.NewIndexHandler(jobRepo, toolRepo),
		ToolHandler:  handlers.NewToolHandler(toolRepo, pipe),
	})

	srv := httptest.NewServer(router)

	return &TestEnv{
		T:         t,
		Ctx:       ctx,
		Pool:      pool,
		Server:    srv,
		Worker:    jobs.NewIndexWorker(jobRepo, pipe),
		Client:    &http.Client{Timeout: 30 * time.Second},
		postgresC: pgC,
	}
}

// Cleanup releases all resources.
func (e *TestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.postgresC != nil {
		e.postgresC.Terminate(e.Ctx)
	}
}

// DrainJobs runs the worker until the queue is empty.
func (e *TestEnv) DrainJobs() {
	e.T.Helper()
	for i := 0; i < 10; i++ {
		if err := e.Worker.ProcessJobs(e.Ctx); err != nil {
			e.T.Fatalf("worker failed: %v", err)
		}
		var pending int
		err := e.Pool.QueryRow(e.Ctx,
			"SELECT COUNT(*) FROM rag_index_jobs WHERE status IN ('pending', 'processing')").Scan(&pending)
		if err != nil {
			e.T.Fatalf("failed to count jobs: %v", err)
		}
		if pending == 0 {
			return
		}
	}
	e.T.Fatal("jobs did not drain")
}

// Do performs an HTTP request against the test server and decodes the
// response envelope.
func (e *TestEnv) Do(method, path string, body interface{}) (int, map[string]interface{}) {
	e.T.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			e.T.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, e.Server.URL+path, reader)
	if err != nil {
		e.T.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		e.T.Fatalf("request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read response: %v", err)
	}

	var decoded map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			e.T.Fatalf("failed to decode response %q: %v", raw, err)
		}
	}
	return resp.StatusCode, decoded
}

// Data extracts the data object from a response envelope.
func Data(t *testing.T, resp map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no data object: %v", resp)
	}
	return data
}

// RegisterTool creates a tool through the API and fails the test on error.
func (e *TestEnv) RegisterTool(id, name string) {
	e.T.Helper()
	status, resp := e.Do(http.MethodPost, "/api/v1/tools", map[string]interface{}{
		"id":   id,
		"name": name,
	})
	if status != http.StatusCreated {
		e.T.Fatalf("failed to register tool: status %d, resp %v", status, resp)
	}
}

// sampleDocument returns text long enough to produce several chunks.
func sampleDocument(paragraphs int) string {
	var buf bytes.Buffer
	for i := 0; i < paragraphs; i++ {
		fmt.Fprintf(&buf, "Section %d covers the integration api in detail. ", i)
		buf.WriteString("The feature improves performance because batching reduces overhead. ")
		buf.WriteString("However, careful configuration is required. Therefore operators should read this guide.\n\n")
	}
	return buf.String()
}
