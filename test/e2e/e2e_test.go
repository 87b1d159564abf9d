//go:build e2e

package e2e

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write doc: %v", err)
	}
	return path
}

func TestE2E_IndexFlow(t *testing.T) {
	env := SetupEnv(t)
	defer env.Cleanup()

	env.RegisterTool("billing-api", "Billing API")
	docPath := writeDoc(t, "guide.md", sampleDocument(8))

	// Queue the document
	status, resp := env.Do(http.MethodPost, "/api/v1/index", map[string]interface{}{
		"tool_id":     "billing-api",
		"source_path": docPath,
	})
	if status != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %v", status, resp)
	}
	job := Data(t, resp)
	jobID, _ := job["id"].(string)
	if jobID == "" {
		t.Fatalf("job id missing in response: %v", resp)
	}
	if job["status"] != "pending" {
		t.Fatalf("expected pending job, got %v", job["status"])
	}

	// Nothing is stored until the worker runs
	status, resp = env.Do(http.MethodGet, "/api/v1/tools/billing-api/stats", nil)
	if status != http.StatusOK {
		t.Fatalf("stats failed: %d %v", status, resp)
	}
	if total := Data(t, resp)["total_chunks"].(float64); total != 0 {
		t.Fatalf("expected 0 chunks before worker, got %v", total)
	}

	env.DrainJobs()

	// Job is now completed
	status, resp = env.Do(http.MethodGet, "/api/v1/jobs/"+jobID, nil)
	if status != http.StatusOK {
		t.Fatalf("get job failed: %d %v", status, resp)
	}
	if got := Data(t, resp)["status"]; got != "completed" {
		t.Fatalf("expected completed job, got %v", got)
	}

	// Chunks were stored
	status, resp = env.Do(http.MethodGet, "/api/v1/tools/billing-api/stats", nil)
	if status != http.StatusOK {
		t.Fatalf("stats failed: %d %v", status, resp)
	}
	stats := Data(t, resp)
	total := stats["total_chunks"].(float64)
	if total < 2 {
		t.Fatalf("expected several chunks, got %v", total)
	}

	// Re-queueing the same document stores nothing new
	status, resp = env.Do(http.MethodPost, "/api/v1/index", map[string]interface{}{
		"tool_id":     "billing-api",
		"source_path": docPath,
	})
	if status != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %v", status, resp)
	}
	env.DrainJobs()

	status, resp = env.Do(http.MethodGet, "/api/v1/tools/billing-api/stats", nil)
	if got := Data(t, resp)["total_chunks"].(float64); got != total {
		t.Fatalf("re-index changed chunk count: %v != %v", got, total)
	}
}

func TestE2E_BatchAndJobFailure(t *testing.T) {
	env := SetupEnv(t)
	defer env.Cleanup()

	env.RegisterTool("search-api", "Search API")
	goodDoc := writeDoc(t, "good.md", sampleDocument(5))
	missingDoc := filepath.Join(t.TempDir(), "missing.md")

	status, resp := env.Do(http.MethodPost, "/api/v1/batch", map[string]interface{}{
		"documents": []map[string]interface{}{
			{"tool_id": "search-api", "source_path": goodDoc},
			{"tool_id": "search-api", "source_path": missingDoc},
			{"tool_id": "no-such-tool", "source_path": goodDoc},
		},
	})
	if status != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %v", status, resp)
	}
	data := Data(t, resp)
	accepted := data["accepted"].([]interface{})
	rejected := data["rejected"].([]interface{})
	if len(accepted) != 2 || len(rejected) != 1 {
		t.Fatalf("expected 2 accepted and 1 rejected, got %d/%d", len(accepted), len(rejected))
	}

	env.DrainJobs()

	// The good document completed, the missing one retried until failed
	var completed, failed int
	rows, err := env.Pool.Query(env.Ctx, "SELECT status FROM rag_index_jobs")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		switch s {
		case "completed":
			completed++
		case "failed":
			failed++
		}
	}
	if completed != 1 || failed != 1 {
		t.Fatalf("expected 1 completed and 1 failed job, got %d/%d", completed, failed)
	}

	status, resp = env.Do(http.MethodGet, "/api/v1/tools/search-api/stats", nil)
	if got := Data(t, resp)["total_chunks"].(float64); got < 1 {
		t.Fatalf("expected chunks from the good document, got %v", got)
	}
}

func TestE2E_CleanupRequiresConfirm(t *testing.T) {
	env := SetupEnv(t)
	defer env.Cleanup()

	env.RegisterTool("payments-api", "Payments API")
	docPath := writeDoc(t, "guide.md", sampleDocument(5))

	env.Do(http.MethodPost, "/api/v1/index", map[string]interface{}{
		"tool_id":     "payments-api",
		"source_path": docPath,
	})
	env.DrainJobs()

	// Without confirm nothing is deleted
	status, _ := env.Do(http.MethodDelete, "/api/v1/tools/payments-api/chunks", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 without confirm, got %d", status)
	}

	status, resp := env.Do(http.MethodGet, "/api/v1/tools/payments-api/stats", nil)
	if got := Data(t, resp)["total_chunks"].(float64); got < 1 {
		t.Fatalf("chunks were deleted without confirmation")
	}

	// With confirm everything for the tool goes away
	status, resp = env.Do(http.MethodDelete, "/api/v1/tools/payments-api/chunks?confirm=true", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, resp)
	}
	if deleted := Data(t, resp)["deleted"].(float64); deleted < 1 {
		t.Fatalf("expected deletions, got %v", deleted)
	}

	status, resp = env.Do(http.MethodGet, "/api/v1/tools/payments-api/stats", nil)
	if got := Data(t, resp)["total_chunks"].(float64); got != 0 {
		t.Fatalf("expected 0 chunks after cleanup, got %v", got)
	}
}
