package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/flowgenius/flowdex/internal/domain"
	"github.com/flowgenius/flowdex/internal/pipeline"
)

const (
	// MaxRetries is the maximum number of attempts for a failed index job
	MaxRetries = 3
	// claimBatchSize bounds how many jobs one poll drains
	claimBatchSize = 20
)

// IndexJobRepository defines the interface for index job persistence
type IndexJobRepository interface {
	// ClaimPending atomically claims up to limit pending jobs
	ClaimPending(ctx context.Context, limit int) ([]*domain.IndexJob, error)

	// UpdateStatus updates the status of an index job
	UpdateStatus(ctx context.Context, id string, status domain.IndexJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, id string) error
}

// Indexer runs the document pipeline for one queued job.
type Indexer interface {
	IndexDocument(ctx context.Context, req pipeline.IndexRequest) (*pipeline.DocumentReport, error)
}

// IndexWorker drains queued index jobs through the pipeline.
type IndexWorker struct {
	repo    IndexJobRepository
	indexer Indexer
}

// NewIndexWorker creates a new IndexWorker instance
func NewIndexWorker(repo IndexJobRepository, indexer Indexer) *IndexWorker {
	return &IndexWorker{
		repo:    repo,
		indexer: indexer,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IndexWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, claimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending index jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *IndexWorker) processJob(ctx context.Context, job *domain.IndexJob) error {
	log.Printf("Processing job %s: %s for tool %s", job.ID, job.SourcePath, job.ToolID)

	report, err := w.indexer.IndexDocument(ctx, pipeline.IndexRequest{
		ToolID:     job.ToolID,
		SourcePath: job.SourcePath,
		SourceType: job.SourceType,
		Title:      job.Title,
	})
	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.UpdateStatus(ctx, job.ID, domain.IndexJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("Job %s completed: %d chunks, %d inserted, %d duplicates",
		job.ID, report.ChunkCount, report.Persist.Inserted, report.Persist.SkippedDuplicate)
	return nil
}

// handleJobFailure requeues a failed job until its retry budget is spent.
func (w *IndexWorker) handleJobFailure(ctx context.Context, job *domain.IndexJob, jobErr error) error {
	log.Printf("Job %s failed: %v", job.ID, jobErr)

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("Job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.IndexJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	log.Printf("Job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.IndexJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
