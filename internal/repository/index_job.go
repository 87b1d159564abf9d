package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowgenius/flowdex/internal/domain"
)

// IndexJobRepository handles persistence of queued index jobs.
type IndexJobRepository struct {
	db dbtx
}

func NewIndexJobRepository(pool *pgxpool.Pool) *IndexJobRepository {
	return &IndexJobRepository{db: pool}
}

func NewIndexJobRepositoryWithTx(tx pgx.Tx) *IndexJobRepository {
	return &IndexJobRepository{db: tx}
}

func (r *IndexJobRepository) Create(ctx context.Context, job *domain.IndexJob) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO rag_index_jobs (id, tool_id, source_path, source_type, title, status, retries, error, created_at, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		job.ID, job.ToolID, job.SourcePath, job.SourceType, nullableString(job.Title),
		job.Status, job.Retries, nullableString(job.Error), job.CreatedAt, job.ProcessedAt,
	)
	return err
}

func (r *IndexJobRepository) GetByID(ctx context.Context, id string) (*domain.IndexJob, error) {
	var job domain.IndexJob
	var title, errMsg pgtype.Text
	err := r.db.QueryRow(ctx,
		`SELECT id, tool_id, source_path, source_type, title, status, retries, error, created_at, processed_at
		 FROM rag_index_jobs WHERE id = $1`,
		id,
	).Scan(&job.ID, &job.ToolID, &job.SourcePath, &job.SourceType, &title, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIndexJobNotFound
		}
		return nil, err
	}
	if title.Valid {
		job.Title = title.String
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	return &job, nil
}

// ClaimPending atomically moves up to limit pending jobs to processing and
// returns them. SKIP LOCKED keeps concurrent workers from double-claiming.
func (r *IndexJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.IndexJob, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM rag_index_jobs
			 WHERE status = $1
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE rag_index_jobs
		 SET status = $3,
		     error = NULL,
		     processed_at = NULL
		 FROM cte
		 WHERE rag_index_jobs.id = cte.id
		 RETURNING rag_index_jobs.id, rag_index_jobs.tool_id, rag_index_jobs.source_path, rag_index_jobs.source_type,
		           rag_index_jobs.title, rag_index_jobs.status, rag_index_jobs.retries, rag_index_jobs.error,
		           rag_index_jobs.created_at, rag_index_jobs.processed_at`,
		domain.IndexJobStatusPending, limit, domain.IndexJobStatusProcessing,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.IndexJob
	for rows.Next() {
		var job domain.IndexJob
		var title, errMsg pgtype.Text
		if err := rows.Scan(&job.ID, &job.ToolID, &job.SourcePath, &job.SourceType, &title, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt); err != nil {
			return nil, err
		}
		if title.Valid {
			job.Title = title.String
		}
		if errMsg.Valid {
			job.Error = errMsg.String
		}
		jobs = append(jobs, &job)
	}

	return jobs, rows.Err()
}

func (r *IndexJobRepository) UpdateStatus(ctx context.Context, id string, status domain.IndexJobStatus, errMsg string) error {
	var processedAt *time.Time
	if status == domain.IndexJobStatusCompleted || status == domain.IndexJobStatusFailed {
		now := time.Now().UTC()
		processedAt = &now
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE rag_index_jobs SET status = $1, error = $2, processed_at = $3 WHERE id = $4`,
		status, nullableString(errMsg), processedAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrIndexJobNotFound
	}
	return nil
}

func (r *IndexJobRepository) IncrementRetries(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE rag_index_jobs SET retries = retries + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrIndexJobNotFound
	}
	return nil
}

// Requeue moves a processing job back to pending for another attempt.
func (r *IndexJobRepository) Requeue(ctx context.Context, id string, errMsg string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE rag_index_jobs SET status = $1, error = $2 WHERE id = $3`,
		domain.IndexJobStatusPending, nullableString(errMsg), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrIndexJobNotFound
	}
	return nil
}
