package domain

import "time"

// IndexJobStatus represents the status of an async index job
type IndexJobStatus string

const (
	IndexJobStatusPending    IndexJobStatus = "pending"
	IndexJobStatusProcessing IndexJobStatus = "processing"
	IndexJobStatusCompleted  IndexJobStatus = "completed"
	IndexJobStatusFailed     IndexJobStatus = "failed"
)

// IndexJob represents a queued request to run the indexing pipeline for one
// document. Jobs are drained by the background worker.
type IndexJob struct {
	ID          string
	ToolID      string
	SourcePath  string
	SourceType  SourceType
	Title       string
	Status      IndexJobStatus
	Retries     int32
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// ValidateIndexJob validates an IndexJob before it is enqueued.
func ValidateIndexJob(j *IndexJob) error {
	if j == nil {
		return ErrMissingRequiredField
	}
	if j.ID == "" {
		return NewDomainError(ErrCodeValidation, "index job ID is required")
	}
	if j.ToolID == "" {
		return NewDomainError(ErrCodeValidation, "index job tool ID is required")
	}
	if j.SourcePath == "" {
		return NewDomainError(ErrCodeValidation, "index job source path is required")
	}
	if err := ValidateSourceType(j.SourceType); err != nil {
		return err
	}
	if !isValidIndexJobStatus(j.Status) {
		return ErrInvalidIndexJobState
	}
	if j.Retries < 0 {
		return NewDomainError(ErrCodeValidation, "index job retries cannot be negative")
	}
	return nil
}

func isValidIndexJobStatus(s IndexJobStatus) bool {
	switch s {
	case IndexJobStatusPending, IndexJobStatusProcessing,
		IndexJobStatusCompleted, IndexJobStatusFailed:
		return true
	}
	return false
}
