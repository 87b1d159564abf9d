package pipeline

import (
	"time"

	"github.com/flowgenius/flowdex/internal/domain"
)

// Options holds the pipeline tuning knobs. Validated once at construction;
// stages may assume the ranges hold.
type Options struct {
	// ChunkSize is the target chunk length in approximate token units.
	ChunkSize int
	// ChunkOverlap is how far each chunk reaches back into its predecessor.
	ChunkOverlap int
	// BatchSize bounds the number of texts per embedding request.
	BatchSize int
	// MinChunkChars is the quality floor: chunks shorter than this are
	// merged into their predecessor, never stored alone.
	MinChunkChars int
	// RateLimitDelay is the pacing interval between embedding requests.
	RateLimitDelay time.Duration
	// MaxRetries bounds retry attempts for transient embedding failures.
	MaxRetries int
	// EmbeddingDimensions is the expected vector length for every chunk.
	EmbeddingDimensions int
	// FetchTimeout bounds HTTP document fetches.
	FetchTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		ChunkSize:           1000,
		ChunkOverlap:        200,
		BatchSize:           10,
		MinChunkChars:       100,
		RateLimitDelay:      100 * time.Millisecond,
		MaxRetries:          3,
		EmbeddingDimensions: 1536,
		FetchTimeout:        30 * time.Second,
	}
}

func (o Options) Validate() error {
	if o.ChunkSize <= 0 {
		return domain.NewDomainError(domain.ErrCodeConfig, "chunk_size must be positive")
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		return domain.NewDomainError(domain.ErrCodeConfig, "chunk_overlap must be non-negative and less than chunk_size")
	}
	if o.BatchSize <= 0 {
		return domain.NewDomainError(domain.ErrCodeConfig, "batch_size must be positive")
	}
	if o.MinChunkChars < 0 {
		return domain.NewDomainError(domain.ErrCodeConfig, "min_chunk_chars cannot be negative")
	}
	if o.RateLimitDelay < 0 {
		return domain.NewDomainError(domain.ErrCodeConfig, "rate_limit_delay cannot be negative")
	}
	if o.MaxRetries < 0 {
		return domain.NewDomainError(domain.ErrCodeConfig, "max_retries cannot be negative")
	}
	if o.EmbeddingDimensions <= 0 {
		return domain.NewDomainError(domain.ErrCodeConfig, "embedding_dimensions must be positive")
	}
	if o.FetchTimeout <= 0 {
		return domain.NewDomainError(domain.ErrCodeConfig, "fetch_timeout must be positive")
	}
	return nil
}
