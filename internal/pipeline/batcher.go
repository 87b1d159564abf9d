package pipeline

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/flowgenius/flowdex/internal/domain"
)

// Embedder is the embedding provider surface the batcher needs.
// Satisfied by openai.Client.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Batcher groups chunk texts into provider-sized requests, paces consecutive
// calls, and retries transient failures. The result preserves input order
// and 1:1 chunk-to-vector correspondence.
type Batcher struct {
	embedder  Embedder
	batchSize int
	limiter   *rate.Limiter
	retry     RetryPolicy
}

func NewBatcher(embedder Embedder, opts Options) *Batcher {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimitDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.RateLimitDelay), 1)
	}
	return &Batcher{
		embedder:  embedder,
		batchSize: opts.BatchSize,
		limiter:   limiter,
		retry:     DefaultRetryPolicy(opts.MaxRetries),
	}
}

// EmbedAll embeds every text, at most batchSize per provider request. Any
// batch that fails after retries fails the whole call: partial vectors are
// never returned, so the orchestrator can enforce all-or-nothing persists.
func (b *Batcher) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += b.batchSize {
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		if err := b.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var batchVectors [][]float32
		err := b.retry.Do(ctx, func(ctx context.Context) error {
			var embedErr error
			batchVectors, embedErr = b.embedder.GenerateEmbeddings(ctx, batch)
			return embedErr
		})
		if err != nil {
			if isHardEmbeddingError(err) {
				return nil, err
			}
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbedding,
				fmt.Sprintf("embedding batch %d-%d failed after retries", start, end-1), err)
		}

		vectors = append(vectors, batchVectors...)
	}

	if len(vectors) != len(texts) {
		return nil, domain.ErrEmbeddingCountMismatch
	}
	return vectors, nil
}

func isHardEmbeddingError(err error) bool {
	return errors.Is(err, domain.ErrEmbeddingCountMismatch) ||
		errors.Is(err, domain.ErrEmbeddingDimensionMismatch)
}
