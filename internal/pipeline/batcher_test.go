package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgenius/flowdex/internal/domain"
)

func batcherOptions(batchSize int) Options {
	opts := testOptions()
	opts.BatchSize = batchSize
	return opts
}

func TestBatcher_SplitsIntoBatches(t *testing.T) {
	embedder := &stubEmbedder{}
	b := NewBatcher(embedder, batcherOptions(2))

	texts := []string{"one", "two", "three", "four", "five"}
	vectors, err := b.EmbedAll(context.Background(), texts)

	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for _, v := range vectors {
		assert.Len(t, v, testDim)
	}

	require.Len(t, embedder.batches, 3)
	assert.Equal(t, []string{"one", "two"}, embedder.batches[0])
	assert.Equal(t, []string{"three", "four"}, embedder.batches[1])
	assert.Equal(t, []string{"five"}, embedder.batches[2])
}

func TestBatcher_EmptyInput(t *testing.T) {
	b := NewBatcher(&stubEmbedder{}, batcherOptions(10))

	vectors, err := b.EmbedAll(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestBatcher_RetriesRateLimitErrors(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	embedder := &stubEmbedder{failOn: func([]string) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return &openai.APIError{HTTPStatusCode: 429, Message: "rate limited"}
		}
		return nil
	}}

	opts := batcherOptions(10)
	b := NewBatcher(embedder, opts)
	b.retry.InitialBackoff = 1
	b.retry.MaxBackoff = 1

	vectors, err := b.EmbedAll(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.Equal(t, 2, calls)
}

func TestBatcher_ExhaustedRetriesFailTheCall(t *testing.T) {
	embedder := &stubEmbedder{failOn: func([]string) error {
		return &openai.APIError{HTTPStatusCode: 429, Message: "rate limited"}
	}}

	b := NewBatcher(embedder, batcherOptions(10))
	b.retry.InitialBackoff = 1
	b.retry.MaxBackoff = 1

	vectors, err := b.EmbedAll(context.Background(), []string{"a"})

	require.Error(t, err)
	assert.Nil(t, vectors)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeEmbedding, domainErr.Code)
}

func TestBatcher_CountMismatchIsHardError(t *testing.T) {
	calls := 0
	embedder := &stubEmbedder{failOn: func([]string) error {
		calls++
		return domain.ErrEmbeddingCountMismatch
	}}

	b := NewBatcher(embedder, batcherOptions(10))

	_, err := b.EmbedAll(context.Background(), []string{"a", "b"})

	assert.ErrorIs(t, err, domain.ErrEmbeddingCountMismatch)
	assert.Equal(t, 1, calls, "mismatches must not be retried")
}

func TestBatcher_PreservesOrderAcrossBatches(t *testing.T) {
	embedder := &stubEmbedder{}
	b := NewBatcher(embedder, batcherOptions(3))

	texts := make([]string, 10)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk %02d", i)
	}

	vectors, err := b.EmbedAll(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	// The stub derives each vector from text length and batch position, so
	// the value expected at global index i follows from its batch slot.
	for i, text := range texts {
		expected := float64(len(text)+i%3) * 0.01
		assert.InDelta(t, expected, float64(vectors[i][0]), 1e-6, "vector %d out of order", i)
	}
}
