package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgenius/flowdex/internal/domain"
)

func scoredChunks(toolID string, n int) []domain.KnowledgeChunk {
	chunks := make([]domain.KnowledgeChunk, n)
	for i := range chunks {
		content := fmt.Sprintf("Chunk %d holds a distinct piece of the source document text.", i)
		chunks[i] = domain.KnowledgeChunk{
			ToolID:       toolID,
			SourcePath:   "docs/guide.md",
			SourceType:   domain.SourceTypeMarkdown,
			Title:        "Guide",
			Content:      content,
			ChunkIndex:   i,
			QualityScore: 0.6,
			Embedding:    make([]float32, testDim),
		}
	}
	return chunks
}

func TestPersister_InsertsNovelChunks(t *testing.T) {
	store := newMemStore()
	p := NewPersister(store, testDim)

	report, err := p.Persist(context.Background(), scoredChunks("tool-1", 3))

	require.NoError(t, err)
	assert.Equal(t, 3, report.Inserted)
	assert.Zero(t, report.SkippedDuplicate)
	assert.Zero(t, report.Failed)
	assert.Equal(t, 3, store.count("tool-1"))
}

func TestPersister_SecondRunSkipsEverything(t *testing.T) {
	store := newMemStore()
	p := NewPersister(store, testDim)

	_, err := p.Persist(context.Background(), scoredChunks("tool-1", 3))
	require.NoError(t, err)

	report, err := p.Persist(context.Background(), scoredChunks("tool-1", 3))
	require.NoError(t, err)
	assert.Zero(t, report.Inserted)
	assert.Equal(t, 3, report.SkippedDuplicate)
	assert.Equal(t, 3, store.count("tool-1"))
}

func TestPersister_HashIgnoresWhitespaceFormatting(t *testing.T) {
	store := newMemStore()
	p := NewPersister(store, testDim)

	chunks := scoredChunks("tool-1", 1)
	_, err := p.Persist(context.Background(), chunks)
	require.NoError(t, err)

	reformatted := scoredChunks("tool-1", 1)
	reformatted[0].Content = "  " + doubleSpaces(reformatted[0].Content) + "\n"

	report, err := p.Persist(context.Background(), reformatted)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SkippedDuplicate)
}

// doubleSpaces doubles interior spacing to exercise hash
// normalization.
func doubleSpaces(s string) string {
	out := make([]rune, 0, len(s)*2)
	for _, r := range s {
		out = append(out, r)
		if r == ' ' {
			out = append(out, ' ')
		}
	}
	return string(out)
}

func TestPersister_RejectsInvalidChunk(t *testing.T) {
	p := NewPersister(newMemStore(), testDim)

	chunks := scoredChunks("tool-1", 1)
	chunks[0].Embedding = make([]float32, testDim-1)

	_, err := p.Persist(context.Background(), chunks)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingDimensionMismatch)
}

func TestPersister_StoreFailureIsPersistError(t *testing.T) {
	store := newMemStore()
	store.insertErr = errors.New("connection reset")
	p := NewPersister(store, testDim)

	report, err := p.Persist(context.Background(), scoredChunks("tool-1", 2))

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodePersist, domainErr.Code)
	assert.Equal(t, 1, report.Failed)
}

func TestPersister_ConcurrentIdenticalContentInsertsOnce(t *testing.T) {
	store := newMemStore()
	p := NewPersister(store, testDim)

	const workers = 8
	var wg sync.WaitGroup
	reports := make([]*PersistReport, workers)

	for w := 0; w < workers; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[w], _ = p.Persist(context.Background(), scoredChunks("tool-1", 2))
		}()
	}
	wg.Wait()

	inserted := 0
	for _, r := range reports {
		require.NotNil(t, r)
		inserted += r.Inserted
	}
	assert.Equal(t, 2, inserted, "each distinct hash must be inserted exactly once")
	assert.Equal(t, 2, store.count("tool-1"))
}

func TestPersister_Cleanup(t *testing.T) {
	store := newMemStore()
	p := NewPersister(store, testDim)

	guide := scoredChunks("tool-1", 2)
	readme := scoredChunks("tool-1", 2)
	for i := range readme {
		readme[i].SourcePath = "docs/readme.md"
		readme[i].Content = fmt.Sprintf("Readme paragraph %d with different content entirely.", i)
	}
	_, err := p.Persist(context.Background(), guide)
	require.NoError(t, err)
	_, err = p.Persist(context.Background(), readme)
	require.NoError(t, err)

	deleted, err := p.Cleanup(context.Background(), "tool-1", "docs/guide.md")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, 2, store.count("tool-1"))

	deleted, err = p.Cleanup(context.Background(), "tool-1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Zero(t, store.count("tool-1"))
}
