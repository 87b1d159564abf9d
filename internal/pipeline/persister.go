package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/flowgenius/flowdex/internal/domain"
)

// ChunkStore is the vector store surface the dedup engine needs.
// Satisfied by repository.ChunkRepository.
type ChunkStore interface {
	ExistsByHash(ctx context.Context, toolID, contentHash string) (bool, error)
	Insert(ctx context.Context, chunks []domain.KnowledgeChunk) error
	DeleteBySource(ctx context.Context, toolID, sourcePath string) (int64, error)
	DeleteByTool(ctx context.Context, toolID string) (int64, error)
	GetToolStats(ctx context.Context, toolID string, sampleLimit int) (*domain.ToolKnowledgeStats, error)
}

// PersistReport summarizes one persist run.
type PersistReport struct {
	Inserted         int `json:"inserted"`
	SkippedDuplicate int `json:"skipped_duplicate"`
	Failed           int `json:"failed"`
}

// Persister is the dedup/upsert engine: it fingerprints each chunk, skips
// content already stored for the tool, and inserts only novel chunks.
// Re-running persist for an unchanged document inserts zero rows.
type Persister struct {
	store ChunkStore
	dim   int
	locks *keyedMutex
}

func NewPersister(store ChunkStore, embeddingDim int) *Persister {
	return &Persister{
		store: store,
		dim:   embeddingDim,
		locks: newKeyedMutex(),
	}
}

// Persist writes the document's chunks. The check-then-insert sequence for
// each (tool_id, content_hash) runs under a keyed lock so concurrent
// documents cannot both pass the existence check for identical content.
func (p *Persister) Persist(ctx context.Context, chunks []domain.KnowledgeChunk) (*PersistReport, error) {
	report := &PersistReport{}

	for i := range chunks {
		c := &chunks[i]
		c.ContentHash = domain.ContentFingerprint(c.Content)
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now().UTC()
		}
		if err := domain.ValidateChunk(c, p.dim); err != nil {
			return report, domain.NewDomainErrorWithCause(domain.ErrCodePersist, "chunk failed validation", err)
		}

		inserted, err := p.persistOne(ctx, *c)
		if err != nil {
			report.Failed++
			return report, domain.NewDomainErrorWithCause(domain.ErrCodePersist, "store write failed", err)
		}
		if inserted {
			report.Inserted++
		} else {
			report.SkippedDuplicate++
		}
	}

	return report, nil
}

func (p *Persister) persistOne(ctx context.Context, c domain.KnowledgeChunk) (bool, error) {
	key := c.ToolID + ":" + c.ContentHash
	p.locks.Lock(key)
	defer p.locks.Unlock(key)

	exists, err := p.store.ExistsByHash(ctx, c.ToolID, c.ContentHash)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := p.store.Insert(ctx, []domain.KnowledgeChunk{c}); err != nil {
		return false, err
	}
	return true, nil
}

// Cleanup deletes stored chunks for a tool, optionally narrowed to one
// source path, and returns the number removed. Confirmation is enforced by
// the orchestrator, not here.
func (p *Persister) Cleanup(ctx context.Context, toolID, sourcePath string) (int64, error) {
	if sourcePath != "" {
		return p.store.DeleteBySource(ctx, toolID, sourcePath)
	}
	return p.store.DeleteByTool(ctx, toolID)
}
