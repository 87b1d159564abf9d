package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/flowgenius/flowdex/internal/domain"
)

// ChunkRepository handles persistence of embedded knowledge chunks.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

func (r *ChunkRepository) Insert(ctx context.Context, chunks []domain.KnowledgeChunk) error {
	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO rag_knowledge_chunks
				(id, tool_id, source_path, source_type, title, content, content_hash, chunk_index, quality_score, embedding, metadata, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			c.ID,
			c.ToolID,
			c.SourcePath,
			c.SourceType,
			nullableString(c.Title),
			c.Content,
			c.ContentHash,
			c.ChunkIndex,
			c.QualityScore,
			pgvector.NewVector(c.Embedding),
			c.Metadata,
			createdAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ExistsByHash reports whether a chunk with the given content hash is
// already stored for the tool.
func (r *ChunkRepository) ExistsByHash(ctx context.Context, toolID, contentHash string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM rag_knowledge_chunks WHERE tool_id = $1 AND content_hash = $2
		 )`,
		toolID, contentHash,
	).Scan(&exists)
	return exists, err
}

// ExistingHashes returns the subset of the given content hashes that are
// already stored for the tool.
func (r *ChunkRepository) ExistingHashes(ctx context.Context, toolID string, hashes []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(hashes) == 0 {
		return existing, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT content_hash FROM rag_knowledge_chunks WHERE tool_id = $1 AND content_hash = ANY($2)`,
		toolID, hashes,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		existing[h] = struct{}{}
	}
	return existing, rows.Err()
}

// DeleteBySource removes the chunks indexed for one source of a tool and
// returns the number removed.
func (r *ChunkRepository) DeleteBySource(ctx context.Context, toolID, sourcePath string) (int64, error) {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM rag_knowledge_chunks WHERE tool_id = $1 AND source_path = $2`,
		toolID, sourcePath,
	)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}

// DeleteByTool removes every chunk stored for a tool and returns the number
// removed.
func (r *ChunkRepository) DeleteByTool(ctx context.Context, toolID string) (int64, error) {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM rag_knowledge_chunks WHERE tool_id = $1`,
		toolID,
	)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}

func (r *ChunkRepository) CountByTool(ctx context.Context, toolID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM rag_knowledge_chunks WHERE tool_id = $1`,
		toolID,
	).Scan(&count)
	return count, err
}

// GetToolStats aggregates per-source chunk counts and the highest quality
// samples for a tool.
func (r *ChunkRepository) GetToolStats(ctx context.Context, toolID string, sampleLimit int) (*domain.ToolKnowledgeStats, error) {
	if sampleLimit <= 0 {
		sampleLimit = 3
	}

	stats := &domain.ToolKnowledgeStats{ToolID: toolID}

	rows, err := r.db.Query(ctx,
		`SELECT source_path, source_type, COALESCE(title, ''), COUNT(*)
		 FROM rag_knowledge_chunks
		 WHERE tool_id = $1
		 GROUP BY source_path, source_type, title
		 ORDER BY source_path ASC`,
		toolID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.ToolSourceStats
		if err := rows.Scan(&s.SourcePath, &s.SourceType, &s.Title, &s.ChunkCount); err != nil {
			return nil, err
		}
		stats.Sources = append(stats.Sources, s)
		stats.TotalChunks += s.ChunkCount
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sampleRows, err := r.db.Query(ctx,
		`SELECT id, content, quality_score
		 FROM rag_knowledge_chunks
		 WHERE tool_id = $1
		 ORDER BY quality_score DESC, created_at ASC
		 LIMIT $2`,
		toolID, sampleLimit,
	)
	if err != nil {
		return nil, err
	}
	defer sampleRows.Close()

	for sampleRows.Next() {
		var sample domain.ChunkSample
		if err := sampleRows.Scan(&sample.ID, &sample.Content, &sample.QualityScore); err != nil {
			return nil, err
		}
		sample.Content = truncateContent(sample.Content, 200)
		stats.TopSamples = append(stats.TopSamples, sample)
	}
	return stats, sampleRows.Err()
}

// GetByID returns a stored chunk without its embedding payload.
func (r *ChunkRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgeChunk, error) {
	var c domain.KnowledgeChunk
	var title *string
	err := r.db.QueryRow(ctx,
		`SELECT id, tool_id, source_path, source_type, title, content, content_hash, chunk_index, quality_score, metadata, created_at
		 FROM rag_knowledge_chunks WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.ToolID, &c.SourcePath, &c.SourceType, &title, &c.Content, &c.ContentHash, &c.ChunkIndex, &c.QualityScore, &c.Metadata, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChunkNotFound
		}
		return nil, err
	}
	if title != nil {
		c.Title = *title
	}
	return &c, nil
}

// truncateContent shortens stats samples on rune boundaries so multibyte
// text is never cut mid-character.
func truncateContent(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
