package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// KnowledgeChunk is a bounded span of a source document, the atomic unit of
// embedding and storage. Chunks are immutable once stored; updates are
// modeled as delete + reinsert.
type KnowledgeChunk struct {
	ID           string
	ToolID       string
	SourcePath   string
	SourceType   SourceType
	Title        string
	Content      string
	ContentHash  string
	ChunkIndex   int
	QualityScore float64
	Embedding    []float32
	Metadata     map[string]interface{}
	CreatedAt    time.Time
}

// NormalizeContent trims and collapses whitespace so that formatting-only
// differences do not defeat deduplication.
func NormalizeContent(content string) string {
	return strings.Join(strings.Fields(content), " ")
}

// ContentFingerprint returns the dedup fingerprint of a chunk's content:
// a hex sha256 over the normalized text. Fingerprints are unique per tool,
// not globally.
func ContentFingerprint(content string) string {
	sum := sha256.Sum256([]byte(NormalizeContent(content)))
	return hex.EncodeToString(sum[:])
}

// ValidateChunk checks invariants that must hold before a chunk is persisted.
func ValidateChunk(c *KnowledgeChunk, embeddingDim int) error {
	if c == nil {
		return ErrMissingRequiredField
	}
	if c.ToolID == "" || c.SourcePath == "" || c.Content == "" {
		return ErrMissingRequiredField
	}
	if err := ValidateSourceType(c.SourceType); err != nil {
		return err
	}
	if c.ContentHash == "" {
		return ErrMissingRequiredField
	}
	if c.ChunkIndex < 0 {
		return NewDomainError(ErrCodeValidation, "chunk index cannot be negative")
	}
	if c.QualityScore < 0 || c.QualityScore > 1 {
		return NewDomainError(ErrCodeValidation, "quality score must be within [0,1]")
	}
	if embeddingDim > 0 && len(c.Embedding) != embeddingDim {
		return ErrEmbeddingDimensionMismatch
	}
	return nil
}
