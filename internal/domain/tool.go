package domain

import "time"

// Tool is the entity that owns a scoped collection of knowledge chunks.
// Tools are imported from the product catalog; the indexer only validates
// ownership and never mutates catalog fields beyond registration.
type Tool struct {
	ID          string
	Name        string
	Description string
	Categories  []string
	IsActive    bool
	CreatedAt   time.Time
}

// ValidateTool validates a Tool instance before registration.
func ValidateTool(t *Tool) error {
	if t == nil {
		return ErrMissingRequiredField
	}
	if t.ID == "" {
		return NewDomainError(ErrCodeValidation, "tool ID is required")
	}
	if t.Name == "" {
		return NewDomainError(ErrCodeValidation, "tool name is required")
	}
	return nil
}

// ToolSourceStats summarizes the chunks stored for one source of a tool.
type ToolSourceStats struct {
	SourcePath string     `json:"source_path"`
	SourceType SourceType `json:"source_type"`
	Title      string     `json:"title"`
	ChunkCount int        `json:"chunk_count"`
}

// ChunkSample is a short preview of a stored chunk, used in stats output.
type ChunkSample struct {
	ID           string  `json:"id"`
	Content      string  `json:"content"`
	QualityScore float64 `json:"quality_score"`
}

// ToolKnowledgeStats aggregates the stored knowledge for one tool.
type ToolKnowledgeStats struct {
	ToolID      string            `json:"tool_id"`
	TotalChunks int               `json:"total_chunks"`
	Sources     []ToolSourceStats `json:"sources"`
	TopSamples  []ChunkSample     `json:"top_samples"`
}
