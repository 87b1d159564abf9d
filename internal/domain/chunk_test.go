package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentFingerprint_Normalization(t *testing.T) {
	a := ContentFingerprint("Rate limits apply   to the\n\nembeddings endpoint.")
	b := ContentFingerprint("  Rate limits apply to the embeddings endpoint.  ")

	assert.Equal(t, a, b, "whitespace-only differences must hash identically")
	assert.Len(t, a, 64)
}

func TestContentFingerprint_Deterministic(t *testing.T) {
	content := "The API supports batch embedding requests."
	assert.Equal(t, ContentFingerprint(content), ContentFingerprint(content))
	assert.NotEqual(t, ContentFingerprint(content), ContentFingerprint(content+" Extra."))
}

func TestNormalizeContent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"collapses runs of spaces", "a   b    c", "a b c"},
		{"flattens newlines and tabs", "a\n\tb\n\nc", "a b c"},
		{"trims edges", "  hello world  ", "hello world"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeContent(tt.input))
		})
	}
}

func validTestChunk() *KnowledgeChunk {
	content := "A reasonably long chunk of content describing the tool."
	return &KnowledgeChunk{
		ToolID:       "tool-1",
		SourcePath:   "docs/guide.pdf",
		SourceType:   SourceTypePDF,
		Title:        "guide",
		Content:      content,
		ContentHash:  ContentFingerprint(content),
		ChunkIndex:   0,
		QualityScore: 0.7,
		Embedding:    make([]float32, 1536),
	}
}

func TestValidateChunk(t *testing.T) {
	require.NoError(t, ValidateChunk(validTestChunk(), 1536))
}

func TestValidateChunk_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *KnowledgeChunk)
	}{
		{"missing tool", func(c *KnowledgeChunk) { c.ToolID = "" }},
		{"missing content", func(c *KnowledgeChunk) { c.Content = "" }},
		{"missing hash", func(c *KnowledgeChunk) { c.ContentHash = "" }},
		{"bad source type", func(c *KnowledgeChunk) { c.SourceType = "docx" }},
		{"negative index", func(c *KnowledgeChunk) { c.ChunkIndex = -1 }},
		{"score out of range", func(c *KnowledgeChunk) { c.QualityScore = 1.5 }},
		{"wrong dimension", func(c *KnowledgeChunk) { c.Embedding = make([]float32, 42) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validTestChunk()
			tt.mutate(c)
			assert.Error(t, ValidateChunk(c, 1536))
		})
	}
}

func TestValidateChunk_Nil(t *testing.T) {
	assert.Error(t, ValidateChunk(nil, 1536))
}
