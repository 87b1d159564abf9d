package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSourceType(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected SourceType
	}{
		{"https URL", "https://example.com/docs", SourceTypeURL},
		{"http URL", "http://example.com/page.html", SourceTypeURL},
		{"pdf file", "/data/manual.PDF", SourceTypePDF},
		{"markdown file", "README.md", SourceTypeMarkdown},
		{"markdown long ext", "notes.markdown", SourceTypeMarkdown},
		{"txt file", "notes.txt", SourceTypeText},
		{"unknown extension falls back to text", "dump.log", SourceTypeText},
		{"no extension", "LICENSE", SourceTypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectSourceType(tt.path))
		})
	}
}

func TestValidateSourceType(t *testing.T) {
	for _, valid := range []SourceType{SourceTypePDF, SourceTypeURL, SourceTypeText, SourceTypeMarkdown} {
		assert.NoError(t, ValidateSourceType(valid))
	}

	assert.ErrorIs(t, ValidateSourceType("docx"), ErrInvalidSourceType)
	assert.ErrorIs(t, ValidateSourceType(""), ErrInvalidSourceType)
}

func TestValidateIndexJob(t *testing.T) {
	job := &IndexJob{
		ID:         "job-1",
		ToolID:     "tool-1",
		SourcePath: "https://example.com/docs",
		SourceType: SourceTypeURL,
		Status:     IndexJobStatusPending,
	}
	assert.NoError(t, ValidateIndexJob(job))

	assert.Error(t, ValidateIndexJob(nil))

	missing := *job
	missing.ToolID = ""
	assert.Error(t, ValidateIndexJob(&missing))

	badStatus := *job
	badStatus.Status = "queued"
	assert.ErrorIs(t, ValidateIndexJob(&badStatus), ErrInvalidIndexJobState)
}
