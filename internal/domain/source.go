package domain

import (
	"path/filepath"
	"strings"
)

// SourceType identifies the kind of document behind a source path.
type SourceType string

const (
	SourceTypePDF      SourceType = "pdf"
	SourceTypeURL      SourceType = "url"
	SourceTypeText     SourceType = "text"
	SourceTypeMarkdown SourceType = "markdown"
)

// ValidateSourceType checks that a SourceType is one of the supported kinds.
func ValidateSourceType(t SourceType) error {
	switch t {
	case SourceTypePDF, SourceTypeURL, SourceTypeText, SourceTypeMarkdown:
		return nil
	}
	return ErrInvalidSourceType
}

// DetectSourceType infers the source type from a path or URL.
// Unknown file extensions fall back to plain text.
func DetectSourceType(sourcePath string) SourceType {
	if strings.HasPrefix(sourcePath, "http://") || strings.HasPrefix(sourcePath, "https://") {
		return SourceTypeURL
	}

	switch strings.ToLower(filepath.Ext(sourcePath)) {
	case ".pdf":
		return SourceTypePDF
	case ".md", ".markdown":
		return SourceTypeMarkdown
	default:
		return SourceTypeText
	}
}

// SourceMetadata carries auxiliary information collected while loading a document.
type SourceMetadata struct {
	ContentLength int                    `json:"content_length"`
	SourceType    SourceType             `json:"source_type"`
	PageCount     int                    `json:"page_count,omitempty"`
	HTTPStatus    int                    `json:"http_status,omitempty"`
	Encoding      string                 `json:"encoding,omitempty"`
	Extra         map[string]interface{} `json:"extra,omitempty"`
}
