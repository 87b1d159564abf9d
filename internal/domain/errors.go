package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeConfig        = "CONFIG_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeLoad          = "LOAD_ERROR"
	ErrCodeEmptyDocument = "EMPTY_DOCUMENT"
	ErrCodeEmbedding     = "EMBEDDING_ERROR"
	ErrCodePersist       = "PERSIST_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation and configuration errors
var (
	ErrInvalidSourceType    = NewDomainError(ErrCodeValidation, "invalid source type")
	ErrInvalidIndexJobState = NewDomainError(ErrCodeValidation, "invalid index job status")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrCleanupNotConfirmed  = NewDomainError(ErrCodeConfig, "cleanup requires explicit confirmation")
)

// Not found errors
var (
	ErrToolNotFound     = NewDomainError(ErrCodeNotFound, "tool not found")
	ErrChunkNotFound    = NewDomainError(ErrCodeNotFound, "knowledge chunk not found")
	ErrIndexJobNotFound = NewDomainError(ErrCodeNotFound, "index job not found")
)

// Load errors
var (
	ErrEmptyDocument     = NewDomainError(ErrCodeEmptyDocument, "document contains no extractable text")
	ErrUnsupportedFormat = NewDomainError(ErrCodeLoad, "document format not supported by extractor")
	ErrFetchFailed       = NewDomainError(ErrCodeLoad, "failed to fetch remote document")
	ErrDecodeFailed      = NewDomainError(ErrCodeLoad, "failed to decode document text")
)

// Embedding errors
var (
	ErrEmbeddingCountMismatch     = NewDomainError(ErrCodeEmbedding, "embedding count does not match batch size")
	ErrEmbeddingDimensionMismatch = NewDomainError(ErrCodeEmbedding, "embedding has unexpected dimensionality")
)
