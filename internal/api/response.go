package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/flowgenius/flowdex/internal/domain"
)

// Response is the envelope returned by every JSON endpoint.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody carries a machine-readable code and a human-readable message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes a 2xx response wrapping data in the standard envelope.
func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, Response{Success: true, Data: data})
}

// Error writes an error response with the given status, code and message.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, Response{Success: false, Error: &ErrorBody{Code: code, Message: message}})
}

// JSON serializes v and writes it with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// DomainErrorToHTTP maps a domain error to an HTTP status code and error code.
func DomainErrorToHTTP(err error) (int, string) {
	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError, domain.ErrCodeInternalError
	}

	switch domainErr.Code {
	case domain.ErrCodeValidation, domain.ErrCodeConfig:
		return http.StatusBadRequest, domainErr.Code
	case domain.ErrCodeNotFound:
		return http.StatusNotFound, domainErr.Code
	case domain.ErrCodeLoad, domain.ErrCodeEmptyDocument:
		return http.StatusUnprocessableEntity, domainErr.Code
	case domain.ErrCodeEmbedding:
		return http.StatusBadGateway, domainErr.Code
	case domain.ErrCodePersist:
		return http.StatusInternalServerError, domainErr.Code
	default:
		return http.StatusInternalServerError, domain.ErrCodeInternalError
	}
}

// HandleError writes the appropriate error response for a domain error.
func HandleError(w http.ResponseWriter, err error) {
	status, code := DomainErrorToHTTP(err)

	message := err.Error()
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		message = "internal server error"
	}

	Error(w, status, code, message)
}
