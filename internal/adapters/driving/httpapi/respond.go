package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/paperbase/paperbase/internal/core/domain"
	"github.com/paperbase/paperbase/internal/logger"
)

// errorBody is the JSON error payload. Kind names the domain error
// category so clients can branch without parsing messages.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	ID    string `json:"id,omitempty"`
}

// writeJSON renders v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Encoding response: %v", err)
	}
}

// writeError maps a domain error onto an HTTP status and JSON body.
// Internal detail never leaks: unknown errors get a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind, message := classify(err)
	writeJSON(w, status, errorBody{
		Error: message,
		Kind:  kind,
		ID:    requestID(r.Context()),
	})
}

// classify maps the domain error taxonomy to HTTP.
func classify(err error) (status int, kind, message string) {
	var extErr *domain.ExtractionError
	var embErr *domain.EmbeddingError

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict", err.Error()
	case errors.Is(err, domain.ErrStaleIndex):
		return http.StatusConflict, "stale_index", err.Error()
	case errors.Is(err, domain.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, "unsupported_type", err.Error()
	case errors.Is(err, domain.ErrLLMUnavailable):
		return http.StatusNotImplemented, "llm_unavailable", err.Error()
	case errors.As(err, &extErr):
		return http.StatusUnprocessableEntity, "extraction_failed", extErr.Error()
	case errors.As(err, &embErr):
		return http.StatusBadGateway, "embedding_failed", embErr.Error()
	default:
		logger.Warn("Unclassified error: %v", err)
		return http.StatusInternalServerError, "internal", "internal server error"
	}
}
