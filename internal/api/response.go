package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mudancasja/leadqueue/internal/apperr"
	"github.com/mudancasja/leadqueue/internal/logger"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// respondJSON writes a JSON response with the given status code and data.
// If data is nil, only the status code and Content-Type header are written.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError writes a JSON error response with the given status code and message.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondValidationErrors writes a 400 response with a list of validation error details.
func respondValidationErrors(w http.ResponseWriter, details []string) {
	respondJSON(w, http.StatusBadRequest, errorResponse{
		Error:   "validation_failed",
		Details: details,
	})
}

// respondErr maps err through the apperr taxonomy. Server errors are logged
// with the correlation ID and their message is not exposed.
func respondErr(w http.ResponseWriter, r *http.Request, log zerolog.Logger, op string, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("op", op).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("correlation_id", logger.CorrelationIDFromContext(r.Context())).
			Msg("request failed")
		respondError(w, status, "internal server error")
		return
	}

	var validation *apperr.ValidationError
	if errors.As(err, &validation) {
		respondValidationErrors(w, []string{validation.Error()})
		return
	}
	respondError(w, status, err.Error())
}
