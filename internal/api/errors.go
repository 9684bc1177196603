package api

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/copytrade-backend/internal/errors"
	"github.com/copytrade-backend/internal/types"
)

// envelope is the uniform response shape of every endpoint.
type envelope struct {
	Success    bool                `json:"success"`
	Data       interface{}         `json:"data,omitempty"`
	Error      *types.ServiceError `json:"error,omitempty"`
	Message    string              `json:"message,omitempty"`
	Pagination *types.Pagination   `json:"pagination,omitempty"`
}

// respondJSON sends a success envelope.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	writeEnvelope(w, statusCode, envelope{Success: true, Data: data})
}

// respondPage sends a success envelope with pagination metadata.
func respondPage(w http.ResponseWriter, statusCode int, data interface{}, pagination types.Pagination) {
	writeEnvelope(w, statusCode, envelope{Success: true, Data: data, Pagination: &pagination})
}

// respondMessage sends a success envelope carrying only a message.
func respondMessage(w http.ResponseWriter, statusCode int, message string) {
	writeEnvelope(w, statusCode, envelope{Success: true, Message: message})
}

// respondError converts a service error into an error envelope. The HTTP
// status and error code come from the error's category.
func respondError(w http.ResponseWriter, err error) {
	categorized := apperrors.Categorize(err)
	writeEnvelope(w, categorized.StatusCode, envelope{
		Success: false,
		Error:   categorized.ToServiceError(),
		Message: categorized.Message,
	})
}

// respondErrorCode sends an error envelope for handler-level failures such
// as a malformed body or query parameter.
func respondErrorCode(w http.ResponseWriter, statusCode int, code, message string) {
	writeEnvelope(w, statusCode, envelope{
		Success: false,
		Error:   &types.ServiceError{Code: code, Message: message},
		Message: message,
	})
}

func writeEnvelope(w http.ResponseWriter, statusCode int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// parseJSONBody parses a JSON request body, rejecting unknown fields.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// Handler-level error codes.
const (
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)
