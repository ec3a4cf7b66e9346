package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/WesleyKlop/journali-api/internal/model"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    statusCode,
		Message: message,
	})
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes a 401 that never says why authentication failed.
func WriteUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="journali"`)
	WriteError(w, http.StatusUnauthorized, "authentication required")
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteInternalError writes a 500 Internal Server Error response
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}

// WriteServiceError maps a service error onto its HTTP status. Storage and
// integrity failures are logged with their stack and reported opaquely.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve model.ValidationError
	switch {
	case errors.As(err, &ve):
		WriteBadRequest(w, ve.Error())
	case errors.Is(err, model.ErrValidation):
		WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrNotFound):
		WriteNotFound(w, "not found")
	case errors.Is(err, model.ErrUnauthorized):
		WriteUnauthorized(w)
	case errors.Is(err, model.ErrConflict):
		WriteError(w, http.StatusConflict, "already exists")
	default:
		ev := hlog.FromRequest(r).Error().Stack().Err(err)
		if errors.Is(err, model.ErrIntegrity) {
			ev = ev.Bool("integrity_violation", true)
		}
		ev.Msg("request failed")
		WriteInternalError(w, "internal error")
	}
}
