package client

import (
	"fmt"
	"net/http"

	"github.com/WesleyKlop/journali-api/internal/model"
)

// APIError is a non-2xx response. It matches the model sentinel for its
// status code under errors.Is.
type APIError struct {
	Status  int
	Message string
}

func newAPIError(status int, message string) *APIError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{Status: status, Message: message}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("journali: %d %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch e.Status {
	case http.StatusNotFound:
		return target == model.ErrNotFound
	case http.StatusBadRequest:
		return target == model.ErrValidation
	case http.StatusUnauthorized:
		return target == model.ErrUnauthorized
	case http.StatusConflict:
		return target == model.ErrConflict
	}
	return false
}
