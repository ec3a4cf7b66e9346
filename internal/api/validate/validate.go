package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/WesleyKlop/journali-api/internal/model"
)

// maxBodyBytes bounds request bodies read by ReadBody.
const maxBodyBytes = 1 << 20

// ReadBody reads a bounded, non-empty request body.
func ReadBody(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxBodyBytes+1))
	if err != nil {
		return nil, model.NewValidationError("body", "could not be read")
	}
	if len(b) > maxBodyBytes {
		return nil, model.NewValidationError("body", fmt.Sprintf("exceeds %d bytes", maxBodyBytes))
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil, model.NewValidationError("body", "is required")
	}
	return b, nil
}

// DecodeJSON unmarshals raw into dst, reporting syntax and type errors as validation errors.
func DecodeJSON(raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return model.NewValidationError(typeErr.Field, "has the wrong type")
		}
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// Credentials checks a username and password pair.
func Credentials(username, password string) error {
	if err := model.ValidateUsername(username); err != nil {
		return err
	}
	return model.ValidatePassword(password)
}

// OptionalID validates v when present.
func OptionalID(field string, v *string) error {
	if v == nil {
		return nil
	}
	return model.ValidateID(field, *v)
}
