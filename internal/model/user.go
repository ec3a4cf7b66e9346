package model

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// User is an account that owns items. PasswordHash is a bcrypt digest and never serialized.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserPatch carries the mutable user fields. PasswordHash must already be hashed.
type UserPatch struct {
	Username     *string
	PasswordHash *string
}

// usernameRx allows letters, digits, dot, hyphen and underscore.
var usernameRx = regexp.MustCompile(`^[A-Za-z0-9._\-]{3,64}$`)

func ValidateUsername(v string) error {
	if v == "" {
		return NewValidationError("username", "is required")
	}
	if !usernameRx.MatchString(v) {
		return NewValidationError("username", "must be 3-64 letters, digits, '.', '-' or '_'")
	}
	return nil
}

// ValidatePassword checks length only; bcrypt reads at most 72 bytes.
func ValidatePassword(v string) error {
	if v == "" {
		return NewValidationError("password", "is required")
	}
	if len(v) > 72 {
		return NewValidationError("password", "exceeds 72 bytes")
	}
	return nil
}

// ValidateID reports whether v is a well-formed identifier.
func ValidateID(field, v string) error {
	if v == "" {
		return NewValidationError(field, "is required")
	}
	if _, err := uuid.Parse(v); err != nil {
		return NewValidationError(field, "must be a UUID")
	}
	return nil
}
