// Package pagination provides utilities around page tokens.
package pagination

import (
	"encoding/base64"
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

var (
	tokenEncoding = base64.RawURLEncoding
	validate      = validator.New(validator.WithRequiredStructEnabled())
)

// EventsToken resumes an event listing after the last event shown.
type EventsToken struct {
	AfterID uint64 `json:"after_id" validate:"required"`
}

// TokenError is an opaque error related to pagination tokens. The error message
// does not reveal internal details; use [errors.Unwrap] to access the cause.
type TokenError struct {
	cause error
}

// Error satisfies [error].
func (terr TokenError) Error() string {
	return "invalid pagination token"
}

// Unwrap returns the underlying cause of the token error.
func (terr TokenError) Unwrap() error {
	return terr.cause
}

// FromToken decodes an opaque pagination token into a T, which must be a
// struct. Returns a [TokenError] if decoding or validation fails.
func FromToken[T any](tkn string) (out T, err error) {
	data, err := tokenEncoding.DecodeString(tkn)
	if err != nil {
		return out, TokenError{cause: err}
	}
	if err = json.Unmarshal(data, &out); err != nil {
		return out, TokenError{cause: err}
	}
	if err = validate.Struct(out); err != nil {
		return out, TokenError{cause: err}
	}
	return out, nil
}

// ToToken encodes a struct into an opaque pagination token. Returns a
// [TokenError] if validation or encoding fails.
func ToToken(msg any) (string, error) {
	if err := validate.Struct(msg); err != nil {
		return "", TokenError{cause: err}
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return "", TokenError{cause: err}
	}
	return tokenEncoding.EncodeToString(data), nil
}
