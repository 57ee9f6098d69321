package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across services. Handlers translate these to HTTP
// statuses; QuotaExceeded is kept distinct from NotFound so the UI can render
// an upgrade prompt instead of a generic error.
var (
	ErrNotFound           = errors.New("not found")
	ErrExpired            = errors.New("expired")
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrUnknownKind        = errors.New("unknown field kind")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
)

// FieldError is one per-field failure, keyed by the field's id.
type FieldError struct {
	FieldID string `json:"fieldId"`
	Message string `json:"message"`
}

// ValidationError aggregates every field-level failure found in a candidate
// form definition. All failures are reported together, never just the first.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		if fe.FieldID == "" {
			parts[i] = fe.Message
		} else {
			parts[i] = fmt.Sprintf("%s: %s", fe.FieldID, fe.Message)
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
