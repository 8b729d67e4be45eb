package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrRateLimited       = errors.New("daily post limit reached")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflict")
	ErrExternal          = errors.New("external service error")

	ErrStateNotFound = errors.New("oauth state not found")
	ErrStateExpired  = errors.New("oauth state expired")
	ErrStateUsed     = errors.New("oauth state already used")

	ErrAccountUnavailable = errors.New("account cannot publish")
	ErrContainerNotReady  = errors.New("media container not ready")
	ErrContainerExpired   = errors.New("media container expired")
	ErrContainerFailed    = errors.New("media container failed processing")

	ErrAccountHasPosts = fmt.Errorf("%w: account has published or publishing posts, disconnect it instead", ErrConflict)
)

// ValidationError is returned when user input breaks a business rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
