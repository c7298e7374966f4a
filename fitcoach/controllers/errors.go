package controllers

import (
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrQuotaExceeded   = errors.New("message quota exceeded")
	ErrModelNotAllowed = errors.New("model not available for account tier")
	ErrNotFound        = errors.New("not found")
	ErrNoStreams       = errors.New("no streams found")
	ErrNoRecentStream  = errors.New("no recent stream found")
)

// ValidationError carries the schema violations of a rejected payload.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Issues, "; ")
}

// Caller identifies the authenticated requester.
type Caller struct {
	UserID   string
	UserType string
}
