package core

import (
	"errors"
	"fmt"
)

// Sentinels for the error classes handlers map to HTTP statuses. Wrapped
// errors carry detail; callers classify with errors.Is.
var (
	// ErrValidation marks missing or malformed required input, rejected
	// before any external call.
	ErrValidation = errors.New("invalid input")
	// ErrNotFound marks a referenced persona or user that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotReady marks a persona whose summary has not been synthesized yet.
	ErrNotReady = errors.New("persona not ready")
	// ErrUpstreamTimeout marks enrichment that did not complete within the
	// polling budget. The record is not corrupt, only not-yet-ready.
	ErrUpstreamTimeout = errors.New("enrichment timed out")
	// ErrPersistence marks a failed record store write.
	ErrPersistence = errors.New("persistence failed")
)

// ValidationError wraps ErrValidation with a field-level reason.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundError wraps ErrNotFound with the missing resource.
func NotFoundError(resource, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, resource, id)
}

// PersistenceError wraps a record store failure so it is never masked by a
// later step succeeding.
func PersistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}

// UpstreamStatusError reports a non-success status from the LLM gateway or the
// enrichment webhook, preserving the upstream status code for diagnostics.
type UpstreamStatusError struct {
	Service string
	Status  int
	Body    string
}

func (e *UpstreamStatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Status, e.Body)
	}
	return fmt.Sprintf("%s returned status %d", e.Service, e.Status)
}

// AsUpstreamStatus extracts an UpstreamStatusError from an error chain.
func AsUpstreamStatus(err error) (*UpstreamStatusError, bool) {
	var ue *UpstreamStatusError
	ok := errors.As(err, &ue)
	return ue, ok
}
