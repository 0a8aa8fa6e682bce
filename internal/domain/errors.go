package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSearchUnavailable signals that the search engine could not serve the request.
	ErrSearchUnavailable = errors.New("search service unavailable")
	// ErrProductNotFound signals a missing product.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidRequest signals a request that cannot be normalized.
	ErrInvalidRequest = errors.New("invalid request")
)

// UnavailableError wraps ErrSearchUnavailable with the engine name and upstream cause.
type UnavailableError struct {
	Engine string
	Cause  error
}

func (e *UnavailableError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", ErrSearchUnavailable.Error(), e.Engine)
	}
	return fmt.Sprintf("%s: %s: %v", ErrSearchUnavailable.Error(), e.Engine, e.Cause)
}

func (e *UnavailableError) Unwrap() error { return ErrSearchUnavailable }

// Diagnostic returns the upstream message suitable for operators.
func (e *UnavailableError) Diagnostic() string {
	if e.Cause == nil {
		return e.Engine + " is unavailable"
	}
	return e.Cause.Error()
}

// NewUnavailable creates a search-unavailable error for the given engine.
func NewUnavailable(engine string, cause error) error {
	return &UnavailableError{Engine: engine, Cause: cause}
}
