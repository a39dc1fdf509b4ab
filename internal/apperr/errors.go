// Package apperr defines the application error taxonomy shared across layers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a referenced project does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation means required input is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidState means an operation was requested before its
	// precondition stage completed (e.g. content before outline).
	ErrInvalidState = errors.New("invalid state")
	// ErrConflict means a pipeline run is already in flight for the project.
	ErrConflict = errors.New("conflict")
	// ErrDocumentNotFound means a guideline document is missing or unreadable.
	ErrDocumentNotFound = errors.New("document not found")
)

// ProviderError wraps a failure from a remote generative-text or
// image-search provider, preserving the provider's own message.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Provider wraps err as a ProviderError for the named provider.
func Provider(name string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: name, Err: err}
}
