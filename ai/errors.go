package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrNoActiveProvider is returned when no provider id was given and none
	// is active, or the given id is unknown.
	ErrNoActiveProvider = errors.New("no active AI provider found. Please configure an AI provider in settings")

	// ErrMissingCredential is returned when the resolved provider has no API key.
	ErrMissingCredential = errors.New("AI provider has no API key configured")

	// ErrUnsupportedProvider is returned when a provider name maps to no vendor.
	ErrUnsupportedProvider = errors.New("unsupported AI provider")
)

// ProcessingError wraps a transport, vendor or payload failure.
type ProcessingError struct {
	Provider string
	Err      error
}

func (e *ProcessingError) Error() string {
	return "AI processing failed: " + e.Err.Error()
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// IsConfigError reports whether err stems from provider configuration
// rather than a failed call.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrNoActiveProvider) ||
		errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrUnsupportedProvider)
}

func unsupported(name string) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedProvider, name)
}
