package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for empty or malformed queries, before any network call.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTransport covers connectivity, DNS, TLS and timeout failures.
	ErrTransport = errors.New("transport error")
	// ErrMalformedResponse is returned when a response cannot be parsed or lacks required fields.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrProvider is returned when the data source answers with a well-formed error payload.
	ErrProvider = errors.New("provider error")
)

// InvalidInputError describes a rejected query or command argument.
type InvalidInputError struct {
	Field   string
	Message string
}

func (e *InvalidInputError) Error() string {
	return e.Message
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// TransportError wraps the underlying connection failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Failed to connect to backend: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// MalformedResponseError records why a response was rejected. Reason is kept for logs;
// the user-facing text is fixed.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	return "Invalid JSON from backend"
}

// Detail returns the reason suitable for logging.
func (e *MalformedResponseError) Detail() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

// ProviderError carries the provider's message verbatim, e.g. "No matching location found.".
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

func invalidInput(field, msg string) error {
	return &InvalidInputError{Field: field, Message: msg}
}

