package gyazo

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid gyazo configuration")
	// ErrInvalidImageID indicates an empty image ID was passed to an image endpoint
	ErrInvalidImageID = errors.New("image ID is required")
	// ErrEmptyImage indicates an upload was attempted without image data
	ErrEmptyImage = errors.New("image data is empty")
	// ErrTransport is matched by every *TransportError
	ErrTransport = errors.New("gyazo transport error")
)

// genericErrorMessage is used when an error body carries no message.
const genericErrorMessage = "Error"

// TransportError represents a failure to reach the API or read its response.
type TransportError struct {
	Op  string
	URL string
	Err error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("gyazo %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports ErrTransport as a match so callers can classify without errors.As.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// DecodeError represents a response body that could not be decoded.
// Err is the untouched encoding/json error.
type DecodeError struct {
	Body []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode gyazo response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// APIError represents a Gyazo API error (status >= 400)
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("gyazo API error: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
