package shared

import (
	"fmt"
	"net/http"
)

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrListingFailed      = fmt.Errorf("playlist listing failed")
	ErrCatalogUnavailable = fmt.Errorf("catalog search failed")

	// Playback errors
	ErrPlaybackFailed = fmt.Errorf("playback failed to start")
	ErrNoPreview      = fmt.Errorf("no preview available")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrEmptyQuery      = fmt.Errorf("search query is empty")
	ErrUnknownCategory = fmt.Errorf("unknown category")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// APIError is returned by the backend client for non-2xx responses.
//
// Message carries the backend's "message" field when the body has one.
type APIError struct {
	Status  int
	Message string
}

// NewAPIError builds an [APIError], falling back to "HTTP <code>: <text>" when message is empty.
func NewAPIError(status int, message string) *APIError {
	if message == "" {
		message = fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
	}
	return &APIError{Status: status, Message: message}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v: %s", ErrAPIRequest, e.Message)
}

// Unwrap lets callers match with errors.Is(err, ErrAPIRequest) and ErrPlaylistNotFound for 404s.
func (e *APIError) Unwrap() []error {
	if e.Status == http.StatusNotFound {
		return []error{ErrAPIRequest, ErrPlaylistNotFound}
	}
	return []error{ErrAPIRequest}
}
