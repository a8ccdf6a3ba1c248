package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthExpired    = fmt.Errorf("authorization expired, re-authorize required")
	ErrRefreshFailed  = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken = fmt.Errorf("no refresh token available")
	ErrNoAccessToken  = fmt.Errorf("no access token available")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrLookupUnavailable  = fmt.Errorf("attribute lookup unavailable")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Synthesis errors
	ErrEmptyInput         = fmt.Errorf("empty input")
	ErrInsufficientSignal = fmt.Errorf("%w: no tracks resolved", ErrEmptyInput)

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)

// UpstreamError is a non-auth failure from a remote API. It is never retried.
//
// Timeout is set when the per-call deadline expired before a response arrived; Status is zero in that case.
type UpstreamError struct {
	Status  int
	Body    string
	Timeout bool
}

func (e *UpstreamError) Error() string {
	if e.Timeout {
		return "upstream error: timeout"
	}
	if e.Body == "" {
		return fmt.Sprintf("upstream error: status %d", e.Status)
	}
	return fmt.Sprintf("upstream error: status %d: %s", e.Status, e.Body)
}

// Is lets callers match any upstream failure with [ErrAPIRequest].
func (e *UpstreamError) Is(target error) bool {
	return target == ErrAPIRequest
}

// AsUpstream extracts an [UpstreamError] from err's chain.
func AsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
