package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = errors.New("configuration not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrMissingCredentials = errors.New("missing credentials")

	// Store errors
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")

	// Provider link errors
	ErrNotLinked    = errors.New("spotify is not linked")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTimeout      = errors.New("timed out")

	// Upstream errors, see [UpstreamError]
	ErrUpstreamAuth = errors.New("upstream authorization failed")
	ErrUpstreamAPI  = errors.New("upstream API request failed")
)

// UpstreamKind tells which provider surface rejected a request.
type UpstreamKind int

const (
	KindAuth UpstreamKind = iota // token endpoint
	KindAPI                      // data API
)

// UpstreamError carries the provider's status code and response body verbatim.
type UpstreamError struct {
	Kind   UpstreamKind
	Status int
	Body   []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%v: status %d, body: %s", e.Unwrap(), e.Status, string(e.Body))
}

// Unwrap returns [ErrUpstreamAuth] or [ErrUpstreamAPI] depending on Kind.
func (e *UpstreamError) Unwrap() error {
	if e.Kind == KindAuth {
		return ErrUpstreamAuth
	}
	return ErrUpstreamAPI
}

// AsUpstream extracts an [UpstreamError] from err's chain.
func AsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
