// Package transport performs signed provider calls for the dispatch layer.
// It owns everything the rest of the engine treats as a collaborator:
// credential resolution, endpoint construction, wire protocols, timeouts,
// and the optional custom trust bundle. It classifies nothing and retries
// nothing; both are dispatch concerns.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/spyglass-dev/spyglass/registry"
)

var (
	// ErrCredentials marks a failure to resolve credentials for a profile.
	ErrCredentials = errors.New("credential resolution failed")
	// ErrDecode marks a response body that did not parse as expected.
	ErrDecode = errors.New("response decode failed")
)

// Call is one fully resolved external invocation.
type Call struct {
	Profile   string
	Region    string
	Endpoint  string // optional override, e.g. http://localhost:4566
	Service   registry.ServiceDescriptor
	Operation string
	Method    string // rest-json only
	Path      string // rest-json only, may contain {Param} segments
	Params    map[string]any
}

// Transport performs exactly one external call and returns the decoded
// semi-structured response.
type Transport interface {
	RoundTrip(ctx context.Context, call Call) (any, error)
}

// APIError is a provider-reported failure: HTTP status plus the provider's
// error code and message.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s (status %d): %s", e.Code, e.StatusCode, e.Message)
}
