package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/spyglass-dev/spyglass/transport"
)

// Class buckets every call failure into one retry/surface policy.
type Class int

const (
	// ClassAuth: invalid or expired credentials. Fatal for the profile,
	// never retried.
	ClassAuth Class = iota
	// ClassThrottling: rate limited. Retried with bounded backoff.
	ClassThrottling
	// ClassNotFound: resource or operation absent. Surfaced, not retried.
	ClassNotFound
	// ClassTransport: network or TLS failure. Retried once.
	ClassTransport
	// ClassMalformed: response did not parse. Fatal for the call.
	ClassMalformed
)

func (c Class) String() string {
	switch c {
	case ClassAuth:
		return "auth"
	case ClassThrottling:
		return "throttling"
	case ClassNotFound:
		return "not-found"
	case ClassTransport:
		return "transport"
	case ClassMalformed:
		return "malformed-response"
	default:
		return "unknown"
	}
}

// Error is a classified call failure.
type Error struct {
	Class   Class
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s error %s: %s", e.Class, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Class, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// IsClass reports whether err carries the given class.
func IsClass(err error, class Class) bool {
	var de *Error
	return errors.As(err, &de) && de.Class == class
}

// ErrMissingBinding is returned when an action parameter cannot be resolved
// from the row. No transport call is made.
var ErrMissingBinding = errors.New("missing action binding")

// throttlingCodes and authCodes are the provider error codes observed across
// services; classification falls back to HTTP status when no code matches.
var throttlingCodes = map[string]bool{
	"Throttling":                             true,
	"ThrottlingException":                    true,
	"TooManyRequestsException":               true,
	"RequestLimitExceeded":                   true,
	"RequestThrottled":                       true,
	"RequestThrottledException":              true,
	"ProvisionedThroughputExceededException": true,
}

var authCodes = map[string]bool{
	"UnrecognizedClientException": true,
	"InvalidClientTokenId":        true,
	"ExpiredToken":                true,
	"ExpiredTokenException":       true,
	"AccessDenied":                true,
	"AccessDeniedException":       true,
	"UnauthorizedOperation":       true,
	"AuthFailure":                 true,
	"MissingAuthenticationToken":  true,
	"SignatureDoesNotMatch":       true,
	"IncompleteSignature":         true,
}

// classify maps transport-level failures onto the error taxonomy.
func classify(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}

	var apiErr *transport.APIError
	if errors.As(err, &apiErr) {
		class := classFromAPI(apiErr)
		return &Error{Class: class, Code: apiErr.Code, Message: apiErr.Message, cause: err}
	}

	switch {
	case errors.Is(err, transport.ErrCredentials):
		return &Error{Class: ClassAuth, Message: err.Error(), cause: err}
	case errors.Is(err, transport.ErrDecode):
		return &Error{Class: ClassMalformed, Message: err.Error(), cause: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Class: ClassTransport, Message: "request timed out", cause: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Class: ClassTransport, Message: err.Error(), cause: err}
	}
	// URL errors and anything else reaching here came from the network path.
	return &Error{Class: ClassTransport, Message: err.Error(), cause: err}
}

func classFromAPI(apiErr *transport.APIError) Class {
	switch {
	case throttlingCodes[apiErr.Code], apiErr.StatusCode == 429:
		return ClassThrottling
	case authCodes[apiErr.Code], apiErr.StatusCode == 401, apiErr.StatusCode == 403:
		return ClassAuth
	case apiErr.StatusCode == 404, strings.Contains(apiErr.Code, "NotFound"):
		return ClassNotFound
	case apiErr.StatusCode >= 500:
		return ClassTransport
	default:
		// remaining 4xx responses share NotFound's policy: surfaced, not retried
		return ClassNotFound
	}
}
