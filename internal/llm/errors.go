package llm

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
)

// Model call failure kinds. Every error returned by a FeedbackEvaluator
// implementation matches exactly one of them with errors.Is.
var (
	ErrAuthentication = errors.New("model authentication failed")
	ErrRateLimited    = errors.New("model rate limited")
	ErrQuotaExhausted = errors.New("model quota exhausted")
	ErrTransport      = errors.New("model transport error")
)

// APIError describes a failed model call.
type APIError struct {
	Kind       error  // one of the Err* kinds above
	StatusCode int    // HTTP status, 0 when no response was received
	Code       string // provider error code, e.g. "insufficient_quota"
	Message    string
	Cause      error
}

func (e *APIError) Error() string {
	msg := e.Kind.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Code != "" {
		msg += " [" + e.Code + "]"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *APIError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func (e *APIError) GRPCCode() codes.Code {
	switch e.Kind {
	case ErrAuthentication:
		return codes.Unauthenticated
	case ErrRateLimited, ErrQuotaExhausted:
		return codes.ResourceExhausted
	default:
		return codes.Unavailable
	}
}

// StatusError is returned by SendJSON for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-2xx status: %d", e.StatusCode)
}
