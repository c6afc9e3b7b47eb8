package domain

import "fmt"

// ValidationError is a missing or malformed input. Detected before any remote
// call and never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// AuthError is a failed signature or state check on an inbound request.
// Logged as a security event and never retried.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string { return e.Msg }

// NotFoundError means a credential row or remote resource does not exist.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// UpstreamError is a failed call to the commerce platform or the vendor
// backend: transport failure, a non-2xx status, or a 2xx response carrying a
// GraphQL errors array or field-level userErrors. Status is the HTTP status of
// the upstream response when one was received, zero otherwise.
type UpstreamError struct {
	Op      string
	Status  int
	Payload string
	Err     error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Payload != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Payload)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// UserFacing reports whether the upstream rejected the request at the
// application level (a 2xx response carrying errors or userErrors) rather than
// failing at the transport or server level. Application-level rejections map
// to 400, the rest to 502.
func (e *UpstreamError) UserFacing() bool {
	return e.Status >= 200 && e.Status < 300
}

// StoreError is a backing-store read or write failure. Safe for the caller to
// retry.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }
