package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Transient is implemented by errors that are expected to self-resolve on
// retry. Both the retry policy and the DLQ gate consume it.
type Transient interface {
	IsTransient() bool
}

// IsTransient reports whether err (or anything it wraps) is flagged transient.
// Plain network-level errors and deadline expiry count as transient.
func IsTransient(err error) bool {
	var t Transient
	if errors.As(err, &t) {
		return t.IsTransient()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// NetworkError wraps connection-level failures. Transient by default.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string     { return fmt.Sprintf("network error during %s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error     { return e.Err }
func (e *NetworkError) IsTransient() bool { return true }

// APIError wraps an HTTP-level failure from a provider.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error during %s: status %d: %s", e.Op, e.Status, e.Body)
}

// IsTransient reports retryability based on status: timeouts, rate limits and
// upstream 5xx are expected to clear.
func (e *APIError) IsTransient() bool {
	switch e.Status {
	case 408, 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// NotFound reports whether the API said the resource does not exist. Callers
// use this to distinguish "missing" (not yet mined) from real failure.
func (e *APIError) NotFound() bool { return e.Status == 404 }

// DataParsingError wraps a malformed payload. Never transient: the same bytes
// will fail again.
type DataParsingError struct {
	Op  string
	Err error
}

func (e *DataParsingError) Error() string     { return fmt.Sprintf("parse error during %s: %v", e.Op, e.Err) }
func (e *DataParsingError) Unwrap() error     { return e.Err }
func (e *DataParsingError) IsTransient() bool { return false }

// DatabaseError wraps a coordination-store failure. Transient only when the
// store client marked it so.
type DatabaseError struct {
	Op        string
	Err       error
	Retryable bool
}

func (e *DatabaseError) Error() string     { return fmt.Sprintf("store error during %s: %v", e.Op, e.Err) }
func (e *DatabaseError) Unwrap() error     { return e.Err }
func (e *DatabaseError) IsTransient() bool { return e.Retryable }

// CircuitOpenError is returned when a breaker rejects a call without invoking
// it. Transient, but callers must back off rather than retry immediately.
type CircuitOpenError struct {
	Service string
}

func (e *CircuitOpenError) Error() string     { return fmt.Sprintf("circuit open for %s", e.Service) }
func (e *CircuitOpenError) IsTransient() bool { return true }

// IsCircuitOpen reports whether err is a breaker rejection.
func IsCircuitOpen(err error) bool {
	var o *CircuitOpenError
	return errors.As(err, &o)
}

// IsNotFound reports whether err is a provider 404.
func IsNotFound(err error) bool {
	var a *APIError
	return errors.As(err, &a) && a.NotFound()
}
