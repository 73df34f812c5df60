package submission

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrEmptyEndpoint is returned by New when no endpoint is configured.
	ErrEmptyEndpoint = errors.New("submission: endpoint is required")
	// ErrNoPayload is returned when Submit is called without a validated
	// payload. No request is issued and no notification is sent.
	ErrNoPayload = errors.New("submission: validated payload is required")
	// ErrResponseTooLarge marks a 2xx body that exceeded the read limit. It
	// is wrapped in a *ResponseFormatError.
	ErrResponseTooLarge = errors.New("response body too large")

	errEmptyBody = errors.New("empty response body")
)

// Error kinds used in logs and notification templates.
const (
	KindTransport      = "transport"
	KindStatus         = "status"
	KindResponseFormat = "response_format"
)

// TransportError reports a request that could not complete or that the
// classifier answered with a non-2xx status. StatusCode is zero when no
// response arrived.
type TransportError struct {
	AttemptID  string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("submission: classifier returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("submission: request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Kind distinguishes status failures from network failures.
func (e *TransportError) Kind() string {
	if e.StatusCode != 0 {
		return KindStatus
	}
	return KindTransport
}

// Timeout reports whether the request failed because a deadline passed.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// ResponseFormatError reports a 2xx response whose body is not JSON or is
// larger than the read limit. Users
// see the same failure as a TransportError; logs keep the distinction.
type ResponseFormatError struct {
	AttemptID  string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("submission: malformed classifier response: %v", e.Err)
}

func (e *ResponseFormatError) Unwrap() error {
	return e.Err
}

// Kind returns KindResponseFormat.
func (e *ResponseFormatError) Kind() string {
	return KindResponseFormat
}

// ErrorKind classifies err as one of the Kind* constants, or "" when err is
// not a submission failure.
func ErrorKind(err error) string {
	var transport *TransportError
	if errors.As(err, &transport) {
		return transport.Kind()
	}
	var format *ResponseFormatError
	if errors.As(err, &format) {
		return KindResponseFormat
	}
	return ""
}
