package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized is wrapped by a ResponseError for HTTP 401. On the code
	// endpoint it means the session is no longer valid.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMalformedResponse is wrapped by a ResponseError for a 200 response
	// whose body lacks a required field or cannot be decoded.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrNoSession is returned by FetchCode when called without a session id.
	// No request is sent.
	ErrNoSession = errors.New("no session id")
)

// ResponseError describes a response the client could not treat as success.
// Body holds the raw response body for diagnostics.
type ResponseError struct {
	Op         string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *ResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v (status %d)", e.Op, e.Err, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

func (e *ResponseError) Unwrap() error { return e.Err }

// TransportError is returned when no usable response was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Kind classifies a client error.
type Kind int

const (
	KindNone Kind = iota
	KindTransport
	KindUnauthorized
	KindMalformed
	KindHTTP
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindMalformed:
		return "malformed"
	case KindHTTP:
		return "http"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// KindOf returns the failure kind of err. Errors not produced by this
// package are reported as KindTransport.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformed
	}
	var re *ResponseError
	if errors.As(err, &re) {
		return KindHTTP
	}
	return KindTransport
}

// Diagnostic returns the text shown to the user for err: the response body
// when the server sent one, the error text otherwise.
func Diagnostic(err error) string {
	var re *ResponseError
	if errors.As(err, &re) {
		if body := strings.TrimSpace(string(re.Body)); body != "" {
			return body
		}
		return http.StatusText(re.StatusCode)
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func statusError(op string, status int, body []byte) error {
	e := &ResponseError{Op: op, StatusCode: status, Body: body}
	if status == http.StatusUnauthorized {
		e.Err = ErrUnauthorized
	}
	return e
}

func malformed(op string, status int, body []byte) error {
	return &ResponseError{Op: op, StatusCode: status, Body: body, Err: ErrMalformedResponse}
}

// LogAttrs returns slog key/value pairs describing err, including the
// status and body of a ResponseError.
func LogAttrs(err error) []any {
	attrs := []any{"kind", KindOf(err).String(), "error", err}
	var re *ResponseError
	if errors.As(err, &re) {
		attrs = append(attrs, "status", re.StatusCode, "body", string(re.Body))
	}
	return attrs
}
