// Package apperrors provides the error types returned by every berth package.
// Each failure is attributable to exactly one kind: a connection error, a
// daemon error, a decode error or a usage error.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/containerd/errdefs"
)

// Framing failures of the multiplexed output stream.
var (
	ErrTruncatedFrame = errors.New("stream ended inside a frame")
	ErrUnknownStream  = errors.New("unknown stream type in frame header")
)

// ConnectionError represents a failure to reach the daemon or a connection
// that broke while a request or stream was in flight.
type ConnectionError struct {
	Addr string // Daemon address (e.g., unix:///var/run/docker.sock)
	Op   string // Operation that failed (e.g., "GET /containers/json")
	Err  error  // Underlying error
}

// Error implements the error interface for ConnectionError.
func (e *ConnectionError) Error() string {
	switch {
	case e.Addr != "" && e.Op != "":
		return fmt.Sprintf("daemon connection failed (daemon: %s, op: %s): %v", e.Addr, e.Op, e.Err)
	case e.Addr != "":
		return fmt.Sprintf("daemon connection failed (daemon: %s): %v", e.Addr, e.Err)
	case e.Op != "":
		return fmt.Sprintf("daemon connection failed (op: %s): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("daemon connection failed: %v", e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// DaemonError represents a non-2xx answer from the daemon. Message is the
// daemon-provided text, verbatim.
type DaemonError struct {
	StatusCode int    // HTTP status code
	Message    string // Daemon "message" field, or the status text if the body had none
	Method     string // Request method
	Path       string // Request path, without query
}

// Error implements the error interface for DaemonError.
func (e *DaemonError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("daemon error (status: %d, %s %s): %s", e.StatusCode, e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("daemon error (status: %d): %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code onto its containerd errdefs class, so that
// errdefs.IsNotFound(err) and friends work on daemon errors.
func (e *DaemonError) Unwrap() error {
	return classify(e.StatusCode)
}

func classify(status int) error {
	switch status {
	case http.StatusNotModified:
		return errdefs.ErrNotModified
	case http.StatusBadRequest:
		return errdefs.ErrInvalidArgument
	case http.StatusUnauthorized:
		return errdefs.ErrUnauthenticated
	case http.StatusForbidden:
		return errdefs.ErrPermissionDenied
	case http.StatusNotFound:
		return errdefs.ErrNotFound
	case http.StatusConflict:
		return errdefs.ErrConflict
	case http.StatusPreconditionFailed:
		return errdefs.ErrFailedPrecondition
	case http.StatusNotImplemented:
		return errdefs.ErrNotImplemented
	case http.StatusServiceUnavailable:
		return errdefs.ErrUnavailable
	}
	if status >= 500 {
		return errdefs.ErrInternal
	}
	return errdefs.ErrUnknown
}

// DecodeError represents a malformed or schema-violating payload. At least
// one of Field, Offset or Line locates the failure.
type DecodeError struct {
	Field  string // JSON field that failed (e.g., "[1].Id")
	Offset int64  // Byte offset in the payload or stream
	Line   int    // 1-based line number for line-delimited streams, 0 otherwise
	Err    error  // Underlying error
}

// Error implements the error interface for DecodeError.
func (e *DecodeError) Error() string {
	switch {
	case e.Line > 0 && e.Field != "":
		return fmt.Sprintf("decode error at line %d (field: %s): %v", e.Line, e.Field, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("decode error at line %d: %v", e.Line, e.Err)
	case e.Field != "":
		return fmt.Sprintf("decode error (field: %s): %v", e.Field, e.Err)
	default:
		return fmt.Sprintf("decode error at offset %d: %v", e.Offset, e.Err)
	}
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UsageError represents invalid input given to an option builder or a
// handle method, detected when the request is encoded.
type UsageError struct {
	Field  string // Option or argument name
	Reason string // What is wrong with it
}

// Error implements the error interface for UsageError.
func (e *UsageError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StatusCode returns the HTTP status of a DaemonError anywhere in err's chain.
func StatusCode(err error) (int, bool) {
	var de *DaemonError
	if errors.As(err, &de) {
		return de.StatusCode, true
	}
	return 0, false
}
