package apperrors

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
)

func TestConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ConnectionError
		expected string
	}{
		{
			name:     "address and operation",
			err:      &ConnectionError{Addr: "unix:///var/run/docker.sock", Op: "GET /_ping", Err: io.ErrUnexpectedEOF},
			expected: "daemon connection failed (daemon: unix:///var/run/docker.sock, op: GET /_ping): unexpected EOF",
		},
		{
			name:     "operation only",
			err:      &ConnectionError{Op: "read stream", Err: io.ErrUnexpectedEOF},
			expected: "daemon connection failed (op: read stream): unexpected EOF",
		},
		{
			name:     "bare",
			err:      &ConnectionError{Err: io.ErrClosedPipe},
			expected: "daemon connection failed: io: read/write on closed pipe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			assert.ErrorIs(t, tt.err, tt.err.Err)
		})
	}
}

func TestDaemonError_Classification(t *testing.T) {
	tests := []struct {
		status int
		is     func(error) bool
	}{
		{http.StatusNotModified, errdefs.IsNotModified},
		{http.StatusBadRequest, errdefs.IsInvalidArgument},
		{http.StatusUnauthorized, errdefs.IsUnauthorized},
		{http.StatusForbidden, errdefs.IsPermissionDenied},
		{http.StatusNotFound, errdefs.IsNotFound},
		{http.StatusConflict, errdefs.IsConflict},
		{http.StatusPreconditionFailed, errdefs.IsFailedPrecondition},
		{http.StatusNotImplemented, errdefs.IsNotImplemented},
		{http.StatusServiceUnavailable, errdefs.IsUnavailable},
		{http.StatusBadGateway, errdefs.IsInternal},
		{http.StatusTeapot, errdefs.IsUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := fmt.Errorf("failed to start container abc: %w", &DaemonError{StatusCode: tt.status, Message: "x"})
			assert.True(t, tt.is(err))

			code, ok := StatusCode(err)
			assert.True(t, ok)
			assert.Equal(t, tt.status, code)
		})
	}
}

func TestDaemonError_Message(t *testing.T) {
	err := &DaemonError{StatusCode: 404, Message: "No such container", Method: "GET", Path: "/containers/x/json"}
	assert.Equal(t, "daemon error (status: 404, GET /containers/x/json): No such container", err.Error())

	err = &DaemonError{StatusCode: 500, Message: "boom"}
	assert.Equal(t, "daemon error (status: 500): boom", err.Error())
}

func TestDecodeError(t *testing.T) {
	base := errors.New("bad")
	tests := []struct {
		name     string
		err      *DecodeError
		expected string
	}{
		{name: "line and field", err: &DecodeError{Line: 3, Field: "status", Err: base}, expected: "decode error at line 3 (field: status): bad"},
		{name: "line", err: &DecodeError{Line: 3, Err: base}, expected: "decode error at line 3: bad"},
		{name: "field", err: &DecodeError{Field: "[0].Id", Err: base}, expected: "decode error (field: [0].Id): bad"},
		{name: "offset", err: &DecodeError{Offset: 24, Err: ErrTruncatedFrame}, expected: "decode error at offset 24: stream ended inside a frame"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			assert.ErrorIs(t, tt.err, tt.err.Err)
		})
	}
}

func TestUsageError(t *testing.T) {
	err := &UsageError{Field: "container name", Reason: "must not be empty"}
	assert.Equal(t, "invalid container name: must not be empty", err.Error())

	_, ok := StatusCode(err)
	assert.False(t, ok)
}
