package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/zorak1103/berth/pkg/errors"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name        string
		addr        string
		withTLS     bool
		expectBase  string
		expectProto string
		expectSock  string
		expectError bool
	}{
		{name: "unix socket", addr: "unix:///var/run/docker.sock", expectBase: "http://docker.sock", expectProto: "unix", expectSock: "/var/run/docker.sock"},
		{name: "tcp", addr: "tcp://10.0.0.5:2375", expectBase: "http://10.0.0.5:2375", expectProto: "tcp", expectSock: "10.0.0.5:2375"},
		{name: "tcp with tls", addr: "tcp://10.0.0.5:2376", withTLS: true, expectBase: "https://10.0.0.5:2376", expectProto: "tcp", expectSock: "10.0.0.5:2376"},
		{name: "http with base path", addr: "http://proxy:8080/docker/", expectBase: "http://proxy:8080/docker", expectProto: "tcp", expectSock: "proxy:8080"},
		{name: "empty", addr: "", expectError: true},
		{name: "unsupported scheme", addr: "ssh://host", expectError: true},
		{name: "tcp without port", addr: "tcp://host", expectError: true},
		{name: "unix without path", addr: "unix://", expectError: true},
		{name: "missing host", addr: "http://:80", expectError: true},
		{name: "bad port", addr: "http://host:notaport", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, proto, sock, err := parseAddress(tt.addr, tt.withTLS)
			if tt.expectError {
				var ue *apperrors.UsageError
				assert.ErrorAs(t, err, &ue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectBase, base.String())
			assert.Equal(t, tt.expectProto, proto)
			assert.Equal(t, tt.expectSock, sock)
		})
	}
}

func TestTransport_URL(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		version  string
		path     string
		query    url.Values
		expected string
	}{
		{name: "plain", addr: "tcp://h:2375", path: "/containers/json", expected: "http://h:2375/containers/json"},
		{name: "versioned", addr: "tcp://h:2375", version: "v1.43", path: "/containers/json", expected: "http://h:2375/v1.43/containers/json"},
		{name: "query", addr: "unix:///run/docker.sock", path: "/containers/abc/rename", query: url.Values{"name": {"new name"}}, expected: "http://docker.sock/containers/abc/rename?name=new+name"},
		{name: "base path", addr: "http://proxy/docker", version: "1.41", path: "_ping", expected: "http://proxy/docker/v1.41/_ping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(tt.addr, WithAPIVersion(tt.version))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tr.URL(tt.path, tt.query).String())
		})
	}
}

func TestTransport_Send(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expectMessage string
		expectError   bool
	}{
		{name: "ok", status: http.StatusOK, body: `{"ok":true}`},
		{name: "no content", status: http.StatusNoContent},
		{name: "json message", status: http.StatusNotFound, body: `{"message":"No such container"}`, expectMessage: "No such container", expectError: true},
		{name: "plain text", status: http.StatusInternalServerError, body: "page not found\n", expectMessage: "page not found", expectError: true},
		{name: "json without message", status: http.StatusBadRequest, body: `{"error":"x"}`, expectMessage: "Bad Request", expectError: true},
		{name: "redirect is not followed", status: http.StatusMovedPermanently, expectMessage: "Moved Permanently", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "berth-test", r.Header.Get("User-Agent"))
				if tt.status == http.StatusMovedPermanently {
					w.Header().Set("Location", "/elsewhere")
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			tr, err := New(srv.URL, WithUserAgent("berth-test"))
			require.NoError(t, err)

			data, err := tr.Call(context.Background(), NewRequest(http.MethodGet, "/containers/abc/json", nil))
			if !tt.expectError {
				require.NoError(t, err)
				assert.Equal(t, tt.body, string(data))
				return
			}

			var de *apperrors.DaemonError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.status, de.StatusCode)
			assert.Equal(t, tt.expectMessage, de.Message)
			assert.Equal(t, http.MethodGet, de.Method)
			assert.Equal(t, "/containers/abc/json", de.Path)
		})
	}
}

func TestTransport_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	tr, err := New(addr)
	require.NoError(t, err)

	_, err = tr.Call(context.Background(), NewRequest(http.MethodGet, "/_ping", nil))
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))

	var ce *apperrors.ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, addr, ce.Addr)
	assert.Equal(t, "GET /_ping", ce.Op)
}

func TestTransport_ErrorBodyReadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		conn, _, err := w.(http.Hijacker).Hijack()
		if !assert.NoError(t, err) {
			return
		}
		_, _ = io.WriteString(conn, "HTTP/1.1 500 Internal Server Error\r\nContent-Length: 64\r\n\r\n")
		_ = conn.Close()
	}))
	defer srv.Close()

	tr, err := New(srv.URL)
	require.NoError(t, err)

	_, err = tr.Call(context.Background(), NewRequest(http.MethodGet, "/containers/json", nil))
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))
	assert.Contains(t, err.Error(), "status 500")

	var de *apperrors.DaemonError
	assert.False(t, errors.As(err, &de))
}

func TestTransport_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer srv.Close()

	tr, err := New(srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.Call(ctx, NewRequest(http.MethodGet, "/_ping", nil))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTransport_JSONRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"Image":"alpine"}`, string(body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	tr, err := New(srv.URL)
	require.NoError(t, err)

	_, err = tr.Call(context.Background(), NewJSONRequest(http.MethodPost, "/containers/create", nil, []byte(`{"Image":"alpine"}`)))
	require.NoError(t, err)
}

func TestTransport_LogsRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	tr, err := New(srv.URL, WithLogger(logger))
	require.NoError(t, err)
	_, err = tr.Call(context.Background(), NewRequest(http.MethodGet, "/_ping", nil))
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "daemon request", entry.Message)
	assert.Equal(t, "/_ping", entry.Data["path"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
}

func TestTransport_UpgradeWithoutSwitch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Upgrade", r.Header.Get("Connection"))
		_, _ = io.WriteString(w, "output only")
	}))
	defer srv.Close()

	tr, err := New(srv.URL)
	require.NoError(t, err)

	conn, err := tr.Upgrade(context.Background(), NewRequest(http.MethodPost, "/containers/abc/attach", nil))
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	assert.False(t, conn.Writable())
	_, err = conn.Write([]byte("stdin"))
	assert.Error(t, err)

	out, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "output only", string(out))
}

func TestOptions(t *testing.T) {
	_, err := New("tcp://h:2375", WithMaxIdleConns(-1))
	var ue *apperrors.UsageError
	assert.ErrorAs(t, err, &ue)

	_, err = New("tcp://h:2375", WithHTTPClient(nil))
	assert.ErrorAs(t, err, &ue)

	custom := &http.Client{}
	tr, err := New("tcp://h:2375", WithHTTPClient(custom))
	require.NoError(t, err)
	assert.Same(t, custom, tr.client)
}
