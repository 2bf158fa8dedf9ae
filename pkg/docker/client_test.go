package docker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/zorak1103/berth/pkg/errors"
	"github.com/zorak1103/berth/pkg/opts"
	"github.com/zorak1103/berth/pkg/transport"
)

// newTestClient starts a fake daemon serving mux and returns a client for it.
func newTestClient(t *testing.T, mux *http.ServeMux, options ...transport.Option) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, options...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNewClient_InvalidAddress(t *testing.T) {
	tests := []string{"", "ftp://host", "tcp://host", "unix://", "http://:2375"}
	for _, addr := range tests {
		t.Run(addr, func(t *testing.T) {
			_, err := NewClient(addr)
			var ue *apperrors.UsageError
			assert.ErrorAs(t, err, &ue)
		})
	}
}

func TestClient_Ping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /_ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "OK")
	})
	c := newTestClient(t, mux)

	require.NoError(t, c.Ping(testContext(t)))
}

func TestClient_PingUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NewServeMux())
	addr := srv.URL
	srv.Close()

	c, err := NewClient(addr)
	require.NoError(t, err)

	err = c.Ping(testContext(t))
	require.Error(t, err)
	assert.True(t, transport.IsConnectionError(err))
}

func TestClient_APIVersionPrefix(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1.43/version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"Version":"27.3.1","ApiVersion":"1.47","Os":"linux","Arch":"amd64"}`)
	})
	c := newTestClient(t, mux, transport.WithAPIVersion("v1.43"))

	v, err := c.Version(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, "27.3.1", v.Version)
	assert.Equal(t, "1.47", v.APIVersion)
}

func TestClient_Authenticate(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		expectToken string
	}{
		{name: "identity token", status: http.StatusOK, body: `{"Status":"Login Succeeded","IdentityToken":"tok"}`, expectToken: "tok"},
		{name: "no content", status: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
				var cfg map[string]string
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&cfg))
				assert.Equal(t, "me", cfg["username"])
				if tt.status == http.StatusNoContent {
					w.WriteHeader(tt.status)
					return
				}
				writeJSON(w, tt.status, tt.body)
			})
			c := newTestClient(t, mux)

			token, err := c.Authenticate(testContext(t), opts.NewAuthOpts().Username("me").Password("pw"))
			require.NoError(t, err)
			assert.Equal(t, tt.expectToken, token)
		})
	}
}

func TestClient_AuthenticateRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"incorrect username or password"}`)
	})
	c := newTestClient(t, mux)

	_, err := c.Authenticate(testContext(t), opts.NewAuthOpts().Username("me").Password("bad"))
	assert.True(t, errdefs.IsUnauthorized(err))
}

func TestClient_Events(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		assert.JSONEq(t, `{"type":{"container":true}}`, r.URL.Query().Get("filters"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, strings.Join([]string{
			`{"Type":"container","Action":"start","Actor":{"ID":"abc","Attributes":{"name":"web"}},"time":1700000000,"timeNano":1700000000000000000}`,
			`not json`,
			`{"Type":"container","Action":"die","Actor":{"ID":"abc","Attributes":{"exitCode":"0"}},"time":1700000005}`,
		}, "\n"))
	})
	c := newTestClient(t, mux)

	stream, err := c.Events(testContext(t), opts.NewEventsOpts().Filter("type", "container"))
	require.NoError(t, err)
	defer func() { _ = stream.Close() }()

	var actions []string
	var decodeErrors int
	for ev, err := range stream.All() {
		if err != nil {
			var de *apperrors.DecodeError
			require.ErrorAs(t, err, &de)
			decodeErrors++
			continue
		}
		actions = append(actions, ev.Action)
	}

	assert.Equal(t, []string{"start", "die"}, actions)
	assert.Equal(t, 1, decodeErrors)
}

func TestEvent_When(t *testing.T) {
	assert.Equal(t, time.Unix(5, 0), Event{Time: 5}.When())
	assert.Equal(t, time.Unix(0, 5_000_000_001), Event{Time: 5, TimeNano: 5_000_000_001}.When())
}

func TestDaemonErrorsAreClassified(t *testing.T) {
	tests := []struct {
		status  int
		body    string
		message string
		is      func(error) bool
	}{
		{status: http.StatusNotFound, body: `{"message":"No such container: nope"}`, message: "No such container: nope", is: errdefs.IsNotFound},
		{status: http.StatusConflict, body: `{"message":"container is already paused"}`, message: "container is already paused", is: errdefs.IsConflict},
		{status: http.StatusNotModified, body: ``, message: "Not Modified", is: errdefs.IsNotModified},
		{status: http.StatusInternalServerError, body: `server exploded`, message: "server exploded", is: errdefs.IsInternal},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /containers/nope/pause", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			c := newTestClient(t, mux)

			err := c.Container("nope").Pause(testContext(t))
			require.Error(t, err)

			var de *apperrors.DaemonError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.status, de.StatusCode)
			assert.Equal(t, tt.message, de.Message)
			assert.True(t, tt.is(err))
		})
	}
}
