package cmd

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zorak1103/berth/pkg/docker"
)

// fakeDaemon serves mux and returns its URL together with a client for it.
func fakeDaemon(t *testing.T, mux *http.ServeMux) (string, *docker.Client) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := docker.NewClient(srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return srv.URL, client
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

// executeCommand runs the root command with args against the fake daemon at
// addr and returns what it printed.
func executeCommand(t *testing.T, addr string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append(args, "--host", addr))
	t.Cleanup(func() {
		host = ""
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(testContext(t))
	return stdout.String(), stderr.String(), err
}
