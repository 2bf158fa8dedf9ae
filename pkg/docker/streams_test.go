package docker

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zorak1103/berth/pkg/decode"
	"github.com/zorak1103/berth/pkg/opts"
)

// hijack switches the connection to a raw stream the way the daemon does
// for attach and exec start.
func hijack(t *testing.T, w http.ResponseWriter, contentType string) (net.Conn, *bufio.ReadWriter) {
	t.Helper()
	conn, rw, err := w.(http.Hijacker).Hijack()
	if !assert.NoError(t, err) {
		return nil, nil
	}
	_, _ = rw.WriteString("HTTP/1.1 101 UPGRADED\r\n" +
		"Content-Type: " + contentType + "\r\n" +
		"Connection: Upgrade\r\n" +
		"Upgrade: tcp\r\n\r\n")
	_ = rw.Flush()
	return conn, rw
}

func TestContainer_Attach(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /containers/abc/attach", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Upgrade", r.Header.Get("Connection"))
		assert.Equal(t, "tcp", r.Header.Get("Upgrade"))
		assert.Equal(t, "stdin=true&stdout=true&stream=true", r.URL.RawQuery)

		conn, rw := hijack(t, w, "application/vnd.docker.multiplexed-stream")
		if conn == nil {
			return
		}
		defer func() { _ = conn.Close() }()

		line, err := rw.ReadString('\n')
		assert.NoError(t, err)
		_, _ = stdcopy.NewStdWriter(conn, stdcopy.Stdout).Write([]byte("echo: " + line))
	})
	c := newTestClient(t, mux)

	stream, err := c.Container("abc").Attach(testContext(t), opts.NewAttachOpts().Stream(true).Stdin(true).Stdout(true))
	require.NoError(t, err)
	defer func() { _ = stream.Close() }()

	require.True(t, stream.Writable())
	_, err = stream.Write([]byte("hi\n"))
	require.NoError(t, err)

	frame, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, decode.Stdout, frame.Stream)
	assert.Equal(t, "echo: hi\n", string(frame.Payload))

	_, err = stream.Next()
	assert.Equal(t, io.EOF, err)
}

func TestContainer_ExecAttached(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /containers/abc/exec", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"Cmd":["ls"],"AttachStdout":true,"AttachStderr":true}`, string(body))
		writeJSON(w, http.StatusCreated, `{"Id":"exec1"}`)
	})
	mux.HandleFunc("POST /exec/exec1/start", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{}`, string(body))
		conn, _ := hijack(t, w, "application/vnd.docker.multiplexed-stream")
		if conn == nil {
			return
		}
		defer func() { _ = conn.Close() }()
		_, _ = stdcopy.NewStdWriter(conn, stdcopy.Stdout).Write([]byte("bin\netc\n"))
		_, _ = stdcopy.NewStdWriter(conn, stdcopy.Stderr).Write([]byte("warn\n"))
	})
	mux.HandleFunc("GET /exec/exec1/json", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"ID":"exec1","ContainerID":"abc","Running":false,"ExitCode":0}`)
	})
	c := newTestClient(t, mux)

	exec, stream, err := c.Container("abc").Exec(testContext(t),
		opts.NewExecOpts().Cmd([]string{"ls"}).AttachStdout(true).AttachStderr(true))
	require.NoError(t, err)
	require.NotNil(t, stream)
	defer func() { _ = stream.Close() }()
	assert.Equal(t, "exec1", exec.ID())

	var stdout, stderr strings.Builder
	_, err = stream.Split(&stdout, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "bin\netc\n", stdout.String())
	assert.Equal(t, "warn\n", stderr.String())

	info, err := exec.Inspect(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, 0, info.ExitCode)
	assert.Equal(t, "abc", info.ContainerID)
}

func TestContainer_ExecDetached(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /containers/abc/exec", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, `{"Id":"exec2"}`)
	})
	mux.HandleFunc("POST /exec/exec2/start", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Upgrade"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"Detach":true}`, string(body))
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, mux)

	exec, stream, err := c.Container("abc").Exec(testContext(t), opts.NewExecOpts().Cmd([]string{"sleep", "60"}).Detach(true))
	require.NoError(t, err)
	assert.Nil(t, stream)
	assert.Equal(t, "exec2", exec.ID())
}

func TestContainer_ExecWithoutCmd(t *testing.T) {
	c := newTestClient(t, http.NewServeMux())

	_, _, err := c.Container("abc").Exec(testContext(t), opts.NewExecOpts())
	require.Error(t, err)
}
