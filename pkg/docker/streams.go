package docker

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"github.com/zorak1103/berth/pkg/decode"
	apperrors "github.com/zorak1103/berth/pkg/errors"
	"github.com/zorak1103/berth/pkg/opts"
	"github.com/zorak1103/berth/pkg/transport"
)

const (
	// mediaTypeRawStream marks unframed output (containers with a TTY).
	mediaTypeRawStream = "application/vnd.docker.raw-stream"
	// mediaTypeMultiplexed marks output framed with 8-byte headers.
	mediaTypeMultiplexed = "application/vnd.docker.multiplexed-stream"
)

// OutputStream is process output held open on a daemon connection. It is
// read frame by frame and must be closed; closing early releases the
// connection without reading the rest.
type OutputStream struct {
	demux *decode.Demuxer
	body  io.Closer
}

func newOutputStream(header http.Header, body io.ReadCloser, tty bool) *OutputStream {
	mediaType, _, _ := strings.Cut(header.Get("Content-Type"), ";")
	raw := mediaType == mediaTypeRawStream || (tty && mediaType != mediaTypeMultiplexed)

	d := decode.NewDemuxer(body)
	if raw {
		d = decode.NewRawDemuxer(body)
	}
	return &OutputStream{demux: d, body: body}
}

// Next returns the next frame, or io.EOF at the end of the stream.
func (s *OutputStream) Next() (decode.Frame, error) {
	return s.demux.Next()
}

// All iterates over the remaining frames.
func (s *OutputStream) All() iter.Seq2[decode.Frame, error] {
	return s.demux.All()
}

// Split copies stdout frames to stdout and stderr frames to stderr until
// the stream ends.
func (s *OutputStream) Split(stdout, stderr io.Writer) (int64, error) {
	return s.demux.Split(stdout, stderr)
}

// Close releases the connection.
func (s *OutputStream) Close() error {
	return s.body.Close()
}

// Logs streams the container output. With a nil o both stdout and stderr
// are returned.
func (c *Container) Logs(ctx context.Context, o *opts.LogsOpts) (*OutputStream, error) {
	if o == nil {
		o = opts.NewLogsOpts().Stdout(true).Stderr(true)
	}
	q, err := o.Query()
	if err != nil {
		return nil, err
	}

	resp, err := c.client.transport.Send(ctx, transport.NewRequest(http.MethodGet, c.path("logs"), q))
	if err != nil {
		return nil, fmt.Errorf("failed to read logs of container %s: %w", c.id, err)
	}
	return newOutputStream(resp.Header, resp.Body, c.tty()), nil
}

// tty reports whether the container is known to have a TTY.
func (c *Container) tty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.details != nil && c.details.Config != nil && c.details.Config.Tty
}

// AttachedStream is a duplex connection to a process: output is read as
// frames and stdin is written directly.
type AttachedStream struct {
	*OutputStream
	conn *transport.Conn
}

// Write sends stdin to the process.
func (a *AttachedStream) Write(p []byte) (int, error) {
	n, err := a.conn.Write(p)
	if err != nil {
		return n, &apperrors.ConnectionError{Op: "write stdin", Err: err}
	}
	return n, nil
}

// CloseWrite signals the end of stdin.
func (a *AttachedStream) CloseWrite() error {
	return a.conn.CloseWrite()
}

// Writable reports whether stdin can be written.
func (a *AttachedStream) Writable() bool {
	return a.conn.Writable()
}

func newAttachedStream(conn *transport.Conn, tty bool) *AttachedStream {
	return &AttachedStream{OutputStream: newOutputStream(conn.Header, conn, tty), conn: conn}
}

// Attach connects to the container's stdio. o may be nil, which attaches a
// live stream of stdout and stderr.
func (c *Container) Attach(ctx context.Context, o *opts.AttachOpts) (*AttachedStream, error) {
	if o == nil {
		o = opts.NewAttachOpts().Stream(true).Stdout(true).Stderr(true)
	}
	q, err := o.Query()
	if err != nil {
		return nil, err
	}

	conn, err := c.client.transport.Upgrade(ctx, transport.NewRequest(http.MethodPost, c.path("attach"), q))
	if err != nil {
		return nil, fmt.Errorf("failed to attach to container %s: %w", c.id, err)
	}
	return newAttachedStream(conn, c.tty()), nil
}

// Exec is a handle on an exec instance.
type Exec struct {
	id     string
	client *Client
}

// ID returns the exec instance ID.
func (e *Exec) ID() string {
	return e.id
}

// Inspect returns the state of the exec instance, including its exit code.
func (e *Exec) Inspect(ctx context.Context) (*ExecInspect, error) {
	var info ExecInspect
	if err := e.client.get(ctx, "/exec/"+e.id+"/json", nil, &info); err != nil {
		return nil, fmt.Errorf("failed to inspect exec %s: %w", e.id, err)
	}
	return &info, nil
}

// Exec runs a command in the container. It creates the exec instance and
// starts it; unless o is detached, the returned stream carries the command's
// output (and stdin if attached).
func (c *Container) Exec(ctx context.Context, o *opts.ExecOpts) (*Exec, *AttachedStream, error) {
	body, err := o.Body()
	if err != nil {
		return nil, nil, err
	}
	start, err := o.StartBody()
	if err != nil {
		return nil, nil, err
	}

	var created CreateResponse
	if err := c.client.post(ctx, c.path("exec"), nil, body, &created); err != nil {
		return nil, nil, fmt.Errorf("failed to create exec in container %s: %w", c.id, err)
	}
	exec := &Exec{id: created.ID, client: c.client}

	req := transport.NewJSONRequest(http.MethodPost, "/exec/"+exec.id+"/start", nil, start)
	if o.Detached() {
		if _, err := c.client.transport.Call(ctx, req); err != nil {
			return nil, nil, fmt.Errorf("failed to start exec %s: %w", exec.id, err)
		}
		return exec, nil, nil
	}

	conn, err := c.client.transport.Upgrade(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start exec %s: %w", exec.id, err)
	}
	return exec, newAttachedStream(conn, o.TTY()), nil
}

// Archive returns a tar stream of path inside the container together with
// the stat of path. The stream must be closed.
func (c *Container) Archive(ctx context.Context, path string) (io.ReadCloser, *FileInfo, error) {
	if path == "" {
		return nil, nil, &apperrors.UsageError{Field: "archive path", Reason: "must not be empty"}
	}
	resp, err := c.client.transport.Send(ctx, transport.NewRequest(http.MethodGet, c.path("archive"), url.Values{"path": {path}}))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to archive %s in container %s: %w", path, c.id, err)
	}
	info, err := c.stat(resp.Header)
	if err != nil {
		_ = resp.Close()
		return nil, nil, err
	}
	return resp.Body, info, nil
}

// FileInfo stats path inside the container without transferring it.
func (c *Container) FileInfo(ctx context.Context, path string) (*FileInfo, error) {
	if path == "" {
		return nil, &apperrors.UsageError{Field: "archive path", Reason: "must not be empty"}
	}
	resp, err := c.client.transport.Send(ctx, transport.NewRequest(http.MethodHead, c.path("archive"), url.Values{"path": {path}}))
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s in container %s: %w", path, c.id, err)
	}
	_ = resp.Close()
	return c.stat(resp.Header)
}

// UploadArchive extracts the tar archive read from tar into the container.
func (c *Container) UploadArchive(ctx context.Context, tar io.Reader, o *opts.UploadArchiveOpts) error {
	q, err := o.Query()
	if err != nil {
		return err
	}
	req := transport.NewRequest(http.MethodPut, c.path("archive"), q)
	req.Body = tar
	req.SetHeader("Content-Type", "application/x-tar")
	if _, err := c.client.transport.Call(ctx, req); err != nil {
		return fmt.Errorf("failed to upload archive to container %s: %w", c.id, err)
	}
	return nil
}

func decodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return base64.URLEncoding.DecodeString(s)
	}
	return data, nil
}
