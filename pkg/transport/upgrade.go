package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
)

// Conn is a hijacked daemon connection used by attach and exec: the response
// body carries process output and, once the daemon switched protocols, the
// same connection accepts stdin.
type Conn struct {
	Header http.Header
	body   io.ReadCloser
	writer io.Writer
}

// Upgrade sends req asking the daemon to switch the connection to a raw
// duplex stream. Daemons that do not switch protocols answer 200 and stream
// output only; writes on such a Conn fail.
func (t *Transport) Upgrade(ctx context.Context, req *Request) (*Conn, error) {
	req.SetHeader("Connection", "Upgrade")
	req.SetHeader("Upgrade", "tcp")

	resp, err := t.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	conn := &Conn{Header: resp.Header, body: resp.Body}
	if w, ok := resp.Body.(io.Writer); ok && resp.StatusCode == http.StatusSwitchingProtocols {
		conn.writer = w
	}
	return conn, nil
}

// Read reads process output from the connection.
func (c *Conn) Read(p []byte) (int, error) {
	return c.body.Read(p)
}

// Write sends stdin to the process.
func (c *Conn) Write(p []byte) (int, error) {
	if c.writer == nil {
		return 0, errors.New("connection was not upgraded, stdin is not writable")
	}
	return c.writer.Write(p)
}

// CloseWrite half-closes the connection when supported, signalling EOF on stdin.
func (c *Conn) CloseWrite() error {
	if cw, ok := c.writer.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return nil
}

// Close releases the connection.
func (c *Conn) Close() error {
	return c.body.Close()
}

// Writable reports whether the daemon switched protocols and stdin can be sent.
func (c *Conn) Writable() bool {
	return c.writer != nil
}
