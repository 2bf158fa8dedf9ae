// Package docker is the entry point of the client: a Client owns the
// transport to one daemon and hands out resource handles for containers,
// images and networks.
//
// Collection handles (Containers, Images, Networks) are stateless views over
// the Client. Entity handles (Container, Image, Network) carry an immutable
// ID and the last metadata snapshot fetched for it. Snapshots are never
// refreshed behind the caller's back: after a mutating action they are stale
// until the caller inspects again.
//
// Every method is safe for concurrent use. Calls block only on network I/O
// and honor context cancellation.
package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/zorak1103/berth/pkg/decode"
	apperrors "github.com/zorak1103/berth/pkg/errors"
	"github.com/zorak1103/berth/pkg/opts"
	"github.com/zorak1103/berth/pkg/transport"
)

// Client talks to one daemon. Handles derived from it share its transport.
type Client struct {
	transport *transport.Transport
	log       logrus.FieldLogger
}

// NewClient builds a Client for the daemon at addr (e.g.,
// "unix:///var/run/docker.sock" or "tcp://10.0.0.5:2376"). It fails if addr
// cannot be parsed; nothing is dialed until the first call.
func NewClient(addr string, options ...transport.Option) (*Client, error) {
	t, err := transport.New(addr, options...)
	if err != nil {
		return nil, err
	}
	return NewClientWithTransport(t), nil
}

// NewClientWithTransport builds a Client over an existing transport.
func NewClientWithTransport(t *transport.Transport) *Client {
	return &Client{transport: t, log: t.Logger()}
}

// Addr returns the daemon address.
func (c *Client) Addr() string {
	return c.transport.Addr()
}

// Containers returns the container collection handle.
func (c *Client) Containers() *Containers {
	return &Containers{client: c}
}

// Container returns a handle for the container with the given ID or name
// without contacting the daemon.
func (c *Client) Container(id string) *Container {
	return newContainer(c, id)
}

// Images returns the image collection handle.
func (c *Client) Images() *Images {
	return &Images{client: c}
}

// Image returns a handle for the image with the given ID or reference.
func (c *Client) Image(name string) *Image {
	return newImage(c, name)
}

// Networks returns the network collection handle.
func (c *Client) Networks() *Networks {
	return &Networks{client: c}
}

// Network returns a handle for the network with the given ID or name.
func (c *Client) Network(id string) *Network {
	return newNetwork(c, id)
}

// Ping checks that the daemon answers.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.transport.Call(ctx, transport.NewRequest(http.MethodGet, "/_ping", nil)); err != nil {
		return fmt.Errorf("failed to ping daemon at %s: %w", c.Addr(), err)
	}
	return nil
}

// Version returns the daemon version information.
func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	var v VersionInfo
	if err := c.get(ctx, "/version", nil, &v); err != nil {
		return nil, fmt.Errorf("failed to get daemon version: %w", err)
	}
	return &v, nil
}

// Authenticate validates registry credentials and returns the identity
// token the registry issued, which may be empty.
func (c *Client) Authenticate(ctx context.Context, auth *opts.AuthOpts) (string, error) {
	body, err := auth.Body()
	if err != nil {
		return "", err
	}
	data, err := c.transport.Call(ctx, transport.NewJSONRequest(http.MethodPost, "/auth", nil, body))
	if err != nil {
		return "", fmt.Errorf("failed to authenticate: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil
	}
	resp, err := decode.JSON[AuthResponse](data)
	if err != nil {
		return "", err
	}
	c.log.WithField("status", resp.Status).Debug("registry login")
	return resp.IdentityToken, nil
}

// Events streams daemon events. The stream stays open until the daemon
// closes it (see EventsOpts.Until), the context ends or it is closed.
func (c *Client) Events(ctx context.Context, o *opts.EventsOpts) (*JSONStream[Event], error) {
	q, err := o.Query()
	if err != nil {
		return nil, err
	}
	resp, err := c.transport.Send(ctx, transport.NewRequest(http.MethodGet, "/events", q))
	if err != nil {
		return nil, fmt.Errorf("failed to stream events: %w", err)
	}
	return newJSONStream[Event](resp.Body), nil
}

// Close releases idle connections. Open streams keep working until closed.
func (c *Client) Close() error {
	return c.transport.Close()
}

func (c *Client) get(ctx context.Context, p string, q url.Values, v any) error {
	return c.call(ctx, transport.NewRequest(http.MethodGet, p, q), v)
}

// post sends a POST with an optional JSON body and decodes the answer into v
// when v is not nil.
func (c *Client) post(ctx context.Context, p string, q url.Values, body []byte, v any) error {
	req := transport.NewRequest(http.MethodPost, p, q)
	if body != nil {
		req = transport.NewJSONRequest(http.MethodPost, p, q, body)
	}
	return c.call(ctx, req, v)
}

func (c *Client) call(ctx context.Context, req *transport.Request, v any) error {
	data, err := c.transport.Call(ctx, req)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return decode.Into(data, v)
}

// JSONStream is a line-delimited JSON stream held open on a pooled
// connection. It must be closed, even when read to the end.
type JSONStream[T any] struct {
	dec  *decode.LineDecoder[T]
	body io.Closer
}

func newJSONStream[T any](body io.ReadCloser) *JSONStream[T] {
	return &JSONStream[T]{dec: decode.NewLineDecoder[T](body), body: body}
}

// Next returns the next message, or io.EOF at the end of the stream. A
// *apperrors.DecodeError only affects the line it reports.
func (s *JSONStream[T]) Next() (T, error) {
	return s.dec.Next()
}

// All iterates over the remaining messages. See decode.LineDecoder.All.
func (s *JSONStream[T]) All() iter.Seq2[T, error] {
	return s.dec.All()
}

// Close releases the connection.
func (s *JSONStream[T]) Close() error {
	return s.body.Close()
}

// Err returns the daemon error reported in-band by a progress message.
func (m ProgressMessage) Err() error {
	if m.Error == "" && m.ErrorDetail == nil {
		return nil
	}
	de := &apperrors.DaemonError{Message: m.Error}
	if m.ErrorDetail != nil {
		de.StatusCode = m.ErrorDetail.Code
		if m.ErrorDetail.Message != "" {
			de.Message = m.ErrorDetail.Message
		}
	}
	return de
}

// drain reads a progress stream to its end and closes it. It returns the
// first in-band error, if any.
func drain(s *JSONStream[ProgressMessage], log logrus.FieldLogger) error {
	defer func() { _ = s.Close() }()
	for {
		msg, err := s.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := msg.Err(); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"id": msg.ID, "status": msg.Status}).Trace(msg.Stream)
	}
}
