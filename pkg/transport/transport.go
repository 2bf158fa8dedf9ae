// Package transport sends requests to the Docker daemon over a pooled HTTP/1.1
// connection and hands back either a fully read payload or a live stream.
//
// A Transport is safe for concurrent use. Its only shared state is the
// http.Transport connection pool: every request checks a connection out for
// the duration of the round trip (or, for streams, until the body is closed)
// and checks it back in afterwards. No request is ever retried.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/docker/go-connections/sockets"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apperrors "github.com/zorak1103/berth/pkg/errors"
)

const (
	// DefaultMaxIdleConns is the number of idle keep-alive connections kept per daemon.
	DefaultMaxIdleConns = 10

	// DefaultDialTimeout bounds connection establishment only, never a whole call.
	DefaultDialTimeout = 30 * time.Second

	// DefaultUserAgent is sent with every request unless overridden.
	DefaultUserAgent = "berth"

	// errorBodyLimit caps how much of a non-2xx body is read for its message.
	errorBodyLimit = 1 << 20

	// unixHost is the placeholder host used in URLs for socket-based daemons.
	unixHost = "docker.sock"
)

// Request describes one call to the daemon. Path is relative to the API root
// (e.g., "/containers/json"); the API version prefix is added by the Transport.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   io.Reader
}

// NewRequest builds a Request without body.
func NewRequest(method, p string, query url.Values) *Request {
	return &Request{Method: method, Path: p, Query: query}
}

// NewJSONRequest builds a Request carrying an already encoded JSON body.
func NewJSONRequest(method, p string, query url.Values, body []byte) *Request {
	req := NewRequest(method, p, query)
	req.Body = bytes.NewReader(body)
	req.SetHeader("Content-Type", "application/json")
	return req
}

// SetHeader sets a request header, allocating the header map on first use.
func (r *Request) SetHeader(key, value string) *Request {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set(key, value)
	return r
}

// Response is a successful (2xx or 101) daemon answer whose body has not been
// read yet. The holder must either call Bytes or Close to release the pooled
// connection.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Bytes reads the whole body and releases the connection.
func (r *Response) Bytes() ([]byte, error) {
	defer func() { _ = r.Body.Close() }()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// Close discards the body and releases the connection.
func (r *Response) Close() error {
	return r.Body.Close()
}

// Transport owns the connection pool to one daemon.
type Transport struct {
	addr       string
	base       *url.URL
	client     *http.Client
	apiVersion string
	userAgent  string
	log        logrus.FieldLogger
}

// New parses addr and prepares a pooled client for it. Supported schemes are
// http, https, tcp (treated as http, or https when a TLS config is given) and
// unix. Nothing is dialed until the first request.
func New(addr string, options ...Option) (*Transport, error) {
	s := settings{
		maxIdleConns: DefaultMaxIdleConns,
		dialTimeout:  DefaultDialTimeout,
		userAgent:    DefaultUserAgent,
		logger:       logrus.WithField("source", "berth"),
	}
	for _, opt := range options {
		if err := opt(&s); err != nil {
			return nil, err
		}
	}

	base, proto, sockAddr, err := parseAddress(addr, s.tlsConfig != nil)
	if err != nil {
		return nil, err
	}

	client := s.httpClient
	if client == nil {
		client, err = newHTTPClient(&s, proto, sockAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to configure transport for %s: %w", addr, err)
		}
	}

	return &Transport{
		addr:       addr,
		base:       base,
		client:     client,
		apiVersion: strings.TrimPrefix(s.apiVersion, "v"),
		userAgent:  s.userAgent,
		log:        s.logger,
	}, nil
}

func parseAddress(addr string, withTLS bool) (base *url.URL, proto, sockAddr string, err error) {
	invalid := func(reason string) error {
		return &apperrors.UsageError{Field: "daemon address " + addr, Reason: reason}
	}

	if strings.TrimSpace(addr) == "" {
		return nil, "", "", invalid("address is empty")
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, "", "", invalid(err.Error())
	}

	switch u.Scheme {
	case "unix", "npipe":
		sock := u.Path
		if u.Scheme == "npipe" {
			sock = "//" + u.Host + u.Path
		}
		if sock == "" {
			return nil, "", "", invalid("missing socket path")
		}
		return &url.URL{Scheme: "http", Host: unixHost}, u.Scheme, sock, nil
	case "tcp":
		if u.Port() == "" {
			return nil, "", "", invalid("tcp address requires a port")
		}
		u.Scheme = "http"
		if withTLS {
			u.Scheme = "https"
		}
	case "http", "https":
	default:
		return nil, "", "", invalid(fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}

	if u.Hostname() == "" {
		return nil, "", "", invalid("missing host")
	}
	if p := u.Port(); p != "" {
		if _, err := net.LookupPort("tcp", p); err != nil {
			return nil, "", "", invalid(fmt.Sprintf("bad port %q", p))
		}
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, "tcp", u.Host, nil
}

func newHTTPClient(s *settings, proto, sockAddr string) (*http.Client, error) {
	dialer := &net.Dialer{Timeout: s.dialTimeout, KeepAlive: 30 * time.Second}
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        s.maxIdleConns,
		MaxIdleConnsPerHost: s.maxIdleConns,
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig:     s.tlsConfig,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if proto != "tcp" {
		if err := sockets.ConfigureTransport(tr, proto, sockAddr); err != nil {
			return nil, err
		}
	}

	// Redirects are never followed: a daemon redirect is a protocol error.
	return &http.Client{
		Transport: otelhttp.NewTransport(tr),
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}

// Addr returns the daemon address the Transport was created with.
func (t *Transport) Addr() string {
	return t.addr
}

// Logger returns the logger requests are traced with.
func (t *Transport) Logger() logrus.FieldLogger {
	return t.log
}

// URL builds the absolute URL for a request path and query.
func (t *Transport) URL(p string, query url.Values) *url.URL {
	u := *t.base
	prefix := t.base.Path
	if t.apiVersion != "" {
		prefix += "/v" + t.apiVersion
	}
	u.Path = prefix + path.Clean("/"+p)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return &u
}

// Send performs req and returns the undrained response on 2xx (or 101).
// Any other status is read, closed and converted into a *apperrors.DaemonError.
func (t *Transport) Send(ctx context.Context, req *Request) (*Response, error) {
	op := req.Method + " " + req.Path
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, t.URL(req.Path, req.Query).String(), req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request %s: %w", op, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if t.userAgent != "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		t.log.WithFields(logrus.Fields{"method": req.Method, "path": req.Path}).WithError(err).Debug("daemon request failed")
		return nil, &apperrors.ConnectionError{Addr: t.addr, Op: op, Err: err}
	}

	t.log.WithFields(logrus.Fields{
		"method": req.Method,
		"path":   req.Path,
		"status": resp.StatusCode,
	}).Debug("daemon request")

	if resp.StatusCode == http.StatusSwitchingProtocols || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
	}
	return nil, t.daemonError(req, resp)
}

// Call performs req and returns the fully read body.
func (t *Transport) Call(ctx context.Context, req *Request) ([]byte, error) {
	resp, err := t.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	data, err := resp.Bytes()
	if err != nil {
		return nil, &apperrors.ConnectionError{Addr: t.addr, Op: req.Method + " " + req.Path, Err: err}
	}
	t.log.WithField("path", req.Path).Tracef("daemon response: %s", data)
	return data, nil
}

func (t *Transport) daemonError(req *Request, resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	if err != nil && len(body) == 0 {
		return &apperrors.ConnectionError{
			Addr: t.addr,
			Op:   req.Method + " " + req.Path,
			Err:  fmt.Errorf("failed to read error body (status %d): %w", resp.StatusCode, err),
		}
	}
	t.log.WithField("path", req.Path).Tracef("daemon error body: %s", body)

	return &apperrors.DaemonError{
		StatusCode: resp.StatusCode,
		Message:    errorMessage(resp.StatusCode, body),
		Method:     req.Method,
		Path:       req.Path,
	}
}

func errorMessage(status int, body []byte) string {
	var msg struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &msg); err == nil && msg.Message != "" {
		return msg.Message
	}
	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "{") {
		return text
	}
	return http.StatusText(status)
}

// Close releases idle pooled connections. Streams still open are unaffected.
func (t *Transport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// IsConnectionError reports whether err is (or wraps) a *apperrors.ConnectionError.
func IsConnectionError(err error) bool {
	var ce *apperrors.ConnectionError
	return errors.As(err, &ce)
}
