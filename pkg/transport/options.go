package transport

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/zorak1103/berth/pkg/errors"
)

type settings struct {
	apiVersion   string
	httpClient   *http.Client
	tlsConfig    *tls.Config
	logger       logrus.FieldLogger
	maxIdleConns int
	dialTimeout  time.Duration
	userAgent    string
}

// Option configures a Transport.
type Option func(*settings) error

// WithAPIVersion prefixes every request path with /v<version> (e.g., "1.43").
func WithAPIVersion(version string) Option {
	return func(s *settings) error {
		s.apiVersion = version
		return nil
	}
}

// WithHTTPClient replaces the pooled client entirely. The caller owns its
// pooling, TLS and dialing; the daemon address is only used to build URLs.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) error {
		if client == nil {
			return &apperrors.UsageError{Field: "http client", Reason: "must not be nil"}
		}
		s.httpClient = client
		return nil
	}
}

// WithTLSConfig enables TLS towards tcp:// and https:// daemons.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(s *settings) error {
		s.tlsConfig = cfg
		return nil
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *settings) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// WithMaxIdleConns sets how many idle keep-alive connections are pooled.
func WithMaxIdleConns(n int) Option {
	return func(s *settings) error {
		if n < 0 {
			return &apperrors.UsageError{Field: "max idle connections", Reason: "must not be negative"}
		}
		s.maxIdleConns = n
		return nil
	}
}

// WithDialTimeout bounds tcp connection establishment.
func WithDialTimeout(d time.Duration) Option {
	return func(s *settings) error {
		s.dialTimeout = d
		return nil
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *settings) error {
		s.userAgent = ua
		return nil
	}
}
