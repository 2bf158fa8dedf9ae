package opts

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/docker/docker/api/types/registry"

	apperrors "github.com/zorak1103/berth/pkg/errors"
)

// EventsOpts configures GET /events.
type EventsOpts struct {
	q query
}

// NewEventsOpts returns an empty builder.
func NewEventsOpts() *EventsOpts {
	return &EventsOpts{}
}

// Since replays events from t on.
func (o *EventsOpts) Since(t time.Time) *EventsOpts {
	o.q.setTime("since", t)
	return o
}

// Until ends the stream at t. Without it the stream stays open.
func (o *EventsOpts) Until(t time.Time) *EventsOpts {
	o.q.setTime("until", t)
	return o
}

// Filter adds an event filter (e.g., "type", "container" or "event", "die").
func (o *EventsOpts) Filter(key, value string) *EventsOpts {
	o.q.filter(key, value)
	return o
}

// Query encodes the builder.
func (o *EventsOpts) Query() (url.Values, error) {
	if o == nil {
		return url.Values{}, nil
	}
	return o.q.encode()
}

// AuthOpts holds registry credentials, used for POST /auth and for the
// X-Registry-Auth header of pulls.
type AuthOpts struct {
	cfg registry.AuthConfig
}

// NewAuthOpts returns an empty builder.
func NewAuthOpts() *AuthOpts {
	return &AuthOpts{}
}

// Username sets the registry user.
func (o *AuthOpts) Username(user string) *AuthOpts {
	o.cfg.Username = user
	return o
}

// Password sets the registry password.
func (o *AuthOpts) Password(password string) *AuthOpts {
	o.cfg.Password = password
	return o
}

// Email sets the account email.
func (o *AuthOpts) Email(email string) *AuthOpts {
	o.cfg.Email = email //nolint:staticcheck // still accepted by the daemon
	return o
}

// ServerAddress sets the registry address (e.g., "https://index.docker.io/v1/").
func (o *AuthOpts) ServerAddress(addr string) *AuthOpts {
	o.cfg.ServerAddress = addr
	return o
}

// IdentityToken uses a token obtained from a previous login instead of a password.
func (o *AuthOpts) IdentityToken(token string) *AuthOpts {
	o.cfg.IdentityToken = token
	return o
}

func (o *AuthOpts) validate() error {
	return checkUTF8("auth", map[string]string{
		"username":      o.cfg.Username,
		"password":      o.cfg.Password,
		"serveraddress": o.cfg.ServerAddress,
		"identitytoken": o.cfg.IdentityToken,
	})
}

// Body encodes the credentials for POST /auth. A username or an identity
// token is required.
func (o *AuthOpts) Body() ([]byte, error) {
	if o == nil || (o.cfg.Username == "" && o.cfg.IdentityToken == "") {
		return nil, &apperrors.UsageError{Field: "auth", Reason: "username or identity token required"}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(o.cfg)
	if err != nil {
		return nil, &apperrors.UsageError{Field: "auth", Reason: err.Error()}
	}
	return data, nil
}

// Header encodes the credentials as a base64url X-Registry-Auth value.
func (o *AuthOpts) Header() (string, error) {
	if o == nil {
		return "", nil
	}
	if err := o.validate(); err != nil {
		return "", err
	}
	encoded, err := registry.EncodeAuthConfig(o.cfg)
	if err != nil {
		return "", &apperrors.UsageError{Field: "auth", Reason: err.Error()}
	}
	return encoded, nil
}
