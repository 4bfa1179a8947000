package connection

import (
	"errors"
	"net/http"
	"time"

	"github.com/tutorlink/realtime/internal/backoff"
	"github.com/tutorlink/realtime/internal/protocol"
)

// Errors
var (
	ErrCredentialInURL = errors.New("socket url must not carry a credential query parameter")
	ErrInvalidScheme   = errors.New("socket url scheme must be ws or wss")
)

// SessionExpiredMessage is the fixed user-facing text surfaced as the
// last error when the server reports an expired session.
const SessionExpiredMessage = "Session expired"

// Config holds immutable per-manager settings. Supplied once at
// construction; not mutated afterward.
type Config struct {
	// URL is the full socket endpoint (e.g. wss://app.example.com/ws/messages).
	// It must not embed a token or credential as a query parameter;
	// authentication rides on the cookie jar.
	URL string

	// Jar carries the session cookie for the endpoint's origin.
	Jar http.CookieJar

	// Header holds extra handshake headers (e.g. Origin).
	Header http.Header

	// AutoReconnect gates retries after unexpected closes.
	AutoReconnect bool

	// Backoff tunes retry delays and the attempt cap. Enabled is
	// derived from AutoReconnect.
	Backoff backoff.Policy

	// HandshakeTimeout bounds the dial.
	HandshakeTimeout time.Duration

	// WriteTimeout is the per-frame write deadline.
	WriteTimeout time.Duration

	// PingInterval is the keepalive ping cadence. Zero disables
	// client keepalive.
	PingInterval time.Duration

	// PongTimeout is the max silence after our pings before the
	// connection is considered dead and force-closed.
	PongTimeout time.Duration
}

// DefaultConfig returns sensible defaults for an endpoint.
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		AutoReconnect:    true,
		Backoff:          backoff.DefaultPolicy(),
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingInterval:     15 * time.Second,
		PongTimeout:      45 * time.Second,
	}
}

// Callbacks are the application hooks. All slots are optional. They are
// invoked outside the manager's lock, one event at a time per source.
type Callbacks struct {
	// OnConnect fires once per successful open.
	OnConnect func()

	// OnDisconnect fires when an established or in-flight connection
	// is torn down, with the close code and reason.
	OnDisconnect func(code int, reason string)

	// OnMessage receives every forwarded inbound envelope. Keepalive
	// pongs and token-expiry frames are absorbed before this point.
	OnMessage func(env protocol.Envelope)

	// OnReconnecting fires when a retry is scheduled, with the new
	// attempt count.
	OnReconnecting func(attempt int)

	// OnError fires for transport faults (dial or write failures).
	// These are informational; recovery is driven by the state machine.
	OnError func(err error)

	// OnStateChange fires on every state transition. Consumer adapters
	// use it to publish snapshots.
	OnStateChange func(state State)
}
