package backoff

import (
	"time"

	"github.com/tutorlink/realtime/internal/protocol"
)

// Default policy values.
const (
	DefaultBaseDelay   = 1 * time.Second
	DefaultMaxDelay    = 30 * time.Second
	DefaultMaxAttempts = 10
)

// Policy holds the retry knobs for a connection.
type Policy struct {
	// Enabled gates all retries. When false no close is ever retried.
	Enabled bool

	// BaseDelay is the wait before the first retry. Each subsequent
	// attempt doubles the wait, capped at MaxDelay.
	BaseDelay time.Duration

	// MaxDelay caps the per-attempt wait.
	MaxDelay time.Duration

	// MaxAttempts bounds total retries before giving up for good.
	MaxAttempts int
}

// DefaultPolicy returns sensible defaults with retries enabled.
func DefaultPolicy() Policy {
	return Policy{
		Enabled:     true,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// Decision is the outcome of consulting the policy for one close event.
type Decision struct {
	// Retry reports whether a reconnect should be scheduled.
	Retry bool

	// Delay is the wait before the retry. Zero when Retry is false.
	Delay time.Duration

	// Attempt is the new value of the attempt counter: incremented on
	// retry, reset to zero on clean or auth-rejected closes, unchanged
	// otherwise.
	Attempt int

	// Terminal reports that retries are exhausted and the connection
	// should settle in the failed state.
	Terminal bool
}

// Decide classifies a close event.
//
// Normal closure (1000) and authentication failure (4001) are known,
// explained terminal conditions: retrying would either reopen a
// connection the server meant to end or repeat a rejected handshake, so
// both reset the attempt counter and stay non-terminal (the manager
// settles in disconnected, not failed). Every other code, including 1006
// and unknown application codes, is retryable until MaxAttempts runs out.
func (p Policy) Decide(code int, reason string, attempt int) Decision {
	if !p.Enabled {
		return Decision{Attempt: attempt}
	}

	switch code {
	case protocol.CloseNormal, protocol.CloseAuthFailure:
		return Decision{Attempt: 0}
	}

	if attempt >= p.MaxAttempts {
		return Decision{Attempt: attempt, Terminal: true}
	}

	return Decision{
		Retry:   true,
		Delay:   p.delay(attempt),
		Attempt: attempt + 1,
	}
}

// delay returns the wait before retry number attempt+1. The sequence is
// monotonic non-decreasing: base, 2*base, 4*base, ... capped at MaxDelay.
func (p Policy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
