package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks that all required fields are set and values are valid.
func (c *ProbeConfig) Validate() error {
	if c.Socket.URL == "" {
		return errors.New("socket.url is required")
	}

	u, err := url.Parse(c.Socket.URL)
	if err != nil {
		return fmt.Errorf("socket.url is not a valid url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("socket.url scheme must be ws or wss, got %q", u.Scheme)
	}
	q := u.Query()
	if q.Has("token") || q.Has("access_token") || q.Has("api_key") {
		return errors.New("socket.url must not carry a credential query parameter; authentication is cookie-based")
	}

	if c.Reconnect.BaseDelay <= 0 {
		return errors.New("reconnect.base_delay must be > 0")
	}
	if c.Reconnect.MaxDelay < c.Reconnect.BaseDelay {
		return errors.New("reconnect.max_delay must be >= reconnect.base_delay")
	}
	if c.Reconnect.MaxAttempts < 1 {
		return errors.New("reconnect.max_attempts must be >= 1")
	}

	if c.Keepalive.PingInterval <= 0 {
		return errors.New("keepalive.ping_interval must be > 0")
	}
	if c.Keepalive.PongTimeout <= c.Keepalive.PingInterval {
		return errors.New("keepalive.pong_timeout must be > keepalive.ping_interval")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	return nil
}
