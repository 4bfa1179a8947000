package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultBaseDelay        = 1 * time.Second
	DefaultMaxDelay         = 30 * time.Second
	DefaultMaxAttempts      = 10
	DefaultPingInterval     = 15 * time.Second
	DefaultPongTimeout      = 45 * time.Second
	DefaultCookieName       = "tl_session"
	DefaultLogLevel         = "info"
)

func (c *ProbeConfig) applyDefaults() {
	// Socket defaults
	if c.Socket.HandshakeTimeout == 0 {
		c.Socket.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Socket.WriteTimeout == 0 {
		c.Socket.WriteTimeout = DefaultWriteTimeout
	}
	if c.Socket.Cookie.Name == "" {
		c.Socket.Cookie.Name = DefaultCookieName
	}

	// Reconnect defaults
	if c.Reconnect.BaseDelay == 0 {
		c.Reconnect.BaseDelay = DefaultBaseDelay
	}
	if c.Reconnect.MaxDelay == 0 {
		c.Reconnect.MaxDelay = DefaultMaxDelay
	}
	if c.Reconnect.MaxAttempts == 0 {
		c.Reconnect.MaxAttempts = DefaultMaxAttempts
	}

	// Keepalive defaults
	if c.Keepalive.PingInterval == 0 {
		c.Keepalive.PingInterval = DefaultPingInterval
	}
	if c.Keepalive.PongTimeout == 0 {
		c.Keepalive.PongTimeout = DefaultPongTimeout
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
