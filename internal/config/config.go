package config

import "time"

// ProbeConfig is the root configuration for the msgprobe tool.
type ProbeConfig struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Socket    SocketConfig    `yaml:"socket"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Keepalive KeepaliveConfig `yaml:"keepalive"`
	Log       LogConfig       `yaml:"log"`
}

// InstanceConfig identifies this probe run.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// SocketConfig holds the messaging endpoint settings.
type SocketConfig struct {
	// URL is the full ws(s) endpoint, e.g. wss://app.tutorlink.io/ws/messages.
	// Credentials never ride on the URL.
	URL string `yaml:"url"`

	// Origin is sent as the handshake Origin header when set.
	Origin string `yaml:"origin"`

	// Cookie is the session cookie presented during the handshake.
	Cookie CookieConfig `yaml:"cookie"`

	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
}

// CookieConfig holds the session cookie placed in the jar.
type CookieConfig struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// ReconnectConfig holds the retry policy knobs.
type ReconnectConfig struct {
	AutoReconnect bool          `yaml:"auto_reconnect"`
	BaseDelay     time.Duration `yaml:"base_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	MaxAttempts   int           `yaml:"max_attempts"`
}

// KeepaliveConfig holds the ping/pong settings.
type KeepaliveConfig struct {
	PingInterval time.Duration `yaml:"ping_interval"`
	PongTimeout  time.Duration `yaml:"pong_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}
