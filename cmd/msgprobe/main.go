// msgprobe connects to the TutorLink messaging socket and streams
// connection state and inbound envelopes to the console.
// Usage: go run ./cmd/msgprobe --config configs/msgprobe.example.yaml
//
// The session cookie value is usually supplied via the environment:
//
//	TL_SESSION_VALUE - session cookie value for the configured origin
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/tutorlink/realtime/internal/backoff"
	"github.com/tutorlink/realtime/internal/config"
	"github.com/tutorlink/realtime/internal/connection"
	"github.com/tutorlink/realtime/internal/protocol"
	"github.com/tutorlink/realtime/internal/session"
	"github.com/tutorlink/realtime/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/msgprobe.example.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "print full envelope JSON")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	instanceID := cfg.Instance.ID
	if instanceID == "" {
		instanceID = uuid.NewString()[:8]
	}

	logger.Info("starting msgprobe",
		"version", version.Version,
		"commit", version.Commit,
		"instance_id", instanceID,
		"url", cfg.Socket.URL,
	)

	jar, err := buildCookieJar(cfg.Socket)
	if err != nil {
		logger.Error("failed to build cookie jar", "error", err)
		os.Exit(1)
	}

	header := http.Header{}
	if cfg.Socket.Origin != "" {
		header.Set("Origin", cfg.Socket.Origin)
	}

	connCfg := connection.Config{
		URL:           cfg.Socket.URL,
		Jar:           jar,
		Header:        header,
		AutoReconnect: cfg.Reconnect.AutoReconnect,
		Backoff: backoff.Policy{
			BaseDelay:   cfg.Reconnect.BaseDelay,
			MaxDelay:    cfg.Reconnect.MaxDelay,
			MaxAttempts: cfg.Reconnect.MaxAttempts,
		},
		HandshakeTimeout: cfg.Socket.HandshakeTimeout,
		WriteTimeout:     cfg.Socket.WriteTimeout,
		PingInterval:     cfg.Keepalive.PingInterval,
		PongTimeout:      cfg.Keepalive.PongTimeout,
	}

	sess, err := session.New(connCfg, session.Options{
		AutoConnect: true,
		Callbacks: connection.Callbacks{
			OnConnect: func() {
				logger.Info("messaging socket connected")
			},
			OnDisconnect: func(code int, reason string) {
				logger.Info("messaging socket disconnected", "code", code, "reason", reason)
			},
			OnMessage: func(env protocol.Envelope) {
				if *verbose {
					logger.Info("envelope", "type", env.Type, "raw", string(env.Raw))
				} else {
					logger.Info("envelope", "type", env.Type)
				}
			},
			OnReconnecting: func(attempt int) {
				logger.Info("reconnecting", "attempt", attempt)
			},
			OnError: func(err error) {
				logger.Warn("transport error", "error", err)
			},
		},
	}, logger)
	if err != nil {
		logger.Error("failed to create session", "error", err)
		os.Exit(1)
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		sess.Close()
	}()

	probed := false
	for snap := range sess.Updates() {
		logger.Info("state",
			"state", snap.State,
			"connected", snap.IsConnected,
			"attempt", snap.ReconnectAttempt,
			"last_error", snap.LastError,
		)

		// Exercise the typed senders once per process on first connect.
		if snap.IsConnected && !probed {
			probed = true
			if sess.CheckPresence([]int64{1}) {
				logger.Debug("presence check sent")
			}
			if sess.SendTyping(1, false) {
				logger.Debug("typing probe sent")
			}
		}

		if snap.State == connection.StateFailed {
			logger.Error("connection failed, giving up")
			sess.Close()
		}
	}

	logger.Info("msgprobe stopped")
}

// buildCookieJar places the configured session cookie in a jar scoped to
// the socket's origin.
func buildCookieJar(sc config.SocketConfig) (http.CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if sc.Cookie.Value == "" {
		return jar, nil
	}

	u, err := url.Parse(sc.URL)
	if err != nil {
		return nil, fmt.Errorf("parse socket url: %w", err)
	}
	origin := &url.URL{Scheme: "https", Host: u.Host}
	if u.Scheme == "ws" {
		origin.Scheme = "http"
	}

	jar.SetCookies(origin, []*http.Cookie{{
		Name:  sc.Cookie.Name,
		Value: sc.Cookie.Value,
	}})
	return jar, nil
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
