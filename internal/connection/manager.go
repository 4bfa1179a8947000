package connection

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tutorlink/realtime/internal/backoff"
	"github.com/tutorlink/realtime/internal/protocol"
)

// Manager owns the single physical socket and the connection state
// machine. One Manager corresponds to one logical consumer; it may open
// and close many physical sockets over its lifetime, one per
// connect/reconnect cycle.
type Manager struct {
	cfg    Config
	cb     Callbacks
	policy backoff.Policy
	logger *slog.Logger

	// writeMu serializes frame writes independently of state reads.
	writeMu sync.Mutex

	mu        sync.Mutex
	state     State
	conn      *websocket.Conn
	gen       uint64 // bumped whenever the current socket generation is invalidated
	attempt   int
	lastError string
	lastPong  time.Time
	timer     *time.Timer   // pending reconnect, nil otherwise
	pingStop  chan struct{} // closes with the current socket's keepalive loop
}

// NewManager validates the config and builds a Manager. The socket URL is
// rejected if it embeds a credential as a query parameter; authentication
// is cookie-based only.
func NewManager(cfg Config, cb Callbacks, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse socket url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, ErrInvalidScheme
	}
	q := u.Query()
	if q.Has("token") || q.Has("access_token") || q.Has("api_key") {
		return nil, ErrCredentialInURL
	}

	// Each zero policy field falls back on its own, so a caller who
	// tunes only the delay still gets a sane attempt cap.
	policy := cfg.Backoff
	if policy.BaseDelay == 0 {
		policy.BaseDelay = backoff.DefaultBaseDelay
	}
	if policy.MaxDelay == 0 {
		policy.MaxDelay = backoff.DefaultMaxDelay
	}
	if policy.MaxAttempts == 0 {
		policy.MaxAttempts = backoff.DefaultMaxAttempts
	}
	policy.Enabled = cfg.AutoReconnect

	return &Manager{
		cfg:    cfg,
		cb:     cb,
		policy: policy,
		logger: logger,
	}, nil
}

// Connect starts a dial unless one is already in flight or established.
// It transitions to connecting synchronously and dials asynchronously,
// so the caller is never blocked on the handshake. A pending reconnect
// timer is superseded by the explicit dial.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.state == StateConnecting || m.state == StateConnected {
		m.mu.Unlock()
		return
	}
	m.cancelTimerLocked()
	m.gen++
	gen := m.gen
	m.attempt = 0
	changed := m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	m.notifyState(changed, StateConnecting)
	go m.dial(gen)
}

// Disconnect is the single cancellation primitive. It cancels any pending
// reconnect timer, closes the current socket with a normal-closure code,
// resets the attempt counter, and settles in disconnected. Reconnection
// logic is never consulted: the generation bump makes every in-flight
// socket event stale.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.cancelTimerLocked()
	m.gen++
	conn := m.conn
	hadSocket := conn != nil || m.state == StateConnecting
	m.teardownLocked()
	m.attempt = 0
	m.lastPong = time.Time{}
	changed := m.setStateLocked(StateDisconnected)
	m.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client disconnect"),
			deadline,
		)
		conn.Close()
	}

	m.notifyState(changed, StateDisconnected)
	if hadSocket && m.cb.OnDisconnect != nil {
		m.cb.OnDisconnect(protocol.CloseNormal, "client disconnect")
	}
}

// Send serializes v and writes it as a single text frame. It reports
// whether the frame was actually transmitted: false, without error,
// whenever the state is not connected. The manager never buffers sends.
func (m *Manager) Send(v any) bool {
	m.mu.Lock()
	if m.state != StateConnected || m.conn == nil {
		m.mu.Unlock()
		return false
	}
	conn := m.conn
	m.mu.Unlock()

	data, err := protocol.Encode(v)
	if err != nil {
		m.logger.Warn("encode failed", "error", err)
		return false
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if m.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout))
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		m.logger.Warn("write failed", "error", err)
		m.fireError(err)
		return false
	}
	return true
}

// SendTyping transmits a typing indicator for a recipient.
func (m *Manager) SendTyping(recipientID int64, isTyping bool) bool {
	return m.Send(protocol.NewTyping(recipientID, isTyping))
}

// SendMessageRead transmits a read receipt for a message.
func (m *Manager) SendMessageRead(messageID int64) bool {
	return m.Send(protocol.NewReadReceipt(messageID))
}

// CheckPresence asks the server whether the given users are online.
func (m *Manager) CheckPresence(userIDs []int64) bool {
	return m.Send(protocol.NewPresenceCheck(userIDs))
}

// State returns the current state machine position.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsConnected reports whether the state is connected.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// LastError returns the most recent protocol-level error text, or empty.
// It is overwritten, not accumulated, and cleared by a fresh successful
// connection or ClearLastError.
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

// ClearLastError dismisses the surfaced error.
func (m *Manager) ClearLastError() {
	m.mu.Lock()
	m.lastError = ""
	m.mu.Unlock()
}

// ReconnectAttempt returns the current retry counter.
func (m *Manager) ReconnectAttempt() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempt
}

// dial performs the handshake for one socket generation and commits the
// result if the generation is still live.
func (m *Manager) dial(gen uint64) {
	logger := m.logger.With("conn_id", shortID())

	dialer := websocket.Dialer{
		HandshakeTimeout: m.cfg.HandshakeTimeout,
		Jar:              m.cfg.Jar,
	}

	logger.Debug("dialing", "url", m.cfg.URL)
	conn, resp, err := dialer.Dial(m.cfg.URL, m.cfg.Header)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		logger.Warn("dial failed", "error", err)
		m.fireError(err)
		m.handleClose(gen, protocol.CloseAbnormal, err.Error())
		return
	}

	m.mu.Lock()
	if gen != m.gen || m.state != StateConnecting {
		// Superseded while the handshake was in flight.
		m.mu.Unlock()
		conn.Close()
		return
	}
	m.conn = conn
	m.attempt = 0
	m.lastError = ""
	m.lastPong = time.Now()
	stop := make(chan struct{})
	m.pingStop = stop
	changed := m.setStateLocked(StateConnected)
	m.mu.Unlock()

	logger.Info("connected")
	m.notifyState(changed, StateConnected)
	if m.cb.OnConnect != nil {
		m.cb.OnConnect()
	}

	go m.readLoop(gen, conn, logger)
	if m.cfg.PingInterval > 0 {
		go m.pingLoop(gen, conn, stop, logger)
	}
}

// readLoop drains the socket and feeds frames and the final close event
// into the state machine, tagged with the socket's generation. It owns
// the socket's file descriptor: whatever ends the loop, the socket is
// closed here so reconnect cycles never strand a dead connection.
func (m *Manager) readLoop(gen uint64, conn *websocket.Conn, logger *slog.Logger) {
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			code, reason := closeInfo(err)
			logger.Debug("read loop exit", "code", code, "reason", reason)
			m.handleClose(gen, code, reason)
			return
		}
		m.handleFrame(gen, data, logger)
	}
}

// handleFrame parses one inbound frame and routes it. Malformed frames
// are dropped; pong and token_expired are absorbed as connection state;
// error frames are both surfaced and forwarded.
func (m *Manager) handleFrame(gen uint64, data []byte, logger *slog.Logger) {
	env, err := protocol.Parse(data)
	if err != nil {
		logger.Debug("dropping malformed frame", "error", err)
		return
	}

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	forward := false
	switch env.Type {
	case protocol.TypePong:
		m.lastPong = time.Now()
	case protocol.TypeTokenExpired:
		m.lastError = SessionExpiredMessage
	case protocol.TypeError:
		m.lastError = env.Message
		forward = true
	default:
		forward = true
	}
	m.mu.Unlock()

	if forward && m.cb.OnMessage != nil {
		m.cb.OnMessage(env)
	}
}

// handleClose runs the close half of the state machine: tear down the
// socket generation, consult the backoff policy, and either schedule a
// retry or settle in disconnected/failed.
func (m *Manager) handleClose(gen uint64, code int, reason string) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.teardownLocked()
	m.gen++
	next := m.gen

	d := m.policy.Decide(code, reason, m.attempt)
	m.attempt = d.Attempt

	var st State
	switch {
	case d.Retry:
		st = StateReconnecting
		m.timer = time.AfterFunc(d.Delay, func() { m.redial(next) })
	case d.Terminal:
		st = StateFailed
	default:
		st = StateDisconnected
	}
	changed := m.setStateLocked(st)
	m.mu.Unlock()

	m.logger.Info("socket closed",
		"code", code,
		"reason", reason,
		"retry", d.Retry,
		"attempt", d.Attempt,
		"state", st,
	)

	m.notifyState(changed, st)
	if m.cb.OnDisconnect != nil {
		m.cb.OnDisconnect(code, reason)
	}
	if d.Retry && m.cb.OnReconnecting != nil {
		m.cb.OnReconnecting(d.Attempt)
	}
}

// redial fires when the reconnect timer elapses. The generation check
// means a Disconnect issued while the timer was pending wins: no new
// socket is ever opened after an explicit disconnect.
func (m *Manager) redial(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.state != StateReconnecting {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	changed := m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	m.notifyState(changed, StateConnecting)
	m.dial(gen)
}

// pingLoop sends application-level keepalive pings and force-closes the
// socket when pongs stop arriving, letting the normal close path decide
// on a reconnect.
func (m *Manager) pingLoop(gen uint64, conn *websocket.Conn, stop <-chan struct{}, logger *slog.Logger) {
	ticker := time.NewTicker(m.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !m.Send(protocol.NewPing()) {
				return
			}

			m.mu.Lock()
			stale := gen != m.gen
			last := m.lastPong
			m.mu.Unlock()
			if stale {
				return
			}

			if m.cfg.PongTimeout > 0 && time.Since(last) > m.cfg.PongTimeout {
				logger.Warn("no pong received, closing stale connection", "last_pong", last)
				conn.Close()
				return
			}
		}
	}
}

// teardownLocked releases the current socket's resources. The caller
// closes the socket itself where needed.
func (m *Manager) teardownLocked() {
	if m.pingStop != nil {
		close(m.pingStop)
		m.pingStop = nil
	}
	m.conn = nil
}

// cancelTimerLocked stops a pending reconnect timer.
func (m *Manager) cancelTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// setStateLocked records a transition and reports whether one occurred.
func (m *Manager) setStateLocked(st State) bool {
	if m.state == st {
		return false
	}
	m.state = st
	return true
}

// notifyState publishes a transition to the state-change hook.
func (m *Manager) notifyState(changed bool, st State) {
	if changed && m.cb.OnStateChange != nil {
		m.cb.OnStateChange(st)
	}
}

// fireError reports a transport fault to the error hook.
func (m *Manager) fireError(err error) {
	if m.cb.OnError != nil && err != nil {
		m.cb.OnError(err)
	}
}

// closeInfo extracts the close code and reason from a read error. Reads
// that fail without a close frame (dropped TCP, reset, timeout) map to
// the abnormal-closure code.
func closeInfo(err error) (int, string) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text
	}
	return protocol.CloseAbnormal, err.Error()
}

// shortID returns a compact per-connection identifier for log lines.
func shortID() string {
	return uuid.NewString()[:8]
}
