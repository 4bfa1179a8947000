package session

import (
	"log/slog"
	"sync"

	"github.com/tutorlink/realtime/internal/connection"
)

// Snapshot is the consumer-facing view of the connection at one instant.
type Snapshot struct {
	State            connection.State
	IsConnected      bool
	LastError        string
	ReconnectAttempt int
}

// Options tune the adapter itself; transport behavior lives in
// connection.Config.
type Options struct {
	// AutoConnect dials immediately at construction.
	AutoConnect bool

	// UpdateBuffer sizes the updates channel. Publishing is
	// latest-wins: a slow consumer sees the newest snapshot, never a
	// blocked manager.
	UpdateBuffer int

	// Callbacks are the application hooks, forwarded verbatim. The
	// OnStateChange slot is reserved for the adapter.
	Callbacks connection.Callbacks
}

// Session wraps a Manager as the handle application code holds for the
// lifetime of one messaging view. Close is the unmount path.
type Session struct {
	mgr *connection.Manager

	mu      sync.Mutex
	closed  bool
	updates chan Snapshot
}

// New builds a Session around a fresh Manager.
func New(cfg connection.Config, opts Options, logger *slog.Logger) (*Session, error) {
	buffer := opts.UpdateBuffer
	if buffer < 1 {
		buffer = 8
	}

	s := &Session{
		updates: make(chan Snapshot, buffer),
	}

	cb := opts.Callbacks
	cb.OnStateChange = func(connection.State) { s.publish() }

	mgr, err := connection.NewManager(cfg, cb, logger)
	if err != nil {
		return nil, err
	}
	s.mgr = mgr

	if opts.AutoConnect {
		mgr.Connect()
	}
	return s, nil
}

// Snapshot returns the current connection view.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		State:            s.mgr.State(),
		IsConnected:      s.mgr.IsConnected(),
		LastError:        s.mgr.LastError(),
		ReconnectAttempt: s.mgr.ReconnectAttempt(),
	}
}

// Updates emits one snapshot per state transition. The channel closes
// when the session is closed.
func (s *Session) Updates() <-chan Snapshot {
	return s.updates
}

// Connect delegates to the manager.
func (s *Session) Connect() { s.mgr.Connect() }

// Disconnect delegates to the manager.
func (s *Session) Disconnect() { s.mgr.Disconnect() }

// Send transmits an arbitrary command; see connection.Manager.Send.
func (s *Session) Send(v any) bool { return s.mgr.Send(v) }

// SendTyping transmits a typing indicator.
func (s *Session) SendTyping(recipientID int64, isTyping bool) bool {
	return s.mgr.SendTyping(recipientID, isTyping)
}

// SendMessageRead transmits a read receipt.
func (s *Session) SendMessageRead(messageID int64) bool {
	return s.mgr.SendMessageRead(messageID)
}

// CheckPresence asks whether the given users are online.
func (s *Session) CheckPresence(userIDs []int64) bool {
	return s.mgr.CheckPresence(userIDs)
}

// ClearLastError dismisses the surfaced error.
func (s *Session) ClearLastError() { s.mgr.ClearLastError() }

// Close tears the session down: disconnects (cancelling any pending
// reconnect timer and closing the socket) and closes the updates channel.
// Safe to call more than once.
func (s *Session) Close() {
	s.mgr.Disconnect()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.updates)
}

// publish pushes the current snapshot, dropping the stalest entry when
// the consumer lags.
func (s *Session) publish() {
	snap := s.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.updates <- snap:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}
