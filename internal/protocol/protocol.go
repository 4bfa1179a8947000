package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Errors
var (
	ErrMissingType = errors.New("envelope missing type field")
)

// Inbound message types sent by the server.
const (
	TypeConnection     = "connection"
	TypePong           = "pong"
	TypeTokenExpired   = "token_expired"
	TypeError          = "error"
	TypeNewMessage     = "new_message"
	TypeMessageSent    = "message_sent"
	TypeMessageRead    = "message_read"
	TypeMessageEdited  = "message_edited"
	TypeMessageDeleted = "message_deleted"
	TypeTyping         = "typing"
	TypePresenceStatus = "presence_status"
)

// Outbound command types sent by the client.
const (
	TypePing          = "ping"
	TypePresenceCheck = "presence_check"
)

// Close codes with defined meaning on the messaging socket.
const (
	CloseNormal      = 1000 // clean close, never retried
	CloseAbnormal    = 1006 // transport dropped, retried if enabled
	CloseAuthFailure = 4001 // rejected credential, never retried
)

// Envelope is a parsed inbound frame. Type is always set; Message carries
// the server-supplied text for "error" and "token_expired" frames. Raw
// holds the full frame for typed decoding via Decode.
type Envelope struct {
	Type    string          `json:"type"`
	Message string          `json:"message,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// Parse decodes an inbound frame. Malformed JSON or a missing "type"
// field is reported as an error; callers are expected to drop the frame.
func Parse(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("parse envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, ErrMissingType
	}
	env.Raw = data
	return env, nil
}

// Decode unmarshals the full frame into a type-specific payload struct.
func (e Envelope) Decode(v any) error {
	return json.Unmarshal(e.Raw, v)
}

// Encode marshals an outbound command to its wire form.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode command: %w", err)
	}
	return data, nil
}

// Typing is the typing-indicator command.
type Typing struct {
	Type        string `json:"type"`
	RecipientID int64  `json:"recipient_id"`
	IsTyping    bool   `json:"is_typing"`
}

// NewTyping builds a typing command for a recipient.
func NewTyping(recipientID int64, isTyping bool) Typing {
	return Typing{Type: TypeTyping, RecipientID: recipientID, IsTyping: isTyping}
}

// ReadReceipt marks a message as read.
type ReadReceipt struct {
	Type      string `json:"type"`
	MessageID int64  `json:"message_id"`
}

// NewReadReceipt builds a read receipt for a message.
func NewReadReceipt(messageID int64) ReadReceipt {
	return ReadReceipt{Type: TypeMessageRead, MessageID: messageID}
}

// PresenceCheck asks whether a set of users is currently online.
type PresenceCheck struct {
	Type    string  `json:"type"`
	UserIDs []int64 `json:"user_ids"`
}

// NewPresenceCheck builds a presence check for a set of user IDs.
func NewPresenceCheck(userIDs []int64) PresenceCheck {
	return PresenceCheck{Type: TypePresenceCheck, UserIDs: userIDs}
}

// Ping is the client half of the keepalive pair.
type Ping struct {
	Type string `json:"type"`
}

// NewPing builds a keepalive ping.
func NewPing() Ping {
	return Ping{Type: TypePing}
}
