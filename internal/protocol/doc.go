// Package protocol implements the wire codec for the messaging socket.
//
// Every frame is a JSON object tagged by a mandatory "type" field. The
// codec is symmetric and defensive:
//   - Outbound commands marshal to a fixed key set per message type.
//   - Inbound frames are untrusted; Parse returns an error instead of
//     panicking, and callers drop frames that fail to parse.
package protocol
