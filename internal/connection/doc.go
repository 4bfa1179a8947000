// Package connection implements the Connection Manager component.
//
// The Connection Manager:
//   - Owns exactly one physical WebSocket to the messaging endpoint
//   - Drives the connection state machine (disconnected, connecting,
//     connected, reconnecting, failed)
//   - Authenticates via the session cookie jar, never via URL tokens
//   - Consults the backoff policy on every close and schedules retries
//     as cancellable timers
//   - Parses inbound envelopes and dispatches them to callbacks
package connection
