// Package session exposes the connection manager to application code as
// a single cohesive handle: a point-in-time Snapshot of the connection
// (state, last error, retry counter) plus an updates channel that emits
// one snapshot per state transition, so consumers can render connectivity
// continuously instead of catching faults.
package session
