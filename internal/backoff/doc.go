// Package backoff decides whether a dropped connection is worth retrying.
//
// The decision is a pure function of the close code, the attempt counter,
// and the policy knobs, so the retry behavior is testable without a
// socket. The Connection Manager consults it on every close event and
// acts on the returned Decision.
package backoff
