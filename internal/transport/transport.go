// Package transport provides the byte-level I/O half of the
// connection engine: a TCP transport (the default) and an alternate
// RS-232 serial transport, behind one interface so the engine's
// lifecycle, rate limiting, and framing logic are transport-agnostic.
package transport

import "time"

// Transport is the minimal byte-stream contract the connection engine
// needs. Framing (newline splitting) and rate limiting live above this
// interface in internal/conn.
type Transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	// SetKeepAlive tunes TCP keepalive cadence; a no-op on transports
	// (like serial) with no such concept.
	SetKeepAlive(idle, interval time.Duration, maxFails int) error
	Close() error
}

// DefaultSerialBaud matches the family's documented RS-232 control
// spec (§6 [ADD]).
const DefaultSerialBaud = 9600
