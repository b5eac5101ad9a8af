// Package avrerr defines the client's error taxonomy: a shallow set of
// concrete error kinds plus a table of user-facing format strings keyed
// by kind and an optional sub-key, following the keyed-message-table
// pattern of the protocol's reference implementation.
package avrerr

import "fmt"

// ConnKind enumerates connection-lifecycle error kinds.
type ConnKind int

const (
	AlreadyConnected ConnKind = iota
	AlreadyConnecting
	AlreadyDisconnecting
	ConnectTimeout
	ConnectFailed
	DisconnectFailed
	Unavailable
)

var connMessages = map[ConnKind]string{
	AlreadyConnected:     "already connected",
	AlreadyConnecting:    "already connecting",
	AlreadyDisconnecting: "already disconnecting",
	ConnectTimeout:       "timed out connecting to AVR",
	ConnectFailed:        "could not connect to AVR",
	DisconnectFailed:     "error disconnecting from AVR",
	Unavailable:          "AVR is unavailable",
}

// ConnError reports a failure in the connection engine's lifecycle.
// Unavailable always propagates even when a caller requested
// ignore_error, per the propagation policy.
type ConnError struct {
	Kind  ConnKind
	Cause error
}

func (e *ConnError) Error() string {
	msg := connMessages[e.Kind]
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ConnError) Unwrap() error { return e.Cause }

func NewConnError(kind ConnKind, cause error) *ConnError {
	return &ConnError{Kind: kind, Cause: cause}
}

// IsUnavailable reports whether err is (or wraps) a Connection
// Unavailable error.
func IsUnavailable(err error) bool {
	var ce *ConnError
	return asConnError(err, &ce) && ce.Kind == Unavailable
}

func asConnError(err error, target **ConnError) bool {
	for err != nil {
		if ce, ok := err.(*ConnError); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// CommandSubKind enumerates command-level error kinds.
type CommandSubKind int

const (
	UnknownCommand CommandSubKind = iota
	UnknownLocalCommand
	ResponseTimeout
	CommandResponseError
	CommandUnavailable
	LocalCommandError
)

// wireSentinelMessages maps the wire-level error sentinels (§6) to a
// human message, covering the E02/E03/E04/E06 error sentinels.
var wireSentinelMessages = map[string]string{
	"E02": "command unavailable",
	"E03": "command unsupported",
	"E04": "unknown command",
	"E06": "invalid parameter",
}

// WireSentinelMessage returns the human message for a wire error
// sentinel, or "" if the sentinel is not recognised.
func WireSentinelMessage(sentinel string) string {
	if len(sentinel) > 3 {
		sentinel = sentinel[:3]
	}
	return wireSentinelMessages[sentinel]
}

// CommandError reports a failure in command dispatch or response
// correlation.
type CommandError struct {
	Kind   CommandSubKind
	Name   string
	Zone   string
	Reason string
	Wire   string
}

func (e *CommandError) Error() string {
	switch e.Kind {
	case UnknownCommand:
		return fmt.Sprintf("unknown command %q for zone %s", e.Name, e.Zone)
	case UnknownLocalCommand:
		return fmt.Sprintf("unknown local command %q", e.Name)
	case ResponseTimeout:
		return fmt.Sprintf("timed out waiting for response to %q", e.Name)
	case CommandResponseError:
		msg := WireSentinelMessage(e.Wire)
		if msg == "" {
			msg = "command response error"
		}
		return fmt.Sprintf("%s: %s (%s)", e.Name, msg, e.Wire)
	case CommandUnavailable:
		return fmt.Sprintf("%s unavailable: %s", e.Name, e.Reason)
	case LocalCommandError:
		return fmt.Sprintf("%s: %s", e.Name, e.Reason)
	default:
		return "command error"
	}
}

func NewUnknownCommand(name string, zone string) *CommandError {
	return &CommandError{Kind: UnknownCommand, Name: name, Zone: zone}
}

func NewUnknownLocalCommand(name string) *CommandError {
	return &CommandError{Kind: UnknownLocalCommand, Name: name}
}

func NewResponseTimeout(name string) *CommandError {
	return &CommandError{Kind: ResponseTimeout, Name: name}
}

func NewCommandResponseError(name, wire string) *CommandError {
	return &CommandError{Kind: CommandResponseError, Name: name, Wire: wire}
}

func NewCommandUnavailable(name, reason string) *CommandError {
	return &CommandError{Kind: CommandUnavailable, Name: name, Reason: reason}
}

func NewLocalCommandError(name, reason string) *CommandError {
	return &CommandError{Kind: LocalCommandError, Name: name, Reason: reason}
}

// DecodeError wraps a failure decoding a raw frame, preserving the
// original frame for diagnostics.
type DecodeError struct {
	Frame string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response %q: %v", e.Frame, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

func NewDecodeError(frame string, cause error) *DecodeError {
	return &DecodeError{Frame: frame, Cause: cause}
}
