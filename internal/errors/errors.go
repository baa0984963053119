package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"
)

// protocolMarker is implemented by all wire/protocol-layer error types so
// callers can classify without a type switch over every concrete type.
type protocolMarker interface {
	error
	isProtocol()
}

// TransportError covers the transport-endpoint error kinds from spec §7:
// InvalidAddress, Idle (peer idle close), PeerError{is_app, code},
// QueueFull, Unknown(io_error).
type TransportError struct {
	Op   string
	Kind TransportKind
	Code uint64 // set for PeerError
	App  bool   // set for PeerError: true if application-level close code
	Err  error
}

// TransportKind enumerates the transport error kinds named in spec §7.
type TransportKind uint8

const (
	TransportUnknown TransportKind = iota
	TransportInvalidAddress
	TransportIdle
	TransportPeerError
	TransportQueueFull
)

func (k TransportKind) String() string {
	switch k {
	case TransportInvalidAddress:
		return "invalid_address"
	case TransportIdle:
		return "idle"
	case TransportPeerError:
		return "peer_error"
	case TransportQueueFull:
		return "queue_full"
	default:
		return "unknown"
	}
}

func (e *TransportError) Error() string {
	base := fmt.Sprintf("transport error: %s: %s", e.Op, e.Kind)
	if e.Kind == TransportPeerError {
		base = fmt.Sprintf("%s (app=%v code=%d)", base, e.App, e.Code)
	}
	if e.Err != nil {
		return base + ": " + e.Err.Error()
	}
	return base
}
func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError covers the wire codec error kinds from spec §7: ShortBuffer,
// InvalidMessage, InvalidMessageType.
type ProtocolError struct {
	Op         string
	ShortBy    int // set when the condition is a short-buffer one; 0 otherwise
	MsgType    uint32
	TotalLen   int
	InvalidMsg bool
	Err        error
}

func (e *ProtocolError) Error() string {
	switch {
	case e.ShortBy > 0:
		return fmt.Sprintf("protocol error: %s: short buffer (need %d)", e.Op, e.ShortBy)
	case e.InvalidMsg:
		return fmt.Sprintf("protocol error: %s: invalid message", e.Op)
	case e.MsgType != 0:
		return fmt.Sprintf("protocol error: %s: invalid message type %d (len %d)", e.Op, e.MsgType, e.TotalLen)
	case e.Err != nil:
		return fmt.Sprintf("protocol error: %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("protocol error: %s", e.Op)
	}
}
func (e *ProtocolError) Unwrap() error { return e.Err }
func (e *ProtocolError) isProtocol()   {}

// ShortBuffer builds the ProtocolError form corresponding to spec's
// ShortBuffer(needed) decode/encode failure.
func ShortBuffer(op string, needed int) error {
	return &ProtocolError{Op: op, ShortBy: needed}
}

// InvalidMessage builds the ProtocolError form corresponding to spec's
// InvalidMessage failure (message_type==0, overflow, bad data_offset).
func InvalidMessage(op string) error {
	return &ProtocolError{Op: op, InvalidMsg: true}
}

// InvalidMessageType builds the ProtocolError form corresponding to spec's
// InvalidMessageType(type, total_len) forward-compatibility signal.
func InvalidMessageType(op string, msgType uint32, totalLen int) error {
	return &ProtocolError{Op: op, MsgType: msgType, TotalLen: totalLen}
}

// SessionError covers the client session-manager error kinds from spec §7:
// UnexpectedMessage, ValidationFailed, ServerError{code,text}, Canceled,
// Defunct, Detached. RequestTimeout is represented by TimeoutError instead,
// so IsTimeout has a single source of truth.
type SessionError struct {
	Op   string
	Kind SessionKind
	Code uint32 // set for ServerError
	Text string // set for ServerError
	Err  error
}

type SessionKind uint8

const (
	SessionUnknown SessionKind = iota
	SessionUnexpectedMessage
	SessionValidationFailed
	SessionServerError
	SessionCanceled
	SessionDefunct
	SessionDetached
)

func (k SessionKind) String() string {
	switch k {
	case SessionUnexpectedMessage:
		return "unexpected_message"
	case SessionValidationFailed:
		return "validation_failed"
	case SessionServerError:
		return "server_error"
	case SessionCanceled:
		return "canceled"
	case SessionDefunct:
		return "defunct"
	case SessionDetached:
		return "detached"
	default:
		return "unknown"
	}
}

func (e *SessionError) Error() string {
	base := fmt.Sprintf("session error: %s: %s", e.Op, e.Kind)
	if e.Kind == SessionServerError {
		base = fmt.Sprintf("%s (code=%d text=%q)", base, e.Code, e.Text)
	}
	if e.Err != nil {
		return base + ": " + e.Err.Error()
	}
	return base
}
func (e *SessionError) Unwrap() error { return e.Err }

// RingError covers the packet-ring error kinds from spec §7: InvalidChunk,
// DuplicateChunk, UnsupportedFecScheme, InvalidFecMetadata.
type RingError struct {
	Op    string
	Kind  RingKind
	Index uint32
	Num   uint32
	Err   error
}

type RingKind uint8

const (
	RingUnknown RingKind = iota
	RingInvalidChunk
	RingDuplicateChunk
	RingUnsupportedFecScheme
	RingInvalidFecMetadata
)

func (k RingKind) String() string {
	switch k {
	case RingInvalidChunk:
		return "invalid_chunk"
	case RingDuplicateChunk:
		return "duplicate_chunk"
	case RingUnsupportedFecScheme:
		return "unsupported_fec_scheme"
	case RingInvalidFecMetadata:
		return "invalid_fec_metadata"
	default:
		return "unknown"
	}
}

func (e *RingError) Error() string {
	base := fmt.Sprintf("ring error: %s: %s (index=%d num=%d)", e.Op, e.Kind, e.Index, e.Num)
	if e.Err != nil {
		return base + ": " + e.Err.Error()
	}
	return base
}
func (e *RingError) Unwrap() error { return e.Err }

// TimeoutError indicates a handshake, roundtrip, or idle deadline was
// exceeded (spec §7: Timeout, RequestTimeout).
type TimeoutError struct {
	Op       string
	Duration time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (after %s)", e.Op, e.Duration)
	if e.Err != nil {
		return base + ": " + e.Err.Error()
	}
	return base
}
func (e *TimeoutError) Unwrap() error { return e.Err }

// IsTimeout returns true if err is (or wraps) a TimeoutError, a context
// deadline exceeded, or any error type exposing Timeout() bool that returns
// true.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	if stdErrors.As(err, &te) {
		return true
	}
	if stdErrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var toErr interface{ Timeout() bool }
	if stdErrors.As(err, &toErr) && toErr.Timeout() {
		return true
	}
	return false
}

// IsProtocolError returns true if the error chain contains a wire-codec
// error (ProtocolError).
func IsProtocolError(err error) bool {
	if err == nil {
		return false
	}
	var pm protocolMarker
	return stdErrors.As(err, &pm)
}

// Constructors (encourage contextual wrapping with %w when used by callers).
func NewTransportError(op string, kind TransportKind, cause error) error {
	return &TransportError{Op: op, Kind: kind, Err: cause}
}
func NewPeerError(op string, app bool, code uint64) error {
	return &TransportError{Op: op, Kind: TransportPeerError, App: app, Code: code}
}
func NewSessionError(op string, kind SessionKind, cause error) error {
	return &SessionError{Op: op, Kind: kind, Err: cause}
}
func NewServerError(op string, code uint32, text string) error {
	return &SessionError{Op: op, Kind: SessionServerError, Code: code, Text: text}
}
func NewRingError(op string, kind RingKind, index, num uint32, cause error) error {
	return &RingError{Op: op, Kind: kind, Index: index, Num: num, Err: cause}
}
func NewTimeoutError(op string, d time.Duration, cause error) error {
	return &TimeoutError{Op: op, Duration: d, Err: cause}
}

// Usage pattern example:
//  if _, err := conn.StreamRecv(sid, buf); err != nil {
//      return NewTransportError("pump_stream", TransportUnknown, fmt.Errorf("quic: %w", err))
//  }
// Keep layering context with fmt.Errorf("...: %w", err).
