package transport

import (
	"context"
	"crypto/tls"
	"sync"

	"github.com/quic-go/quic-go"

	"github.com/mmstream/mm/internal/bufpool"
	mmerrors "github.com/mmstream/mm/internal/errors"
	"github.com/mmstream/mm/internal/proto"
)

func quicConfig(cfg Config) *quic.Config {
	return &quic.Config{
		MaxIdleTimeout:                 cfg.idleTimeout(),
		InitialStreamReceiveWindow:     InitialMaxData,
		MaxStreamReceiveWindow:         InitialMaxData,
		InitialConnectionReceiveWindow: InitialMaxData,
		MaxConnectionReceiveWindow:     InitialMaxData,
		MaxIncomingStreams:             MaxStreamsBidi,
		MaxIncomingUniStreams:          MaxStreamsUni,
		EnableDatagrams:                true,
	}
}

// Dial opens a client connection to addr (spec §4.D step 1, client side).
func Dial(ctx context.Context, addr string, tlsConf *tls.Config, cfg Config) (*Endpoint, error) {
	qconn, err := quic.DialAddr(ctx, addr, tlsConf, quicConfig(cfg))
	if err != nil {
		return nil, mmerrors.NewTransportError("dial", mmerrors.TransportUnknown, err)
	}
	return newEndpoint(qconn), nil
}

// Listener accepts incoming connections on the server side.
type Listener struct {
	ql *quic.Listener
}

// Listen starts a server listener on addr (spec §4.D step 1, server side).
func Listen(addr string, tlsConf *tls.Config, cfg Config) (*Listener, error) {
	ql, err := quic.ListenAddr(addr, tlsConf, quicConfig(cfg))
	if err != nil {
		return nil, mmerrors.NewTransportError("listen", mmerrors.TransportUnknown, err)
	}
	return &Listener{ql: ql}, nil
}

// Accept blocks for the next incoming connection.
func (l *Listener) Accept(ctx context.Context) (*Endpoint, error) {
	qconn, err := l.ql.Accept(ctx)
	if err != nil {
		return nil, mmerrors.NewTransportError("accept", mmerrors.TransportUnknown, err)
	}
	return newEndpoint(qconn), nil
}

func (l *Listener) Close() error { return l.ql.Close() }

// EventKind discriminates the three inbound events a connection's reactor
// consumes (spec §4.D's ConnEvent equivalent).
type EventKind uint8

const (
	EventStreamMessage EventKind = iota
	EventDatagram
	EventStreamClosed
)

// Event is one item off an Endpoint's Events channel.
type Event struct {
	Kind     EventKind
	StreamID uint64
	Message  proto.Message // set for EventStreamMessage/EventDatagram
	Err      error         // set when decoding failed and the stream/datagram was dropped
}

// Endpoint drives a single QUIC connection: a stream-accept goroutine, a
// datagram-receive goroutine, and one pump goroutine per open stream,
// funneling everything into a single Events channel so a caller can run a
// single-threaded reactor over them (spec §5, "dedicated goroutine per
// role").
type Endpoint struct {
	conn quic.Connection

	events chan Event
	done   chan struct{}

	mu      sync.Mutex
	writers map[uint64]quic.Stream
}

func newEndpoint(qconn quic.Connection) *Endpoint {
	e := &Endpoint{
		conn:    qconn,
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
		writers: make(map[uint64]quic.Stream),
	}
	go e.acceptLoop()
	go e.datagramLoop()
	return e
}

// Events returns the channel events are published on. Closed once both the
// accept and datagram loops have exited (i.e. the connection is gone).
func (e *Endpoint) Events() <-chan Event { return e.events }

// Context is cancelled when the underlying QUIC connection closes.
func (e *Endpoint) Context() context.Context { return e.conn.Context() }

func (e *Endpoint) acceptLoop() {
	for {
		str, err := e.conn.AcceptStream(e.conn.Context())
		if err != nil {
			close(e.events)
			return
		}
		e.registerWriter(uint64(str.StreamID()), str)
		go e.pumpStream(str)
	}
}

func (e *Endpoint) registerWriter(id uint64, str quic.Stream) {
	e.mu.Lock()
	e.writers[id] = str
	e.mu.Unlock()
}

func (e *Endpoint) clearWriter(id uint64) {
	e.mu.Lock()
	delete(e.writers, id)
	e.mu.Unlock()
}

// pumpStream reads one stream to completion, decoding and publishing
// messages as they become whole (spec §4.D step 4, "pump_stream").
func (e *Endpoint) pumpStream(str quic.Stream) {
	id := uint64(str.StreamID())
	dec := newStreamDecoder()

	buf := bufpool.Get(proto.MaxMessageSize)
	defer bufpool.Put(buf)
	for {
		n, err := str.Read(buf)
		if n > 0 {
			msgs, decErr := dec.feed(buf[:n])
			for _, m := range msgs {
				e.events <- Event{Kind: EventStreamMessage, StreamID: id, Message: m}
			}
			if decErr != nil {
				e.events <- Event{Kind: EventStreamMessage, StreamID: id, Err: decErr}
			}
		}
		if err != nil {
			break
		}
	}

	e.clearWriter(id)
	e.events <- Event{Kind: EventStreamClosed, StreamID: id}
}

func (e *Endpoint) datagramLoop() {
	for {
		b, err := e.conn.ReceiveDatagram(e.conn.Context())
		if err != nil {
			return
		}

		msg, _, err := proto.DecodeMessage(b)
		if err != nil {
			if mmerrors.IsProtocolError(err) {
				continue // forward-compat: unknown message type, ignore
			}
			continue
		}
		e.events <- Event{Kind: EventDatagram, Message: msg}
	}
}

// OpenStream opens a new bidirectional stream and starts pumping it for
// incoming messages, returning the stream ID to address future SendMessage
// calls at.
func (e *Endpoint) OpenStream(ctx context.Context) (uint64, error) {
	str, err := e.conn.OpenStreamSync(ctx)
	if err != nil {
		return 0, mmerrors.NewTransportError("open_stream", mmerrors.TransportUnknown, err)
	}
	id := uint64(str.StreamID())
	e.registerWriter(id, str)
	go e.pumpStream(str)
	return id, nil
}

// SendMessage frames and writes msg to the given stream (spec §4.D step 5,
// "send_message"). fin closes the write side after the message.
func (e *Endpoint) SendMessage(streamID uint64, msg proto.Message, fin bool) error {
	e.mu.Lock()
	str, ok := e.writers[streamID]
	e.mu.Unlock()
	if !ok {
		return mmerrors.NewTransportError("send_message", mmerrors.TransportQueueFull, nil)
	}

	buf := bufpool.Get(proto.MaxMessageSize)
	defer bufpool.Put(buf)
	n, err := proto.EncodeMessage(msg, buf)
	if err != nil {
		return err
	}
	if _, err := str.Write(buf[:n]); err != nil {
		return mmerrors.NewTransportError("send_message", mmerrors.TransportUnknown, err)
	}
	if fin {
		return str.Close()
	}
	return nil
}

// SendDatagram frames and sends msg as an unreliable QUIC datagram (spec
// §4.D step 6).
func (e *Endpoint) SendDatagram(msg proto.Message) error {
	buf := bufpool.Get(proto.MaxMessageSize)
	defer bufpool.Put(buf)
	n, err := proto.EncodeMessage(msg, buf)
	if err != nil {
		return err
	}
	return e.SendDatagramBytes(buf[:n])
}

// SendDatagramBytes sends an already-framed buffer as a raw QUIC datagram,
// for callers (the stream writer, spec §4.C) that build their own message
// bytes rather than passing a proto.Message through this package.
func (e *Endpoint) SendDatagramBytes(buf []byte) error {
	if err := e.conn.SendDatagram(buf); err != nil {
		return mmerrors.NewTransportError("send_datagram", mmerrors.TransportQueueFull, err)
	}
	return nil
}

// Close gracefully shuts the connection down (spec §4.D step 8,
// "start_shutdown").
func (e *Endpoint) Close(code uint64, reason string) error {
	return e.conn.CloseWithError(quic.ApplicationErrorCode(code), reason)
}
