package mmserver

import (
	"encoding/binary"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mmstream/mm/internal/metrics"
	"github.com/mmstream/mm/internal/proto"
	"github.com/mmstream/mm/internal/streamwriter"
	"github.com/mmstream/mm/internal/transport"
)

// keepAliveMissTimeout bounds how long an attachment may go without any
// inbound message before it's considered dead. The client's keepalive loop
// ticks every second regardless of other traffic (mm-client-common's
// `run()`), so five missed ticks is a generous margin above jitter before
// the connHandler tears the attachment down itself, ahead of quic-go's own
// (connection-wide, much longer) idle timeout.
const keepAliveMissTimeout = 5 * time.Second

// InputSink receives input/control events forwarded from an attachment's
// stream (spec §4.F step 5). The compositor that actually applies these
// events lives outside this package (spec §1 Non-goals); InputSink is the
// seam a real compositor implementation plugs into.
type InputSink interface {
	KeyboardInput(keyCode uint32, pressed bool)
	PointerEntered()
	PointerLeft()
	PointerMotion(x, y float32)
	RelativePointerMotion(dx, dy float32)
	PointerInput(button uint32, pressed bool)
	PointerScroll(deltaX, deltaY float32)
	GamepadAvailable(gamepadID uint32, name string)
	GamepadUnavailable(gamepadID uint32)
	GamepadMotion(gamepadID, axis uint32, value float32)
	GamepadInput(gamepadID, button uint32, pressed bool)
}

// noopInputSink is used whenever a connection attaches without a compositor
// wired up (e.g. in tests), so forwarding never needs a nil check.
type noopInputSink struct{}

func (noopInputSink) KeyboardInput(uint32, bool)          {}
func (noopInputSink) PointerEntered()                     {}
func (noopInputSink) PointerLeft()                        {}
func (noopInputSink) PointerMotion(float32, float32)      {}
func (noopInputSink) RelativePointerMotion(float32, float32) {}
func (noopInputSink) PointerInput(uint32, bool)           {}
func (noopInputSink) PointerScroll(float32, float32)      {}
func (noopInputSink) GamepadAvailable(uint32, string)     {}
func (noopInputSink) GamepadUnavailable(uint32)           {}
func (noopInputSink) GamepadMotion(uint32, uint32, float32) {}
func (noopInputSink) GamepadInput(uint32, uint32, bool)   {}

// datagramEndpoint adapts an endpointSender to streamwriter.DatagramSink.
type datagramEndpoint struct {
	ep endpointSender
}

func (d datagramEndpoint) SendDatagram(buf []byte) error { return d.ep.SendDatagramBytes(buf) }

// serverAttachment is the server-side per-attachment state: the encode
// sink the compositor writes frames through, and the dispatcher for
// messages arriving on the attachment's stream (spec §4.F steps 3-6).
type serverAttachment struct {
	sessionID    uint64
	attachmentID uint64
	streamID     uint64
	ep           endpointSender

	Writer *streamwriter.Writer
	Input  InputSink

	session *Session
	metrics *metrics.Registry
	timer   *time.Timer
}

// newAttachmentID derives a uint64 attachment identifier from a fresh UUID,
// so IDs are unguessable across a restart without the server needing to
// persist a counter (spec §4.F step 3).
func newAttachmentID() uint64 {
	id := uuid.New()
	return binary.BigEndian.Uint64(id[:8])
}

// newServerAttachment starts the attachment's keepalive-miss timer: on
// expiry it reports streamID on timeouts (non-blocking, so a slow
// connHandler never backs up a client's encode goroutine) and connHandler's
// run loop does the actual teardown, keeping all attachment-map mutation on
// its single goroutine.
func newServerAttachment(session *Session, streamID uint64, ep endpointSender, fecRatios []float32, m *metrics.Registry, timeouts chan<- uint64) *serverAttachment {
	attachmentID := newAttachmentID()
	as := &serverAttachment{
		sessionID:    session.ID,
		attachmentID: attachmentID,
		streamID:     streamID,
		ep:           ep,
		Input:        noopInputSink{},
		session:      session,
		metrics:      m,
	}
	as.Writer = streamwriter.New(session.ID, attachmentID, transport.MaxUDPPayload, fecRatios, datagramEndpoint{ep}, nil)
	as.timer = time.AfterFunc(keepAliveMissTimeout, func() {
		select {
		case timeouts <- streamID:
		default:
		}
	})
	return as
}

// handleMessage dispatches one message received on this attachment's
// stream (spec §4.F step 5: KeepAlive bookkeeping and input forwarding).
func (as *serverAttachment) handleMessage(msg proto.Message) {
	as.timer.Reset(keepAliveMissTimeout)

	switch m := msg.(type) {
	case *proto.KeepAlive:
		// Liveness only; the reset above is what matters.
	case *proto.KeyboardInput:
		as.Input.KeyboardInput(m.KeyCode, m.Pressed)
	case *proto.PointerEntered:
		as.Input.PointerEntered()
	case *proto.PointerLeft:
		as.Input.PointerLeft()
	case *proto.PointerMotion:
		as.Input.PointerMotion(m.X, m.Y)
	case *proto.RelativePointerMotion:
		as.Input.RelativePointerMotion(m.DX, m.DY)
	case *proto.PointerInput:
		as.Input.PointerInput(m.Button, m.Pressed)
	case *proto.PointerScroll:
		as.Input.PointerScroll(m.DeltaX, m.DeltaY)
	case *proto.GamepadAvailable:
		as.Input.GamepadAvailable(m.GamepadID, m.Name)
	case *proto.GamepadUnavailable:
		as.Input.GamepadUnavailable(m.GamepadID)
	case *proto.GamepadMotion:
		as.Input.GamepadMotion(m.GamepadID, m.Axis, m.Value)
	case *proto.GamepadInput:
		as.Input.GamepadInput(m.GamepadID, m.Button, m.Pressed)
	case *proto.Detach:
		as.end()
	default:
		slog.Warn("unexpected message on attachment stream", "type", msg.Type())
	}
}

// end tears the attachment down cleanly, detaching it from its session and
// closing its stream (spec §4.F step 7, client-initiated Detach).
func (as *serverAttachment) end() {
	as.timer.Stop()
	as.session.detach(as)
	as.metrics.AttachmentsActive.Dec()
	_ = as.ep.SendMessage(as.streamID, &proto.SessionEnded{SessionID: as.sessionID}, true)
}

// evict ends the attachment because its session was ended (EndSession): it
// closes the stream with SessionEnded, so the client's HandleClose (see
// internal/attachment) reports AttachmentEnded.
func (as *serverAttachment) evict() {
	as.timer.Stop()
	_ = as.ep.SendMessage(as.streamID, &proto.SessionEnded{SessionID: as.sessionID}, true)
	as.metrics.AttachmentsActive.Dec()
}
