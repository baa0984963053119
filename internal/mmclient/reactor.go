package mmclient

import (
	"log/slog"
	"time"

	mmerrors "github.com/mmstream/mm/internal/errors"
	"github.com/mmstream/mm/internal/proto"
	"github.com/mmstream/mm/internal/transport"
)

const keepaliveInterval = time.Second

type roundtripResult struct {
	msg proto.Message
	err error
}

type registerRoundtripMsg struct {
	sid uint64
	ch  chan roundtripResult
}

type registerAttachmentMsg struct {
	sid    uint64
	handle AttachmentHandle
}

// reactor owns a single connection's in-flight roundtrip and attachment
// tables exclusively, so they never need a mutex (spec §5 "dedicated
// goroutine per role" / §4.E "conn_reactor"). Every other goroutine talks
// to it only through these channels.
type reactor struct {
	ep *transport.Endpoint

	registerRT  chan registerRoundtripMsg
	cancelRT    chan uint64
	registerAtt chan registerAttachmentMsg
}

func newReactor(ep *transport.Endpoint) *reactor {
	return &reactor{
		ep:          ep,
		registerRT:  make(chan registerRoundtripMsg, 16),
		cancelRT:    make(chan uint64, 16),
		registerAtt: make(chan registerAttachmentMsg, 16),
	}
}

func (r *reactor) registerRoundtrip(sid uint64, ch chan roundtripResult) {
	r.registerRT <- registerRoundtripMsg{sid: sid, ch: ch}
}

func (r *reactor) cancelRoundtrip(sid uint64) {
	r.cancelRT <- sid
}

func (r *reactor) registerAttachment(sid uint64, handle AttachmentHandle) {
	r.registerAtt <- registerAttachmentMsg{sid: sid, handle: handle}
}

// run is the reactor's event loop: a 1 Hz keepalive timer plus whatever
// arrives first on the registration channels or the transport's event
// stream (spec §4.E "conn_reactor"'s select loop).
func (r *reactor) run() {
	roundtrips := make(map[uint64]chan roundtripResult)
	attachments := make(map[uint64]AttachmentHandle)
	prevAttachments := make(map[uint64]bool) // keyed by attachment_id

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case m := <-r.registerRT:
			roundtrips[m.sid] = m.ch

		case sid := <-r.cancelRT:
			delete(roundtrips, sid)

		case m := <-r.registerAtt:
			attachments[m.sid] = m.handle

		case <-ticker.C:
			for sid := range attachments {
				_ = r.ep.SendMessage(sid, &proto.KeepAlive{}, false)
			}

		case ev, ok := <-r.ep.Events():
			if !ok {
				err := mmerrors.NewTransportError("conn_reactor", mmerrors.TransportIdle, nil)
				for _, ch := range roundtrips {
					ch <- roundtripResult{err: err}
				}
				for _, att := range attachments {
					att.HandleClose(err)
				}
				return
			}
			handleEvent(ev, roundtrips, attachments, prevAttachments)
		}
	}
}

func handleEvent(ev transport.Event, roundtrips map[uint64]chan roundtripResult, attachments map[uint64]AttachmentHandle, prevAttachments map[uint64]bool) {
	switch ev.Kind {
	case transport.EventStreamMessage:
		if att, ok := attachments[ev.StreamID]; ok {
			att.HandleMessage(ev.Message)
			return
		}
		if ch, ok := roundtrips[ev.StreamID]; ok {
			delete(roundtrips, ev.StreamID)
			ch <- roundtripResult{msg: ev.Message, err: ev.Err}
		}

	case transport.EventDatagram:
		sessionID, attachmentID, ok := mediaChunkIDs(ev.Message)
		if !ok {
			return
		}

		var match AttachmentHandle
		switch {
		case sessionID == 0 && attachmentID == 0 && len(attachments) == 1:
			for _, att := range attachments {
				match = att
			}
		case sessionID != 0 && attachmentID != 0:
			for _, att := range attachments {
				if att.SessionID() == sessionID && att.AttachmentID() == attachmentID {
					match = att
					break
				}
			}
		}

		if match != nil {
			match.HandleMessage(ev.Message)
		} else if !prevAttachments[attachmentID] {
			slog.Error("datagram matched no live or recently-closed attachment", "session_id", sessionID, "attachment_id", attachmentID)
		}
		// A straggler from a just-closed attachment (attachmentID in
		// prevAttachments) is expected and not worth surfacing as an error.

	case transport.EventStreamClosed:
		delete(roundtrips, ev.StreamID)
		if att, ok := attachments[ev.StreamID]; ok {
			delete(attachments, ev.StreamID)
			prevAttachments[att.AttachmentID()] = true
			att.HandleClose(nil)
		}
	}
}

func mediaChunkIDs(msg proto.Message) (sessionID, attachmentID uint64, ok bool) {
	switch m := msg.(type) {
	case *proto.VideoChunk:
		return m.SessionID, m.AttachmentID, true
	case *proto.AudioChunk:
		return m.SessionID, m.AttachmentID, true
	default:
		return 0, 0, false
	}
}
