package mmserver

import (
	"log/slog"

	"github.com/mmstream/mm/internal/metrics"
	"github.com/mmstream/mm/internal/proto"
	"github.com/mmstream/mm/internal/transport"
)

// connHandler dispatches incoming messages for one client connection (spec
// §4.F, grounded on mm-server/src/server/handlers.rs's per-stream `dispatch`
// worker, adapted to Go's single-goroutine-per-connection reactor instead
// of one OS thread per stream).
type connHandler struct {
	ep     endpointSender
	events <-chan transport.Event
	store  *sessionStore
	fec    []float32
	metrics *metrics.Registry

	attachments map[uint64]*serverAttachment // by streamID
	timeouts    chan uint64                  // streamIDs whose keepalive-miss timer fired
}

func newConnHandler(ep *transport.Endpoint, store *sessionStore, fec []float32, m *metrics.Registry) *connHandler {
	return &connHandler{
		ep:          ep,
		events:      ep.Events(),
		store:       store,
		fec:         fec,
		metrics:     m,
		attachments: make(map[uint64]*serverAttachment),
		timeouts:    make(chan uint64, 8),
	}
}

// run drains the endpoint's event stream until the connection closes,
// routing stream messages to either an established attachment or the
// roundtrip dispatcher (spec §4.F / §4.D).
func (h *connHandler) run() {
	for {
		select {
		case ev, ok := <-h.events:
			if !ok {
				for _, as := range h.attachments {
					as.timer.Stop()
					as.session.detach(as)
				}
				return
			}
			h.handleEvent(ev)
		case streamID := <-h.timeouts:
			h.handleTimeout(streamID)
		}
	}
}

func (h *connHandler) handleTimeout(streamID uint64) {
	as, ok := h.attachments[streamID]
	if !ok {
		return
	}
	slog.Warn("attachment missed its keepalive deadline, ending session", "stream_id", streamID, "session_id", as.sessionID)
	h.metrics.KeepAliveMisses.Inc()
	as.end()
	delete(h.attachments, streamID)
}

func (h *connHandler) handleEvent(ev transport.Event) {
	switch ev.Kind {
	case transport.EventStreamMessage:
		if ev.Err != nil {
			return
		}
		if as, ok := h.attachments[ev.StreamID]; ok {
			as.handleMessage(ev.Message)
			return
		}
		h.dispatchInitial(ev.StreamID, ev.Message)
	case transport.EventStreamClosed:
		if as, ok := h.attachments[ev.StreamID]; ok {
			as.timer.Stop()
			as.session.detach(as)
			delete(h.attachments, ev.StreamID)
		}
	case transport.EventDatagram:
		// Clients never send datagrams in this protocol; ignore.
	}
}

func (h *connHandler) sendErr(streamID uint64, code proto.ErrorCode, text string) {
	slog.Debug("handler returned error", "code", code, "text", text)
	_ = h.ep.SendMessage(streamID, &proto.Error{Code: uint32(code), Text: text}, true)
}

// dispatchInitial routes the first message seen on a new stream (spec
// §4.F's `dispatch`/`roundtrip` functions).
func (h *connHandler) dispatchInitial(streamID uint64, msg proto.Message) {
	switch m := msg.(type) {
	case *proto.ListApplications:
		resp := &proto.ApplicationList{Applications: h.store.listApplications()}
		_ = h.ep.SendMessage(streamID, resp, true)
	case *proto.FetchApplicationImage:
		h.fetchApplicationImage(streamID, m)
	case *proto.LaunchSession:
		h.launchSession(streamID, m)
	case *proto.ListSessions:
		h.listSessions(streamID)
	case *proto.UpdateSession:
		h.updateSession(streamID, m)
	case *proto.EndSession:
		h.endSession(streamID, m)
	case *proto.Attach:
		h.attach(streamID, m)
	default:
		h.sendErr(streamID, proto.ErrCodeProtocolUnexpectedMessage, "unexpected message type")
	}
}

func (h *connHandler) fetchApplicationImage(streamID uint64, msg *proto.FetchApplicationImage) {
	app, ok := h.store.apps[msg.ApplicationID]
	if !ok {
		h.sendErr(streamID, proto.ErrCodeApplicationNotFound, "application not found")
		return
	}
	if app.HeaderImagePath == "" {
		h.sendErr(streamID, proto.ErrCodeApplicationNotFound, "image not found")
		return
	}

	data, err := readImageFile(app.HeaderImagePath)
	if err != nil {
		slog.Error("failed to load image data", "path", app.HeaderImagePath, "err", err)
		h.sendErr(streamID, proto.ErrCodeServer, "failed to load image")
		return
	}

	_ = h.ep.SendMessage(streamID, &proto.ApplicationImage{ApplicationID: msg.ApplicationID, Data: data}, true)
}

func (h *connHandler) launchSession(streamID uint64, msg *proto.LaunchSession) {
	session, err := h.store.launch(msg.ApplicationID, proto.DisplayParams{}, nil)
	if err != nil {
		h.sendErr(streamID, proto.ErrCodeSessionLaunchFailed, err.Error())
		return
	}
	h.metrics.SessionsActive.Inc()
	_ = h.ep.SendMessage(streamID, &proto.SessionLaunched{SessionID: session.ID}, true)
}

func (h *connHandler) listSessions(streamID uint64) {
	sessions := h.store.list()
	out := make([]proto.SessionInfo, len(sessions))
	for i, s := range sessions {
		out[i] = proto.SessionInfo{SessionID: s.ID, ApplicationID: s.ApplicationID}
	}
	_ = h.ep.SendMessage(streamID, &proto.SessionList{Sessions: out}, true)
}

func (h *connHandler) updateSession(streamID uint64, msg *proto.UpdateSession) {
	session, ok := h.store.get(msg.SessionID)
	if !ok {
		h.sendErr(streamID, proto.ErrCodeSessionNotFound, "")
		return
	}

	display, err := validateDisplayParams(msg.Display)
	if err != nil {
		h.sendErr(streamID, errorCode(err, false), err.Error())
		return
	}

	notice, changed := session.updateDisplay(display)
	if changed {
		if as := session.currentAttachment(); as != nil {
			_ = h.ep.SendMessage(as.streamID, &notice, false)
		}
	}
	_ = h.ep.SendMessage(streamID, &proto.SessionUpdated{SessionID: msg.SessionID}, true)
}

func (h *connHandler) endSession(streamID uint64, msg *proto.EndSession) {
	session, ok := h.store.end(msg.SessionID)
	if !ok {
		h.sendErr(streamID, proto.ErrCodeSessionNotFound, "")
		return
	}
	h.metrics.SessionsActive.Dec()
	if as := session.currentAttachment(); as != nil {
		as.evict()
		delete(h.attachments, as.streamID)
	}
	_ = h.ep.SendMessage(streamID, &proto.SessionEnded{SessionID: msg.SessionID}, true)
}

// attach validates and establishes a new attachment, refusing if the
// session already has one (spec §4.F steps 1-4; Session.attach rejects
// rather than pre-empting, per mm-server/src/session.rs).
func (h *connHandler) attach(streamID uint64, msg *proto.Attach) {
	session, ok := h.store.get(msg.SessionID)
	if !ok {
		h.sendErr(streamID, proto.ErrCodeSessionNotFound, "")
		return
	}

	video, audio, err := validateAttach(msg)
	if err != nil {
		h.metrics.AttachmentsRejected.WithLabelValues("validation").Inc()
		h.sendErr(streamID, errorCode(err, true), err.Error())
		return
	}

	as := newServerAttachment(session, streamID, h.ep, h.fec, h.metrics, h.timeouts)
	if err := session.attach(as); err != nil {
		as.timer.Stop()
		h.metrics.AttachmentsRejected.WithLabelValues("already_attached").Inc()
		h.sendErr(streamID, errorCode(err, true), err.Error())
		return
	}

	h.attachments[streamID] = as
	h.metrics.AttachmentsActive.Inc()
	h.metrics.AttachmentsTotal.Inc()

	attached := &proto.Attached{
		SessionID:       session.ID,
		AttachmentID:    as.attachmentID,
		VideoCodec:      video.codec,
		VideoProfile:    video.profile,
		StreamingWidth:  video.width,
		StreamingHeight: video.height,
		AudioCodec:      audio.codec,
		SampleRateHz:    audio.sampleRate,
		Channels:        audio.channels,
	}
	if err := h.ep.SendMessage(streamID, attached, false); err != nil {
		slog.Debug("client hung up before Attached could be sent", "err", err)
	}
}
