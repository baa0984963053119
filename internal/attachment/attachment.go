// Package attachment implements the client-side per-attachment state
// machine: stream_seq tracking across encode restarts, packet-ring
// draining, and dispatch to a Delegate (spec §4.G).
package attachment

import (
	"log/slog"
	"sync/atomic"

	"github.com/mmstream/mm/internal/packetring"
	"github.com/mmstream/mm/internal/proto"
)

// VideoStreamParams describes a video stream as settled by the server
// (spec §3 "Attachment").
type VideoStreamParams struct {
	Width, Height uint32
	Codec         string
	Profile       string
}

// AudioStreamParams describes an audio stream as settled by the server.
type AudioStreamParams struct {
	Codec      string
	SampleRate uint32
	Channels   uint32
}

// Delegate receives attachment events. At most one of its terminal
// callbacks — ClientError or AttachmentEnded — is invoked when an
// attachment closes, per HandleClose's rule (spec §4.G "handle_close"); a
// reattach-required close and a user-initiated Detach both fire none.
type Delegate interface {
	VideoStreamStart(streamSeq uint64, params VideoStreamParams)
	VideoPacket(pkt packetring.Packet)
	AudioStreamStart(streamSeq uint64, params AudioStreamParams)
	AudioPacket(pkt packetring.Packet)

	UpdateCursor(imageID uint64, hotspotX, hotspotY uint32, visible bool)
	LockPointer()
	ReleasePointer()

	DisplayParamsChanged(params proto.DisplayParams, reattachRequired bool)

	ClientError(err error)
	ServerError(code uint32, text string)
	AttachmentEnded()
}

// State is the client-side handle for one attachment's incoming traffic.
// It implements mmclient.AttachmentHandle and is not safe for concurrent
// use — it is only ever driven by the owning connection's reactor
// goroutine (spec §5).
type State struct {
	sessionID, attachmentID uint64
	delegate                Delegate
	attached                *proto.Attached

	videoRing            *packetring.PacketRing
	videoStreamSeq       *uint64
	prevVideoStreamSeq   *uint64
	videoStreamSeqOffset uint64

	audioRing            *packetring.PacketRing
	audioStreamSeq       *uint64
	prevAudioStreamSeq   *uint64
	audioStreamSeqOffset uint64

	reattachRequired bool
	closed           bool

	// detachRequested is set by mmclient.Attachment.Detach, which runs on
	// the caller's goroutine rather than the reactor's, hence the atomic
	// instead of a plain bool alongside the reactor-owned fields above.
	detachRequested atomic.Bool
}

// New builds the client-side state for a just-established attachment (spec
// §4.G). The stream_seq offsets let a caller keep packet sequence numbers
// monotonic across reattachment, applied entirely client-side.
func New(sessionID, attachmentID uint64, attached *proto.Attached, delegate Delegate, videoStreamSeqOffset, audioStreamSeqOffset uint64) *State {
	return &State{
		sessionID:            sessionID,
		attachmentID:         attachmentID,
		delegate:             delegate,
		attached:             attached,
		videoRing:            packetring.New(),
		audioRing:            packetring.New(),
		videoStreamSeqOffset: videoStreamSeqOffset,
		audioStreamSeqOffset: audioStreamSeqOffset,
	}
}

func (s *State) SessionID() uint64    { return s.sessionID }
func (s *State) AttachmentID() uint64 { return s.attachmentID }

// MarkDetachRequested records that the caller ended the attachment via
// Detach, so the close that follows reports through no delegate callback
// at all rather than AttachmentEnded (spec §4.G: a user-initiated detach
// and a server-initiated end are distinct, mutually exclusive outcomes).
func (s *State) MarkDetachRequested() {
	s.detachRequested.Store(true)
}

// HandleMessage dispatches one message received on the attachment's stream
// or as a matched datagram (spec §4.G "handle_message").
func (s *State) HandleMessage(msg proto.Message) {
	switch m := msg.(type) {
	case *proto.VideoChunk:
		s.handleVideoChunk(m)
	case *proto.AudioChunk:
		s.handleAudioChunk(m)
	case *proto.UpdateCursor:
		s.delegate.UpdateCursor(m.ImageID, m.HotspotX, m.HotspotY, m.Visible)
	case *proto.LockPointer:
		s.delegate.LockPointer()
	case *proto.ReleasePointer:
		s.delegate.ReleasePointer()
	case *proto.SessionParametersChanged:
		s.delegate.DisplayParamsChanged(m.Display, m.ReattachRequired)
		s.reattachRequired = m.ReattachRequired
	case *proto.SessionEnded:
		// The attachment stream's fin carries the actual end-of-attachment
		// signal; this message alone does nothing.
	case *proto.Error:
		s.delegate.ServerError(m.Code, m.Text)
	case *proto.Attached:
		slog.Error("unexpected Attached on an already-attached stream")
	default:
		slog.Error("unexpected message on attachment stream", "type", msg.Type())
	}
}

func (s *State) handleVideoChunk(chunk *proto.VideoChunk) {
	if s.videoStreamSeq == nil || *s.videoStreamSeq < chunk.StreamSeq {
		prev := s.videoStreamSeq
		s.prevVideoStreamSeq = prev
		seq := chunk.StreamSeq
		s.videoStreamSeq = &seq

		s.delegate.VideoStreamStart(chunk.StreamSeq+s.videoStreamSeqOffset, VideoStreamParams{
			Width:   s.attached.StreamingWidth,
			Height:  s.attached.StreamingHeight,
			Codec:   s.attached.VideoCodec,
			Profile: s.attached.VideoProfile,
		})

		if prev != nil && *prev > 0 {
			s.videoRing.Discard(*prev - 1)
		}
	}

	if err := s.videoRing.RecvChunk(packetring.FromVideoChunk(chunk)); err != nil {
		slog.Error("packet ring error", "stream", "video", "err", err)
	}

	s.drainVideo()
}

// drainVideo drains each of {previous, current} video stream_seq at most
// once per chunk arrival (spec §9's double-drain guard, resolved by
// skipping the current-stream drain when it equals the previous one — see
// DESIGN.md).
func (s *State) drainVideo() {
	if s.prevVideoStreamSeq != nil {
		s.deliverVideo(*s.prevVideoStreamSeq)
	}
	if s.videoStreamSeq != nil && (s.prevVideoStreamSeq == nil || *s.videoStreamSeq != *s.prevVideoStreamSeq) {
		s.deliverVideo(*s.videoStreamSeq)
	}
}

func (s *State) deliverVideo(streamSeq uint64) {
	d := s.videoRing.DrainCompleted(streamSeq)
	for {
		res, ok := d.Next()
		if !ok {
			return
		}
		if res.Packet != nil {
			pkt := *res.Packet
			pkt.StreamSeq += s.videoStreamSeqOffset
			s.delegate.VideoPacket(pkt)
		}
	}
}

func (s *State) handleAudioChunk(chunk *proto.AudioChunk) {
	if s.audioStreamSeq == nil || *s.audioStreamSeq < chunk.StreamSeq {
		prev := s.audioStreamSeq
		s.prevAudioStreamSeq = prev
		seq := chunk.StreamSeq
		s.audioStreamSeq = &seq

		s.delegate.AudioStreamStart(chunk.StreamSeq+s.audioStreamSeqOffset, AudioStreamParams{
			Codec:      s.attached.AudioCodec,
			SampleRate: s.attached.SampleRateHz,
			Channels:   s.attached.Channels,
		})

		if prev != nil && *prev > 0 {
			s.audioRing.Discard(*prev - 1)
		}
	}

	if err := s.audioRing.RecvChunk(packetring.FromAudioChunk(chunk)); err != nil {
		slog.Error("packet ring error", "stream", "audio", "err", err)
	}

	s.drainAudio()
}

func (s *State) drainAudio() {
	if s.prevAudioStreamSeq != nil {
		s.deliverAudio(*s.prevAudioStreamSeq)
	}
	if s.audioStreamSeq != nil && (s.prevAudioStreamSeq == nil || *s.audioStreamSeq != *s.prevAudioStreamSeq) {
		s.deliverAudio(*s.audioStreamSeq)
	}
}

func (s *State) deliverAudio(streamSeq uint64) {
	d := s.audioRing.DrainCompleted(streamSeq)
	for {
		res, ok := d.Next()
		if !ok {
			return
		}
		if res.Packet != nil {
			pkt := *res.Packet
			pkt.StreamSeq += s.audioStreamSeqOffset
			s.delegate.AudioPacket(pkt)
		}
	}
}

// HandleClose fires at most one terminal callback (spec §4.G
// "handle_close"): a user-initiated Detach and a reattach-required
// SessionParametersChanged both mute it entirely (the former because the
// caller already knows it ended the attachment, the latter because the
// caller is expected to re-attach rather than treat this as an end);
// otherwise a connection-level err yields ClientError, and a clean
// server-initiated close yields AttachmentEnded.
func (s *State) HandleClose(err error) {
	if s.closed {
		return
	}
	s.closed = true

	switch {
	case s.detachRequested.Load():
	case s.reattachRequired:
		s.reattachRequired = false
	case err != nil:
		s.delegate.ClientError(err)
	default:
		s.delegate.AttachmentEnded()
	}
}
