// Package streamwriter slices encoder output into MTU-sized, optionally
// FEC-coded datagram chunks and publishes them to a connection's outgoing
// datagram queue (spec §4.C).
package streamwriter

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/mmstream/mm/internal/proto"
)

// headroom is subtracted from the transport's maximum datagram payload to
// leave room for the MM header, a video chunk's eight varint fields, two
// bools, the data length prefix, and about 19 bytes of FEC metadata (the
// scheme varint plus a length-prefixed 12-byte fec_oti and 4-byte payload
// id) (spec §4.C step 2). 128 bytes covers
// the worst case with margin, and a little extra improves the odds the
// datagram coalesces into an existing QUIC packet.
const headroom = 128

// DatagramSink is the outgoing-datagram half of a transport endpoint
// (spec §4.D's `outgoing_datagrams` queue) as seen by the stream writer.
type DatagramSink interface {
	SendDatagram(buf []byte) error
}

// Writer assigns stream_seq/seq, slices frames into chunks, and emits each
// as a framed datagram message. One Writer is bound to a single attachment
// (spec §4.F step 4); it is not safe for concurrent use, matching its
// single-producer-thread origin (the encoder thread).
type Writer struct {
	sessionID    uint64
	attachmentID uint64
	sink         DatagramSink

	chunkSize   int
	maxDgramLen int
	fecRatios   []float32
	pacer       *rate.Limiter

	audioStreamSeq uint64
	audioSeq       uint64
	videoStreamSeq uint64
	videoSeq       uint64
}

// New builds a Writer. fecRatios is indexed by hierarchical_layer; a layer
// beyond the slice, or a zero ratio, gets no FEC. pacer may be nil to send
// datagrams as fast as the sink accepts them.
func New(sessionID, attachmentID uint64, maxDgramLen int, fecRatios []float32, sink DatagramSink, pacer *rate.Limiter) *Writer {
	return &Writer{
		sessionID:    sessionID,
		attachmentID: attachmentID,
		sink:         sink,
		chunkSize:    maxDgramLen - headroom,
		maxDgramLen:  maxDgramLen,
		fecRatios:    fecRatios,
		pacer:        pacer,
	}
}

func (w *Writer) fecRatioFor(layer uint32) float32 {
	if int(layer) >= len(w.fecRatios) {
		return 0
	}
	return w.fecRatios[layer]
}

// WriteVideoFrame slices and emits one encoded video frame, returning the
// (stream_seq, seq) pair the chunks carried (spec §4.C / §4.F "Encode
// restart").
func (w *Writer) WriteVideoFrame(pts uint64, frame []byte, hierarchicalLayer uint32, streamRestart bool) (uint64, uint64) {
	if streamRestart {
		w.videoStreamSeq++
		w.videoSeq = 0
	}
	seq := w.videoSeq

	chunks, err := iterChunks(frame, w.chunkSize, w.fecRatioFor(hierarchicalLayer))
	if err != nil {
		w.videoSeq++
		return w.videoStreamSeq, seq
	}

	for _, c := range chunks {
		msg := &proto.VideoChunk{
			HierarchicalLayer: hierarchicalLayer,
		}
		msg.SessionID = w.sessionID
		msg.AttachmentID = w.attachmentID
		msg.StreamSeq = w.videoStreamSeq
		msg.Seq = seq
		msg.Chunk = c.index
		msg.NumChunks = c.numChunks
		msg.Data = c.data
		msg.TimestampUs = pts
		msg.HasFEC = c.hasFEC
		msg.FEC = c.fec

		w.emit(msg)
	}

	w.videoSeq++
	return w.videoStreamSeq, seq
}

// WriteAudioFrame slices and emits one encoded audio frame. Audio is never
// FEC-coded (spec §4.C).
func (w *Writer) WriteAudioFrame(pts uint64, frame []byte, streamRestart bool) (uint64, uint64) {
	if streamRestart {
		w.audioStreamSeq++
		w.audioSeq = 0
	}
	seq := w.audioSeq

	chunks, _ := iterChunks(frame, w.chunkSize, 0)
	for _, c := range chunks {
		msg := &proto.AudioChunk{}
		msg.SessionID = w.sessionID
		msg.AttachmentID = w.attachmentID
		msg.StreamSeq = w.audioStreamSeq
		msg.Seq = seq
		msg.Chunk = c.index
		msg.NumChunks = c.numChunks
		msg.Data = c.data
		msg.TimestampUs = pts

		w.emit(msg)
	}

	w.audioSeq++
	return w.audioStreamSeq, seq
}

func (w *Writer) emit(msg proto.Message) {
	if w.pacer != nil {
		_ = w.pacer.Wait(context.Background())
	}

	buf := make([]byte, w.maxDgramLen)
	n, err := proto.EncodeMessage(msg, buf)
	if err != nil {
		return
	}
	_ = w.sink.SendDatagram(buf[:n])
}
