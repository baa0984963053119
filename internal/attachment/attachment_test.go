package attachment

import (
	"errors"
	"testing"

	"github.com/mmstream/mm/internal/packetring"
	"github.com/mmstream/mm/internal/proto"
)

type fakeDelegate struct {
	videoStarts   []uint64
	videoPackets  []packetring.Packet
	audioStarts   []uint64
	audioPackets  []packetring.Packet
	clientErr     error
	serverErrCode uint32
	ended         bool
}

func (d *fakeDelegate) VideoStreamStart(streamSeq uint64, _ VideoStreamParams) {
	d.videoStarts = append(d.videoStarts, streamSeq)
}
func (d *fakeDelegate) VideoPacket(pkt packetring.Packet)  { d.videoPackets = append(d.videoPackets, pkt) }
func (d *fakeDelegate) AudioStreamStart(streamSeq uint64, _ AudioStreamParams) {
	d.audioStarts = append(d.audioStarts, streamSeq)
}
func (d *fakeDelegate) AudioPacket(pkt packetring.Packet) { d.audioPackets = append(d.audioPackets, pkt) }
func (d *fakeDelegate) UpdateCursor(uint64, uint32, uint32, bool) {}
func (d *fakeDelegate) LockPointer()                              {}
func (d *fakeDelegate) ReleasePointer()                           {}
func (d *fakeDelegate) DisplayParamsChanged(proto.DisplayParams, bool) {}
func (d *fakeDelegate) ClientError(err error)                     { d.clientErr = err }
func (d *fakeDelegate) ServerError(code uint32, _ string)         { d.serverErrCode = code }
func (d *fakeDelegate) AttachmentEnded()                          { d.ended = true }

func singleChunkVideo(streamSeq uint64, data []byte) *proto.VideoChunk {
	vc := &proto.VideoChunk{}
	vc.StreamSeq = streamSeq
	vc.Seq = 0
	vc.Chunk = 0
	vc.NumChunks = 1
	vc.Data = data
	return vc
}

func TestHandleMessageDeliversVideoPacket(t *testing.T) {
	del := &fakeDelegate{}
	st := New(1, 2, &proto.Attached{}, del, 0, 0)

	st.HandleMessage(singleChunkVideo(0, []byte("frame0")))

	if len(del.videoStarts) != 1 || del.videoStarts[0] != 0 {
		t.Fatalf("videoStarts = %v, want [0]", del.videoStarts)
	}
	if len(del.videoPackets) != 1 {
		t.Fatalf("len(videoPackets) = %d, want 1", len(del.videoPackets))
	}
}

func TestHandleMessageStreamSeqOffsetApplied(t *testing.T) {
	del := &fakeDelegate{}
	st := New(1, 2, &proto.Attached{}, del, 100, 0)

	st.HandleMessage(singleChunkVideo(0, []byte("frame0")))

	if del.videoStarts[0] != 100 {
		t.Fatalf("videoStarts[0] = %d, want 100 (offset applied)", del.videoStarts[0])
	}
	if del.videoPackets[0].StreamSeq != 100 {
		t.Fatalf("packet.StreamSeq = %d, want 100", del.videoPackets[0].StreamSeq)
	}
}

func TestHandleMessageDrainsPreviousAndCurrentStream(t *testing.T) {
	del := &fakeDelegate{}
	st := New(1, 2, &proto.Attached{}, del, 0, 0)

	st.HandleMessage(singleChunkVideo(0, []byte("s0f0")))
	st.HandleMessage(singleChunkVideo(1, []byte("s1f0")))

	// stream 0's packet is delivered as soon as its chunk arrives; stream
	// 1's chunk then drains stream 0 again (the "previous" drain, now
	// empty) and stream 1 (the "current" drain), so each packet is
	// delivered exactly once.
	if len(del.videoPackets) != 2 {
		t.Fatalf("len(videoPackets) = %d, want 2", len(del.videoPackets))
	}
}

func TestHandleCloseFiresExactlyOneCallback(t *testing.T) {
	del := &fakeDelegate{}
	st := New(1, 2, &proto.Attached{}, del, 0, 0)

	st.HandleClose(nil)
	if !del.ended {
		t.Fatal("expected AttachmentEnded on clean close")
	}

	// A second close must not fire another callback.
	del.ended = false
	st.HandleClose(errors.New("boom"))
	if del.ended || del.clientErr != nil {
		t.Fatal("HandleClose should be a no-op once already closed")
	}
}

func TestHandleCloseClientErrorWhenNotReattaching(t *testing.T) {
	del := &fakeDelegate{}
	st := New(1, 2, &proto.Attached{}, del, 0, 0)

	err := errors.New("connection lost")
	st.HandleClose(err)
	if del.clientErr != err || del.ended {
		t.Fatalf("expected ClientError callback, got ended=%v err=%v", del.ended, del.clientErr)
	}
}

func TestHandleCloseMutedAfterDetachRequested(t *testing.T) {
	del := &fakeDelegate{}
	st := New(1, 2, &proto.Attached{}, del, 0, 0)

	st.MarkDetachRequested()
	st.HandleClose(nil)

	if del.ended || del.clientErr != nil {
		t.Fatalf("a user-initiated detach should mute both callbacks, got ended=%v err=%v", del.ended, del.clientErr)
	}
}

func TestHandleCloseMutedWhenReattachRequired(t *testing.T) {
	del := &fakeDelegate{}
	st := New(1, 2, &proto.Attached{}, del, 0, 0)

	st.HandleMessage(&proto.SessionParametersChanged{ReattachRequired: true})
	st.HandleClose(errors.New("stream closed"))

	if del.ended || del.clientErr != nil {
		t.Fatalf("reattach-required close should mute both callbacks, got ended=%v err=%v", del.ended, del.clientErr)
	}
}
