package mmclient

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/mmstream/mm/internal/proto"
	"github.com/mmstream/mm/internal/transport"
)

type fakeAttachment struct {
	sessionID, attachmentID uint64
	messages                []proto.Message
	closeErr                error
	closed                  bool
	detachRequested         bool
}

func (a *fakeAttachment) SessionID() uint64    { return a.sessionID }
func (a *fakeAttachment) AttachmentID() uint64 { return a.attachmentID }
func (a *fakeAttachment) HandleMessage(msg proto.Message) {
	a.messages = append(a.messages, msg)
}
func (a *fakeAttachment) HandleClose(err error) {
	a.closed = true
	a.closeErr = err
}
func (a *fakeAttachment) MarkDetachRequested() { a.detachRequested = true }

func TestHandleEventRoutesStreamMessageToAttachment(t *testing.T) {
	att := &fakeAttachment{sessionID: 1, attachmentID: 2}
	attachments := map[uint64]AttachmentHandle{5: att}
	roundtrips := map[uint64]chan roundtripResult{}

	handleEvent(transport.Event{Kind: transport.EventStreamMessage, StreamID: 5, Message: &proto.KeepAlive{}}, roundtrips, attachments, map[uint64]bool{})

	if len(att.messages) != 1 {
		t.Fatalf("attachment received %d messages, want 1", len(att.messages))
	}
}

func TestHandleEventFulfillsRoundtrip(t *testing.T) {
	ch := make(chan roundtripResult, 1)
	roundtrips := map[uint64]chan roundtripResult{5: ch}

	handleEvent(transport.Event{Kind: transport.EventStreamMessage, StreamID: 5, Message: &proto.SessionEnded{SessionID: 9}}, roundtrips, map[uint64]AttachmentHandle{}, map[uint64]bool{})

	select {
	case res := <-ch:
		if se, ok := res.msg.(*proto.SessionEnded); !ok || se.SessionID != 9 {
			t.Fatalf("unexpected roundtrip result: %+v", res)
		}
	default:
		t.Fatal("roundtrip channel was not fulfilled")
	}
	if _, ok := roundtrips[5]; ok {
		t.Fatal("roundtrip entry should be removed after fulfillment")
	}
}

func TestHandleEventDatagramSingleAttachmentFallback(t *testing.T) {
	att := &fakeAttachment{sessionID: 10, attachmentID: 20}
	attachments := map[uint64]AttachmentHandle{5: att}

	chunk := &proto.VideoChunk{}
	handleEvent(transport.Event{Kind: transport.EventDatagram, Message: chunk}, map[uint64]chan roundtripResult{}, attachments, map[uint64]bool{})

	if len(att.messages) != 1 {
		t.Fatalf("single attachment should receive the (0,0) datagram, got %d messages", len(att.messages))
	}
}

func TestHandleEventDatagramMatchesBySessionAndAttachment(t *testing.T) {
	a := &fakeAttachment{sessionID: 1, attachmentID: 1}
	b := &fakeAttachment{sessionID: 2, attachmentID: 2}
	attachments := map[uint64]AttachmentHandle{5: a, 6: b}

	chunk := &proto.AudioChunk{}
	chunk.SessionID = 2
	chunk.AttachmentID = 2
	handleEvent(transport.Event{Kind: transport.EventDatagram, Message: chunk}, map[uint64]chan roundtripResult{}, attachments, map[uint64]bool{})

	if len(a.messages) != 0 {
		t.Fatalf("attachment a should not receive the datagram")
	}
	if len(b.messages) != 1 {
		t.Fatalf("attachment b should receive the datagram")
	}
}

func TestHandleEventDatagramUnmatchedNonStragglerLogsError(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	chunk := &proto.VideoChunk{}
	chunk.SessionID = 7
	chunk.AttachmentID = 9
	handleEvent(transport.Event{Kind: transport.EventDatagram, Message: chunk}, map[uint64]chan roundtripResult{}, map[uint64]AttachmentHandle{}, map[uint64]bool{})

	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Fatalf("expected an error to be logged for an unmatched, non-straggler datagram, got log output: %q", buf.String())
	}
}

func TestHandleEventDatagramUnmatchedStragglerDoesNotLog(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	chunk := &proto.VideoChunk{}
	chunk.SessionID = 7
	chunk.AttachmentID = 9
	handleEvent(transport.Event{Kind: transport.EventDatagram, Message: chunk}, map[uint64]chan roundtripResult{}, map[uint64]AttachmentHandle{}, map[uint64]bool{9: true})

	if buf.Len() != 0 {
		t.Fatalf("a straggler datagram from a recently-closed attachment should not be logged, got: %q", buf.String())
	}
}

func TestHandleEventStreamClosedNotifiesAttachmentOnce(t *testing.T) {
	att := &fakeAttachment{sessionID: 1, attachmentID: 2}
	attachments := map[uint64]AttachmentHandle{5: att}
	prev := map[uint64]bool{}

	handleEvent(transport.Event{Kind: transport.EventStreamClosed, StreamID: 5}, map[uint64]chan roundtripResult{}, attachments, prev)

	if !att.closed {
		t.Fatal("attachment should have been closed")
	}
	if _, ok := attachments[5]; ok {
		t.Fatal("attachment entry should be removed")
	}
	if !prev[2] {
		t.Fatal("attachment_id should be recorded in prevAttachments")
	}
}
