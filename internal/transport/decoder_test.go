package transport

import (
	"testing"

	"github.com/mmstream/mm/internal/proto"
)

func encode(t *testing.T, msg proto.Message) []byte {
	t.Helper()
	buf := make([]byte, proto.MaxMessageSize)
	n, err := proto.EncodeMessage(msg, buf)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	return buf[:n]
}

func TestStreamDecoderSingleFeed(t *testing.T) {
	a := encode(t, &proto.KeepAlive{})
	b := encode(t, &proto.Detach{})

	dec := newStreamDecoder()
	msgs, err := dec.feed(append(a, b...))
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
	if _, ok := msgs[0].(*proto.KeepAlive); !ok {
		t.Errorf("msgs[0] = %T, want *proto.KeepAlive", msgs[0])
	}
	if _, ok := msgs[1].(*proto.Detach); !ok {
		t.Errorf("msgs[1] = %T, want *proto.Detach", msgs[1])
	}
}

func TestStreamDecoderSplitAcrossFeeds(t *testing.T) {
	whole := encode(t, &proto.KeepAlive{})
	split := len(whole) / 2

	dec := newStreamDecoder()
	msgs, err := dec.feed(whole[:split])
	if err != nil {
		t.Fatalf("feed (partial): %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("partial feed yielded %d messages, want 0", len(msgs))
	}

	msgs, err = dec.feed(whole[split:])
	if err != nil {
		t.Fatalf("feed (rest): %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("len(msgs) = %d, want 1", len(msgs))
	}
}

func TestStreamDecoderSkipsUnknownType(t *testing.T) {
	// Hand-build a frame with an unregistered message type, followed by a
	// real one, mirroring the forward-compat "ignoring unknown message
	// type" path in the source reactor.
	unknown := make([]byte, 10)
	unknown[0] = 1   // remaining_length = 1 (just the type varint)
	unknown[1] = 120 // unregistered, single-byte varint message type

	known := encode(t, &proto.KeepAlive{})

	dec := newStreamDecoder()
	msgs, err := dec.feed(append(unknown, known...))
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("len(msgs) = %d, want 1 (unknown type should be skipped silently)", len(msgs))
	}
	if _, ok := msgs[0].(*proto.KeepAlive); !ok {
		t.Errorf("msgs[0] = %T, want *proto.KeepAlive", msgs[0])
	}
}
