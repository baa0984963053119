package proto

import (
	"bytes"
	stderrors "errors"
	"testing"

	mmerrors "github.com/mmstream/mm/internal/errors"
)

func roundtrip(t *testing.T, msg Message) {
	t.Helper()

	buf := make([]byte, MaxMessageSize)
	n, err := EncodeMessage(msg, buf)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if n < minFrameSize {
		t.Fatalf("encoded length %d below frame floor %d", n, minFrameSize)
	}

	got, consumed, err := DecodeMessage(buf[:n])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if consumed != n {
		t.Fatalf("consumed %d, want %d", consumed, n)
	}
	if got.Type() != msg.Type() {
		t.Fatalf("type mismatch: got %v want %v", got.Type(), msg.Type())
	}
	if !bytes.Equal(got.marshalBody(), msg.marshalBody()) {
		t.Fatalf("body mismatch after roundtrip for %v", msg.Type())
	}
}

func TestRoundtripAllMessageTypes(t *testing.T) {
	cases := []Message{
		&Error{Code: 4, Text: "resolution unsupported"},
		&ListApplications{},
		&ApplicationList{Applications: []Application{
			{ApplicationID: "steam://123", Name: "Game One", IconImageID: 7},
			{ApplicationID: "steam://456", Name: "Game Two", IconImageID: 9},
		}},
		&LaunchSession{ApplicationID: "steam://123"},
		&SessionLaunched{SessionID: 42},
		&UpdateSession{SessionID: 42, Display: DisplayParams{Width: 1920, Height: 1080, RefreshRateMHz: 60000}},
		&SessionUpdated{SessionID: 42},
		&ListSessions{},
		&SessionList{Sessions: []SessionInfo{{SessionID: 1, ApplicationID: "a"}, {SessionID: 2, ApplicationID: "b"}}},
		&EndSession{SessionID: 42},
		&SessionEnded{SessionID: 42},
		&Attach{
			SessionID: 42, VideoCodec: "h264", VideoProfile: "high",
			Width: 1920, Height: 1080, FramerateMHz: 60000,
			AudioCodec: "opus", SampleRateHz: 48000, Channels: 2,
		},
		&Attached{
			SessionID: 42, AttachmentID: 7, VideoCodec: "h264", VideoProfile: "high",
			StreamingWidth: 1920, StreamingHeight: 1080,
			AudioCodec: "opus", SampleRateHz: 48000, Channels: 2,
		},
		&KeepAlive{},
		&SessionParametersChanged{Display: DisplayParams{Width: 2560, Height: 1440, RefreshRateMHz: 120000}, ReattachRequired: true},
		&Detach{},
		&VideoChunk{
			mediaChunk: mediaChunk{
				SessionID: 42, AttachmentID: 7, StreamSeq: 3, Seq: 100,
				Chunk: 1, NumChunks: 3, Data: []byte{1, 2, 3, 4}, TimestampUs: 1000,
			},
			FrameOptional: true, HierarchicalLayer: 1,
		},
		&VideoChunk{
			mediaChunk: mediaChunk{
				SessionID: 42, AttachmentID: 7, StreamSeq: 3, Seq: 101,
				Chunk: 0, NumChunks: 4, Data: []byte{5, 6}, TimestampUs: 2000,
				HasFEC: true,
				FEC:    FECMetadata{Scheme: 1, FecOTI: []byte("twelve-bytes"), FecPayloadID: []byte{0, 1}},
			},
		},
		&AudioChunk{mediaChunk: mediaChunk{
			SessionID: 42, AttachmentID: 7, StreamSeq: 1, Seq: 5,
			Chunk: 0, NumChunks: 1, Data: []byte("pcm"), TimestampUs: 500,
		}},
		&KeyboardInput{KeyCode: 30, Pressed: true},
		&PointerEntered{},
		&PointerLeft{},
		&PointerMotion{X: 12.5, Y: -3.25},
		&PointerInput{Button: 1, Pressed: false},
		&PointerScroll{DeltaX: 0, DeltaY: 1.5},
		&UpdateCursor{ImageID: 9, HotspotX: 2, HotspotY: 2, Visible: true},
		&LockPointer{},
		&ReleasePointer{},
		&RelativePointerMotion{DX: 1, DY: -1},
		&GamepadAvailable{GamepadID: 0, Name: "Xbox Controller"},
		&GamepadUnavailable{GamepadID: 0},
		&GamepadMotion{GamepadID: 0, Axis: 1, Value: 0.75},
		&GamepadInput{GamepadID: 0, Button: 3, Pressed: true},
		&FetchApplicationImage{ApplicationID: "steam://123"},
		&ApplicationImage{ApplicationID: "steam://123", Data: []byte{0xde, 0xad, 0xbe, 0xef}},
	}

	for _, msg := range cases {
		msg := msg
		t.Run(msg.Type().String(), func(t *testing.T) {
			roundtrip(t, msg)
		})
	}
}

// TestEncodePadsToFrameFloor covers invariant 1 for tiny messages: a bare
// KeepAlive has no body, so the raw frame is well under 10 bytes and must
// be zero-padded.
func TestEncodePadsToFrameFloor(t *testing.T) {
	buf := make([]byte, 64)
	n, err := EncodeMessage(&KeepAlive{}, buf)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if n != minFrameSize {
		t.Fatalf("expected padded length %d, got %d", minFrameSize, n)
	}
	for i := 2; i < minFrameSize; i++ {
		if buf[i] != 0 {
			t.Fatalf("expected zero padding at byte %d, got %d", i, buf[i])
		}
	}
}

// TestEncodeShortBuffer covers invariant 2.
func TestEncodeShortBuffer(t *testing.T) {
	msg := &LaunchSession{ApplicationID: "a long enough application identifier to exceed ten bytes"}
	full := make([]byte, MaxMessageSize)
	fullN, err := EncodeMessage(msg, full)
	if err != nil {
		t.Fatalf("encode into full buffer: %v", err)
	}

	short := make([]byte, fullN-1)
	_, err = EncodeMessage(msg, short)
	if err == nil {
		t.Fatalf("expected ShortBuffer error")
	}
	if !mmerrors.IsProtocolError(err) {
		t.Fatalf("expected protocol error, got %v", err)
	}
}

// TestDecodeShortBufferUnderFloor covers the sub-10-byte decode precondition.
func TestDecodeShortBufferUnderFloor(t *testing.T) {
	_, _, err := DecodeMessage([]byte{1, 2, 3})
	if err == nil || !mmerrors.IsProtocolError(err) {
		t.Fatalf("expected protocol ShortBuffer error, got %v", err)
	}
}

// TestDecodeShortBufferPartialFrame covers the "not all total_length bytes
// present" branch once the prefix itself parses.
func TestDecodeShortBufferPartialFrame(t *testing.T) {
	msg := &SessionEnded{SessionID: 1}
	buf := make([]byte, MaxMessageSize)
	n, err := EncodeMessage(msg, buf)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	_, _, err = DecodeMessage(buf[:n-1])
	if err == nil || !mmerrors.IsProtocolError(err) {
		t.Fatalf("expected protocol ShortBuffer error, got %v", err)
	}
}

// TestDecodeInvalidMessageType covers invariant 3: an unregistered
// message_type surfaces InvalidMessageType with the true frame length so
// the caller can skip exactly that many bytes.
func TestDecodeInvalidMessageType(t *testing.T) {
	body := []byte("unregistered body")
	typeVal := uint64(999)

	var typeTmp [10]byte
	typeLen := 0
	{
		v := typeVal
		for {
			b := byte(v & 0x7f)
			v >>= 7
			if v != 0 {
				typeTmp[typeLen] = b | 0x80
			} else {
				typeTmp[typeLen] = b
			}
			typeLen++
			if v == 0 {
				break
			}
		}
	}

	remaining := typeLen + len(body)
	var remTmp [10]byte
	remLen := 0
	{
		v := uint64(remaining)
		for {
			b := byte(v & 0x7f)
			v >>= 7
			if v != 0 {
				remTmp[remLen] = b | 0x80
			} else {
				remTmp[remLen] = b
			}
			remLen++
			if v == 0 {
				break
			}
		}
	}

	frame := append([]byte{}, remTmp[:remLen]...)
	frame = append(frame, typeTmp[:typeLen]...)
	frame = append(frame, body...)
	totalLen := len(frame)
	if totalLen < minFrameSize {
		frame = append(frame, make([]byte, minFrameSize-totalLen)...)
	}

	_, consumed, err := DecodeMessage(frame)
	var pe *mmerrors.ProtocolError
	if err == nil {
		t.Fatalf("expected InvalidMessageType error")
	}
	if !stderrors.As(err, &pe) {
		t.Fatalf("expected *ProtocolError, got %T", err)
	}
	if pe.MsgType != uint32(typeVal) {
		t.Fatalf("expected MsgType=%d, got %d", typeVal, pe.MsgType)
	}
	if pe.TotalLen != totalLen {
		t.Fatalf("expected TotalLen=%d, got %d", totalLen, pe.TotalLen)
	}
	if consumed < minFrameSize {
		t.Fatalf("expected consumed >= frame floor, got %d", consumed)
	}
}
