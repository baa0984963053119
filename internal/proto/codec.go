package proto

import (
	"encoding/binary"

	mmerrors "github.com/mmstream/mm/internal/errors"
)

// MaxMessageSize is the hard ceiling on a single serialized message (spec §3).
const MaxMessageSize = 65535

// minFrameSize is the floor every encoded frame is padded up to, so a reader
// can always request exactly this many bytes to learn the true frame length
// (spec §4.A).
const minFrameSize = 10

// EncodeMessage writes msg's framed wire representation into buf and
// returns the number of bytes written. Frames below minFrameSize are
// zero-padded up to it. Returns ShortBuffer if buf cannot hold the frame,
// InvalidMessage if the frame would exceed MaxMessageSize.
func EncodeMessage(msg Message, buf []byte) (int, error) {
	body := msg.marshalBody()

	var typeTmp [binary.MaxVarintLen64]byte
	typeLen := binary.PutUvarint(typeTmp[:], uint64(msg.Type()))

	remaining := typeLen + len(body)

	var remTmp [binary.MaxVarintLen64]byte
	remLen := binary.PutUvarint(remTmp[:], uint64(remaining))

	total := remLen + remaining
	if total > MaxMessageSize {
		return 0, mmerrors.InvalidMessage("encode_message")
	}

	needed := total
	if needed < minFrameSize {
		needed = minFrameSize
	}
	if len(buf) < needed {
		return 0, mmerrors.ShortBuffer("encode_message", needed)
	}

	n := copy(buf, remTmp[:remLen])
	n += copy(buf[n:], typeTmp[:typeLen])
	n += copy(buf[n:], body)

	if n < minFrameSize {
		clear(buf[n:minFrameSize])
		n = minFrameSize
	}
	return n, nil
}

// DecodeMessage parses one framed message from the head of buf and returns
// it along with the number of bytes consumed (spec §4.A). An unregistered
// message_type yields InvalidMessageType(type, total_length); the caller
// may skip the returned byte count and continue decoding the remainder of
// the stream (forward compatibility, spec §7).
func DecodeMessage(buf []byte) (Message, int, error) {
	if len(buf) < minFrameSize {
		return nil, 0, mmerrors.ShortBuffer("decode_message", minFrameSize)
	}

	remaining, n1 := binary.Uvarint(buf)
	if n1 <= 0 {
		return nil, 0, mmerrors.InvalidMessage("decode_message")
	}

	msgType, n2 := binary.Uvarint(buf[n1:])
	if n2 <= 0 {
		return nil, 0, mmerrors.InvalidMessage("decode_message")
	}

	totalLength := n1 + int(remaining)
	dataOffset := n1 + n2

	if msgType == 0 || totalLength > MaxMessageSize || dataOffset > totalLength {
		return nil, 0, mmerrors.InvalidMessage("decode_message")
	}

	if len(buf) < totalLength {
		return nil, 0, mmerrors.ShortBuffer("decode_message", totalLength)
	}

	consumed := totalLength
	if consumed < minFrameSize {
		consumed = minFrameSize
	}

	ctor, ok := registry[MessageType(msgType)]
	if !ok {
		return nil, consumed, mmerrors.InvalidMessageType("decode_message", uint32(msgType), totalLength)
	}

	msg := ctor()
	if err := msg.unmarshalBody(buf[dataOffset:totalLength]); err != nil {
		return nil, 0, mmerrors.InvalidMessage("decode_message")
	}
	return msg, consumed, nil
}
