package proto

import (
	"encoding/binary"
	"math"
)

// fieldWriter accumulates a message body using the same unsigned LEB128
// varints as the frame prefix. encoding/binary's Uvarint/PutUvarint
// implement LEB128 (not QUIC's two-bit-length-prefixed variable-length
// integers), so the body codec reuses them instead of hand-rolling a second
// varint routine.
type fieldWriter struct {
	buf []byte
}

func (w *fieldWriter) WriteVarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf = append(w.buf, tmp[:n]...)
}

func (w *fieldWriter) WriteBool(b bool) {
	if b {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *fieldWriter) WriteFloat32(f float32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], math.Float32bits(f))
	w.buf = append(w.buf, tmp[:]...)
}

func (w *fieldWriter) WriteBytes(b []byte) {
	w.WriteVarint(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *fieldWriter) WriteString(s string) {
	w.WriteBytes([]byte(s))
}

// fieldReader consumes a message body written by fieldWriter. Reads past
// the end of the slice return io.ErrUnexpectedEOF-flavored errShortField;
// callers translate that into errors.InvalidMessage for the enclosing
// message, since a short body is a malformed message, not a stream-level
// short read (those are handled by the frame-level ShortBuffer check).
type fieldReader struct {
	buf []byte
	pos int
}

var errShortField = fieldError("unexpected end of message body")

type fieldError string

func (e fieldError) Error() string { return string(e) }

func (r *fieldReader) ReadVarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		return 0, errShortField
	}
	r.pos += n
	return v, nil
}

func (r *fieldReader) ReadBool() (bool, error) {
	if r.pos >= len(r.buf) {
		return false, errShortField
	}
	v := r.buf[r.pos] != 0
	r.pos++
	return v, nil
}

func (r *fieldReader) ReadFloat32() (float32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, errShortField
	}
	v := math.Float32frombits(binary.BigEndian.Uint32(r.buf[r.pos : r.pos+4]))
	r.pos += 4
	return v, nil
}

func (r *fieldReader) ReadBytes() ([]byte, error) {
	n, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	if uint64(r.pos)+n > uint64(len(r.buf)) {
		return nil, errShortField
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

func (r *fieldReader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *fieldReader) done() bool { return r.pos >= len(r.buf) }
