package transport

import (
	stderrors "errors"

	mmerrors "github.com/mmstream/mm/internal/errors"
	"github.com/mmstream/mm/internal/proto"
)

// streamDecoder accumulates bytes read off a stream and yields whole
// messages as they become available, carrying a short trailing partial
// message across feed calls (spec §4.D "pump_stream": "read messages,
// there may be multiple", partial reads buffered under the stream's ID).
type streamDecoder struct {
	buf []byte
}

func newStreamDecoder() *streamDecoder { return &streamDecoder{} }

// feed appends newly read bytes and decodes as many whole messages as it
// can. A non-nil error means a malformed frame was seen; any messages
// already decoded are still returned, and the decoder stops consuming
// further bytes from that point (the caller should treat the stream as
// broken).
func (d *streamDecoder) feed(b []byte) ([]proto.Message, error) {
	d.buf = append(d.buf, b...)

	var out []proto.Message
	for len(d.buf) > 0 {
		msg, n, err := proto.DecodeMessage(d.buf)
		if err != nil {
			var pe *mmerrors.ProtocolError
			if stderrors.As(err, &pe) {
				if pe.ShortBy > 0 {
					break // wait for more bytes
				}
				if pe.MsgType != 0 {
					// Unknown, forward-compat message type: skip it and
					// keep decoding the rest of the buffer.
					d.buf = d.buf[n:]
					continue
				}
			}
			return out, err
		}

		d.buf = d.buf[n:]
		out = append(out, msg)
	}
	return out, nil
}
