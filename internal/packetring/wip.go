package packetring

import (
	"encoding/binary"

	"github.com/klauspost/reedsolomon"

	mmerrors "github.com/mmstream/mm/internal/errors"
	"github.com/mmstream/mm/internal/proto"
)

// FECSchemeReedSolomon is this implementation's registered FEC scheme. The
// source protocol names RaptorQ (a rateless fountain code); Go's ecosystem
// has no maintained RaptorQ implementation, so FEC mode is carried instead
// by github.com/klauspost/reedsolomon, a systematic block code (see
// DESIGN.md's Open Question resolution). fec_oti/fec_payload_id are shaped
// around that substitution rather than RaptorQ's OTI/PayloadId layout.
const FECSchemeReedSolomon uint32 = 1

// oti is the 12-byte fec_oti broadcast identically on every chunk of a
// frame: data-shard count, parity-shard count, and the original frame
// length. Shard size is not carried here — every shard (including the
// last, zero-padded data shard) is sent at a fixed size chosen by the
// stream writer, so the ring infers it from the first chunk it receives
// rather than spending OTI bytes on a value implied by the wire itself.
type oti struct {
	dataShards   uint32
	parityShards uint32
	totalLen     uint32
}

const otiSize = 12

func decodeOTI(b []byte) (oti, error) {
	if len(b) != otiSize {
		return oti{}, mmerrors.NewRingError("decode_oti", mmerrors.RingInvalidFecMetadata, 0, 0, nil)
	}
	return oti{
		dataShards:   binary.BigEndian.Uint32(b[0:4]),
		parityShards: binary.BigEndian.Uint32(b[4:8]),
		totalLen:     binary.BigEndian.Uint32(b[8:12]),
	}, nil
}

func (o oti) encode() []byte {
	b := make([]byte, otiSize)
	binary.BigEndian.PutUint32(b[0:4], o.dataShards)
	binary.BigEndian.PutUint32(b[4:8], o.parityShards)
	binary.BigEndian.PutUint32(b[8:12], o.totalLen)
	return b
}

// EncodeOTI builds the 12-byte fec_oti for a frame FEC-encoded with the
// given shard geometry, for use by the stream writer (spec §4.C).
func EncodeOTI(dataShards, parityShards, totalLen uint32) []byte {
	return oti{dataShards: dataShards, parityShards: parityShards, totalLen: totalLen}.encode()
}

// EncodePayloadID builds the fec_payload_id identifying one shard by index.
func EncodePayloadID(idx uint32) []byte { return encodePayloadID(idx) }

func decodePayloadID(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, mmerrors.NewRingError("decode_payload_id", mmerrors.RingInvalidFecMetadata, 0, 0, nil)
	}
	return binary.BigEndian.Uint32(b), nil
}

func encodePayloadID(idx uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, idx)
	return b
}

// fecDecoder accumulates Reed-Solomon shards for one WIP packet until
// enough are present to reconstruct the original frame.
type fecDecoder struct {
	enc        reedsolomon.Encoder
	dataShards int
	shardSize  int
	totalLen   int
	shards     [][]byte
	present    int
	result     []byte
}

func newFECDecoder(md proto.FECMetadata) (*fecDecoder, error) {
	if md.Scheme != FECSchemeReedSolomon {
		return nil, mmerrors.NewRingError("new_wip_packet", mmerrors.RingUnsupportedFecScheme, uint32(md.Scheme), 0, nil)
	}
	o, err := decodeOTI(md.FecOTI)
	if err != nil {
		return nil, err
	}
	if o.dataShards == 0 {
		return nil, mmerrors.NewRingError("new_wip_packet", mmerrors.RingInvalidFecMetadata, 0, 0, nil)
	}
	enc, err := reedsolomon.New(int(o.dataShards), int(o.parityShards))
	if err != nil {
		return nil, mmerrors.NewRingError("new_wip_packet", mmerrors.RingInvalidFecMetadata, 0, 0, err)
	}
	return &fecDecoder{
		enc:        enc,
		dataShards: int(o.dataShards),
		totalLen:   int(o.totalLen),
		shards:     make([][]byte, int(o.dataShards+o.parityShards)),
	}, nil
}

func (d *fecDecoder) insert(data []byte, md proto.FECMetadata) error {
	idx, err := decodePayloadID(md.FecPayloadID)
	if err != nil {
		return err
	}
	if int(idx) >= len(d.shards) {
		return mmerrors.NewRingError("wip_insert", mmerrors.RingInvalidChunk, idx, uint32(len(d.shards)), nil)
	}
	if d.shards[idx] != nil {
		return mmerrors.NewRingError("wip_insert", mmerrors.RingDuplicateChunk, idx, 0, nil)
	}

	if d.shardSize == 0 {
		d.shardSize = len(data)
	}
	shard := make([]byte, d.shardSize)
	copy(shard, data)
	d.shards[idx] = shard
	d.present++
	return nil
}

func (d *fecDecoder) isComplete() bool {
	if d.result != nil {
		return true
	}
	if d.present < d.dataShards {
		return false
	}

	work := make([][]byte, len(d.shards))
	copy(work, d.shards)
	if err := d.enc.ReconstructData(work); err != nil {
		return false
	}

	out := make([]byte, 0, d.shardSize*d.dataShards)
	for i := 0; i < d.dataShards; i++ {
		out = append(out, work[i]...)
	}
	if d.totalLen < len(out) {
		out = out[:d.totalLen]
	}
	d.result = out
	d.shards = work
	return true
}

// wipPacket is a frame in the process of reassembly (spec §3 "Work-in-
// progress (WIP) packet"). num_chunks and the FEC/plain mode are fixed at
// creation and never change.
type wipPacket struct {
	streamSeq     uint64
	seq           uint64
	pts           uint64
	frameOptional bool

	plain [][]byte // non-nil only in plain mode
	fec   *fecDecoder
}

func newWipPacket(c Chunk) (*wipPacket, error) {
	w := &wipPacket{
		streamSeq:     c.StreamSeq(),
		seq:           c.Seq(),
		pts:           c.PTS(),
		frameOptional: c.FrameOptional(),
	}

	if md, ok := c.FECMetadata(); ok {
		dec, err := newFECDecoder(md)
		if err != nil {
			return nil, err
		}
		w.fec = dec
	} else {
		n := c.NumChunks()
		if n == 0 {
			n = 1
		}
		w.plain = make([][]byte, n)
	}

	if err := w.insert(c); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *wipPacket) insert(c Chunk) error {
	if w.fec != nil {
		md, ok := c.FECMetadata()
		if !ok {
			return mmerrors.NewRingError("wip_insert", mmerrors.RingInvalidFecMetadata, 0, 0, nil)
		}
		return w.fec.insert(c.Data(), md)
	}

	idx := c.ChunkIndex()
	num := c.NumChunks()
	if int(num) != len(w.plain) || int(idx) >= len(w.plain) {
		return mmerrors.NewRingError("wip_insert", mmerrors.RingInvalidChunk, idx, num, nil)
	}
	if w.plain[idx] != nil {
		return mmerrors.NewRingError("wip_insert", mmerrors.RingDuplicateChunk, idx, 0, nil)
	}
	w.plain[idx] = c.Data()
	return nil
}

func (w *wipPacket) isComplete() bool {
	if w.fec != nil {
		return w.fec.isComplete()
	}
	for _, c := range w.plain {
		if c == nil {
			return false
		}
	}
	return true
}

// complete reconstructs the finished frame. Only valid once isComplete
// returns true.
func (w *wipPacket) complete() Packet {
	var data [][]byte
	if w.fec != nil {
		data = [][]byte{w.fec.result}
	} else {
		data = w.plain
	}
	return Packet{PTS: w.pts, Seq: w.seq, StreamSeq: w.streamSeq, Data: data}
}
