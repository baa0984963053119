// Package packetring reassembles media frames shipped as small unreliable
// chunks, optionally FEC-coded, into ordered, complete packets while
// bounding memory and tolerating loss and reordering (spec §4.B).
package packetring

import "github.com/mmstream/mm/internal/proto"

// Chunk is the minimal view a WIP packet needs of an inbound VideoChunk or
// AudioChunk. Keeping it narrow lets the ring reassemble either media kind
// without depending on their distinct wire shapes (FrameOptional/
// HierarchicalLayer are video-only).
type Chunk interface {
	Seq() uint64
	StreamSeq() uint64
	ChunkIndex() uint32
	NumChunks() uint32
	Data() []byte
	PTS() uint64
	FrameOptional() bool
	FECMetadata() (proto.FECMetadata, bool)
}

type videoChunk struct{ m *proto.VideoChunk }

// FromVideoChunk adapts a decoded VideoChunk message for ring consumption.
func FromVideoChunk(m *proto.VideoChunk) Chunk { return videoChunk{m} }

func (c videoChunk) Seq() uint64       { return c.m.Seq }
func (c videoChunk) StreamSeq() uint64 { return c.m.StreamSeq }
func (c videoChunk) ChunkIndex() uint32 { return c.m.Chunk }
func (c videoChunk) NumChunks() uint32  { return c.m.NumChunks }
func (c videoChunk) Data() []byte       { return c.m.Data }
func (c videoChunk) PTS() uint64        { return c.m.TimestampUs }
func (c videoChunk) FrameOptional() bool { return c.m.FrameOptional }
func (c videoChunk) FECMetadata() (proto.FECMetadata, bool) {
	return c.m.FEC, c.m.HasFEC
}

type audioChunk struct{ m *proto.AudioChunk }

// FromAudioChunk adapts a decoded AudioChunk message for ring consumption.
// Audio chunks are never FEC-coded and are never optional (spec §4.C).
func FromAudioChunk(m *proto.AudioChunk) Chunk { return audioChunk{m} }

func (c audioChunk) Seq() uint64        { return c.m.Seq }
func (c audioChunk) StreamSeq() uint64  { return c.m.StreamSeq }
func (c audioChunk) ChunkIndex() uint32 { return c.m.Chunk }
func (c audioChunk) NumChunks() uint32  { return c.m.NumChunks }
func (c audioChunk) Data() []byte       { return c.m.Data }
func (c audioChunk) PTS() uint64        { return c.m.TimestampUs }
func (c audioChunk) FrameOptional() bool { return false }
func (c audioChunk) FECMetadata() (proto.FECMetadata, bool) {
	return c.m.FEC, c.m.HasFEC
}

// Packet is a fully reassembled frame (spec §3 "Packet"). Data holds one or
// more contiguous byte regions rather than a single concatenated buffer, so
// plain-mode reassembly can hand back the original chunk buffers unchanged
// (spec §9 "Buffer sharing").
type Packet struct {
	PTS       uint64
	Seq       uint64
	StreamSeq uint64
	Data      [][]byte
}

// Bytes concatenates Data into a single contiguous buffer. Intended for
// callers (and tests) that don't need zero-copy delivery.
func (p Packet) Bytes() []byte {
	total := 0
	for _, region := range p.Data {
		total += len(region)
	}
	out := make([]byte, 0, total)
	for _, region := range p.Data {
		out = append(out, region...)
	}
	return out
}

// DroppedPacket records a WIP packet evicted before completion (spec §4.B
// "dropped" record).
type DroppedPacket struct {
	PTS       uint64
	Seq       uint64
	StreamSeq uint64
	Optional  bool
}
