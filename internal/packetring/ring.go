package packetring

// ringTargetSize is the steady-state capacity of the ring (spec §3
// "Packet ring"). It may transiently hold one extra entry during insertion
// before eviction runs.
const ringTargetSize = 5

// PacketRing reassembles a single attachment's media chunks into ordered
// packets, bounding memory under loss by evicting the oldest incomplete
// frame once capacity is exceeded (spec §4.B).
type PacketRing struct {
	ring    []*wipPacket // oldest at index 0
	minStreamSeq uint64
	minSeq  map[uint64]uint64 // keyed by stream_seq
	dropped []DroppedPacket
}

// New returns an empty packet ring.
func New() *PacketRing {
	return &PacketRing{minSeq: make(map[uint64]uint64)}
}

// RecvChunk feeds one inbound chunk into the ring (spec §4.B "Receive
// chunk"). Stale chunks below the current floor are silently dropped, not
// an error.
func (r *PacketRing) RecvChunk(c Chunk) error {
	streamSeq := c.StreamSeq()
	seqFloor := r.minSeq[streamSeq]
	if streamSeq < r.minStreamSeq || c.Seq() < seqFloor {
		return nil
	}

	for _, wip := range r.ring {
		if wip.streamSeq == streamSeq && wip.seq == c.Seq() {
			return wip.insert(c)
		}
	}

	wip, err := newWipPacket(c)
	if err != nil {
		return err
	}

	insertAt := len(r.ring)
	for i, p := range r.ring {
		if p.streamSeq == wip.streamSeq && p.seq > wip.seq {
			insertAt = i
			break
		}
	}
	r.ring = append(r.ring, nil)
	copy(r.ring[insertAt+1:], r.ring[insertAt:])
	r.ring[insertAt] = wip

	for len(r.ring) > ringTargetSize {
		front := r.ring[0]
		if front.isComplete() {
			break
		}
		r.ring = r.ring[1:]
		r.dropped = append(r.dropped, DroppedPacket{
			PTS:       front.pts,
			Seq:       front.seq,
			StreamSeq: front.streamSeq,
			Optional:  front.frameOptional,
		})
	}
	return nil
}

// Discard removes every WIP packet with stream_seq <= floor and raises the
// ring's low-water marks accordingly (spec §4.B "Discard"). Used when the
// current encoded stream advances past a previous one.
func (r *PacketRing) Discard(floor uint64) {
	r.minStreamSeq = floor + 1

	kept := r.ring[:0]
	for _, wip := range r.ring {
		if wip.streamSeq > floor {
			kept = append(kept, wip)
		}
	}
	r.ring = kept

	for seq := range r.minSeq {
		if seq <= floor {
			delete(r.minSeq, seq)
		}
	}
}

// DrainResult is one item yielded by DrainCompleted: exactly one of Packet
// or Dropped is set.
type DrainResult struct {
	Packet  *Packet
	Dropped *DroppedPacket
}

// DrainCompleted is a lazy iterator over ring entries matching one
// stream_seq, stopping before the first incomplete WIP packet. Each call to
// Next mutates the ring: dropping the iterator early (never calling Next
// again) leaves the remaining entries in place (spec §4.B "Drain
// completed").
type DrainCompleted struct {
	ring      *PacketRing
	streamSeq uint64
}

// DrainCompleted returns a lazy iterator over completed/dropped entries for
// the given stream_seq.
func (r *PacketRing) DrainCompleted(streamSeq uint64) *DrainCompleted {
	return &DrainCompleted{ring: r, streamSeq: streamSeq}
}

// Next advances the iterator. ok is false once nothing more can be emitted
// without waiting for further chunks.
func (d *DrainCompleted) Next() (DrainResult, bool) {
	r := d.ring

	for i, dp := range r.dropped {
		if dp.StreamSeq != d.streamSeq {
			continue
		}
		r.dropped = append(r.dropped[:i], r.dropped[i+1:]...)
		r.minSeq[dp.StreamSeq] = dp.Seq + 1
		dpCopy := dp
		return DrainResult{Dropped: &dpCopy}, true
	}

	for i, wip := range r.ring {
		if wip.streamSeq != d.streamSeq {
			continue
		}
		if !wip.isComplete() {
			return DrainResult{}, false
		}
		r.minSeq[wip.streamSeq] = wip.seq + 1
		r.ring = append(r.ring[:i], r.ring[i+1:]...)
		pkt := wip.complete()
		return DrainResult{Packet: &pkt}, true
	}

	return DrainResult{}, false
}

// Collect drains every currently-available entry into a slice. Convenience
// for callers (and tests) that don't need the lazy, mutate-as-you-go form.
func (d *DrainCompleted) Collect() []DrainResult {
	var out []DrainResult
	for {
		res, ok := d.Next()
		if !ok {
			break
		}
		out = append(out, res)
	}
	return out
}
