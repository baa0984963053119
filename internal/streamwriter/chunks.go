package streamwriter

import (
	"github.com/klauspost/reedsolomon"

	"github.com/mmstream/mm/internal/packetring"
	"github.com/mmstream/mm/internal/proto"
)

// chunk is one slice of a frame, ready to be wrapped in a VideoChunk or
// AudioChunk message.
type chunk struct {
	index     uint32
	numChunks uint32
	data      []byte
	hasFEC    bool
	fec       proto.FECMetadata
}

// iterChunks slices buf into MTU-sized chunks (spec §4.C "Iterate chunks").
// A ratio of 0 slices plainly; a positive ratio reed-solomon-encodes the
// frame, padding every shard (including the final data shard) to mtu bytes
// so the geometry stays recoverable without encoding a shard size on the
// wire (see internal/packetring's fec_oti doc comment).
func iterChunks(buf []byte, mtu int, ratio float32) ([]chunk, error) {
	if ratio <= 0 {
		return iterChunksPlain(buf, mtu), nil
	}
	return iterChunksFEC(buf, mtu, ratio)
}

func iterChunksPlain(buf []byte, mtu int) []chunk {
	if len(buf) == 0 {
		return []chunk{{index: 0, numChunks: 1, data: buf}}
	}
	numChunks := (len(buf) + mtu - 1) / mtu
	chunks := make([]chunk, 0, numChunks)
	for i := 0; i < numChunks; i++ {
		start := i * mtu
		end := start + mtu
		if end > len(buf) {
			end = len(buf)
		}
		chunks = append(chunks, chunk{
			index:     uint32(i),
			numChunks: uint32(numChunks),
			data:      buf[start:end],
		})
	}
	return chunks
}

func iterChunksFEC(buf []byte, mtu int, ratio float32) ([]chunk, error) {
	dataShards := (len(buf) + mtu - 1) / mtu
	if dataShards == 0 {
		dataShards = 1
	}
	parityShards := int(float32(dataShards)*ratio + 0.999999)
	if parityShards < 1 {
		parityShards = 1
	}

	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, err
	}

	shards := make([][]byte, dataShards+parityShards)
	for i := 0; i < dataShards; i++ {
		shard := make([]byte, mtu)
		start := i * mtu
		end := start + mtu
		if end > len(buf) {
			end = len(buf)
		}
		copy(shard, buf[start:end])
		shards[i] = shard
	}
	for i := dataShards; i < dataShards+parityShards; i++ {
		shards[i] = make([]byte, mtu)
	}

	if err := enc.Encode(shards); err != nil {
		return nil, err
	}

	oti := packetring.EncodeOTI(uint32(dataShards), uint32(parityShards), uint32(len(buf)))
	total := dataShards + parityShards
	chunks := make([]chunk, 0, total)
	for i := 0; i < total; i++ {
		chunks = append(chunks, chunk{
			index:     uint32(i),
			numChunks: uint32(total),
			data:      shards[i],
			hasFEC:    true,
			fec: proto.FECMetadata{
				Scheme:       packetring.FECSchemeReedSolomon,
				FecOTI:       oti,
				FecPayloadID: packetring.EncodePayloadID(uint32(i)),
			},
		})
	}
	return chunks, nil
}
