package mmserver

import "github.com/mmstream/mm/internal/proto"

// endpointSender is the subset of *transport.Endpoint the connection
// handler and its attachments need to send with. Declaring it as an
// interface (rather than depending on *transport.Endpoint directly) lets
// the dispatch logic in handlers.go/attachment.go be tested without a real
// QUIC connection.
type endpointSender interface {
	SendMessage(streamID uint64, msg proto.Message, fin bool) error
	SendDatagramBytes(buf []byte) error
}
