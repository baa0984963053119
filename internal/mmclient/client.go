// Package mmclient drives a client-side connection: stream ID allocation,
// roundtrip request/response matching, reconnect-on-idle, and demuxing
// incoming datagrams/messages to attachments (spec §4.E).
package mmclient

import (
	"context"
	"crypto/tls"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	mmerrors "github.com/mmstream/mm/internal/errors"
	"github.com/mmstream/mm/internal/proto"
	"github.com/mmstream/mm/internal/transport"
)

// AttachmentHandle is the reactor's view of an attachment (spec §4.G's
// AttachmentState, as seen from the client session manager side). The
// concrete implementation lives in internal/attachment.
type AttachmentHandle interface {
	SessionID() uint64
	AttachmentID() uint64
	HandleMessage(msg proto.Message)
	HandleClose(err error)
	MarkDetachRequested()
}

// Client is a single MM client connection. One Client serves any number of
// concurrent roundtrips and attachments over one underlying transport
// connection, reconnecting transparently after an idle timeout.
type Client struct {
	name    string
	addr    string
	tlsConf *tls.Config
	cfg     transport.Config

	mu          sync.Mutex
	nextStreamID uint64
	ep          *transport.Endpoint
	defunctErr  error

	reactor *reactor
}

// New dials addr and starts the client's reactor goroutine (spec §4.E
// "spawn_conn").
func New(ctx context.Context, addr, clientName string, tlsConf *tls.Config, cfg transport.Config) (*Client, error) {
	ep, err := transport.Dial(ctx, addr, tlsConf, cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		name:    clientName,
		addr:    addr,
		tlsConf: tlsConf,
		cfg:     cfg,
		ep:      ep,
	}
	c.reactor = newReactor(ep)
	go c.reactor.run()
	return c, nil
}

// Close shuts the underlying connection down and stops the reactor.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ep == nil {
		return nil
	}
	err := c.ep.Close(0, "")
	c.defunctErr = mmerrors.NewSessionError("close", mmerrors.SessionDefunct, nil)
	c.ep = nil
	return err
}

// reconnect returns the live endpoint, reconnecting first if the previous
// one went defunct due to an idle timeout (spec §4.E "reconnect"; any other
// defunct cause is permanent).
func (c *Client) reconnect(ctx context.Context) (*transport.Endpoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ep != nil {
		select {
		case <-c.ep.Context().Done():
			c.defunctErr = context.Cause(c.ep.Context())
			c.ep = nil
		default:
			return c.ep, nil
		}
	}
	if !mmerrors.IsTimeout(c.defunctErr) {
		return nil, c.defunctErr
	}

	ep, err := transport.Dial(ctx, c.addr, c.tlsConf, c.cfg)
	if err != nil {
		return nil, err
	}
	c.ep = ep
	c.defunctErr = nil
	c.reactor = newReactor(ep)
	go c.reactor.run()
	return ep, nil
}

func (c *Client) allocStreamID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	sid := c.nextStreamID
	c.nextStreamID += 4
	return sid
}

// initiateStream opens a new client-initiated stream, sends msg on it, and
// waits (up to timeout) for the first response message (spec §4.E
// "initiate_stream"/"roundtrip"). Set fin=false to leave the stream open
// for further server messages (used by AttachSession).
func (c *Client) initiateStream(ctx context.Context, msg proto.Message, fin bool, timeout time.Duration) (uint64, proto.Message, error) {
	ep, err := c.reconnect(ctx)
	if err != nil {
		return 0, nil, err
	}

	sid, err := ep.OpenStream(ctx)
	if err != nil {
		return 0, nil, err
	}

	resultCh := make(chan roundtripResult, 1)
	c.reactor.registerRoundtrip(sid, resultCh)

	if err := ep.SendMessage(sid, msg, fin); err != nil {
		c.reactor.cancelRoundtrip(sid)
		return 0, nil, err
	}

	select {
	case res := <-resultCh:
		return sid, res.msg, res.err
	case <-time.After(timeout):
		c.reactor.cancelRoundtrip(sid)
		return 0, nil, mmerrors.NewTimeoutError("roundtrip", timeout, nil)
	case <-ctx.Done():
		c.reactor.cancelRoundtrip(sid)
		return 0, nil, ctx.Err()
	}
}

func (c *Client) roundtrip(ctx context.Context, msg proto.Message, timeout time.Duration) (proto.Message, error) {
	_, res, err := c.initiateStream(ctx, msg, false, timeout)
	return res, err
}

func unexpected(msg proto.Message) error {
	return mmerrors.NewSessionError("roundtrip", mmerrors.SessionUnexpectedMessage, nil)
}

func asServerError(msg proto.Message) (error, bool) {
	if e, ok := msg.(*proto.Error); ok {
		return mmerrors.NewServerError("roundtrip", e.Code, e.Text), true
	}
	return nil, false
}

// ListApplications issues a ListApplications roundtrip (spec §4.E /
// §6 message registry).
func (c *Client) ListApplications(ctx context.Context, timeout time.Duration) ([]proto.Application, error) {
	res, err := c.roundtrip(ctx, &proto.ListApplications{}, timeout)
	if err != nil {
		return nil, err
	}
	if e, ok := asServerError(res); ok {
		return nil, e
	}
	list, ok := res.(*proto.ApplicationList)
	if !ok {
		return nil, unexpected(res)
	}
	return list.Applications, nil
}

// ListSessions issues a ListSessions roundtrip.
func (c *Client) ListSessions(ctx context.Context, timeout time.Duration) ([]proto.SessionInfo, error) {
	res, err := c.roundtrip(ctx, &proto.ListSessions{}, timeout)
	if err != nil {
		return nil, err
	}
	if e, ok := asServerError(res); ok {
		return nil, e
	}
	list, ok := res.(*proto.SessionList)
	if !ok {
		return nil, unexpected(res)
	}
	return list.Sessions, nil
}

// LaunchSession issues a LaunchSession roundtrip.
func (c *Client) LaunchSession(ctx context.Context, applicationID string, timeout time.Duration) (uint64, error) {
	res, err := c.roundtrip(ctx, &proto.LaunchSession{ApplicationID: applicationID}, timeout)
	if err != nil {
		return 0, err
	}
	if e, ok := asServerError(res); ok {
		return 0, e
	}
	launched, ok := res.(*proto.SessionLaunched)
	if !ok {
		return 0, unexpected(res)
	}
	return launched.SessionID, nil
}

// EndSession issues an EndSession roundtrip.
func (c *Client) EndSession(ctx context.Context, sessionID uint64, timeout time.Duration) error {
	res, err := c.roundtrip(ctx, &proto.EndSession{SessionID: sessionID}, timeout)
	if err != nil {
		return err
	}
	if e, ok := asServerError(res); ok {
		return e
	}
	if _, ok := res.(*proto.SessionEnded); !ok {
		return unexpected(res)
	}
	return nil
}

// AttachSession sends an Attach request, leaves the stream open, and
// registers handle against the resulting attachment ID (spec §4.E
// "attach_session"). correlationID is generated via google/uuid and logged
// alongside the attempt, standing in for the Rust source's process-local
// counter, which doesn't map cleanly onto independent goroutines.
func (c *Client) AttachSession(ctx context.Context, attach *proto.Attach, handle func(sessionID, attachmentID uint64) AttachmentHandle, timeout time.Duration) (*Attachment, error) {
	correlationID := uuid.New()
	slog.Debug("attaching session", "session_id", attach.SessionID, "correlation_id", correlationID)

	sid, res, err := c.initiateStream(ctx, attach, false, timeout)
	if err != nil {
		slog.Error("attach failed", "session_id", attach.SessionID, "correlation_id", correlationID, "err", err)
		return nil, err
	}
	if e, ok := asServerError(res); ok {
		slog.Error("attach rejected", "session_id", attach.SessionID, "correlation_id", correlationID, "err", e)
		return nil, e
	}
	attached, ok := res.(*proto.Attached)
	if !ok {
		return nil, unexpected(res)
	}

	h := handle(attached.SessionID, attached.AttachmentID)
	c.reactor.registerAttachment(sid, h)

	c.mu.Lock()
	ep := c.ep
	c.mu.Unlock()
	return &Attachment{sid: sid, ep: ep, Attached: attached, handle: h}, nil
}
