package mmserver

import (
	"context"
	"crypto/tls"
	"log/slog"

	"github.com/mmstream/mm/internal/metrics"
	"github.com/mmstream/mm/internal/transport"
)

// Server accepts connections and dispatches each one's messages (spec
// §4.F / §4.D, grounded on the teacher's cmd/rtmp-server accept-loop
// shape, generalized from TCP to a QUIC listener).
type Server struct {
	ln      *transport.Listener
	store   *sessionStore
	cfg     Config
	metrics *metrics.Registry
}

// New starts listening on cfg.ListenAddr.
func New(cfg Config, tlsConf *tls.Config, m *metrics.Registry) (*Server, error) {
	ln, err := transport.Listen(cfg.ListenAddr, tlsConf, cfg.transportConfig())
	if err != nil {
		return nil, err
	}
	return &Server{
		ln:      ln,
		store:   newSessionStore(cfg.Apps),
		cfg:     cfg,
		metrics: m,
	}, nil
}

// Serve accepts connections until ctx is canceled, spawning one connHandler
// goroutine per connection (spec §5's "dedicated goroutine per role",
// extended to "per connection" at the server's outermost layer).
func (s *Server) Serve(ctx context.Context) error {
	for {
		ep, err := s.ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("accept failed", "err", err)
			continue
		}

		h := newConnHandler(ep, s.store, s.cfg.FECRatios, s.metrics)
		go h.run()
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error { return s.ln.Close() }
