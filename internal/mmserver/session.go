package mmserver

import (
	"sync"
	"time"

	"github.com/mmstream/mm/internal/proto"
)

// Session is a launched application instance (spec §4.F "Session"). The
// actual compositor/encoder pipeline lives outside this package (spec §1
// Non-goals: GPU capture, encoding); Session here only tracks the
// bookkeeping the attachment controller needs.
type Session struct {
	ID            uint64
	ApplicationID string
	Display       proto.DisplayParams
	PermanentGamepads []uint32
	Started       time.Time

	mu         sync.Mutex
	attachment *serverAttachment // single-operator-attachment policy: at most one
}

// attach installs as as the session's sole attachment, refusing if one is
// already present (spec §4.F's single-operator-attachment policy: a session
// has at most one "operator" attachment at a time, and a second Attach is
// rejected, not pre-empted — mm-server/src/session.rs's `Session::attach`
// returns "session already has an operator" rather than evicting).
func (s *Session) attach(as *serverAttachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attachment != nil {
		return unsupported("session already has an operator attachment")
	}
	s.attachment = as
	return nil
}

// detach clears the session's attachment if it is still as (it may already
// have been replaced by a newer Attach).
func (s *Session) detach(as *serverAttachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attachment == as {
		s.attachment = nil
	}
}

func (s *Session) display() proto.DisplayParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Display
}

func (s *Session) currentAttachment() *serverAttachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attachment
}

// updateDisplay applies a new display configuration, returning the
// SessionParametersChanged notice to send to the current attachment (if
// any) along with whether the change requires a reattach (a resolution or
// framerate change invalidates the encoder's in-flight stream state; a
// no-op update does not).
func (s *Session) updateDisplay(d proto.DisplayParams) (proto.SessionParametersChanged, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.Display != d
	s.Display = d
	return proto.SessionParametersChanged{Display: d, ReattachRequired: changed}, changed
}

// sessionStore tracks launched sessions and the application catalog, guarded
// by a single mutex (spec §4.F, grounded on mm-server's `Mutex<State>`
// shared-state pattern rather than the channel-owned style used by the
// client reactor, since each connection here runs its own handler
// goroutine and every connection shares this one store).
type sessionStore struct {
	apps map[string]AppConfig

	mu       sync.Mutex
	sessions map[uint64]*Session
	nextID   uint64
}

func newSessionStore(apps map[string]AppConfig) *sessionStore {
	return &sessionStore{
		apps:     apps,
		sessions: make(map[uint64]*Session),
		nextID:   1,
	}
}

func (s *sessionStore) listApplications() []proto.Application {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]proto.Application, 0, len(s.apps))
	for id, app := range s.apps {
		_ = app
		out = append(out, proto.Application{ApplicationID: id, Name: app.Name})
	}
	return out
}

func (s *sessionStore) launch(applicationID string, display proto.DisplayParams, gamepads []uint32) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[applicationID]; !ok {
		return nil, invalid("application not found")
	}

	id := s.nextID
	s.nextID++

	session := &Session{
		ID:                id,
		ApplicationID:     applicationID,
		Display:           display,
		PermanentGamepads: gamepads,
		Started:           time.Now(),
	}
	s.sessions[id] = session
	return session, nil
}

func (s *sessionStore) get(id uint64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *sessionStore) list() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out
}

func (s *sessionStore) end(id uint64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	return session, ok
}
