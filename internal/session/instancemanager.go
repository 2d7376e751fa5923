package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	lf "github.com/sydneydb/sydney/internal/logicalfile"
)

// PreparedStatement is whatever PrepareStatement compiled; execruntime
// and the wire layer own its concrete shape. InstanceManager only keeps
// it addressable by handle, mirroring Server::InstanceManager::PrepareTable.
type PreparedStatement struct {
	ID   string
	Plan any
}

// InstanceManager owns the Session, Worker, and PreparedStatement maps
// for one running server instance, each behind its own mutex — the Go
// equivalent of the original's per-instance critical section over these
// maps (_examples/original_source/.../InstanceManager.h:
// pushSession/popSession, pushWorker/cancelWorker/reportEndWorker,
// the PrepareTable). A single mutex per map is enough in Go; the
// original's one-critical-section-per-instance design exists to avoid a
// global lock across independent server instances, which this package
// achieves simply by giving each InstanceManager its own mutexes.
type InstanceManager struct {
	log *zap.SugaredLogger

	sessMu   sync.Mutex
	sessions map[ID]*Session

	workerMu  sync.Mutex
	workers   map[WorkerID]*Worker
	nextWorker atomic.Int64

	prepMu   sync.Mutex
	prepared map[string]*PreparedStatement
}

// Option configures an InstanceManager at construction.
type Option func(*InstanceManager)

// WithLogger attaches a structured logger; defaults to a no-op one.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(m *InstanceManager) { m.log = l }
}

// NewInstanceManager constructs an empty InstanceManager.
func NewInstanceManager(opts ...Option) *InstanceManager {
	m := &InstanceManager{
		log:      zap.NewNop().Sugar(),
		sessions: make(map[ID]*Session),
		workers:  make(map[WorkerID]*Worker),
		prepared: make(map[string]*PreparedStatement),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PushSession registers a new Session (the wire boundary's BeginSession
// request), the equivalent of InstanceManager::pushSession.
func (m *InstanceManager) PushSession(s *Session) {
	m.sessMu.Lock()
	defer m.sessMu.Unlock()
	m.sessions[s.ID] = s
}

// PopSession removes and returns a Session (EndSession/Disconnect),
// the equivalent of InstanceManager::popSession.
func (m *InstanceManager) PopSession(id ID) (*Session, bool) {
	m.sessMu.Lock()
	defer m.sessMu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	return s, ok
}

// GetSession looks up a live Session without removing it.
func (m *InstanceManager) GetSession(id ID) (*Session, bool) {
	m.sessMu.Lock()
	defer m.sessMu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// SessionCount reports how many sessions are currently registered.
func (m *InstanceManager) SessionCount() int {
	m.sessMu.Lock()
	defer m.sessMu.Unlock()
	return len(m.sessions)
}

// BeginStatement looks up sessionID and acquires its try-lock, returning
// lf.ErrSessionBusy if a statement is already running on it — the
// combined getSession + lockSession step a request handler performs
// before spawning a Worker.
func (m *InstanceManager) BeginStatement(sessionID ID) (*Session, error) {
	s, ok := m.GetSession(sessionID)
	if !ok {
		return nil, lf.Unexpected(fmt.Sprintf("session %s not found", sessionID))
	}
	if err := s.TryLock(); err != nil {
		return nil, err
	}
	return s, nil
}

// PushWorker spawns a Worker bound to sessionID, running fn under a
// context cancelable via Worker.Stop. The Session's try-lock must
// already be held by the caller (via BeginStatement); PushWorker
// releases it and reports the Worker done once fn returns, mirroring
// Worker::reportEndWorker running at the end of the original's thread
// body.
func (m *InstanceManager) PushWorker(ctx context.Context, s *Session, fn func(context.Context) error) *Worker {
	wctx, cancel := context.WithCancel(ctx)
	id := WorkerID(m.nextWorker.Add(1))
	w := newWorker(id, s.ID, cancel)

	m.workerMu.Lock()
	m.workers[id] = w
	m.workerMu.Unlock()

	go func() {
		defer func() {
			s.Unlock()
			w.reportEnd()
			m.workerMu.Lock()
			delete(m.workers, id)
			m.workerMu.Unlock()
		}()
		if err := fn(wctx); err != nil {
			m.log.Debugw("worker finished with error", "worker", id, "session", s.ID, "err", err)
		}
	}()

	return w
}

// CancelWorker stops a running Worker by id (Server::InstanceManager's
// cancel path for Cancel/ErasePrepareStatement-style requests).
func (m *InstanceManager) CancelWorker(id WorkerID) bool {
	m.workerMu.Lock()
	w, ok := m.workers[id]
	m.workerMu.Unlock()
	if !ok {
		return false
	}
	w.Stop()
	return true
}

// Prepare registers a compiled statement under a fresh handle
// (PrepareStatement request).
func (m *InstanceManager) Prepare(id string, plan any) {
	m.prepMu.Lock()
	defer m.prepMu.Unlock()
	m.prepared[id] = &PreparedStatement{ID: id, Plan: plan}
}

// LookupPrepared returns a previously prepared statement (ExecutePrepare).
func (m *InstanceManager) LookupPrepared(id string) (*PreparedStatement, bool) {
	m.prepMu.Lock()
	defer m.prepMu.Unlock()
	p, ok := m.prepared[id]
	return p, ok
}

// ErasePrepared removes a prepared statement handle
// (ErasePrepareStatement request).
func (m *InstanceManager) ErasePrepared(id string) {
	m.prepMu.Lock()
	defer m.prepMu.Unlock()
	delete(m.prepared, id)
}
