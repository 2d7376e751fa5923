// Package session implements the Worker-boundary concurrency model: one
// Session per client connection, a try-lock guarding concurrent
// statements on that Session, a Worker per in-flight statement, and an
// InstanceManager owning the maps that tie them together.
//
// Grounded on
// _examples/original_source/sydney/Kernel/Server/Server/InstanceManager.h
// (pushSession/popSession/lockSession/unlockSession/isLockedSession,
// pushWorker/cancelWorker/reportEndWorker) and Server/Worker.h, with the
// Go idiom — a sync.Mutex-guarded map plus a per-Session atomic try-lock
// instead of per-instance critical sections. The try-lock itself is a
// non-blocking atomic.Bool compare-and-swap rather than tinySQL's
// internal/driver/driver.go acquireReader/acquireWriter channel-based
// semaphore.
package session

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	lf "github.com/sydneydb/sydney/internal/logicalfile"
)

// ID identifies a Session for the lifetime of a client connection.
type ID string

// NewID mints a fresh Session ID.
func NewID() ID { return ID(uuid.New().String()) }

// Session holds the state a client connection accumulates across
// statements: the database it is attached to, declared variables, and
// the busy flag a second concurrent statement must respect (spec §5
// "Shared-resource policy": "Session state is protected by a try-lock
// that rejects concurrent statements on the same session with
// SessionBusy").
type Session struct {
	ID           ID
	DatabaseName string
	UserName     string
	SuperUser    bool

	busy      atomic.Bool
	mu        sync.Mutex
	variables map[string]any
	cryptoKey *CryptoKey
}

// NewSession constructs a Session attached to databaseName.
func NewSession(databaseName, userName string, superUser bool) *Session {
	return &Session{
		ID:           NewID(),
		DatabaseName: databaseName,
		UserName:     userName,
		SuperUser:    superUser,
		variables:    make(map[string]any),
	}
}

// TryLock acquires the Session's statement try-lock, returning
// ErrSessionBusy if another statement already holds it.
func (s *Session) TryLock() error {
	if !s.busy.CompareAndSwap(false, true) {
		return lf.ErrSessionBusy
	}
	return nil
}

// Unlock releases the try-lock acquired by TryLock.
func (s *Session) Unlock() {
	s.busy.Store(false)
}

// IsLocked reports whether a statement currently holds the try-lock
// (InstanceManager::isLockedSession's equivalent).
func (s *Session) IsLocked() bool {
	return s.busy.Load()
}

// SetVariable declares or overwrites a session variable (the wire
// boundary's DeclareVariable request).
func (s *Session) SetVariable(name string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variables[name] = v
}

// GetVariable returns a previously declared session variable.
func (s *Session) GetVariable(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.variables[name]
	return v, ok
}

// SetCryptoKey attaches the key negotiated for this connection's
// encrypted channel (see cryptokey.go); nil clears it.
func (s *Session) SetCryptoKey(k *CryptoKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cryptoKey = k
}

// CryptoKey returns the Session's negotiated key, or nil if the
// connection is unencrypted.
func (s *Session) CryptoKey() *CryptoKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cryptoKey
}
