package session

import (
	"context"
	"errors"
	"testing"
	"time"

	lf "github.com/sydneydb/sydney/internal/logicalfile"
)

func TestSessionTryLockRejectsConcurrentStatement(t *testing.T) {
	s := NewSession("db", "user", false)
	if err := s.TryLock(); err != nil {
		t.Fatalf("first TryLock: %v", err)
	}
	if err := s.TryLock(); !errors.Is(err, lf.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
	s.Unlock()
	if err := s.TryLock(); err != nil {
		t.Fatalf("TryLock after Unlock: %v", err)
	}
}

func TestSessionVariablesRoundTrip(t *testing.T) {
	s := NewSession("db", "user", false)
	s.SetVariable("x", int64(5))
	v, ok := s.GetVariable("x")
	if !ok || v != int64(5) {
		t.Fatalf("expected x=5, got %v ok=%v", v, ok)
	}
	if _, ok := s.GetVariable("missing"); ok {
		t.Fatal("expected missing variable to be absent")
	}
}

func TestInstanceManagerPushPopSession(t *testing.T) {
	m := NewInstanceManager()
	s := NewSession("db", "user", false)
	m.PushSession(s)
	if m.SessionCount() != 1 {
		t.Fatalf("expected 1 session, got %d", m.SessionCount())
	}
	got, ok := m.GetSession(s.ID)
	if !ok || got != s {
		t.Fatal("expected to retrieve the pushed session")
	}
	popped, ok := m.PopSession(s.ID)
	if !ok || popped != s {
		t.Fatal("expected PopSession to return the same session")
	}
	if m.SessionCount() != 0 {
		t.Fatalf("expected 0 sessions after pop, got %d", m.SessionCount())
	}
}

func TestInstanceManagerBeginStatementRejectsUnknownSession(t *testing.T) {
	m := NewInstanceManager()
	if _, err := m.BeginStatement(NewID()); err == nil {
		t.Fatal("expected error for unknown session")
	}
}

func TestInstanceManagerBeginStatementRejectsBusySession(t *testing.T) {
	m := NewInstanceManager()
	s := NewSession("db", "user", false)
	m.PushSession(s)

	if _, err := m.BeginStatement(s.ID); err != nil {
		t.Fatalf("first BeginStatement: %v", err)
	}
	if _, err := m.BeginStatement(s.ID); !errors.Is(err, lf.ErrSessionBusy) {
		t.Fatalf("expected ErrSessionBusy on concurrent statement, got %v", err)
	}
}

func TestPushWorkerUnlocksSessionOnCompletion(t *testing.T) {
	m := NewInstanceManager()
	s := NewSession("db", "user", false)
	m.PushSession(s)

	if _, err := m.BeginStatement(s.ID); err != nil {
		t.Fatalf("BeginStatement: %v", err)
	}
	w := m.PushWorker(context.Background(), s, func(ctx context.Context) error {
		return nil
	})
	w.Wait()

	if s.IsLocked() {
		t.Fatal("expected session to be unlocked once the worker finished")
	}
	if _, err := m.BeginStatement(s.ID); err != nil {
		t.Fatalf("expected session lockable again after worker completion: %v", err)
	}
}

func TestCancelWorkerStopsContext(t *testing.T) {
	m := NewInstanceManager()
	s := NewSession("db", "user", false)
	m.PushSession(s)
	if _, err := m.BeginStatement(s.ID); err != nil {
		t.Fatalf("BeginStatement: %v", err)
	}

	started := make(chan struct{})
	var workerID WorkerID
	w := m.PushWorker(context.Background(), s, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	workerID = w.ID

	<-started
	if !m.CancelWorker(workerID) {
		t.Fatal("expected CancelWorker to find the running worker")
	}
	select {
	case <-w.done:
	case <-time.After(time.Second):
		t.Fatal("expected worker to finish after cancellation")
	}
}

func TestDeriveCryptoKeyDeterministicPerSession(t *testing.T) {
	secret := []byte("shared-secret-material")
	id := NewID()
	k1, err := DeriveCryptoKey(secret, id, 32)
	if err != nil {
		t.Fatalf("DeriveCryptoKey: %v", err)
	}
	k2, err := DeriveCryptoKey(secret, id, 32)
	if err != nil {
		t.Fatalf("DeriveCryptoKey: %v", err)
	}
	if string(k1.Bytes()) != string(k2.Bytes()) {
		t.Fatal("expected deterministic derivation for the same session id")
	}

	k3, err := DeriveCryptoKey(secret, NewID(), 32)
	if err != nil {
		t.Fatalf("DeriveCryptoKey: %v", err)
	}
	if string(k1.Bytes()) == string(k3.Bytes()) {
		t.Fatal("expected different sessions to derive different keys")
	}
}

func TestPrepareLookupErase(t *testing.T) {
	m := NewInstanceManager()
	m.Prepare("h1", "plan-a")
	p, ok := m.LookupPrepared("h1")
	if !ok || p.Plan != "plan-a" {
		t.Fatalf("expected prepared plan-a, got %+v ok=%v", p, ok)
	}
	m.ErasePrepared("h1")
	if _, ok := m.LookupPrepared("h1"); ok {
		t.Fatal("expected handle to be gone after erase")
	}
}
