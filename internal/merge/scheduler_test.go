package merge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sydneydb/sydney/internal/fileparam"
	lf "github.com/sydneydb/sydney/internal/logicalfile"
)

type countingMerger struct {
	mu    sync.Mutex
	calls map[Entry]int
	block chan struct{}
	err   error
}

func newCountingMerger() *countingMerger {
	return &countingMerger{calls: make(map[Entry]int)}
}

func (m *countingMerger) Merge(ctx context.Context, e Entry) error {
	m.mu.Lock()
	m.calls[e]++
	m.mu.Unlock()
	if m.block != nil {
		<-m.block
	}
	return m.err
}

func (m *countingMerger) count(e Entry) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[e]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestReserveDedupesWhileRunning(t *testing.T) {
	m := newCountingMerger()
	m.block = make(chan struct{})
	s := New(Config{Merger: m, Workers: 1})
	s.Start()
	defer s.Stop()

	e := Entry{File: fileparam.FileIdentity{DatabaseID: 1, TableID: 2, FileID: 3}}

	if !s.Reserve(e) {
		t.Fatal("first reserve should enqueue")
	}
	waitFor(t, func() bool { return s.IsRunning(e) })

	if s.Reserve(e) {
		t.Fatal("second reserve while running should be suppressed as a duplicate")
	}

	close(m.block)
	waitFor(t, func() bool { return !s.IsRunning(e) })

	if got := m.count(e); got != 1 {
		t.Fatalf("expected exactly one merge call, got %d", got)
	}
}

func TestReserveAllowsRequeueAfterCompletion(t *testing.T) {
	m := newCountingMerger()
	s := New(Config{Merger: m, Workers: 1})
	s.Start()
	defer s.Stop()

	e := Entry{File: fileparam.FileIdentity{DatabaseID: 1, TableID: 2, FileID: 3}}

	s.Reserve(e)
	waitFor(t, func() bool { return m.count(e) >= 1 })
	waitFor(t, func() bool { return !s.IsRunning(e) })

	if !s.Reserve(e) {
		t.Fatal("expected a fresh reserve after completion to be accepted")
	}
	waitFor(t, func() bool { return m.count(e) >= 2 })
}

func TestFileNotFoundIsNotLoggedAsFailure(t *testing.T) {
	m := newCountingMerger()
	m.err = lf.ErrFileNotFound
	s := New(Config{Merger: m, Workers: 1})
	s.Start()
	defer s.Stop()

	e := Entry{File: fileparam.FileIdentity{DatabaseID: 1, TableID: 1, FileID: 1}}
	s.Reserve(e)
	waitFor(t, func() bool { return m.count(e) >= 1 })
	waitFor(t, func() bool { return !s.IsRunning(e) })
}

func TestCancelStopsWithoutRetry(t *testing.T) {
	m := newCountingMerger()
	s := New(Config{Merger: m, Workers: 1})
	s.Start()

	e := Entry{File: fileparam.FileIdentity{DatabaseID: 9, TableID: 9, FileID: 9}}
	m.err = lf.Cancel("shutting down")
	s.Reserve(e)
	waitFor(t, func() bool { return m.count(e) >= 1 })
	waitFor(t, func() bool { return !s.IsRunning(e) })
	s.Stop()

	if s.QueueLen() != 0 {
		t.Fatalf("expected empty queue after stop, got %d", s.QueueLen())
	}
}

func TestQueueLenReflectsPendingEntries(t *testing.T) {
	m := newCountingMerger()
	m.block = make(chan struct{})
	s := New(Config{Merger: m, Workers: 1})
	s.Start()
	defer func() {
		close(m.block)
		s.Stop()
	}()

	e1 := Entry{File: fileparam.FileIdentity{DatabaseID: 1, TableID: 1, FileID: 1}}
	e2 := Entry{File: fileparam.FileIdentity{DatabaseID: 1, TableID: 1, FileID: 2}}

	s.Reserve(e1)
	waitFor(t, func() bool { return s.IsRunning(e1) })
	s.Reserve(e2)

	waitFor(t, func() bool { return s.QueueLen() == 1 })
}
