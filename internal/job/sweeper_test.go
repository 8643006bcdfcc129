package job

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNewPendingSweeperDurations(t *testing.T) {
	sweeper := NewPendingSweeper(testTracer, &stubFailer{}, 300, 30)
	if sweeper.sweepInterval != 5*time.Minute {
		t.Fatalf("expected 5m interval, got %v", sweeper.sweepInterval)
	}
	if sweeper.maxAge != 30*time.Minute {
		t.Fatalf("expected 30m max age, got %v", sweeper.maxAge)
	}
}

func TestPendingSweeperStartSweepsImmediately(t *testing.T) {
	t.Parallel()

	stub := &stubFailer{}
	sweeper := NewPendingSweeper(testTracer, stub, 3600, 30)

	ctx, cancel := context.WithCancel(context.Background())
	go sweeper.Start(ctx)

	eventually(t, func() bool { return stub.calls() > 0 })
	cancel()
}

func TestSweepCutoffRespectsMaxAge(t *testing.T) {
	stub := &stubFailer{}
	sweeper := NewPendingSweeper(testTracer, stub, 300, 30)

	before := time.Now().Add(-30 * time.Minute)
	sweeper.sweep(context.Background())
	after := time.Now().Add(-30 * time.Minute)

	cutoff := stub.lastCutoff()
	if cutoff.Before(before.Add(-time.Second)) || cutoff.After(after.Add(time.Second)) {
		t.Fatalf("cutoff %v not around now-30m", cutoff)
	}
	if stub.lastMsg() == "" {
		t.Fatal("sweep message must explain the failure to the report reader")
	}
}

type stubFailer struct {
	mu      sync.Mutex
	cutoffs []time.Time
	msgs    []string
}

func (s *stubFailer) FailStalePending(_ context.Context, cutoff time.Time, message string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoffs = append(s.cutoffs, cutoff)
	s.msgs = append(s.msgs, message)
	return 1, nil
}

func (s *stubFailer) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cutoffs)
}

func (s *stubFailer) lastCutoff() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cutoffs[len(s.cutoffs)-1]
}

func (s *stubFailer) lastMsg() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msgs[len(s.msgs)-1]
}
