package job

import (
	"context"
	"sync"
	"testing"
	"time"

	"ticker-sage/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func TestNewAnalysisPoolClampsSizes(t *testing.T) {
	pool := NewAnalysisPool(testTracer, &stubRunner{}, 0, 0, time.Minute)
	if pool.workers != 1 {
		t.Fatalf("expected 1 worker, got %d", pool.workers)
	}
	if cap(pool.tasks) != 1 {
		t.Fatalf("expected queue capacity 1, got %d", cap(pool.tasks))
	}
}

func TestEnqueueRejectsWhenFull(t *testing.T) {
	// No workers running, so the queue fills up.
	pool := NewAnalysisPool(testTracer, &stubRunner{}, 1, 2, time.Minute)

	if err := pool.Enqueue(domain.AnalysisTask{ReportID: "a"}); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if err := pool.Enqueue(domain.AnalysisTask{ReportID: "b"}); err != nil {
		t.Fatalf("second enqueue: %v", err)
	}
	if err := pool.Enqueue(domain.AnalysisTask{ReportID: "c"}); err == nil {
		t.Fatal("expected rejection when the queue is full")
	}
}

func TestPoolProcessesEnqueuedTasks(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	pool := NewAnalysisPool(testTracer, runner, 2, 8, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pool.Start(ctx)

	for _, id := range []string{"r1", "r2", "r3"} {
		if err := pool.Enqueue(domain.AnalysisTask{ReportID: id}); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}

	eventually(t, func() bool { return runner.processed() == 3 })
}

func TestPoolTaskContextHasDeadline(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{}
	pool := NewAnalysisPool(testTracer, runner, 1, 1, 30*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pool.Start(ctx)

	if err := pool.Enqueue(domain.AnalysisTask{ReportID: "r1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	eventually(t, func() bool { return runner.processed() == 1 })

	if !runner.lastHadDeadline() {
		t.Fatal("task context should carry the per-task deadline")
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

type stubRunner struct {
	mu          sync.Mutex
	tasks       []domain.AnalysisTask
	hadDeadline bool
}

func (s *stubRunner) Process(ctx context.Context, task domain.AnalysisTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
	_, s.hadDeadline = ctx.Deadline()
}

func (s *stubRunner) processed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *stubRunner) lastHadDeadline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hadDeadline
}
