package job

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"ticker-sage/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TaskRunner executes one analysis task end to end. The runner owns the
// terminal state write; the pool only schedules.
type TaskRunner interface {
	Process(ctx context.Context, task domain.AnalysisTask)
}

// AnalysisPool runs analysis tasks on a fixed set of worker goroutines fed
// from a bounded in-memory queue. Tasks do not survive a restart; the stale
// pending sweeper catches the ones that were lost.
type AnalysisPool struct {
	tracer      trace.Tracer
	runner      TaskRunner
	tasks       chan domain.AnalysisTask
	workers     int
	taskTimeout time.Duration
}

func NewAnalysisPool(tracer trace.Tracer, runner TaskRunner, workers, queueSize int, taskTimeout time.Duration) *AnalysisPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &AnalysisPool{
		tracer:      tracer,
		runner:      runner,
		tasks:       make(chan domain.AnalysisTask, queueSize),
		workers:     workers,
		taskTimeout: taskTimeout,
	}
}

// Enqueue accepts a task without blocking the caller. A full queue is an
// immediate error so the submitter can fail the report instead of hanging.
func (p *AnalysisPool) Enqueue(task domain.AnalysisTask) error {
	select {
	case p.tasks <- task:
		return nil
	default:
		return fmt.Errorf("analysis queue is full")
	}
}

// Start launches the workers and blocks until ctx is cancelled. In-flight
// tasks get taskTimeout to finish.
func (p *AnalysisPool) Start(ctx context.Context) {
	log.Printf("Analysis pool starting (%d workers)...", p.workers)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.workerLoop(ctx, id)
		}(i)
	}

	wg.Wait()
	log.Println("Analysis pool stopped")
}

func (p *AnalysisPool) workerLoop(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-p.tasks:
			p.runTask(ctx, id, task)
		}
	}
}

func (p *AnalysisPool) runTask(ctx context.Context, workerID int, task domain.AnalysisTask) {
	taskCtx, cancel := context.WithTimeout(ctx, p.taskTimeout)
	defer cancel()

	taskCtx, span := p.tracer.Start(taskCtx, "analysis-pool.run-task")
	defer span.End()
	span.SetAttributes(
		attribute.Int("worker_id", workerID),
		attribute.String("report_id", task.ReportID),
		attribute.String("ticker", task.Request.Ticker),
	)

	start := time.Now()
	p.runner.Process(taskCtx, task)
	log.Printf("worker %d finished analysis %s in %s", workerID, task.ReportID, time.Since(start).Round(time.Millisecond))
}
