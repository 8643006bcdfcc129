package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const staleReportMessage = "analysis timed out: report was pending past the deadline"

type StaleReportFailer interface {
	FailStalePending(ctx context.Context, cutoff time.Time, message string) (int64, error)
}

// PendingSweeper periodically fails reports stuck in pending, usually ones
// whose task was lost to a crash or queue overflow before a worker picked
// them up.
type PendingSweeper struct {
	tracer        trace.Tracer
	store         StaleReportFailer
	sweepInterval time.Duration
	maxAge        time.Duration
}

func NewPendingSweeper(tracer trace.Tracer, store StaleReportFailer, sweepIntervalSecs, maxAgeMins int) *PendingSweeper {
	return &PendingSweeper{
		tracer:        tracer,
		store:         store,
		sweepInterval: time.Duration(sweepIntervalSecs) * time.Second,
		maxAge:        time.Duration(maxAgeMins) * time.Minute,
	}
}

// Start sweeps immediately, then on every tick. Blocks until ctx is cancelled.
func (s *PendingSweeper) Start(ctx context.Context) {
	log.Println("Pending sweeper starting...")

	s.sweep(ctx)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Pending sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *PendingSweeper) sweep(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "pending-sweeper.sweep")
	defer span.End()

	cutoff := time.Now().Add(-s.maxAge)
	swept, err := s.store.FailStalePending(ctx, cutoff, staleReportMessage)
	if err != nil {
		log.Printf("stale pending sweep error: %v", err)
		return
	}
	if swept > 0 {
		log.Printf("swept %d stale pending reports", swept)
	}
}
