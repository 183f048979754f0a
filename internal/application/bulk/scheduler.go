package bulk

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	domain "github.com/crmkit/contact-ingest/internal/domain/contact"
)

type dueJobFinder interface {
	FindDue(ctx context.Context, now time.Time) ([]domain.Job, error)
}

type jobDispatcher interface {
	Dispatch(ctx context.Context, job domain.Job) error
}

type SchedulerConfig struct {
	Tick time.Duration
	// MaxConcurrent caps the workers fanned out per tick; zero means one
	// worker per due job with no cap.
	MaxConcurrent int
}

// Scheduler discovers due pending jobs on a fixed tick and fans each out to
// an isolated worker, awaiting all outcomes before the next tick. It never
// retries: a failed job returns to pending and is picked up on a later tick.
type Scheduler struct {
	registry   dueJobFinder
	dispatcher jobDispatcher
	cfg        SchedulerConfig
	logger     *slog.Logger
}

func NewScheduler(registry dueJobFinder, dispatcher jobDispatcher, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{registry: registry, dispatcher: dispatcher, cfg: cfg, logger: logger}
}

func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.RunTick(ctx, now)
		}
	}
}

// RunTick processes one scheduler tick. One job's failure never aborts its
// siblings; every outcome is logged independently.
func (s *Scheduler) RunTick(ctx context.Context, now time.Time) {
	jobs, err := s.registry.FindDue(ctx, now)
	if err != nil {
		s.logger.Error("find due jobs", "error", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	s.logger.Info("dispatching due jobs", "count", len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	if s.cfg.MaxConcurrent > 0 {
		g.SetLimit(s.cfg.MaxConcurrent)
	}

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := s.dispatcher.Dispatch(ctx, job); err != nil {
				s.logger.Error("job dispatch failed", "jobId", job.ID, "file", job.FileName, "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("scheduler tick", "error", err)
	}
}
