package bulk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domain "github.com/crmkit/contact-ingest/internal/domain/contact"
)

type jobProcessor interface {
	Process(ctx context.Context, job domain.Job) error
}

// Dispatcher runs one job's batch processor in its own goroutine so a crash
// or long run in one job never takes down the others. The unit's only
// channel back to the caller is a one-shot outcome; a panic with no outcome
// surfaces as an error.
type Dispatcher struct {
	processor jobProcessor
	timeout   time.Duration
	logger    *slog.Logger
}

func NewDispatcher(processor jobProcessor, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{processor: processor, timeout: timeout, logger: logger}
}

func (d *Dispatcher) Dispatch(ctx context.Context, job domain.Job) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	outcome := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				outcome <- fmt.Errorf("worker exited abnormally: %v", r)
			}
		}()
		outcome <- d.processor.Process(ctx, job)
	}()

	select {
	case err := <-outcome:
		if err != nil {
			return fmt.Errorf("job %s worker failed: %w", job.ID, err)
		}
		d.logger.Info("job worker finished", "jobId", job.ID, "file", job.FileName)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("job %s worker: %w", job.ID, ctx.Err())
	}
}
