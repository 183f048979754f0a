package bulk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	domain "github.com/crmkit/contact-ingest/internal/domain/contact"
)

const defaultBatchSize = 20

// StagedSource opens a job's staged record sequence and removes it once the
// job no longer needs it.
type StagedSource interface {
	Open(ctx context.Context, stagedPath string) (io.ReadCloser, error)
	Remove(stagedPath string) error
}

type processorRegistry interface {
	Checkpoint(ctx context.Context, jobID string, index int64, status domain.JobStatus) error
	Complete(ctx context.Context, jobID string, index int64) error
	MarkError(ctx context.Context, jobID string, index int64, reason string) error
}

type processorStore interface {
	ExistingKeys(ctx context.Context, accountID string, keys []string) (map[string]struct{}, error)
	BulkInsert(ctx context.Context, jobID string, records []domain.Record) error
	BulkUpdate(ctx context.Context, jobID string, records []domain.Record) error
}

type errorLogStore interface {
	AddBulk(ctx context.Context, entries []domain.ErrorLogEntry) error
}

// Processor consumes one job's staged record sequence in fixed-size batches:
// validate, classify duplicates, bulk apply, checkpoint. Batches run strictly
// in order; a later batch's duplicate check must see earlier batches' writes.
type Processor struct {
	registry  processorRegistry
	store     processorStore
	logs      errorLogStore
	source    StagedSource
	batchSize int
	logger    *slog.Logger
}

func NewProcessor(registry processorRegistry, store processorStore, logs errorLogStore, source StagedSource, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		registry:  registry,
		store:     store,
		logs:      logs,
		source:    source,
		batchSize: defaultBatchSize,
		logger:    logger,
	}
}

// Buffers live for exactly one processing run. Keeping them off the
// Processor means a shared instance can never leak entries between
// concurrently dispatched jobs.
type runBuffers struct {
	skipped    []domain.ErrorLogEntry
	duplicates []domain.ErrorLogEntry
}

// Process runs the batch loop for one job, resuming at the job's checkpoint.
// The progress index counts records accounted for (validated-out,
// duplicate-out and applied), so it reaches the total exactly when all input
// has been classified.
func (p *Processor) Process(ctx context.Context, job domain.Job) error {
	buffers := &runBuffers{}
	index := job.CurrentDataIndex

	// Claim the job before touching any data. A job left durably pending
	// during its first batch would be picked up again by the next scheduler
	// tick and processed twice.
	if err := p.registry.Checkpoint(ctx, job.ID, index, domain.StatusInProgress); err != nil {
		return p.fail(ctx, job, buffers, index, false, fmt.Errorf("claim job: %w", err))
	}

	reader, err := p.source.Open(ctx, job.StagedPath)
	if err != nil {
		return p.fail(ctx, job, buffers, index, false, fmt.Errorf("open staged file: %w", err))
	}
	defer reader.Close()

	dec := json.NewDecoder(reader)

	token, err := dec.Token()
	if err != nil {
		return p.fail(ctx, job, buffers, index, true, fmt.Errorf("read staged start token: %w", err))
	}
	if delim, ok := token.(json.Delim); !ok || delim != '[' {
		return p.fail(ctx, job, buffers, index, true, errors.New("staged data must be a JSON array"))
	}

	// Skip records already accounted for by a previous run.
	for skipped := int64(0); skipped < job.CurrentDataIndex && dec.More(); skipped++ {
		var discard json.RawMessage
		if err := dec.Decode(&discard); err != nil {
			return p.fail(ctx, job, buffers, index, true, fmt.Errorf("skip staged record %d: %w", skipped, err))
		}
	}

	for dec.More() {
		select {
		case <-ctx.Done():
			return p.fail(ctx, job, buffers, index, false, ctx.Err())
		default:
		}

		batch := make([]domain.Record, 0, p.batchSize)
		for len(batch) < p.batchSize && dec.More() {
			var rec domain.Record
			if err := dec.Decode(&rec); err != nil {
				return p.fail(ctx, job, buffers, index, true, fmt.Errorf("decode staged record %d: %w", index+int64(len(batch)), err))
			}
			rec.JobID = job.ID
			if rec.AccountID == "" {
				rec.AccountID = job.AccountID
			}
			batch = append(batch, rec)
		}

		if err := p.processBatch(ctx, job, batch, buffers); err != nil {
			return p.fail(ctx, job, buffers, index, false, err)
		}

		// The index advances by the full batch size read from the staged
		// sequence, including records removed by validation or dedup.
		index += int64(len(batch))
		if err := p.registry.Checkpoint(ctx, job.ID, index, domain.StatusInProgress); err != nil {
			return p.fail(ctx, job, buffers, index, false, err)
		}
	}

	if _, err := dec.Token(); err != nil {
		return p.fail(ctx, job, buffers, index, true, fmt.Errorf("read staged end token: %w", err))
	}

	p.flush(ctx, job, buffers)

	if err := p.registry.Complete(ctx, job.ID, index); err != nil {
		return p.fail(ctx, job, &runBuffers{}, index, false, err)
	}

	// The staged file exists only to feed this run; failed jobs keep theirs
	// for the resume.
	if err := p.source.Remove(job.StagedPath); err != nil {
		p.logger.Warn("remove staged file", "jobId", job.ID, "path", job.StagedPath, "error", err)
	}

	p.logger.Info("job processed", "jobId", job.ID, "records", index, "action", string(job.ActionType))
	return nil
}

func (p *Processor) processBatch(ctx context.Context, job domain.Job, batch []domain.Record, buffers *runBuffers) error {
	valid := make([]domain.Record, 0, len(batch))
	for _, rec := range batch {
		if err := rec.Validate(); err != nil {
			buffers.skipped = append(buffers.skipped,
				domain.NewErrorLogEntry(rec, job.ID, job.ActionType, domain.ErrorTypeValidation, err.Error()))
			continue
		}
		valid = append(valid, rec)
	}
	if len(valid) == 0 {
		return nil
	}

	keys := make([]string, 0, len(valid))
	for _, rec := range valid {
		keys = append(keys, rec.Key())
	}
	existing, err := p.store.ExistingKeys(ctx, job.AccountID, keys)
	if err != nil {
		return err
	}

	if job.ActionType == domain.ActionUpdate {
		return p.applyUpdateBatch(ctx, job, valid, existing, buffers)
	}
	return p.applyInsertBatch(ctx, job, valid, existing, buffers)
}

func (p *Processor) applyInsertBatch(ctx context.Context, job domain.Job, valid []domain.Record, existing map[string]struct{}, buffers *runBuffers) error {
	seen := make(map[string]struct{}, len(valid))
	inserts := make([]domain.Record, 0, len(valid))

	for _, rec := range valid {
		key := rec.Key()
		if _, dup := existing[key]; dup {
			buffers.duplicates = append(buffers.duplicates,
				domain.NewErrorLogEntry(rec, job.ID, job.ActionType, domain.ErrorTypeDuplicate,
					fmt.Sprintf("record already exists for key %s", key)))
			continue
		}
		if _, dup := seen[key]; dup {
			buffers.duplicates = append(buffers.duplicates,
				domain.NewErrorLogEntry(rec, job.ID, job.ActionType, domain.ErrorTypeDuplicate,
					fmt.Sprintf("duplicate key %s within file", key)))
			continue
		}
		seen[key] = struct{}{}
		inserts = append(inserts, rec)
	}

	return p.store.BulkInsert(ctx, job.ID, inserts)
}

// applyUpdateBatch updates records whose key matches an existing contact. A
// record matching no key is logged as duplicate data and then inserted in a
// deferred pass, after duplicate classification of the whole batch: explicit
// upsert semantics rather than silently dropping non-matching updates.
func (p *Processor) applyUpdateBatch(ctx context.Context, job domain.Job, valid []domain.Record, existing map[string]struct{}, buffers *runBuffers) error {
	seen := make(map[string]struct{}, len(valid))
	updates := make([]domain.Record, 0, len(valid))
	inserts := make([]domain.Record, 0)

	for _, rec := range valid {
		key := rec.Key()
		if _, ok := existing[key]; ok {
			updates = append(updates, rec)
			continue
		}
		buffers.duplicates = append(buffers.duplicates,
			domain.NewErrorLogEntry(rec, job.ID, job.ActionType, domain.ErrorTypeDuplicate,
				fmt.Sprintf("no existing record for key %s; inserted instead", key)))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		inserts = append(inserts, rec)
	}

	if err := p.store.BulkUpdate(ctx, job.ID, updates); err != nil {
		return err
	}
	return p.store.BulkInsert(ctx, job.ID, inserts)
}

// fail flushes whatever accumulated so far, records the operational failure,
// checkpoints the job back to the last completed batch boundary and
// propagates the cause to the dispatcher. Malformed staged data is terminal;
// everything else re-queues the job as pending.
func (p *Processor) fail(ctx context.Context, job domain.Job, buffers *runBuffers, index int64, terminal bool, cause error) error {
	// Bookkeeping must survive a cancelled run.
	ctx = context.WithoutCancel(ctx)

	p.flush(ctx, job, buffers)

	reason := truncateReason(cause.Error())
	entry := domain.ErrorLogEntry{
		JobID:       job.ID,
		AccountID:   job.AccountID,
		ActionType:  job.ActionType,
		ErrorType:   domain.ErrorTypeOperational,
		ErrorDetail: reason,
	}
	if err := p.logs.AddBulk(ctx, []domain.ErrorLogEntry{entry}); err != nil {
		p.logger.Error("record operational failure", "jobId", job.ID, "error", err)
	}

	if terminal {
		if err := p.registry.MarkError(ctx, job.ID, index, reason); err != nil {
			p.logger.Error("mark job errored", "jobId", job.ID, "error", err)
		}
	} else {
		if err := p.registry.Checkpoint(ctx, job.ID, index, domain.StatusPending); err != nil {
			p.logger.Error("checkpoint failed job", "jobId", job.ID, "error", err)
		}
	}

	return fmt.Errorf("process job %s at index %d: %w", job.ID, index, cause)
}

func (p *Processor) flush(ctx context.Context, job domain.Job, buffers *runBuffers) {
	entries := make([]domain.ErrorLogEntry, 0, len(buffers.skipped)+len(buffers.duplicates))
	entries = append(entries, buffers.skipped...)
	entries = append(entries, buffers.duplicates...)
	if len(entries) == 0 {
		return
	}

	if err := p.logs.AddBulk(ctx, entries); err != nil {
		p.logger.Error("flush skip and duplicate entries", "jobId", job.ID, "count", len(entries), "error", err)
		return
	}
	buffers.skipped = nil
	buffers.duplicates = nil
}

func truncateReason(reason string) string {
	const maxLen = 1000
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxLen {
		return reason
	}
	return reason[:maxLen]
}
