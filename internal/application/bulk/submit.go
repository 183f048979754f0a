package bulk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domain "github.com/crmkit/contact-ingest/internal/domain/contact"
)

type stagingConverter interface {
	Convert(fileBuffer []byte, originalFileName, accountID string) (stagedPath string, total int64, err error)
}

type jobCreator interface {
	Create(ctx context.Context, job *domain.Job) (string, error)
}

type usageRecorder interface {
	Record(ctx context.Context, accountID string, records int64) error
}

type SubmitBulkActionInput struct {
	FileBuffer   []byte
	FileName     string
	FileType     domain.FileType
	ActionType   domain.ActionType
	AccountID    string
	ScheduleTime *time.Time
}

type SubmitBulkActionOutput struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type SubmitBulkAction interface {
	Execute(ctx context.Context, in SubmitBulkActionInput) (SubmitBulkActionOutput, error)
}

type submitBulkAction struct {
	converter  stagingConverter
	registry   jobCreator
	usage      usageRecorder
	dispatcher jobDispatcher
	logger     *slog.Logger
}

func NewSubmitBulkAction(converter stagingConverter, registry jobCreator, usage usageRecorder, dispatcher jobDispatcher, logger *slog.Logger) SubmitBulkAction {
	if logger == nil {
		logger = slog.Default()
	}
	return &submitBulkAction{
		converter:  converter,
		registry:   registry,
		usage:      usage,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Execute stages the uploaded file and registers its job. Staging is the
// only synchronous part: once it succeeds the caller gets an accepted
// answer and every downstream failure is visible only through the status
// queries. Unscheduled jobs start processing immediately in the background.
func (uc *submitBulkAction) Execute(ctx context.Context, in SubmitBulkActionInput) (SubmitBulkActionOutput, error) {
	if len(in.FileBuffer) == 0 {
		return SubmitBulkActionOutput{}, ErrEmptyUpload
	}
	if !domain.ValidFileType(in.FileType) {
		return SubmitBulkActionOutput{}, ErrInvalidFileType
	}
	if in.ActionType != domain.ActionInsert && in.ActionType != domain.ActionUpdate {
		return SubmitBulkActionOutput{}, ErrUnsupportedAction
	}

	stagedPath, total, err := uc.converter.Convert(in.FileBuffer, in.FileName, in.AccountID)
	if err != nil {
		uc.recordRejection(ctx, in, err)
		return SubmitBulkActionOutput{}, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}

	scheduleTime := time.Now()
	isScheduled := false
	if in.ScheduleTime != nil {
		scheduleTime = *in.ScheduleTime
		isScheduled = true
	}

	job := domain.Job{
		FileName:     in.FileName,
		StagedPath:   stagedPath,
		Status:       domain.StatusPending,
		ActionType:   in.ActionType,
		FileType:     in.FileType,
		TotalRecords: total,
		ScheduleTime: scheduleTime,
		IsScheduled:  isScheduled,
		AccountID:    in.AccountID,
	}
	jobID, err := uc.registry.Create(ctx, &job)
	if err != nil {
		return SubmitBulkActionOutput{}, fmt.Errorf("%w: %v", ErrCreateJob, err)
	}

	if !isScheduled {
		// Best effort: the usage counter feeds the request-rate limiter and
		// must never block ingestion.
		if err := uc.usage.Record(ctx, in.AccountID, total); err != nil {
			uc.logger.Warn("record ingestion usage", "accountId", in.AccountID, "error", err)
		}

		go func() {
			if err := uc.dispatcher.Dispatch(context.WithoutCancel(ctx), job); err != nil {
				uc.logger.Error("immediate dispatch failed", "jobId", jobID, "error", err)
			}
		}()
	}

	return SubmitBulkActionOutput{JobID: jobID, Status: string(domain.StatusPending)}, nil
}

// recordRejection keeps an audit row for an upload whose conversion failed.
func (uc *submitBulkAction) recordRejection(ctx context.Context, in SubmitBulkActionInput, cause error) {
	rejected := domain.Job{
		FileName:     in.FileName,
		StagedPath:   "",
		Status:       domain.StatusRejected,
		ActionType:   in.ActionType,
		FileType:     in.FileType,
		ScheduleTime: time.Now(),
		AccountID:    in.AccountID,
		ErrorMessage: cause.Error(),
	}
	if _, err := uc.registry.Create(ctx, &rejected); err != nil && !errors.Is(err, context.Canceled) {
		uc.logger.Error("record rejected upload", "file", in.FileName, "error", err)
	}
}
