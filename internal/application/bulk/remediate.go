package bulk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domain "github.com/crmkit/contact-ingest/internal/domain/contact"
)

type errorLogRegistry interface {
	GetByID(ctx context.Context, id int64, accountID string) (domain.ErrorLogEntry, error)
	Delete(ctx context.Context, id int64) error
}

type RemediateErrorLogInput struct {
	ErrorLogID int64
	AccountID  string
	Name       string
	Email      string
	Phone      string
	Address    string
}

type RemediateErrorLog interface {
	Execute(ctx context.Context, in RemediateErrorLogInput) error
}

type remediateErrorLog struct {
	logs   errorLogRegistry
	store  processorStore
	logger *slog.Logger
}

func NewRemediateErrorLog(logs errorLogRegistry, store processorStore, logger *slog.Logger) RemediateErrorLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &remediateErrorLog{logs: logs, store: store, logger: logger}
}

// Execute corrects a failed record in place: edited fields replace the
// logged ones, the result is re-validated and applied as a real contact,
// and the log entry is removed. Operational entries carry no record and
// cannot be remediated.
func (uc *remediateErrorLog) Execute(ctx context.Context, in RemediateErrorLogInput) error {
	entry, err := uc.logs.GetByID(ctx, in.ErrorLogID, in.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrErrorLogEntryNotFound) {
			return ErrErrorLogNotFound
		}
		return fmt.Errorf("%w: %v", ErrRemediate, err)
	}
	if entry.ErrorType == domain.ErrorTypeOperational {
		return ErrNotRemediable
	}

	rec := domain.Record{
		Name:      override(in.Name, entry.Name),
		Email:     override(in.Email, entry.Email),
		Phone:     override(in.Phone, entry.Phone),
		Address:   override(in.Address, entry.Address),
		AccountID: in.AccountID,
		JobID:     entry.JobID,
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContact, err)
	}

	existing, err := uc.store.ExistingKeys(ctx, in.AccountID, []string{rec.Key()})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemediate, err)
	}
	if _, dup := existing[rec.Key()]; dup {
		return ErrDuplicateContact
	}

	if err := uc.store.BulkInsert(ctx, entry.JobID, []domain.Record{rec}); err != nil {
		return fmt.Errorf("%w: %v", ErrRemediate, err)
	}
	if err := uc.logs.Delete(ctx, in.ErrorLogID); err != nil {
		uc.logger.Error("delete remediated error log entry", "errorLogId", in.ErrorLogID, "error", err)
	}

	uc.logger.Info("error log entry remediated", "errorLogId", in.ErrorLogID, "jobId", entry.JobID)
	return nil
}

func override(edited, logged string) string {
	if edited != "" {
		return edited
	}
	return logged
}
