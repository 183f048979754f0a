package contact

import "time"

type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation_error"
	ErrorTypeDuplicate   ErrorType = "duplicate_data"
	ErrorTypeOperational ErrorType = "operational_failure"
)

// ErrorLogEntry is an immutable copy of a rejected or duplicate record,
// created during a batch-processor run and owned by the job that produced it.
type ErrorLogEntry struct {
	ID          int64
	JobID       string
	AccountID   string
	Name        string
	Email       string
	Phone       string
	Address     string
	ErrorType   ErrorType
	ActionType  ActionType
	ErrorDetail string
	CreatedAt   time.Time
}

// NewErrorLogEntry copies a record into a log entry for the given job run.
func NewErrorLogEntry(rec Record, jobID string, action ActionType, errType ErrorType, detail string) ErrorLogEntry {
	return ErrorLogEntry{
		JobID:       jobID,
		AccountID:   rec.AccountID,
		Name:        rec.Name,
		Email:       rec.Email,
		Phone:       rec.Phone,
		Address:     rec.Address,
		ErrorType:   errType,
		ActionType:  action,
		ErrorDetail: detail,
	}
}
