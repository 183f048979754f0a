package contact

import "time"

// JobStats aggregates the outcome of one job's run: applied rows plus the
// validation and duplicate rows recorded in the error log.
type JobStats struct {
	JobID           string
	TotalRecords    int64
	SuccessContacts int64
	FailedContacts  int64
	SkippedContacts int64
}

// RecordOutcome is one row of a job's record-level detail view: either an
// applied contact or an error-log entry.
type RecordOutcome struct {
	Name      string
	Email     string
	Phone     string
	Address   string
	Status    string
	ErrorType ErrorType
	Detail    string
	CreatedAt time.Time
}

const (
	OutcomeSuccess = "success"
	OutcomeFail    = "fail"
)
