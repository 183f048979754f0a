package contact

import "time"

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusInProgress JobStatus = "in_progress"
	StatusCompleted  JobStatus = "completed"
	StatusRejected   JobStatus = "rejected"
	StatusError      JobStatus = "error"
)

type ActionType string

const (
	ActionInsert ActionType = "insert"
	ActionUpdate ActionType = "update"
	// ActionDelete is accepted by the data model but has no processor yet.
	ActionDelete ActionType = "delete"
)

type FileType string

const (
	FileTypeContact     FileType = "contact"
	FileTypeCompany     FileType = "company"
	FileTypeLead        FileType = "lead"
	FileTypeOpportunity FileType = "opportunity"
	FileTypeTask        FileType = "task"
)

// Job tracks one uploaded file through staging, batch processing and
// completion. CurrentDataIndex is the resume offset: the number of source
// records already accounted for (applied, skipped or errored).
type Job struct {
	ID               string
	FileName         string
	StagedPath       string
	Status           JobStatus
	ActionType       ActionType
	FileType         FileType
	CurrentDataIndex int64
	TotalRecords     int64
	ScheduleTime     time.Time
	IsScheduled      bool
	AccountID        string
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func ValidActionType(a ActionType) bool {
	switch a {
	case ActionInsert, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

func ValidFileType(f FileType) bool {
	switch f {
	case FileTypeContact, FileTypeCompany, FileTypeLead, FileTypeOpportunity, FileTypeTask:
		return true
	}
	return false
}
